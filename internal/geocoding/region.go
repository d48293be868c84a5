package geocoding

import (
	"net"
	"strings"

	"georesponse_backend/platform/config"

	"github.com/oschwald/geoip2-golang"
)

// RegionResolver maps a client IP to a lower-case ISO country code using a
// MaxMind database. A nil resolver always answers with no region.
type RegionResolver struct {
	reader *geoip2.Reader
}

// OpenRegionResolver opens the configured database, or returns nil when
// none is configured.
func OpenRegionResolver(cfg config.GeoIPConfig) (*RegionResolver, error) {
	if !cfg.IsGeoIPEnabled() {
		return nil, nil
	}
	reader, err := geoip2.Open(cfg.GetGeoIPDBPath())
	if err != nil {
		return nil, err
	}
	return &RegionResolver{reader: reader}, nil
}

// RegionFor returns the country code for ip, or "" when unknown.
func (r *RegionResolver) RegionFor(ip string) string {
	if r == nil || r.reader == nil {
		return ""
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() {
		return ""
	}
	record, err := r.reader.Country(parsed)
	if err != nil {
		return ""
	}
	return strings.ToLower(record.Country.IsoCode)
}

// Close releases the database.
func (r *RegionResolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
