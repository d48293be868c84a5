package directory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"georesponse_backend/internal/facility"
	"georesponse_backend/platform/cache"
	"georesponse_backend/platform/config"
	"georesponse_backend/platform/logger"
	"georesponse_backend/platform/metrics"

	"golang.org/x/sync/singleflight"
)

const (
	upstreamName   = "directory"
	maxPayloadSize = 8 << 20
)

// Client talks to the facility-directory REST service.
type Client struct {
	baseURL  string
	http     *http.Client
	cache    *cache.Store
	cacheTTL time.Duration
	group    singleflight.Group
	log      *logger.Logger
}

// New creates a directory client. store may be nil to disable caching.
func New(cfg config.DirectoryConfig, store *cache.Store, log *logger.Logger) *Client {
	return &Client{
		baseURL:  cfg.GetDirectoryAPIURL(),
		http:     &http.Client{Timeout: cfg.GetDirectoryTimeout()},
		cache:    store.Namespace("directory:"),
		cacheTTL: cfg.GetDirectoryCacheTTL(),
		log:      log,
	}
}

// ListAll fetches the facilities matching filter. An empty filter returns
// the full set.
func (c *Client) ListAll(ctx context.Context, filter Filter) Result {
	q := url.Values{}
	setString(q, "category", filter.Category.WireValue())
	setString(q, "address", filter.Address)
	setInt(q, "cityId", filter.CityID)
	setString(q, "cityName", filter.CityName)
	return c.fetch(ctx, "list", "/locations", q)
}

// ListNearby fetches facilities within a radius of lat,lon.
func (c *Client) ListNearby(ctx context.Context, lat, lon float64, opts NearbyOptions) Result {
	q := url.Values{}
	setFloat(q, "latitude", lat, true)
	setFloat(q, "longitude", lon, true)
	setFloat(q, "radiusKm", opts.RadiusKm, false)
	setInt(q, "limit", opts.Limit)
	setString(q, "category", opts.Category.WireValue())
	return c.fetch(ctx, "nearby", "/locations/nearby", q)
}

// ListClosest fetches the nearest facilities to lat,lon regardless of radius.
func (c *Client) ListClosest(ctx context.Context, lat, lon float64, opts ClosestOptions) Result {
	q := url.Values{}
	setFloat(q, "latitude", lat, true)
	setFloat(q, "longitude", lon, true)
	setInt(q, "limit", opts.Limit)
	setString(q, "category", opts.Category.WireValue())
	return c.fetch(ctx, "closest", "/locations/closest", q)
}

// InvalidateCache drops every cached directory response.
func (c *Client) InvalidateCache(ctx context.Context) error {
	return c.cache.Flush(ctx)
}

func (c *Client) fetch(ctx context.Context, op, path string, q url.Values) Result {
	reqURL := c.baseURL + path
	if encoded := q.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	// The shared call outlives any single caller; the http client timeout
	// bounds it instead.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(reqURL, func() (interface{}, error) {
		var cached []facility.Facility
		if hit, err := c.cache.Get(fetchCtx, reqURL, &cached); err != nil {
			c.log.Warn("directory cache read failed", "error", err)
		} else if hit {
			return cached, nil
		}

		list, err := c.request(fetchCtx, op, reqURL)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(fetchCtx, reqURL, list, c.cacheTTL); err != nil {
			c.log.Warn("directory cache write failed", "error", err)
		}
		return list, nil
	})

	var v interface{}
	var err error
	select {
	case r := <-ch:
		v, err = r.Val, r.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		metrics.DirectoryRequestsTotal.WithLabelValues(op, string(OutcomeFailed)).Inc()
		c.log.WithContext(ctx).UpstreamError(upstreamName, op, err)
		return failedResult(err)
	}

	res := okResult(v.([]facility.Facility))
	metrics.DirectoryRequestsTotal.WithLabelValues(op, string(res.Outcome)).Inc()
	return res
}

func (c *Client) request(ctx context.Context, op, reqURL string) ([]facility.Facility, error) {
	start := time.Now()
	defer func() {
		metrics.DirectoryDurationMs.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return nil, err
	}

	list, dropped, err := Decode(body)
	if err != nil {
		return nil, err
	}
	for _, d := range dropped {
		metrics.DirectoryDroppedRecordsTotal.Inc()
		c.log.Warn("directory record dropped", "id", d.ID, "reason", d.Reason, "operation", op)
	}
	return list, nil
}

func setString(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func setInt(q url.Values, key string, value int) {
	if value != 0 {
		q.Set(key, strconv.Itoa(value))
	}
}

// setFloat writes value; zero is omitted unless required.
func setFloat(q url.Values, key string, value float64, required bool) {
	if value == 0 && !required {
		return
	}
	q.Set(key, strconv.FormatFloat(value, 'f', -1, 64))
}
