package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const nominatimLimit = 5

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// nominatim is the OSM search client. Requests are paced to the public
// instance's one-per-second policy.
type nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

func newNominatim(baseURL, userAgent string, limit rate.Limit) *nominatim {
	return &nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: 5 * time.Second},
		limiter:   rate.NewLimiter(limit, 1),
	}
}

func (n *nominatim) Search(ctx context.Context, query, region string) ([]Suggestion, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("limit", strconv.Itoa(nominatimLimit))
	if region != "" {
		params.Add("countrycodes", region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var raw []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode nominatim payload: %w", err)
	}

	out := make([]Suggestion, 0, len(raw))
	for _, r := range raw {
		s, ok := buildNominatimSuggestion(r)
		if !ok {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func buildNominatimSuggestion(r nominatimResponse) (Suggestion, bool) {
	if strings.TrimSpace(r.DisplayName) == "" {
		return Suggestion{}, false
	}
	lat, errLat := strconv.ParseFloat(r.Lat, 64)
	lng, errLng := strconv.ParseFloat(r.Lon, 64)
	if errLat != nil || errLng != nil {
		return Suggestion{}, false
	}
	return Suggestion{
		Label:  r.DisplayName,
		Lat:    lat,
		Lng:    lng,
		Source: SourceNominatim,
	}, true
}
