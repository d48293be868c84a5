package geocoding

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"georesponse_backend/platform/cache"
	"georesponse_backend/platform/config"
	"georesponse_backend/platform/logger"
	"georesponse_backend/platform/metrics"

	"golang.org/x/text/cases"
	"golang.org/x/time/rate"
)

const (
	defaultRegion      = "in"
	defaultInitTimeout = 10 * time.Second
	nominatimRate      = rate.Limit(1)
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	Region             string
	InitTimeout        time.Duration
	CacheTTL           time.Duration
	Loader             ProviderLoader
	NominatimURL       string
	NominatimUserAgent string
	NominatimRate      rate.Limit
}

// Client owns the primary provider's readiness and the fallback provider.
// It is safe for concurrent use.
type Client struct {
	initMu sync.Mutex

	mu     sync.RWMutex
	places PlacesProvider

	loader      ProviderLoader
	fallback    *nominatim
	region      string
	initTimeout time.Duration
	cache       *cache.Store
	cacheTTL    time.Duration
	log         *logger.Logger
}

// New builds a client from configuration backed by Google Places.
func New(cfg config.GeocodingConfig, store *cache.Store, log *logger.Logger) *Client {
	return NewWithOptions(Options{
		Region:             cfg.GetGeocodingRegion(),
		InitTimeout:        cfg.GetGeocodingInitTimeout(),
		CacheTTL:           cfg.GetGeocodingCacheTTL(),
		Loader:             GoogleLoader(""),
		NominatimURL:       cfg.GetNominatimURL(),
		NominatimUserAgent: cfg.GetNominatimUserAgent(),
	}, store, log)
}

// NewWithOptions builds a client with explicit options.
func NewWithOptions(opts Options, store *cache.Store, log *logger.Logger) *Client {
	if opts.Region == "" {
		opts.Region = defaultRegion
	}
	if opts.InitTimeout <= 0 {
		opts.InitTimeout = defaultInitTimeout
	}
	if opts.Loader == nil {
		opts.Loader = GoogleLoader("")
	}
	if opts.NominatimRate == 0 {
		opts.NominatimRate = nominatimRate
	}
	return &Client{
		loader:      opts.Loader,
		fallback:    newNominatim(opts.NominatimURL, opts.NominatimUserAgent, opts.NominatimRate),
		region:      strings.ToLower(opts.Region),
		initTimeout: opts.InitTimeout,
		cache:       store.Namespace("geocoding:"),
		cacheTTL:    opts.CacheTTL,
		log:         log,
	}
}

// Initialize loads the primary provider. Once it has succeeded further calls
// return nil immediately; concurrent calls are serialized. On ErrInitTimeout
// or a load error the client keeps serving suggestions from the fallback
// and Initialize may be called again.
func (c *Client) Initialize(ctx context.Context, apiKey string) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.Ready() {
		return nil
	}
	if strings.TrimSpace(apiKey) == "" {
		return ErrMissingAPIKey
	}

	loadCtx, cancel := context.WithTimeout(ctx, c.initTimeout)
	defer cancel()

	type loaded struct {
		provider PlacesProvider
		err      error
	}
	done := make(chan loaded, 1)
	go func() {
		p, err := c.loader(loadCtx, apiKey)
		done <- loaded{provider: p, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("load places provider: %w", res.err)
		}
		c.mu.Lock()
		c.places = res.provider
		c.mu.Unlock()
		c.log.Info("geocoding primary provider ready")
		return nil
	case <-loadCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrInitTimeout
	}
}

// Ready reports whether the primary provider is loaded.
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.places != nil
}

// DefaultRegion is the region used when callers pass none.
func (c *Client) DefaultRegion() string {
	return c.region
}

func (c *Client) primary() PlacesProvider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.places
}

// Suggest returns candidates for a partial query. Queries shorter than
// MinQueryLength return an empty list without any provider call. The
// fallback is consulted when the primary is not ready, fails, or finds
// nothing. An error is returned only when the provider that produced the
// final answer failed.
func (c *Client) Suggest(ctx context.Context, query, region string) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return []Suggestion{}, nil
	}
	region = strings.ToLower(strings.TrimSpace(region))
	if region == "" {
		region = c.region
	}

	key := "suggest:" + region + ":" + cases.Fold().String(query)
	var cached []Suggestion
	if hit, err := c.cache.Get(ctx, key, &cached); err != nil {
		c.log.Warn("geocoding cache read failed", "error", err)
	} else if hit {
		return cached, nil
	}

	if places := c.primary(); places != nil {
		results, err := c.observe(string(SourceGoogle), "suggest", func() ([]Suggestion, error) {
			return places.Autocomplete(ctx, query, region)
		})
		if err != nil {
			c.log.WithContext(ctx).UpstreamError(string(SourceGoogle), "suggest", err)
		} else if len(results) > 0 {
			c.store(ctx, key, results)
			return results, nil
		}
	}

	results, err := c.observe(string(SourceNominatim), "suggest", func() ([]Suggestion, error) {
		return c.fallback.Search(ctx, query, region)
	})
	if err != nil {
		c.log.WithContext(ctx).UpstreamError(string(SourceNominatim), "suggest", err)
		return []Suggestion{}, err
	}
	if len(results) > 0 {
		c.store(ctx, key, results)
	}
	return results, nil
}

// Resolve looks up coordinates for a primary-provider place id. It returns
// nil and no error when the provider knows no such place.
func (c *Client) Resolve(ctx context.Context, placeID string) (*Place, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, nil
	}
	places := c.primary()
	if places == nil {
		return nil, ErrNotInitialized
	}

	key := "place:" + placeID
	var cached Place
	if hit, err := c.cache.Get(ctx, key, &cached); err != nil {
		c.log.Warn("geocoding cache read failed", "error", err)
	} else if hit {
		return &cached, nil
	}

	start := time.Now()
	place, err := places.Details(ctx, placeID)
	metrics.GeocodingDurationMs.WithLabelValues(string(SourceGoogle)).Observe(float64(time.Since(start).Milliseconds()))
	switch {
	case err != nil:
		metrics.GeocodingRequestsTotal.WithLabelValues(string(SourceGoogle), "resolve", "failed").Inc()
		c.log.WithContext(ctx).UpstreamError(string(SourceGoogle), "resolve", err)
		return nil, err
	case place == nil:
		metrics.GeocodingRequestsTotal.WithLabelValues(string(SourceGoogle), "resolve", "empty").Inc()
		return nil, nil
	}

	metrics.GeocodingRequestsTotal.WithLabelValues(string(SourceGoogle), "resolve", "ok").Inc()
	if err := c.cache.Set(ctx, key, place, c.cacheTTL); err != nil {
		c.log.Warn("geocoding cache write failed", "error", err)
	}
	return place, nil
}

// Geocode returns the place of the best suggestion for a free-form
// address, resolving it through the primary provider when the suggestion
// only carries a place id. It returns nil and no error when nothing matched.
func (c *Client) Geocode(ctx context.Context, query, region string) (*Place, error) {
	suggestions, err := c.Suggest(ctx, query, region)
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		return nil, nil
	}
	best := suggestions[0]
	if best.NeedsResolve() {
		return c.Resolve(ctx, best.PlaceID)
	}
	return &Place{PlaceID: best.PlaceID, Name: best.Label, Lat: best.Lat, Lng: best.Lng}, nil
}

func (c *Client) observe(provider, op string, call func() ([]Suggestion, error)) ([]Suggestion, error) {
	start := time.Now()
	results, err := call()
	metrics.GeocodingDurationMs.WithLabelValues(provider).Observe(float64(time.Since(start).Milliseconds()))

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "failed"
	case len(results) == 0:
		outcome = "empty"
	}
	metrics.GeocodingRequestsTotal.WithLabelValues(provider, op, outcome).Inc()
	return results, err
}

func (c *Client) store(ctx context.Context, key string, results []Suggestion) {
	if err := c.cache.Set(ctx, key, results, c.cacheTTL); err != nil {
		c.log.Warn("geocoding cache write failed", "error", err)
	}
}
