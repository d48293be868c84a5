// Package orchestrator runs search sessions: it owns the filter criteria,
// result set, distance index, suggestions and map focus of one map client
// and reconciles directory and geocoding responses into that state with
// latest-intent-wins ordering.
package orchestrator

import (
	"context"
	"time"

	"georesponse_backend/internal/directory"
	"georesponse_backend/internal/geocoding"
)

// Directory is the facility source a session queries.
type Directory interface {
	ListAll(ctx context.Context, filter directory.Filter) directory.Result
	ListNearby(ctx context.Context, lat, lon float64, opts directory.NearbyOptions) directory.Result
	ListClosest(ctx context.Context, lat, lon float64, opts directory.ClosestOptions) directory.Result
}

// Geocoder provides suggestions and place resolution.
type Geocoder interface {
	Suggest(ctx context.Context, query, region string) ([]geocoding.Suggestion, error)
	Resolve(ctx context.Context, placeID string) (*geocoding.Place, error)
}

// Settings tunes session behavior.
type Settings struct {
	Debounce       time.Duration
	NearbyRadiusKm float64
	NearbyLimit    int
	ClosestLimit   int
	Region         string
}

// DefaultSettings returns the standard debounce and origin search limits.
func DefaultSettings() Settings {
	return Settings{
		Debounce:       300 * time.Millisecond,
		NearbyRadiusKm: 20,
		NearbyLimit:    50,
		ClosestLimit:   20,
	}
}

func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.Debounce < 0 {
		s.Debounce = 0
	}
	if s.NearbyRadiusKm <= 0 {
		s.NearbyRadiusKm = def.NearbyRadiusKm
	}
	if s.NearbyLimit <= 0 {
		s.NearbyLimit = def.NearbyLimit
	}
	if s.ClosestLimit <= 0 {
		s.ClosestLimit = def.ClosestLimit
	}
	return s
}
