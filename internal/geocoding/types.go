// Package geocoding turns free text into location suggestions and resolves
// provider place ids into coordinates. Google Places is the primary
// provider; OpenStreetMap Nominatim is the fallback.
package geocoding

import "errors"

// MinQueryLength is the shortest trimmed query that reaches a provider.
const MinQueryLength = 2

// Source names the provider that produced a suggestion.
type Source string

const (
	SourceGoogle    Source = "google"
	SourceNominatim Source = "nominatim"
)

// Suggestion is an autocomplete candidate. Google suggestions carry a
// PlaceID and zero coordinates until resolved; Nominatim suggestions carry
// coordinates directly.
type Suggestion struct {
	Label         string  `json:"label"`
	SecondaryText string  `json:"secondaryText,omitempty"`
	PlaceID       string  `json:"placeId,omitempty"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	Source        Source  `json:"source"`
}

// NeedsResolve reports whether coordinates must be looked up by place id.
func (s Suggestion) NeedsResolve() bool {
	return s.PlaceID != "" && s.Lat == 0 && s.Lng == 0
}

// Place is a resolved location.
type Place struct {
	PlaceID string  `json:"placeId"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

var (
	// ErrInitTimeout is returned by Initialize when the primary provider
	// does not become ready within the configured timeout.
	ErrInitTimeout = errors.New("geocoding provider initialization timed out")
	// ErrNotInitialized is returned by Resolve before Initialize succeeded.
	ErrNotInitialized = errors.New("geocoding provider not initialized")
	// ErrMissingAPIKey is returned by Initialize without a key.
	ErrMissingAPIKey = errors.New("geocoding api key is required")
)
