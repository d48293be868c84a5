package orchestrator

import (
	"maps"
	"slices"

	"georesponse_backend/internal/directory"
	"georesponse_backend/internal/facility"
	"georesponse_backend/internal/geo"
	"georesponse_backend/internal/geocoding"
)

// Mode is the session's coarse search state.
type Mode string

const (
	// ModeFiltered shows the directory list for the current criteria.
	ModeFiltered Mode = "filtered"
	// ModeGeocoding means a text query is being typed and suggested.
	ModeGeocoding Mode = "geocoding"
	// ModeOrigin ranks results by distance from a picked origin.
	ModeOrigin Mode = "origin"
)

// FocusReason says why the map focus moved.
type FocusReason string

const (
	FocusOrigin   FocusReason = "origin"
	FocusFacility FocusReason = "facility"
	FocusLocation FocusReason = "location"
)

const (
	originZoom   = 12
	facilityZoom = 15
	locationZoom = 13
)

// Origin is the geocoded reference point for distance ranking.
type Origin struct {
	Point geo.Point `json:"point"`
	Label string    `json:"label"`
}

// Focus is a map recentering request.
type Focus struct {
	Point  geo.Point   `json:"point"`
	Zoom   int         `json:"zoom"`
	Reason FocusReason `json:"reason"`
}

// State is a point-in-time view of a session. Distances is only populated
// while Origin is set.
type State struct {
	ID          string                 `json:"id"`
	Mode        Mode                   `json:"mode"`
	Criteria    facility.Criteria      `json:"criteria"`
	Suggestions []geocoding.Suggestion `json:"suggestions"`
	Origin      *Origin                `json:"origin,omitempty"`
	Results     []facility.Facility    `json:"results"`
	Distances   map[string]float64     `json:"distances,omitempty"`
	Facets      facility.Facets        `json:"facets"`
	Selected    *facility.Facility     `json:"selected,omitempty"`
	Focus       *Focus                 `json:"focus,omitempty"`
	Outcome     directory.Outcome      `json:"outcome"`
	Version     uint64                 `json:"version"`
}

func (s State) clone() State {
	out := s
	out.Suggestions = slices.Clone(s.Suggestions)
	out.Results = slices.Clone(s.Results)
	out.Distances = maps.Clone(s.Distances)
	out.Facets = facility.Facets{
		Cities: slices.Clone(s.Facets.Cities),
		States: slices.Clone(s.Facets.States),
	}
	if s.Origin != nil {
		o := *s.Origin
		out.Origin = &o
	}
	if s.Selected != nil {
		f := *s.Selected
		out.Selected = &f
	}
	if s.Focus != nil {
		f := *s.Focus
		out.Focus = &f
	}
	return out
}

// Distance returns the distance of facility id from the origin.
func (s State) Distance(id string) (float64, bool) {
	d, ok := s.Distances[id]
	return d, ok
}
