// Package facility defines the canonical first-responder record and the
// local filtering, faceting and action helpers that operate on it.
package facility

import "georesponse_backend/internal/geo"

// Facility is a normalized first-responder location.
type Facility struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category Category `json:"category"`
	City     string   `json:"city"`
	State    string   `json:"state"`
	Address  string   `json:"address"`
	Lat      float64  `json:"locationLat"`
	Lng      float64  `json:"locationLng"`
	Phone    string   `json:"phoneNumber"`
	Website  string   `json:"websiteUrl,omitempty"`
	MapsURL  string   `json:"googleLocationUrl"`
}

// Point returns the facility's coordinates.
func (f Facility) Point() geo.Point {
	return geo.Point{Lat: f.Lat, Lng: f.Lng}
}

// HasLocation reports whether the facility carries usable coordinates.
// A record at exactly 0,0 is treated as unlocated.
func (f Facility) HasLocation() bool {
	p := f.Point()
	return p.Valid() && !p.IsZero()
}

// Markers converts facilities with a location into clustering input.
func Markers(list []Facility) []geo.Marker {
	markers := make([]geo.Marker, 0, len(list))
	for _, f := range list {
		if !f.HasLocation() {
			continue
		}
		markers = append(markers, geo.Marker{ID: f.ID, Point: f.Point()})
	}
	return markers
}

// Find returns the facility with id and whether it was present.
func Find(list []Facility, id string) (Facility, bool) {
	for _, f := range list {
		if f.ID == id {
			return f, true
		}
	}
	return Facility{}, false
}
