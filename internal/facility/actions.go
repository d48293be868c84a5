package facility

import (
	"net/url"
	"strconv"

	"georesponse_backend/platform/phone"
)

const mapsSearchURL = "https://www.google.com/maps/search/"

// Actions are the links offered on a facility detail card.
type Actions struct {
	Call       string `json:"call,omitempty"`
	Website    string `json:"website,omitempty"`
	Directions string `json:"directions,omitempty"`
}

// BuildActions derives the call, website and directions links for f.
func BuildActions(f Facility) Actions {
	return Actions{
		Call:       phone.DialURI(f.Phone),
		Website:    f.Website,
		Directions: DirectionsURL(f),
	}
}

// DirectionsURL returns the stored maps link, or a maps search link built
// from the coordinates when none is stored.
func DirectionsURL(f Facility) string {
	if f.MapsURL != "" {
		return f.MapsURL
	}
	if !f.HasLocation() {
		return ""
	}
	q := url.Values{}
	q.Set("api", "1")
	q.Set("query", strconv.FormatFloat(f.Lat, 'f', -1, 64)+","+strconv.FormatFloat(f.Lng, 'f', -1, 64))
	return mapsSearchURL + "?" + q.Encode()
}
