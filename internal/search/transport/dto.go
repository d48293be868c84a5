package transport

import (
	"georesponse_backend/internal/directory"
	"georesponse_backend/internal/facility"
	"georesponse_backend/internal/geo"
	"georesponse_backend/internal/geocoding"
)

type ListRequest struct {
	Query    string `form:"q" validate:"max=200"`
	Category string `form:"category" validate:"omitempty,category_filter"`
	City     string `form:"city" validate:"max=120"`
	State    string `form:"state" validate:"max=120"`
}

type AroundRequest struct {
	Lat      *float64 `form:"lat" validate:"required,latitude"`
	Lon      *float64 `form:"lon" validate:"required,longitude"`
	Category string   `form:"category" validate:"omitempty,category_filter"`
	City     string   `form:"city" validate:"max=120"`
	State    string   `form:"state" validate:"max=120"`
}

type CreateSessionRequest struct {
	Region string `json:"region" validate:"omitempty,len=2,alpha"`
}

type QueryRequest struct {
	Text string `json:"text" validate:"max=200"`
}

type SuggestionRequest struct {
	Label   string  `json:"label" validate:"max=300"`
	PlaceID string  `json:"placeId" validate:"max=512"`
	Lat     float64 `json:"lat" validate:"latitude"`
	Lng     float64 `json:"lng" validate:"longitude"`
}

type CategoryRequest struct {
	Category string `json:"category" validate:"required,category_filter"`
}

type PlaceFilterRequest struct {
	Value string `json:"value" validate:"max=120"`
}

type LocateRequest struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

type ClustersRequest struct {
	Zoom int `form:"zoom" validate:"min=0,max=22"`
}

// FacilityView is a facility with its distance from the origin, when one
// is set, and the detail-card actions.
type FacilityView struct {
	facility.Facility
	DistanceKm *float64         `json:"distanceKm,omitempty"`
	Actions    facility.Actions `json:"actions"`
}

type ListResponse struct {
	Items   []FacilityView    `json:"items"`
	Total   int               `json:"total"`
	Facets  facility.Facets   `json:"facets"`
	Outcome directory.Outcome `json:"outcome"`
}

type AroundResponse struct {
	Origin      geo.Point         `json:"origin"`
	Items       []FacilityView    `json:"items"`
	Total       int               `json:"total"`
	Facets      facility.Facets   `json:"facets"`
	Outcome     directory.Outcome `json:"outcome"`
	UsedClosest bool              `json:"usedClosest"`
}

type SessionResponse struct {
	ID          string                 `json:"id"`
	Mode        string                 `json:"mode"`
	Criteria    facility.Criteria      `json:"criteria"`
	Suggestions []geocoding.Suggestion `json:"suggestions"`
	Origin      *OriginView            `json:"origin,omitempty"`
	Results     []FacilityView         `json:"results"`
	Total       int                    `json:"total"`
	Facets      facility.Facets        `json:"facets"`
	Selected    *FacilityView          `json:"selected,omitempty"`
	Focus       *FocusView             `json:"focus,omitempty"`
	Outcome     directory.Outcome      `json:"outcome"`
	Version     uint64                 `json:"version"`
}

type OriginView struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label"`
}

type FocusView struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Zoom   int     `json:"zoom"`
	Reason string  `json:"reason"`
}

type ClustersResponse struct {
	Zoom     int           `json:"zoom"`
	Clusters []geo.Cluster `json:"clusters"`
}
