package transport

import (
	"georesponse_backend/internal/facility"

	"github.com/google/uuid"
)

// FacilityRequest carries every editable field of a facility. Create and
// update share it: an update replaces the whole record except its id.
type FacilityRequest struct {
	Title    string   `json:"title" validate:"required,min=1,max=200"`
	Category string   `json:"category" validate:"required,category"`
	Address  string   `json:"address" validate:"max=500"`
	City     string   `json:"city" validate:"required,max=120"`
	State    string   `json:"state" validate:"required,max=120"`
	Lat      *float64 `json:"locationLat" validate:"omitempty,latitude"`
	Lng      *float64 `json:"locationLng" validate:"omitempty,longitude"`
	Phone    string   `json:"phoneNumber" validate:"max=40"`
	Website  string   `json:"websiteUrl" validate:"omitempty,url,max=500"`
	MapsURL  string   `json:"googleLocationUrl" validate:"omitempty,url,max=1000"`
}

// ListFacilitiesRequest filters the admin list.
type ListFacilitiesRequest struct {
	Search   string `form:"q" validate:"max=200"`
	Category string `form:"category" validate:"omitempty,category_filter"`
	City     string `form:"city" validate:"max=120"`
	State    string `form:"state" validate:"max=120"`
}

// FacilityResponse is a stored facility in admin responses.
type FacilityResponse struct {
	ID        uuid.UUID         `json:"id"`
	Title     string            `json:"title"`
	Category  facility.Category `json:"category"`
	Address   string            `json:"address"`
	City      string            `json:"city"`
	State     string            `json:"state"`
	Lat       *float64          `json:"locationLat"`
	Lng       *float64          `json:"locationLng"`
	Phone     string            `json:"phoneNumber"`
	Website   string            `json:"websiteUrl"`
	MapsURL   string            `json:"googleLocationUrl"`
	CreatedAt string            `json:"createdAt"`
	UpdatedAt string            `json:"updatedAt"`
}

// FacilityListResponse wraps a list of facilities with its facets.
type FacilityListResponse struct {
	Items  []FacilityResponse `json:"items"`
	Total  int                `json:"total"`
	Facets facility.Facets    `json:"facets"`
}

// LocationsRequest is the query of GET /locations.
type LocationsRequest struct {
	Category string `form:"category" validate:"omitempty,category_filter"`
	Address  string `form:"address" validate:"max=200"`
	CityName string `form:"cityName" validate:"max=120"`
}

// NearbyRequest is the query of GET /locations/nearby.
type NearbyRequest struct {
	Lat      *float64 `form:"latitude" validate:"required,latitude"`
	Lng      *float64 `form:"longitude" validate:"required,longitude"`
	RadiusKm float64  `form:"radiusKm" validate:"omitempty,gt=0,lte=500"`
	Limit    int      `form:"limit" validate:"omitempty,min=1,max=200"`
	Category string   `form:"category" validate:"omitempty,category_filter"`
}

// ClosestRequest is the query of GET /locations/closest.
type ClosestRequest struct {
	Lat      *float64 `form:"latitude" validate:"required,latitude"`
	Lng      *float64 `form:"longitude" validate:"required,longitude"`
	Limit    int      `form:"limit" validate:"omitempty,min=1,max=200"`
	Category string   `form:"category" validate:"omitempty,category_filter"`
}

// LocationRecord is one facility in the directory wire format.
type LocationRecord struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Category          string     `json:"category"`
	Address           string     `json:"address"`
	Latitude          *float64   `json:"latitude"`
	Longitude         *float64   `json:"longitude"`
	Phone             string     `json:"phone"`
	Website           string     `json:"website,omitempty"`
	GoogleLocationURL string     `json:"googleLocationURL,omitempty"`
	City              CityRecord `json:"city"`
	DistanceKm        *float64   `json:"distanceKm,omitempty"`
}

type CityRecord struct {
	Name  string      `json:"name"`
	State StateRecord `json:"state"`
}

type StateRecord struct {
	Name string `json:"name"`
}

// LocationsResponse is the directory wire envelope.
type LocationsResponse struct {
	Locations []LocationRecord `json:"locations"`
}
