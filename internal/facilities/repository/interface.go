package repository

import (
	"context"
	"time"

	"georesponse_backend/internal/facility"

	"github.com/google/uuid"
)

// Record is a stored facility. Lat and Lng are nil until the facility has
// been located.
type Record struct {
	ID        uuid.UUID
	Title     string
	Category  facility.Category
	Address   string
	City      string
	State     string
	Lat       *float64
	Lng       *float64
	Phone     string
	Website   string
	MapsURL   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasLocation reports whether the record carries coordinates.
func (r Record) HasLocation() bool {
	return r.Lat != nil && r.Lng != nil
}

// Facility converts the record to the canonical facility shape.
func (r Record) Facility() facility.Facility {
	f := facility.Facility{
		ID:       r.ID.String(),
		Title:    r.Title,
		Category: r.Category,
		City:     r.City,
		State:    r.State,
		Address:  r.Address,
		Phone:    r.Phone,
		Website:  r.Website,
		MapsURL:  r.MapsURL,
	}
	if r.HasLocation() {
		f.Lat, f.Lng = *r.Lat, *r.Lng
	}
	return f
}

// ListParams narrows List. Zero fields do not filter. Category All matches
// every category. City, State and CityName match whole values ignoring
// case; Search and Address match substrings ignoring case.
type ListParams struct {
	Search   string
	Category facility.Category
	City     string
	State    string
	Address  string
	// LocatedOnly restricts the list to records with coordinates.
	LocatedOnly bool
}

// CreateParams contains the fields of a new facility.
type CreateParams struct {
	ID       uuid.UUID
	Title    string
	Category facility.Category
	Address  string
	City     string
	State    string
	Lat      *float64
	Lng      *float64
	Phone    string
	Website  string
	MapsURL  string
}

// UpdateParams replaces every editable field of facility ID.
type UpdateParams struct {
	ID       uuid.UUID
	Title    string
	Category facility.Category
	Address  string
	City     string
	State    string
	Lat      *float64
	Lng      *float64
	Phone    string
	Website  string
	MapsURL  string
}

// FacilityReader provides read operations.
type FacilityReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Record, error)
	List(ctx context.Context, params ListParams) ([]Record, error)
	ListMissingLocation(ctx context.Context, limit int) ([]Record, error)
}

// FacilityWriter provides write operations.
type FacilityWriter interface {
	Create(ctx context.Context, params CreateParams) (Record, error)
	Update(ctx context.Context, params UpdateParams) (Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetLocation(ctx context.Context, id uuid.UUID, lat, lng float64) error
}

// Repository combines all facility repository operations.
type Repository interface {
	FacilityReader
	FacilityWriter
}
