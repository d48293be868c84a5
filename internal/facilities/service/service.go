package service

import (
	"context"
	"strings"
	"time"

	"georesponse_backend/internal/events"
	"georesponse_backend/internal/facilities/repository"
	"georesponse_backend/internal/facilities/transport"
	"georesponse_backend/internal/facility"
	"georesponse_backend/platform/apperr"
	"georesponse_backend/platform/logger"
	"georesponse_backend/platform/phone"
	"georesponse_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Service provides business logic for the facility registry.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new facility registry service. bus may be nil.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// GetByID retrieves a facility by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.FacilityResponse, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.FacilityResponse{}, err
	}
	return toResponse(rec), nil
}

// List retrieves facilities with the admin filters. Facets cover the
// category-filtered set so the city and state pickers stay usable while
// one of them is applied.
func (s *Service) List(ctx context.Context, req transport.ListFacilitiesRequest) (transport.FacilityListResponse, error) {
	category := facility.ParseSelection(req.Category)
	scope, err := s.repo.List(ctx, repository.ListParams{Category: category})
	if err != nil {
		return transport.FacilityListResponse{}, err
	}
	items, err := s.repo.List(ctx, repository.ListParams{
		Search:   strings.TrimSpace(req.Search),
		Category: category,
		City:     normalizePlace(req.City),
		State:    normalizePlace(req.State),
	})
	if err != nil {
		return transport.FacilityListResponse{}, err
	}

	return transport.FacilityListResponse{
		Items:  toResponses(items),
		Total:  len(items),
		Facets: facility.BuildFacets(toFacilities(scope)),
	}, nil
}

// Create stores a new facility under a server-generated id.
func (s *Service) Create(ctx context.Context, actor string, req transport.FacilityRequest) (transport.FacilityResponse, error) {
	fields, err := cleanFields(req)
	if err != nil {
		return transport.FacilityResponse{}, err
	}

	rec, err := s.repo.Create(ctx, repository.CreateParams{
		ID:       uuid.New(),
		Title:    fields.Title,
		Category: fields.Category,
		Address:  fields.Address,
		City:     fields.City,
		State:    fields.State,
		Lat:      fields.Lat,
		Lng:      fields.Lng,
		Phone:    fields.Phone,
		Website:  fields.Website,
		MapsURL:  fields.MapsURL,
	})
	if err != nil {
		return transport.FacilityResponse{}, err
	}

	s.log.Info("facility created", "id", rec.ID, "category", rec.Category, "city", rec.City, "actor", actor)
	s.publish(ctx, events.FacilityCreated{
		BaseEvent:  events.NewBaseEvent(),
		FacilityID: rec.ID,
		Category:   string(rec.Category),
		City:       rec.City,
		ActorEmail: actor,
	})
	return toResponse(rec), nil
}

// Update replaces every editable field of a facility. The id is preserved.
func (s *Service) Update(ctx context.Context, actor string, id uuid.UUID, req transport.FacilityRequest) (transport.FacilityResponse, error) {
	fields, err := cleanFields(req)
	if err != nil {
		return transport.FacilityResponse{}, err
	}

	rec, err := s.repo.Update(ctx, repository.UpdateParams{
		ID:       id,
		Title:    fields.Title,
		Category: fields.Category,
		Address:  fields.Address,
		City:     fields.City,
		State:    fields.State,
		Lat:      fields.Lat,
		Lng:      fields.Lng,
		Phone:    fields.Phone,
		Website:  fields.Website,
		MapsURL:  fields.MapsURL,
	})
	if err != nil {
		return transport.FacilityResponse{}, err
	}

	s.log.Info("facility updated", "id", rec.ID, "actor", actor)
	s.publish(ctx, facilityUpdatedBy(rec, actor))
	return toResponse(rec), nil
}

func facilityUpdatedBy(rec repository.Record, actor string) events.FacilityUpdated {
	return events.FacilityUpdated{
		BaseEvent:  events.NewBaseEvent(),
		FacilityID: rec.ID,
		Category:   string(rec.Category),
		City:       rec.City,
		ActorEmail: actor,
	}
}

// Delete removes a facility.
func (s *Service) Delete(ctx context.Context, actor string, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info("facility deleted", "id", id, "actor", actor)
	s.publish(ctx, events.FacilityDeleted{
		BaseEvent:  events.NewBaseEvent(),
		FacilityID: id,
		ActorEmail: actor,
	})
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}

// cleanFields sanitizes a request into storable fields.
func cleanFields(req transport.FacilityRequest) (repository.CreateParams, error) {
	category, ok := facility.LookupCategory(req.Category)
	if !ok {
		return repository.CreateParams{}, apperr.Validation("unknown category").WithDetails(map[string]string{"category": "category"})
	}
	if (req.Lat == nil) != (req.Lng == nil) {
		return repository.CreateParams{}, apperr.Validation("latitude and longitude must be set together")
	}

	title := sanitize.Line(req.Title)
	if title == "" {
		return repository.CreateParams{}, apperr.Validation("title is required").WithDetails(map[string]string{"title": "required"})
	}

	return repository.CreateParams{
		Title:    title,
		Category: category,
		Address:  sanitize.Line(req.Address),
		City:     sanitize.Line(req.City),
		State:    sanitize.Line(req.State),
		Lat:      req.Lat,
		Lng:      req.Lng,
		Phone:    phone.NormalizeE164(sanitize.Line(req.Phone)),
		Website:  strings.TrimSpace(req.Website),
		MapsURL:  strings.TrimSpace(req.MapsURL),
	}, nil
}

// normalizePlace treats "all" like an empty place filter.
func normalizePlace(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, string(facility.All)) {
		return ""
	}
	return v
}

func toResponse(rec repository.Record) transport.FacilityResponse {
	return transport.FacilityResponse{
		ID:        rec.ID,
		Title:     rec.Title,
		Category:  rec.Category,
		Address:   rec.Address,
		City:      rec.City,
		State:     rec.State,
		Lat:       rec.Lat,
		Lng:       rec.Lng,
		Phone:     rec.Phone,
		Website:   rec.Website,
		MapsURL:   rec.MapsURL,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
}

func toResponses(recs []repository.Record) []transport.FacilityResponse {
	out := make([]transport.FacilityResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toResponse(rec))
	}
	return out
}

func toFacilities(recs []repository.Record) []facility.Facility {
	out := make([]facility.Facility, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Facility())
	}
	return out
}
