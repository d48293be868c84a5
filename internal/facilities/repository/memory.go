package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"georesponse_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// Memory is an in-process Repository used when no database is configured
// and in tests.
type Memory struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
	now     func() time.Time
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{records: make(map[uuid.UUID]Record), now: time.Now}
}

var _ Repository = (*Memory)(nil)

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func (m *Memory) GetByID(_ context.Context, id uuid.UUID) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return Record{}, apperr.NotFound(facilityNotFoundMessage)
	}
	return copyRecord(rec), nil
}

func (m *Memory) List(_ context.Context, params ListParams) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := fold(params.Search)
	address := fold(params.Address)
	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		if search != "" && !containsAny(search, rec.Title, rec.City, rec.State, rec.Address) {
			continue
		}
		if params.Category.WireValue() != "" && rec.Category != params.Category {
			continue
		}
		if params.City != "" && fold(rec.City) != fold(params.City) {
			continue
		}
		if params.State != "" && fold(rec.State) != fold(params.State) {
			continue
		}
		if address != "" && !strings.Contains(fold(rec.Address), address) {
			continue
		}
		if params.LocatedOnly && !rec.HasLocation() {
			continue
		}
		out = append(out, copyRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *Memory) ListMissingLocation(_ context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0)
	for _, rec := range m.records {
		if !rec.HasLocation() {
			out = append(out, copyRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Create(_ context.Context, params CreateParams) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[params.ID]; exists {
		return Record{}, apperr.Conflict("facility already exists")
	}
	now := m.now()
	rec := Record{
		ID:        params.ID,
		Title:     params.Title,
		Category:  params.Category,
		Address:   params.Address,
		City:      params.City,
		State:     params.State,
		Lat:       params.Lat,
		Lng:       params.Lng,
		Phone:     params.Phone,
		Website:   params.Website,
		MapsURL:   params.MapsURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.records[rec.ID] = copyRecord(rec)
	return rec, nil
}

func (m *Memory) Update(_ context.Context, params UpdateParams) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[params.ID]
	if !ok {
		return Record{}, apperr.NotFound(facilityNotFoundMessage)
	}
	rec.Title = params.Title
	rec.Category = params.Category
	rec.Address = params.Address
	rec.City = params.City
	rec.State = params.State
	rec.Lat = params.Lat
	rec.Lng = params.Lng
	rec.Phone = params.Phone
	rec.Website = params.Website
	rec.MapsURL = params.MapsURL
	rec.UpdatedAt = m.now()
	m.records[rec.ID] = copyRecord(rec)
	return rec, nil
}

func (m *Memory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return apperr.NotFound(facilityNotFoundMessage)
	}
	delete(m.records, id)
	return nil
}

func (m *Memory) SetLocation(_ context.Context, id uuid.UUID, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return apperr.NotFound(facilityNotFoundMessage)
	}
	rec.Lat, rec.Lng = &lat, &lng
	rec.UpdatedAt = m.now()
	m.records[id] = rec
	return nil
}

func containsAny(needle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(fold(f), needle) {
			return true
		}
	}
	return false
}

// copyRecord detaches the coordinate pointers from the stored record.
func copyRecord(rec Record) Record {
	if rec.Lat != nil {
		lat := *rec.Lat
		rec.Lat = &lat
	}
	if rec.Lng != nil {
		lng := *rec.Lng
		rec.Lng = &lng
	}
	return rec
}
