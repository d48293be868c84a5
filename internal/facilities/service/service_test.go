package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"georesponse_backend/internal/events"
	"georesponse_backend/internal/facilities/repository"
	"georesponse_backend/internal/facilities/transport"
	"georesponse_backend/internal/facility"
	"georesponse_backend/internal/geocoding"
	"georesponse_backend/platform/apperr"
	"georesponse_backend/platform/logger"

	"github.com/google/uuid"
)

type eventRecorder struct {
	mu    sync.Mutex
	names []string
}

func (r *eventRecorder) Handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, e.EventName())
	return nil
}

func (r *eventRecorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func newTestService(t *testing.T) (*Service, *events.InMemoryBus, *eventRecorder) {
	t.Helper()
	bus := events.NewInMemoryBus(logger.NewDiscard())
	rec := &eventRecorder{}
	for _, name := range events.FacilityEventNames {
		bus.Subscribe(name, rec)
	}
	return New(repository.NewMemory(), bus, logger.NewDiscard()), bus, rec
}

func ptr(v float64) *float64 { return &v }

func policeRequest() transport.FacilityRequest {
	return transport.FacilityRequest{
		Title:    "  <b>Connaught Place</b>   Police Station ",
		Category: "police",
		Address:  "Parliament Street",
		City:     "New Delhi",
		State:    "Delhi",
		Lat:      ptr(28.6315),
		Lng:      ptr(77.2167),
		Phone:    "098765 43210",
	}
}

func TestCreateSanitizesAndPublishes(t *testing.T) {
	svc, bus, rec := newTestService(t)

	got, err := svc.Create(context.Background(), "admin@example.com", policeRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	bus.Wait()

	if got.Title != "Connaught Place Police Station" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if got.Category != facility.Police {
		t.Fatalf("unexpected category %q", got.Category)
	}
	if got.Phone != "+919876543210" {
		t.Fatalf("expected E.164 phone, got %q", got.Phone)
	}
	if names := rec.seen(); len(names) != 1 || names[0] != (events.FacilityCreated{}).EventName() {
		t.Fatalf("expected one created event, got %v", names)
	}
}

func TestCreateRejectsHalfCoordinates(t *testing.T) {
	svc, _, _ := newTestService(t)

	req := policeRequest()
	req.Lng = nil
	_, err := svc.Create(context.Background(), "admin@example.com", req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdatePreservesID(t *testing.T) {
	svc, bus, rec := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "admin@example.com", policeRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	req := policeRequest()
	req.Title = "Parliament Street Police Station"
	req.Category = "EMERGENCY"
	updated, err := svc.Update(ctx, "admin@example.com", created.ID, req)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	bus.Wait()

	if updated.ID != created.ID || updated.Title != req.Title || updated.Category != facility.Emergency {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if len(rec.seen()) != 2 {
		t.Fatalf("expected created and updated events, got %v", rec.seen())
	}
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(), "admin@example.com", policeRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(context.Background(), "admin@example.com", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err = svc.Delete(context.Background(), "admin@example.com", created.ID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListFiltersAndFacets(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	fire := transport.FacilityRequest{Title: "Noida Fire Station", Category: "FIRE", City: "Noida", State: "Uttar Pradesh"}
	hospital := transport.FacilityRequest{Title: "AIIMS", Category: "Hospital", City: "New Delhi", State: "Delhi", Address: "Ansari Nagar"}
	for _, req := range []transport.FacilityRequest{policeRequest(), fire, hospital} {
		if _, err := svc.Create(ctx, "admin@example.com", req); err != nil {
			t.Fatalf("create %s: %v", req.Title, err)
		}
	}

	all, err := svc.List(ctx, transport.ListFacilitiesRequest{})
	if err != nil || all.Total != 3 {
		t.Fatalf("expected 3 facilities, got %d %v", all.Total, err)
	}
	if len(all.Facets.Cities) != 2 || len(all.Facets.States) != 2 {
		t.Fatalf("unexpected facets %+v", all.Facets)
	}

	delhi, _ := svc.List(ctx, transport.ListFacilitiesRequest{City: "new delhi"})
	if delhi.Total != 2 {
		t.Fatalf("expected case-insensitive city match, got %d", delhi.Total)
	}

	byText, _ := svc.List(ctx, transport.ListFacilitiesRequest{Search: "ansari"})
	if byText.Total != 1 || byText.Items[0].Title != "AIIMS" {
		t.Fatalf("expected address text match, got %+v", byText.Items)
	}

	allCity, _ := svc.List(ctx, transport.ListFacilitiesRequest{City: "all", Category: "all"})
	if allCity.Total != 3 {
		t.Fatalf("expected all to clear filters, got %d", allCity.Total)
	}
}

func TestNearbyAndClosest(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	mumbai := transport.FacilityRequest{Title: "Andheri Fire Station", Category: "fire", City: "Mumbai", State: "Maharashtra", Lat: ptr(19.1136), Lng: ptr(72.8697)}
	unlocated := transport.FacilityRequest{Title: "Unmapped Post", Category: "police", City: "Delhi", State: "Delhi"}
	for _, req := range []transport.FacilityRequest{policeRequest(), mumbai, unlocated} {
		if _, err := svc.Create(ctx, "admin@example.com", req); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	lat, lng := 28.6139, 77.2090
	nearby, err := svc.Nearby(ctx, transport.NearbyRequest{Lat: &lat, Lng: &lng})
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(nearby.Locations) != 1 || nearby.Locations[0].Title != "Connaught Place Police Station" {
		t.Fatalf("expected only the Delhi station within 20 km, got %+v", nearby.Locations)
	}

	closest, err := svc.Closest(ctx, transport.ClosestRequest{Lat: &lat, Lng: &lng, Limit: 5})
	if err != nil {
		t.Fatalf("closest: %v", err)
	}
	if len(closest.Locations) != 2 || closest.Locations[1].City.Name != "Mumbai" {
		t.Fatalf("expected both located facilities nearest first, got %+v", closest.Locations)
	}
	if *closest.Locations[0].DistanceKm > *closest.Locations[1].DistanceKm {
		t.Fatalf("expected ascending distance")
	}

	all, err := svc.Locations(ctx, transport.LocationsRequest{Category: "police"})
	if err != nil || len(all.Locations) != 2 {
		t.Fatalf("expected both police records including the unlocated one, got %d %v", len(all.Locations), err)
	}
	if all.Locations[0].Category != "POLICE" {
		t.Fatalf("expected upper-case wire category, got %q", all.Locations[0].Category)
	}
}

type stubGeocoder struct {
	places map[string]*geocoding.Place
	fail   map[string]bool
}

func (g stubGeocoder) Geocode(_ context.Context, query, _ string) (*geocoding.Place, error) {
	if g.fail[query] {
		return nil, errors.New("upstream unavailable")
	}
	return g.places[query], nil
}

func TestBackfillLocations(t *testing.T) {
	svc, bus, rec := newTestService(t)
	ctx := context.Background()

	reqs := []transport.FacilityRequest{
		{Title: "Saket Police", Category: "police", Address: "Press Enclave Marg", City: "New Delhi", State: "Delhi"},
		{Title: "Ghost Station", Category: "fire", Address: "Nowhere", City: "Atlantis", State: "Sea"},
		{Title: "Flaky Station", Category: "fire", Address: "Sector 18", City: "Noida", State: "Uttar Pradesh"},
		policeRequest(),
	}
	for _, req := range reqs {
		if _, err := svc.Create(ctx, "admin@example.com", req); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	bus.Wait()
	before := len(rec.seen())

	geocoder := stubGeocoder{
		places: map[string]*geocoding.Place{
			"Press Enclave Marg, New Delhi, Delhi": {Lat: 28.5245, Lng: 77.2066},
		},
		fail: map[string]bool{"Sector 18, Noida, Uttar Pradesh": true},
	}
	report, err := svc.BackfillLocations(ctx, geocoder, BackfillOptions{Concurrency: 2})
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	bus.Wait()

	if report.Scanned != 3 || report.Located != 1 || report.Skipped != 1 || report.Failed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if got := len(rec.seen()) - before; got != 1 {
		t.Fatalf("expected one update event for the located facility, got %d", got)
	}

	saket, _ := svc.List(ctx, transport.ListFacilitiesRequest{Search: "Saket"})
	if saket.Total != 1 || saket.Items[0].Lat == nil || *saket.Items[0].Lat != 28.5245 {
		t.Fatalf("expected stored coordinates, got %+v", saket.Items)
	}
}

type failingLocationRepo struct {
	*repository.Memory
	failID uuid.UUID
}

func (r *failingLocationRepo) SetLocation(ctx context.Context, id uuid.UUID, lat, lng float64) error {
	if id == r.failID {
		return apperr.Internal("database error").WithOp("set facility location")
	}
	return r.Memory.SetLocation(ctx, id, lat, lng)
}

func TestBackfillContinuesPastStoreFailure(t *testing.T) {
	bus := events.NewInMemoryBus(logger.NewDiscard())
	rec := &eventRecorder{}
	for _, name := range events.FacilityEventNames {
		bus.Subscribe(name, rec)
	}
	repo := &failingLocationRepo{Memory: repository.NewMemory()}
	svc := New(repo, bus, logger.NewDiscard())
	ctx := context.Background()

	saket, err := svc.Create(ctx, "admin@example.com", transport.FacilityRequest{Title: "Saket Police", Category: "police", Address: "Press Enclave Marg", City: "New Delhi", State: "Delhi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	broken, err := svc.Create(ctx, "admin@example.com", transport.FacilityRequest{Title: "Noida Fire", Category: "fire", Address: "Sector 18", City: "Noida", State: "Uttar Pradesh"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.failID = broken.ID
	bus.Wait()
	before := len(rec.seen())

	geocoder := stubGeocoder{places: map[string]*geocoding.Place{
		"Press Enclave Marg, New Delhi, Delhi": {Lat: 28.5245, Lng: 77.2066},
		"Sector 18, Noida, Uttar Pradesh":      {Lat: 28.5706, Lng: 77.3272},
	}}
	report, err := svc.BackfillLocations(ctx, geocoder, BackfillOptions{Concurrency: 1})
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	bus.Wait()

	if report.Scanned != 2 || report.Located != 1 || report.Failed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if got := len(rec.seen()) - before; got != 1 {
		t.Fatalf("expected an update event for the stored facility, got %d", got)
	}
	stored, err := svc.GetByID(ctx, saket.ID)
	if err != nil || stored.Lat == nil {
		t.Fatalf("expected Saket coordinates stored, got %+v %v", stored, err)
	}
}
