package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"georesponse_backend/internal/directory"
	"georesponse_backend/internal/facility"
	"georesponse_backend/internal/geocoding"
	"georesponse_backend/internal/search/orchestrator"
	"georesponse_backend/internal/search/transport"
	"georesponse_backend/platform/logger"
	"georesponse_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

var (
	policeStation = facility.Facility{ID: "p1", Title: "Connaught Place Police", Category: facility.Police, City: "New Delhi", State: "Delhi", Lat: 28.6315, Lng: 77.2167, Phone: "+919876543210"}
	fireStation   = facility.Facility{ID: "f1", Title: "Noida Fire Station", Category: facility.Fire, City: "Noida", State: "Uttar Pradesh", Lat: 28.5355, Lng: 77.3910}
)

type stubDirectory struct {
	records []facility.Facility
	nearby  []facility.Facility
}

func (d *stubDirectory) ListAll(_ context.Context, filter directory.Filter) directory.Result {
	out := []facility.Facility{}
	for _, f := range d.records {
		if filter.Category.WireValue() == "" || f.Category == filter.Category {
			out = append(out, f)
		}
	}
	return wrap(out)
}

func (d *stubDirectory) ListNearby(context.Context, float64, float64, directory.NearbyOptions) directory.Result {
	return wrap(d.nearby)
}

func (d *stubDirectory) ListClosest(context.Context, float64, float64, directory.ClosestOptions) directory.Result {
	return wrap(d.records)
}

func wrap(list []facility.Facility) directory.Result {
	if len(list) == 0 {
		return directory.Result{Facilities: []facility.Facility{}, Outcome: directory.OutcomeEmpty}
	}
	return directory.Result{Facilities: append([]facility.Facility(nil), list...), Outcome: directory.OutcomeOK}
}

type stubGeocoder struct{}

func (stubGeocoder) Suggest(context.Context, string, string) ([]geocoding.Suggestion, error) {
	return []geocoding.Suggestion{}, nil
}

func (stubGeocoder) Resolve(_ context.Context, placeID string) (*geocoding.Place, error) {
	if placeID != "delhi" {
		return nil, nil
	}
	return &geocoding.Place{PlaceID: "delhi", Name: "New Delhi", Lat: 28.6139, Lng: 77.2090}, nil
}

func newTestEngine(t *testing.T, dir *stubDirectory) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	val := validator.New()
	if err := facility.RegisterValidations(val); err != nil {
		t.Fatalf("register validations: %v", err)
	}
	settings := orchestrator.Settings{Debounce: time.Millisecond}
	registry := orchestrator.NewRegistry(dir, stubGeocoder{}, settings, time.Minute, logger.NewDiscard())
	t.Cleanup(registry.Close)

	sessions := NewSessionHandler(registry, nil, val, logger.NewDiscard())
	facilities := NewFacilitiesHandler(dir, settings, val)

	engine := gin.New()
	engine.GET("/facilities", facilities.List)
	engine.GET("/facilities/around", facilities.Around)
	engine.POST("/sessions", sessions.Create)
	engine.GET("/sessions/:id", sessions.Get)
	engine.DELETE("/sessions/:id", sessions.Delete)
	engine.POST("/sessions/:id/category", sessions.SelectCategory)
	engine.POST("/sessions/:id/suggestion", sessions.PickSuggestion)
	engine.POST("/sessions/:id/facilities/:facilityId/open", sessions.OpenFacility)
	engine.POST("/sessions/:id/locate", sessions.Locate)
	engine.GET("/sessions/:id/clusters", sessions.Clusters)
	return engine
}

func do(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v; body=%s", err, rec.Body.String())
	}
	return out
}

func TestListFiltersAndBuildsActions(t *testing.T) {
	engine := newTestEngine(t, &stubDirectory{records: []facility.Facility{policeStation, fireStation}})

	rec := do(engine, http.MethodGet, "/facilities?q=connaught", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[transport.ListResponse](t, rec)
	if resp.Total != 1 || resp.Items[0].ID != "p1" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
	if resp.Items[0].Actions.Call != "tel:+919876543210" {
		t.Fatalf("unexpected call action: %q", resp.Items[0].Actions.Call)
	}
	if len(resp.Facets.Cities) != 2 {
		t.Fatalf("expected facets over the unfiltered set, got %v", resp.Facets.Cities)
	}
}

func TestListRejectsUnknownCategory(t *testing.T) {
	engine := newTestEngine(t, &stubDirectory{})

	rec := do(engine, http.MethodGet, "/facilities?category=bakery", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListEmptyOutcome(t *testing.T) {
	engine := newTestEngine(t, &stubDirectory{records: []facility.Facility{policeStation}})

	rec := do(engine, http.MethodGet, "/facilities?city=Mumbai", nil)
	resp := decode[transport.ListResponse](t, rec)
	if resp.Outcome != directory.OutcomeEmpty || resp.Total != 0 {
		t.Fatalf("expected empty outcome, got %s with %d items", resp.Outcome, resp.Total)
	}
}

func TestAroundRequiresCoordinates(t *testing.T) {
	engine := newTestEngine(t, &stubDirectory{})

	rec := do(engine, http.MethodGet, "/facilities/around?lat=28.6", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAroundReturnsDistances(t *testing.T) {
	engine := newTestEngine(t, &stubDirectory{records: []facility.Facility{policeStation, fireStation}})

	rec := do(engine, http.MethodGet, "/facilities/around?lat=28.6139&lon=77.2090", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[transport.AroundResponse](t, rec)
	if !resp.UsedClosest {
		t.Fatalf("expected closest fallback when nearby is empty")
	}
	if resp.Total != 2 || resp.Items[0].ID != "p1" {
		t.Fatalf("expected police station first, got %+v", resp.Items)
	}
	if resp.Items[0].DistanceKm == nil || *resp.Items[0].DistanceKm > *resp.Items[1].DistanceKm {
		t.Fatalf("expected ascending distances")
	}
}

func TestSessionLifecycle(t *testing.T) {
	engine := newTestEngine(t, &stubDirectory{records: []facility.Facility{policeStation, fireStation}})

	rec := do(engine, http.MethodPost, "/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[transport.SessionResponse](t, rec)
	if created.Total != 2 {
		t.Fatalf("expected initial load of 2, got %d", created.Total)
	}
	base := "/sessions/" + created.ID

	rec = do(engine, http.MethodPost, base+"/category", transport.CategoryRequest{Category: "fire"})
	resp := decode[transport.SessionResponse](t, rec)
	if resp.Criteria.Category != facility.Fire || resp.Total != 1 {
		t.Fatalf("expected fire filter, got %s with %d", resp.Criteria.Category, resp.Total)
	}

	rec = do(engine, http.MethodPost, base+"/facilities/f1/open", nil)
	resp = decode[transport.SessionResponse](t, rec)
	if resp.Selected == nil || resp.Selected.ID != "f1" || resp.Focus == nil {
		t.Fatalf("expected f1 selected and focused, got %+v", resp.Selected)
	}

	rec = do(engine, http.MethodPost, base+"/facilities/p1/open", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for facility outside results, got %d", rec.Code)
	}

	rec = do(engine, http.MethodDelete, base, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = do(engine, http.MethodGet, base, nil)
	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410 after delete, got %d", rec.Code)
	}
	rec = do(engine, http.MethodPost, base+"/category", transport.CategoryRequest{Category: "police"})
	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410 for actions on a deleted session, got %d", rec.Code)
	}
	rec = do(engine, http.MethodDelete, base, nil)
	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410 for repeated delete, got %d", rec.Code)
	}
	rec = do(engine, http.MethodGet, "/sessions/never-created", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", rec.Code)
	}
}

func TestPickSuggestionRanksByDistance(t *testing.T) {
	engine := newTestEngine(t, &stubDirectory{
		records: []facility.Facility{fireStation, policeStation},
		nearby:  []facility.Facility{fireStation, policeStation},
	})

	created := decode[transport.SessionResponse](t, do(engine, http.MethodPost, "/sessions", nil))
	rec := do(engine, http.MethodPost, "/sessions/"+created.ID+"/suggestion", transport.SuggestionRequest{Label: "New Delhi", PlaceID: "delhi"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[transport.SessionResponse](t, rec)
	if resp.Origin == nil || resp.Mode != string(orchestrator.ModeOrigin) {
		t.Fatalf("expected origin mode, got %s", resp.Mode)
	}
	if resp.Results[0].ID != "p1" || resp.Results[0].DistanceKm == nil {
		t.Fatalf("expected police station ranked first with distance, got %+v", resp.Results[0])
	}
}

func TestLocateRejectsOutOfRange(t *testing.T) {
	engine := newTestEngine(t, &stubDirectory{})

	created := decode[transport.SessionResponse](t, do(engine, http.MethodPost, "/sessions", nil))
	rec := do(engine, http.MethodPost, "/sessions/"+created.ID+"/locate", transport.LocateRequest{Lat: 120, Lng: 10})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestClustersValidatesZoom(t *testing.T) {
	engine := newTestEngine(t, &stubDirectory{records: []facility.Facility{policeStation, fireStation}})

	created := decode[transport.SessionResponse](t, do(engine, http.MethodPost, "/sessions", nil))
	base := "/sessions/" + created.ID + "/clusters"

	if rec := do(engine, http.MethodGet, base+"?zoom=40", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zoom 40, got %d", rec.Code)
	}
	resp := decode[transport.ClustersResponse](t, do(engine, http.MethodGet, base+"?zoom=2", nil))
	if len(resp.Clusters) != 1 || resp.Clusters[0].Count != 2 {
		t.Fatalf("expected one cluster of 2 at zoom 2, got %+v", resp.Clusters)
	}
}
