package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"georesponse_backend/internal/directory"
	"georesponse_backend/internal/facility"
	"georesponse_backend/internal/geo"
	"georesponse_backend/internal/geocoding"
	"georesponse_backend/platform/logger"
)

var (
	delhiCenter = geo.Point{Lat: 28.6139, Lng: 77.2090}

	cpPolice = facility.Facility{ID: "p1", Title: "Connaught Place Police", Category: facility.Police, City: "New Delhi", State: "Delhi", Lat: 28.6315, Lng: 77.2167}
	aiims    = facility.Facility{ID: "h1", Title: "AIIMS", Category: facility.Hospital, City: "New Delhi", State: "Delhi", Lat: 28.5672, Lng: 77.2100}
	noida    = facility.Facility{ID: "f1", Title: "Noida Fire Station", Category: facility.Fire, City: "Noida", State: "Uttar Pradesh", Lat: 28.5355, Lng: 77.3910}
	gurgaon  = facility.Facility{ID: "f2", Title: "Gurugram Fire Station", Category: facility.Fire, City: "Gurugram", State: "Haryana", Lat: 28.4595, Lng: 77.0266}
)

func allFacilities() []facility.Facility {
	return []facility.Facility{cpPolice, aiims, noida, gurgaon}
}

func result(list []facility.Facility) directory.Result {
	if len(list) == 0 {
		return directory.Result{Facilities: []facility.Facility{}, Outcome: directory.OutcomeEmpty}
	}
	out := make([]facility.Facility, len(list))
	copy(out, list)
	return directory.Result{Facilities: out, Outcome: directory.OutcomeOK}
}

type fakeDirectory struct {
	mu           sync.Mutex
	records      []facility.Facility
	nearby       []facility.Facility
	closest      []facility.Facility
	failAll      bool
	block        map[facility.Category]chan struct{}
	allFilters   []directory.Filter
	nearbyCalls  int
	closestCalls int
	// nearbyGate, when set, holds ListNearby until closed.
	nearbyGate   chan struct{}
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{records: allFacilities(), block: map[facility.Category]chan struct{}{}}
}

func (d *fakeDirectory) ListAll(_ context.Context, filter directory.Filter) directory.Result {
	d.mu.Lock()
	d.allFilters = append(d.allFilters, filter)
	gate := d.block[filter.Category]
	fail := d.failAll
	records := d.records
	d.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail {
		return directory.Result{Facilities: []facility.Facility{}, Outcome: directory.OutcomeFailed, Err: errors.New("connection refused")}
	}
	var out []facility.Facility
	for _, f := range records {
		if filter.Category.WireValue() != "" && f.Category != filter.Category {
			continue
		}
		out = append(out, f)
	}
	return result(out)
}

func (d *fakeDirectory) ListNearby(_ context.Context, _, _ float64, _ directory.NearbyOptions) directory.Result {
	d.mu.Lock()
	d.nearbyCalls++
	gate := d.nearbyGate
	d.mu.Unlock()

	if gate != nil {
		<-gate
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return result(d.nearby)
}

func (d *fakeDirectory) ListClosest(_ context.Context, _, _ float64, _ directory.ClosestOptions) directory.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closestCalls++
	return result(d.closest)
}

func (d *fakeDirectory) counts() (all, nearby, closest int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.allFilters), d.nearbyCalls, d.closestCalls
}

// fakeGeocoder answers suggestions per query. Queries with a gate block
// until the gate is closed, which lets tests control completion order.
type fakeGeocoder struct {
	mu       sync.Mutex
	answers  map[string][]geocoding.Suggestion
	gates    map[string]chan struct{}
	started  map[string]chan struct{}
	finished map[string]chan struct{}
	places   map[string]*geocoding.Place
}

func newFakeGeocoder() *fakeGeocoder {
	return &fakeGeocoder{
		answers:  map[string][]geocoding.Suggestion{},
		gates:    map[string]chan struct{}{},
		started:  map[string]chan struct{}{},
		finished: map[string]chan struct{}{},
		places:   map[string]*geocoding.Place{},
	}
}

func (g *fakeGeocoder) gate(query string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gates[query] = make(chan struct{})
	g.started[query] = make(chan struct{})
	g.finished[query] = make(chan struct{})
}

func (g *fakeGeocoder) Suggest(_ context.Context, query, _ string) ([]geocoding.Suggestion, error) {
	g.mu.Lock()
	gate, started, finished := g.gates[query], g.started[query], g.finished[query]
	answer := g.answers[query]
	g.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
	if finished != nil {
		defer close(finished)
	}
	return answer, nil
}

func (g *fakeGeocoder) Resolve(_ context.Context, placeID string) (*geocoding.Place, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.places[placeID], nil
}

func newTestSession(dir *fakeDirectory, geocoder *fakeGeocoder) *Session {
	settings := DefaultSettings()
	settings.Debounce = time.Millisecond
	return NewSession("test", dir, geocoder, settings, logger.NewDiscard())
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitClosed(t *testing.T, what string, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func resultIDs(list []facility.Facility) []string {
	out := make([]string, 0, len(list))
	for _, f := range list {
		out = append(out, f.ID)
	}
	return out
}
