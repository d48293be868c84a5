package orchestrator

import (
	"context"
	"reflect"
	"testing"
	"time"

	"georesponse_backend/internal/directory"
	"georesponse_backend/internal/facility"
	"georesponse_backend/internal/geo"
	"georesponse_backend/internal/geocoding"
)

func TestLoadFetchesFullSet(t *testing.T) {
	s := newTestSession(newFakeDirectory(), newFakeGeocoder())
	defer s.Close()

	st := s.Load(context.Background())
	if len(st.Results) != 4 || st.Mode != ModeFiltered || st.Outcome != directory.OutcomeOK {
		t.Fatalf("unexpected initial state %+v", st)
	}
	if !reflect.DeepEqual(st.Facets.States, []string{"Delhi", "Haryana", "Uttar Pradesh"}) {
		t.Fatalf("unexpected facets %+v", st.Facets)
	}
}

func TestStaleSuggestionIsDiscarded(t *testing.T) {
	geocoder := newFakeGeocoder()
	geocoder.answers["Delhi"] = []geocoding.Suggestion{{Label: "Delhi, India", PlaceID: "delhi"}}
	geocoder.answers["Mumbai"] = []geocoding.Suggestion{{Label: "Mumbai, India", PlaceID: "mumbai"}}
	geocoder.gate("Delhi")
	geocoder.gate("Mumbai")

	s := newTestSession(newFakeDirectory(), geocoder)
	defer s.Close()

	s.TypeQuery("Delhi")
	waitClosed(t, "Delhi request", geocoder.started["Delhi"])
	s.TypeQuery("Mumbai")
	waitClosed(t, "Mumbai request", geocoder.started["Mumbai"])

	close(geocoder.gates["Mumbai"])
	waitFor(t, "Mumbai suggestions", func() bool {
		sg := s.Snapshot().Suggestions
		return len(sg) == 1 && sg[0].PlaceID == "mumbai"
	})

	close(geocoder.gates["Delhi"])
	waitClosed(t, "Delhi response", geocoder.finished["Delhi"])
	time.Sleep(20 * time.Millisecond)

	sg := s.Snapshot().Suggestions
	if len(sg) != 1 || sg[0].PlaceID != "mumbai" {
		t.Fatalf("expected Mumbai suggestions to remain, got %+v", sg)
	}
}

func TestShorterQueryDiscardsPendingSuggestions(t *testing.T) {
	geocoder := newFakeGeocoder()
	geocoder.answers["Delhi"] = []geocoding.Suggestion{{Label: "Delhi, India", PlaceID: "delhi"}}
	geocoder.gate("Delhi")

	s := newTestSession(newFakeDirectory(), geocoder)
	defer s.Close()

	s.TypeQuery("Delhi")
	waitClosed(t, "Delhi request", geocoder.started["Delhi"])

	st := s.TypeQuery("D")
	if len(st.Suggestions) != 0 || st.Mode != ModeFiltered {
		t.Fatalf("expected short query to clear suggestions, got %+v", st.Suggestions)
	}

	close(geocoder.gates["Delhi"])
	waitClosed(t, "Delhi response", geocoder.finished["Delhi"])
	time.Sleep(20 * time.Millisecond)

	st = s.Snapshot()
	if st.Criteria.Text != "D" || len(st.Suggestions) != 0 {
		t.Fatalf("stale Delhi suggestions applied over newer query: %+v", st.Suggestions)
	}
}

func TestTypingDiscardsPendingOriginSearch(t *testing.T) {
	dir := newFakeDirectory()
	dir.nearby = []facility.Facility{cpPolice, aiims}
	dir.nearbyGate = make(chan struct{})
	s := newTestSession(dir, newFakeGeocoder())
	defer s.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.PickSuggestion(context.Background(), geocoding.Suggestion{Label: "CP", Lat: delhiCenter.Lat, Lng: delhiCenter.Lng})
	}()
	waitFor(t, "nearby request", func() bool {
		_, nearby, _ := dir.counts()
		return nearby == 1
	})

	s.TypeQuery("AIIMS")
	close(dir.nearbyGate)
	waitClosed(t, "pick to return", done)

	waitFor(t, "filtered refresh", func() bool {
		snap := s.Snapshot()
		return len(snap.Results) == 1 && snap.Results[0].ID == "h1"
	})
	st := s.Snapshot()
	if st.Origin != nil || st.Distances != nil || st.Mode == ModeOrigin {
		t.Fatalf("stale origin search applied after typing: mode=%s origin=%v distances=%v", st.Mode, st.Origin, st.Distances)
	}
}

func TestTypeQueryDebouncesAndClearsOrigin(t *testing.T) {
	dir := newFakeDirectory()
	dir.nearby = []facility.Facility{cpPolice}
	geocoder := newFakeGeocoder()
	geocoder.answers["AIIMS"] = []geocoding.Suggestion{{Label: "AIIMS, Delhi", Lat: 28.5672, Lng: 77.21}}

	s := newTestSession(dir, geocoder)
	defer s.Close()

	if _, err := s.PickSuggestion(context.Background(), geocoding.Suggestion{Label: "CP", Lat: delhiCenter.Lat, Lng: delhiCenter.Lng}); err != nil {
		t.Fatalf("pick: %v", err)
	}

	st := s.TypeQuery("AIIMS")
	if st.Origin != nil || st.Distances != nil || st.Mode != ModeGeocoding {
		t.Fatalf("expected typing to clear origin and distances, got %+v", st)
	}

	waitFor(t, "suggestions and filtered refresh", func() bool {
		snap := s.Snapshot()
		return len(snap.Suggestions) == 1 && len(snap.Results) == 1 && snap.Results[0].ID == "h1"
	})
}

func TestPickSuggestionResolvesAndRanksByDistance(t *testing.T) {
	dir := newFakeDirectory()
	dir.nearby = []facility.Facility{gurgaon, aiims, cpPolice}
	geocoder := newFakeGeocoder()
	geocoder.places["cp"] = &geocoding.Place{PlaceID: "cp", Name: "Connaught Place", Lat: delhiCenter.Lat, Lng: delhiCenter.Lng}

	s := newTestSession(dir, geocoder)
	defer s.Close()

	st, err := s.PickSuggestion(context.Background(), geocoding.Suggestion{Label: "Connaught Place, New Delhi", PlaceID: "cp"})
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if st.Mode != ModeOrigin || st.Origin == nil || st.Origin.Point != delhiCenter {
		t.Fatalf("expected origin mode at Delhi, got %+v", st)
	}
	if st.Focus == nil || st.Focus.Reason != FocusOrigin {
		t.Fatalf("expected origin focus, got %+v", st.Focus)
	}
	if got := resultIDs(st.Results); !reflect.DeepEqual(got, []string{"p1", "h1", "f2"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if len(st.Distances) != 3 {
		t.Fatalf("expected a distance for every result, got %v", st.Distances)
	}
	if _, _, closest := dir.counts(); closest != 0 {
		t.Fatalf("expected no closest call when nearby had results")
	}
}

func TestPickSuggestionUnresolvedStaysFiltered(t *testing.T) {
	dir := newFakeDirectory()
	s := newTestSession(dir, newFakeGeocoder())
	defer s.Close()

	st, err := s.PickSuggestion(context.Background(), geocoding.Suggestion{Label: "Nowhere", PlaceID: "missing"})
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if st.Origin != nil || st.Mode != ModeFiltered || st.Outcome != directory.OutcomeEmpty {
		t.Fatalf("expected filtered state with empty outcome, got %+v", st)
	}
	if _, nearby, _ := dir.counts(); nearby != 0 {
		t.Fatalf("expected no origin search")
	}

	if _, err := s.PickSuggestion(context.Background(), geocoding.Suggestion{Label: "Bad"}); err == nil {
		t.Fatalf("expected validation error for a suggestion without place id or coordinates")
	}
}

func TestOriginSearchFallsBackToClosest(t *testing.T) {
	dir := newFakeDirectory()
	dir.closest = []facility.Facility{gurgaon, noida}
	s := newTestSession(dir, newFakeGeocoder())
	defer s.Close()

	st, err := s.PickSuggestion(context.Background(), geocoding.Suggestion{Label: "Delhi", Lat: delhiCenter.Lat, Lng: delhiCenter.Lng})
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if _, nearby, closest := dir.counts(); nearby != 1 || closest != 1 {
		t.Fatalf("expected nearby then closest, got nearby=%d closest=%d", nearby, closest)
	}
	if got := resultIDs(st.Results); !reflect.DeepEqual(got, []string{"f1", "f2"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestCategoryToggleIsSingleSelect(t *testing.T) {
	s := newTestSession(newFakeDirectory(), newFakeGeocoder())
	defer s.Close()
	ctx := context.Background()

	s.SelectCategory(ctx, facility.Fire)
	st := s.SelectCategory(ctx, facility.Fire)
	if st.Criteria.Category != facility.All || len(st.Results) != 4 {
		t.Fatalf("expected toggle back to All, got %q with %d results", st.Criteria.Category, len(st.Results))
	}

	s.SelectCategory(ctx, facility.Fire)
	st = s.SelectCategory(ctx, facility.Police)
	if st.Criteria.Category != facility.Police {
		t.Fatalf("expected Police only, got %q", st.Criteria.Category)
	}
	if got := resultIDs(st.Results); !reflect.DeepEqual(got, []string{"p1"}) {
		t.Fatalf("expected only police results, got %v", got)
	}
}

func TestFilterChangeWithOriginRerunsOriginSearch(t *testing.T) {
	dir := newFakeDirectory()
	dir.nearby = []facility.Facility{cpPolice, aiims, noida}
	s := newTestSession(dir, newFakeGeocoder())
	defer s.Close()
	ctx := context.Background()

	if _, err := s.PickSuggestion(ctx, geocoding.Suggestion{Label: "Delhi", Lat: delhiCenter.Lat, Lng: delhiCenter.Lng}); err != nil {
		t.Fatalf("pick: %v", err)
	}
	allBefore, _, _ := dir.counts()

	st := s.SelectState(ctx, "Delhi")
	all, nearby, _ := dir.counts()
	if nearby != 2 || all != allBefore {
		t.Fatalf("expected origin search rerun without list call, got all=%d nearby=%d", all, nearby)
	}
	if st.Mode != ModeOrigin || !reflect.DeepEqual(resultIDs(st.Results), []string{"p1", "h1"}) {
		t.Fatalf("unexpected state %v %v", st.Mode, resultIDs(st.Results))
	}
	if len(st.Distances) != 2 {
		t.Fatalf("expected distance index rebuilt for filtered results, got %v", st.Distances)
	}

	st = s.SelectState(ctx, "all")
	if st.Criteria.State != "" || len(st.Results) != 3 {
		t.Fatalf("expected state filter cleared, got %+v", st.Criteria)
	}
}

func TestNewerResultSetWins(t *testing.T) {
	dir := newFakeDirectory()
	fireGate := make(chan struct{})
	dir.block[facility.Fire] = fireGate
	s := newTestSession(dir, newFakeGeocoder())
	defer s.Close()
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.SelectCategory(ctx, facility.Fire)
	}()
	waitFor(t, "fire request", func() bool {
		all, _, _ := dir.counts()
		return all == 1
	})

	st := s.SelectCategory(ctx, facility.Police)
	if got := resultIDs(st.Results); !reflect.DeepEqual(got, []string{"p1"}) {
		t.Fatalf("expected police results, got %v", got)
	}

	close(fireGate)
	<-done

	st = s.Snapshot()
	if st.Criteria.Category != facility.Police || !reflect.DeepEqual(resultIDs(st.Results), []string{"p1"}) {
		t.Fatalf("stale fire results overwrote newer state: %q %v", st.Criteria.Category, resultIDs(st.Results))
	}
}

func TestResetIsIdempotent(t *testing.T) {
	dir := newFakeDirectory()
	dir.nearby = []facility.Facility{cpPolice}
	s := newTestSession(dir, newFakeGeocoder())
	defer s.Close()
	ctx := context.Background()

	s.SelectCategory(ctx, facility.Police)
	if _, err := s.PickSuggestion(ctx, geocoding.Suggestion{Label: "Delhi", Lat: delhiCenter.Lat, Lng: delhiCenter.Lng}); err != nil {
		t.Fatalf("pick: %v", err)
	}
	if _, err := s.OpenFacility("p1"); err != nil {
		t.Fatalf("open: %v", err)
	}

	once := s.Reset(ctx)
	twice := s.Reset(ctx)

	once.Version, twice.Version = 0, 0
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("reset is not idempotent\nonce:  %+v\ntwice: %+v", once, twice)
	}
	if !twice.Criteria.IsEmpty() || twice.Origin != nil || twice.Distances != nil ||
		twice.Selected != nil || twice.Focus != nil || len(twice.Suggestions) != 0 {
		t.Fatalf("expected cleared state, got %+v", twice)
	}
	if len(twice.Results) != 4 || twice.Mode != ModeFiltered {
		t.Fatalf("expected full unfiltered list, got %d results in %s", len(twice.Results), twice.Mode)
	}
}

func TestOpenCloseFacilityAndLocate(t *testing.T) {
	s := newTestSession(newFakeDirectory(), newFakeGeocoder())
	defer s.Close()
	s.Load(context.Background())

	st, err := s.OpenFacility("h1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if st.Selected == nil || st.Selected.ID != "h1" || st.Focus == nil || st.Focus.Reason != FocusFacility {
		t.Fatalf("unexpected selection %+v focus %+v", st.Selected, st.Focus)
	}
	if _, err := s.OpenFacility("missing"); err == nil {
		t.Fatalf("expected error for unknown facility")
	}

	st = s.CloseFacility()
	if st.Selected != nil || st.Focus == nil {
		t.Fatalf("expected selection cleared and focus kept, got %+v", st)
	}

	me := geo.Point{Lat: 28.7, Lng: 77.1}
	st, err = s.Locate(me)
	if err != nil || st.Focus.Point != me || st.Focus.Reason != FocusLocation || st.Origin != nil {
		t.Fatalf("unexpected locate result %+v %v", st, err)
	}
	if _, err := s.Locate(geo.Point{Lat: 91}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestDirectoryFailureSurfacesOutcome(t *testing.T) {
	dir := newFakeDirectory()
	dir.failAll = true
	s := newTestSession(dir, newFakeGeocoder())
	defer s.Close()

	st := s.Load(context.Background())
	if st.Outcome != directory.OutcomeFailed || len(st.Results) != 0 {
		t.Fatalf("expected failed outcome with no results, got %+v", st)
	}
}

func TestSubscribeReceivesLatestStateAndClose(t *testing.T) {
	s := newTestSession(newFakeDirectory(), newFakeGeocoder())
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	initial := <-ch
	if initial.ID != "test" {
		t.Fatalf("unexpected initial state %+v", initial)
	}

	s.Load(context.Background())
	latest := <-ch
	if len(latest.Results) != 4 {
		t.Fatalf("expected loaded state, got %d results", len(latest.Results))
	}

	s.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after session close")
	}
}

func TestClusters(t *testing.T) {
	s := newTestSession(newFakeDirectory(), newFakeGeocoder())
	defer s.Close()
	s.Load(context.Background())

	clusters := s.Clusters(3)
	total := 0
	for _, c := range clusters {
		total += c.Count
	}
	if total != 4 {
		t.Fatalf("expected all results clustered, got %d", total)
	}
}
