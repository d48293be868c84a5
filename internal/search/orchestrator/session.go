package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"georesponse_backend/internal/directory"
	"georesponse_backend/internal/facility"
	"georesponse_backend/internal/geo"
	"georesponse_backend/internal/geocoding"
	"georesponse_backend/platform/apperr"
	"georesponse_backend/platform/logger"
	"georesponse_backend/platform/metrics"

	"golang.org/x/sync/errgroup"
)

// Session is one client's search state. Every intent method is safe for
// concurrent use. Network calls run outside the lock; each suggestion and
// result-set request carries a generation number and its response is
// applied only if no newer request of the same kind was issued since.
type Session struct {
	id       string
	dir      Directory
	geocoder Geocoder
	settings Settings
	log      *logger.Logger

	// ctx scopes debounce-triggered work and is cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	suggestGen  uint64
	searchGen   uint64
	debounceGen uint64
	timer       *time.Timer
	subscribers map[chan State]struct{}
	closed      bool
}

// NewSession creates an idle session. Call Load to fetch the initial list.
func NewSession(id string, dir Directory, geocoder Geocoder, settings Settings, log *logger.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:          id,
		dir:         dir,
		geocoder:    geocoder,
		settings:    settings.withDefaults(),
		log:         log.WithSessionID(id),
		ctx:         ctx,
		cancel:      cancel,
		state:       initialState(id),
		subscribers: make(map[chan State]struct{}),
	}
}

func initialState(id string) State {
	return State{
		ID:          id,
		Mode:        ModeFiltered,
		Criteria:    facility.NewCriteria(),
		Suggestions: []geocoding.Suggestion{},
		Results:     []facility.Facility{},
		Facets:      facility.Facets{Cities: []string{}, States: []string{}},
		Outcome:     directory.OutcomeEmpty,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Load fetches the result set for the current criteria.
func (s *Session) Load(ctx context.Context) State {
	s.mu.Lock()
	gen := s.beginSearchLocked()
	origin := s.state.Origin
	s.mu.Unlock()

	if origin != nil {
		s.runOriginSearch(ctx, gen, origin.Point)
	} else {
		s.runFilteredSearch(ctx, gen)
	}
	return s.Snapshot()
}

// TypeQuery records the free-text query, drops any origin and distance
// index, invalidates pending suggestion and result-set requests, and
// restarts the debounce timer. When the timer fires the session requests
// suggestions and refreshes the filtered list.
func (s *Session) TypeQuery(text string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.suggestGen++
	s.beginSearchLocked()
	s.state.Criteria.Text = text
	s.state.Origin = nil
	s.state.Distances = nil
	if len([]rune(strings.TrimSpace(text))) >= geocoding.MinQueryLength {
		s.state.Mode = ModeGeocoding
	} else {
		s.state.Mode = ModeFiltered
		s.state.Suggestions = []geocoding.Suggestion{}
	}
	s.scheduleDebounceLocked()
	s.publishLocked()
	return s.state.clone()
}

func (s *Session) scheduleDebounceLocked() {
	s.stopTimerLocked()
	if s.closed {
		return
	}
	s.debounceGen++
	gen := s.debounceGen
	s.timer = time.AfterFunc(s.settings.Debounce, func() {
		s.onDebounce(gen)
	})
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) onDebounce(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.debounceGen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	text := s.state.Criteria.Text
	s.suggestGen++
	suggestGen := s.suggestGen
	searchGen := s.beginSearchLocked()
	s.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		s.runSuggest(s.ctx, suggestGen, text)
		return nil
	})
	g.Go(func() error {
		s.runFilteredSearch(s.ctx, searchGen)
		return nil
	})
	_ = g.Wait()
}

func (s *Session) runSuggest(ctx context.Context, gen uint64, text string) {
	suggestions, err := s.geocoder.Suggest(ctx, text, s.settings.Region)
	if err != nil {
		s.log.Warn("suggestion request failed", "error", err)
	}
	if suggestions == nil {
		suggestions = []geocoding.Suggestion{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.suggestGen {
		metrics.SearchStaleResponsesTotal.WithLabelValues("suggest").Inc()
		return
	}
	s.state.Suggestions = suggestions
	s.publishLocked()
}

// PickSuggestion makes the suggestion the search origin. Pending suggestion
// requests and the debounce timer are invalidated first. A suggestion that
// only carries a place id is resolved; if resolution finds nothing the
// session stays in filtered mode and reports the outcome.
func (s *Session) PickSuggestion(ctx context.Context, sg geocoding.Suggestion) (State, error) {
	point := geo.Point{Lat: sg.Lat, Lng: sg.Lng}
	if !sg.NeedsResolve() && (point.IsZero() || !point.Valid()) {
		return State{}, apperr.Validation("suggestion needs a place id or valid coordinates")
	}

	s.mu.Lock()
	s.stopTimerLocked()
	s.debounceGen++
	s.suggestGen++
	gen := s.beginSearchLocked()
	s.state.Suggestions = []geocoding.Suggestion{}
	s.state.Criteria.Text = sg.Label
	s.publishLocked()
	s.mu.Unlock()

	label := sg.Label
	if sg.NeedsResolve() {
		place, err := s.geocoder.Resolve(ctx, sg.PlaceID)
		if err != nil || place == nil {
			outcome := directory.OutcomeEmpty
			if err != nil {
				outcome = directory.OutcomeFailed
				s.log.Warn("place resolution failed", "place_id", sg.PlaceID, "error", err)
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			if gen == s.searchGen {
				s.state.Mode = ModeFiltered
				s.state.Outcome = outcome
				s.publishLocked()
			}
			return s.state.clone(), nil
		}
		point = geo.Point{Lat: place.Lat, Lng: place.Lng}
		if label == "" {
			label = place.Name
		}
	}

	s.mu.Lock()
	if gen != s.searchGen {
		metrics.SearchStaleResponsesTotal.WithLabelValues("resolve").Inc()
		snap := s.state.clone()
		s.mu.Unlock()
		return snap, nil
	}
	s.state.Origin = &Origin{Point: point, Label: label}
	s.state.Distances = nil
	s.state.Mode = ModeOrigin
	s.state.Focus = &Focus{Point: point, Zoom: originZoom, Reason: FocusOrigin}
	s.publishLocked()
	s.mu.Unlock()

	s.runOriginSearch(ctx, gen, point)
	return s.Snapshot(), nil
}

// SelectCategory toggles the single category selection: picking the active
// category returns to All, anything else replaces it.
func (s *Session) SelectCategory(ctx context.Context, c facility.Category) State {
	c = facility.ParseSelection(string(c))
	return s.updateCriteria(ctx, func(cr *facility.Criteria) {
		if c == facility.All || cr.Category == c {
			cr.Category = facility.All
			return
		}
		cr.Category = c
	})
}

// SelectCity sets the city filter; empty or "all" clears it.
func (s *Session) SelectCity(ctx context.Context, city string) State {
	return s.updateCriteria(ctx, func(cr *facility.Criteria) {
		cr.City = city
		*cr = cr.Normalize()
	})
}

// SelectState sets the state filter; empty or "all" clears it.
func (s *Session) SelectState(ctx context.Context, state string) State {
	return s.updateCriteria(ctx, func(cr *facility.Criteria) {
		cr.State = state
		*cr = cr.Normalize()
	})
}

// updateCriteria applies mutate and re-runs the search: against the
// existing origin when one is set, otherwise as a filtered refresh.
func (s *Session) updateCriteria(ctx context.Context, mutate func(*facility.Criteria)) State {
	s.mu.Lock()
	text := s.state.Criteria.Text
	mutate(&s.state.Criteria)
	s.state.Criteria.Text = text
	gen := s.beginSearchLocked()
	origin := s.state.Origin
	s.publishLocked()
	s.mu.Unlock()

	if origin != nil {
		s.runOriginSearch(ctx, gen, origin.Point)
	} else {
		s.runFilteredSearch(ctx, gen)
	}
	return s.Snapshot()
}

// OpenFacility selects a facility from the current results and focuses it.
func (s *Session) OpenFacility(id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := facility.Find(s.state.Results, id)
	if !ok {
		return State{}, apperr.NotFound("facility not in current results")
	}
	s.state.Selected = &f
	if f.HasLocation() {
		s.state.Focus = &Focus{Point: f.Point(), Zoom: facilityZoom, Reason: FocusFacility}
	}
	s.publishLocked()
	return s.state.clone(), nil
}

// CloseFacility clears the selection. The map focus is kept.
func (s *Session) CloseFacility() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Selected = nil
	s.publishLocked()
	return s.state.clone()
}

// Locate focuses the map on the user's position without touching the origin.
func (s *Session) Locate(p geo.Point) (State, error) {
	if !p.Valid() {
		return State{}, apperr.Validation("coordinates out of range")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Focus = &Focus{Point: p, Zoom: locationZoom, Reason: FocusLocation}
	s.publishLocked()
	return s.state.clone(), nil
}

// Reset clears criteria, origin, distance index, selection, focus and
// suggestions, invalidates everything pending, and refetches the full set.
func (s *Session) Reset(ctx context.Context) State {
	s.mu.Lock()
	s.stopTimerLocked()
	s.debounceGen++
	s.suggestGen++
	gen := s.beginSearchLocked()
	version := s.state.Version
	results, outcome := s.state.Results, s.state.Outcome
	s.state = initialState(s.id)
	s.state.Version = version
	s.state.Results, s.state.Outcome = results, outcome
	s.state.Facets = facility.BuildFacets(results)
	s.publishLocked()
	s.mu.Unlock()

	s.runFilteredSearch(ctx, gen)
	return s.Snapshot()
}

// Clusters aggregates the current results into grid cells at zoom.
func (s *Session) Clusters(zoom int) []geo.Cluster {
	s.mu.Lock()
	markers := facility.Markers(s.state.Results)
	s.mu.Unlock()
	return geo.ClusterMarkers(markers, zoom)
}

// Subscribe returns a channel that receives the latest state after every
// change, dropping intermediate states a slow reader missed. The returned
// function unsubscribes. The channel is closed when the session closes.
func (s *Session) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.state.clone()
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subscribers[ch]; ok {
				delete(s.subscribers, ch)
				close(ch)
			}
		})
	}
}

// Close stops the debounce timer, cancels background work and closes all
// subscriber channels. Further intents still work but never publish.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimerLocked()
	s.cancel()
	for ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, ch)
	}
}

func (s *Session) beginSearchLocked() uint64 {
	s.searchGen++
	return s.searchGen
}

func (s *Session) runFilteredSearch(ctx context.Context, gen uint64) {
	s.mu.Lock()
	criteria := s.state.Criteria.Normalize()
	s.mu.Unlock()

	res := s.dir.ListAll(ctx, directory.Filter{
		Category: criteria.Category,
		CityName: criteria.City,
	})
	results := facility.Filter(res.Facilities, criteria.Matches)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.searchGen {
		metrics.SearchStaleResponsesTotal.WithLabelValues("search").Inc()
		return
	}
	s.state.Results = results
	s.state.Distances = nil
	s.state.Facets = facility.BuildFacets(results)
	s.state.Outcome = res.Outcome
	s.dropStaleSelectionLocked()
	s.publishLocked()
}

func (s *Session) runOriginSearch(ctx context.Context, gen uint64, origin geo.Point) {
	s.mu.Lock()
	criteria := s.state.Criteria.Normalize()
	s.mu.Unlock()

	res := RunOriginSearch(ctx, s.dir, OriginQuery{
		Origin:         origin,
		Category:       criteria.Category,
		NearbyRadiusKm: s.settings.NearbyRadiusKm,
		NearbyLimit:    s.settings.NearbyLimit,
		ClosestLimit:   s.settings.ClosestLimit,
	})
	results := facility.Filter(res.Facilities, criteria.MatchesPlace)
	distances := BuildDistanceIndex(origin, results)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.searchGen {
		metrics.SearchStaleResponsesTotal.WithLabelValues("search").Inc()
		return
	}
	s.state.Results = results
	s.state.Distances = distances
	s.state.Facets = facility.BuildFacets(results)
	s.state.Outcome = res.Outcome
	s.state.Mode = ModeOrigin
	s.dropStaleSelectionLocked()
	s.publishLocked()
}

func (s *Session) dropStaleSelectionLocked() {
	if s.state.Selected == nil {
		return
	}
	if _, ok := facility.Find(s.state.Results, s.state.Selected.ID); !ok {
		s.state.Selected = nil
	}
}

// publishLocked bumps the version and hands the new state to subscribers.
func (s *Session) publishLocked() {
	s.state.Version++
	if s.closed || len(s.subscribers) == 0 {
		return
	}
	snap := s.state.clone()
	for ch := range s.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
