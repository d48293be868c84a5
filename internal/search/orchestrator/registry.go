package orchestrator

import (
	"context"
	"time"

	"georesponse_backend/platform/logger"
	"georesponse_backend/platform/metrics"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Registry holds live sessions and expires them after a period without use.
type Registry struct {
	sessions *gocache.Cache
	// closed remembers ids of ended sessions for one idle period so callers
	// can tell an expired session from one that never existed.
	closed   *gocache.Cache
	dir      Directory
	geocoder Geocoder
	settings Settings
	log      *logger.Logger
}

// NewRegistry creates a registry whose sessions expire after idleTTL.
func NewRegistry(dir Directory, geocoder Geocoder, settings Settings, idleTTL time.Duration, log *logger.Logger) *Registry {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	closed := gocache.New(idleTTL, idleTTL)
	sessions := gocache.New(idleTTL, idleTTL/2)
	sessions.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.Close()
		}
		closed.SetDefault(id, struct{}{})
		metrics.SearchSessionsActive.Dec()
		log.Debug("search session closed", "session_id", id)
	})
	return &Registry{
		sessions: sessions,
		closed:   closed,
		dir:      dir,
		geocoder: geocoder,
		settings: settings,
		log:      log,
	}
}

// Create starts a session and loads its initial result set. region
// overrides the configured geocoding region when non-empty.
func (r *Registry) Create(ctx context.Context, region string) *Session {
	settings := r.settings
	if region != "" {
		settings.Region = region
	}
	s := NewSession(uuid.NewString(), r.dir, r.geocoder, settings, r.log)
	r.sessions.SetDefault(s.ID(), s)
	metrics.SearchSessionsActive.Inc()

	s.Load(ctx)
	return s
}

// Get returns a live session and extends its idle deadline.
func (r *Registry) Get(id string) (*Session, bool) {
	v, ok := r.sessions.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	r.sessions.SetDefault(id, s)
	return s, true
}

// Delete closes and forgets a session. It reports whether it existed.
func (r *Registry) Delete(id string) bool {
	if _, ok := r.sessions.Get(id); !ok {
		return false
	}
	r.sessions.Delete(id)
	return true
}

// Closed reports whether id names a session that was deleted or expired
// recently.
func (r *Registry) Closed(id string) bool {
	_, ok := r.closed.Get(id)
	return ok
}

// Len returns the number of live sessions, including expired ones not yet
// swept.
func (r *Registry) Len() int {
	return r.sessions.ItemCount()
}

// Close closes every session.
func (r *Registry) Close() {
	for id := range r.sessions.Items() {
		r.sessions.Delete(id)
	}
}
