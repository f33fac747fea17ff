// Package sessions maps browser cookies to studio controllers and expires
// idle sessions.
package sessions

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/proshot/internal/studio"
	"github.com/JaimeStill/proshot/pkg/lifecycle"
)

// CookieName holds the session id.
const CookieName = "proshot_session"

// Factory builds the controller for a new session.
type Factory func(id uuid.UUID) *studio.Controller

// Session pairs an id with its controller.
type Session struct {
	ID         uuid.UUID
	Controller *studio.Controller
}

// Registry is a concurrency-safe set of live sessions.
type Registry struct {
	factory  Factory
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	retiring sync.WaitGroup
}

// New creates a Registry. Sessions idle longer than ttl are removed by the
// sweeper every interval once Start is called.
func New(factory Factory, ttl, interval time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		factory:  factory,
		ttl:      ttl,
		interval: interval,
		logger:   logger.With("system", "sessions"),
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Resolve returns the session named by the request cookie, creating one and
// setting the cookie when it is absent, malformed, or expired. Only routes
// that render or change state call Resolve; read-only routes use Lookup.
func (r *Registry) Resolve(w http.ResponseWriter, req *http.Request) *Session {
	if s, ok := r.Lookup(req); ok {
		return s
	}

	s := r.create()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   req.TLS != nil,
	})
	return s
}

// Lookup returns the live session named by the request cookie without
// creating one.
func (r *Registry) Lookup(req *http.Request) (*Session, bool) {
	c, err := req.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return nil, false
	}
	return r.Get(id)
}

// Get looks up a live session.
func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	return s, ok
}

// Remove resets and drops a session. In-flight work is cancelled.
func (r *Registry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		r.retire(s)
	}
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions idle since before now minus ttl and returns their ids.
func (r *Registry) Sweep(now time.Time) []uuid.UUID {
	cutoff := now.Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.Controller.LastActive().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(expired))
	for _, s := range expired {
		r.retire(s)
		ids = append(ids, s.ID)
	}

	if len(ids) > 0 {
		r.logger.Info("sessions expired", "count", len(ids), "live", r.Len())
	}
	return ids
}

// Close drops every session and waits until the in-flight transformations of
// every dropped session, including swept and removed ones, are cancelled and
// observed.
func (r *Registry) Close() {
	r.mu.Lock()
	live := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		live = append(live, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range live {
		r.retire(s)
	}
	r.retiring.Wait()

	r.logger.Info("sessions closed", "count", len(live))
}

// retire cancels a dropped session's work without blocking the caller.
// Close waits for every retired session.
func (r *Registry) retire(s *Session) {
	s.Controller.Reset()
	r.retiring.Go(s.Controller.Close)
}

// Start runs the sweeper until shutdown and closes every session during
// teardown. onSweep, when non-nil, receives the ids removed by each pass.
func (r *Registry) Start(lc *lifecycle.Coordinator, onSweep func([]uuid.UUID)) {
	r.logger.Info("starting session sweeper", "ttl", r.ttl, "interval", r.interval)

	lc.OnTeardown(r.Close)

	lc.Every(r.interval, func(now time.Time) {
		ids := r.Sweep(now)
		if onSweep != nil && len(ids) > 0 {
			onSweep(ids)
		}
	})
}

func (r *Registry) create() *Session {
	id := uuid.New()
	s := &Session{ID: id, Controller: r.factory(id)}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	r.logger.Info("session created", "id", id)
	return s
}
