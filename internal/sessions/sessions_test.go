package sessions_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/proshot/internal/sessions"
	"github.com/JaimeStill/proshot/internal/studio"
	"github.com/JaimeStill/proshot/pkg/lifecycle"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newRegistry(clk *clock, ttl time.Duration) *sessions.Registry {
	noop := studio.TransformerFunc(func(ctx context.Context, req studio.Request) (studio.Image, error) {
		return studio.Image{}, nil
	})
	factory := func(id uuid.UUID) *studio.Controller {
		return studio.New(noop, studio.WithClock(clk.Now))
	}
	return sessions.New(factory, ttl, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessions.CookieName {
			return c
		}
	}
	return nil
}

func TestResolveCreatesAndReuses(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	reg := newRegistry(clk, time.Hour)

	rec := httptest.NewRecorder()
	first := reg.Resolve(rec, httptest.NewRequest("GET", "/app", nil))

	cookie := sessionCookie(rec)
	if cookie == nil || cookie.Value != first.ID.String() || !cookie.HttpOnly {
		t.Fatalf("cookie = %+v", cookie)
	}

	req := httptest.NewRequest("GET", "/app", nil)
	req.AddCookie(cookie)
	rec2 := httptest.NewRecorder()
	second := reg.Resolve(rec2, req)

	if second != first {
		t.Error("cookie should resolve to the same session")
	}
	if sessionCookie(rec2) != nil {
		t.Error("existing session should not reissue the cookie")
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d, want 1", reg.Len())
	}
}

func TestResolveReplacesUnknownCookie(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	reg := newRegistry(clk, time.Hour)

	for _, value := range []string{"garbage", uuid.NewString()} {
		req := httptest.NewRequest("GET", "/app", nil)
		req.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: value})

		rec := httptest.NewRecorder()
		s := reg.Resolve(rec, req)

		if s.ID.String() == value {
			t.Errorf("unknown id %q should not be adopted", value)
		}
		if sessionCookie(rec) == nil {
			t.Error("replacement cookie not set")
		}
	}
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	reg := newRegistry(clk, time.Hour)

	idle := reg.Resolve(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	idle.Controller.SelectMode(studio.ModePassport)

	clk.Advance(45 * time.Minute)
	active := reg.Resolve(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	clk.Advance(30 * time.Minute)
	expired := reg.Sweep(clk.Now())

	if len(expired) != 1 || expired[0] != idle.ID {
		t.Fatalf("expired = %v, want [%v]", expired, idle.ID)
	}
	if _, ok := reg.Get(idle.ID); ok {
		t.Error("idle session still registered")
	}
	if _, ok := reg.Get(active.ID); !ok {
		t.Error("active session removed")
	}
	if idle.Controller.Snapshot().Mode != "" {
		t.Error("expired controller should be reset")
	}
}

func TestRemove(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	reg := newRegistry(clk, time.Hour)

	s := reg.Resolve(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if !reg.Remove(s.ID) {
		t.Error("Remove should report an existing session")
	}
	if reg.Remove(s.ID) {
		t.Error("second Remove should report false")
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d", reg.Len())
	}
}

func TestStartClosesSessionsOnShutdown(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	reg := newRegistry(clk, time.Hour)
	reg.Resolve(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	lc := lifecycle.New()
	reg.Start(lc, nil)

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("Len after shutdown = %d, want 0", reg.Len())
	}
}

func TestCloseCancelsInFlight(t *testing.T) {
	blocking := studio.TransformerFunc(func(ctx context.Context, req studio.Request) (studio.Image, error) {
		<-ctx.Done()
		return studio.Image{}, ctx.Err()
	})

	var superseded int
	var mu sync.Mutex
	factory := func(id uuid.UUID) *studio.Controller {
		return studio.New(blocking, studio.WithObserver(func(o studio.Outcome) {
			mu.Lock()
			defer mu.Unlock()
			if o.Superseded {
				superseded++
			}
		}))
	}
	reg := sessions.New(factory, time.Hour, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var first uuid.UUID
	for i := range 3 {
		s := reg.Resolve(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
		s.Controller.SelectMode(studio.ModeHeadshot)
		s.Controller.SetSourceImage(studio.Image{Data: []byte{0xFF, 0xD8, 0xFF}, MIMEType: "image/jpeg"})
		if _, err := s.Controller.Submit(); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if i == 0 {
			first = s.ID
		}
	}

	// A session dropped before shutdown is still waited on.
	if !reg.Remove(first) {
		t.Fatal("remove failed")
	}

	reg.Close()

	mu.Lock()
	defer mu.Unlock()
	if superseded != 3 {
		t.Errorf("superseded outcomes observed before Close returned = %d, want 3", superseded)
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d, want 0", reg.Len())
	}
}

func TestLookupDoesNotCreate(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	reg := newRegistry(clk, time.Hour)

	if _, ok := reg.Lookup(httptest.NewRequest("GET", "/status", nil)); ok {
		t.Error("lookup without cookie should miss")
	}

	req := httptest.NewRequest("GET", "/status", nil)
	req.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: uuid.NewString()})
	if _, ok := reg.Lookup(req); ok {
		t.Error("lookup with unknown id should miss")
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d, want 0", reg.Len())
	}

	s := reg.Resolve(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	req = httptest.NewRequest("GET", "/status", nil)
	req.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: s.ID.String()})
	if got, ok := reg.Lookup(req); !ok || got.ID != s.ID {
		t.Error("lookup should find the resolved session")
	}
}
