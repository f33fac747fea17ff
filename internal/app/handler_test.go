package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/proshot/internal/app"
	"github.com/JaimeStill/proshot/internal/config"
	"github.com/JaimeStill/proshot/internal/imaging"
	"github.com/JaimeStill/proshot/internal/infrastructure"
	"github.com/JaimeStill/proshot/internal/sessions"
	"github.com/JaimeStill/proshot/internal/studio"
	"github.com/JaimeStill/proshot/pkg/lifecycle"
	"github.com/JaimeStill/proshot/pkg/module"
	"github.com/JaimeStill/proshot/pkg/ratelimit"
)

var (
	jpegBytes   = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	resultBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n', 'o', 'k'}
)

type harness struct {
	t      *testing.T
	router *module.Router
	cookie *http.Cookie
}

func newHarness(t *testing.T, service studio.Transformer, limiter *ratelimit.Limiter) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := func(id uuid.UUID) *studio.Controller {
		return studio.New(service, studio.WithLogger(logger))
	}

	rt := &app.Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: lifecycle.New(),
			Logger:    logger,
		},
		Sessions: sessions.New(factory, time.Hour, time.Minute, logger),
		Decoder:  imaging.New(logger),
		Limiter:  limiter,
	}

	cfg := &config.Config{API: config.APIConfig{AppPath: "/app", MaxUploadSize: "1KB"}}

	m, err := app.NewModule(cfg, rt)
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}

	router := module.NewRouter()
	router.Mount(m)
	return &harness{t: t, router: router}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == sessions.CookieName {
			h.cookie = c
		}
	}
	return rec
}

func (h *harness) form(path string, values url.Values, asJSON bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if asJSON {
		req.Header.Set("Accept", "application/json")
	}
	return h.do(req)
}

func (h *harness) upload(filename, contentType string, data []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(header)
	if err != nil {
		h.t.Fatalf("create part: %v", err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest("POST", "/app/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return h.do(req)
}

func (h *harness) status() app.Status {
	rec := h.do(httptest.NewRequest("GET", "/app/status", nil))
	var s app.Status
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		h.t.Fatalf("decode status: %v", err)
	}
	return s
}

func (h *harness) waitFor(view studio.View) app.Status {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := h.status(); s.View == view && !s.Busy {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	h.t.Fatalf("timed out waiting for view %s", view)
	return app.Status{}
}

func succeed(ctx context.Context, req studio.Request) (studio.Image, error) {
	return studio.Image{Data: resultBytes, MIMEType: "image/png"}, nil
}

func TestIndexRendersHome(t *testing.T) {
	h := newHarness(t, studio.TransformerFunc(succeed), ratelimit.New(0, 1))

	rec := h.do(httptest.NewRequest("GET", "/app", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Corporate Headshot", "Passport Photo", `accept="image/*,.pdf"`, "Generate Passport Photo"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if h.cookie == nil {
		t.Error("session cookie not issued")
	}
}

func TestHeadshotFlow(t *testing.T) {
	h := newHarness(t, studio.TransformerFunc(succeed), ratelimit.New(0, 1))

	if rec := h.form("/app/mode", url.Values{"mode": {"headshot"}}, true); rec.Code != http.StatusOK {
		t.Fatalf("mode status = %d", rec.Code)
	}
	if rec := h.upload("selfie.jpg", "image/jpeg", jpegBytes); rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}

	s := h.status()
	if s.Mode != studio.ModeHeadshot || !s.HasSource || !s.CanSubmit || s.Action != "Generate Headshot" {
		t.Fatalf("status before submit = %+v", s)
	}

	if rec := h.form("/app/submit", nil, true); rec.Code != http.StatusAccepted {
		t.Fatalf("submit status = %d", rec.Code)
	}

	s = h.waitFor(studio.ViewResult)
	if !s.HasResult || s.Error != "" {
		t.Errorf("status after submit = %+v", s)
	}

	page := h.do(httptest.NewRequest("GET", "/app", nil))
	if !strings.Contains(page.Body.String(), "data:image/png;base64,") {
		t.Error("result page should inline the result image")
	}

	dl := h.do(httptest.NewRequest("GET", "/app/download", nil))
	if dl.Code != http.StatusOK {
		t.Fatalf("download status = %d", dl.Code)
	}
	disposition := dl.Header().Get("Content-Disposition")
	if !strings.HasPrefix(disposition, `attachment; filename="proshot_headshot_`) || !strings.HasSuffix(disposition, `.png"`) {
		t.Errorf("disposition = %q", disposition)
	}
	if !bytes.Equal(dl.Body.Bytes(), resultBytes) {
		t.Error("download body differs from result")
	}

	src := h.do(httptest.NewRequest("GET", "/app/image/source", nil))
	if src.Code != http.StatusOK || !bytes.Equal(src.Body.Bytes(), jpegBytes) {
		t.Errorf("source image status = %d", src.Code)
	}
}

func TestSubmitFailureShowsMessage(t *testing.T) {
	fail := studio.TransformerFunc(func(ctx context.Context, req studio.Request) (studio.Image, error) {
		return studio.Image{}, errors.New("model overloaded")
	})
	h := newHarness(t, fail, ratelimit.New(0, 1))

	h.form("/app/mode", url.Values{"mode": {"PASSPORT"}}, true)
	h.upload("selfie.jpg", "image/jpeg", jpegBytes)
	h.form("/app/submit", nil, true)

	s := h.waitFor(studio.ViewHome)
	if s.Error != studio.FailureMessage || s.HasResult {
		t.Errorf("status = %+v", s)
	}

	page := h.do(httptest.NewRequest("GET", "/app", nil))
	if !strings.Contains(page.Body.String(), studio.FailureMessage) {
		t.Error("home page should show the failure message")
	}

	if dl := h.do(httptest.NewRequest("GET", "/app/download", nil)); dl.Code != http.StatusNotFound {
		t.Errorf("download status = %d, want 404", dl.Code)
	}
}

func TestSubmitNotReady(t *testing.T) {
	h := newHarness(t, studio.TransformerFunc(succeed), ratelimit.New(0, 1))

	rec := h.form("/app/submit", nil, true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("json status = %d, want 422", rec.Code)
	}

	html := h.form("/app/submit", nil, false)
	if html.Code != http.StatusUnprocessableEntity || !strings.Contains(html.Body.String(), "Select a mode and upload a photo") {
		t.Errorf("html status = %d", html.Code)
	}
}

func TestSubmitRateLimited(t *testing.T) {
	h := newHarness(t, studio.TransformerFunc(succeed), ratelimit.New(1, 1))

	h.form("/app/mode", url.Values{"mode": {"HEADSHOT"}}, true)
	h.upload("selfie.jpg", "image/jpeg", jpegBytes)

	if rec := h.form("/app/submit", nil, true); rec.Code != http.StatusAccepted {
		t.Fatalf("first submit = %d", rec.Code)
	}
	h.waitFor(studio.ViewResult)

	rec := h.form("/app/submit", nil, true)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("json regenerate = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	html := h.form("/app/submit", nil, false)
	if html.Code != http.StatusTooManyRequests {
		t.Fatalf("form regenerate = %d, want 429", html.Code)
	}
	if ct := html.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q, want the rendered page", ct)
	}
	body := html.Body.String()
	if !strings.Contains(body, "generating too quickly") || !strings.Contains(body, "Regenerate") {
		t.Errorf("page should show the result view with a notice: %s", body)
	}
}

func TestSubmitChargesOnlyStartedRequests(t *testing.T) {
	release := make(chan struct{})
	gated := studio.TransformerFunc(func(ctx context.Context, req studio.Request) (studio.Image, error) {
		select {
		case <-release:
			return studio.Image{Data: resultBytes, MIMEType: "image/png"}, nil
		case <-ctx.Done():
			return studio.Image{}, ctx.Err()
		}
	})
	h := newHarness(t, gated, ratelimit.New(1, 2))

	for range 3 {
		if rec := h.form("/app/submit", nil, true); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("not ready submit = %d, want 422", rec.Code)
		}
	}

	h.form("/app/mode", url.Values{"mode": {"PASSPORT"}}, true)
	h.upload("selfie.jpg", "image/jpeg", jpegBytes)

	if rec := h.form("/app/submit", nil, true); rec.Code != http.StatusAccepted {
		t.Fatalf("first submit = %d", rec.Code)
	}
	for range 3 {
		if rec := h.form("/app/submit", nil, true); rec.Code != http.StatusConflict {
			t.Fatalf("busy submit = %d, want 409", rec.Code)
		}
	}

	release <- struct{}{}
	h.waitFor(studio.ViewResult)

	if rec := h.form("/app/submit", nil, true); rec.Code != http.StatusAccepted {
		t.Fatalf("second submit = %d, want 202 with one token left", rec.Code)
	}
	close(release)
	h.waitFor(studio.ViewResult)

	if rec := h.form("/app/submit", nil, true); rec.Code != http.StatusTooManyRequests {
		t.Errorf("third submit = %d, want 429", rec.Code)
	}
}

func TestReadOnlyRoutesDoNotCreateSessions(t *testing.T) {
	h := newHarness(t, studio.TransformerFunc(succeed), ratelimit.New(0, 1))

	tests := []struct {
		path   string
		status int
	}{
		{"/app/status", http.StatusOK},
		{"/app/image/source", http.StatusNotFound},
		{"/app/image/result", http.StatusNotFound},
		{"/app/download", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := h.do(httptest.NewRequest("GET", tt.path, nil))
		if rec.Code != tt.status {
			t.Errorf("%s status = %d, want %d", tt.path, rec.Code, tt.status)
		}
		if c := rec.Header().Get("Set-Cookie"); c != "" {
			t.Errorf("%s set a cookie: %s", tt.path, c)
		}
	}

	if s := h.status(); s.View != studio.ViewHome || s.HasSource || s.Options != studio.DefaultOptions() {
		t.Errorf("cookieless status = %+v", s)
	}

	h.do(httptest.NewRequest("GET", "/app", nil))
	if h.cookie == nil {
		t.Fatal("index should start a session")
	}
}

func TestUploadedSVGIsRejected(t *testing.T) {
	h := newHarness(t, studio.TransformerFunc(succeed), ratelimit.New(0, 1))

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)
	if rec := h.upload("avatar.svg", "image/svg+xml", svg); rec.Code != http.StatusBadRequest {
		t.Fatalf("svg upload = %d, want 400", rec.Code)
	}
	if rec := h.do(httptest.NewRequest("GET", "/app/image/source", nil)); rec.Code != http.StatusNotFound {
		t.Errorf("source after svg upload = %d, want 404", rec.Code)
	}

	h.upload("selfie.jpg", "image/jpeg", jpegBytes)
	rec := h.do(httptest.NewRequest("GET", "/app/image/source", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/jpeg" {
		t.Fatalf("source = %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || !strings.Contains(rec.Header().Get("Content-Security-Policy"), "sandbox") {
		t.Errorf("image headers = %v", rec.Header())
	}
}

func TestFormActionsRedirect(t *testing.T) {
	h := newHarness(t, studio.TransformerFunc(succeed), ratelimit.New(0, 1))

	for _, path := range []string{"/app/mode", "/app/clear", "/app/reset", "/app/home"} {
		values := url.Values{"mode": {"HEADSHOT"}}
		rec := h.form(path, values, false)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/app/" {
			t.Errorf("%s: status = %d location = %q", path, rec.Code, rec.Header().Get("Location"))
		}
	}
}

func TestUploadErrors(t *testing.T) {
	h := newHarness(t, studio.TransformerFunc(succeed), ratelimit.New(0, 1))

	if rec := h.upload("notes.txt", "text/plain", []byte("hello")); rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported status = %d, want 400", rec.Code)
	}
	if rec := h.upload("huge.jpg", "image/jpeg", bytes.Repeat([]byte{0xFF}, 4096)); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized status = %d, want 413", rec.Code)
	}
	if s := h.status(); s.HasSource {
		t.Error("failed uploads must not set a source")
	}
}

func TestCustomize(t *testing.T) {
	h := newHarness(t, studio.TransformerFunc(succeed), ratelimit.New(0, 1))

	bg := studio.Backgrounds[2].Value
	rec := h.form("/app/customize", url.Values{"background": {bg}}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("customize status = %d", rec.Code)
	}

	s := h.status()
	if s.Options.Background != bg || s.Options.Attire != studio.DefaultAttire {
		t.Errorf("options = %+v", s.Options)
	}

	if rec := h.form("/app/customize", url.Values{}, true); rec.Code != http.StatusBadRequest {
		t.Errorf("empty customize status = %d, want 400", rec.Code)
	}
}

func TestModeInvalid(t *testing.T) {
	h := newHarness(t, studio.TransformerFunc(succeed), ratelimit.New(0, 1))

	if rec := h.form("/app/mode", url.Values{"mode": {"selfie"}}, true); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	h := newHarness(t, studio.TransformerFunc(succeed), ratelimit.New(0, 1))

	for _, path := range []string{"/app/static/app.css", "/app/static/app.js"} {
		if rec := h.do(httptest.NewRequest("GET", path, nil)); rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}
