package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/proshot/internal/sessions"
	"github.com/JaimeStill/proshot/internal/studio"
	"github.com/JaimeStill/proshot/pkg/handlers"
	"github.com/JaimeStill/proshot/pkg/ratelimit"
	"github.com/JaimeStill/proshot/pkg/routes"
	"github.com/JaimeStill/proshot/pkg/web"
	"github.com/JaimeStill/proshot/web/ui"
)

// Decoder converts an uploaded file into a studio image.
type Decoder interface {
	Decode(data []byte, filename, declaredType string) (studio.Image, error)
}

// Handler serves the browser workflow. Every request acts on the controller
// of the caller's cookie session.
type Handler struct {
	sessions      *sessions.Registry
	decoder       Decoder
	limiter       *ratelimit.Limiter
	views         *web.TemplateSet
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler.
func NewHandler(
	reg *sessions.Registry,
	decoder Decoder,
	limiter *ratelimit.Limiter,
	views *web.TemplateSet,
	logger *slog.Logger,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sessions:      reg,
		decoder:       decoder,
		limiter:       limiter,
		views:         views,
		logger:        logger.With("handler", "app"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the UI routes.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{$}", Handler: h.Index},
			{Method: "GET", Pattern: "/status", Handler: h.Status},
			{Method: "GET", Pattern: "/image/{kind}", Handler: h.Image},
			{Method: "GET", Pattern: "/download", Handler: h.Download},
			{Method: "GET", Pattern: "/static/", Handler: web.Assets(ui.Static(), "static", "/static/").ServeHTTP},
			{Method: "POST", Pattern: "/mode", Handler: h.SelectMode},
			{Method: "POST", Pattern: "/upload", Handler: h.Upload},
			{Method: "POST", Pattern: "/clear", Handler: h.Clear},
			{Method: "POST", Pattern: "/customize", Handler: h.Customize},
			{Method: "POST", Pattern: "/submit", Handler: h.Submit},
			{Method: "POST", Pattern: "/reset", Handler: h.Reset},
			{Method: "POST", Pattern: "/home", Handler: h.Home},
		},
	}
}

// Index renders the page for the session's current view.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Resolve(w, r)
	h.render(w, http.StatusOK, s.Controller.Snapshot(), "")
}

// Status returns the session state as JSON for polling. A caller without a
// session sees the fresh HOME state and no session is created.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessions.Lookup(r)
	if !ok {
		handlers.RespondJSON(w, http.StatusOK, NewStatus(freshSnapshot()))
		return
	}
	handlers.RespondJSON(w, http.StatusOK, NewStatus(s.Controller.Snapshot()))
}

// SelectMode sets the output mode from the "mode" form value.
func (h *Handler) SelectMode(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Resolve(w, r)

	mode, err := studio.ParseMode(r.FormValue("mode"))
	if err != nil {
		h.fail(w, r, s, err)
		return
	}

	s.Controller.SelectMode(mode)
	h.done(w, r, s)
}

// Upload decodes the "file" form field and stores it as the source image.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Resolve(w, r)

	if r.ContentLength > h.maxUploadSize {
		h.fail(w, r, s, ErrFileTooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, s, ErrFileTooLarge)
			return
		}
		h.fail(w, r, s, ErrNoFile)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, s, ErrNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, r, s, ErrNoFile)
		return
	}

	img, err := h.decoder.Decode(data, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.fail(w, r, s, err)
		return
	}

	s.Controller.SetSourceImage(img)
	h.logger.Info(
		"source image uploaded",
		"session", s.ID,
		"filename", header.Filename,
		"mime_type", img.MIMEType,
		"bytes", len(img.Data),
	)
	h.done(w, r, s)
}

// Clear discards the source image.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Resolve(w, r)
	s.Controller.ClearSourceImage()
	h.done(w, r, s)
}

// Customize applies the "background" and "attire" form values that are present.
func (h *Handler) Customize(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Resolve(w, r)

	if err := r.ParseForm(); err != nil {
		h.fail(w, r, s, ErrNoOptions)
		return
	}

	applied := 0
	for _, field := range []studio.Field{studio.FieldBackground, studio.FieldAttire} {
		v := strings.TrimSpace(r.PostForm.Get(string(field)))
		if v == "" {
			continue
		}
		if err := s.Controller.SetCustomization(field, v); err != nil {
			h.fail(w, r, s, err)
			return
		}
		applied++
	}

	if applied == 0 {
		h.fail(w, r, s, ErrNoOptions)
		return
	}
	h.done(w, r, s)
}

// Submit starts a transformation. A request already in flight is left alone.
// Submissions are throttled per session, and only a submission that starts a
// request spends a token.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Resolve(w, r)
	key := s.ID.String()

	if s.Controller.Snapshot().CanSubmit() {
		if wait := h.limiter.Delay(key); wait > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			h.fail(w, r, s, ErrRateLimited)
			return
		}
	}

	if _, err := s.Controller.Submit(); err != nil {
		if errors.Is(err, studio.ErrBusy) && !wantsJSON(r) {
			h.done(w, r, s)
			return
		}
		h.fail(w, r, s, err)
		return
	}
	h.limiter.Allow(key)

	if wantsJSON(r) {
		handlers.RespondJSON(w, http.StatusAccepted, NewStatus(s.Controller.Snapshot()))
		return
	}
	h.done(w, r, s)
}

// Reset returns the session to a fresh HOME view.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Resolve(w, r)
	s.Controller.Reset()
	h.done(w, r, s)
}

// Home leaves the RESULT view.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Resolve(w, r)
	s.Controller.ShowHome()
	h.done(w, r, s)
}

// Image serves the raw source or result image.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessions.Lookup(r)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrNoImage)
		return
	}
	snap := s.Controller.Snapshot()

	var img studio.Image
	switch r.PathValue("kind") {
	case "source":
		img = snap.Source
	case "result":
		img = snap.Result
	}

	if img.Empty() {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrNoImage)
		return
	}
	web.Blob(w, img.Data, img.MIMEType)
}

// Download sends the current result as a PNG attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessions.Lookup(r)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusNotFound, studio.ErrNoResult)
		return
	}

	export, ok := s.Controller.Download()
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusNotFound, studio.ErrNoResult)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	web.Blob(w, export.Data, export.MIMEType)
}

func (h *Handler) done(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
	if wantsJSON(r) {
		handlers.RespondJSON(w, http.StatusOK, NewStatus(s.Controller.Snapshot()))
		return
	}
	http.Redirect(w, r, h.views.BasePath()+"/", http.StatusSeeOther)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, s *sessions.Session, err error) {
	status := MapHTTPStatus(err)
	if wantsJSON(r) {
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	h.logger.Warn("request rejected", "session", s.ID, "status", status, "error", err)
	h.render(w, status, s.Controller.Snapshot(), notice(err))
}

func (h *Handler) render(w http.ResponseWriter, status int, snap studio.Snapshot, notice string) {
	name, title := viewFor(snap.View)
	data := newPage(snap, notice, h.views.BasePath(), time.Now().UnixNano())

	if err := h.views.Render(w, status, name, title, data); err != nil {
		h.logger.Error("render failed", "view", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
