package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/proshot/internal/api"
	"github.com/JaimeStill/proshot/internal/app"
	"github.com/JaimeStill/proshot/internal/config"
	"github.com/JaimeStill/proshot/internal/generations"
	"github.com/JaimeStill/proshot/internal/imaging"
	"github.com/JaimeStill/proshot/internal/infrastructure"
	"github.com/JaimeStill/proshot/internal/sessions"
	"github.com/JaimeStill/proshot/internal/studio"
	"github.com/JaimeStill/proshot/internal/transform"
	"github.com/JaimeStill/proshot/pkg/module"
	"github.com/JaimeStill/proshot/pkg/ratelimit"
)

type Modules struct {
	API *module.Module
	App *module.Module

	recorder *generations.Recorder
	sessions *sessions.Registry
	limiter  *ratelimit.Limiter
	ttl      time.Duration
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiRuntime := api.NewRuntime(cfg, infra)
	domain := api.NewDomain(apiRuntime)

	apiModule, err := api.NewModule(cfg, apiRuntime, domain)
	if err != nil {
		return nil, err
	}

	transformer, err := transform.New(context.Background(), &cfg.Gemini, infra.Logger)
	if err != nil {
		return nil, fmt.Errorf("transformer init failed: %w", err)
	}

	recorder := generations.NewRecorder(domain.Generations, infra.Logger)
	studioLogger := infra.Logger.With("system", "studio")
	timeout := cfg.Studio.TransformTimeoutDuration()

	factory := func(id uuid.UUID) *studio.Controller {
		return studio.New(
			transformer,
			studio.WithObserver(recorder.Observer(id)),
			studio.WithLogger(studioLogger.With("session", id)),
			studio.WithTimeout(timeout),
		)
	}

	ttl := cfg.Studio.SessionTTLDuration()
	registry := sessions.New(factory, ttl, cfg.Studio.SweepIntervalDuration(), infra.Logger)
	limiter := ratelimit.New(cfg.API.RateLimit.PerMinute, cfg.API.RateLimit.Burst)

	appModule, err := app.NewModule(cfg, &app.Runtime{
		Infrastructure: infra,
		Sessions:       registry,
		Decoder:        imaging.New(infra.Logger),
		Limiter:        limiter,
	})
	if err != nil {
		return nil, err
	}

	return &Modules{
		API:      apiModule,
		App:      appModule,
		recorder: recorder,
		sessions: registry,
		limiter:  limiter,
		ttl:      ttl,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.App)
	router.Redirect("/", m.App.Prefix())
}

// Start registers the session sweeper and the record drain with the
// lifecycle. Teardown runs in reverse registration order: sessions close and
// cancel their transformations, pending records drain, then the database
// closes. Rate limit buckets idle as long as a session are dropped on every
// sweep.
func (m *Modules) Start(infra *infrastructure.Infrastructure) {
	m.recorder.Start(infra.Lifecycle)
	m.sessions.Start(infra.Lifecycle, func(expired []uuid.UUID) {
		m.limiter.Forget(time.Now().Add(-m.ttl))
	})
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	return router
}
