// Package infrastructure assembles the shared systems every module depends on.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/JaimeStill/proshot/internal/config"
	"github.com/JaimeStill/proshot/pkg/auth"
	"github.com/JaimeStill/proshot/pkg/database"
	"github.com/JaimeStill/proshot/pkg/lifecycle"
	"github.com/JaimeStill/proshot/pkg/storage"
)

const discoveryTimeout = 15 * time.Second

// Infrastructure holds lifecycle coordination, logging, and the optional
// database, storage, and bearer auth systems. Each optional system is nil
// when its section is not configured.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Auth      auth.Verifier
}

// New initializes every configured system without starting them.
func New(cfg *config.Config) (*Infrastructure, error) {
	infra := &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}

	if cfg.Database.Enabled() {
		db, err := database.New(&cfg.Database, infra.Logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	} else {
		infra.Logger.Info("database not configured, generation history disabled")
	}

	if cfg.Storage.Enabled() {
		store, err := storage.New(&cfg.Storage, infra.Logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		infra.Storage = store
	} else {
		infra.Logger.Info("storage not configured, image archive disabled")
	}

	if cfg.Auth.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
		defer cancel()

		verifier, err := auth.New(ctx, &cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("auth init failed: %w", err)
		}
		infra.Auth = verifier
	} else {
		infra.Logger.Info("auth not configured, generation history api disabled")
	}

	return infra, nil
}

// Start registers the configured systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	return nil
}

// Ready reports whether startup finished and the database, when configured,
// answered its ping.
func (i *Infrastructure) Ready() bool {
	if !i.Lifecycle.Ready() {
		return false
	}
	return i.Database == nil || i.Database.Ready()
}
