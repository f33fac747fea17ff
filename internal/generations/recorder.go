package generations

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/proshot/internal/studio"
	"github.com/JaimeStill/proshot/pkg/lifecycle"
)

const recordTimeout = 30 * time.Second

// Recorder turns controller outcomes into background Record calls so the
// controller never waits on history or archive I/O.
type Recorder struct {
	sys    System
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewRecorder creates a Recorder over sys.
func NewRecorder(sys System, logger *slog.Logger) *Recorder {
	return &Recorder{
		sys:    sys,
		logger: logger.With("system", "recorder"),
	}
}

// Observer returns a studio.Observer bound to sessionID. Outcomes observed
// after Wait has begun are dropped.
func (r *Recorder) Observer(sessionID uuid.UUID) studio.Observer {
	return func(o studio.Outcome) {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.closed {
			r.logger.Warn("generation outcome dropped after shutdown", "session", sessionID, "status", StatusOf(o))
			return
		}

		r.wg.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()

			cmd := RecordCommand{SessionID: sessionID, Outcome: o}
			if _, err := r.sys.Record(ctx, cmd); err != nil {
				r.logger.Error("record generation failed", "session", sessionID, "error", err)
			}
		})
	}
}

// Wait stops accepting outcomes and blocks until every pending record has
// finished.
func (r *Recorder) Wait() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()
}

// Start drains pending records during teardown. Register it before the
// session registry so sessions close first, and after the database so the
// pool is still open while records drain.
func (r *Recorder) Start(lc *lifecycle.Coordinator) {
	lc.OnTeardown(func() {
		r.Wait()
		r.logger.Info("pending generation records flushed")
	})
}
