// Package generations keeps a history of transformation outcomes and
// optionally archives their images to blob storage.
package generations

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/proshot/internal/studio"
)

// Status is the recorded result of one submission.
type Status string

const (
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusSuperseded Status = "superseded"
)

// Generation is one recorded submission.
type Generation struct {
	ID         uuid.UUID   `json:"id"`
	Session    string      `json:"session"`
	Mode       studio.Mode `json:"mode"`
	Background string      `json:"background"`
	Attire     string      `json:"attire"`
	Status     Status      `json:"status"`
	Error      *string     `json:"error,omitempty"`
	DurationMS int64       `json:"duration_ms"`
	SourceKey  *string     `json:"source_key,omitempty"`
	ResultKey  *string     `json:"result_key,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// SessionRef derives the reference stored with a generation from the session
// id. It groups a session's generations without revealing the id, which is
// the session cookie.
func SessionRef(id uuid.UUID) string {
	sum := sha256.Sum256(id[:])
	return hex.EncodeToString(sum[:12])
}

// RecordCommand carries a controller outcome for the session that produced it.
type RecordCommand struct {
	SessionID uuid.UUID
	Outcome   studio.Outcome
}

// StatusOf classifies an outcome.
func StatusOf(o studio.Outcome) Status {
	switch {
	case o.Superseded:
		return StatusSuperseded
	case o.Err != nil:
		return StatusFailed
	default:
		return StatusSucceeded
	}
}
