package generations

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/proshot/internal/studio"
	"github.com/JaimeStill/proshot/pkg/repository"
)

const columns = `id, session_ref, mode, background, attire, status, error, duration_ms, source_key, result_key, created_at`

// Filters narrows List results. Nil fields are ignored.
type Filters struct {
	Mode    *studio.Mode `json:"mode,omitempty"`
	Status  *Status      `json:"status,omitempty"`
	Session *string      `json:"session,omitempty"`
}

// FiltersFromQuery reads mode, status, and session. Unparseable values are dropped.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if m, err := studio.ParseMode(values.Get("mode")); err == nil {
		f.Mode = &m
	}
	if s := Status(strings.ToLower(values.Get("status"))); s == StatusSucceeded || s == StatusFailed || s == StatusSuperseded {
		f.Status = &s
	}
	if ref := strings.ToLower(values.Get("session")); isSessionRef(ref) {
		f.Session = &ref
	}

	return f
}

// where renders the filters as a WHERE clause with positional arguments.
func (f Filters) where() (string, []any) {
	var (
		conds []string
		args  []any
	)

	add := func(column string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if f.Mode != nil {
		add("mode", string(*f.Mode))
	}
	if f.Status != nil {
		add("status", string(*f.Status))
	}
	if f.Session != nil {
		add("session_ref", *f.Session)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanGeneration(s repository.Scanner) (Generation, error) {
	var (
		g      Generation
		mode   string
		status string
	)
	err := s.Scan(
		&g.ID,
		&g.Session,
		&mode,
		&g.Background,
		&g.Attire,
		&status,
		&g.Error,
		&g.DurationMS,
		&g.SourceKey,
		&g.ResultKey,
		&g.CreatedAt,
	)
	g.Mode = studio.Mode(mode)
	g.Status = Status(status)
	return g, err
}

// recordArgs orders the INSERT arguments for one outcome. The session id is
// reduced to its SessionRef and never stored.
func recordArgs(id uuid.UUID, cmd RecordCommand, srcKey, resKey *string) []any {
	o := cmd.Outcome

	var errText *string
	if o.Err != nil {
		s := o.Err.Error()
		errText = &s
	}

	return []any{
		id,
		SessionRef(cmd.SessionID),
		string(o.Request.Mode),
		o.Request.Options.Background,
		o.Request.Options.Attire,
		string(StatusOf(o)),
		errText,
		o.Duration.Milliseconds(),
		srcKey,
		resKey,
		o.StartedAt,
	}
}

func isSessionRef(s string) bool {
	if len(s) != 24 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func sourceKey(id uuid.UUID, mimeType string) string {
	ext := ".img"
	switch mimeType {
	case "image/png":
		ext = ".png"
	case "image/jpeg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	case "image/gif":
		ext = ".gif"
	}
	return fmt.Sprintf("generations/%s/source%s", id, ext)
}

func resultKey(id uuid.UUID) string {
	return fmt.Sprintf("generations/%s/result.png", id)
}
