package generations

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/proshot/internal/studio"
)

func TestFiltersWhere(t *testing.T) {
	session := uuid.MustParse("7b3f7c9e-3f6b-4d0e-9a55-0c1d2e3f4a5b")

	ref := SessionRef(session)

	values := url.Values{
		"mode":    {"passport"},
		"status":  {"FAILED"},
		"session": {strings.ToUpper(ref)},
	}
	f := FiltersFromQuery(values)

	where, args := f.where()
	want := " WHERE mode = $1 AND status = $2 AND session_ref = $3"
	if where != want {
		t.Errorf("where = %q, want %q", where, want)
	}
	if len(args) != 3 || args[0] != "PASSPORT" || args[1] != "failed" || args[2] != ref {
		t.Errorf("args = %v", args)
	}
}

func TestFiltersIgnoreInvalid(t *testing.T) {
	f := FiltersFromQuery(url.Values{
		"mode":    {"selfie"},
		"status":  {"pending"},
		"session": {"7b3f7c9e-3f6b-4d0e-9a55-0c1d2e3f4a5b"},
	})

	if where, args := f.where(); where != "" || args != nil {
		t.Errorf("where = %q args = %v, want empty", where, args)
	}
}

func TestArchiveKeys(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")

	tests := []struct {
		mime string
		want string
	}{
		{"image/jpeg", "generations/00000000-0000-0000-0000-000000000001/source.jpg"},
		{"image/png", "generations/00000000-0000-0000-0000-000000000001/source.png"},
		{"image/heic", "generations/00000000-0000-0000-0000-000000000001/source.img"},
	}
	for _, tt := range tests {
		if got := sourceKey(id, tt.mime); got != tt.want {
			t.Errorf("sourceKey(%s) = %q, want %q", tt.mime, got, tt.want)
		}
	}

	if got := resultKey(id); got != "generations/00000000-0000-0000-0000-000000000001/result.png" {
		t.Errorf("resultKey = %q", got)
	}
}

func TestStatusOf(t *testing.T) {
	ok := studio.Outcome{Result: studio.Image{Data: []byte{1}}}
	failed := studio.Outcome{Err: studio.ErrEmptyResult}
	superseded := studio.Outcome{Err: studio.ErrEmptyResult, Superseded: true}

	if StatusOf(ok) != StatusSucceeded || StatusOf(failed) != StatusFailed || StatusOf(superseded) != StatusSuperseded {
		t.Error("unexpected status classification")
	}
}

func TestRecordArgsNeverCarrySessionID(t *testing.T) {
	session := uuid.New()
	cmd := RecordCommand{
		SessionID: session,
		Outcome: studio.Outcome{
			Request:   studio.Request{Mode: studio.ModeHeadshot, Options: studio.DefaultOptions()},
			Err:       errors.New("quota exceeded"),
			StartedAt: time.Unix(1_700_000_000, 0),
			Duration:  1500 * time.Millisecond,
		},
	}

	args := recordArgs(uuid.New(), cmd, nil, nil)

	for i, arg := range args {
		if arg == session {
			t.Errorf("arg %d is the session id", i)
		}
		if strings.Contains(fmt.Sprint(arg), session.String()) {
			t.Errorf("arg %d contains the session id: %v", i, arg)
		}
	}
	if args[1] != SessionRef(session) {
		t.Errorf("session arg = %v, want %s", args[1], SessionRef(session))
	}
	if args[5] != string(StatusFailed) || args[7] != int64(1500) {
		t.Errorf("status/duration args = %v/%v", args[5], args[7])
	}
}

func TestSessionRef(t *testing.T) {
	id := uuid.New()
	ref := SessionRef(id)

	if ref != SessionRef(id) {
		t.Error("ref should be stable for one session")
	}
	if ref == SessionRef(uuid.New()) {
		t.Error("refs should differ across sessions")
	}
	if _, err := uuid.Parse(ref); err == nil {
		t.Errorf("ref %q parses as a session id", ref)
	}
	if !isSessionRef(ref) {
		t.Errorf("ref %q rejected by the session filter", ref)
	}
}
