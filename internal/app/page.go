package app

import (
	"html/template"
	"strings"

	"github.com/JaimeStill/proshot/internal/imaging"
	"github.com/JaimeStill/proshot/internal/studio"
	"github.com/JaimeStill/proshot/pkg/formatting"
	"github.com/JaimeStill/proshot/web/ui"
)

// Status is the JSON view of a session polled by the browser.
type Status struct {
	View      studio.View    `json:"view"`
	Mode      studio.Mode    `json:"mode,omitempty"`
	HasSource bool           `json:"has_source"`
	HasResult bool           `json:"has_result"`
	Busy      bool           `json:"busy"`
	CanSubmit bool           `json:"can_submit"`
	Error     string         `json:"error,omitempty"`
	Options   studio.Options `json:"options"`
	Action    string         `json:"action"`
}

// NewStatus summarizes a snapshot without image bytes.
func NewStatus(s studio.Snapshot) Status {
	return Status{
		View:      s.View,
		Mode:      s.Mode,
		HasSource: s.HasSource(),
		HasResult: s.HasResult(),
		Busy:      s.Busy,
		CanSubmit: s.CanSubmit(),
		Error:     s.Error,
		Options:   s.Options,
		Action:    studio.ActionLabel(s.Mode),
	}
}

// freshSnapshot is the state of a session that does not exist yet.
func freshSnapshot() studio.Snapshot {
	return studio.Snapshot{View: studio.ViewHome, Options: studio.DefaultOptions()}
}

type page struct {
	Snapshot    studio.Snapshot
	Modes       []studio.ModeInfo
	Backgrounds []studio.Choice
	Attires     []studio.Choice
	Action      string
	Notice      string
	ResultURI   template.URL
	SourceSize  string
	Version     int64
}

var funcs = template.FuncMap{
	"lower": strings.ToLower,
}

func viewFor(v studio.View) (name, title string) {
	switch v {
	case studio.ViewProcessing:
		return ui.ViewProcessing, "Processing"
	case studio.ViewResult:
		return ui.ViewResult, "Your Photo"
	default:
		return ui.ViewHome, "Studio"
	}
}

func newPage(s studio.Snapshot, notice, basePath string, version int64) page {
	p := page{
		Snapshot:    s,
		Modes:       studio.Modes(),
		Backgrounds: studio.Backgrounds,
		Attires:     studio.Attires,
		Action:      studio.ActionLabel(s.Mode),
		Notice:      notice,
		Version:     version,
	}

	if s.HasSource() {
		p.SourceSize = formatting.FormatBytes(int64(len(s.Source.Data)), 1)
	}

	if s.HasResult() {
		if uri, err := imaging.DataURI(s.Result); err == nil {
			p.ResultURI = template.URL(uri)
		} else {
			p.ResultURI = template.URL(basePath + "/image/result")
		}
	}

	return p
}
