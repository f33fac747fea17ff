// Package web renders server-side pages from embedded templates and serves
// embedded static assets.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
)

// ViewData is passed to every page template. BasePath lets templates build
// links that work under any mount prefix via {{ .BasePath }}.
type ViewData struct {
	Title    string
	BasePath string
	Data     any
}

// TemplateSet holds one parsed template tree per view, each cloned from the
// shared layouts.
type TemplateSet struct {
	views    map[string]*template.Template
	layout   string
	basePath string
}

// NewTemplateSet parses the layouts matched by layoutGlob, then clones them for
// each view file under viewDir. layout names the template executed on Render.
func NewTemplateSet(fsys fs.FS, layoutGlob, viewDir, layout, basePath string, funcs template.FuncMap, views ...string) (*TemplateSet, error) {
	layouts, err := template.New("").Funcs(funcs).ParseFS(fsys, layoutGlob)
	if err != nil {
		return nil, fmt.Errorf("parse layouts: %w", err)
	}

	sub, err := fs.Sub(fsys, viewDir)
	if err != nil {
		return nil, err
	}

	parsed := make(map[string]*template.Template, len(views))
	for _, name := range views {
		t, err := layouts.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layouts for %s: %w", name, err)
		}
		if _, err := t.ParseFS(sub, name); err != nil {
			return nil, fmt.Errorf("parse view %s: %w", name, err)
		}
		parsed[name] = t
	}

	return &TemplateSet{
		views:    parsed,
		layout:   layout,
		basePath: basePath,
	}, nil
}

// BasePath returns the prefix injected into every ViewData.
func (ts *TemplateSet) BasePath() string {
	return ts.basePath
}

// Render executes view into a buffer and writes it with status. Nothing is
// written when the template fails.
func (ts *TemplateSet) Render(w http.ResponseWriter, status int, view, title string, data any) error {
	t, ok := ts.views[view]
	if !ok {
		return fmt.Errorf("template not found: %s", view)
	}

	var buf bytes.Buffer
	vd := ViewData{Title: title, BasePath: ts.basePath, Data: data}
	if err := t.ExecuteTemplate(&buf, ts.layout, vd); err != nil {
		return fmt.Errorf("render %s: %w", view, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
