// Package ui embeds the browser templates and static assets for the studio
// module.
package ui

import (
	"embed"
	"html/template"
	"io/fs"

	"github.com/JaimeStill/proshot/pkg/web"
)

//go:embed layouts/*.html views/*.html static
var files embed.FS

// Layout is the template every view renders through.
const Layout = "layout"

// View templates, one per studio view.
const (
	ViewHome       = "home.html"
	ViewProcessing = "processing.html"
	ViewResult     = "result.html"
)

// Templates parses every view against the shared layout.
func Templates(basePath string, funcs template.FuncMap) (*web.TemplateSet, error) {
	return web.NewTemplateSet(
		files,
		"layouts/*.html",
		"views",
		Layout,
		basePath,
		funcs,
		ViewHome, ViewProcessing, ViewResult,
	)
}

// Static exposes the embedded static directory.
func Static() fs.FS {
	return files
}
