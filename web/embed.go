// Package web embeds the dashboard templates and the browser assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

// TemplatesFS embeds the page and its htmx partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds app.js and the stylesheet.
//
//go:embed static/*
var StaticFS embed.FS

// Templates parses every embedded template. funcs must provide the helpers the
// templates call ("json").
func Templates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(TemplatesFS, "templates/*.html")
}

// Static returns the assets rooted at the static directory, ready to be served
// under /static/.
func Static() (fs.FS, error) {
	return fs.Sub(StaticFS, "static")
}
