// Package web provides the embedded HTML front end: page templates and the
// static script and stylesheet they load.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rotor-modal/client/internal/intake"
	"github.com/rotor-modal/client/internal/results"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static/*
var staticFiles embed.FS

// Template names.
const (
	IntakeTemplate  = "intake.html"
	ResultsTemplate = "results.html"
)

// IntakePage is the data of the intake template.
type IntakePage struct {
	Title    string
	Snapshot intake.Snapshot
	Version  string
}

// ResultsPage is the data of the results template.
type ResultsPage struct {
	Title   string
	Report  *results.ReportView
	Version string
}

// Renderer renders the embedded templates for echo.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"disabledIf": func(b bool) template.HTMLAttr {
			if b {
				return "disabled"
			}
			return ""
		},
	}).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// GetFileSystem returns the embedded static filesystem with static/ as root.
func GetFileSystem() (fs.FS, error) {
	return fs.Sub(staticFiles, "static")
}

// RegisterStaticRoutes serves the embedded assets under /static.
func RegisterStaticRoutes(e *echo.Echo) error {
	staticFS, err := GetFileSystem()
	if err != nil {
		return err
	}
	fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
	e.GET("/static/*", echo.WrapHandler(fileServer))
	return nil
}

// HasEmbeddedFiles reports whether the templates and assets were embedded.
func HasEmbeddedFiles() bool {
	for _, name := range []string{IntakeTemplate, ResultsTemplate} {
		if _, err := fs.Stat(templateFiles, "templates/"+name); err != nil {
			return false
		}
	}
	_, err := fs.Stat(staticFiles, "static/app.js")
	return err == nil
}
