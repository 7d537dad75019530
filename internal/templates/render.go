// Package templates handles HTML template rendering for Datastar SSE responses.
package templates

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

//go:embed fragments/*.html pages/*.html
var embedded embed.FS

// Renderer manages HTML fragment and page templates.
type Renderer struct {
	templates *template.Template
	mu        sync.RWMutex
}

// Default returns a renderer over the built-in fragments and pages.
func Default() (*Renderer, error) {
	tmpl, err := parseFS(embedded)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

// New creates a renderer from webDir, which holds fragments/ and pages/
// subdirectories overriding the built-in templates of the same name.
func New(webDir string) (*Renderer, error) {
	tmpl, err := parseDir(webDir)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

func parseFS(fsys fs.FS) (*template.Template, error) {
	return template.New("").ParseFS(fsys, "fragments/*.html", "pages/*.html")
}

func parseDir(webDir string) (*template.Template, error) {
	tmpl, err := parseFS(embedded)
	if err != nil {
		return nil, err
	}
	for _, sub := range []string{"fragments", "pages"} {
		matches, _ := filepath.Glob(filepath.Join(webDir, sub, "*.html"))
		if len(matches) == 0 {
			continue
		}
		if tmpl, err = tmpl.ParseFS(os.DirFS(webDir), sub+"/*.html"); err != nil {
			return nil, err
		}
	}
	return tmpl, nil
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Reload re-reads templates from webDir. A parse error keeps the current set.
func (r *Renderer) Reload(webDir string) error {
	tmpl, err := parseDir(webDir)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}
