// Package view renders the panel pages from embedded html/template files.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
)

//go:embed templates
var files embed.FS

// Page names accepted by Render.
const (
	PageHome   = "home"
	PageForm   = "form"
	PageStatus = "status"
	PageError  = "error"
)

var pages = []string{PageHome, PageForm, PageStatus, PageError}

var funcs = template.FuncMap{
	// homeLink builds a landing page URL with the given selection.
	"homeLink": func(platform, feature string) string {
		q := url.Values{}
		if platform != "" {
			q.Set("platform", platform)
		}
		if feature != "" {
			q.Set("feature", feature)
		}
		if len(q) == 0 {
			return "/"
		}
		return "/?" + q.Encode()
	},
}

type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page together with the shared layout and partials.
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcs).ParseFS(files,
			"templates/layout.html",
			"templates/partials/*.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// Render executes page into w.
func (r *Renderer) Render(w io.Writer, page string, data interface{}) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	return nil
}
