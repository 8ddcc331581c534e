// Package handler contains the HTTP handlers: each one parses the request, calls a
// service, and either renders a page or redirects.
//
// Handlers hold no business rules. Their only decisions are which page to render and
// where to send the browser when something fails.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/sakif/secrets/internal/model"
)

// Page names. Each one is a file <name>.html in the template directory that defines
// a "content" block for base.html.
const (
	PageWelcome  = "welcome"
	PageRegister = "register"
	PageLogin    = "login"
	PageHome     = "home"
	PageSubmit   = "submit"
	PageError    = "error"
)

var pages = []string{PageWelcome, PageRegister, PageLogin, PageHome, PageSubmit, PageError}

// PageData is what every template receives.
type PageData struct {
	Title         string
	User          *model.User // nil for anonymous visitors
	GoogleEnabled bool
	Secrets       []string
	Message       string
}

// Renderer renders named pages inside the shared base layout.
//
// Every page defines the same "content" block, so each one gets its own template set
// (base + page) parsed once at start-up.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewRenderer parses base.html together with every page in templateDir.
func NewRenderer(templateDir string, logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template, len(pages)),
		logger:    logger,
	}

	base := filepath.Join(templateDir, "base.html")
	for _, name := range pages {
		tmpl, err := template.ParseFiles(base, filepath.Join(templateDir, name+".html"))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// Render writes page with status. The page is executed into a buffer first, so a
// template error still produces a clean 500 instead of half a document.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data PageData) {
	tmpl, ok := r.templates[page]
	if !ok {
		r.logger.Error("unknown page", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		r.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
