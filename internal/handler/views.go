package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/inkpost/inkpost/internal/auth"
	"github.com/inkpost/inkpost/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page template names.
const (
	pageLogin       = "login"
	pageSignup      = "signup"
	pageArticleList = "article_list"
	pageArticle     = "article"
	pageNewArticle  = "new_article"
	pageError       = "error"
)

var pages = []string{pageLogin, pageSignup, pageArticleList, pageArticle, pageNewArticle, pageError}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
	"excerpt": func(a *model.Article, n int) string {
		return a.Excerpt(n)
	},
}

// viewData is passed to every page template.
type viewData struct {
	Title    string
	Email    string // signed-in account, empty on anonymous pages
	Error    string
	Notice   string
	Status   int
	Form     formValues
	Article  *model.Article
	Articles []*model.Article
}

// formValues echoes submitted form fields back into a re-rendered page.
type formValues struct {
	Email string
}

// Renderer renders the embedded HTML templates.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template, len(pages)),
		logger:    logger,
	}

	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		r.templates[page] = tmpl
	}

	return r, nil
}

// Render executes page into a buffer and writes it with status.
// Template failures produce a plain 500 instead of a half-written page.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data viewData) {
	tmpl, ok := v.templates[page]
	if !ok {
		v.logger.Error("unknown template", slog.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if data.Email == "" {
		if p := auth.PrincipalFromContext(r.Context()); p != nil {
			data.Email = p.Email
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		v.logger.Error("template render failed",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderError renders the error page.
func (v *Renderer) RenderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	v.Render(w, r, status, pageError, viewData{
		Title:  http.StatusText(status),
		Status: status,
		Error:  message,
	})
}

// StaticHandler serves the embedded assets under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
