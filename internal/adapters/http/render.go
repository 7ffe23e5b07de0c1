package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"mentorship/internal/adapters/http/i18n"
	"mentorship/internal/application/projections"
)

//go:embed templates
var templatesFS embed.FS

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// pages lists the top-level templates; each is parsed together with the layout and partials.
var pages = []string{"dashboard.html", "confirm.html", "admin_audit.html"}

type templateSet struct {
	pages map[string]*template.Template
}

// baseFuncs declares every function templates may call; request-bound
// ones are replaced per render.
func baseFuncs() template.FuncMap {
	return template.FuncMap{
		"t":           func(key string) string { return key },
		"tp":          func(p projections.Prompt) string { return p.String() },
		"num":         func(n int) string { return fmt.Sprint(n) },
		"csrfField":   func() template.HTML { return "" },
		"markdown":    renderMarkdown,
		"pathEscape":  url.PathEscape,
		"langURL":     func(tag string) string { return "/?lang=" + tag },
		"openURL":     func(name string) string { return "/?open=" + url.QueryEscape(name) },
		"currentLang": func() string { return language.AmericanEnglish.String() },
	}
}

func parseTemplates() (*templateSet, error) {
	set := &templateSet{pages: map[string]*template.Template{}}
	for _, page := range pages {
		tpl, err := template.New("layout.html").Funcs(baseFuncs()).ParseFS(templatesFS,
			"templates/layout.html", "templates/partials.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		set.pages[page] = tpl
	}
	return set, nil
}

// render executes page inside the layout with translations bound to tr.
// POST: On failure a generic 500 is written and the cause is logged
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, tr i18n.Translator, data any) {
	base, ok := s.templates.pages[page]
	if !ok {
		internalError(w, fmt.Errorf("unknown template %s", page))
		return
	}
	tpl, err := base.Clone()
	if err != nil {
		internalError(w, err)
		return
	}
	tpl.Funcs(template.FuncMap{
		"t":         tr.T,
		"tp":        func(p projections.Prompt) string { return tr.Tf(p.Format, p.Args...) },
		"num":       tr.Number,
		"csrfField": func() template.HTML { return csrf.TemplateField(r) },
		"langURL": func(tag string) string {
			if r.Method != http.MethodGet {
				return "/?" + i18n.LangParam + "=" + url.QueryEscape(tag)
			}
			q := r.URL.Query()
			q.Set(i18n.LangParam, tag)
			return r.URL.Path + "?" + q.Encode()
		},
		"openURL": func(name string) string {
			q := r.URL.Query()
			if r.Method != http.MethodGet {
				q = url.Values{}
			}
			q.Del("new")
			q.Del("reload")
			q.Del(i18n.LangParam)
			q.Set("open", name)
			return "/?" + q.Encode()
		},
		"currentLang": func() string { return tr.Tag.String() },
	})

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", page, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	zap.S().Errorw("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
