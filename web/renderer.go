package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"

	"songstory-server/shared/logger"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

const layoutTemplate = "layout.html"

// Pages - страницы, которые умеет рисовать рендерер.
var Pages = []string{"index.html", "generate_story.html", "history.html"}

// TemplateRenderer реализует render.HTMLRender для gin.
// Каждая страница парсится вместе с layout.html в отдельный набор.
type TemplateRenderer struct {
	templates map[string]*template.Template
	fsys      fs.FS
	debug     bool // если true, шаблоны перечитываются с диска при каждом рендере
	funcMap   template.FuncMap
	logger    *zap.Logger
}

// NewTemplateRenderer загружает шаблоны. В debug-режиме они читаются из templateDir,
// иначе из встроенных в бинарник файлов.
func NewTemplateRenderer(templateDir string, debug bool, log *zap.Logger) (*TemplateRenderer, error) {
	r := &TemplateRenderer{
		debug:   debug,
		funcMap: FuncMap(),
		logger:  logger.Named(log, "TemplateRenderer"),
	}

	if debug {
		r.fsys = os.DirFS(templateDir)
	} else {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded templates: %w", err)
		}
		r.fsys = sub
	}

	templates, err := r.loadTemplates()
	if err != nil {
		return nil, err
	}
	r.templates = templates
	r.logger.Info("Templates loaded", zap.Bool("debug", debug), zap.Int("pages", len(templates)))
	return r, nil
}

func (r *TemplateRenderer) loadTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(Pages))
	for _, page := range Pages {
		tmpl, err := r.parsePage(page)
		if err != nil {
			return nil, err
		}
		templates[page] = tmpl
	}
	return templates, nil
}

func (r *TemplateRenderer) parsePage(page string) (*template.Template, error) {
	tmpl, err := template.New(page).Funcs(r.funcMap).ParseFS(r.fsys, layoutTemplate, page)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
	}
	return tmpl, nil
}

// Instance реализует render.HTMLRender.
func (r *TemplateRenderer) Instance(name string, data any) render.Render {
	tmpl, ok := r.templates[name]
	if r.debug {
		var err error
		if tmpl, err = r.parsePage(name); err != nil {
			r.logger.Error("Failed to reparse template (debug mode)", zap.String("template", name), zap.Error(err))
			return errorRender{err: err}
		}
		ok = true
	}
	if !ok {
		r.logger.Error("Template not found", zap.String("template", name))
		return errorRender{err: fmt.Errorf("template %s not found", name)}
	}

	return render.HTML{Template: tmpl, Name: layoutTemplate, Data: data}
}

// errorRender отдает ошибку в gin, который пишет ее в c.Errors и прерывает запрос.
type errorRender struct {
	err error
}

func (e errorRender) Render(http.ResponseWriter) error { return e.err }

func (e errorRender) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if val := header["Content-Type"]; len(val) == 0 {
		header["Content-Type"] = []string{"text/html; charset=utf-8"}
	}
}

// FuncMap - функции, доступные в шаблонах.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"title": func(s string) string {
			r, size := utf8.DecodeRuneInString(s)
			if r == utf8.RuneError {
				return s
			}
			return string(unicode.ToUpper(r)) + s[size:]
		},
		"inc": func(i int) int { return i + 1 },
	}
}
