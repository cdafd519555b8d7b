package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	corefuncs "github.com/target/knowlio-web/internal/http/templates/core"
)

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing templates (required)
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer constructs a renderer by parsing templates from the provided config.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer := &TemplateRenderer{logger: logger}
	var t *template.Template
	funcs := corefuncs.Funcs(corefuncs.Deps{
		Template:           &t,
		ContentTemplateFor: ContentTemplateFor,
	})
	t, err := template.New("root").Funcs(funcs).ParseFS(cfg.TemplateFS,
		"*.tmpl",
		"pages/*.tmpl",
		"partials/*.tmpl",
	)
	if err != nil {
		logger.Error("template parsing failed",
			slog.Any("error", err),
			slog.String("phase", "initialization"),
		)
		return nil, err
	}
	renderer.t = t
	return renderer, nil
}

// Render executes the named template ("layout", "content", "error-layout")
// and writes it with status. Nothing is written when execution fails.
func (r *TemplateRenderer) Render(w http.ResponseWriter, templateName string, status int, data any) error {
	return r.renderTemplate(w, templateName, status, data)
}

// RenderString executes a named template into a string, for fragments
// delivered outside an HTTP response such as live nav pushes.
func (r *TemplateRenderer) RenderString(templateName string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, templateName, data); err != nil {
		r.logTemplateError(templateName, err)
		return "", err
	}
	return buf.String(), nil
}

func (r *TemplateRenderer) renderTemplate(w http.ResponseWriter, templateName string, status int, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, templateName, data); err != nil {
		r.logTemplateError(templateName, err)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	// Write failures mean the client went away; the response is committed either way.
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Warn("failed to write rendered template",
			slog.String("template", templateName),
			slog.Any("error", err),
		)
	}
	return nil
}

func (r *TemplateRenderer) logTemplateError(templateName string, err error) {
	r.logger.Error("template execution failed",
		slog.String("template", templateName),
		slog.Any("error", err),
	)
}
