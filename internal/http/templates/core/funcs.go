// Package core provides the template helpers shared by every page.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"sectionTmpl":  deps.ContentTemplateFor,
		"timeTag":      timeTag,
		"add":          func(a, b int) int { return a + b },
		"sub":          func(a, b int) int { return a - b },
		"contains":     strings.Contains,
		"truncateText": TruncateText,
		"typeClass":    TypeClass,
		"initial":      Initial,
		"dict":         dict,
	}

	addRenderFuncs(funcs, deps)
	return funcs
}

func addRenderFuncs(funcs template.FuncMap, deps Deps) {
	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - rendered by our own html/template set; values were escaped during execution.
		return template.HTML(buf.String()), nil
	}

	funcs["toJSON"] = func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// dict builds a map from alternating keys and values for passing several
// values to a nested template.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict requires an even number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %d is %T, not string", i, kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}

func timeTag(t0 time.Time) template.HTML {
	if t0.IsZero() {
		return ""
	}
	friendly := t0.Local().Format("Jan 2, 2006")
	// #nosec G203 - constructed from escaped values only
	return template.HTML(fmt.Sprintf(
		"<time datetime=\"%s\" title=\"%s\">%s</time>",
		t0.UTC().Format(time.RFC3339),
		template.HTMLEscapeString(t0.Local().Format(time.RFC1123)),
		template.HTMLEscapeString(friendly),
	))
}

// TypeClass maps a content type to its chip class.
func TypeClass(contentType any) string {
	switch strings.ToLower(fmt.Sprint(contentType)) {
	case "book":
		return "chip-book"
	case "video":
		return "chip-video"
	case "audio":
		return "chip-audio"
	case "dataset":
		return "chip-dataset"
	default:
		return "chip"
	}
}

// Initial returns the upper-cased first letter of s for avatar badges.
func Initial(s string) string {
	for _, r := range strings.TrimSpace(s) {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// TruncateText truncates a string to a maximum number of runes (not bytes),
// ending with an ellipsis when truncated.
func TruncateText(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen > 1 {
		return string(runes[:maxLen-1]) + "…"
	}
	return string(runes[:1])
}
