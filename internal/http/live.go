package httpx

import (
	"net/http"

	"github.com/target/knowlio-web/internal/live"
)

// NavRenderer renders the navigation fragment pushed to live views. The
// page the view is showing arrives as ?page= so the active link survives
// re-renders.
func NavRenderer(t *TemplateRenderer) func(*http.Request, live.NavState) (string, error) {
	return func(r *http.Request, state live.NavState) (string, error) {
		page := r.URL.Query().Get("page")
		if _, ok := contentTemplates[page]; !ok {
			page = ""
		}
		return t.RenderString(navTemplate, buildNav(r, state, page))
	}
}
