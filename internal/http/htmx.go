package httpx

import (
	"net/http"
	"strings"
)

// IsHTMX reports whether the request was initiated by htmx (Hx-Request: true).
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// WantsPartial returns true when the handler should return only the main fragment (not full layout).
func WantsPartial(r *http.Request) bool {
	return IsHTMX(r)
}

// SetHXRedirect instructs htmx to redirect the browser to the given URL.
func SetHXRedirect(w http.ResponseWriter, url string) { w.Header().Set("Hx-Redirect", url) }

// redirectAfterPost finishes a form post: htmx callers get HX-Redirect,
// regular form posts a 303 See Other.
func redirectAfterPost(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		SetHXRedirect(w, target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
