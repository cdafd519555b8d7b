package httpx

import (
	"net/http"
	"strings"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/service"
)

// SimulatedLoginTarget is where a simulated sign-in lands.
const SimulatedLoginTarget = PublisherDashboardPath

func testAuthMeta() PageMeta {
	return PageMeta{Title: "Knowlio - Test Auth", PageTitle: "Authentication test bench", CurrentPage: PageTestAuth}
}

// TestAuth renders the simulation utility.
// GET /test-auth.
func (h *UIHandlers) TestAuth(w http.ResponseWriter, r *http.Request) {
	h.renderTestAuth(w, r, http.StatusOK, "", nil)
}

func (h *UIHandlers) renderTestAuth(w http.ResponseWriter, r *http.Request, status int, toast string, err error) {
	b := NewTemplateData(r, testAuthMeta()).
		With("DefaultEmail", service.DefaultSimulatedEmail).
		With("EventTags", domainauth.EventTags()).
		With("ClientKey", ClientKeyFromRequest(r)).
		WithToast(toast)
	if err != nil {
		b.WithError(err.Error())
	}
	h.renderPage(w, r, status, b.Build())
}

// TestAuthLogin writes a simulated session and publishes signed-in.
// POST /test-auth/login.
func (h *UIHandlers) TestAuthLogin(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Auth.SimulateSignIn(r.Context(), ClientKeyFromRequest(r),
		r.PostFormValue("email"), r.PostFormValue("name"))
	if err != nil {
		h.renderError(w, r, errorPageParams{Err: err, Message: "Unable to simulate sign-in."})
		return
	}
	h.logger().InfoContext(r.Context(), "simulated sign in", "identifier", rec.Identifier)
	redirectAfterPost(w, r, SimulatedLoginTarget)
}

// TestAuthLogout clears the simulated session and publishes signed-out.
// POST /test-auth/logout.
func (h *UIHandlers) TestAuthLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.SimulateSignOut(r.Context(), ClientKeyFromRequest(r)); err != nil {
		h.renderError(w, r, errorPageParams{Err: err, Message: "Unable to simulate sign-out."})
		return
	}
	redirectAfterPost(w, r, HomePath)
}

// TestAuthEvent publishes an arbitrary lifecycle event for this browser, or
// for every browser when scope=all.
// POST /test-auth/event.
func (h *UIHandlers) TestAuthEvent(w http.ResponseWriter, r *http.Request) {
	tag, err := domainauth.ParseEventTag(r.PostFormValue("tag"))
	if err != nil {
		h.renderTestAuth(w, r, http.StatusUnprocessableEntity, "", err)
		return
	}

	key := ClientKeyFromRequest(r)
	if r.PostFormValue("scope") == "all" {
		key = ""
	}
	payload := map[string]string{}
	if msg := strings.TrimSpace(r.PostFormValue("message")); msg != "" {
		payload["message"] = msg
	}
	h.Auth.PublishTestEvent(r.Context(), key, tag, payload)

	if IsHTMX(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.renderTestAuth(w, r, http.StatusOK, "Published "+string(tag)+".", nil)
}
