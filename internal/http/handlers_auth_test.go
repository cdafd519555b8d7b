package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/knowlio-web/internal/errors"
	"github.com/target/knowlio-web/internal/service"
)

func TestAuthHandlers_LoginSetsCookiesAndRedirects(t *testing.T) {
	auth := newStubAuth()
	h := &AuthHandlers{Svc: auth, CallbackURL: "https://app.example.com/auth/callback"}

	req := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=/publisher-dashboard", nil)
	rec := httptest.NewRecorder()
	h.Login(rec, withClientKey(req, "k1", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://idp.example.com/authorize", rec.Header().Get("Location"))

	resp := rec.Result()
	for name, want := range map[string]string{
		oauthStateCookie: "st-1",
		oauthNonceCookie: "n-1",
		postLoginCookie:  "/publisher-dashboard",
	} {
		c := findCookie(resp, name)
		require.NotNil(t, c, name)
		assert.Equal(t, want, c.Value)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, oauthCookieMaxAge, c.MaxAge)
	}

	require.Len(t, auth.begins, 1)
	assert.Equal(t, "k1", auth.begins[0].Key)
	assert.Equal(t, "https://app.example.com/auth/callback", auth.begins[0].RedirectURL)
	assert.Empty(t, auth.begins[0].IdentityProvider)
}

func TestAuthHandlers_GoogleSelectsFederatedProvider(t *testing.T) {
	auth := newStubAuth()
	h := &AuthHandlers{Svc: auth}

	req := httptest.NewRequest(http.MethodGet, "http://knowlio.test/auth/google", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	h.Google(httptest.NewRecorder(), withClientKey(req, "k1", nil))

	require.Len(t, auth.begins, 1)
	assert.Equal(t, googleIdentityLabel, auth.begins[0].IdentityProvider)
	assert.Equal(t, "https://knowlio.test/auth/callback", auth.begins[0].RedirectURL)
}

func TestAuthHandlers_LoginDropsUnsafeRedirect(t *testing.T) {
	h := &AuthHandlers{Svc: newStubAuth(), CallbackURL: "https://app.example.com/auth/callback"}

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=https://evil.example.com", nil))

	c := findCookie(rec.Result(), postLoginCookie)
	require.NotNil(t, c)
	assert.Equal(t, "/", c.Value)
}

func TestAuthHandlers_LoginBeginFailure(t *testing.T) {
	auth := newStubAuth()
	auth.BeginFunc = func(context.Context, service.BeginLoginInput) (*service.BeginLoginResult, error) {
		return nil, errors.New("idp down")
	}
	h := &AuthHandlers{Svc: auth, CallbackURL: "https://app.example.com/auth/callback"}

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodGet, "/auth/login", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?error=redirect_failed", rec.Header().Get("Location"))
	assert.Nil(t, findCookie(rec.Result(), oauthStateCookie))
}

func callbackRequest(query string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?"+query, nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st-1"})
	req.AddCookie(&http.Cookie{Name: oauthNonceCookie, Value: "n-1"})
	req.AddCookie(&http.Cookie{Name: postLoginCookie, Value: "/publisher-dashboard"})
	return withClientKey(req, "k1", nil)
}

func TestAuthHandlers_CallbackSuccess(t *testing.T) {
	auth := newStubAuth()
	h := &AuthHandlers{Svc: auth}

	rec := httptest.NewRecorder()
	h.Callback(rec, callbackRequest("code=abc&state=st-1"))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/publisher-dashboard", rec.Header().Get("Location"))

	require.Len(t, auth.completes, 1)
	in := auth.completes[0]
	assert.Equal(t, service.CompleteLoginInput{
		Key:           "k1",
		Code:          "abc",
		State:         "st-1",
		Nonce:         "n-1",
		ExpectedState: "st-1",
		CustomState:   "/publisher-dashboard",
	}, in)

	for _, name := range []string{oauthStateCookie, oauthNonceCookie, postLoginCookie} {
		c := findCookie(rec.Result(), name)
		require.NotNil(t, c, name)
		assert.Equal(t, -1, c.MaxAge, "%s must be cleared", name)
	}
}

func TestAuthHandlers_CallbackDefaultsToDashboard(t *testing.T) {
	h := &AuthHandlers{Svc: newStubAuth()}
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=st-1", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st-1"})

	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, DashboardPath, rec.Header().Get("Location"))
}

func TestAuthHandlers_CallbackFailure(t *testing.T) {
	auth := newStubAuth()
	auth.CompleteFunc = func(context.Context, service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
		return nil, apperrors.Authentication("Sign-in request expired. Please try again.", nil)
	}
	h := &AuthHandlers{Svc: auth}

	rec := httptest.NewRecorder()
	h.Callback(rec, callbackRequest("error=access_denied&state=st-1"))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?error=signin_failed", rec.Header().Get("Location"))
	c := findCookie(rec.Result(), oauthStateCookie)
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
}

func TestAuthHandlers_LogoutForm(t *testing.T) {
	auth := newStubAuth()
	h := &AuthHandlers{Svc: auth}

	rec := httptest.NewRecorder()
	h.Logout(rec, withClientKey(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), "k1", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, HomePath, rec.Header().Get("Location"))
	assert.Equal(t, []string{"k1"}, auth.signOuts)
}

func TestAuthHandlers_LogoutJSONIgnoresProviderError(t *testing.T) {
	auth := newStubAuth()
	auth.SignOutFunc = func(context.Context, string) error { return errors.New("revoke failed") }
	h := &AuthHandlers{Svc: auth}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.Logout(rec, withClientKey(req, "k1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","redirect_to":"/"}`, rec.Body.String())
}

func TestAuthHandlers_LogoutHTMX(t *testing.T) {
	h := &AuthHandlers{Svc: newStubAuth()}
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Hx-Request", "true")
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, HomePath, rec.Header().Get("Hx-Redirect"))
}

func TestAuthHandlers_Status(t *testing.T) {
	auth := newStubAuth()
	auth.sessions.put("k1", testSession())
	h := &AuthHandlers{Svc: auth}

	rec := httptest.NewRecorder()
	h.Status(rec, withClientKey(httptest.NewRequest(http.MethodGet, "/auth/status", nil), "k1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Authenticated bool `json:"authenticated"`
		User          struct {
			Identifier  string `json:"identifier"`
			DisplayName string `json:"display_name"`
			Provider    string `json:"provider"`
		} `json:"user"`
		ExpiresAt string `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Authenticated)
	assert.Equal(t, "jane@example.com", body.User.Identifier)
	assert.Equal(t, "Jane", body.User.DisplayName)
	assert.Equal(t, "email", body.User.Provider)
	assert.NotEmpty(t, body.ExpiresAt)

	rec = httptest.NewRecorder()
	h.Status(rec, withClientKey(httptest.NewRequest(http.MethodGet, "/auth/status", nil), "other", nil))
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
}
