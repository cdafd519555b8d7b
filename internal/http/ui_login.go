package httpx

import (
	"net/http"
	"strings"

	apperrors "github.com/target/knowlio-web/internal/errors"
	"github.com/target/knowlio-web/internal/service"
)

// Login page modes.
const (
	LoginModeSignIn  = "signin"
	LoginModeSignUp  = "signup"
	LoginModeConfirm = "confirm"
)

// loginErrorMessages maps error codes carried on /login redirects to messages.
//
//nolint:gochecknoglobals // static read-only lookup
var loginErrorMessages = map[string]string{
	"redirect_failed": "Sign-in with the identity provider is unavailable. Please try again.",
	"signin_failed":   apperrors.MsgAuthenticationFailed,
}

// loginForm is the state of the login page forms.
type loginForm struct {
	Mode        string
	Email       string
	Name        string
	RedirectURI string
}

func normalizeLoginMode(mode string) string {
	switch mode {
	case LoginModeSignUp, LoginModeConfirm:
		return mode
	default:
		return LoginModeSignIn
	}
}

func loginMeta(mode string) PageMeta {
	title := "Sign in"
	switch mode {
	case LoginModeSignUp:
		title = "Create an account"
	case LoginModeConfirm:
		title = "Confirm your account"
	}
	return PageMeta{Title: "Knowlio - " + title, PageTitle: title, CurrentPage: PageLogin}
}

// postLoginRedirect returns the safe redirect_uri of r, defaulting to the dashboard.
func postLoginRedirect(r *http.Request) string {
	candidate := r.FormValue("redirect_uri")
	if candidate == "" {
		return DashboardPath
	}
	if p := safeRedirectPath(candidate); p != "/" {
		return p
	}
	return DashboardPath
}

// loginPageParams groups the inputs of renderLogin.
type loginPageParams struct {
	Form   loginForm
	Status int
	Err    error
	// Fallback is the message shown for errors that carry no user-facing text.
	Fallback string
	Toast    string
}

func (h *UIHandlers) renderLogin(w http.ResponseWriter, r *http.Request, p loginPageParams) {
	p.Form.Mode = normalizeLoginMode(p.Form.Mode)
	b := NewTemplateData(r, loginMeta(p.Form.Mode)).
		With("Form", p.Form).
		WithToast(p.Toast)

	if p.Err != nil {
		if field := apperrors.GetField(p.Err); field != "" && apperrors.IsValidation(p.Err) {
			b.WithFieldErrors(map[string]string{field: apperrors.UserMessage(p.Err, p.Fallback)})
		} else {
			b.WithError(apperrors.UserMessage(p.Err, p.Fallback))
		}
	} else if code := r.URL.Query().Get("error"); code != "" {
		if msg, ok := loginErrorMessages[code]; ok {
			b.WithError(msg)
		}
	}

	status := p.Status
	if status == 0 {
		status = http.StatusOK
	}
	h.renderPage(w, r, status, b.Build())
}

// errorStatus picks the response status for a failed credential flow.
func errorStatus(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusUnprocessableEntity
	case apperrors.IsAuthentication(err), apperrors.IsNetwork(err):
		return http.StatusUnauthorized
	case apperrors.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// Login renders the sign-in, sign-up or confirmation form.
// GET /login?mode=signin|signup|confirm&email=&redirect_uri=.
func (h *UIHandlers) Login(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if _, ok := GetSessionFromContext(r.Context()); ok && q.Get("mode") == "" {
		http.Redirect(w, r, postLoginRedirect(r), http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, loginPageParams{Form: loginForm{
		Mode:        q.Get("mode"),
		Email:       q.Get("email"),
		RedirectURI: q.Get("redirect_uri"),
	}})
}

// LoginSubmit signs in with email and password.
// POST /login.
func (h *UIHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	form := loginForm{Mode: LoginModeSignIn, Email: email, RedirectURI: r.PostFormValue("redirect_uri")}

	_, err := h.Auth.SignIn(r.Context(), service.SignInInput{
		Key:      ClientKeyFromRequest(r),
		Email:    email,
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		h.logger().InfoContext(r.Context(), "sign in rejected", "error", err)
		h.renderLogin(w, r, loginPageParams{
			Form: form, Status: errorStatus(err), Err: err, Fallback: apperrors.MsgAuthenticationFailed,
		})
		return
	}
	redirectAfterPost(w, r, postLoginRedirect(r))
}

// SignUpSubmit registers an account and shows the confirmation form.
// POST /login/signup.
func (h *UIHandlers) SignUpSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	name := r.PostFormValue("name")
	err := h.Auth.SignUp(r.Context(), service.SignUpInput{
		Email:           email,
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
		Name:            name,
	})
	if err != nil {
		h.logger().InfoContext(r.Context(), "sign up rejected", "error", err)
		h.renderLogin(w, r, loginPageParams{
			Form:     loginForm{Mode: LoginModeSignUp, Email: email, Name: name},
			Status:   errorStatus(err),
			Err:      err,
			Fallback: apperrors.MsgSignUpFailed,
		})
		return
	}
	h.renderLogin(w, r, loginPageParams{
		Form:  loginForm{Mode: LoginModeConfirm, Email: email},
		Toast: "Check your email for a 6-digit confirmation code.",
	})
}

// ConfirmSubmit confirms a registration and returns to the sign-in form.
// POST /login/confirm.
func (h *UIHandlers) ConfirmSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	if err := h.Auth.ConfirmSignUp(r.Context(), email, r.PostFormValue("code")); err != nil {
		h.logger().InfoContext(r.Context(), "confirmation rejected", "error", err)
		h.renderLogin(w, r, loginPageParams{
			Form:     loginForm{Mode: LoginModeConfirm, Email: email},
			Status:   errorStatus(err),
			Err:      err,
			Fallback: apperrors.MsgConfirmFailed,
		})
		return
	}
	h.renderLogin(w, r, loginPageParams{
		Form:  loginForm{Mode: LoginModeSignIn, Email: email},
		Toast: "Account confirmed. Please sign in.",
	})
}
