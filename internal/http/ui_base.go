package httpx

import (
	"context"
	"log/slog"
	"net/http"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/domain/model"
	"github.com/target/knowlio-web/internal/service"
)

// AuthServiceInterface is the slice of service.AuthService used by handlers.
type AuthServiceInterface interface {
	Session(ctx context.Context, key string) (*domainauth.Session, bool)
	BeginLogin(ctx context.Context, in service.BeginLoginInput) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, in service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	SignIn(ctx context.Context, in service.SignInInput) (*domainauth.Session, error)
	SignUp(ctx context.Context, in service.SignUpInput) error
	ConfirmSignUp(ctx context.Context, email, code string) error
	SignOut(ctx context.Context, key string) error
	SimulateSignIn(ctx context.Context, key, email, name string) (domainauth.Record, error)
	SimulateSignOut(ctx context.Context, key string) error
	PublishTestEvent(ctx context.Context, key string, tag domainauth.EventTag, payload map[string]string)
}

// ContactService is a minimal interface for the contact page.
type ContactService interface {
	Submit(ctx context.Context, req *model.CreateContactMessageRequest) (*model.ContactMessage, error)
}

// ContentService is a minimal interface for the publisher dashboard.
type ContentService interface {
	Page(ctx context.Context, opts model.ContentListOptions) (*model.ContentPage, error)
	Get(ctx context.Context, id string) (*model.ContentItem, error)
	Delete(ctx context.Context, id string) error
}

// Compile-time interface assertions to ensure concrete services satisfy their UI interfaces.
var (
	_ AuthServiceInterface = (*service.AuthService)(nil)
	_ ContactService       = (*service.ContactService)(nil)
	_ ContentService       = (*service.ContentService)(nil)
)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T          *TemplateRenderer
	Auth       AuthServiceInterface
	ContactSvc ContactService
	ContentSvc ContentService
	IsDev      bool // Development mode flag for enhanced error reporting
	Logger     *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// renderPage renders data with the layout, or only the content area for
// htmx requests.
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	name := "layout"
	if WantsPartial(r) {
		name = "content"
	}
	if err := h.T.Render(w, name, status, data); err != nil {
		h.renderError(w, r, errorPageParams{Err: err, Status: http.StatusInternalServerError})
	}
}

// errorPageParams groups the inputs of renderError.
type errorPageParams struct {
	Err     error
	Status  int
	Message string
}

// renderError logs err and renders the error page, falling back to plain text.
func (h *UIHandlers) renderError(w http.ResponseWriter, r *http.Request, p errorPageParams) {
	if p.Status == 0 {
		p.Status = http.StatusInternalServerError
	}
	if p.Message == "" {
		p.Message = "Something went wrong. Please try again."
	}
	if p.Err != nil {
		h.logger().ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Int("status", p.Status),
			slog.Any("error", p.Err),
		)
	}

	data := map[string]any{
		"Title":   http.StatusText(p.Status),
		"Status":  p.Status,
		"Message": p.Message,
	}
	if h.IsDev && p.Err != nil {
		data["Detail"] = p.Err.Error()
	}
	if err := h.T.Render(w, "error-layout", p.Status, data); err != nil {
		http.Error(w, p.Message, p.Status)
	}
}

// NotFound renders the not-found page for unmatched routes.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		http.NotFound(w, r)
		return
	}
	data := NewTemplateData(r, PageMeta{Title: "Knowlio - Not Found", PageTitle: "Page not found", CurrentPage: PageNotFound}).
		With("Path", r.URL.Path).
		Build()
	h.renderPage(w, r, http.StatusNotFound, data)
}
