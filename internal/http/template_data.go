package httpx

import (
	"net/http"
	"slices"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/http/ui/viewmodel"
	"github.com/target/knowlio-web/internal/live"
)

// PageMeta names a page and its titles.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// buildNav derives the navigation bar from the live nav state. Page renders
// and live pushes share it so the first paint matches later updates.
func buildNav(r *http.Request, state live.NavState, currentPage string) viewmodel.Nav {
	return viewmodel.Nav{
		SignedIn:    state.SignedIn,
		DisplayName: state.DisplayName,
		CurrentPage: currentPage,
		CSRFToken:   GetCSRFToken(r),
		Items:       slices.Clone(navItems),
	}
}

// buildUser exposes the session to templates.
func buildUser(s *domainauth.Session) *viewmodel.User {
	return &viewmodel.User{
		DisplayName:   domainauth.SessionDisplayName(s),
		WelcomeName:   domainauth.WelcomeName(s.Attributes),
		Email:         s.Email(),
		Identifier:    s.Identifier,
		ProviderLabel: s.Provider.Label(),
	}
}

// buildLayout constructs shared layout metadata from the request/session context.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CSRFToken:   GetCSRFToken(r),
	}

	session, ok := GetSessionFromContext(r.Context())
	if ok {
		layout.User = buildUser(session)
		layout.IsAuthenticated = true
	}
	layout.Nav = buildNav(r, live.DeriveNavState(session), meta.CurrentPage)
	return layout
}

// basePageData constructs the common page data map with user context.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	layout := buildLayout(r, meta)
	data := map[string]any{
		"Title":           layout.Title,
		"PageTitle":       layout.PageTitle,
		"CurrentPage":     layout.CurrentPage,
		"IsAuthenticated": layout.IsAuthenticated,
		"Nav":             layout.Nav,
	}
	if layout.CSRFToken != "" {
		data["CSRFToken"] = layout.CSRFToken
	}
	if layout.User != nil {
		data["User"] = layout.User
	}
	return data
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{data: basePageData(r, meta)}
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	if msg != "" {
		b.data["Error"] = true
		b.data["ErrorMessage"] = msg
	}
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// WithToast sets a one-shot success message.
func (b *TemplateDataBuilder) WithToast(msg string) *TemplateDataBuilder {
	if msg != "" {
		b.data["Toast"] = msg
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
