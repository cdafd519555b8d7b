package httpx

import (
	"github.com/target/knowlio-web/internal/http/ui/viewmodel"
	"github.com/target/knowlio-web/internal/service"
)

// CurrentPage constants identify pages in templates and navigation.
const (
	PageHome               = "home"
	PageAbout              = "about"
	PageContact            = "contact"
	PageLogin              = "login"
	PageDashboard          = "dashboard"
	PagePublisherDashboard = "publisher-dashboard"
	PageTestAuth           = "test-auth"
	PageNotFound           = "not-found"
)

// Route paths.
const (
	HomePath               = service.LandingPath
	AboutPath              = "/about"
	ContactPath            = "/contact"
	LoginPath              = service.LoginPath
	DashboardPath          = service.DashboardPath
	PublisherDashboardPath = "/publisher-dashboard"
	TestAuthPath           = "/test-auth"
	LivePath               = "/live"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"
	TemplatePathFromTest = "../../frontend/templates"
)

// Template names rendered outside the page layout.
const (
	navTemplate = "nav"
)

//nolint:gochecknoglobals // static read-only lookup
var contentTemplates = map[string]string{
	PageHome:               "home-content",
	PageAbout:              "about-content",
	PageContact:            "contact-content",
	PageLogin:              "login-content",
	PageDashboard:          "dashboard-content",
	PagePublisherDashboard: "publisher-dashboard-content",
	PageTestAuth:           "test-auth-content",
	PageNotFound:           "not-found-content",
}

// navItems are the navigation links shown to every visitor.
//
//nolint:gochecknoglobals // static read-only list
var navItems = []viewmodel.NavItem{
	{Label: "Home", Path: HomePath, Page: PageHome},
	{Label: "About", Path: AboutPath, Page: PageAbout},
	{Label: "Contact", Path: ContactPath, Page: PageContact},
	{Label: "Test Auth", Path: TestAuthPath, Page: PageTestAuth},
	{Label: "Publisher Dashboard", Path: PublisherDashboardPath, Page: PagePublisherDashboard},
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to not-found-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "not-found-content"
}
