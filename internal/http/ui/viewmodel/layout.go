// Package viewmodel defines the typed data shared by page templates.
package viewmodel

// User represents the authenticated user context exposed to templates.
type User struct {
	DisplayName   string
	WelcomeName   string
	Email         string
	Identifier    string
	ProviderLabel string
}

// NavItem is one link in the navigation bar.
type NavItem struct {
	Label string
	Path  string
	Page  string
}

// Nav is the navigation bar state. The same value renders the initial page
// and every fragment pushed to a live view.
type Nav struct {
	SignedIn    bool
	DisplayName string
	CurrentPage string
	CSRFToken   string
	Items       []NavItem
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	CSRFToken       string
	IsAuthenticated bool
	User            *User
	Nav             Nav
}
