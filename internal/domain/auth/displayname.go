package auth

import "strings"

// FallbackDisplayName is shown when no attribute yields a name.
const FallbackDisplayName = "User"

// NameStrategy derives a display name from attributes; ok is false on no match.
type NameStrategy func(Attributes) (name string, ok bool)

// DisplayNameStrategies is the lookup order used by DisplayName.
// The session identifier is deliberately not consulted.
var DisplayNameStrategies = []NameStrategy{
	FirstWordOfName,
	EmailLocalPart,
	GivenName,
}

// FirstWordOfName returns the first whitespace-separated word of the name attribute.
func FirstWordOfName(a Attributes) (string, bool) {
	fields := strings.Fields(a.Get(AttrName))
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

// EmailLocalPart returns the part of the email attribute before "@".
func EmailLocalPart(a Attributes) (string, bool) {
	email := a.Get(AttrEmail)
	local, _, _ := strings.Cut(email, "@")
	local = strings.TrimSpace(local)
	if local == "" {
		return "", false
	}
	return local, true
}

// GivenName returns the given_name attribute.
func GivenName(a Attributes) (string, bool) {
	g := a.Get(AttrGivenName)
	return g, g != ""
}

// FullName returns the whole name attribute.
func FullName(a Attributes) (string, bool) {
	n := strings.Join(strings.Fields(a.Get(AttrName)), " ")
	return n, n != ""
}

// WelcomeNameStrategies is the lookup order for the dashboard greeting.
var WelcomeNameStrategies = []NameStrategy{
	FullName,
	EmailLocalPart,
}

// Resolve evaluates strategies in order and falls back to FallbackDisplayName.
func Resolve(a Attributes, strategies []NameStrategy) string {
	for _, s := range strategies {
		if name, ok := s(a); ok {
			return name
		}
	}
	return FallbackDisplayName
}

// DisplayName evaluates DisplayNameStrategies in order and falls back to
// FallbackDisplayName.
func DisplayName(a Attributes) string {
	return Resolve(a, DisplayNameStrategies)
}

// WelcomeName is the dashboard greeting name: full name, then email local part.
func WelcomeName(a Attributes) string {
	return Resolve(a, WelcomeNameStrategies)
}

// SessionDisplayName is DisplayName for an optional session.
func SessionDisplayName(s *Session) string {
	if s == nil {
		return FallbackDisplayName
	}
	return DisplayName(s.Attributes)
}
