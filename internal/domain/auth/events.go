package auth

import (
	"fmt"
	"strings"
	"time"
)

// Channel is the bus channel carrying auth lifecycle events.
const Channel = "auth"

// EventTag names an auth lifecycle transition.
type EventTag string

const (
	TagSignInInitiated EventTag = "sign-in-initiated"
	TagSignInSucceeded EventTag = "sign-in-succeeded"
	TagSignInFailed    EventTag = "sign-in-failed"
	TagSignedIn        EventTag = "signed-in"
	TagSignedOut       EventTag = "signed-out"
	TagCustomState     EventTag = "custom-state"
)

// EventTags lists every known tag in lifecycle order.
func EventTags() []EventTag {
	return []EventTag{
		TagSignInInitiated,
		TagSignInSucceeded,
		TagSignInFailed,
		TagSignedIn,
		TagSignedOut,
		TagCustomState,
	}
}

// ParseEventTag validates s as a known tag.
func ParseEventTag(s string) (EventTag, error) {
	v := EventTag(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range EventTags() {
		if t == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid event tag: %q", s)
}

// Event is one auth lifecycle notification. Events are not persisted.
type Event struct {
	Tag EventTag `json:"tag"`
	// Scope is the client key the event concerns; empty means every client.
	Scope string `json:"scope,omitempty"`
	// Origin is the relaying instance ID; empty for locally published events.
	Origin     string            `json:"origin,omitempty"`
	Payload    map[string]string `json:"payload,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NewEvent builds an event stamped with the current time.
func NewEvent(tag EventTag, scope string, payload map[string]string) Event {
	return Event{Tag: tag, Scope: scope, Payload: payload, OccurredAt: time.Now().UTC()}
}

// AppliesTo reports whether a view bound to clientKey should observe e.
func (e Event) AppliesTo(clientKey string) bool {
	return e.Scope == "" || e.Scope == clientKey
}

// IsLocal reports whether the event was published in this process.
func (e Event) IsLocal() bool { return e.Origin == "" }
