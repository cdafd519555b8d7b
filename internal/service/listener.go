package service

import (
	"context"
	"log/slog"
	"sync"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/ports"
)

// Canonical navigation targets for auth lifecycle transitions.
const (
	LandingPath   = "/"
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// TargetFor maps an event tag to its navigation target. ok is false for tags
// that carry no navigation side effect.
func TargetFor(tag domainauth.EventTag) (target string, ok bool) {
	switch tag {
	case domainauth.TagSignInSucceeded:
		return DashboardPath, true
	case domainauth.TagSignInFailed:
		return LoginPath, true
	case domainauth.TagSignedOut:
		return LandingPath, true
	default:
		return "", false
	}
}

// AuthListenerOptions groups dependencies for AuthListener.
type AuthListenerOptions struct {
	Bus       ports.EventSubscriber // Required
	Navigator ports.Navigator       // Required
	Logger    *slog.Logger          // Optional
}

// AuthListener turns auth events into navigation side effects. It holds no
// session state.
type AuthListener struct {
	bus       ports.EventSubscriber
	navigator ports.Navigator
	logger    *slog.Logger

	mu      sync.Mutex
	sub     ports.Subscription
	started bool
}

// NewAuthListener constructs an AuthListener. Call Start to subscribe.
func NewAuthListener(opts AuthListenerOptions) *AuthListener {
	if opts.Bus == nil {
		panic("EventSubscriber is required")
	}
	if opts.Navigator == nil {
		panic("Navigator is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthListener{
		bus:       opts.Bus,
		navigator: opts.Navigator,
		logger:    logger.With("component", "auth_listener"),
	}
}

// Start subscribes the listener. Repeated calls are no-ops.
func (l *AuthListener) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return
	}
	l.sub = l.bus.Subscribe(l.Handle)
	l.started = true
}

// Stop unsubscribes the listener. Repeated calls are no-ops.
func (l *AuthListener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.started {
		return
	}
	l.bus.Unsubscribe(l.sub)
	l.started = false
}

// Handle reacts to a single event.
func (l *AuthListener) Handle(ctx context.Context, ev domainauth.Event) {
	target, ok := TargetFor(ev.Tag)
	if !ok {
		l.logger.DebugContext(ctx, "auth event",
			"tag", string(ev.Tag),
			"scope", ev.Scope,
			"payload", ev.Payload,
		)
		return
	}
	l.logger.InfoContext(ctx, "auth navigation",
		"tag", string(ev.Tag),
		"scope", ev.Scope,
		"target", target,
	)
	l.navigator.Navigate(ctx, ev.Scope, target)
}
