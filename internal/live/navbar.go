package live

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/ports"
)

// NavState is what the navigation bar shows.
type NavState struct {
	SignedIn    bool
	DisplayName string
}

// DeriveNavState computes the navigation state for an optional session.
func DeriveNavState(sess *domainauth.Session) NavState {
	if sess == nil {
		return NavState{}
	}
	return NavState{SignedIn: true, DisplayName: domainauth.SessionDisplayName(sess)}
}

// NavBarOptions configures a NavBar.
type NavBarOptions struct {
	Key      string                // Required; client key of the view
	Sessions ports.SessionReader   // Required
	Bus      ports.EventSubscriber // Required
	// Push receives every state change, starting with the state read on mount.
	// It reports whether the state was delivered; undelivered states are
	// pushed again on the next re-check.
	Push func(NavState) bool
	// RecheckDelay schedules one extra re-read after a redirect sign-in
	// succeeds. Zero disables it.
	RecheckDelay time.Duration
	Logger       *slog.Logger
}

// NavBar re-derives the current user for one view on every applicable auth
// event and pushes the result when it changes.
type NavBar struct {
	opts   NavBarOptions
	logger *slog.Logger

	// checkMu orders re-checks so a slow read never lands after a newer one.
	checkMu sync.Mutex

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	sub     ports.Subscription
	mounted bool
	pushed  bool
	state   NavState
	timer   *time.Timer
}

// NewNavBar constructs a NavBar. Call Mount to start it.
func NewNavBar(opts NavBarOptions) *NavBar {
	if opts.Sessions == nil {
		panic("SessionReader is required")
	}
	if opts.Bus == nil {
		panic("EventSubscriber is required")
	}
	if opts.Push == nil {
		opts.Push = func(NavState) bool { return true }
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NavBar{opts: opts, logger: logger.With("component", "navbar")}
}

// Mount subscribes to the bus, then reads the session once and pushes the
// initial state. ctx bounds the view's lifetime.
func (n *NavBar) Mount(ctx context.Context) NavState {
	n.mu.Lock()
	if n.mounted {
		state := n.state
		n.mu.Unlock()
		return state
	}
	n.ctx, n.cancel = context.WithCancel(ctx)
	n.mounted = true
	n.mu.Unlock()

	sub := n.opts.Bus.Subscribe(n.handle)

	n.mu.Lock()
	n.sub = sub
	stillMounted := n.mounted
	n.mu.Unlock()
	if !stillMounted {
		n.opts.Bus.Unsubscribe(sub)
		return n.State()
	}
	return n.Recheck(ctx)
}

// Unmount unsubscribes and cancels any pending re-check. Safe to call more than once.
func (n *NavBar) Unmount() {
	n.mu.Lock()
	if !n.mounted {
		n.mu.Unlock()
		return
	}
	n.mounted = false
	sub := n.sub
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	cancel := n.cancel
	n.mu.Unlock()

	if sub != 0 {
		n.opts.Bus.Unsubscribe(sub)
	}
	if cancel != nil {
		cancel()
	}
}

// State returns the last delivered state.
func (n *NavBar) State() NavState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Recheck re-reads the session and pushes the state when it differs from
// the last delivered one. Overlapping calls run one at a time.
func (n *NavBar) Recheck(ctx context.Context) NavState {
	n.checkMu.Lock()
	defer n.checkMu.Unlock()

	sess, _ := n.opts.Sessions.Get(ctx, n.opts.Key)
	next := DeriveNavState(sess)

	n.mu.Lock()
	if !n.mounted || (n.pushed && next == n.state) {
		state := n.state
		n.mu.Unlock()
		return state
	}
	n.mu.Unlock()

	if !n.opts.Push(next) {
		n.logger.DebugContext(ctx, "nav push not delivered", "key", n.opts.Key)
		return n.State()
	}

	n.mu.Lock()
	n.state = next
	n.pushed = true
	n.mu.Unlock()
	return next
}

func (n *NavBar) handle(ctx context.Context, ev domainauth.Event) {
	if !ev.AppliesTo(n.opts.Key) {
		return
	}
	n.Recheck(ctx)
	if ev.Tag == domainauth.TagSignInSucceeded {
		n.scheduleRecheck()
	}
}

// scheduleRecheck arms one delayed re-read bound to the view's context.
func (n *NavBar) scheduleRecheck() {
	if n.opts.RecheckDelay <= 0 {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.mounted {
		return
	}
	if n.timer != nil {
		n.timer.Stop()
	}
	ctx := n.ctx
	n.timer = time.AfterFunc(n.opts.RecheckDelay, func() {
		if ctx.Err() != nil {
			return
		}
		n.logger.DebugContext(ctx, "delayed recheck", "key", n.opts.Key)
		n.Recheck(ctx)
	})
}
