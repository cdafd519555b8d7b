// Package live keeps connected browser views in sync with auth state.
//
// Each open tab holds a View registered on the Hub under its client key. The
// Hub delivers navigation instructions from the auth listener, and a NavBar
// per view re-renders the navigation fragment whenever the session changes.
package live

import (
	"context"
	"log/slog"
	"sync"

	"github.com/target/knowlio-web/internal/ports"
)

// Message kinds pushed to a view.
const (
	KindNav      = "nav"
	KindNavigate = "navigate"
)

// Message is one instruction for a connected view.
type Message struct {
	Kind string
	Data string
}

const defaultViewBuffer = 16

// View is a single connected browser tab.
type View struct {
	key  string
	out  chan Message
	once sync.Once
	done chan struct{}
}

// Key returns the client key the view is bound to.
func (v *View) Key() string { return v.key }

// Messages returns the outbound message stream.
func (v *View) Messages() <-chan Message { return v.out }

// Done is closed when the view is unregistered.
func (v *View) Done() <-chan struct{} { return v.done }

// Send queues msg without blocking. It reports false when the view is gone
// or its buffer is full.
func (v *View) Send(msg Message) bool {
	select {
	case <-v.done:
		return false
	default:
	}
	select {
	case v.out <- msg:
		return true
	default:
		return false
	}
}

func (v *View) close() {
	v.once.Do(func() { close(v.done) })
}

// HubOptions configures a Hub.
type HubOptions struct {
	Buffer int          // Optional; per-view queue size
	Logger *slog.Logger // Optional
}

// Hub tracks connected views by client key.
type Hub struct {
	mu     sync.RWMutex
	views  map[string]map[*View]struct{}
	buffer int
	logger *slog.Logger
}

var _ ports.Navigator = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub(opts HubOptions) *Hub {
	if opts.Buffer <= 0 {
		opts.Buffer = defaultViewBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		views:  make(map[string]map[*View]struct{}),
		buffer: opts.Buffer,
		logger: logger.With("component", "live_hub"),
	}
}

// Register adds a view for key.
func (h *Hub) Register(key string) *View {
	v := &View{key: key, out: make(chan Message, h.buffer), done: make(chan struct{})}
	h.mu.Lock()
	set, ok := h.views[key]
	if !ok {
		set = make(map[*View]struct{})
		h.views[key] = set
	}
	set[v] = struct{}{}
	h.mu.Unlock()
	return v
}

// Unregister removes v. Safe to call more than once.
func (h *Hub) Unregister(v *View) {
	if v == nil {
		return
	}
	h.mu.Lock()
	if set, ok := h.views[v.key]; ok {
		delete(set, v)
		if len(set) == 0 {
			delete(h.views, v.key)
		}
	}
	h.mu.Unlock()
	v.close()
}

// Len returns the number of connected views.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.views {
		n += len(set)
	}
	return n
}

// Navigate sends a navigate instruction to every view bound to scope, or to
// every view when scope is empty.
func (h *Hub) Navigate(ctx context.Context, scope, target string) {
	msg := Message{Kind: KindNavigate, Data: target}
	for _, v := range h.snapshot(scope) {
		if !v.Send(msg) {
			h.logger.WarnContext(ctx, "dropping navigation for slow view", "target", target)
		}
	}
}

func (h *Hub) snapshot(scope string) []*View {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*View
	for key, set := range h.views {
		if scope != "" && key != scope {
			continue
		}
		for v := range set {
			out = append(out, v)
		}
	}
	return out
}
