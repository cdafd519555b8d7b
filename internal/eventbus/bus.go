// Package eventbus provides the in-process publish/subscribe channel for auth
// lifecycle events.
//
// Publish is synchronous: handlers run in subscription order on the
// publisher's goroutine. A handler that panics is logged and skipped; the
// remaining handlers still run.
package eventbus

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/ports"
)

type subscription struct {
	id      ports.Subscription
	handler ports.EventHandler
	active  atomic.Bool
}

// Bus is a goroutine-safe synchronous event bus.
type Bus struct {
	mu      sync.Mutex
	subs    []*subscription
	nextID  ports.Subscription
	closed  bool
	channel string
	logger  *slog.Logger
}

// Options configures a Bus.
type Options struct {
	// Channel names the bus; defaults to the auth channel.
	Channel string
	Logger  *slog.Logger
}

// New creates an empty bus.
func New(opts Options) *Bus {
	if opts.Channel == "" {
		opts.Channel = domainauth.Channel
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		channel: opts.Channel,
		logger:  logger.With("component", "eventbus", "channel", opts.Channel),
	}
}

// Channel returns the bus name.
func (b *Bus) Channel() string { return b.channel }

// Subscribe registers h for every future event. Subscribing to a closed bus
// returns a token that never fires.
func (b *Bus) Subscribe(h ports.EventHandler) ports.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.closed || h == nil {
		return id
	}

	s := &subscription{id: id, handler: h}
	s.active.Store(true)
	b.subs = append(b.subs, s)
	return id
}

// Unsubscribe removes the handler. It is idempotent and safe to call from
// inside a handler; the removed handler is skipped for the remainder of an
// in-flight publish if the bus has not reached it yet.
func (b *Bus) Unsubscribe(id ports.Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			s.active.Store(false)
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to all current subscribers in subscription order.
func (b *Bus) Publish(ctx context.Context, ev domainauth.Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	snapshot := make([]*subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	for _, s := range snapshot {
		if !s.active.Load() {
			continue
		}
		b.dispatch(ctx, s, ev)
	}
}

func (b *Bus) dispatch(ctx context.Context, s *subscription, ev domainauth.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "event handler panicked",
				"subscription", uint64(s.id),
				"tag", string(ev.Tag),
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.handler(ctx, ev)
}

// Len returns the number of active subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close drops every subscription; later publishes are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.subs {
		s.active.Store(false)
	}
	b.subs = nil
	b.closed = true
}

var _ ports.EventBus = (*Bus)(nil)
