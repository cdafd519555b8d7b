package ports

import (
	"context"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
)

// EventHandler receives auth events synchronously on the publisher's goroutine.
type EventHandler func(ctx context.Context, ev domainauth.Event)

// Subscription identifies a registered handler.
type Subscription uint64

// EventPublisher publishes auth lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, ev domainauth.Event)
}

// EventSubscriber registers and removes event handlers.
type EventSubscriber interface {
	Subscribe(h EventHandler) Subscription
	Unsubscribe(sub Subscription)
}

// EventBus is a publish/subscribe channel.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// Navigator delivers navigation side effects to the views bound to scope.
// An empty scope targets every connected view.
type Navigator interface {
	Navigate(ctx context.Context, scope, target string)
}
