package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/ports"
)

const defaultRelayBuffer = 256

// EventRelayOptions configures an EventRelay.
type EventRelayOptions struct {
	Client  redis.UniversalClient
	Bus     ports.EventBus
	Channel string
	// InstanceID stamps outgoing events; defaults to a random UUID.
	InstanceID string
	Buffer     int
	Logger     *slog.Logger
}

// EventRelay bridges the local bus and a Redis pub/sub channel so that every
// instance observes events published on any other instance.
//
// Only locally published events are forwarded. Remote events are republished
// locally with their Origin set, which keeps them from bouncing back.
type EventRelay struct {
	client     redis.UniversalClient
	bus        ports.EventBus
	channel    string
	instanceID string
	outbox     chan domainauth.Event
	logger     *slog.Logger
}

// NewEventRelay creates a relay. Call Run to start it.
func NewEventRelay(opts EventRelayOptions) (*EventRelay, error) {
	if opts.Client == nil || opts.Bus == nil {
		return nil, errors.New("event relay requires a redis client and a bus")
	}
	if opts.Channel == "" {
		return nil, errors.New("event relay requires a channel")
	}
	if opts.InstanceID == "" {
		opts.InstanceID = uuid.NewString()
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultRelayBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EventRelay{
		client:     opts.Client,
		bus:        opts.Bus,
		channel:    opts.Channel,
		instanceID: opts.InstanceID,
		outbox:     make(chan domainauth.Event, opts.Buffer),
		logger:     logger.With("component", "event_relay", "channel", opts.Channel),
	}, nil
}

// InstanceID returns the origin stamped on forwarded events.
func (r *EventRelay) InstanceID() string { return r.instanceID }

// Run forwards events in both directions until ctx is canceled.
func (r *EventRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			r.logger.Warn("close pubsub", "error", err)
		}
	}()

	// Wait for the subscription to be confirmed before accepting local events.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	sub := r.bus.Subscribe(r.enqueue)
	defer r.bus.Unsubscribe(sub)

	r.logger.Info("event relay started", "instance_id", r.instanceID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.forward(gctx) })
	g.Go(func() error { return r.replay(gctx, pubsub.Channel()) })

	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (r *EventRelay) enqueue(_ context.Context, ev domainauth.Event) {
	if !ev.IsLocal() {
		return
	}
	select {
	case r.outbox <- ev:
	default:
		r.logger.Warn("relay outbox full, dropping event", "tag", string(ev.Tag))
	}
}

func (r *EventRelay) forward(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-r.outbox:
			ev.Origin = r.instanceID
			if err := PublishEvent(ctx, r.client, r.channel, ev); err != nil {
				r.logger.Warn("relay publish failed", "tag", string(ev.Tag), "error", err)
			}
		}
	}
}

func (r *EventRelay) replay(ctx context.Context, msgs <-chan *redis.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("relay subscription closed")
			}
			ev, err := DecodeEvent([]byte(msg.Payload))
			if err != nil {
				r.logger.Warn("relay dropped malformed event", "error", err)
				continue
			}
			if ev.Origin == r.instanceID {
				continue
			}
			if ev.Origin == "" {
				ev.Origin = "external"
			}
			r.bus.Publish(ctx, ev)
		}
	}
}

// PublishEvent writes ev to a relay channel. Used by the relay itself and by
// the admin CLI, which sets its own Origin.
func PublishEvent(ctx context.Context, client redis.UniversalClient, channel string, ev domainauth.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// DecodeEvent parses a relayed event and validates its tag.
func DecodeEvent(data []byte) (domainauth.Event, error) {
	var ev domainauth.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return domainauth.Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	tag, err := domainauth.ParseEventTag(string(ev.Tag))
	if err != nil {
		return domainauth.Event{}, err
	}
	ev.Tag = tag
	return ev, nil
}
