// Package metrics turns auth lifecycle events and live view activity into
// StatsD metrics.
package metrics

import (
	"context"
	"time"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/live"
	"github.com/target/knowlio-web/internal/observability/statsd"
)

// Origin tag values.
const (
	OriginLocal   = "local"
	OriginRelayed = "relayed"
)

// Recorder emits auth and live view metrics to a sink. A nil sink is a no-op.
type Recorder struct {
	sink statsd.Sink
}

var _ live.ViewObserver = (*Recorder)(nil)

// NewRecorder builds a Recorder over sink.
func NewRecorder(sink statsd.Sink) *Recorder {
	return &Recorder{sink: sink}
}

// HandleEvent counts one auth event. It has the bus handler signature so the
// recorder can be subscribed directly.
func (r *Recorder) HandleEvent(_ context.Context, ev domainauth.Event) {
	if r == nil || r.sink == nil {
		return
	}

	tags := map[string]string{
		"tag":    string(ev.Tag),
		"origin": OriginLocal,
		"scope":  "client",
	}
	if !ev.IsLocal() {
		tags["origin"] = OriginRelayed
	}
	if ev.Scope == "" {
		tags["scope"] = "broadcast"
	}
	if ev.Payload["simulated"] == "true" {
		tags["simulated"] = "true"
	}
	if p := ev.Payload["provider"]; p != "" {
		tags["provider"] = p
	}
	if class := ev.Payload["error_class"]; class != "" && ev.Tag == domainauth.TagSignInFailed {
		tags["error_class"] = class
	}

	r.sink.Count("auth.event", 1, tags)
}

// ViewOpened records a new live view.
func (r *Recorder) ViewOpened(open int) {
	if r == nil || r.sink == nil {
		return
	}
	r.sink.Count("live.view.opened", 1, nil)
	r.sink.Gauge("live.views", float64(open), nil)
}

// ViewClosed records a closed live view and how long it stayed connected.
func (r *Recorder) ViewClosed(open int, lifetime time.Duration) {
	if r == nil || r.sink == nil {
		return
	}
	r.sink.Gauge("live.views", float64(open), nil)
	if lifetime > 0 {
		r.sink.Timing("live.view.lifetime", lifetime, nil)
	}
}
