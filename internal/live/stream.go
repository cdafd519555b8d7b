package live

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/target/knowlio-web/internal/ports"
)

const defaultHeartbeat = 25 * time.Second

// ViewObserver is told when live views open and close. open is the number of
// views connected after the change.
type ViewObserver interface {
	ViewOpened(open int)
	ViewClosed(open int, lifetime time.Duration)
}

// StreamHandlerOptions configures the live view endpoint.
type StreamHandlerOptions struct {
	Hub      *Hub                  // Required
	Sessions ports.SessionReader   // Required
	Bus      ports.EventSubscriber // Required
	// ClientKey resolves the requesting browser's client key.
	ClientKey func(*http.Request) string // Required
	// RenderNav renders the navigation fragment for a state on behalf of r.
	RenderNav    func(r *http.Request, state NavState) (string, error) // Required
	RecheckDelay time.Duration
	Heartbeat    time.Duration
	Observer     ViewObserver // Optional
	Logger       *slog.Logger
}

// StreamHandler serves GET /live as a Server-Sent Events stream. Each
// connection is one view: it mounts a NavBar and relays hub messages.
type StreamHandler struct {
	opts   StreamHandlerOptions
	logger *slog.Logger
}

// NewStreamHandler constructs a StreamHandler.
func NewStreamHandler(opts StreamHandlerOptions) *StreamHandler {
	if opts.Hub == nil || opts.Sessions == nil || opts.Bus == nil {
		panic("live: Hub, Sessions and Bus are required")
	}
	if opts.ClientKey == nil || opts.RenderNav == nil {
		panic("live: ClientKey and RenderNav are required")
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = defaultHeartbeat
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{opts: opts, logger: logger.With("component", "live_stream")}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := h.opts.ClientKey(r)
	if key == "" {
		http.Error(w, "missing client key", http.StatusBadRequest)
		return
	}
	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.DebugContext(r.Context(), "clear write deadline", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.WarnContext(r.Context(), "streaming unsupported", "error", err)
		return
	}

	ctx := r.Context()
	view := h.opts.Hub.Register(key)
	opened := time.Now()
	if h.opts.Observer != nil {
		h.opts.Observer.ViewOpened(h.opts.Hub.Len())
	}
	defer func() {
		h.opts.Hub.Unregister(view)
		if h.opts.Observer != nil {
			h.opts.Observer.ViewClosed(h.opts.Hub.Len(), time.Since(opened))
		}
	}()

	nav := NewNavBar(NavBarOptions{
		Key:          key,
		Sessions:     h.opts.Sessions,
		Bus:          h.opts.Bus,
		RecheckDelay: h.opts.RecheckDelay,
		Logger:       h.logger,
		Push: func(state NavState) bool {
			html, err := h.opts.RenderNav(r, state)
			if err != nil {
				h.logger.ErrorContext(ctx, "render nav failed", "error", err)
				return false
			}
			return view.Send(Message{Kind: KindNav, Data: html})
		},
	})
	nav.Mount(ctx)
	defer nav.Unmount()

	ticker := time.NewTicker(h.opts.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-view.Done():
			return
		case msg := <-view.Messages():
			if err := WriteEvent(w, msg); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// WriteEvent writes msg in SSE wire format. Multi-line data is split across
// data fields.
func WriteEvent(w io.Writer, msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", msg.Kind)
	for _, line := range strings.Split(msg.Data, "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimRight(line, "\r"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}
