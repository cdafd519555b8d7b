package live

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/knowlio-web/internal/adapters/memory"
	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/eventbus"
	"github.com/target/knowlio-web/internal/ports"
	"github.com/target/knowlio-web/internal/service"
	"github.com/target/knowlio-web/internal/testutil"
)

type pushRecorder struct {
	mu     sync.Mutex
	reject bool
	states []NavState
}

// push records delivered states; while reject is set nothing is delivered.
func (p *pushRecorder) push(s NavState) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject {
		return false
	}
	p.states = append(p.states, s)
	return true
}

func (p *pushRecorder) setReject(v bool) {
	p.mu.Lock()
	p.reject = v
	p.mu.Unlock()
}

func (p *pushRecorder) all() []NavState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]NavState(nil), p.states...)
}

type navFixture struct {
	bus      *eventbus.Bus
	sessions *service.SessionService
	pushes   *pushRecorder
	nav      *NavBar
}

func newNavFixture(t *testing.T, delay time.Duration) navFixture {
	t.Helper()
	return newNavFixtureWithReader(t, delay, nil)
}

// newNavFixtureWithReader lets wrap intercept session reads; nil reads directly.
func newNavFixtureWithReader(t *testing.T, delay time.Duration, wrap func(ports.SessionReader) ports.SessionReader) navFixture {
	t.Helper()
	bus := eventbus.New(eventbus.Options{})
	sessions := service.NewSessionService(service.SessionServiceOptions{
		Stores: service.SessionStores{
			Sessions:  memory.NewSessionStore(),
			Overrides: memory.NewOverrideStore(time.Hour),
		},
	})
	var reader ports.SessionReader = sessions
	if wrap != nil {
		reader = wrap(sessions)
	}
	pushes := &pushRecorder{}
	nav := NewNavBar(NavBarOptions{
		Key:          "k",
		Sessions:     reader,
		Bus:          bus,
		Push:         pushes.push,
		RecheckDelay: delay,
	})
	t.Cleanup(nav.Unmount)
	return navFixture{bus: bus, sessions: sessions, pushes: pushes, nav: nav}
}

func TestNavBar_MountPushesInitialState(t *testing.T) {
	f := newNavFixture(t, 0)
	state := f.nav.Mount(context.Background())

	assert.Equal(t, NavState{}, state)
	assert.Equal(t, []NavState{{}}, f.pushes.all())
	assert.Equal(t, 1, f.bus.Len())
}

func TestNavBar_SignedInShowsFirstName(t *testing.T) {
	ctx := context.Background()
	f := newNavFixture(t, 0)
	f.nav.Mount(ctx)

	sess := testutil.NewSession("k").
		WithIdentifier("jane@example.com").
		WithAttr(domainauth.AttrName, "Jane Doe").
		Build()
	require.NoError(t, f.sessions.Set(ctx, "k", sess))
	f.bus.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedIn, "k", nil))

	assert.Equal(t, NavState{SignedIn: true, DisplayName: "Jane"}, f.nav.State())
}

func TestNavBar_NoAttributesFallsBack(t *testing.T) {
	ctx := context.Background()
	f := newNavFixture(t, 0)
	f.nav.Mount(ctx)

	require.NoError(t, f.sessions.Set(ctx, "k", testutil.NewSession("k").WithIdentifier("jane@example.com").Build()))
	f.bus.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedIn, "k", nil))

	assert.Equal(t, NavState{SignedIn: true, DisplayName: "User"}, f.nav.State())
}

func TestNavBar_SignedOutReverts(t *testing.T) {
	ctx := context.Background()
	f := newNavFixture(t, 0)
	require.NoError(t, f.sessions.Set(ctx, "k", testutil.NewSession("k").WithAttr(domainauth.AttrName, "Jane").Build()))
	f.nav.Mount(ctx)
	require.True(t, f.nav.State().SignedIn)

	require.NoError(t, f.sessions.Clear(ctx, "k"))
	f.bus.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedOut, "k", nil))

	assert.Equal(t, NavState{}, f.nav.State())
}

func TestNavBar_DuplicateEventsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newNavFixture(t, 0)
	f.nav.Mount(ctx)
	require.NoError(t, f.sessions.Set(ctx, "k", testutil.NewSession("k").WithAttr(domainauth.AttrName, "Jane Doe").Build()))

	f.bus.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedIn, "k", nil))
	once := f.nav.State()
	f.bus.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedIn, "k", nil))

	assert.Equal(t, once, f.nav.State())
	assert.Len(t, f.pushes.all(), 2, "initial state plus one change")
}

func TestNavBar_IgnoresOtherScopes(t *testing.T) {
	ctx := context.Background()
	f := newNavFixture(t, 0)
	f.nav.Mount(ctx)
	require.NoError(t, f.sessions.Set(ctx, "other", testutil.NewSession("other").Build()))

	f.bus.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedIn, "other", nil))
	assert.Len(t, f.pushes.all(), 1)
}

func TestNavBar_DelayedRecheckAfterRedirect(t *testing.T) {
	ctx := context.Background()
	f := newNavFixture(t, 20*time.Millisecond)
	f.nav.Mount(ctx)

	// The event arrives before the session lands.
	f.bus.Publish(ctx, domainauth.NewEvent(domainauth.TagSignInSucceeded, "k", nil))
	require.False(t, f.nav.State().SignedIn)
	require.NoError(t, f.sessions.Set(ctx, "k", testutil.NewSession("k").WithAttr(domainauth.AttrName, "Jane").Build()))

	assert.Eventually(t, func() bool { return f.nav.State().SignedIn }, time.Second, 5*time.Millisecond)
}

func TestNavBar_UnmountCancelsRecheck(t *testing.T) {
	ctx := context.Background()
	f := newNavFixture(t, 20*time.Millisecond)
	f.nav.Mount(ctx)

	f.bus.Publish(ctx, domainauth.NewEvent(domainauth.TagSignInSucceeded, "k", nil))
	f.nav.Unmount()
	require.NoError(t, f.sessions.Set(ctx, "k", testutil.NewSession("k").Build()))

	time.Sleep(60 * time.Millisecond)
	assert.Len(t, f.pushes.all(), 1)
	assert.Equal(t, 0, f.bus.Len())

	f.bus.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedIn, "k", nil))
	assert.Len(t, f.pushes.all(), 1, "no pushes after unmount")
}

// gatedReader holds the nth session read open until gate is closed. The
// result is taken before blocking, so the held read carries the old session.
type gatedReader struct {
	inner   ports.SessionReader
	holdAt  int
	entered chan struct{}
	gate    chan struct{}
	onRead  func(call int)

	mu    sync.Mutex
	calls int
}

func newGatedReader(inner ports.SessionReader, holdAt int) *gatedReader {
	return &gatedReader{inner: inner, holdAt: holdAt, entered: make(chan struct{}), gate: make(chan struct{})}
}

func (g *gatedReader) Get(ctx context.Context, key string) (*domainauth.Session, bool) {
	g.mu.Lock()
	g.calls++
	call := g.calls
	g.mu.Unlock()
	if g.onRead != nil {
		g.onRead(call)
	}
	sess, ok := g.inner.Get(ctx, key)
	if call == g.holdAt {
		close(g.entered)
		<-g.gate
	}
	return sess, ok
}

func TestNavBar_SlowRecheckDoesNotOverwriteSignOut(t *testing.T) {
	ctx := context.Background()
	var reader *gatedReader
	f := newNavFixtureWithReader(t, 0, func(inner ports.SessionReader) ports.SessionReader {
		reader = newGatedReader(inner, 2)
		return reader
	})
	require.NoError(t, f.sessions.Set(ctx, "k", testutil.NewSession("k").WithAttr(domainauth.AttrName, "Jane").Build()))
	f.nav.Mount(ctx)
	require.True(t, f.nav.State().SignedIn)

	// A delayed re-check reads the signed-in session and stalls.
	slow := make(chan struct{})
	go func() {
		defer close(slow)
		f.nav.Recheck(ctx)
	}()
	<-reader.entered

	require.NoError(t, f.sessions.Clear(ctx, "k"))
	published := make(chan struct{})
	go func() {
		defer close(published)
		f.bus.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedOut, "k", nil))
	}()

	close(reader.gate)
	<-slow
	<-published

	assert.Equal(t, NavState{}, f.nav.State())
	pushes := f.pushes.all()
	require.NotEmpty(t, pushes)
	assert.Equal(t, NavState{}, pushes[len(pushes)-1], "last delivered state is signed out")
}

func TestNavBar_UndeliveredPushIsRetried(t *testing.T) {
	ctx := context.Background()
	f := newNavFixture(t, 0)
	f.nav.Mount(ctx)
	require.NoError(t, f.sessions.Set(ctx, "k", testutil.NewSession("k").WithAttr(domainauth.AttrName, "Jane").Build()))

	f.pushes.setReject(true)
	f.bus.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedIn, "k", nil))
	assert.False(t, f.nav.State().SignedIn, "undelivered state is not committed")

	f.pushes.setReject(false)
	f.bus.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedIn, "k", nil))

	assert.Equal(t, NavState{SignedIn: true, DisplayName: "Jane"}, f.nav.State())
	assert.Equal(t, []NavState{{}, {SignedIn: true, DisplayName: "Jane"}}, f.pushes.all())
}

func TestNavBar_FullViewBufferRetriesOnNextEvent(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(HubOptions{Buffer: 1})
	view := hub.Register("k")
	t.Cleanup(func() { hub.Unregister(view) })

	bus := eventbus.New(eventbus.Options{})
	sessions := service.NewSessionService(service.SessionServiceOptions{
		Stores: service.SessionStores{
			Sessions:  memory.NewSessionStore(),
			Overrides: memory.NewOverrideStore(time.Hour),
		},
	})
	nav := NewNavBar(NavBarOptions{
		Key:      "k",
		Sessions: sessions,
		Bus:      bus,
		Push: func(s NavState) bool {
			return view.Send(Message{Kind: KindNav, Data: s.DisplayName})
		},
	})
	t.Cleanup(nav.Unmount)
	nav.Mount(ctx)

	// The initial state fills the only slot.
	require.NoError(t, sessions.Set(ctx, "k", testutil.NewSession("k").WithAttr(domainauth.AttrName, "Jane").Build()))
	bus.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedIn, "k", nil))
	assert.False(t, nav.State().SignedIn)

	assert.Equal(t, Message{Kind: KindNav, Data: ""}, <-view.Messages())
	bus.Publish(ctx, domainauth.NewEvent(domainauth.TagSignedIn, "k", nil))

	assert.True(t, nav.State().SignedIn)
	select {
	case msg := <-view.Messages():
		assert.Equal(t, Message{Kind: KindNav, Data: "Jane"}, msg)
	default:
		t.Fatal("signed-in nav was not resent")
	}
}

func TestNavBar_MountSubscribesBeforeFirstRead(t *testing.T) {
	ctx := context.Background()
	var reader *gatedReader
	subscribed := -1
	f := newNavFixtureWithReader(t, 0, func(inner ports.SessionReader) ports.SessionReader {
		reader = newGatedReader(inner, 0)
		return reader
	})
	reader.onRead = func(call int) {
		if call == 1 {
			subscribed = f.bus.Len()
		}
	}

	f.nav.Mount(ctx)
	assert.Equal(t, 1, subscribed, "bus subscription exists when the initial read runs")
}

func TestDeriveNavState(t *testing.T) {
	assert.Equal(t, NavState{}, DeriveNavState(nil))
	sess := testutil.NewSession("k").WithAttr(domainauth.AttrGivenName, "Sam").Build()
	assert.Equal(t, NavState{SignedIn: true, DisplayName: "Sam"}, DeriveNavState(&sess))
}
