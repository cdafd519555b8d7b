package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/domain/model"
	apperrors "github.com/target/knowlio-web/internal/errors"
	"github.com/target/knowlio-web/internal/service"
)

var errContentMissing = apperrors.NotFound("content item not found")

// RequireTemplateRenderer creates a TemplateRenderer for tests, skipping the test if templates are not available.
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
	})
	if err != nil {
		t.Skipf("Templates not available, skipping: %v", err)
		return nil
	}
	return tr
}

// ContainsAll checks if a string contains all the given substrings.
func ContainsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// testSession builds a signed-in session for Jane Doe.
func testSession() *domainauth.Session {
	return &domainauth.Session{
		ID:         "client-1",
		Identifier: "jane@example.com",
		Attributes: domainauth.Attributes{
			domainauth.AttrName:  "Jane Doe",
			domainauth.AttrEmail: "jane@example.com",
		},
		Provider:  domainauth.ProviderEmail,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// withClientKey attaches a client key (and optionally a session) the way the
// middleware chain would.
func withClientKey(r *http.Request, key string, sess *domainauth.Session) *http.Request {
	ctx := SetClientKeyInContext(r.Context(), key)
	ctx = SetSessionInContext(ctx, sess)
	return r.WithContext(ctx)
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// mapSessions is an in-memory ports.SessionReader.
type mapSessions struct {
	mu       sync.Mutex
	sessions map[string]*domainauth.Session
}

func newMapSessions() *mapSessions {
	return &mapSessions{sessions: map[string]*domainauth.Session{}}
}

func (m *mapSessions) Get(_ context.Context, key string) (*domainauth.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	return s, ok
}

func (m *mapSessions) put(key string, s *domainauth.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[key] = s
}

// plainCodec is a ClientKeyCodec with readable tokens.
type plainCodec struct{}

func (plainCodec) Issue(key string) (string, error) { return "tok." + key, nil }

func (plainCodec) Parse(token string) (string, error) {
	key, ok := strings.CutPrefix(token, "tok.")
	if !ok || key == "" {
		return "", errors.New("invalid token")
	}
	return key, nil
}

func (plainCodec) TTL() time.Duration { return time.Hour }

// publishedEvent records a PublishTestEvent call.
type publishedEvent struct {
	Key     string
	Tag     domainauth.EventTag
	Payload map[string]string
}

// stubAuth implements AuthServiceInterface. Nil funcs succeed.
type stubAuth struct {
	sessions *mapSessions

	BeginFunc    func(ctx context.Context, in service.BeginLoginInput) (*service.BeginLoginResult, error)
	CompleteFunc func(ctx context.Context, in service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	SignInFunc   func(ctx context.Context, in service.SignInInput) (*domainauth.Session, error)
	SignUpFunc   func(ctx context.Context, in service.SignUpInput) error
	ConfirmFunc  func(ctx context.Context, email, code string) error
	SignOutFunc  func(ctx context.Context, key string) error

	mu        sync.Mutex
	completes []service.CompleteLoginInput
	begins    []service.BeginLoginInput
	signOuts  []string
	simulated []string
	published []publishedEvent
}

var _ AuthServiceInterface = (*stubAuth)(nil)

func newStubAuth() *stubAuth {
	return &stubAuth{sessions: newMapSessions()}
}

func (s *stubAuth) Session(ctx context.Context, key string) (*domainauth.Session, bool) {
	return s.sessions.Get(ctx, key)
}

func (s *stubAuth) BeginLogin(ctx context.Context, in service.BeginLoginInput) (*service.BeginLoginResult, error) {
	s.mu.Lock()
	s.begins = append(s.begins, in)
	s.mu.Unlock()
	if s.BeginFunc != nil {
		return s.BeginFunc(ctx, in)
	}
	return &service.BeginLoginResult{AuthURL: "https://idp.example.com/authorize", State: "st-1", Nonce: "n-1"}, nil
}

func (s *stubAuth) CompleteLogin(ctx context.Context, in service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
	s.mu.Lock()
	s.completes = append(s.completes, in)
	s.mu.Unlock()
	if s.CompleteFunc != nil {
		return s.CompleteFunc(ctx, in)
	}
	return &service.CompleteLoginResult{Session: *testSession()}, nil
}

func (s *stubAuth) SignIn(ctx context.Context, in service.SignInInput) (*domainauth.Session, error) {
	if s.SignInFunc != nil {
		return s.SignInFunc(ctx, in)
	}
	sess := testSession()
	s.sessions.put(in.Key, sess)
	return sess, nil
}

func (s *stubAuth) SignUp(ctx context.Context, in service.SignUpInput) error {
	if s.SignUpFunc != nil {
		return s.SignUpFunc(ctx, in)
	}
	return nil
}

func (s *stubAuth) ConfirmSignUp(ctx context.Context, email, code string) error {
	if s.ConfirmFunc != nil {
		return s.ConfirmFunc(ctx, email, code)
	}
	return nil
}

func (s *stubAuth) SignOut(ctx context.Context, key string) error {
	s.mu.Lock()
	s.signOuts = append(s.signOuts, key)
	s.mu.Unlock()
	if s.SignOutFunc != nil {
		return s.SignOutFunc(ctx, key)
	}
	return nil
}

func (s *stubAuth) SimulateSignIn(_ context.Context, key, email, _ string) (domainauth.Record, error) {
	s.mu.Lock()
	s.simulated = append(s.simulated, key)
	s.mu.Unlock()
	if email == "" {
		email = service.DefaultSimulatedEmail
	}
	return domainauth.Record{Identifier: email}, nil
}

func (s *stubAuth) SimulateSignOut(_ context.Context, key string) error {
	s.mu.Lock()
	s.signOuts = append(s.signOuts, key)
	s.mu.Unlock()
	return nil
}

func (s *stubAuth) PublishTestEvent(_ context.Context, key string, tag domainauth.EventTag, payload map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, publishedEvent{Key: key, Tag: tag, Payload: payload})
}

// stubContact implements ContactService.
type stubContact struct {
	err       error
	submitted []model.CreateContactMessageRequest
}

func (s *stubContact) Submit(_ context.Context, req *model.CreateContactMessageRequest) (*model.ContactMessage, error) {
	s.submitted = append(s.submitted, *req)
	if s.err != nil {
		return nil, s.err
	}
	return &model.ContactMessage{ID: "msg-1", Name: req.Name, Email: req.Email}, nil
}

// stubContent implements ContentService over a fixed slice.
type stubContent struct {
	items   []*model.ContentItem
	deleted []string
	pageErr error
}

func newStubContent(n int) *stubContent {
	s := &stubContent{}
	for i := 1; i <= n; i++ {
		s.items = append(s.items, &model.ContentItem{
			ID:               "item-" + string(rune('a'+i-1)),
			Title:            "Title " + string(rune('A'+i-1)),
			Type:             model.ContentTypeBook,
			PricingTraining:  "$5,000",
			PricingReference: "$500",
			Sharing:          i%2 == 0,
			CreatedAt:        time.Date(2024, 1, i, 0, 0, 0, 0, time.UTC),
		})
	}
	return s
}

func (s *stubContent) Page(_ context.Context, opts model.ContentListOptions) (*model.ContentPage, error) {
	if s.pageErr != nil {
		return nil, s.pageErr
	}
	opts = opts.Normalize()
	var matched []*model.ContentItem
	for _, it := range s.items {
		if opts.Search == "" || strings.Contains(strings.ToLower(it.Title), strings.ToLower(opts.Search)) {
			matched = append(matched, it)
		}
	}
	end := min(opts.Offset+opts.Limit, len(matched))
	start := min(opts.Offset, len(matched))
	return &model.ContentPage{Items: matched[start:end], Total: len(matched), Limit: opts.Limit, Offset: opts.Offset}, nil
}

func (s *stubContent) Get(_ context.Context, id string) (*model.ContentItem, error) {
	for _, it := range s.items {
		if it.ID == id {
			return it, nil
		}
	}
	return nil, errContentMissing
}

func (s *stubContent) Delete(_ context.Context, id string) error {
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.deleted = append(s.deleted, id)
			return nil
		}
	}
	return errContentMissing
}
