// Package memory provides in-process session and override stores used when
// Redis is disabled (single-instance deployments and local development).
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	domainauth "github.com/target/knowlio-web/internal/domain/auth"
	"github.com/target/knowlio-web/internal/ports"
)

// SessionStore keeps sessions in a map guarded by a RWMutex.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domainauth.Session
	now      func() time.Time
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domainauth.Session), now: time.Now}
}

func (s *SessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	if sess.Expired(s.now()) {
		return errors.New("session is expired")
	}
	sess.Attributes = sess.Attributes.Clone()

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return domainauth.Session{}, ports.ErrNotFound
	}
	now := s.now()
	if sess.Expired(now) {
		// A Save may have replaced the entry since the read lock was released.
		s.mu.Lock()
		cur, ok := s.sessions[id]
		if ok && cur.Expired(now) {
			delete(s.sessions, id)
			ok = false
		}
		s.mu.Unlock()
		if !ok {
			return domainauth.Session{}, ports.ErrNotFound
		}
		sess = cur
	}
	sess.Attributes = sess.Attributes.Clone()
	return sess, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Keys lists stored client keys.
func (s *SessionStore) Keys(_ context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sessions))
	for k := range s.sessions {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, k)
	}
	return out, nil
}

type overrideEntry struct {
	data      []byte
	expiresAt time.Time
}

// OverrideStore keeps encoded override records with a TTL.
type OverrideStore struct {
	mu      sync.RWMutex
	entries map[string]overrideEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewOverrideStore creates an empty override store whose records expire after ttl.
func NewOverrideStore(ttl time.Duration) *OverrideStore {
	return &OverrideStore{entries: make(map[string]overrideEntry), ttl: ttl, now: time.Now}
}

func (s *OverrideStore) Load(_ context.Context, key string) (domainauth.Record, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || (!e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)) {
		return domainauth.Record{}, ports.ErrNotFound
	}
	return domainauth.DecodeRecord(e.data)
}

// Store encodes rec so that stored values never alias caller maps.
func (s *OverrideStore) Store(_ context.Context, key string, rec domainauth.Record) error {
	if key == "" {
		return errors.New("override key cannot be empty")
	}
	data, err := domainauth.EncodeRecord(rec)
	if err != nil {
		return err
	}
	var exp time.Time
	if s.ttl > 0 {
		exp = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[key] = overrideEntry{data: data, expiresAt: exp}
	s.mu.Unlock()
	return nil
}

func (s *OverrideStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

var (
	_ ports.SessionStore  = (*SessionStore)(nil)
	_ ports.OverrideStore = (*OverrideStore)(nil)
)
