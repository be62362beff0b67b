package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/fyrsmithlabs/mcpserver/internal/limits"
	"github.com/fyrsmithlabs/mcpserver/internal/metrics"
)

// Store owns the session table, shared by both transports (spec.md
// §4.2). The table supports concurrent reads and insert/remove; each
// entry's mutations are guarded by the entry's own lock (see Session).
type Store struct {
	sessions sync.Map // sessionID -> *Session
	count    int64
	countMu  sync.Mutex

	limits  limits.Limits
	nc      *nats.Conn // optional, for outbox distributed fan-out
	metrics *metrics.Metrics
}

// NewStore creates an empty session store. nc may be nil.
func NewStore(l limits.Limits, nc *nats.Conn) *Store {
	return &Store{limits: l, nc: nc}
}

// SetMetrics attaches a metrics sink; session count changes and
// outbox notification pushes are recorded against it from then on. A
// nil *Metrics (the default) makes recording a no-op.
func (s *Store) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// ErrTooManySessions is returned by CreateWebSocket and ResolveHTTP when
// max_sessions is reached.
type ErrTooManySessions struct{ Max int }

func (e *ErrTooManySessions) Error() string {
	return fmt.Sprintf("too many sessions (limit %d)", e.Max)
}

// newSession allocates a bare session record, with a fresh outbox when
// withOutbox is set. id may be pre-chosen (HTTP cookie value,
// default-session id); empty (WebSocket) generates a random version-4
// UUID in its hyphenated text form (122 random bits), not a bare hex id.
func (s *Store) newSession(id string, withOutbox bool) *Session {
	if id == "" {
		id = uuid.New().String()
	}
	sess := &Session{
		ID:             id,
		CreatedAt:      time.Now(),
		LastActivityAt: time.Now(),
	}
	if withOutbox {
		sess.outbox = NewOutbox(id, 64, s.nc, s.metrics)
	}
	return sess
}

// CreateWebSocket allocates a fresh session bound to a WebSocket
// connection; the socket's lifetime defines the session's lifetime, and
// it always has a notification outbox (full-duplex transport).
func (s *Store) CreateWebSocket() (*Session, error) {
	if !s.reserve() {
		return nil, &ErrTooManySessions{Max: s.limits.MaxSessions}
	}
	sess := s.newSession("", true)
	s.sessions.Store(sess.ID, sess)
	return sess, nil
}

// ResolveHTTP implements the HTTP SessionKey rule (spec.md §3, §4.2):
// a cookie value selects or creates that named session; an empty cookie
// selects the shared default session, created lazily on first use.
// Stateless HTTP sessions never get a notification outbox.
func (s *Store) ResolveHTTP(cookieValue string) (*Session, error) {
	id := cookieValue
	if id == "" {
		id = DefaultHTTPSessionID
	}
	if existing, ok := s.sessions.Load(id); ok {
		sess := existing.(*Session)
		sess.Touch()
		return sess, nil
	}
	if !s.reserve() {
		return nil, &ErrTooManySessions{Max: s.limits.MaxSessions}
	}
	sess := s.newSession(id, false)
	actual, loaded := s.sessions.LoadOrStore(id, sess)
	if loaded {
		s.release() // lost the race; another goroutine created it first
		existing := actual.(*Session)
		existing.Touch()
		return existing, nil
	}
	return sess, nil
}

// Get looks up a session by id without creating one.
func (s *Store) Get(id string) (*Session, bool) {
	v, ok := s.sessions.Load(id)
	if !ok {
		return nil, false
	}
	sess := v.(*Session)
	sess.Touch()
	return sess, true
}

// Delete removes a session, e.g. on WebSocket close.
func (s *Store) Delete(id string) {
	if _, loaded := s.sessions.LoadAndDelete(id); loaded {
		s.release()
	}
}

// Count returns the current number of tracked sessions.
func (s *Store) Count() int {
	s.countMu.Lock()
	defer s.countMu.Unlock()
	return int(s.count)
}

func (s *Store) reserve() bool {
	s.countMu.Lock()
	if !limits.Allows(int(s.count), s.limits.MaxSessions) {
		s.countMu.Unlock()
		return false
	}
	s.count++
	n := s.count
	s.countMu.Unlock()
	s.metrics.SetActiveSessions(int(n))
	return true
}

func (s *Store) release() {
	s.countMu.Lock()
	if s.count > 0 {
		s.count--
	}
	n := s.count
	s.countMu.Unlock()
	s.metrics.SetActiveSessions(int(n))
}
