// Package session implements the MCP session manager (spec.md §4.2): the
// session table, SessionKey resolution for both transports, per-session
// notification outboxes, and resource-ceiling enforcement. Grounded on
// pkg/mcp/protocol.go's SessionStore (sync.Map, Create/Get/Delete with
// last-accessed touch) and pkg/mcp/operations.go's NATS subject scheme
// for the optional distributed notification fan-out.
package session

import (
	"sync"
	"time"
)

// DefaultHTTPSessionID is the well-known shared session used by
// cookie-less HTTP clients (spec.md §3 SessionKey, §4.2 creation rule).
const DefaultHTTPSessionID = "http_default_session"

// ClientInfo is the client-advertised name/version from initialize.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Session is per-client protocol state. The session manager exclusively
// owns the record; transport handlers hold a borrow for one request.
type Session struct {
	mu sync.RWMutex

	ID              string
	Initialized     bool
	ProtocolVersion string
	ClientInfo      ClientInfo
	Capabilities    map[string]any
	CreatedAt       time.Time
	LastActivityAt  time.Time

	outbox        *Outbox // nil for stateless HTTP sessions
	subscriptions map[string]struct{}
	minLogLevel   string // set via logging/setLevel; "" means unset (all levels pass)
}

// Touch records activity on the session.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActivityAt = time.Now()
}

// ReInitialize atomically replaces the session's negotiated fields. The
// Initialized flag never reverts to false once set (spec.md §3
// invariant); re-initialize is otherwise unconditionally allowed and
// does not cancel in-flight requests.
func (s *Session) ReInitialize(version string, clientInfo ClientInfo, capabilities map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ProtocolVersion = version
	s.ClientInfo = clientInfo
	s.Capabilities = capabilities
	s.Initialized = true
	s.LastActivityAt = time.Now()
}

// IsInitialized reports whether initialize has completed at least once.
func (s *Session) IsInitialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Initialized
}

// Snapshot returns a read-only copy of the session's negotiated state,
// safe to use after the lock is released.
func (s *Session) Snapshot() (version string, clientInfo ClientInfo) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ProtocolVersion, s.ClientInfo
}

// Outbox returns the session's notification outbox, or nil if this
// session has no back-channel (stateless HTTP).
func (s *Session) Outbox() *Outbox {
	return s.outbox
}

// Implements toolregistry.NotificationCtx: handler-facing convenience
// methods that build a LogMessage notification and push it to the
// outbox. Silently a no-op when the session has no outbox, matching
// spec.md §4.2's documented drop behavior on stateless HTTP.

func (s *Session) Info(message string)  { s.log("info", message) }
func (s *Session) Warn(message string)  { s.log("warning", message) }
func (s *Session) Error(message string) { s.log("error", message) }
func (s *Session) Debug(message string) { s.log("debug", message) }

// logLevelRank orders the notifications/message levels from most to
// least verbose, matching the MCP logging capability's minimum-severity
// filter (SPEC_FULL.md §4.1's logging/setLevel).
var logLevelRank = map[string]int{"debug": 0, "info": 1, "warning": 2, "error": 3}

func (s *Session) log(level, message string) {
	if s.outbox == nil {
		return
	}
	s.mu.RLock()
	min := s.minLogLevel
	s.mu.RUnlock()
	if min != "" && logLevelRank[level] < logLevelRank[min] {
		return
	}
	s.outbox.Push(Notification{
		Method: "notifications/message",
		Params: LogMessage{Level: level, Message: message},
	})
}

// SetMinLogLevel applies logging/setLevel's client-requested minimum
// severity: notifications/message below this level are dropped for this
// session from then on.
func (s *Session) SetMinLogLevel(level string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minLogLevel = level
}

// LogMessage is the structured payload of a notifications/message
// notification (spec.md §4.2).
type LogMessage struct {
	Level   string `json:"level"`
	Logger  string `json:"logger,omitempty"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ResourcesListChanged is emitted when a resource provider's listing
// changes; the companion structured notification variant spec.md §4.2
// names alongside LogMessage.
type ResourcesListChanged struct{}

// ResourceUpdated is the payload of a notifications/resources/updated
// notification, pushed to sessions subscribed to uri (SPEC_FULL.md §4.1
// supplemented resources/subscribe feature).
type ResourceUpdated struct {
	URI string `json:"uri"`
}

// Subscribe records this session's interest in uri's updates. Idempotent.
func (s *Session) Subscribe(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscriptions == nil {
		s.subscriptions = make(map[string]struct{})
	}
	s.subscriptions[uri] = struct{}{}
}

// Unsubscribe drops this session's interest in uri. A no-op if not
// subscribed.
func (s *Session) Unsubscribe(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscriptions, uri)
}

// IsSubscribed reports whether this session is currently subscribed to uri.
func (s *Session) IsSubscribed(uri string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.subscriptions[uri]
	return ok
}

// NotifyResourceUpdated pushes notifications/resources/updated to this
// session's outbox, but only if it is subscribed to uri. Resource
// providers call this (via whatever mechanism they use to detect change)
// for every session that might care; uninterested or stateless sessions
// silently drop it.
func (s *Session) NotifyResourceUpdated(uri string) {
	if !s.IsSubscribed(uri) || s.outbox == nil {
		return
	}
	s.outbox.Push(Notification{
		Method: "notifications/resources/updated",
		Params: ResourceUpdated{URI: uri},
	})
}
