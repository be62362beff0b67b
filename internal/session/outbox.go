package session

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/fyrsmithlabs/mcpserver/internal/metrics"
)

// Notification is a server-initiated JSON-RPC notification: no id, no
// reply expected.
type Notification struct {
	Method string
	Params any
}

// Outbox is a session's buffered notification channel to its transport
// writer (spec.md §3). Concurrent handler goroutines may all push; the
// channel makes concurrent sends safe, and producers are not serialized
// by a session lock (Session.log releases its read lock before calling
// Push). When a *nats.Conn is supplied the notification is
// additionally published for external observers, grounded on
// pkg/mcp/operations.go's operations.{owner}.{op}.{event} subject scheme;
// this is purely additive fan-out, never required for correctness.
type Outbox struct {
	ch        chan Notification
	sessionID string
	nc        *nats.Conn
	metrics   *metrics.Metrics
}

// NewOutbox creates an outbox with the given channel capacity. nc may be
// nil to disable the NATS fan-out; m may be nil to disable metrics.
func NewOutbox(sessionID string, capacity int, nc *nats.Conn, m *metrics.Metrics) *Outbox {
	return &Outbox{
		ch:        make(chan Notification, capacity),
		sessionID: sessionID,
		nc:        nc,
		metrics:   m,
	}
}

// Push enqueues a notification for the transport writer. Send failure
// (full buffer on a dead connection) is non-fatal: this notification is
// simply dropped, per §9 Design Notes' "senders must treat send-failure
// as non-fatal."
func (o *Outbox) Push(n Notification) {
	select {
	case o.ch <- n:
		o.metrics.RecordNotification(n.Method)
	default:
	}
	o.publishToNATS(n)
}

// C exposes the receive side for the transport writer's drain loop.
func (o *Outbox) C() <-chan Notification {
	return o.ch
}

func (o *Outbox) publishToNATS(n Notification) {
	if o.nc == nil {
		return
	}
	payload, err := json.Marshal(n.Params)
	if err != nil {
		return
	}
	subject := fmt.Sprintf("mcp.sessions.%s.notify.%s", o.sessionID, n.Method)
	_ = o.nc.Publish(subject, payload)
}
