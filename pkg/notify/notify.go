// Package notify publishes receipt events for the staff display
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Event names
const (
	EventReceiptCreated  = "receipt.created"
	EventReceiptUpdated  = "receipt.updated"
	EventReceiptsCleared = "receipts.cleared"
)

// Event is the message body sent to subscribers
type Event struct {
	Name       string    `json:"event"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}

// Notifier publishes events. Implementations must be safe for concurrent use
type Notifier interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Subject returns the NATS subject for an event name under prefix
func Subject(prefix, name string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// --- NATS Notifier ---

type natsNotifier struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSNotifier connects to the NATS server at url
func NewNATSNotifier(url, subjectPrefix, clientName string) (Notifier, error) {
	conn, err := nats.Connect(url,
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("notify: failed to connect to %s: %w", url, err)
	}
	return &natsNotifier{conn: conn, prefix: subjectPrefix}, nil
}

func (n *natsNotifier) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notify: failed to marshal %s: %w", event.Name, err)
	}

	subject := Subject(n.prefix, event.Name)
	if err := n.conn.Publish(subject, body); err != nil {
		return fmt.Errorf("notify: failed to publish %s: %w", subject, err)
	}
	return nil
}

func (n *natsNotifier) Close() error {
	return n.conn.Drain()
}

// --- Null Notifier (no-op, used when NATS is not configured) ---

type nullNotifier struct{}

// NewNullNotifier returns a notifier that drops every event
func NewNullNotifier() Notifier {
	return nullNotifier{}
}

func (nullNotifier) Publish(ctx context.Context, event Event) error {
	return nil
}

func (nullNotifier) Close() error {
	return nil
}

// NewNotifierFromConfig returns a NATS notifier when url is set, otherwise the null notifier
func NewNotifierFromConfig(url, subjectPrefix, clientName string) (Notifier, error) {
	if url == "" {
		return NewNullNotifier(), nil
	}
	return NewNATSNotifier(url, subjectPrefix, clientName)
}
