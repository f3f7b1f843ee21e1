package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harikv/moviegate/pkg/logger"
	"github.com/nats-io/nats.go"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// NopBus is used when NATS is not configured. Publishes are dropped.
type NopBus struct{}

func (NopBus) Publish(ctx context.Context, subject string, data interface{}) error { return nil }
func (NopBus) Subscribe(subject string, handler func(msg *Message)) error          { return nil }
func (NopBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	return nil
}
func (NopBus) Close() error { return nil }

// Event subjects
const (
	MovieAdded   = "movie.added"
	MovieDeleted = "movie.deleted"

	UserVerified           = "user.verified"
	VerificationChallenged = "verification.challenged"
)

// Event payloads
type MovieAddedEvent struct {
	MovieID string    `json:"movie_id"`
	Title   string    `json:"title"`
	Year    int       `json:"year"`
	AddedBy int64     `json:"added_by"`
	AddedAt time.Time `json:"added_at"`
}

type MovieDeletedEvent struct {
	MovieID   string    `json:"movie_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

type UserVerifiedEvent struct {
	UserID     string    `json:"user_id"`
	VerifiedAt time.Time `json:"verified_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type VerificationChallengedEvent struct {
	UserID       string    `json:"user_id"`
	ChallengedAt time.Time `json:"challenged_at"`
}
