// Package events publishes session audit events. Publishing is synchronous
// and best-effort: callers bound it with a context deadline and only log failures.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Type names a session transition.
type Type string

const (
	TypeRegistered      Type = "registered"
	TypeLogin           Type = "login"
	TypeLoginFailed     Type = "login_failed"
	TypeRefreshed       Type = "refreshed"
	TypeRefreshRejected Type = "refresh_rejected"
	TypeLogout          Type = "logout"
)

// SessionEvent is one audit record. UserID is zero when the user is unknown.
type SessionEvent struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	UserID     uint      `json:"userId,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewSessionEvent stamps a fresh id and time on an event.
func NewSessionEvent(t Type, userID uint, reason string) SessionEvent {
	return SessionEvent{
		ID:         uuid.NewString(),
		Type:       t,
		UserID:     userID,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers session events.
type Publisher interface {
	Publish(ctx context.Context, event SessionEvent) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

var _ Publisher = Noop{}

func (Noop) Publish(context.Context, SessionEvent) error { return nil }
func (Noop) Close() error                                 { return nil }

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON, keyed by user id so a user's events stay ordered.
type KafkaPublisher struct {
	writer messageWriter
}

var _ Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            1,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           time.Second,
		AllowAutoTopicCreation: true,
	}}
}

// Publish writes a single event and waits for the broker ack.
func (p *KafkaPublisher) Publish(ctx context.Context, event SessionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.UserID), 10)),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write event: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
