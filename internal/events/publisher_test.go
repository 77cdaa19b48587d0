package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}

	ev := NewSessionEvent(TypeLogin, 12, "")
	require.NoError(t, p.Publish(context.Background(), ev))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "12", string(msg.Key))
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, "login", string(msg.Headers[0].Value))

	var decoded SessionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.ID, decoded.ID)
	assert.Equal(t, TypeLogin, decoded.Type)
	assert.Equal(t, uint(12), decoded.UserID)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &recordingWriter{err: errors.New("broker down")}}

	err := p.Publish(context.Background(), NewSessionEvent(TypeLogout, 1, ""))
	assert.ErrorContains(t, err, "broker down")
}

func TestNewSessionEvent_UniqueIDs(t *testing.T) {
	a := NewSessionEvent(TypeRefreshed, 1, "")
	b := NewSessionEvent(TypeRefreshed, 1, "")
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.OccurredAt.IsZero())
}

// stalledWriter never gets an ack back and waits for the caller to give up.
type stalledWriter struct{}

func (stalledWriter) WriteMessages(ctx context.Context, _ ...kafka.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stalledWriter) Close() error { return nil }

func TestKafkaPublisher_StalledBrokerHonoursDeadline(t *testing.T) {
	p := &KafkaPublisher{writer: stalledWriter{}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Publish(ctx, NewSessionEvent(TypeLogin, 1, ""))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewKafkaPublisher_SingleAttempt(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "readnest.session-events")
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, 1, w.MaxAttempts)
	assert.Equal(t, "readnest.session-events", w.Topic)
	_ = p.Close()
}
