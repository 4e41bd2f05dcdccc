package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"beroepsbelg/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func header(km kafka.Message, key string) string {
	for _, h := range km.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestNewJSONMessage(t *testing.T) {
	msg, err := NewJSONMessage("551", map[string]int{"booking_id": 551}, map[string]string{HeaderEventType: "tour.completed"})
	require.NoError(t, err)

	assert.Equal(t, "551", msg.Key)
	assert.JSONEq(t, `{"booking_id":551}`, string(msg.Value))
	assert.NotEmpty(t, msg.EventID())
	assert.Equal(t, "tour.completed", msg.EventType())
}

func TestMessage_RetryCount(t *testing.T) {
	var msg Message
	assert.Equal(t, 0, msg.RetryCount())

	for range 12 {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.RetryCount())
	assert.Equal(t, "12", msg.Headers[HeaderRetryCount])
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"explicit transient", NewTransientError("webhook 503", nil), ErrorTypeTransient},
		{"explicit permanent", NewPermanentError("webhook 400", nil), ErrorTypePermanent},
		{"wrapped transient", fmt.Errorf("deliver: %w", NewTransientError("x", nil)), ErrorTypeTransient},
		{"deadline", context.DeadlineExceeded, ErrorTypeTransient},
		{"connection refused", errors.New("dial tcp: Connection Refused"), ErrorTypeTransient},
		{"unknown", errors.New("bad json"), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("x", nil)
	assert.True(t, ShouldRetry(transient, 0, 3))
	assert.False(t, ShouldRetry(transient, 3, 3))
	assert.False(t, ShouldRetry(NewPermanentError("x", nil), 0, 3))
	assert.False(t, ShouldRetry(nil, 0, 3))
}

func TestConsumer_ProcessRetriesThenDLQ(t *testing.T) {
	dlq := &fakeWriter{}
	c := &Consumer{
		dlqWriter:  dlq,
		topic:      "booking-events",
		groupID:    "relay",
		maxRetries: 2,
		log:        logger.Discard(),
	}

	calls := 0
	handler := func(context.Context, Message) error {
		calls++
		return NewTransientError("webhook unavailable", nil)
	}

	msg, err := NewJSONMessage("1", map[string]string{}, nil)
	require.NoError(t, err)

	err = c.process(context.Background(), msg, handler)
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	require.Len(t, dlq.messages, 1)
	parked := dlq.messages[0]
	assert.Equal(t, "booking-events", header(parked, HeaderOriginalTopic))
	assert.Equal(t, "relay", header(parked, HeaderDLQGroup))
	assert.Equal(t, "2", header(parked, HeaderRetryCount))
}

func TestConsumer_ProcessPermanentSkipsRetry(t *testing.T) {
	dlq := &fakeWriter{}
	c := &Consumer{dlqWriter: dlq, topic: "t", maxRetries: 5, log: logger.Discard()}

	calls := 0
	handler := func(context.Context, Message) error {
		calls++
		return NewPermanentError("bad payload", nil)
	}

	_ = c.process(context.Background(), Message{Headers: map[string]string{}}, handler)
	assert.Equal(t, 1, calls)
	assert.Len(t, dlq.messages, 1)
}

func TestConsumer_ProcessStopsOnCancel(t *testing.T) {
	c := &Consumer{maxRetries: 5, backoff: 1 << 40, log: logger.Discard()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.process(ctx, Message{}, func(context.Context, Message) error {
		return NewTransientError("x", nil)
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProducer_PublishParksOnDLQ(t *testing.T) {
	writeErr := errors.New("leader not available")
	dlq := &fakeWriter{}
	p := &Producer{writer: &fakeWriter{err: writeErr}, dlqWriter: dlq, topic: "booking-events", log: logger.Discard()}

	msg, err := NewJSONMessage("551", map[string]int{"a": 1}, nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), msg)
	assert.ErrorIs(t, err, writeErr)
	require.Len(t, dlq.messages, 1)
	assert.Equal(t, writeErr.Error(), header(dlq.messages[0], HeaderDLQError))
}

func TestProducer_PublishValidates(t *testing.T) {
	p := &Producer{writer: &fakeWriter{}, log: logger.Discard()}

	assert.ErrorIs(t, p.Publish(context.Background(), Message{Value: []byte("x")}), ErrEmptyKey)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")}), ErrProducerClosed)
}
