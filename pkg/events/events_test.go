package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"beroepsbelg/pkg/kafka"
	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/model"
	"beroepsbelg/pkg/webhook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	url     string
	payload any
	headers map[string]string
	err     error
}

func (m *mockSender) Send(_ context.Context, url string, payload any, headers map[string]string) error {
	m.url, m.payload, m.headers = url, payload, headers
	if url == "" {
		return webhook.ErrDisabled
	}
	return m.err
}

type mockProducer struct {
	msgs []kafka.Message
}

func (m *mockProducer) Publish(_ context.Context, msg kafka.Message) error {
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *mockProducer) Close() error { return nil }

func TestNewEvent(t *testing.T) {
	guide := int64(12)
	b := &model.Booking{ID: 551}

	evt := NewEvent(model.EventGuideAccepted, b, &guide, map[string]any{"source": "token"})

	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, int64(551), evt.BookingID)
	assert.Equal(t, &guide, evt.GuideID)
	assert.False(t, evt.OccurredAt.IsZero())
}

func TestWebhookPublisher_Routes(t *testing.T) {
	sender := &mockSender{}
	p := NewWebhookPublisher(sender, Routes{model.EventGuideCancelled: "https://hooks.example/cancel"}, logger.Discard())

	guide := int64(12)
	evt := NewEvent(model.EventGuideCancelled, &model.Booking{ID: 551}, &guide, map[string]any{"cancelled_tours": 3})
	require.NoError(t, p.Publish(context.Background(), evt))

	assert.Equal(t, "https://hooks.example/cancel", sender.url)
	assert.Equal(t, "guide.cancelled", sender.headers[webhook.HeaderEventType])

	payload := sender.payload.(map[string]any)
	assert.Equal(t, int64(12), payload["guide_id"])
	assert.Equal(t, 3, payload["cancelled_tours"])
}

func TestWebhookPublisher_UnroutedIsNoop(t *testing.T) {
	p := NewWebhookPublisher(&mockSender{}, Routes{}, logger.Discard())
	assert.NoError(t, p.Publish(context.Background(), NewEvent(model.EventTourCompleted, &model.Booking{ID: 1}, nil, nil)))
}

func TestWebhookPublisher_PropagatesFailure(t *testing.T) {
	boom := errors.New("boom")
	p := NewWebhookPublisher(&mockSender{err: boom}, Routes{model.EventTourCompleted: "https://x"}, logger.Discard())
	assert.ErrorIs(t, p.Publish(context.Background(), NewEvent(model.EventTourCompleted, &model.Booking{ID: 1}, nil, nil)), boom)
}

func TestPayload_ExtraCannotOverrideEventFields(t *testing.T) {
	evt := NewEvent(model.EventTourCompleted, &model.Booking{ID: 7}, nil, map[string]any{"booking_id": 99, "note": "x"})
	payload := Payload(evt)
	assert.Equal(t, int64(7), payload["booking_id"])
	assert.Equal(t, "x", payload["note"])
	_, hasGuide := payload["guide_id"]
	assert.False(t, hasGuide)
}

func TestKafkaPublisher_KeysByBooking(t *testing.T) {
	prod := &mockProducer{}
	p := &KafkaPublisher{producer: prod, source: "bookings"}

	evt := NewEvent(model.EventTourPhotoUploaded, &model.Booking{ID: 551}, nil, nil)
	require.NoError(t, p.Publish(context.Background(), evt))

	require.Len(t, prod.msgs, 1)
	msg := prod.msgs[0]
	assert.Equal(t, "551", msg.Key)
	assert.Equal(t, evt.ID, msg.EventID())
	assert.Equal(t, "tour.photo_uploaded", msg.EventType())

	var decoded model.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, evt.Type, decoded.Type)
}
