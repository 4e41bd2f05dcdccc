package relay

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"beroepsbelg/internal/testutil"
	"beroepsbelg/pkg/events"
	"beroepsbelg/pkg/kafka"
	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/model"
	"beroepsbelg/pkg/webhook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aftercareURL = "https://hooks.example.be/aftercare"

func newRelay(n *testutil.Notifier) *Relay {
	routes := events.Routes{model.EventTourCompleted: aftercareURL}
	return New(n, routes, logger.Discard())
}

func eventMessage(t *testing.T, evtType model.EventType) kafka.Message {
	t.Helper()
	guideID := int64(12)
	evt := events.NewEvent(evtType, &model.Booking{ID: 551, Status: model.BookingCompleted}, &guideID, map[string]any{"note": "done"})
	msg, err := kafka.NewJSONMessage("551", evt, map[string]string{kafka.HeaderEventType: string(evtType)})
	require.NoError(t, err)
	return msg
}

func TestHandle_Delivers(t *testing.T) {
	n := &testutil.Notifier{}
	msg := eventMessage(t, model.EventTourCompleted)

	require.NoError(t, newRelay(n).Handle(context.Background(), msg))

	calls := n.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, aftercareURL, calls[0].URL)
	assert.Equal(t, string(model.EventTourCompleted), calls[0].Headers[webhook.HeaderEventType])
	assert.NotEmpty(t, calls[0].Headers[HeaderEventID])

	payload := calls[0].Payload.(map[string]any)
	assert.Equal(t, int64(551), payload["booking_id"])
	assert.Equal(t, int64(12), payload["guide_id"])
	assert.Equal(t, "done", payload["note"])
}

func TestHandle_UnroutedEventIsDropped(t *testing.T) {
	n := &testutil.Notifier{Fail: func(url string, _ any) error {
		if url == "" {
			return webhook.ErrDisabled
		}
		return nil
	}}

	err := newRelay(n).Handle(context.Background(), eventMessage(t, model.EventGuideAccepted))
	assert.NoError(t, err)
}

func TestHandle_Classification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want kafka.ErrorType
	}{
		{name: "server error", err: &webhook.StatusError{StatusCode: http.StatusServiceUnavailable}, want: kafka.ErrorTypeTransient},
		{name: "rate limited", err: &webhook.StatusError{StatusCode: http.StatusTooManyRequests}, want: kafka.ErrorTypeTransient},
		{name: "rejected payload", err: &webhook.StatusError{StatusCode: http.StatusBadRequest}, want: kafka.ErrorTypePermanent},
		{name: "timeout", err: context.DeadlineExceeded, want: kafka.ErrorTypeTransient},
		{name: "connection refused", err: errors.New("dial tcp 10.0.0.1:443: connection refused"), want: kafka.ErrorTypeTransient},
		{name: "encode failure", err: errors.New("encode webhook payload: unsupported value"), want: kafka.ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &testutil.Notifier{Fail: func(string, any) error { return tt.err }}

			err := newRelay(n).Handle(context.Background(), eventMessage(t, model.EventTourCompleted))
			require.Error(t, err)
			assert.Equal(t, tt.want, kafka.ClassifyError(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestHandle_BadMessage(t *testing.T) {
	n := &testutil.Notifier{}
	r := newRelay(n)

	err := r.Handle(context.Background(), kafka.Message{Value: []byte("{not json"), Timestamp: time.Now()})
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))

	err = r.Handle(context.Background(), kafka.Message{Value: []byte(`{"booking_id":1}`)})
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))
	assert.Empty(t, n.Calls())
}
