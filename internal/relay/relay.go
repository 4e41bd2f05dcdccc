// Package relay delivers booking events from Kafka to the configured webhooks.
//
// The API publishes at most once. When Kafka is the events backend the relay
// adds retries: transient webhook failures are retried by the consumer and
// end up on the dead letter topic when they keep failing.
package relay

import (
	"context"
	"errors"
	"fmt"

	"beroepsbelg/pkg/events"
	"beroepsbelg/pkg/kafka"
	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/model"
	"beroepsbelg/pkg/webhook"
)

const HeaderEventID = "X-Event-ID"

type Relay struct {
	sender events.Sender
	routes events.Routes
	log    *logger.Logger
}

func New(sender events.Sender, routes events.Routes, log *logger.Logger) *Relay {
	return &Relay{sender: sender, routes: routes, log: log}
}

// Handle is the consumer's message handler.
func (r *Relay) Handle(ctx context.Context, msg kafka.Message) error {
	var evt model.Event
	if err := msg.DecodeValue(&evt); err != nil {
		return kafka.NewPermanentError("decode booking event", err)
	}
	if evt.Type == "" {
		return kafka.NewPermanentError("booking event without type", nil)
	}

	url := r.routes.URL(evt.Type)
	err := r.sender.Send(ctx, url, events.Payload(evt), map[string]string{
		webhook.HeaderEventType: string(evt.Type),
		HeaderEventID:           evt.ID,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, webhook.ErrDisabled):
		r.log.Debug("No webhook configured for event", "event_type", evt.Type, "event_id", evt.ID)
		return nil
	default:
		return classify(evt, err)
	}
}

func classify(evt model.Event, err error) error {
	msg := fmt.Sprintf("deliver %s for booking %d", evt.Type, evt.BookingID)

	var statusErr *webhook.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Temporary() {
			return kafka.NewTransientError(msg, err)
		}
		return kafka.NewPermanentError(msg, err)
	}
	if errors.Is(err, context.Canceled) {
		return kafka.NewTransientError(msg, err)
	}
	if kafka.ClassifyError(err) == kafka.ErrorTypeTransient {
		return kafka.NewTransientError(msg, err)
	}
	return kafka.NewPermanentError(msg, err)
}
