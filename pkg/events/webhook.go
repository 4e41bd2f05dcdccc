package events

import (
	"context"
	"errors"

	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/model"
	"beroepsbelg/pkg/webhook"
)

type Sender interface {
	Send(ctx context.Context, url string, payload any, headers map[string]string) error
}

// WebhookPublisher calls the routed webhook directly, once, without retry.
type WebhookPublisher struct {
	sender Sender
	routes Routes
	log    *logger.Logger
}

func NewWebhookPublisher(sender Sender, routes Routes, log *logger.Logger) *WebhookPublisher {
	return &WebhookPublisher{sender: sender, routes: routes, log: log}
}

func (p *WebhookPublisher) Publish(ctx context.Context, evt model.Event) error {
	err := p.sender.Send(ctx, p.routes.URL(evt.Type), Payload(evt), map[string]string{
		webhook.HeaderEventType: string(evt.Type),
	})
	if errors.Is(err, webhook.ErrDisabled) {
		p.log.Debug("No webhook configured for event", "event_type", evt.Type, "booking_id", evt.BookingID)
		return nil
	}
	return err
}

func (p *WebhookPublisher) Close() error {
	return nil
}

// Payload is the webhook body for an event: the booking row with the event
// fields merged in, as downstream automations expect.
func Payload(evt model.Event) map[string]any {
	payload := map[string]any{
		"event":       evt.Type,
		"event_id":    evt.ID,
		"booking_id":  evt.BookingID,
		"occurred_at": evt.OccurredAt,
		"booking":     evt.Booking,
	}
	if evt.GuideID != nil {
		payload["guide_id"] = *evt.GuideID
	}
	for k, v := range evt.Extra {
		if _, taken := payload[k]; !taken {
			payload[k] = v
		}
	}
	return payload
}
