// Package events publishes booking state changes.
//
// The API publishes after a change is persisted and never rolls back when
// publishing fails: delivery is at most once from the API's point of view.
// With the Kafka backend, cmd/relay turns events into webhook calls with retries.
package events

import (
	"context"
	"fmt"
	"time"

	"beroepsbelg/pkg/config"
	kafka_config "beroepsbelg/pkg/kafka/config"
	"beroepsbelg/pkg/model"
	"beroepsbelg/pkg/webhook"

	"github.com/google/uuid"
)

type Publisher interface {
	Publish(ctx context.Context, evt model.Event) error
	Close() error
}

func NewEvent(eventType model.EventType, booking *model.Booking, guideID *int64, extra map[string]any) model.Event {
	evt := model.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		GuideID:    guideID,
		OccurredAt: time.Now().UTC(),
		Booking:    booking,
		Extra:      extra,
	}
	if booking != nil {
		evt.BookingID = booking.ID
	}
	return evt
}

// Routes maps event types to the webhook that should receive them.
type Routes map[model.EventType]string

// RoutesFromConfig wires the configured webhook URLs. guide.offered is not routed:
// the offer dispatcher calls its webhook synchronously.
func RoutesFromConfig(cfg *config.Config) Routes {
	return Routes{
		model.EventGuideAccepted:     cfg.WebhookResponseURL,
		model.EventGuideDeclined:     cfg.WebhookResponseURL,
		model.EventGuideCancelled:    cfg.WebhookGuideCancelURL,
		model.EventTourCompleted:     cfg.WebhookAftercareURL,
		model.EventTourPhotoUploaded: cfg.WebhookAftercareURL,
	}
}

func (r Routes) URL(t model.EventType) string {
	return r[t]
}

// New builds the publisher selected by EVENTS_BACKEND.
func New(cfg *config.Config, sender *webhook.Sender) (Publisher, error) {
	log := cfg.Log.With("component", "events", "backend", cfg.EventsBackend)

	switch cfg.EventsBackend {
	case config.EventsBackendNone:
		return Noop{}, nil
	case config.EventsBackendWebhook:
		return NewWebhookPublisher(sender, RoutesFromConfig(cfg), log), nil
	case config.EventsBackendKafka:
		kcfg, err := kafka_config.Load()
		if err != nil {
			return nil, err
		}
		kcfg.LogConfiguration(log)
		return NewKafkaPublisher(kcfg, cfg.EventsTopic, cfg.EventsDLQTopic, cfg.ServiceName, log)
	case config.EventsBackendRabbitMQ:
		return NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, log)
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
	}
}

type Noop struct{}

func (Noop) Publish(context.Context, model.Event) error { return nil }
func (Noop) Close() error                               { return nil }
