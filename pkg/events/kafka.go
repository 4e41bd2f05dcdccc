package events

import (
	"context"
	"strconv"

	"beroepsbelg/pkg/kafka"
	kafka_config "beroepsbelg/pkg/kafka/config"
	kafka_middleware "beroepsbelg/pkg/kafka/middleware"
	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/model"
)

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by booking id, so events of one booking stay ordered.
type KafkaPublisher struct {
	producer messagePublisher
	source   string
}

func NewKafkaPublisher(cfg *kafka_config.Config, topic, dlqTopic, source string, log *logger.Logger) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(cfg, topic, dlqTopic, log)
	if err != nil {
		return nil, err
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(log))
	return &KafkaPublisher{producer: producer, source: source}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt model.Event) error {
	msg, err := kafka.NewJSONMessage(strconv.FormatInt(evt.BookingID, 10), evt, map[string]string{
		kafka.HeaderEventID:   evt.ID,
		kafka.HeaderEventType: string(evt.Type),
		kafka.HeaderSource:    p.source,
	})
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
