package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"beroepsbelg/internal/relay"
	"beroepsbelg/pkg/config"
	"beroepsbelg/pkg/events"
	httputil "beroepsbelg/pkg/http"
	"beroepsbelg/pkg/kafka"
	kafka_config "beroepsbelg/pkg/kafka/config"
	kafka_middleware "beroepsbelg/pkg/kafka/middleware"
	"beroepsbelg/pkg/logger"
	"beroepsbelg/pkg/middleware"
	"beroepsbelg/pkg/webhook"

	"github.com/julienschmidt/httprouter"
)

const ServiceName = "relay"

// The relay consumes booking events from Kafka and delivers them to the
// configured webhooks, so the API never blocks on a slow receiver.
func main() {
	cfg := config.Load(ServiceName)

	kcfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kcfg.LogConfiguration(cfg.Log)

	sender := webhook.NewSender(cfg.WebhookTimeout, cfg.WebhookSecret, cfg.Log)
	r := relay.New(sender, events.RoutesFromConfig(cfg), cfg.Log)

	consumer, err := kafka.NewConsumer(kcfg, cfg.EventsTopic, cfg.RelayGroupID, cfg.EventsDLQTopic, r.Handle, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	metrics := kafka_middleware.NewMetrics()
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(metrics.ConsumerMiddleware())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      healthRouter(metrics, cfg.Log),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	go func() {
		cfg.Log.Info("Starting health server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.Log.Error("Health server failed", "error", err)
		}
	}()

	cfg.Log.Info("Relay started", "topic", cfg.EventsTopic, "group", cfg.RelayGroupID, "dlq", cfg.EventsDLQTopic)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	cfg.Log.Info("Shutting down relay...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		cfg.Log.Error("Health server shutdown failed", "error", err)
	}
	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Relay stopped", "processed", metrics.Snapshot().Consumed)
}

func healthRouter(metrics *kafka_middleware.Metrics, log *logger.Logger) http.Handler {
	router := httprouter.New()
	router.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		if err := httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"messages": metrics.Snapshot(),
		}); err != nil {
			log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
		}
	})
	return middleware.Recovery(log)(router)
}
