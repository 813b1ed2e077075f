package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/SeveN7Igor7/studioivosantos/config"
	"github.com/SeveN7Igor7/studioivosantos/internal/email"
	"github.com/SeveN7Igor7/studioivosantos/internal/kafka"
	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
)

// The worker mails customers about their appointments as events arrive.
func main() {
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.NewWithOptions(cfg.LoggerOptions("worker"))

	if !cfg.Kafka.Enabled {
		logger.Warn("kafka is disabled, nothing to consume")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.AppointmentsTopic, logger)
	defer consumer.Close()

	sender := email.NewSender(cfg.EmailOptions(), logger)

	handler := consumer.AppointmentHandler(func(ctx context.Context, event kafka.AppointmentEvent) error {
		if err := sender.Send(ctx, event); err != nil {
			// a failed mail is not retried; the offset moves on
			logger.Error("send notification", "type", event.Type, "appointment_id", event.AppointmentID, "error", err)
		}
		return nil
	})

	logger.Info("worker started", "topic", cfg.Kafka.AppointmentsTopic, "group", cfg.Kafka.GroupID)
	if err := consumer.Consume(ctx, handler); err != nil {
		logger.Error("consumer stopped", "error", err)
		return
	}
	logger.Info("worker stopped")
}
