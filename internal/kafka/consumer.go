package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
)

type Consumer struct {
	reader *kafka.Reader
	logger *logging.Logger
}

func NewConsumer(brokers []string, groupID, topic string, logger *logging.Logger) *Consumer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger: logger,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume reads until ctx is cancelled. Handler errors stop the loop.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
}

// AppointmentHandler adapts an event handler to raw messages. Undecodable
// messages are logged and skipped so one bad payload cannot wedge the group.
func (c *Consumer) AppointmentHandler(handle func(context.Context, AppointmentEvent) error) func(context.Context, kafka.Message) error {
	return func(ctx context.Context, msg kafka.Message) error {
		event, err := DecodeAppointmentEvent(msg.Value)
		if err != nil {
			c.logger.Warn("skipping message", "topic", msg.Topic, "offset", msg.Offset, "error", err)
			return nil
		}
		return handle(ctx, event)
	}
}
