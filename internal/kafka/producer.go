package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
)

type Producer struct {
	brokers []string
	topic   string
	writer  *kafka.Writer
	logger  *logging.Logger
}

func NewProducer(brokers []string, topic string, logger *logging.Logger) *Producer {
	if logger == nil {
		logger = logging.Discard()
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            1,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		brokers: brokers,
		topic:   topic,
		writer:  writer,
		logger:  logger,
	}
}

// PublishAppointment keys the message by appointment id so every event of
// one appointment lands on the same partition.
func (p *Producer) PublishAppointment(ctx context.Context, event AppointmentEvent) error {
	return p.Publish(ctx, p.topic, event.AppointmentID, event)
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	p.logger.Debug("published event", "topic", topic, "key", key)
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and reads its partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to kafka: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ReadPartitions(); err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}
	return nil
}
