package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-hours/pkg/core/model"
)

// messageWriter is the part of kafka.Writer used here
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes notifications to a topic keyed by volunteer id, so one
// volunteer's notifications stay ordered within a partition
type Kafka struct {
	writer  messageWriter
	topic   string
	logger  *zap.Logger
	timeout time.Duration
}

// NewKafka creates a publisher for topic on the given brokers
func NewKafka(brokers []string, topic string, logger *zap.Logger) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka notifier requires at least one broker")
	}
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topic:   topic,
		logger:  logger,
		timeout: 5 * time.Second,
	}, nil
}

func (k *Kafka) Notify(ctx context.Context, n model.Notification) {
	payload, err := encode(n)
	if err != nil {
		k.logger.Warn("Failed to encode notification", zap.String("kind", n.Kind), zap.Error(err))
		return
	}

	ctx, cancel := detach(ctx, k.timeout)
	defer cancel()

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Topic: k.topic,
		Key:   []byte(n.VolunteerID),
		Value: payload,
		Time:  n.OccurredAt.UTC(),
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(n.Kind)},
		},
	})
	if err != nil {
		k.logger.Warn("Failed to publish notification",
			zap.String("kind", n.Kind),
			zap.String("topic", k.topic),
			zap.Error(err))
	}
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
