package event

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/internal/application/service"
	"github.com/khoahotran/mediahub/internal/config"
	"github.com/khoahotran/mediahub/pkg/logger"
)

const TopicMediaEvents = "media.events"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducerClient struct {
	MediaEventsWriter messageWriter
	logger            logger.Logger
}

var _ service.EventPublisher = (*KafkaProducerClient)(nil)

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// writer 'media.events'
	mediaWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        TopicMediaEvents,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 5 * time.Second,
	}

	log.Info("Initialize Kafka Producers successfully.", zap.Strings("brokers", brokers))

	return &KafkaProducerClient{MediaEventsWriter: mediaWriter, logger: log}, nil
}

// PublishMediaEvent keys messages by media id so events for one item stay ordered.
func (c *KafkaProducerClient) PublishMediaEvent(ctx context.Context, evt service.MediaEvent) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal media event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(evt.MediaID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.EventType)},
		},
	}
	if err := c.MediaEventsWriter.WriteMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to publish media event", err,
			zap.String("event_type", string(evt.EventType)),
			zap.String("media_id", evt.MediaID.String()))
		return fmt.Errorf("publish media event: %w", err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.MediaEventsWriter != nil {
		if err := c.MediaEventsWriter.Close(); err != nil {
			c.logger.Warn("Close Kafka writer failed", zap.Error(err))
		}
	}
	c.logger.Info("Closed Kafka Producers")
}
