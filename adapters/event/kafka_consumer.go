package event

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/internal/application/service"
	"github.com/khoahotran/mediahub/internal/config"
	"github.com/khoahotran/mediahub/pkg/logger"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type MediaEventHandler func(ctx context.Context, evt service.MediaEvent) error

const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = time.Second
)

type MediaEventConsumer struct {
	reader       messageReader
	logger       logger.Logger
	maxAttempts  int
	retryBackoff time.Duration
}

func NewMediaEventConsumer(cfg config.Config, log logger.Logger) *MediaEventConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    TopicMediaEvents,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	return &MediaEventConsumer{
		reader:       reader,
		logger:       log,
		maxAttempts:  defaultMaxAttempts,
		retryBackoff: defaultRetryBackoff,
	}
}

// Run reads until ctx is cancelled. Undecodable messages are committed and
// skipped; a handler failure is retried with linear backoff before the message
// is given up on and committed.
func (c *MediaEventConsumer) Run(ctx context.Context, handle MediaEventHandler) error {
	c.logger.Info("Worker listening on topic", zap.String("topic", TopicMediaEvents))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return err
			}
			c.logger.Error("Failed to read message from Kafka", err)
			continue
		}

		var evt service.MediaEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			c.logger.Warn("Failed to unmarshal event. Skipping.", zap.Error(err), zap.Int64("offset", msg.Offset))
			c.commitMessage(ctx, msg)
			continue
		}

		if err := c.handleWithRetry(ctx, handle, evt); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Giving up on media event", err,
				zap.String("event_type", string(evt.EventType)),
				zap.String("media_id", evt.MediaID.String()),
				zap.Int64("offset", msg.Offset))
		}

		c.commitMessage(ctx, msg)
	}
}

func (c *MediaEventConsumer) handleWithRetry(ctx context.Context, handle MediaEventHandler, evt service.MediaEvent) error {
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err = handle(ctx, evt); err == nil {
			return nil
		}
		c.logger.Warn("Failed to process media event",
			zap.Error(err),
			zap.String("media_id", evt.MediaID.String()),
			zap.Int("attempt", attempt))

		if attempt == c.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * c.retryBackoff):
		}
	}
	return err
}

func (c *MediaEventConsumer) commitMessage(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message", err, zap.Int64("offset", msg.Offset))
	}
}

func (c *MediaEventConsumer) Close() error {
	return c.reader.Close()
}
