package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/mediahub/internal/application/service"
	"github.com/khoahotran/mediahub/internal/config"
	"github.com/khoahotran/mediahub/pkg/logger"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublishMediaEvent(t *testing.T) {
	w := &fakeWriter{}
	client := &KafkaProducerClient{MediaEventsWriter: w, logger: logger.NewNop()}
	mediaID := uuid.New()

	err := client.PublishMediaEvent(context.Background(), service.MediaEvent{
		EventType:  service.MediaEventBlobOrphaned,
		MediaID:    mediaID,
		ObjectKeys: []string{"1-a.png", "1-a.png_thumb.jpg"},
	})

	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, mediaID.String(), string(w.msgs[0].Key))
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)

	var got service.MediaEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, service.MediaEventBlobOrphaned, got.EventType)
	assert.Equal(t, []string{"1-a.png", "1-a.png_thumb.jpg"}, got.ObjectKeys)
	assert.False(t, got.OccurredAt.IsZero())
}

func TestPublishMediaEvent_WriterError(t *testing.T) {
	client := &KafkaProducerClient{MediaEventsWriter: &fakeWriter{err: errors.New("broker down")}, logger: logger.NewNop()}

	err := client.PublishMediaEvent(context.Background(), service.MediaEvent{EventType: service.MediaEventUploaded, MediaID: uuid.New()})

	assert.ErrorContains(t, err, "broker down")
}

func TestNewKafkaProducerClient_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaProducerClient(config.Config{}, logger.NewNop())
	assert.Error(t, err)
}

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func encode(t *testing.T, evt service.MediaEvent) []byte {
	t.Helper()
	b, err := json.Marshal(evt)
	require.NoError(t, err)
	return b
}

func TestMediaEventConsumer_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	okID := uuid.New()
	failingID := uuid.New()
	reader := &fakeReader{
		cancel: cancel,
		queue: []kafka.Message{
			{Offset: 1, Value: []byte("{not json")},
			{Offset: 2, Value: encode(t, service.MediaEvent{EventType: service.MediaEventBlobOrphaned, MediaID: okID})},
			{Offset: 3, Value: encode(t, service.MediaEvent{EventType: service.MediaEventBlobOrphaned, MediaID: failingID})},
		},
	}
	consumer := &MediaEventConsumer{reader: reader, logger: logger.NewNop(), maxAttempts: 2, retryBackoff: time.Millisecond}

	calls := map[uuid.UUID]int{}
	err := consumer.Run(ctx, func(_ context.Context, evt service.MediaEvent) error {
		calls[evt.MediaID]++
		if evt.MediaID == failingID {
			return errors.New("storage unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls[okID])
	assert.Equal(t, 2, calls[failingID])
	assert.Equal(t, []int64{1, 2, 3}, reader.committed)
}
