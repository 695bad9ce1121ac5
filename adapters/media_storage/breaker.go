package media_storage

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/internal/application/service"
	"github.com/khoahotran/mediahub/pkg/logger"
)

// BreakerSettings controls when the storage circuit opens.
type BreakerSettings struct {
	MinRequests  uint32
	FailureRatio float64
	Interval     time.Duration
	Timeout      time.Duration
}

var DefaultBreakerSettings = BreakerSettings{
	MinRequests:  5,
	FailureRatio: 0.6,
	Interval:     time.Minute,
	Timeout:      30 * time.Second,
}

type breakerStorage struct {
	next service.ObjectStorage
	cb   *gobreaker.CircuitBreaker[string]
}

// NewBreakerStorage fails fast while the provider keeps erroring. A missing
// object on delete is an answer, not a provider failure.
func NewBreakerStorage(next service.ObjectStorage, settings BreakerSettings, log logger.Logger) service.ObjectStorage {
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "storage-" + next.Provider(),
		MaxRequests: 1,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= settings.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, service.ErrObjectNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("storage circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &breakerStorage{next: next, cb: cb}
}

func (b *breakerStorage) Provider() string { return b.next.Provider() }

func (b *breakerStorage) Upload(ctx context.Context, data []byte, contentType string, key string) (string, error) {
	return b.cb.Execute(func() (string, error) {
		return b.next.Upload(ctx, data, contentType, key)
	})
}

func (b *breakerStorage) Delete(ctx context.Context, key string) error {
	_, err := b.cb.Execute(func() (string, error) {
		return "", b.next.Delete(ctx, key)
	})
	return err
}
