package media_storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/khoahotran/mediahub/internal/application/service"
	"github.com/khoahotran/mediahub/internal/config"
	"github.com/khoahotran/mediahub/pkg/logger"
	"github.com/khoahotran/mediahub/pkg/metrics"
)

const (
	ProviderCloudinary = "cloudinary"
	ProviderS3         = "s3"
	ProviderMinIO      = "minio"
)

// NewObjectStorage builds the configured provider once, wrapped with metrics
// and a circuit breaker. Callers share the returned value.
func NewObjectStorage(ctx context.Context, cfg config.Config, log logger.Logger) (service.ObjectStorage, error) {
	var (
		base service.ObjectStorage
		err  error
	)

	switch strings.ToLower(cfg.Storage.Provider) {
	case ProviderCloudinary:
		base, err = NewCloudinaryAdapter(cfg, log)
	case ProviderS3:
		base, err = NewS3Adapter(ctx, cfg, log)
	case ProviderMinIO:
		base, err = NewMinIOAdapter(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewBreakerStorage(NewInstrumentedStorage(base), DefaultBreakerSettings, log), nil
}

type instrumentedStorage struct {
	next service.ObjectStorage
}

func NewInstrumentedStorage(next service.ObjectStorage) service.ObjectStorage {
	return &instrumentedStorage{next: next}
}

func (s *instrumentedStorage) Provider() string { return s.next.Provider() }

func (s *instrumentedStorage) Upload(ctx context.Context, data []byte, contentType string, key string) (string, error) {
	url, err := s.next.Upload(ctx, data, contentType, key)
	metrics.RecordStorageOperation(s.next.Provider(), "upload", err)
	return url, err
}

func (s *instrumentedStorage) Delete(ctx context.Context, key string) error {
	err := s.next.Delete(ctx, key)
	if errors.Is(err, service.ErrObjectNotFound) {
		metrics.RecordStorageOperation(s.next.Provider(), "delete_missing", nil)
		return err
	}
	metrics.RecordStorageOperation(s.next.Provider(), "delete", err)
	return err
}
