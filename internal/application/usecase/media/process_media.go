package media

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/internal/application/service"
	"github.com/khoahotran/mediahub/pkg/logger"
)

// ProcessMediaEventUseCase runs in the worker. It finishes object removals that
// the API could not complete.
type ProcessMediaEventUseCase struct {
	storage service.ObjectStorage
	logger  logger.Logger
}

func NewProcessMediaEventUseCase(s service.ObjectStorage, log logger.Logger) *ProcessMediaEventUseCase {
	return &ProcessMediaEventUseCase{storage: s, logger: log}
}

func (uc *ProcessMediaEventUseCase) Execute(ctx context.Context, evt service.MediaEvent) error {
	l := uc.logger.With(zap.String("media_id", evt.MediaID.String()), zap.String("event_type", string(evt.EventType)))

	if evt.EventType != service.MediaEventBlobOrphaned {
		l.Debug("Ignoring media event")
		return nil
	}

	l.Info("Worker UseCase removing orphaned objects", zap.Strings("keys", evt.ObjectKeys))

	var errs []error
	for _, key := range evt.ObjectKeys {
		err := uc.storage.Delete(ctx, key)
		switch {
		case err == nil:
			l.Info("Removed orphaned object", zap.String("key", key))
		case errors.Is(err, service.ErrObjectNotFound):
			l.Info("Orphaned object already gone", zap.String("key", key))
		default:
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
