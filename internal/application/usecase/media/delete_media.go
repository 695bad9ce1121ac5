package media

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/internal/application/service"
	"github.com/khoahotran/mediahub/internal/domain/media"
	"github.com/khoahotran/mediahub/pkg/apperror"
	"github.com/khoahotran/mediahub/pkg/logger"
	"github.com/khoahotran/mediahub/pkg/metrics"
)

type DeleteMediaUseCase struct {
	mediaRepo media.Repository
	storage   service.ObjectStorage
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewDeleteMediaUseCase(r media.Repository, s service.ObjectStorage, p service.EventPublisher, log logger.Logger) *DeleteMediaUseCase {
	return &DeleteMediaUseCase{mediaRepo: r, storage: s, publisher: p, logger: log}
}

type DeleteMediaInput struct {
	RequesterID uuid.UUID
	MediaID     uuid.UUID
}

// Execute removes the document first and the stored objects after it. Objects
// that could not be removed are handed to the worker through a
// media.blob_orphaned event; the call only fails when that hand-off fails too.
func (uc *DeleteMediaUseCase) Execute(ctx context.Context, in DeleteMediaInput) error {
	ctx, span := tracer.Start(ctx, "DeleteMedia")
	defer span.End()
	span.SetAttributes(attribute.String("media_id", in.MediaID.String()))

	l := uc.logger.With(zap.String("media_id", in.MediaID.String()), zap.String("user_id", in.RequesterID.String()))

	m, err := uc.mediaRepo.FindByID(ctx, in.MediaID)
	if err != nil {
		return err
	}
	if !m.IsCreatedBy(in.RequesterID) {
		l.Warn("Rejected delete by non-creator")
		return apperror.NewPermissionDenied("only the creator can delete this media")
	}

	if err := uc.mediaRepo.Delete(ctx, m.ID, in.RequesterID); err != nil {
		span.RecordError(err)
		return err
	}

	var (
		pending []string
		causes  []error
	)
	for _, key := range m.ObjectKeys() {
		err := uc.storage.Delete(ctx, key)
		if err == nil || errors.Is(err, service.ErrObjectNotFound) {
			continue
		}
		l.Warn("Failed to remove media object", zap.Error(err), zap.String("key", key))
		pending = append(pending, key)
		causes = append(causes, err)
	}

	now := time.Now().UTC()
	if len(pending) > 0 {
		err := uc.publisher.PublishMediaEvent(ctx, service.MediaEvent{
			EventType:  service.MediaEventBlobOrphaned,
			MediaID:    m.ID,
			UserID:     in.RequesterID,
			ObjectKeys: pending,
			OccurredAt: now,
		})
		if err != nil {
			span.RecordError(err)
			l.Error("Failed to hand off orphaned objects", err, zap.Strings("keys", pending))
			return apperror.NewStorage("media deleted but its files could not be removed", errors.Join(append(causes, err)...))
		}
		metrics.OrphanedObjects.Add(float64(len(pending)))
		l.Info("Handed off orphaned objects to worker", zap.Strings("keys", pending))
	}

	if err := uc.publisher.PublishMediaEvent(ctx, service.MediaEvent{
		EventType:  service.MediaEventDeleted,
		MediaID:    m.ID,
		UserID:     in.RequesterID,
		MediaType:  string(m.Type),
		OccurredAt: now,
	}); err != nil {
		l.Warn("Failed to publish media deleted event", zap.Error(err))
	}

	l.Info("Media deleted")
	return nil
}
