package media

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/internal/application/service"
	"github.com/khoahotran/mediahub/internal/domain/media"
	"github.com/khoahotran/mediahub/pkg/apperror"
	"github.com/khoahotran/mediahub/pkg/logger"
	"github.com/khoahotran/mediahub/pkg/metrics"
)

var tracer = otel.Tracer("media_usecase")

type UploadMediaUseCase struct {
	mediaRepo media.Repository
	storage   service.ObjectStorage
	publisher service.EventPublisher
	maxBytes  int64
	logger    logger.Logger
	now       func() time.Time
}

func NewUploadMediaUseCase(
	r media.Repository,
	s service.ObjectStorage,
	p service.EventPublisher,
	maxBytes int64,
	log logger.Logger,
) *UploadMediaUseCase {
	return &UploadMediaUseCase{mediaRepo: r, storage: s, publisher: p, maxBytes: maxBytes, logger: log, now: time.Now}
}

type UploadMediaInput struct {
	CreatorID   uuid.UUID
	FileName    string
	ContentType string
	Data        []byte
	Title       string
	Caption     string
	Location    string
	Tags        []string
}

type UploadMediaOutput struct {
	Media *media.Media
}

func (uc *UploadMediaUseCase) Execute(ctx context.Context, input UploadMediaInput) (*UploadMediaOutput, error) {
	ctx, span := tracer.Start(ctx, "UploadMedia")
	defer span.End()

	if len(input.Data) == 0 {
		return nil, apperror.NewInvalidInput("media file is required", nil)
	}
	if uc.maxBytes > 0 && int64(len(input.Data)) > uc.maxBytes {
		return nil, apperror.NewTooLarge(uc.maxBytes)
	}
	mediaType, err := media.TypeFromContentType(input.ContentType)
	if err != nil {
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}

	now := uc.now().UTC()
	m := &media.Media{
		ID:          uuid.New(),
		Title:       input.Title,
		Caption:     input.Caption,
		Type:        mediaType,
		ContentType: input.ContentType,
		Size:        int64(len(input.Data)),
		Location:    input.Location,
		Tags:        input.Tags,
		CreatorID:   input.CreatorID,
		Ratings:     []media.Rating{},
		Comments:    []media.Comment{},
		CreatedAt:   now,
	}
	m.Normalize()
	if m.Title == "" {
		return nil, apperror.NewInvalidInput(media.ErrTitleRequired.Error(), media.ErrTitleRequired)
	}

	l := uc.logger.With(zap.String("media_id", m.ID.String()), zap.String("user_id", input.CreatorID.String()))
	span.SetAttributes(attribute.String("media_id", m.ID.String()), attribute.String("media_type", string(mediaType)))

	m.StorageKey = media.ObjectKey(now, input.FileName)
	m.URL, err = uc.storage.Upload(ctx, input.Data, input.ContentType, m.StorageKey)
	if err != nil {
		span.RecordError(err)
		l.Error("Failed to upload media object", err, zap.String("key", m.StorageKey))
		return nil, apperror.NewStorage("failed to upload media file", err)
	}

	if mediaType == media.TypeImage {
		uc.attachThumbnail(ctx, m, input.Data, l)
	}

	if err := m.Validate(); err != nil {
		uc.removeObjects(ctx, m, l)
		return nil, apperror.NewInvalidInput(err.Error(), err)
	}

	if err := uc.mediaRepo.Save(ctx, m); err != nil {
		span.RecordError(err)
		l.Error("Failed to save media, removing uploaded objects", err)
		uc.removeObjects(ctx, m, l)
		return nil, err
	}

	metrics.UploadedBytes.WithLabelValues(string(mediaType)).Add(float64(m.Size))

	if err := uc.publisher.PublishMediaEvent(ctx, service.MediaEvent{
		EventType:  service.MediaEventUploaded,
		MediaID:    m.ID,
		UserID:     m.CreatorID,
		MediaType:  string(m.Type),
		URL:        m.URL,
		OccurredAt: now,
	}); err != nil {
		l.Warn("Failed to publish media uploaded event", zap.Error(err))
	}

	l.Info("Media uploaded", zap.String("type", string(m.Type)), zap.Int64("size", m.Size))
	return &UploadMediaOutput{Media: m}, nil
}

// attachThumbnail is best effort; an image that cannot be decoded is still stored.
func (uc *UploadMediaUseCase) attachThumbnail(ctx context.Context, m *media.Media, data []byte, l logger.Logger) {
	thumb, err := generateThumbnail(data)
	if err != nil {
		l.Warn("Skipping thumbnail", zap.Error(err))
		return
	}

	key := media.ThumbnailKey(m.StorageKey)
	url, err := uc.storage.Upload(ctx, thumb, "image/jpeg", key)
	if err != nil {
		l.Warn("Failed to upload thumbnail", zap.Error(err), zap.String("key", key))
		return
	}
	m.ThumbnailKey = key
	m.ThumbnailURL = &url
}

func (uc *UploadMediaUseCase) removeObjects(ctx context.Context, m *media.Media, l logger.Logger) {
	for _, key := range m.ObjectKeys() {
		if err := uc.storage.Delete(ctx, key); err != nil && !errors.Is(err, service.ErrObjectNotFound) {
			l.Error("Failed to remove uploaded object", err, zap.String("key", key))
		}
	}
}
