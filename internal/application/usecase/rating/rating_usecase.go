package rating

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/internal/application/service"
	"github.com/khoahotran/mediahub/internal/domain/media"
	"github.com/khoahotran/mediahub/internal/domain/user"
	"github.com/khoahotran/mediahub/pkg/apperror"
	"github.com/khoahotran/mediahub/pkg/logger"
)

type UpsertRatingUseCase struct {
	mediaRepo media.Repository
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewUpsertRatingUseCase(r media.Repository, p service.EventPublisher, log logger.Logger) *UpsertRatingUseCase {
	return &UpsertRatingUseCase{mediaRepo: r, publisher: p, logger: log}
}

type UpsertRatingInput struct {
	MediaID uuid.UUID
	UserID  uuid.UUID
	Value   int
}

// Execute replaces any earlier rating by the same user in one atomic write.
func (uc *UpsertRatingUseCase) Execute(ctx context.Context, in UpsertRatingInput) (media.RatingSummary, error) {
	if err := media.ValidateRating(in.Value); err != nil {
		return media.RatingSummary{}, apperror.NewInvalidInput(err.Error(), err)
	}

	now := time.Now().UTC()
	m, err := uc.mediaRepo.UpsertRating(ctx, in.MediaID, media.Rating{UserID: in.UserID, Value: in.Value, RatedAt: now})
	if err != nil {
		return media.RatingSummary{}, err
	}

	if err := uc.publisher.PublishMediaEvent(ctx, service.MediaEvent{
		EventType:  service.MediaEventRatingChanged,
		MediaID:    in.MediaID,
		UserID:     in.UserID,
		OccurredAt: now,
	}); err != nil {
		uc.logger.Warn("Failed to publish rating event", zap.Error(err), zap.String("media_id", in.MediaID.String()))
	}

	return m.RatingSummary(), nil
}

type ListRatingsUseCase struct {
	mediaRepo media.Repository
	userRepo  user.Repository
}

func NewListRatingsUseCase(r media.Repository, u user.Repository) *ListRatingsUseCase {
	return &ListRatingsUseCase{mediaRepo: r, userRepo: u}
}

type ListRatingsOutput struct {
	Ratings []media.Rating
	Raters  map[uuid.UUID]*user.User
	Summary media.RatingSummary
}

func (uc *ListRatingsUseCase) Execute(ctx context.Context, mediaID uuid.UUID) (*ListRatingsOutput, error) {
	m, err := uc.mediaRepo.FindByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(m.Ratings))
	for _, r := range m.Ratings {
		ids = append(ids, r.UserID)
	}
	raters, err := user.ResolveAll(ctx, uc.userRepo, ids...)
	if err != nil {
		return nil, err
	}
	return &ListRatingsOutput{Ratings: m.Ratings, Raters: raters, Summary: m.RatingSummary()}, nil
}

type DeleteRatingUseCase struct {
	mediaRepo media.Repository
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewDeleteRatingUseCase(r media.Repository, p service.EventPublisher, log logger.Logger) *DeleteRatingUseCase {
	return &DeleteRatingUseCase{mediaRepo: r, publisher: p, logger: log}
}

type DeleteRatingInput struct {
	MediaID uuid.UUID
	UserID  uuid.UUID
}

// Execute removes the caller's rating. Removing a rating that does not exist
// is not an error; the summary is returned either way.
func (uc *DeleteRatingUseCase) Execute(ctx context.Context, in DeleteRatingInput) (media.RatingSummary, error) {
	m, err := uc.mediaRepo.RemoveRating(ctx, in.MediaID, in.UserID)
	if err != nil {
		return media.RatingSummary{}, err
	}

	if err := uc.publisher.PublishMediaEvent(ctx, service.MediaEvent{
		EventType:  service.MediaEventRatingChanged,
		MediaID:    in.MediaID,
		UserID:     in.UserID,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		uc.logger.Warn("Failed to publish rating event", zap.Error(err), zap.String("media_id", in.MediaID.String()))
	}

	return m.RatingSummary(), nil
}
