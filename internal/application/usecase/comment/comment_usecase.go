package comment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/internal/application/service"
	"github.com/khoahotran/mediahub/internal/domain/media"
	"github.com/khoahotran/mediahub/internal/domain/user"
	"github.com/khoahotran/mediahub/pkg/apperror"
	"github.com/khoahotran/mediahub/pkg/logger"
)

// Add

type AddCommentUseCase struct {
	mediaRepo media.Repository
	userRepo  user.Repository
	publisher service.EventPublisher
	logger    logger.Logger
}

func NewAddCommentUseCase(r media.Repository, u user.Repository, p service.EventPublisher, log logger.Logger) *AddCommentUseCase {
	return &AddCommentUseCase{mediaRepo: r, userRepo: u, publisher: p, logger: log}
}

type AddCommentInput struct {
	MediaID uuid.UUID
	UserID  uuid.UUID
	Text    string
}

type AddCommentOutput struct {
	Comment media.Comment
	Author  *user.User
}

func (uc *AddCommentUseCase) Execute(ctx context.Context, in AddCommentInput) (*AddCommentOutput, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, apperror.NewInvalidInput(media.ErrEmptyComment.Error(), media.ErrEmptyComment)
	}

	c := media.Comment{
		ID:        uuid.New(),
		UserID:    in.UserID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.mediaRepo.AddComment(ctx, in.MediaID, c); err != nil {
		return nil, err
	}

	if err := uc.publisher.PublishMediaEvent(ctx, service.MediaEvent{
		EventType:  service.MediaEventCommentAdded,
		MediaID:    in.MediaID,
		UserID:     in.UserID,
		OccurredAt: c.CreatedAt,
	}); err != nil {
		uc.logger.Warn("Failed to publish comment event", zap.Error(err), zap.String("media_id", in.MediaID.String()))
	}

	users, err := user.ResolveAll(ctx, uc.userRepo, in.UserID)
	if err != nil {
		return nil, err
	}
	return &AddCommentOutput{Comment: c, Author: users[in.UserID]}, nil
}

// List

type ListCommentsUseCase struct {
	mediaRepo media.Repository
	userRepo  user.Repository
}

func NewListCommentsUseCase(r media.Repository, u user.Repository) *ListCommentsUseCase {
	return &ListCommentsUseCase{mediaRepo: r, userRepo: u}
}

type ListCommentsOutput struct {
	Comments []media.Comment
	Authors  map[uuid.UUID]*user.User
}

// Execute returns comments oldest first, in the order they were added.
func (uc *ListCommentsUseCase) Execute(ctx context.Context, mediaID uuid.UUID) (*ListCommentsOutput, error) {
	m, err := uc.mediaRepo.FindByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(m.Comments))
	for _, c := range m.Comments {
		ids = append(ids, c.UserID)
	}
	authors, err := user.ResolveAll(ctx, uc.userRepo, ids...)
	if err != nil {
		return nil, err
	}
	return &ListCommentsOutput{Comments: m.Comments, Authors: authors}, nil
}

// Delete

type DeleteCommentUseCase struct {
	mediaRepo media.Repository
	logger    logger.Logger
}

func NewDeleteCommentUseCase(r media.Repository, log logger.Logger) *DeleteCommentUseCase {
	return &DeleteCommentUseCase{mediaRepo: r, logger: log}
}

type DeleteCommentInput struct {
	MediaID     uuid.UUID
	CommentID   uuid.UUID
	RequesterID uuid.UUID
}

func (uc *DeleteCommentUseCase) Execute(ctx context.Context, in DeleteCommentInput) error {
	m, err := uc.mediaRepo.FindByID(ctx, in.MediaID)
	if err != nil {
		return err
	}

	c, ok := m.FindComment(in.CommentID)
	if !ok {
		return apperror.NewNotFound("comment", in.CommentID.String())
	}
	if c.UserID != in.RequesterID {
		uc.logger.Warn("Rejected comment delete by non-author",
			zap.String("media_id", in.MediaID.String()),
			zap.String("user_id", in.RequesterID.String()))
		return apperror.NewPermissionDenied("only the author can delete this comment")
	}

	return uc.mediaRepo.RemoveComment(ctx, in.MediaID, in.CommentID, in.RequesterID)
}
