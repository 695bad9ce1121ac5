package media

import (
	"context"

	"github.com/google/uuid"

	"github.com/khoahotran/mediahub/internal/domain/media"
	"github.com/khoahotran/mediahub/internal/domain/user"
)

type GetMediaUseCase struct {
	mediaRepo media.Repository
	userRepo  user.Repository
}

func NewGetMediaUseCase(r media.Repository, u user.Repository) *GetMediaUseCase {
	return &GetMediaUseCase{mediaRepo: r, userRepo: u}
}

type GetMediaInput struct {
	MediaID uuid.UUID
}

// GetMediaOutput carries the creator, comment authors and raters in Users.
type GetMediaOutput struct {
	Media *media.Media
	Users map[uuid.UUID]*user.User
}

func (uc *GetMediaUseCase) Execute(ctx context.Context, input GetMediaInput) (*GetMediaOutput, error) {
	m, err := uc.mediaRepo.FindByID(ctx, input.MediaID)
	if err != nil {
		return nil, err
	}

	users, err := user.ResolveAll(ctx, uc.userRepo, m.ParticipantIDs()...)
	if err != nil {
		return nil, err
	}
	return &GetMediaOutput{Media: m, Users: users}, nil
}
