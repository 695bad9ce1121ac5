package media

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/khoahotran/mediahub/internal/domain/media"
	"github.com/khoahotran/mediahub/internal/domain/user"
	"github.com/khoahotran/mediahub/pkg/apperror"
)

type SearchMediaUseCase struct {
	mediaRepo media.Repository
	userRepo  user.Repository
}

func NewSearchMediaUseCase(r media.Repository, u user.Repository) *SearchMediaUseCase {
	return &SearchMediaUseCase{mediaRepo: r, userRepo: u}
}

// SearchMediaInput fields are optional; blank ones do not constrain the result.
type SearchMediaInput struct {
	Query    string
	Type     string
	Location string
}

type SearchMediaOutput struct {
	Items    []*media.Media
	Creators map[uuid.UUID]*user.User
}

func (uc *SearchMediaUseCase) Execute(ctx context.Context, in SearchMediaInput) (*SearchMediaOutput, error) {
	filter := media.SearchFilter{
		Query:    strings.TrimSpace(in.Query),
		Location: strings.TrimSpace(in.Location),
	}
	if t := strings.TrimSpace(in.Type); t != "" {
		mediaType, err := media.ParseType(t)
		if err != nil {
			return nil, apperror.NewInvalidInput(err.Error(), err)
		}
		filter.Type = mediaType
	}

	items, err := uc.mediaRepo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	creators, err := resolveCreators(ctx, uc.userRepo, items)
	if err != nil {
		return nil, err
	}
	return &SearchMediaOutput{Items: items, Creators: creators}, nil
}
