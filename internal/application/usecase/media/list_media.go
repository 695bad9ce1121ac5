package media

import (
	"context"

	"github.com/google/uuid"

	"github.com/khoahotran/mediahub/internal/domain/media"
	"github.com/khoahotran/mediahub/internal/domain/user"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type ListMediaUseCase struct {
	mediaRepo media.Repository
	userRepo  user.Repository
}

func NewListMediaUseCase(r media.Repository, u user.Repository) *ListMediaUseCase {
	return &ListMediaUseCase{mediaRepo: r, userRepo: u}
}

// ListMediaInput values below 1 fall back to the defaults.
type ListMediaInput struct {
	Page  int
	Limit int
}

type ListMediaOutput struct {
	Items       []*media.Media
	Creators    map[uuid.UUID]*user.User
	CurrentPage int
	TotalPages  int
	TotalCount  int64
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func (uc *ListMediaUseCase) Execute(ctx context.Context, in ListMediaInput) (*ListMediaOutput, error) {
	page, limit := normalizePaging(in.Page, in.Limit)

	total, err := uc.mediaRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	out := &ListMediaOutput{
		Items:       []*media.Media{},
		Creators:    map[uuid.UUID]*user.User{},
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  total,
	}
	// Pages past the end never reach the repository, so the offset cannot overflow.
	if page > totalPages {
		return out, nil
	}

	items, err := uc.mediaRepo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	creators, err := resolveCreators(ctx, uc.userRepo, items)
	if err != nil {
		return nil, err
	}

	out.Items = items
	out.Creators = creators
	return out, nil
}

func resolveCreators(ctx context.Context, repo user.Repository, items []*media.Media) (map[uuid.UUID]*user.User, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, m := range items {
		ids = append(ids, m.CreatorID)
	}
	return user.ResolveAll(ctx, repo, ids...)
}
