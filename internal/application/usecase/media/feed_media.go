package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/internal/domain/media"
	"github.com/khoahotran/mediahub/internal/domain/user"
	"github.com/khoahotran/mediahub/pkg/logger"
)

const FeedSize = 20

// FeedMediaUseCase renders the newest uploads as an RSS feed.
type FeedMediaUseCase struct {
	mediaRepo media.Repository
	userRepo  user.Repository
	baseURL   string
	logger    logger.Logger
	now       func() time.Time
}

func NewFeedMediaUseCase(r media.Repository, u user.Repository, baseURL string, log logger.Logger) *FeedMediaUseCase {
	return &FeedMediaUseCase{
		mediaRepo: r,
		userRepo:  u,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    log,
		now:       time.Now,
	}
}

func (uc *FeedMediaUseCase) Execute(ctx context.Context) (*feeds.Feed, error) {
	items, err := uc.mediaRepo.List(ctx, FeedSize, 0)
	if err != nil {
		uc.logger.Error("Failed to list media for feed", err)
		return nil, err
	}
	creators, err := resolveCreators(ctx, uc.userRepo, items)
	if err != nil {
		return nil, err
	}

	feed := &feeds.Feed{
		Title:       "mediahub - latest uploads",
		Link:        &feeds.Link{Href: uc.baseURL + "/api/media"},
		Description: "Newest videos and images shared on mediahub.",
		Created:     uc.now(),
	}

	feed.Items = make([]*feeds.Item, 0, len(items))
	for _, m := range items {
		item := &feeds.Item{
			Id:          m.ID.String(),
			Title:       m.Title,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/api/media/%s", uc.baseURL, m.ID)},
			Description: m.Caption,
			Created:     m.CreatedAt,
			Enclosure: &feeds.Enclosure{
				Url:    m.URL,
				Length: strconv.FormatInt(m.Size, 10),
				Type:   m.ContentType,
			},
		}
		if c, ok := creators[m.CreatorID]; ok {
			item.Author = &feeds.Author{Name: c.Name}
		}
		feed.Items = append(feed.Items, item)
	}

	uc.logger.Debug("Media feed generated", zap.Int("item_count", len(feed.Items)))
	return feed, nil
}
