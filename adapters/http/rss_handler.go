package http

import (
	"github.com/gin-gonic/gin"

	mediaUC "github.com/khoahotran/mediahub/internal/application/usecase/media"
	"github.com/khoahotran/mediahub/pkg/apperror"
	"github.com/khoahotran/mediahub/pkg/logger"
)

type RSSHandler struct {
	feedUseCase *mediaUC.FeedMediaUseCase
	logger      logger.Logger
}

func NewRSSHandler(uc *mediaUC.FeedMediaUseCase, log logger.Logger) *RSSHandler {
	return &RSSHandler{
		feedUseCase: uc,
		logger:      log,
	}
}

func (h *RSSHandler) GenerateRSS(c *gin.Context) {
	feed, err := h.feedUseCase.Execute(c.Request.Context())
	if err != nil {
		c.Error(apperror.NewInternal("failed to generate RSS feed", err))
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	if err := feed.WriteRss(c.Writer); err != nil {
		h.logger.Error("Failed to write RSS feed to response", err)
	}
}
