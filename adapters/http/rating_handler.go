package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ratingUC "github.com/khoahotran/mediahub/internal/application/usecase/rating"
	"github.com/khoahotran/mediahub/pkg/apperror"
)

type RatingHandler struct {
	upsertUC *ratingUC.UpsertRatingUseCase
	listUC   *ratingUC.ListRatingsUseCase
	deleteUC *ratingUC.DeleteRatingUseCase
}

func NewRatingHandler(upsertUC *ratingUC.UpsertRatingUseCase, listUC *ratingUC.ListRatingsUseCase, deleteUC *ratingUC.DeleteRatingUseCase) *RatingHandler {
	return &RatingHandler{upsertUC: upsertUC, listUC: listUC, deleteUC: deleteUC}
}

func (h *RatingHandler) UpsertRating(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("userID not found in context", nil))
		return
	}
	mediaID, ok := parseUUIDParam(c, "mediaId")
	if !ok {
		return
	}

	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("rating value must be an integer between 1 and 5", err))
		return
	}

	summary, err := h.upsertUC.Execute(c.Request.Context(), ratingUC.UpsertRatingInput{MediaID: mediaID, UserID: userID, Value: *req.Value})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, RatingSummaryResponse{
		Message:       "Rating updated successfully",
		AverageRating: summary.Average,
		TotalRatings:  summary.Count,
	})
}

func (h *RatingHandler) ListRatings(c *gin.Context) {
	mediaID, ok := parseUUIDParam(c, "mediaId")
	if !ok {
		return
	}

	output, err := h.listUC.Execute(c.Request.Context(), mediaID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, RatingListResponse{
		Ratings:       ToRatingDTOs(output.Ratings, output.Raters),
		AverageRating: output.Summary.Average,
		TotalRatings:  output.Summary.Count,
	})
}

func (h *RatingHandler) DeleteRating(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("userID not found in context", nil))
		return
	}
	mediaID, ok := parseUUIDParam(c, "mediaId")
	if !ok {
		return
	}

	summary, err := h.deleteUC.Execute(c.Request.Context(), ratingUC.DeleteRatingInput{MediaID: mediaID, UserID: userID})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, RatingSummaryResponse{
		Message:       "Rating deleted successfully",
		AverageRating: summary.Average,
		TotalRatings:  summary.Count,
	})
}
