package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	commentUC "github.com/khoahotran/mediahub/internal/application/usecase/comment"
	"github.com/khoahotran/mediahub/internal/domain/user"
	"github.com/khoahotran/mediahub/pkg/apperror"
)

type CommentHandler struct {
	addUC    *commentUC.AddCommentUseCase
	listUC   *commentUC.ListCommentsUseCase
	deleteUC *commentUC.DeleteCommentUseCase
}

func NewCommentHandler(addUC *commentUC.AddCommentUseCase, listUC *commentUC.ListCommentsUseCase, deleteUC *commentUC.DeleteCommentUseCase) *CommentHandler {
	return &CommentHandler{addUC: addUC, listUC: listUC, deleteUC: deleteUC}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

func (h *CommentHandler) AddComment(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("userID not found in context", nil))
		return
	}
	mediaID, ok := parseUUIDParam(c, "mediaId")
	if !ok {
		return
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}

	output, err := h.addUC.Execute(c.Request.Context(), commentUC.AddCommentInput{MediaID: mediaID, UserID: userID, Text: req.Text})
	if err != nil {
		c.Error(err)
		return
	}

	users := map[uuid.UUID]*user.User{}
	if output.Author != nil {
		users[output.Author.ID] = output.Author
	}
	c.JSON(http.StatusCreated, ToCommentDTO(output.Comment, users))
}

func (h *CommentHandler) ListComments(c *gin.Context) {
	mediaID, ok := parseUUIDParam(c, "mediaId")
	if !ok {
		return
	}

	output, err := h.listUC.Execute(c.Request.Context(), mediaID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToCommentDTOs(output.Comments, output.Authors))
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("userID not found in context", nil))
		return
	}
	mediaID, ok := parseUUIDParam(c, "mediaId")
	if !ok {
		return
	}
	commentID, ok := parseUUIDParam(c, "commentId")
	if !ok {
		return
	}

	err := h.deleteUC.Execute(c.Request.Context(), commentUC.DeleteCommentInput{
		MediaID:     mediaID,
		CommentID:   commentID,
		RequesterID: userID,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
