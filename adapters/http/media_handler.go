package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	mediaUC "github.com/khoahotran/mediahub/internal/application/usecase/media"
	"github.com/khoahotran/mediahub/pkg/apperror"
	"github.com/khoahotran/mediahub/pkg/logger"
)

const mediaFormField = "media"

type MediaHandler struct {
	uploadMediaUC *mediaUC.UploadMediaUseCase
	getMediaUC    *mediaUC.GetMediaUseCase
	listMediaUC   *mediaUC.ListMediaUseCase
	searchMediaUC *mediaUC.SearchMediaUseCase
	deleteMediaUC *mediaUC.DeleteMediaUseCase
	maxBytes      int64
	logger        logger.Logger
}

func NewMediaHandler(
	uploadUC *mediaUC.UploadMediaUseCase,
	getUC *mediaUC.GetMediaUseCase,
	listUC *mediaUC.ListMediaUseCase,
	searchUC *mediaUC.SearchMediaUseCase,
	deleteUC *mediaUC.DeleteMediaUseCase,
	maxBytes int64,
	log logger.Logger,
) *MediaHandler {
	return &MediaHandler{
		uploadMediaUC: uploadUC,
		getMediaUC:    getUC,
		listMediaUC:   listUC,
		searchMediaUC: searchUC,
		deleteMediaUC: deleteUC,
		maxBytes:      maxBytes,
		logger:        log,
	}
}

// parseTags accepts a JSON array string; an empty value means no tags.
func parseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (h *MediaHandler) UploadMedia(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("userID not found in context", nil))
		return
	}

	// Multipart framing adds a little on top of the file itself.
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)
	}

	fileHeader, err := c.FormFile(mediaFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Error(apperror.NewTooLarge(h.maxBytes))
			return
		}
		c.Error(apperror.NewInvalidInput("'media' file is required", err))
		return
	}
	if h.maxBytes > 0 && fileHeader.Size > h.maxBytes {
		c.Error(apperror.NewTooLarge(h.maxBytes))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInternal("failed to open file", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.Error(apperror.NewInternal("failed to read file", err))
		return
	}

	tags, err := parseTags(c.PostForm("tags"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("'tags' must be a JSON array of strings", err))
		return
	}

	output, err := h.uploadMediaUC.Execute(c.Request.Context(), mediaUC.UploadMediaInput{
		CreatorID:   userID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
		Title:       c.PostForm("title"),
		Caption:     c.PostForm("caption"),
		Location:    c.PostForm("location"),
		Tags:        tags,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ToMediaDTO(output.Media, nil))
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

func (h *MediaHandler) ListMedia(c *gin.Context) {
	output, err := h.listMediaUC.Execute(c.Request.Context(), mediaUC.ListMediaInput{
		Page:  queryInt(c, "page"),
		Limit: queryInt(c, "limit"),
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, MediaListResponse{
		Media:       ToMediaDTOs(output.Items, output.Creators),
		CurrentPage: output.CurrentPage,
		TotalPages:  output.TotalPages,
		TotalMedia:  output.TotalCount,
	})
}

func (h *MediaHandler) SearchMedia(c *gin.Context) {
	output, err := h.searchMediaUC.Execute(c.Request.Context(), mediaUC.SearchMediaInput{
		Query:    c.Query("query"),
		Type:     c.Query("type"),
		Location: c.Query("location"),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToMediaDTOs(output.Items, output.Creators))
}

func (h *MediaHandler) GetMedia(c *gin.Context) {
	mediaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid media ID", err))
		return
	}

	output, err := h.getMediaUC.Execute(c.Request.Context(), mediaUC.GetMediaInput{MediaID: mediaID})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToMediaDTO(output.Media, output.Users))
}

func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewUnauthorized("userID not found in context", nil))
		return
	}
	mediaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid media ID", err))
		return
	}

	input := mediaUC.DeleteMediaInput{RequesterID: userID, MediaID: mediaID}
	if err := h.deleteMediaUC.Execute(c.Request.Context(), input); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Media deleted successfully"})
}
