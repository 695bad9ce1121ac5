package media_storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/internal/application/service"
	"github.com/khoahotran/mediahub/internal/config"
	"github.com/khoahotran/mediahub/pkg/logger"
)

const cloudinaryNotFound = "not found"

type cloudinaryAdapter struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger logger.Logger
}

func NewCloudinaryAdapter(cfg config.Config, log logger.Logger) (service.ObjectStorage, error) {

	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name has not config")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}

	log.Info("Connect Cloudinary successfully.", zap.String("folder", cfg.Cloudinary.Folder))
	return &cloudinaryAdapter{cld: cld, folder: cfg.Cloudinary.Folder, logger: log}, nil
}

func (a *cloudinaryAdapter) Provider() string { return ProviderCloudinary }

// publicID drops the file extension; Cloudinary appends the format itself.
func publicID(key string) string {
	return strings.TrimSuffix(key, path.Ext(key))
}

func (a *cloudinaryAdapter) fullPublicID(key string) string {
	if a.folder == "" {
		return publicID(key)
	}
	return a.folder + "/" + publicID(key)
}

func (a *cloudinaryAdapter) Upload(ctx context.Context, data []byte, contentType string, key string) (string, error) {
	uploadParams := uploader.UploadParams{
		PublicID:     publicID(key),
		Folder:       a.folder,
		ResourceType: "auto",
	}
	result, err := a.cld.Upload.Upload(ctx, bytes.NewReader(data), uploadParams)
	if err != nil {
		return "", fmt.Errorf("failed to upload cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload cloudinary: %s", result.Error.Message)
	}
	return result.SecureURL, nil
}

// Delete has to name the resource type, so it tries image first and then video.
func (a *cloudinaryAdapter) Delete(ctx context.Context, key string) error {
	id := a.fullPublicID(key)
	for _, resourceType := range []string{"image", "video"} {
		result, err := a.cld.Upload.Destroy(ctx, uploader.DestroyParams{
			PublicID:     id,
			ResourceType: resourceType,
		})
		if err != nil {
			return fmt.Errorf("failed to delete cloudinary: %w", err)
		}
		if result.Error.Message != "" {
			return fmt.Errorf("failed to delete cloudinary: %s", result.Error.Message)
		}
		if result.Result != cloudinaryNotFound {
			return nil
		}
	}
	a.logger.Debug("cloudinary object already gone", zap.String("public_id", id))
	return service.ErrObjectNotFound
}
