package media_storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/internal/application/service"
	"github.com/khoahotran/mediahub/internal/config"
	"github.com/khoahotran/mediahub/pkg/logger"
)

type s3Adapter struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	baseURL  string
	logger   logger.Logger
}

func NewS3Adapter(ctx context.Context, cfg config.Config, log logger.Logger) (service.ObjectStorage, error) {
	if cfg.S3.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket has not config")
	}

	awsConfig, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.S3.Region))
	if err != nil {
		return nil, fmt.Errorf("cannot load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	})

	log.Info("Connect S3 successfully.", zap.String("bucket", cfg.S3.Bucket), zap.String("region", cfg.S3.Region))
	return &s3Adapter{
		client:   client,
		uploader: newS3Uploader(client, cfg.MaxUploadBytes()),
		bucket:   cfg.S3.Bucket,
		baseURL:  s3BaseURL(cfg),
		logger:   log,
	}, nil
}

// newS3Uploader sizes parts above the upload limit, so every accepted object
// goes out as a single PutObject.
func newS3Uploader(client manager.UploadAPIClient, maxBytes int64) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		if maxBytes >= u.PartSize {
			u.PartSize = maxBytes + 1
		}
		u.Concurrency = 1
	})
}

func s3BaseURL(cfg config.Config) string {
	switch {
	case cfg.S3.PublicBaseURL != "":
		return strings.TrimRight(cfg.S3.PublicBaseURL, "/")
	case cfg.S3.Endpoint != "":
		return strings.TrimRight(cfg.S3.Endpoint, "/") + "/" + cfg.S3.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3.Bucket, cfg.S3.Region)
	}
}

func (a *s3Adapter) Provider() string { return ProviderS3 }

func (a *s3Adapter) Upload(ctx context.Context, data []byte, contentType string, key string) (string, error) {
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload s3: %w", err)
	}
	return a.baseURL + "/" + url.PathEscape(key), nil
}

// Delete checks existence first because DeleteObject succeeds on missing keys.
func (a *s3Adapter) Delete(ctx context.Context, key string) error {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return service.ErrObjectNotFound
		}
		return fmt.Errorf("failed to stat s3 object: %w", err)
	}

	if _, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete s3: %w", err)
	}
	return nil
}
