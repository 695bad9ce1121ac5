package media_storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/khoahotran/mediahub/internal/application/service"
	"github.com/khoahotran/mediahub/internal/config"
	"github.com/khoahotran/mediahub/pkg/logger"
)

const minioNoSuchKey = "NoSuchKey"

type minioAdapter struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

func NewMinIOAdapter(ctx context.Context, cfg config.Config, log logger.Logger) (service.ObjectStorage, error) {
	if cfg.MinIO.Endpoint == "" || cfg.MinIO.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint or bucket has not config")
	}

	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinIO.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to minio server: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIO.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create minio bucket: %w", err)
		}
		log.Info("Created MinIO bucket.", zap.String("bucket", cfg.MinIO.Bucket))
	}

	log.Info("Connect MinIO successfully.", zap.String("endpoint", cfg.MinIO.Endpoint))
	return &minioAdapter{
		client:   client,
		bucket:   cfg.MinIO.Bucket,
		endpoint: cfg.MinIO.Endpoint,
		useSSL:   cfg.MinIO.UseSSL,
	}, nil
}

func (a *minioAdapter) Provider() string { return ProviderMinIO }

func (a *minioAdapter) publicURL(key string) string {
	scheme := "http"
	if a.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, a.endpoint, a.bucket, url.PathEscape(key))
}

func (a *minioAdapter) Upload(ctx context.Context, data []byte, contentType string, key string) (string, error) {
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return a.publicURL(key), nil
}

func (a *minioAdapter) Delete(ctx context.Context, key string) error {
	if _, err := a.client.StatObject(ctx, a.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == minioNoSuchKey {
			return service.ErrObjectNotFound
		}
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if err := a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
