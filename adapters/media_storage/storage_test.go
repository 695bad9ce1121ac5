package media_storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/mediahub/internal/application/service"
	"github.com/khoahotran/mediahub/internal/config"
	"github.com/khoahotran/mediahub/pkg/logger"
	"github.com/khoahotran/mediahub/pkg/metrics"
)

type fakeStorage struct {
	mu        sync.Mutex
	provider  string
	uploadErr error
	deleteErr error
	uploads   int
	deletes   int
}

func (f *fakeStorage) Provider() string { return f.provider }

func (f *fakeStorage) Upload(_ context.Context, _ []byte, _ string, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "https://cdn.example.com/" + key, nil
}

func (f *fakeStorage) Delete(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	return f.deleteErr
}

var testBreakerSettings = BreakerSettings{
	MinRequests:  3,
	FailureRatio: 0.5,
	Interval:     time.Minute,
	Timeout:      time.Minute,
}

func TestBreakerStorage_OpensAfterFailures(t *testing.T) {
	fake := &fakeStorage{provider: "fake", uploadErr: errors.New("provider down")}
	store := NewBreakerStorage(fake, testBreakerSettings, logger.NewNop())

	for i := 0; i < 3; i++ {
		_, err := store.Upload(context.Background(), []byte("x"), "image/png", "k")
		require.Error(t, err)
	}

	_, err := store.Upload(context.Background(), []byte("x"), "image/png", "k")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, fake.uploads)
}

func TestBreakerStorage_MissingObjectDoesNotTrip(t *testing.T) {
	fake := &fakeStorage{provider: "fake", deleteErr: service.ErrObjectNotFound}
	store := NewBreakerStorage(fake, testBreakerSettings, logger.NewNop())

	for i := 0; i < 5; i++ {
		err := store.Delete(context.Background(), "gone")
		assert.ErrorIs(t, err, service.ErrObjectNotFound)
	}
	assert.Equal(t, 5, fake.deletes)
}

func TestBreakerStorage_PassesThroughURL(t *testing.T) {
	store := NewBreakerStorage(&fakeStorage{provider: "fake"}, testBreakerSettings, logger.NewNop())

	url, err := store.Upload(context.Background(), []byte("x"), "video/mp4", "1700000000000-clip.mp4")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/1700000000000-clip.mp4", url)
	assert.Equal(t, "fake", store.Provider())
}

func TestInstrumentedStorage_RecordsOutcome(t *testing.T) {
	fake := &fakeStorage{provider: "instrumented-test"}
	store := NewInstrumentedStorage(fake)

	okBefore := testutil.ToFloat64(metrics.StorageOperations.WithLabelValues("instrumented-test", "upload", "success"))
	missingBefore := testutil.ToFloat64(metrics.StorageOperations.WithLabelValues("instrumented-test", "delete_missing", "success"))

	_, err := store.Upload(context.Background(), []byte("x"), "image/png", "k")
	require.NoError(t, err)

	fake.deleteErr = service.ErrObjectNotFound
	assert.ErrorIs(t, store.Delete(context.Background(), "k"), service.ErrObjectNotFound)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.StorageOperations.WithLabelValues("instrumented-test", "upload", "success")))
	assert.Equal(t, missingBefore+1, testutil.ToFloat64(metrics.StorageOperations.WithLabelValues("instrumented-test", "delete_missing", "success")))
}

func TestNewObjectStorage_UnknownProvider(t *testing.T) {
	var cfg config.Config
	cfg.Storage.Provider = "azure"

	_, err := NewObjectStorage(context.Background(), cfg, logger.NewNop())

	assert.ErrorContains(t, err, "unknown storage provider")
}

func TestNewObjectStorage_MissingCloudinaryConfig(t *testing.T) {
	var cfg config.Config
	cfg.Storage.Provider = "Cloudinary"

	_, err := NewObjectStorage(context.Background(), cfg, logger.NewNop())

	assert.ErrorContains(t, err, "cloud_name")
}

func TestPublicID_DropsExtension(t *testing.T) {
	assert.Equal(t, "1700000000000-clip", publicID("1700000000000-clip.mp4"))
	assert.Equal(t, "1700000000000-photo.jpg_thumb", publicID("1700000000000-photo.jpg_thumb.jpg"))
	assert.Equal(t, "noext", publicID("noext"))

	a := &cloudinaryAdapter{folder: "video-uploads"}
	assert.Equal(t, "video-uploads/1-a", a.fullPublicID("1-a.png"))
}

func TestS3BaseURL(t *testing.T) {
	var cfg config.Config
	cfg.S3.Bucket = "media"
	cfg.S3.Region = "ap-southeast-1"
	assert.Equal(t, "https://media.s3.ap-southeast-1.amazonaws.com", s3BaseURL(cfg))

	cfg.S3.Endpoint = "http://localhost:9000/"
	assert.Equal(t, "http://localhost:9000/media", s3BaseURL(cfg))

	cfg.S3.PublicBaseURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com", s3BaseURL(cfg))
}

func TestMinIOPublicURL(t *testing.T) {
	a := &minioAdapter{bucket: "media", endpoint: "localhost:9000"}
	assert.Equal(t, "http://localhost:9000/media/1-my%20clip.mp4", a.publicURL("1-my clip.mp4"))

	a.useSSL = true
	assert.Equal(t, "https://localhost:9000/media/1-a.png", a.publicURL("1-a.png"))
}
