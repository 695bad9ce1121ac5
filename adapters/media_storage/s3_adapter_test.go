package media_storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/mediahub/pkg/logger"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	size   int
}

func newRecordingS3(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, size: len(body)})
		mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func TestNewS3Uploader_PartSize(t *testing.T) {
	client := s3.New(s3.Options{Region: "us-east-1"})

	small := newS3Uploader(client, 1<<20)
	assert.Equal(t, int64(manager.DefaultUploadPartSize), small.PartSize)

	large := newS3Uploader(client, 50<<20)
	assert.Greater(t, large.PartSize, int64(50<<20))
}

func TestS3Adapter_UploadIsSinglePut(t *testing.T) {
	srv, requests := newRecordingS3(t)
	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  aws.AnonymousCredentials{},
	})
	const maxBytes = 8 << 20
	a := &s3Adapter{
		client:   client,
		uploader: newS3Uploader(client, maxBytes),
		bucket:   "media",
		baseURL:  srv.URL + "/media",
		logger:   logger.NewNop(),
	}

	data := bytes.Repeat([]byte{0xAB}, 6<<20)
	url, err := a.Upload(context.Background(), data, "video/mp4", "1700000000000-clip.mp4")

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/media/1700000000000-clip.mp4", url)
	reqs := requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].method)
	assert.Equal(t, "/media/1700000000000-clip.mp4", reqs[0].path)
	assert.NotContains(t, reqs[0].query, "uploads")
	assert.NotContains(t, reqs[0].query, "partNumber")
	assert.GreaterOrEqual(t, reqs[0].size, len(data))
}
