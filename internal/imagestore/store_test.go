package imagestore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmojica26/womenhealthytips.com/internal/config"
	"github.com/lmojica26/womenhealthytips.com/internal/logging"
)

type fakePutter struct {
	bucket, key string
	body        []byte
	opts        miniogo.PutObjectOptions
}

func (f *fakePutter) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, opts miniogo.PutObjectOptions) (miniogo.UploadInfo, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return miniogo.UploadInfo{}, err
	}
	f.bucket, f.key, f.body, f.opts = bucket, key, b, opts
	return miniogo.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func newTestStore(p objectPutter) *Store {
	return &Store{
		putter:  p,
		bucket:  "images",
		baseURL: "https://cdn.example.com",
		http:    http.DefaultClient,
		logger:  logging.Discard(),
		now:     func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) },
	}
}

func TestMirror(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer src.Close()

	p := &fakePutter{}
	url, err := newTestStore(p).Mirror(context.Background(), src.URL+"/img.jpg")
	require.NoError(t, err)

	assert.Equal(t, "images", p.bucket)
	assert.True(t, strings.HasPrefix(p.key, "generated/2025/03/"), p.key)
	assert.True(t, strings.HasSuffix(p.key, ".jpg"), p.key)
	assert.Equal(t, []byte("jpeg-bytes"), p.body)
	assert.Equal(t, "image/jpeg", p.opts.ContentType)
	assert.Equal(t, "https://cdn.example.com/images/"+p.key, url)
}

func TestMirrorDoesNotRetryClientErrors(t *testing.T) {
	hits := 0
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.NotFound(w, r)
	}))
	defer src.Close()

	p := &fakePutter{}
	_, err := newTestStore(p).Mirror(context.Background(), src.URL)
	require.Error(t, err)
	assert.Equal(t, 1, hits)
	assert.Empty(t, p.key)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(statusError{code: 503}))
	assert.True(t, isTransient(statusError{code: 429}))
	assert.False(t, isTransient(statusError{code: 403}))
	assert.False(t, isTransient(ErrImageTooLarge))
	assert.True(t, isTransient(io.ErrUnexpectedEOF))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".png", extension("image/png"))
	assert.Equal(t, ".webp", extension("image/webp; charset=binary"))
	assert.Equal(t, ".png", extension(""))
}

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := New(config.StorageConfig{Bucket: "images"}, logging.Discard())
	assert.Error(t, err)

	s, err := New(config.StorageConfig{Endpoint: "localhost:9000", Bucket: "images"}, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", s.baseURL)
}
