// Package imagestore copies generated images into S3-compatible object
// storage. Provider image URLs expire after about an hour; mirrored copies
// do not.
package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/lmojica26/womenhealthytips.com/internal/config"
	"github.com/lmojica26/womenhealthytips.com/internal/retry"
)

const (
	maxImageBytes   = 20 << 20
	downloadRetries = 2
	defaultRegion   = "us-east-1"
)

// ErrImageTooLarge is returned when a source image exceeds the size limit.
var ErrImageTooLarge = errors.New("image exceeds size limit")

type objectPutter interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts miniogo.PutObjectOptions) (miniogo.UploadInfo, error)
}

// Store mirrors images into one bucket.
type Store struct {
	client  *miniogo.Client
	putter  objectPutter
	bucket  string
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

// New connects to the configured endpoint. It does not touch the network;
// call EnsureBucket before first use.
func New(cfg config.StorageConfig, logger *slog.Logger) (*Store, error) {
	if !cfg.Enabled() {
		return nil, errors.New("object storage endpoint and bucket are required")
	}
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: defaultRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	baseURL := cfg.PublicURL
	if baseURL == "" {
		baseURL = strings.TrimRight(client.EndpointURL().String(), "/")
	}

	return &Store{
		client:  client,
		putter:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
		now:     time.Now,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, miniogo.MakeBucketOptions{Region: defaultRegion}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("created image bucket", "bucket", s.bucket)
	return nil
}

// Mirror downloads sourceURL and stores it under generated/YYYY/MM/. It
// returns the public URL of the stored copy.
func (s *Store) Mirror(ctx context.Context, sourceURL string) (string, error) {
	var (
		body        []byte
		contentType string
	)
	err := retry.Do(ctx, retry.Backoff(downloadRetries, isTransient), func(int) error {
		var err error
		body, contentType, err = s.download(ctx, sourceURL)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}

	key := s.objectKey(contentType)
	_, err = s.putter.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), miniogo.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"source": "ai-generated"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	s.logger.Debug("mirrored generated image", "key", key, "bytes", len(body))
	return s.baseURL + "/" + s.bucket + "/" + key, nil
}

type statusError struct{ code int }

func (e statusError) Error() string { return fmt.Sprintf("unexpected status %d", e.code) }

func isTransient(err error) bool {
	var se statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return !errors.Is(err, ErrImageTooLarge) && !errors.Is(err, context.Canceled)
}

func (s *Store) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(body) > maxImageBytes {
		return nil, "", ErrImageTooLarge
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return body, contentType, nil
}

func (s *Store) objectKey(contentType string) string {
	return fmt.Sprintf("generated/%s/%s%s", s.now().UTC().Format("2006/01"), uuid.NewString(), extension(contentType))
}

func extension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".png"
	}
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
