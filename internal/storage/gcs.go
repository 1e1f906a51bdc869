package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	gcstorage "cloud.google.com/go/storage"

	"github.com/yungbote/notescribe-backend/internal/platform/ctxutil"
	"github.com/yungbote/notescribe-backend/internal/platform/gcp"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
)

type gcsStore struct {
	log    *logger.Logger
	client *gcstorage.Client
	bucket string
}

func NewGCS(log *logger.Logger, bucket string) (BlobStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("missing AUDIO_STORAGE_BUCKET")
	}
	client, err := gcstorage.NewClient(context.Background(), gcp.ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &gcsStore{
		log:    log.With("service", "GCSBlobStore"),
		client: client,
		bucket: bucket,
	}, nil
}

func (s *gcsStore) Save(ctx context.Context, name string, data []byte, mimeType string) (string, error) {
	ctx = ctxutil.Default(ctx)
	object := "audio/" + strings.TrimPrefix(name, "/")
	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	if mimeType != "" {
		w.ContentType = mimeType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs close: %w", err)
	}
	return "gs://" + s.bucket + "/" + object, nil
}

func (s *gcsStore) Open(ctx context.Context, path string) ([]byte, error) {
	ctx = ctxutil.Default(ctx)
	object := strings.TrimPrefix(path, "gs://"+s.bucket+"/")
	r, err := s.client.Bucket(s.bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs open: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}
