// Package storage abstracts where uploaded audio blobs live: local disk
// by default, a GCS bucket when AUDIO_STORAGE=gcs.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/notescribe-backend/internal/platform/envutil"
	"github.com/yungbote/notescribe-backend/internal/platform/logger"
)

type BlobStore interface {
	// Save writes the blob and returns the storage path persisted on the
	// Audio row.
	Save(ctx context.Context, name string, data []byte, mimeType string) (string, error)
	// Open reads a blob previously written by Save.
	Open(ctx context.Context, path string) ([]byte, error)
}

func NewFromEnv(log *logger.Logger) (BlobStore, error) {
	switch backend := strings.ToLower(envutil.Str("AUDIO_STORAGE", "local")); backend {
	case "local":
		return NewLocal(log, envutil.Str("AUDIO_STORAGE_PATH", "./uploads"))
	case "gcs":
		return NewGCS(log, envutil.Str("AUDIO_STORAGE_BUCKET", ""))
	default:
		return nil, fmt.Errorf("unknown AUDIO_STORAGE backend %q", backend)
	}
}
