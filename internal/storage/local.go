package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/notescribe-backend/internal/platform/logger"
)

type localStore struct {
	log *logger.Logger
	dir string
}

func NewLocal(log *logger.Logger, dir string) (BlobStore, error) {
	if dir == "" {
		dir = "./uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &localStore{log: log.With("service", "LocalBlobStore"), dir: dir}, nil
}

func (s *localStore) Save(_ context.Context, name string, data []byte, _ string) (string, error) {
	name = filepath.Base(name)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return path, nil
}

func (s *localStore) Open(_ context.Context, path string) ([]byte, error) {
	// Stored paths are always under the upload dir; reject traversal.
	clean := filepath.Clean(path)
	if !strings.HasPrefix(clean, filepath.Clean(s.dir)) {
		return nil, fmt.Errorf("path %q outside storage dir", path)
	}
	return os.ReadFile(clean)
}
