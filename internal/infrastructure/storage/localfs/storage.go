// Package localfs is the object-storage collaborator backed by the local
// filesystem; buckets map to directories under the base path.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Save(_ context.Context, bucket, key string, data io.Reader) error {
	dir := filepath.Join(s.basePath, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create bucket dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, key))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *Storage) Open(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.basePath, bucket, key))
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (s *Storage) Delete(_ context.Context, bucket, key string) error {
	if err := os.Remove(filepath.Join(s.basePath, bucket, key)); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
