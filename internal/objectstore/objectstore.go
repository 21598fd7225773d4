package objectstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/crawlchat/crawlchat/internal/model"
)

// Store persists the raw bytes of a crawled or processed document,
// addressed by a caller-chosen key (not by content hash: the same URL
// re-crawled overwrites its previous blob, while dedup.go decides whether
// that re-crawl was worth doing in the first place).
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// FilesystemStore lays blobs out under root at a path derived from the
// SHA-256 of the key (root/ab/cd/<hex digest>), so the key's own path
// segments do not appear on disk. Writes follow the single-writer
// MkdirAll-then-write idiom the teacher uses for its file-backed output
// storage.
type FilesystemStore struct {
	root   string
	logger *slog.Logger
}

func NewFilesystemStore(root string, logger *slog.Logger) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create object store root: %w", err)
	}
	return &FilesystemStore{root: root, logger: logger.With("component", "object_store")}, nil
}

func (s *FilesystemStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	hexSum := hex.EncodeToString(sum[:])
	return filepath.Join(s.root, hexSum[:2], hexSum[2:4], hexSum)
}

func (s *FilesystemStore) Put(ctx context.Context, key string, data []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return &model.ObjectStoreError{Key: key, Op: "put", Err: err}
	}

	tmp := p + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return &model.ObjectStoreError{Key: key, Op: "put", Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return &model.ObjectStoreError{Key: key, Op: "put", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &model.ObjectStoreError{Key: key, Op: "put", Err: err}
	}

	if err := os.Rename(tmp, p); err != nil {
		return &model.ObjectStoreError{Key: key, Op: "put", Err: err}
	}

	s.logger.Debug("object stored", "key", key, "bytes", len(data))
	return nil
}

func (s *FilesystemStore) Get(ctx context.Context, key string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &model.ObjectStoreError{Key: key, Op: "get", Err: os.ErrNotExist}
		}
		return nil, &model.ObjectStoreError{Key: key, Op: "get", Err: err}
	}
	return data, nil
}

func (s *FilesystemStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return &model.ObjectStoreError{Key: key, Op: "delete", Err: err}
	}
	return nil
}
