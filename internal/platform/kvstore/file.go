package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// FileStore persists blobs as a single JSON document on disk. Storage failures
// (unwritable path, corrupt file, full disk) are logged and reported as absent
// or unpersisted; in-memory state keeps working for the session.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu     sync.Mutex
	loaded bool
	blobs  map[string]Blob
}

// NewFileStore constructs a store backed by the JSON document at path.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("kvstore: file path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		path:   path,
		logger: logger,
		blobs:  make(map[string]Blob),
	}, nil
}

// Get implements the Store interface.
func (s *FileStore) Get(_ context.Context, key string) (Blob, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Blob{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	blob, ok := s.blobs[key]
	if !ok {
		return Blob{}, false
	}
	dup := blob
	dup.Data = append([]byte(nil), blob.Data...)
	return dup, true
}

// Set implements the Store interface. The write is flushed synchronously so
// the last mutation before a shutdown is the one observed on restart.
func (s *FileStore) Set(_ context.Context, key string, blob Blob) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	stored := blob
	stored.Data = append([]byte(nil), blob.Data...)
	s.blobs[key] = stored
	return s.flushLocked(key)
}

// Delete implements the Store interface.
func (s *FileStore) Delete(_ context.Context, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	if _, ok := s.blobs[key]; !ok {
		return true
	}
	delete(s.blobs, key)
	return s.flushLocked(key)
}

func (s *FileStore) loadLocked() {
	if s.loaded {
		return
	}
	s.loaded = true

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("kvstore read failed", zap.String("path", s.path), zap.Error(err))
		}
		return
	}

	var blobs map[string]Blob
	if err := json.Unmarshal(data, &blobs); err != nil {
		// A corrupt document is discarded rather than partially restored.
		s.logger.Warn("kvstore document corrupt, discarding", zap.String("path", s.path), zap.Error(err))
		return
	}
	s.blobs = blobs
	if s.blobs == nil {
		s.blobs = make(map[string]Blob)
	}
}

func (s *FileStore) flushLocked(key string) bool {
	data, err := json.Marshal(s.blobs)
	if err != nil {
		s.logger.Warn("kvstore encode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.logger.Warn("kvstore mkdir failed", zap.String("key", key), zap.Error(err))
			return false
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.logger.Warn("kvstore write failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}
