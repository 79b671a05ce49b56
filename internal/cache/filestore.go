package cache

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileStore is the production durable layer: one file per key under a single
// directory. Keys are query-escaped into file names so the purpose prefix
// (`notif:`, `members:`, ...) survives round-tripping. Writes are
// subject to disk quota like any local storage; Set surfaces that as an
// error and the cache layer above decides how to degrade.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, url.QueryEscape(key))
}

func (s *FileStore) Get(key string) (string, bool) {
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		return "", false
	}
	return string(b), true
}

func (s *FileStore) Set(key, value string) error {
	return os.WriteFile(s.path(key), []byte(value), 0o644)
}

func (s *FileStore) Delete(key string) {
	_ = os.Remove(s.path(key))
}

func (s *FileStore) Keys(prefix string) []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key, err := url.QueryUnescape(e.Name())
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}
