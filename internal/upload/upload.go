package upload

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// URLPrefix is the public path prefix under which stored files are served.
const URLPrefix = "/uploads/"

// Store is a disk-backed upload store. Save returns an opaque reference
// (a /uploads/... path) that the catalog treats as a plain string.
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed and returns a store for it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory files are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data under a fresh timestamp-random name and returns its
// public reference path.
func (s *Store) Save(data []byte, ext string) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating file name: %w", err)
	}
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), hex.EncodeToString(buf), ext)

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return URLPrefix + name, nil
}
