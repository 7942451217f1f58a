package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveReturnsServableReference(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	ref, err := store.Save([]byte("image bytes"), ".jpg")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(ref, URLPrefix) {
		t.Errorf("expected reference under %q, got %q", URLPrefix, ref)
	}
	if !strings.HasSuffix(ref, ".jpg") {
		t.Errorf("expected .jpg suffix, got %q", ref)
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(), strings.TrimPrefix(ref, URLPrefix)))
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(data) != "image bytes" {
		t.Errorf("saved file content mismatch: %q", data)
	}
}

func TestSaveGeneratesUniqueNames(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		ref, err := store.Save([]byte("x"), ".jpg")
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		if seen[ref] {
			t.Fatalf("duplicate reference %q", ref)
		}
		seen[ref] = true
	}
}

func TestNewStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	if _, err := NewStore(dir); err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected directory to exist: %v", err)
	}
}
