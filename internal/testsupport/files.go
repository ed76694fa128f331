package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path holding size bytes of deterministic content derived
// from the file name. Parent directories are created as needed; a size <= 0
// still produces a one-byte file so stat checks see a real file.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}

	pattern := []byte(filepath.Base(path) + "\n")
	content := bytes.Repeat(pattern, int(size/int64(len(pattern)))+1)[:size]
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
