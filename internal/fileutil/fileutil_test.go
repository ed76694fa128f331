package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"scribeq/internal/fileutil"
)

func TestUniqueNameNoCollision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.srt")
	if got := fileutil.UniqueName(path); got != path {
		t.Fatalf("expected original path, got %q", got)
	}
}

func TestUniqueNameAppendsCounter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "output.srt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	first := fileutil.UniqueName(path)
	if first != filepath.Join(dir, "output (1).srt") {
		t.Fatalf("unexpected first variant %q", first)
	}
	if err := os.WriteFile(first, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	second := fileutil.UniqueName(path)
	if second != filepath.Join(dir, "output (2).srt") {
		t.Fatalf("unexpected second variant %q", second)
	}
}

func TestWriteTextCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "out.txt")
	if err := fileutil.WriteText(path, "hello"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestRemoveQuietly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.txt")
	if err := fileutil.RemoveQuietly(path); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := fileutil.RemoveQuietly(path); err != nil {
		t.Fatalf("RemoveQuietly: %v", err)
	}
	if fileutil.Exists(path) {
		t.Fatal("file should be removed")
	}
	if err := fileutil.RemoveQuietly(""); err != nil {
		t.Fatalf("empty path should be a no-op: %v", err)
	}
}
