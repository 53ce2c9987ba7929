package fsutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCopyTempThenRename(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "nested", "dst.txt")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Now().Add(-24 * time.Hour).Truncate(time.Second)
	if err := os.Chtimes(src, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	if err := CopyTempThenRename(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Errorf("copied content = %q, want %q", got, "payload")
	}
	if _, err := os.Stat(dst + ".copying"); !os.IsNotExist(err) {
		t.Errorf("expected temp file to be gone, stat err = %v", err)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Errorf("destination mtime = %v, want %v", info.ModTime(), mtime)
	}
}

func TestRemoveEmptyDirectories(t *testing.T) {
	root := t.TempDir()
	empty := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	nonEmpty := filepath.Join(root, "c")
	if err := os.MkdirAll(nonEmpty, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nonEmpty, "keep.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RemoveEmptyDirectories(root, true); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(root, "a")); !os.IsNotExist(err) {
		t.Errorf("expected empty branch to be removed, stat err = %v", err)
	}
	if _, err := os.Stat(nonEmpty); err != nil {
		t.Errorf("expected non-empty dir to survive: %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("expected root to survive with keepRoot=true: %v", err)
	}
}
