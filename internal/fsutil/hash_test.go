package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got != want {
		t.Errorf("HashFile() = %s, want %s", got, want)
	}
}

func TestVerifyIntegrity(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	c := filepath.Join(dir, "c.txt")
	empty := filepath.Join(dir, "empty.txt")

	os.WriteFile(a, []byte("same"), 0o644)
	os.WriteFile(b, []byte("same"), 0o644)
	os.WriteFile(c, []byte("different"), 0o644)
	os.WriteFile(empty, nil, 0o644)

	t.Run("matching", func(t *testing.T) {
		res, err := VerifyIntegrity(a, b)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Success {
			t.Errorf("expected matching hashes to succeed, got %+v", res)
		}
	})

	t.Run("mismatching", func(t *testing.T) {
		res, err := VerifyIntegrity(a, c)
		if err != nil {
			t.Fatal(err)
		}
		if res.Success {
			t.Errorf("expected mismatching hashes to fail, got %+v", res)
		}
	})

	t.Run("empty file fails without hashing", func(t *testing.T) {
		res, err := VerifyIntegrity(a, empty)
		if err != nil {
			t.Fatal(err)
		}
		if res.Success || res.HashA != "" {
			t.Errorf("expected empty-file comparison to short-circuit, got %+v", res)
		}
	})
}
