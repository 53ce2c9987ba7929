package router

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHandleClean_MovesFileAndDeletesSourceOnMatch(t *testing.T) {
	dir := t.TempDir()
	quarantine := filepath.Join(dir, "quarantine", "a.txt")
	source := filepath.Join(dir, "source", "a.txt")
	destination := filepath.Join(dir, "destination", "a.txt")

	os.MkdirAll(filepath.Dir(quarantine), 0o755)
	os.MkdirAll(filepath.Dir(source), 0o755)
	os.WriteFile(quarantine, []byte("payload"), 0o644)
	os.WriteFile(source, []byte("payload"), 0o644)

	r := New("", "", true, nil)
	if err := r.HandleClean(quarantine, source, destination); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(destination); err != nil {
		t.Errorf("expected destination file to exist: %v", err)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Errorf("expected source to be removed after integrity match, stat err = %v", err)
	}
}

func TestHandleClean_KeepsSourceOnIntegrityMismatch(t *testing.T) {
	dir := t.TempDir()
	quarantine := filepath.Join(dir, "quarantine", "a.txt")
	source := filepath.Join(dir, "source", "a.txt")
	destination := filepath.Join(dir, "destination", "a.txt")

	os.MkdirAll(filepath.Dir(quarantine), 0o755)
	os.MkdirAll(filepath.Dir(source), 0o755)
	os.WriteFile(quarantine, []byte("payload"), 0o644)
	os.WriteFile(source, []byte("tampered"), 0o644)

	r := New("", "", true, nil)
	if err := r.HandleClean(quarantine, source, destination); err == nil {
		t.Fatal("expected integrity mismatch to return an error")
	}

	if _, err := os.Stat(source); err != nil {
		t.Errorf("expected source to survive a failed integrity check: %v", err)
	}
}

func TestHandleSuspectQuarantineFile_DeletesWithoutHazardConfig(t *testing.T) {
	dir := t.TempDir()
	quarantine := filepath.Join(dir, "quarantine", "bad.txt")
	source := filepath.Join(dir, "source", "bad.txt")

	os.MkdirAll(filepath.Dir(quarantine), 0o755)
	os.MkdirAll(filepath.Dir(source), 0o755)
	os.WriteFile(quarantine, []byte("malware"), 0o644)
	os.WriteFile(source, []byte("malware"), 0o644)

	r := New("", "", true, nil)
	if err := r.HandleSuspectQuarantineFile(quarantine, source); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(quarantine); !os.IsNotExist(err) {
		t.Errorf("expected quarantine file to be deleted, stat err = %v", err)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Errorf("expected source file to be deleted when DeleteSourceFiles is set, stat err = %v", err)
	}
}

func TestHandleSuspectSourceFile_SkipsArchiveOnHashMismatch(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "bad.txt")
	os.WriteFile(source, []byte("different content"), 0o644)

	r := New(filepath.Join(dir, "hazard"), filepath.Join(dir, "key.asc"), false, nil)
	if err := r.HandleSuspectSourceFile(source, "deadbeef"); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(source); err != nil {
		t.Errorf("expected source to survive a hash mismatch: %v", err)
	}
}

func TestHandleSuspectSourceFile_NoOpWhenAlreadyGone(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "already-gone.txt")

	r := New("", "", false, nil)
	if err := r.HandleSuspectSourceFile(source, "anyhash"); err != nil {
		t.Fatalf("expected no-op for an already-removed source file, got %v", err)
	}
}
