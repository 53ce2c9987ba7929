package tracker

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestAddPendingAndComplete(t *testing.T) {
	dir := t.TempDir()
	tr, err := New(dir, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	if err := tr.AddPending("/quarantine/a", "/source/a", 5, "hash-a"); err != nil {
		t.Fatal(err)
	}
	if got, want := tr.TotalFilesCount(true, 0), 1; got != want {
		t.Errorf("TotalFilesCount(includePending=true) = %d, want %d", got, want)
	}
	if got, want := tr.TotalFilesCount(false, 0), 0; got != want {
		t.Errorf("TotalFilesCount(includePending=false) = %d, want %d", got, want)
	}
	if got, want := tr.PendingVolumeMB(), 5.0; got != want {
		t.Errorf("PendingVolumeMB() = %v, want %v", got, want)
	}

	if err := tr.Complete("hash-a", OutcomeSuccess, nil); err != nil {
		t.Fatal(err)
	}
	if got, want := tr.PendingVolumeMB(), 0.0; got != want {
		t.Errorf("PendingVolumeMB() after complete = %v, want %v", got, want)
	}
	if got, want := tr.TotalFilesCount(false, 0), 1; got != want {
		t.Errorf("TotalFilesCount() = %d, want %d", got, want)
	}
}

func TestAddPendingDuplicateHashRejected(t *testing.T) {
	dir := t.TempDir()
	tr, err := New(dir, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	if err := tr.AddPending("/quarantine/a", "/source/a", 5, "dup-hash"); err != nil {
		t.Fatal(err)
	}
	err = tr.AddPending("/quarantine/b", "/source/b", 7, "dup-hash")
	if !errors.Is(err, ErrDuplicateHash) {
		t.Fatalf("AddPending() on duplicate hash = %v, want ErrDuplicateHash", err)
	}
}

func TestCompleteUnknownHash(t *testing.T) {
	dir := t.TempDir()
	tr, err := New(dir, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Complete("nonexistent", OutcomeFailed, nil); !errors.Is(err, ErrUnknownHash) {
		t.Fatalf("Complete() on unknown hash = %v, want ErrUnknownHash", err)
	}
}

func TestSaveAndReloadDailyTotals(t *testing.T) {
	dir := t.TempDir()
	tr, err := New(dir, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.AddPending("/quarantine/a", "/source/a", 12.5, "hash-a"); err != nil {
		t.Fatal(err)
	}
	if err := tr.Complete("hash-a", OutcomeSuccess, nil); err != nil {
		t.Fatal(err)
	}

	tr2, err := New(dir, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	want := DailyTotals{FilesProcessed: 1, VolumeProcessedMB: 12.5}
	if diff := cmp.Diff(want, tr2.dailyTotals); diff != "" {
		t.Errorf("reloaded daily totals mismatch (-want +got):\n%s", diff)
	}

	if _, err := os.Stat(tr.trackingFile + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("expected temp file to be cleaned up, stat err = %v", err)
	}
}

func TestCloseCompletesPendingAsUnknown(t *testing.T) {
	dir := t.TempDir()
	tr, err := New(dir, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.AddPending("/quarantine/a", "/source/a", 1, "hash-a"); err != nil {
		t.Fatal(err)
	}

	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}

	record := tr.fileRecords["hash-a"]
	if record.Outcome != OutcomeUnknown {
		t.Errorf("expected unfinished file to close out as %q, got %q", OutcomeUnknown, record.Outcome)
	}
	if record.Status != StatusCompleted {
		t.Errorf("expected unfinished file to be marked completed on close, got %q", record.Status)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "summary_*.yaml"))
	if len(matches) != 1 {
		t.Errorf("expected exactly one summary file, found %v", matches)
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	tr, err := New(dir, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.AddPending("/quarantine/a", "/source/a", 1, "hash-a"); err != nil {
		t.Fatal(err)
	}

	path, err := tr.Export("")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected export file to exist: %v", err)
	}
}
