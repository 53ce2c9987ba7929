package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/glimps-re/shuttle/internal/config"
	"github.com/glimps-re/shuttle/internal/notify"
)

func TestNewRecordsWarningsIntoTracker(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()

	cfg := config.Default()
	cfg.LogFormat = "json"
	tracker := notify.NewErrorTracker()

	logger := New(cfg, w, tracker, notify.ErrorTypeFilesystem)
	logger.Warn("disk almost full")
	w.Close()

	var buf bytes.Buffer
	buf.ReadFrom(r)
	if buf.Len() == 0 {
		t.Error("expected the warning to also reach the base handler")
	}

	active := tracker.Active()
	if active[notify.ErrorTypeFilesystem] == "" {
		t.Error("expected the warning to be recorded in the tracker")
	}
}

func TestNewWithoutTrackerStillLogs(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()

	cfg := config.Default()
	logger := New(cfg, w, nil, "")
	logger.Info("hello")
	w.Close()

	var buf bytes.Buffer
	buf.ReadFrom(r)
	if buf.Len() == 0 {
		t.Error("expected a log line to be written")
	}
}
