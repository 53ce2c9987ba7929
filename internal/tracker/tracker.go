// Package tracker maintains the per-day file-processing ledger: a hash-keyed
// record of every file the pipeline has seen today, daily/run totals, and
// YAML persistence, grounded on daily_processing_tracker.py.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
)

// Outcome is the terminal state of a processed file.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSuspect Outcome = "suspect"
	OutcomeUnknown Outcome = "unknown"
)

// Status is a FileRecord's lifecycle stage.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// FileRecord tracks one file from admission through completion.
type FileRecord struct {
	FilePath        string  `yaml:"file_path"`
	SourcePath      string  `yaml:"source_path"`
	FileSizeMB      float64 `yaml:"file_size_mb"`
	Status          Status  `yaml:"status"`
	QuarantineTime  string  `yaml:"quarantine_time"`
	ProcessTime     string  `yaml:"process_time,omitempty"`
	Outcome         Outcome `yaml:"outcome,omitempty"`
	Error           string  `yaml:"error,omitempty"`
}

// DailyTotals is the persisted running total for one calendar day.
type DailyTotals struct {
	FilesProcessed    int     `yaml:"files_processed"`
	VolumeProcessedMB float64 `yaml:"volume_processed_mb"`
}

// ErrUnknownHash is returned by Complete for a hash that was never
// admitted via AddPending.
var ErrUnknownHash = errors.New("tracker: unknown file hash")

// ErrDuplicateHash is returned by AddPending when the same hash is already
// tracked — two files hashing identically in the same run is treated as a
// rejection of the second insertion, not an overwrite.
var ErrDuplicateHash = errors.New("tracker: duplicate file hash already pending or completed")

// Tracker is not safe for concurrent use without external locking; callers
// serialize access to it (the orchestrator's intake walk and its worker
// goroutines all go through one shared mutex).
type Tracker struct {
	logger *slog.Logger

	dataDirectory string
	trackingFile  string
	today         time.Time
	startTime     time.Time

	dailyTotals DailyTotals

	pendingFiles    int
	pendingVolumeMB float64

	successfulFiles    int
	successfulVolumeMB float64
	failedFiles        int
	failedVolumeMB     float64
	suspectFiles       int
	suspectVolumeMB    float64

	fileRecords map[string]*FileRecord
}

// New loads today's tracking file under dataDirectory, if one exists; the
// file itself is first written by Complete or Close.
func New(dataDirectory string, logger *slog.Logger) (*Tracker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	trackingFile := filepath.Join(dataDirectory, fmt.Sprintf("throttle_%s.yaml", now.Format("2006-01-02")))

	t := &Tracker{
		logger:        logger,
		dataDirectory: dataDirectory,
		trackingFile:  trackingFile,
		today:         today,
		startTime:     now,
		fileRecords:   make(map[string]*FileRecord),
	}

	totals, err := loadDailyTotals(trackingFile)
	if err != nil {
		logger.Error("loading tracking data", "file", trackingFile, "error", err)
		t.dailyTotals = DailyTotals{}
	} else {
		t.dailyTotals = totals
	}

	return t, nil
}

// TotalFilesCount returns today's file count, optionally including files
// still pending and/or an additional hypothetical count.
func (t *Tracker) TotalFilesCount(includePending bool, includeAdditional int) int {
	n := t.dailyTotals.FilesProcessed + includeAdditional
	if includePending {
		n += t.pendingFiles
	}
	return n
}

// TotalVolumeMB returns today's processed volume, optionally including
// pending volume and/or an additional hypothetical amount.
func (t *Tracker) TotalVolumeMB(includePending bool, includeAdditionalMB float64) float64 {
	v := t.dailyTotals.VolumeProcessedMB + includeAdditionalMB
	if includePending {
		v += t.pendingVolumeMB
	}
	return v
}

// PendingVolumeMB reports the volume of files currently admitted but not
// yet completed, for throttle.Request.PendingVolumeMB.
func (t *Tracker) PendingVolumeMB() float64 {
	return t.pendingVolumeMB
}

// AddPending registers a newly admitted file under fileHash. It fails if
// fileHash is already tracked, rejecting the second insertion rather than
// silently overwriting the first (two files with identical content
// reaching intake in the same run are not the same file).
func (t *Tracker) AddPending(filePath, sourcePath string, fileSizeMB float64, fileHash string) error {
	if _, exists := t.fileRecords[fileHash]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHash, fileHash)
	}

	t.pendingFiles++
	t.pendingVolumeMB += fileSizeMB

	t.fileRecords[fileHash] = &FileRecord{
		FilePath:       filePath,
		SourcePath:     filepath.Base(sourcePath),
		FileSizeMB:     fileSizeMB,
		Status:         StatusPending,
		QuarantineTime: time.Now().Format(time.RFC3339),
	}
	t.logger.Debug("added pending file", "path", filePath, "size_mb", fileSizeMB, "hash", fileHash)
	return nil
}

// Complete moves fileHash from pending to completed with the given
// outcome, updates outcome-specific and daily counters, and persists the
// updated totals.
func (t *Tracker) Complete(fileHash string, outcome Outcome, completionErr error) error {
	record, ok := t.fileRecords[fileHash]
	if !ok {
		t.logger.Warn("file hash not found in tracking records", "hash", fileHash)
		return fmt.Errorf("%w: %s", ErrUnknownHash, fileHash)
	}

	record.Status = StatusCompleted
	record.ProcessTime = time.Now().Format(time.RFC3339)
	record.Outcome = outcome
	if completionErr != nil {
		record.Error = completionErr.Error()
	}

	t.pendingFiles--
	t.pendingVolumeMB -= record.FileSizeMB

	switch outcome {
	case OutcomeSuccess:
		t.successfulFiles++
		t.successfulVolumeMB += record.FileSizeMB
	case OutcomeSuspect:
		t.suspectFiles++
		t.suspectVolumeMB += record.FileSizeMB
	default:
		t.failedFiles++
		t.failedVolumeMB += record.FileSizeMB
	}

	t.dailyTotals.FilesProcessed++
	t.dailyTotals.VolumeProcessedMB += record.FileSizeMB

	if err := t.saveDailyTotals(); err != nil {
		t.logger.Error("saving tracking data", "error", err)
	}

	t.logger.Debug("completed file", "path", record.FilePath, "outcome", outcome)
	return nil
}

// LogRejected logs a file rejected by throttling, without touching any
// counter — matching log_rejected_file's log-only behavior.
func (t *Tracker) LogRejected(filePath, reason string) {
	t.logger.Warn("file rejected due to throttling", "path", filePath, "reason", reason)
}

// Close force-completes any still-pending records (the run was interrupted
// before they finished), then saves the run summary and final totals.
func (t *Tracker) Close() error {
	var pendingHashes []string
	for hash, record := range t.fileRecords {
		if record.Status == StatusPending {
			pendingHashes = append(pendingHashes, hash)
		}
	}
	if len(pendingHashes) > 0 {
		t.logger.Warn("found pending files during shutdown", "count", len(pendingHashes))
		for _, hash := range pendingHashes {
			_ = t.Complete(hash, OutcomeUnknown, errors.New("process terminated before completion"))
		}
	}

	if err := t.saveRunSummary(); err != nil {
		t.logger.Error("saving run summary", "error", err)
	}
	if err := t.saveDailyTotals(); err != nil {
		return err
	}

	t.logger.Info("finalized daily processing tracking", "file", t.trackingFile,
		"daily_files", t.dailyTotals.FilesProcessed, "daily_volume_mb", t.dailyTotals.VolumeProcessedMB)
	return nil
}

func (t *Tracker) runCounters() runCounters {
	return runCounters{
		SuccessfulFiles:    t.successfulFiles,
		SuccessfulVolumeMB: t.successfulVolumeMB,
		FailedFiles:        t.failedFiles,
		FailedVolumeMB:     t.failedVolumeMB,
		SuspectFiles:       t.suspectFiles,
		SuspectVolumeMB:    t.suspectVolumeMB,
		PendingFiles:       t.pendingFiles,
		PendingVolumeMB:    t.pendingVolumeMB,
	}
}
