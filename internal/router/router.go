// Package router implements post-scan routing: moving clean files into
// the destination, and archiving or discarding suspect ones, grounded on
// original_source/.../post_scan_processing.py.
package router

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glimps-re/shuttle/internal/fsutil"
)

// Router holds the configuration shared across every file it routes.
type Router struct {
	logger *slog.Logger

	HazardArchivePath       string
	HazardEncryptionKeyPath string
	DeleteSourceFiles       bool
}

// New builds a Router. hazardArchivePath/hazardEncryptionKeyPath may both
// be empty, in which case suspect files are deleted rather than archived.
func New(hazardArchivePath, hazardEncryptionKeyPath string, deleteSourceFiles bool, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		logger:                  logger,
		HazardArchivePath:       hazardArchivePath,
		HazardEncryptionKeyPath: hazardEncryptionKeyPath,
		DeleteSourceFiles:       deleteSourceFiles,
	}
}

// HandleClean moves a clean quarantine file to its destination path, then,
// if DeleteSourceFiles, verifies integrity and removes the source. A
// failed integrity check leaves the source file in place and returns an
// error rather than deleting unverified data.
func (r *Router) HandleClean(quarantineFilePath, sourceFilePath, destinationFilePath string) error {
	if err := fsutil.CopyTempThenRename(quarantineFilePath, destinationFilePath); err != nil {
		return fmt.Errorf("router: copying clean file %s to %s: %w", quarantineFilePath, destinationFilePath, err)
	}

	if !r.DeleteSourceFiles {
		return nil
	}

	result, err := fsutil.VerifyIntegrity(sourceFilePath, destinationFilePath)
	if err != nil {
		return fmt.Errorf("router: verifying integrity of %s: %w", sourceFilePath, err)
	}
	if !result.Success {
		return fmt.Errorf("router: integrity check failed, source file not deleted: %s", sourceFilePath)
	}
	return fsutil.RemoveFileWithLogging(sourceFilePath)
}

// HandleSuspectScanResult handles a scan that found a threat. When
// scannerHandlesSuspect is true, it waits briefly and checks whether the
// scanner already removed the quarantine file itself; if so it defers to
// HandleSuspectSourceFile, otherwise it falls through to archiving the
// quarantine copy directly.
func (r *Router) HandleSuspectScanResult(
	quarantineFilePath, sourceFilePath string,
	scannerHandlesSuspect bool,
	quarantineHash string,
) error {
	scannerHandled := false

	if scannerHandlesSuspect {
		r.logger.Warn("threats found, letting scanner handle it", "path", quarantineFilePath)
		time.Sleep(500 * time.Millisecond)
		if _, err := os.Stat(quarantineFilePath); os.IsNotExist(err) {
			r.logger.Info("scanner has removed the suspect file", "path", quarantineFilePath)
			scannerHandled = true
		} else {
			r.logger.Warn("scanner did not remove the suspect file, handling internally", "path", quarantineFilePath)
		}
	}

	if scannerHandled {
		return r.HandleSuspectSourceFile(sourceFilePath, quarantineHash)
	}

	r.logger.Warn("threats found, handling internally", "path", quarantineFilePath)
	return r.HandleSuspectQuarantineFile(quarantineFilePath, sourceFilePath)
}

// HandleSuspectSourceFile is reached when the scanner has already removed
// the quarantine copy. It archives the source file only if its hash still
// matches the quarantine hash recorded before the scan — a mismatch means
// the source was modified in place and should not be blamed for the
// verdict against the now-gone quarantine copy.
func (r *Router) HandleSuspectSourceFile(sourceFilePath, quarantineHash string) error {
	if _, err := os.Stat(sourceFilePath); os.IsNotExist(err) {
		return nil
	}

	sourceHash, err := fsutil.HashFile(sourceFilePath)
	if err != nil {
		return fmt.Errorf("router: hashing source file %s: %w", sourceFilePath, err)
	}

	if sourceHash != quarantineHash {
		r.logger.Error("hash mismatch for source file, not archiving", "path", sourceFilePath)
		return nil
	}

	r.logger.Error("hash match for source file, archiving", "path", sourceFilePath)
	if err := r.archiveSuspectFile(sourceFilePath); err != nil {
		return fmt.Errorf("router: archiving source file %s: %w", sourceFilePath, err)
	}
	return nil
}

// HandleSuspectQuarantineFile archives the quarantine copy of a suspect
// file (or, absent hazard configuration, deletes it), then optionally
// removes the source. Every step always runs in sequence: log, archive or
// delete, then optionally remove the source — archiving the quarantine
// copy never skips removing the source file.
func (r *Router) HandleSuspectQuarantineFile(quarantineFilePath, sourceFilePath string) error {
	if r.HazardArchivePath != "" && r.HazardEncryptionKeyPath != "" {
		result, err := fsutil.VerifyIntegrity(sourceFilePath, quarantineFilePath)
		if err != nil {
			return fmt.Errorf("router: verifying integrity before archiving %s: %w", quarantineFilePath, err)
		}
		if !result.Success {
			return fmt.Errorf("router: integrity check failed before archiving: %s", quarantineFilePath)
		}

		r.logger.Error("malware detected", "path", quarantineFilePath, "hash", result.HashA)

		if err := r.archiveSuspectFile(quarantineFilePath); err != nil {
			return fmt.Errorf("router: archiving quarantine file %s: %w", quarantineFilePath, err)
		}
	} else {
		r.logger.Warn("no hazard archive path or encryption key configured, deleting infected file",
			"path", quarantineFilePath)
		if err := fsutil.RemoveFileWithLogging(quarantineFilePath); err != nil {
			return fmt.Errorf("router: removing quarantine file %s: %w", quarantineFilePath, err)
		}
	}

	if r.DeleteSourceFiles {
		if err := fsutil.RemoveFileWithLogging(sourceFilePath); err != nil {
			return fmt.Errorf("router: removing source file %s: %w", sourceFilePath, err)
		}
	}
	return nil
}

// archiveSuspectFile encrypts suspectFilePath into the hazard archive and
// removes the original.
func (r *Router) archiveSuspectFile(suspectFilePath string) error {
	if _, err := os.Stat(suspectFilePath); err != nil {
		return fmt.Errorf("cannot archive non-existent file %s: %w", suspectFilePath, err)
	}
	if r.HazardArchivePath == "" || r.HazardEncryptionKeyPath == "" {
		return fmt.Errorf("no hazard archive path or encryption key configured")
	}

	if err := os.MkdirAll(r.HazardArchivePath, 0o755); err != nil {
		return fmt.Errorf("creating hazard archive directory %s: %w", r.HazardArchivePath, err)
	}

	archiveName := fmt.Sprintf("hazard_%s_%s.gpg", filepath.Base(suspectFilePath), time.Now().Format("20060102150405"))
	archivePath := filepath.Join(r.HazardArchivePath, archiveName)

	if err := fsutil.EncryptToRecipient(suspectFilePath, archivePath, r.HazardEncryptionKeyPath); err != nil {
		return fmt.Errorf("encrypting %s: %w", suspectFilePath, err)
	}
	r.logger.Info("successfully encrypted suspect file", "archive", archivePath)

	archiveHash, err := fsutil.HashFile(archivePath)
	if err != nil {
		r.logger.Warn("could not hash archive after encryption", "archive", archivePath, "error", err)
	} else {
		r.logger.Info("suspect file archive hash", "archive", archivePath, "hash", archiveHash)
	}

	return fsutil.RemoveFileWithLogging(suspectFilePath)
}
