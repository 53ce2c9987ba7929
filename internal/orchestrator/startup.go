package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/glimps-re/shuttle/internal/config"
	"github.com/glimps-re/shuttle/internal/scanner"
)

// ErrMissingTool is returned when a required scanner binary is not on
// PATH.
var ErrMissingTool = errors.New("orchestrator: required scanner tool not found")

// ErrPathNotDirectory is returned when a configured path exists but is not
// a directory.
var ErrPathNotDirectory = errors.New("orchestrator: configured path is not a directory")

// CheckToolPresence verifies that every scanner command RunConfig enables,
// plus the lsof prober that IsFileOpen depends on, is resolvable on PATH.
// A missing lsof is caught here rather than left to silently degrade every
// later open-file check to "not open".
func CheckToolPresence(cfg config.RunConfig) error {
	var missing []string

	if cfg.OnDemandDefender {
		if _, err := exec.LookPath(cfg.DefenderCommand); err != nil {
			missing = append(missing, cfg.DefenderCommand)
		}
	}
	if cfg.OnDemandClamAV {
		if _, err := exec.LookPath(cfg.ClamAVCommand); err != nil {
			missing = append(missing, cfg.ClamAVCommand)
		}
	}
	if _, err := exec.LookPath("lsof"); err != nil {
		missing = append(missing, "lsof")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingTool, missing)
	}
	return nil
}

// EnsureDirectories creates (if missing) and validates that source,
// destination, and quarantine paths exist and are directories.
func EnsureDirectories(cfg config.RunConfig) error {
	for _, path := range []string{cfg.SourcePath, cfg.DestinationPath, cfg.QuarantinePath} {
		if err := ensureDirectory(path); err != nil {
			return err
		}
	}
	if cfg.HazardArchivePath != "" {
		if err := ensureDirectory(cfg.HazardArchivePath); err != nil {
			return err
		}
	}
	return nil
}

func ensureDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return os.MkdirAll(path, 0o755)
	}
	if err != nil {
		return fmt.Errorf("orchestrator: checking path %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrPathNotDirectory, path)
	}
	return nil
}

// CheckHazardKey validates that, when a hazard archive path is configured,
// its encryption key file exists.
func CheckHazardKey(cfg config.RunConfig) error {
	if cfg.HazardArchivePath == "" {
		return nil
	}
	info, err := os.Stat(cfg.HazardEncryptionKeyPath)
	if err != nil {
		return fmt.Errorf("orchestrator: hazard encryption key %s: %w", cfg.HazardEncryptionKeyPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("orchestrator: hazard encryption key %s is a directory", cfg.HazardEncryptionKeyPath)
	}
	return nil
}

// LedgerGate decides whether a freshly seen Defender version is permitted
// to run; its backing store (a version-tested ledger) is out of scope
// here and supplied by the caller. A nil LedgerGate skips the check
// entirely.
type LedgerGate interface {
	IsVersionTested(version string) bool
}

// CheckDefenderLedger probes the Defender version and, if gate is
// non-nil, confirms the ledger has approved it before the run proceeds.
func CheckDefenderLedger(ctx context.Context, cfg config.RunConfig, gate LedgerGate) error {
	if !cfg.OnDemandDefender || gate == nil {
		return nil
	}
	version, err := scanner.DefenderVersion(ctx, cfg.DefenderCommand)
	if err != nil {
		return fmt.Errorf("orchestrator: probing defender version: %w", err)
	}
	if !gate.IsVersionTested(version) {
		return fmt.Errorf("orchestrator: defender version %s has not been approved by the ledger", version)
	}
	return nil
}
