package fsutil

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// IsFileStable reports whether path's mtime is older than stability,
// meaning the producing process has likely finished writing it.
func IsFileStable(path string, stability time.Duration) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return time.Since(info.ModTime()) > stability, nil
}

// IsFileOpen shells out to lsof to check whether any process currently
// holds path open. Errors running lsof are treated as "not open" —
// refusing to ever process a file because lsof itself is misbehaving
// would stall the whole pipeline — but are logged so a failing prober
// doesn't degrade silently. logger may be nil, in which case slog.Default
// is used.
func IsFileOpen(ctx context.Context, path string, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	cmd := exec.CommandContext(ctx, "lsof", path)
	out, err := cmd.Output()
	if err == nil {
		return len(out) > 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		// lsof exits 1 when no process has the file open.
		if exitErr.ExitCode() == 1 {
			return false
		}
	}
	logger.Warn("lsof prober failed, treating file as not open", "path", path, "error", err)
	return false
}
