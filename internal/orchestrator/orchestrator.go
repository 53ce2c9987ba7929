// Package orchestrator wires every other package into the end-to-end run:
// lock acquisition, startup checks, directory intake, throttle-gated
// admission, worker-pool scanning/routing, cleanup, and summary
// notification. Grounded on shuttle.py's overall run sequence.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/glimps-re/shuttle/internal/config"
	"github.com/glimps-re/shuttle/internal/fsutil"
	"github.com/glimps-re/shuttle/internal/metrics"
	"github.com/glimps-re/shuttle/internal/notify"
	"github.com/glimps-re/shuttle/internal/pool"
	"github.com/glimps-re/shuttle/internal/router"
	"github.com/glimps-re/shuttle/internal/scanner"
	"github.com/glimps-re/shuttle/internal/throttle"
	"github.com/glimps-re/shuttle/internal/tracker"
)

// Run executes one complete shuttle pass: lock, checks, intake, scan,
// route, cleanup, notify. It returns a non-nil error for any startup
// failure; per-file failures are tracked and summarized instead of
// aborting the run. collector may be nil, in which case no metrics are
// recorded.
func Run(ctx context.Context, cfg config.RunConfig, logger *slog.Logger, notifier notify.Notifier, ledgerGate LedgerGate, collector *metrics.Collector) (err error) {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}

	runID := uuid.New().String()
	logger = logger.With("run_id", runID)

	lock, err := AcquireLock(cfg.LockFilePath)
	if err != nil {
		return err
	}
	defer lock.Release()

	if err := CheckToolPresence(cfg); err != nil {
		return err
	}
	if err := EnsureDirectories(cfg); err != nil {
		return err
	}
	if err := CheckHazardKey(cfg); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := CheckDefenderLedger(ctx, cfg, ledgerGate); err != nil {
		return err
	}

	if cfg.UsingSimulator() {
		logger.Warn("running with a simulator scanner command configured")
	}

	trk, err := tracker.New(cfg.DailyProcessingTrackerLogsPath, logger)
	if err != nil {
		return fmt.Errorf("orchestrator: initializing tracker: %w", err)
	}
	defer func() {
		if closeErr := trk.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	pipeline := &Pipeline{
		Router: router.New(cfg.HazardArchivePath, cfg.HazardEncryptionKeyPath, cfg.DeleteSourceFiles, logger),
	}
	if cfg.OnDemandDefender {
		pipeline.Defender = scanner.NewDefenderAdapter(cfg.DefenderCommand, cfg.DefenderHandlesSuspectFiles)
	}
	if cfg.OnDemandClamAV {
		pipeline.ClamAV = scanner.NewClamAVAdapter(cfg.ClamAVCommand)
	}

	probe := spaceProbe(cfg)
	limits := throttle.Limits{
		MinFreeSpaceMB:        cfg.ThrottleFreeSpaceMB,
		MaxFileCountPerDay:    cfg.ThrottleMaxFileCountPerDay,
		MaxFileVolumePerDayMB: cfg.ThrottleMaxFileVolumePerDayMB,
		MaxFileCountPerRun:    cfg.ThrottleMaxFileCountPerRun,
		MaxFileVolumePerRunMB: cfg.ThrottleMaxFileVolumePerRunMB,
	}

	p := pool.New(cfg.MaxScanThreads)
	p.Start(ctx)

	if collector != nil {
		collector.SetRunningSince(time.Now().Unix())
	}

	var runTotals tracker.DailyTotals
	var trkMu sync.Mutex
	var stopReason string

	walkErr := filepath.WalkDir(cfg.SourcePath, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(cfg.SourcePath, path)
		if relErr != nil {
			rel = filepath.Base(path)
		}

		stop, reason := admitFile(ctx, admitArgs{
			cfg:        cfg,
			sourcePath: path,
			relPath:    rel,
			probe:      probe,
			limits:     limits,
			trk:        trk,
			runTotals:  &runTotals,
			pipeline:   pipeline,
			pool:       p,
			logger:     logger,
			trkMu:      &trkMu,
			collector:  collector,
		})
		if stop {
			stopReason = reason
			return errStopWalk
		}
		return nil
	})
	stoppedEarly := walkErr == errStopWalk
	if walkErr != nil && !stoppedEarly {
		logger.Error("walking source directory", "error", walkErr)
	}

	poolErrs := p.Close()
	for _, perr := range poolErrs {
		logger.Error("worker task failed", "error", perr)
	}

	if rmErr := fsutil.RemoveEmptyDirectories(cfg.SourcePath, true); rmErr != nil {
		logger.Error("pruning empty source directories", "error", rmErr)
	}

	if cfg.ExportRecords {
		if _, exportErr := trk.Export(""); exportErr != nil {
			logger.Error("exporting tracking records", "error", exportErr)
		}
	}

	summary := trk.GenerateSummary()
	anyFailures := summary.Totals.FailedFiles > 0

	if cfg.NotifySummary || stoppedEarly || anyFailures {
		body := fmt.Sprintf("run %s finished in %.1fs: %d succeeded, %d suspect, %d failed",
			runID, summary.DurationSeconds,
			summary.Totals.SuccessfulFiles, summary.Totals.SuspectFiles, summary.Totals.FailedFiles)
		if stoppedEarly {
			body += fmt.Sprintf("; intake stopped early: %s", stopReason)
		}
		subject := "shuttle run summary"
		if cfg.UsingSimulator() {
			subject = "[SIMULATION MODE] " + subject
			body = "WARNING: SIMULATION MODE\n" +
				"A scanner command is redirected to a simulator; files were not scanned by a real antivirus.\n\n" + body
		}
		if notifyErr := notifier.Notify(ctx, subject, body); notifyErr != nil {
			logger.Error("sending summary notification", "error", notifyErr)
		}
	}

	return err
}

// errStopWalk is a sentinel used to unwind filepath.WalkDir when a
// stop-class throttle decision (disk full, daily limit) means the rest of
// the walk should be abandoned rather than merely skipping one file.
var errStopWalk = fmt.Errorf("orchestrator: stopping intake walk")

func spaceProbe(cfg config.RunConfig) throttle.SpaceProbe {
	return func(path string) float64 {
		switch path {
		case cfg.QuarantinePath:
			if cfg.MockFreeSpaceQuarantineMB != nil {
				return *cfg.MockFreeSpaceQuarantineMB
			}
		case cfg.DestinationPath:
			if cfg.MockFreeSpaceDestinationMB != nil {
				return *cfg.MockFreeSpaceDestinationMB
			}
		case cfg.HazardArchivePath:
			if cfg.MockFreeSpaceHazardMB != nil {
				return *cfg.MockFreeSpaceHazardMB
			}
		}
		return realFreeSpaceMB(path)
	}
}

func realFreeSpaceMB(path string) float64 {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return 0
	}
	free, err := diskFreeMB(path)
	if err != nil {
		return 0
	}
	return free
}
