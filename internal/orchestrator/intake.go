package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glimps-re/shuttle/internal/config"
	"github.com/glimps-re/shuttle/internal/fsutil"
	"github.com/glimps-re/shuttle/internal/metrics"
	"github.com/glimps-re/shuttle/internal/pool"
	"github.com/glimps-re/shuttle/internal/throttle"
	"github.com/glimps-re/shuttle/internal/tracker"
)

type admitArgs struct {
	cfg        config.RunConfig
	sourcePath string
	relPath    string
	probe      throttle.SpaceProbe
	limits     throttle.Limits
	trk        *tracker.Tracker
	runTotals  *tracker.DailyTotals
	pipeline   *Pipeline
	pool       *pool.Pool
	logger     *slog.Logger
	trkMu      *sync.Mutex
	collector  *metrics.Collector
}

// admitFile evaluates one discovered file for admission into the
// pipeline, quarantining and submitting it if accepted. It returns true
// when the caller should abandon the rest of the intake walk (a
// disk-space or quota decision that will not improve for subsequent
// files), along with the reason that decision was made for.
func admitFile(ctx context.Context, a admitArgs) (stopWalk bool, stopReason string) {
	if !fsutil.IsPathnameSafe(a.relPath) {
		a.logger.Warn("skipping file with unsafe name", "path", a.relPath)
		return false, ""
	}

	if !a.cfg.SkipStabilityCheck {
		stable, err := fsutil.IsFileStable(a.sourcePath, time.Duration(a.cfg.StabilitySeconds))
		if err != nil {
			a.logger.Warn("skipping file, could not check stability", "path", a.relPath, "error", err)
			return false, ""
		}
		if !stable {
			a.logger.Debug("skipping file still being written", "path", a.relPath)
			return false, ""
		}
	}

	if fsutil.IsFileOpen(ctx, a.sourcePath, a.logger) {
		a.logger.Debug("skipping file currently open by another process", "path", a.relPath)
		return false, ""
	}

	info, err := os.Stat(a.sourcePath)
	if err != nil {
		a.logger.Warn("skipping file, could not stat", "path", a.relPath, "error", err)
		return false, ""
	}
	fileSizeMB := float64(info.Size()) / (1024 * 1024)

	if a.cfg.Throttle {
		a.trkMu.Lock()
		pendingVolume := a.trk.PendingVolumeMB()
		dailyTotals := throttle.DailyTotals{
			FilesProcessed:    a.trk.TotalFilesCount(true, 0),
			VolumeProcessedMB: a.trk.TotalVolumeMB(true, 0),
		}
		a.trkMu.Unlock()

		decision := throttle.CanProcess(a.probe, throttle.Request{
			FileSizeMB:      fileSizeMB,
			QuarantinePath:  a.cfg.QuarantinePath,
			DestinationPath: a.cfg.DestinationPath,
			HazardPath:      a.cfg.HazardArchivePath,
			PendingVolumeMB: pendingVolume,
		}, a.limits, dailyTotals, throttle.DailyTotals(*a.runTotals))

		if !decision.CanProcess {
			reason := decision.DailyLimitMessage
			if reason == "" {
				reason = decision.RunLimitMessage
			}
			if reason == "" {
				reason = "insufficient disk space"
			}
			a.trk.LogRejected(a.relPath, reason)
			return true, reason
		}
	}

	quarantineFilePath := filepath.Join(a.cfg.QuarantinePath, a.relPath)
	if err := fsutil.CopyTempThenRename(a.sourcePath, quarantineFilePath); err != nil {
		a.logger.Error("quarantining file", "path", a.relPath, "error", err)
		return false, ""
	}

	quarantineHash, err := fsutil.HashFile(quarantineFilePath)
	if err != nil {
		a.logger.Error("hashing quarantined file", "path", a.relPath, "error", err)
		return false, ""
	}

	a.trkMu.Lock()
	addErr := a.trk.AddPending(quarantineFilePath, a.sourcePath, fileSizeMB, quarantineHash)
	a.trkMu.Unlock()
	if addErr != nil {
		if errors.Is(addErr, tracker.ErrDuplicateHash) {
			a.logger.Warn("skipping file with duplicate content hash", "path", a.relPath, "hash", quarantineHash)
			os.Remove(quarantineFilePath)
			return false, ""
		}
		a.logger.Error("tracking pending file", "path", a.relPath, "error", addErr)
		return false, ""
	}

	a.runTotals.FilesProcessed++
	a.runTotals.VolumeProcessedMB += fileSizeMB
	if a.collector != nil {
		a.collector.AddAdmitted(info.Size())
	}

	destinationFilePath := filepath.Join(a.cfg.DestinationPath, a.relPath)
	task := FileTask{
		QuarantineFilePath:  quarantineFilePath,
		SourceFilePath:      a.sourcePath,
		DestinationFilePath: destinationFilePath,
	}

	trk := a.trk
	pipeline := a.pipeline
	logger := a.logger
	hash := quarantineHash
	trkMu := a.trkMu
	collector := a.collector

	a.pool.Submit(ctx, func(ctx context.Context) error {
		outcome, procErr := pipeline.ProcessFile(ctx, task)

		var trackerOutcome tracker.Outcome
		switch outcome {
		case outcomeSuccess:
			trackerOutcome = tracker.OutcomeSuccess
		case outcomeSuspect:
			trackerOutcome = tracker.OutcomeSuspect
		default:
			trackerOutcome = tracker.OutcomeFailed
		}
		if collector != nil {
			collector.AddOutcome(outcome == outcomeSuccess, outcome == outcomeSuspect, outcome == outcomeFailed)
		}

		trkMu.Lock()
		completeErr := trk.Complete(hash, trackerOutcome, procErr)
		trkMu.Unlock()
		if completeErr != nil {
			logger.Error("completing tracked file", "path", task.QuarantineFilePath, "error", completeErr)
		}
		return procErr
	})

	return false, ""
}
