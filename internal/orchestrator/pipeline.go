package orchestrator

import (
	"context"
	"fmt"

	"github.com/glimps-re/shuttle/internal/fsutil"
	"github.com/glimps-re/shuttle/internal/router"
	"github.com/glimps-re/shuttle/internal/scanner"
)

// FileTask is one admitted file's three working paths.
type FileTask struct {
	QuarantineFilePath  string
	SourceFilePath      string
	DestinationFilePath string
}

// Pipeline scans and routes one admitted file, grounded on
// scanning.py's scan_and_process_file.
type Pipeline struct {
	Defender *scanner.DefenderAdapter
	ClamAV   *scanner.ClamAVAdapter
	Router   *router.Router
}

// processOutcome is what the pipeline reports back to the caller for
// tracker bookkeeping.
type processOutcome int

const (
	outcomeSuccess processOutcome = iota
	outcomeSuspect
	outcomeFailed
)

// ProcessFile scans task.QuarantineFilePath and routes it to either the
// destination (clean) or the hazard archive/deletion (suspect), returning
// the outcome for the tracker and any unexpected error.
func (p *Pipeline) ProcessFile(ctx context.Context, task FileTask) (processOutcome, error) {
	if p.Defender == nil && p.ClamAV == nil {
		return outcomeFailed, fmt.Errorf("orchestrator: no scanner configured")
	}

	quarantineHash, err := fsutil.HashFile(task.QuarantineFilePath)
	if err != nil {
		return outcomeFailed, fmt.Errorf("orchestrator: hashing %s: %w", task.QuarantineFilePath, err)
	}

	suspectDetected := false
	scannerHandling := false

	if p.Defender != nil {
		result, err := p.Defender.Scan(ctx, task.QuarantineFilePath)
		if err != nil {
			return outcomeFailed, fmt.Errorf("orchestrator: defender scan of %s: %w", task.QuarantineFilePath, err)
		}
		switch result.Verdict {
		case scanner.VerdictSuspect:
			suspectDetected = true
			scannerHandling = result.ScannerHandled
		case scanner.VerdictNotFound:
			// Defender reported the file missing without being configured
			// to handle suspects internally — nothing else could have
			// removed it, so this is treated as a failure rather than a
			// silent skip.
			return outcomeFailed, fmt.Errorf("orchestrator: defender reported %s not found", task.QuarantineFilePath)
		case scanner.VerdictScanFailed:
			return outcomeFailed, fmt.Errorf("orchestrator: defender scan failed for %s", task.QuarantineFilePath)
		}
	}

	if !suspectDetected && p.ClamAV != nil {
		result, err := p.ClamAV.Scan(ctx, task.QuarantineFilePath)
		if err != nil {
			return outcomeFailed, fmt.Errorf("orchestrator: clamav scan of %s: %w", task.QuarantineFilePath, err)
		}
		if result.Verdict == scanner.VerdictSuspect {
			suspectDetected = true
		} else if result.Verdict == scanner.VerdictScanFailed {
			return outcomeFailed, fmt.Errorf("orchestrator: clamav scan failed for %s", task.QuarantineFilePath)
		}
	}

	if suspectDetected {
		if err := p.Router.HandleSuspectScanResult(
			task.QuarantineFilePath, task.SourceFilePath, scannerHandling, quarantineHash,
		); err != nil {
			return outcomeFailed, err
		}
		return outcomeSuspect, nil
	}

	if err := p.Router.HandleClean(task.QuarantineFilePath, task.SourceFilePath, task.DestinationFilePath); err != nil {
		return outcomeFailed, err
	}
	return outcomeSuccess, nil
}
