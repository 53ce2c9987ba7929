// Package throttle decides whether a file can be admitted into the
// pipeline given disk headroom and daily/per-run quotas, as a pure
// function over caller-supplied state — no I/O of its own.
package throttle

import "fmt"

// DailyTotals is the subset of the tracker's daily ledger the throttle
// decision needs.
type DailyTotals struct {
	FilesProcessed   int
	VolumeProcessedMB float64
}

// Limits are the configured throttle thresholds. Zero means "no limit" for
// the count/volume fields, matching the original's 0-disables convention.
type Limits struct {
	MinFreeSpaceMB           float64
	MaxFileCountPerDay       int
	MaxFileVolumePerDayMB    float64
	MaxFileCountPerRun       int
	MaxFileVolumePerRunMB    float64
}

// SpaceProbe reports free space, in MB, for a directory. Swappable in
// tests and for RunConfig's mock-free-space overrides.
type SpaceProbe func(path string) float64

// Request describes one candidate file plus the directories it would
// travel through.
type Request struct {
	FileSizeMB      float64
	QuarantinePath  string
	DestinationPath string
	HazardPath      string
	PendingVolumeMB float64
}

// Decision mirrors can_process_file's SimpleNamespace result.
type Decision struct {
	CanProcess          bool
	QuarantineHasSpace  bool
	DestinationHasSpace bool
	HazardHasSpace      bool
	DiskError           bool
	DailyLimitExceeded  bool
	DailyLimitMessage   string
	RunLimitExceeded    bool
	RunLimitMessage     string
}

// CheckDirectorySpace reports whether directory has at least fileSizeMB +
// minFreeSpaceMB free, optionally also reserving pendingVolumeMB.
func CheckDirectorySpace(probe SpaceProbe, path string, fileSizeMB, minFreeSpaceMB float64, includePending bool, pendingVolumeMB float64) bool {
	free := probe(path)
	required := fileSizeMB + minFreeSpaceMB
	if includePending {
		required += pendingVolumeMB
	}
	return free >= required
}

// CanProcess decides whether req can be admitted given daily, per-run, and
// disk-space constraints. Quarantine space excludes pending volume
// (quarantined files are already on disk); destination and hazard space
// both reserve it, matching throttler.py's can_process_file exactly.
func CanProcess(probe SpaceProbe, req Request, limits Limits, daily DailyTotals, run DailyTotals) Decision {
	d := Decision{
		QuarantineHasSpace:  true,
		DestinationHasSpace: true,
		HazardHasSpace:      true,
	}

	if limits.MaxFileCountPerDay > 0 && daily.FilesProcessed >= limits.MaxFileCountPerDay {
		d.DailyLimitExceeded = true
		d.DailyLimitMessage = fmt.Sprintf(
			"Daily file count limit (%d) exceeded with %d files already processed",
			limits.MaxFileCountPerDay, daily.FilesProcessed)
	} else if limits.MaxFileVolumePerDayMB > 0 && daily.VolumeProcessedMB+req.FileSizeMB > limits.MaxFileVolumePerDayMB {
		d.DailyLimitExceeded = true
		d.DailyLimitMessage = fmt.Sprintf(
			"Daily volume limit (%.0f MB) would be exceeded with %.2f MB",
			limits.MaxFileVolumePerDayMB, daily.VolumeProcessedMB+req.FileSizeMB)
	}

	if limits.MaxFileCountPerRun > 0 && run.FilesProcessed >= limits.MaxFileCountPerRun {
		d.RunLimitExceeded = true
		d.RunLimitMessage = fmt.Sprintf(
			"Per-run file count limit (%d) exceeded with %d files already processed this run",
			limits.MaxFileCountPerRun, run.FilesProcessed)
	} else if limits.MaxFileVolumePerRunMB > 0 && run.VolumeProcessedMB+req.FileSizeMB > limits.MaxFileVolumePerRunMB {
		d.RunLimitExceeded = true
		d.RunLimitMessage = fmt.Sprintf(
			"Per-run volume limit (%.0f MB) would be exceeded with %.2f MB",
			limits.MaxFileVolumePerRunMB, run.VolumeProcessedMB+req.FileSizeMB)
	}

	d.QuarantineHasSpace = CheckDirectorySpace(probe, req.QuarantinePath, req.FileSizeMB, limits.MinFreeSpaceMB, false, 0)
	d.DestinationHasSpace = CheckDirectorySpace(probe, req.DestinationPath, req.FileSizeMB, limits.MinFreeSpaceMB, true, req.PendingVolumeMB)
	if req.HazardPath != "" {
		d.HazardHasSpace = CheckDirectorySpace(probe, req.HazardPath, req.FileSizeMB, limits.MinFreeSpaceMB, true, req.PendingVolumeMB)
	}

	d.CanProcess = d.QuarantineHasSpace && d.DestinationHasSpace && d.HazardHasSpace &&
		!d.DiskError && !d.DailyLimitExceeded && !d.RunLimitExceeded
	return d
}
