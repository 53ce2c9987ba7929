package tracker

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type runCounters struct {
	SuccessfulFiles    int     `yaml:"successful_files"`
	SuccessfulVolumeMB float64 `yaml:"successful_volume_mb"`
	FailedFiles        int     `yaml:"failed_files"`
	FailedVolumeMB     float64 `yaml:"failed_volume_mb"`
	SuspectFiles       int     `yaml:"suspect_files"`
	SuspectVolumeMB    float64 `yaml:"suspect_volume_mb"`
	PendingFiles       int     `yaml:"pending_files"`
	PendingVolumeMB    float64 `yaml:"pending_volume_mb"`
}

type trackingFileDocument struct {
	StartTime string       `yaml:"start_time"`
	Totals    DailyTotals  `yaml:"totals"`
	Metrics   runCounters  `yaml:"metrics"`
}

func loadDailyTotals(path string) (DailyTotals, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DailyTotals{}, nil
		}
		return DailyTotals{}, err
	}
	var doc trackingFileDocument
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return DailyTotals{}, err
	}
	return doc.Totals, nil
}

// saveDailyTotals writes the tracking file via a "<file>.tmp" sibling then
// a rename, the way _save_daily_totals does.
func (t *Tracker) saveDailyTotals() error {
	if err := os.MkdirAll(filepath.Dir(t.trackingFile), 0o755); err != nil {
		return fmt.Errorf("tracker: creating data directory: %w", err)
	}

	doc := trackingFileDocument{
		StartTime: t.startTime.Format(time.RFC3339),
		Totals:    t.dailyTotals,
		Metrics:   t.runCounters(),
	}

	tempFile := t.trackingFile + ".tmp"
	b, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("tracker: marshaling tracking data: %w", err)
	}
	if err := os.WriteFile(tempFile, b, 0o644); err != nil {
		return fmt.Errorf("tracker: writing %s: %w", tempFile, err)
	}
	if err := os.Rename(tempFile, t.trackingFile); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("tracker: renaming %s to %s: %w", tempFile, t.trackingFile, err)
	}
	return nil
}

// RunSummary is the structure written to summary_<date>_<time>.yaml and
// returned for notification purposes.
type RunSummary struct {
	StartTime       string      `yaml:"start_time"`
	EndTime         string      `yaml:"end_time"`
	DurationSeconds float64     `yaml:"duration_seconds"`
	Totals          summaryTotals `yaml:"totals"`
	ProcessingRate  processingRate `yaml:"processing_rate"`
	DailyTotals     DailyTotals `yaml:"daily_totals"`
}

type summaryTotals struct {
	FilesProcessed    int     `yaml:"files_processed"`
	VolumeProcessedMB float64 `yaml:"volume_processed_mb"`
	runCounters       `yaml:",inline"`
}

type processingRate struct {
	FilesPerSecond float64 `yaml:"files_per_second"`
	MBPerSecond    float64 `yaml:"mb_per_second"`
}

// GenerateSummary builds a RunSummary from the tracker's current state,
// the way generate_summary does.
func (t *Tracker) GenerateSummary() RunSummary {
	end := time.Now()
	duration := end.Sub(t.startTime).Seconds()

	return RunSummary{
		StartTime:       t.startTime.Format(time.RFC3339),
		EndTime:         end.Format(time.RFC3339),
		DurationSeconds: duration,
		Totals: summaryTotals{
			FilesProcessed:    t.TotalFilesCount(false, 0),
			VolumeProcessedMB: t.TotalVolumeMB(false, 0),
			runCounters:       t.runCounters(),
		},
		ProcessingRate: processingRate{
			FilesPerSecond: float64(t.dailyTotals.FilesProcessed) / math.Max(1, duration),
			MBPerSecond:    t.dailyTotals.VolumeProcessedMB / math.Max(1, duration),
		},
		DailyTotals: t.dailyTotals,
	}
}

func (t *Tracker) saveRunSummary() error {
	summaryFile := filepath.Join(t.dataDirectory,
		fmt.Sprintf("summary_%s_%s.yaml", t.today.Format("2006-01-02"), time.Now().Format("150405")))

	b, err := yaml.Marshal(t.GenerateSummary())
	if err != nil {
		return fmt.Errorf("tracker: marshaling run summary: %w", err)
	}
	if err := os.WriteFile(summaryFile, b, 0o644); err != nil {
		return fmt.Errorf("tracker: writing %s: %w", summaryFile, err)
	}
	t.logger.Info("saved run summary", "file", summaryFile)
	return nil
}

type exportDocument struct {
	ExportTime    string                 `yaml:"export_time"`
	RunStartTime  string                 `yaml:"run_start_time"`
	Files         map[string]*FileRecord `yaml:"files"`
}

// Export writes every tracked FileRecord, keyed by hash, to path (or, if
// path is empty, to the default export_<date>_<time>.yaml location), and
// returns the path actually written.
func (t *Tracker) Export(path string) (string, error) {
	if path == "" {
		path = filepath.Join(t.dataDirectory,
			fmt.Sprintf("export_%s_%s.yaml", t.today.Format("2006-01-02"), time.Now().Format("150405")))
	}

	doc := exportDocument{
		ExportTime:   time.Now().Format(time.RFC3339),
		RunStartTime: t.startTime.Format(time.RFC3339),
		Files:        t.fileRecords,
	}

	b, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("tracker: marshaling export: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("tracker: writing %s: %w", path, err)
	}
	t.logger.Info("exported file records", "file", path)
	return path, nil
}
