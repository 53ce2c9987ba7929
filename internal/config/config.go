// Package config defines the shuttle run configuration: a single immutable
// RunConfig built once before the pipeline starts.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// RunConfig is immutable for the lifetime of a run.
type RunConfig struct {
	SourcePath      string `mapstructure:"source-path" validate:"required"`
	DestinationPath string `mapstructure:"destination-path" validate:"required"`
	QuarantinePath  string `mapstructure:"quarantine-path" validate:"required"`

	HazardArchivePath      string `mapstructure:"hazard-archive-path"`
	HazardEncryptionKeyPath string `mapstructure:"hazard-encryption-key-path"`

	DeleteSourceFiles bool `mapstructure:"delete-source-files"`

	MaxScanThreads int `mapstructure:"max-scan-threads" validate:"min=1"`

	OnDemandDefender            bool `mapstructure:"on-demand-defender"`
	OnDemandClamAV              bool `mapstructure:"on-demand-clamav"`
	DefenderHandlesSuspectFiles bool `mapstructure:"defender-handles-suspect-files"`

	// DefenderCommand/ClamAVCommand default to the real binary names.
	// Overriding them (e.g. in tests) is "simulator mode": UsingSimulator
	// compares the configured commands against the real ones, and the
	// orchestrator then logs a warning and puts a simulation banner on the
	// summary notification.
	DefenderCommand string `mapstructure:"defender-command"`
	ClamAVCommand   string `mapstructure:"clamav-command"`

	Throttle                      bool    `mapstructure:"throttle"`
	ThrottleFreeSpaceMB           float64 `mapstructure:"throttle-free-space-mb" validate:"min=0"`
	ThrottleMaxFileCountPerDay    int     `mapstructure:"throttle-max-file-count-per-day" validate:"min=0"`
	ThrottleMaxFileVolumePerDayMB float64 `mapstructure:"throttle-max-file-volume-per-day-mb" validate:"min=0"`
	ThrottleMaxFileCountPerRun    int     `mapstructure:"throttle-max-file-count-per-run" validate:"min=0"`
	ThrottleMaxFileVolumePerRunMB float64 `mapstructure:"throttle-max-file-volume-per-run-mb" validate:"min=0"`

	// Mock free-space overrides, test-only. Nil means "read the real
	// filesystem".
	MockFreeSpaceQuarantineMB  *float64 `mapstructure:"mock-free-space-quarantine-mb"`
	MockFreeSpaceDestinationMB *float64 `mapstructure:"mock-free-space-destination-mb"`
	MockFreeSpaceHazardMB      *float64 `mapstructure:"mock-free-space-hazard-mb"`

	DailyProcessingTrackerLogsPath string `mapstructure:"daily-processing-tracker-logs-path" validate:"required"`
	ExportRecords                  bool   `mapstructure:"export-records"`

	SkipStabilityCheck bool    `mapstructure:"skip-stability-check"`
	StabilitySeconds   Duration `mapstructure:"stability-seconds"`

	LockFilePath string `mapstructure:"lock-file" validate:"required"`

	NotifySummary bool `mapstructure:"notify-summary"`

	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`

	// OpsListenAddr, empty to disable, enables the ambient /healthz and
	// /metrics HTTP server for the duration of the run.
	OpsListenAddr string `mapstructure:"ops-listen-addr"`
}

// Default returns a RunConfig with every non-required field at its
// documented default (the third, lowest-precedence layer of the
// CLI > file > default resolver).
func Default() RunConfig {
	return RunConfig{
		MaxScanThreads:   4,
		OnDemandDefender: true,
		DefenderCommand:  RealDefenderCommand,
		ClamAVCommand:    RealClamAVCommand,
		Throttle:         true,
		StabilitySeconds: Duration(5_000_000_000), // 5s
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

const (
	RealDefenderCommand = "mdatp"
	RealClamAVCommand   = "clamdscan"
)

// UsingSimulator reports whether either scanner command has been redirected
// away from its real binary name ("simulator mode").
func (c RunConfig) UsingSimulator() bool {
	return c.DefenderCommand != RealDefenderCommand || c.ClamAVCommand != RealClamAVCommand
}

func (c RunConfig) SlogLevel() slog.Leveler {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

var (
	ErrNoScannerEnabled   = errors.New("config: at least one of on-demand-defender or on-demand-clamav must be true")
	ErrHazardKeyMissing   = errors.New("config: hazard-archive-path is set but hazard-encryption-key-path is missing")
)

// Validate enforces struct-level requirements beyond what `validate`
// tags can express (the hazard/key pairing, the "at least one scanner"
// rule).
func Validate(c RunConfig) (err error) {
	v, err := newValidator()
	if err != nil {
		return err
	}
	if err = v.Struct(c); err != nil {
		return err
	}
	if !c.OnDemandDefender && !c.OnDemandClamAV {
		return ErrNoScannerEnabled
	}
	if c.HazardArchivePath != "" && c.HazardEncryptionKeyPath == "" {
		return ErrHazardKeyMissing
	}
	return nil
}

func newValidator() (v *validator.Validate, err error) {
	v = validator.New()
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err = en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("config: registering validator translations: %w", err)
	}
	return v, nil
}
