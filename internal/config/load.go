package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"gopkg.in/ini.v1"
)

// EnvConfigPath is the environment variable naming an explicit config file.
const EnvConfigPath = "SHUTTLE_CONFIG_PATH"

// StandardConfigLocations are searched, in order, when EnvConfigPath is
// unset.
func StandardConfigLocations() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".config", "shuttle", "config.conf"),
		filepath.Join(home, ".shuttle", "config.conf"),
		filepath.Join(home, ".shuttle", "settings.ini"),
		"/etc/shuttle/config.conf",
		"/usr/local/etc/shuttle/config.conf",
	}
}

// Load resolves a RunConfig from CLI arguments, an optional config file,
// and defaults, CLI taking precedence over file taking precedence over
// default.
func Load(args []string) (cfg RunConfig, err error) {
	cfg = Default()

	if path := locateConfigFile(); path != "" {
		if ferr := mergeFile(&cfg, path); ferr != nil {
			err = fmt.Errorf("config: reading %s: %w", path, ferr)
			return
		}
	}

	if cerr := mergeCLI(&cfg, args); cerr != nil {
		err = fmt.Errorf("config: parsing flags: %w", cerr)
		return
	}

	return cfg, nil
}

func locateConfigFile() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	for _, p := range StandardConfigLocations() {
		if _, statErr := os.Stat(p); statErr == nil {
			return p
		}
	}
	return ""
}

// mergeFile overlays an INI file's [shuttle] section onto cfg using the
// same mapstructure tags the CLI flags use, so a file option and a CLI
// flag share one semantic name.
func mergeFile(cfg *RunConfig, path string) error {
	f, err := ini.Load(path)
	if err != nil {
		return err
	}
	section := f.Section("shuttle")
	raw := make(map[string]any, len(section.Keys()))
	for _, k := range section.Keys() {
		raw[k.Name()] = k.Value()
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(DurationMapstructureHook()),
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// mergeCLI overlays flags the caller actually passed (pflag.Changed) onto
// cfg, so unset flags never clobber the file/default layers.
func mergeCLI(cfg *RunConfig, args []string) error {
	fs := pflag.NewFlagSet("shuttle", pflag.ContinueOnError)

	str := func(name string, dst *string) { fs.String(name, *dst, "") }
	bl := func(name string, dst *bool) { fs.Bool(name, *dst, "") }
	in := func(name string, dst *int) { fs.Int(name, *dst, "") }
	fl := func(name string, dst *float64) { fs.Float64(name, *dst, "") }

	str("source-path", &cfg.SourcePath)
	str("destination-path", &cfg.DestinationPath)
	str("quarantine-path", &cfg.QuarantinePath)
	str("hazard-archive-path", &cfg.HazardArchivePath)
	str("hazard-encryption-key-path", &cfg.HazardEncryptionKeyPath)
	bl("delete-source-files", &cfg.DeleteSourceFiles)
	in("max-scan-threads", &cfg.MaxScanThreads)
	bl("on-demand-defender", &cfg.OnDemandDefender)
	bl("on-demand-clamav", &cfg.OnDemandClamAV)
	bl("defender-handles-suspect-files", &cfg.DefenderHandlesSuspectFiles)
	bl("throttle", &cfg.Throttle)
	fl("throttle-free-space-mb", &cfg.ThrottleFreeSpaceMB)
	in("throttle-max-file-count-per-day", &cfg.ThrottleMaxFileCountPerDay)
	fl("throttle-max-file-volume-per-day-mb", &cfg.ThrottleMaxFileVolumePerDayMB)
	in("throttle-max-file-count-per-run", &cfg.ThrottleMaxFileCountPerRun)
	fl("throttle-max-file-volume-per-run-mb", &cfg.ThrottleMaxFileVolumePerRunMB)
	str("daily-processing-tracker-logs-path", &cfg.DailyProcessingTrackerLogsPath)
	bl("export-records", &cfg.ExportRecords)
	bl("skip-stability-check", &cfg.SkipStabilityCheck)
	str("lock-file", &cfg.LockFilePath)
	bl("notify-summary", &cfg.NotifySummary)
	str("log-level", &cfg.LogLevel)
	str("log-format", &cfg.LogFormat)
	str("ops-listen-addr", &cfg.OpsListenAddr)

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *pflag.Flag) {
		applyFlag(cfg, f)
	})
	return nil
}

// applyFlag copies one changed flag's value back onto cfg. Using
// reflection here (rather than one switch arm per field) keeps the flag
// table above as the single source of truth for flag names.
func applyFlag(cfg *RunConfig, f *pflag.Flag) {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := range t.NumField() {
		tag := t.Field(i).Tag.Get("mapstructure")
		if tag != f.Name {
			continue
		}
		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(f.Value.String())
		case reflect.Bool:
			field.SetBool(f.Value.String() == "true")
		case reflect.Int:
			if iv, ok := f.Value.(interface{ Type() string }); ok && iv.Type() == "int" {
				if n, err := fs64(f.Value.String()); err == nil {
					field.SetInt(int64(n))
				}
			}
		case reflect.Float64:
			if n, err := fs64(f.Value.String()); err == nil {
				field.SetFloat(n)
			}
		}
		return
	}
}

func fs64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(s, "%g", &f)
	return f, err
}
