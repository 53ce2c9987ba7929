package config

import "testing"

func TestDefaultIsInvalidUntilRequiredFieldsAreSet(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err == nil {
		t.Fatal("expected Default() to fail validation without required paths set")
	}
}

func TestValidateRequiresAtLeastOneScanner(t *testing.T) {
	cfg := minimalValidConfig()
	cfg.OnDemandDefender = false
	cfg.OnDemandClamAV = false
	if err := Validate(cfg); err != ErrNoScannerEnabled {
		t.Errorf("Validate() = %v, want %v", err, ErrNoScannerEnabled)
	}
}

func TestValidateRequiresEncryptionKeyWithHazardPath(t *testing.T) {
	cfg := minimalValidConfig()
	cfg.HazardArchivePath = "/var/shuttle/hazard"
	if err := Validate(cfg); err != ErrHazardKeyMissing {
		t.Errorf("Validate() = %v, want %v", err, ErrHazardKeyMissing)
	}
}

func TestValidateAcceptsAMinimalConfig(t *testing.T) {
	cfg := minimalValidConfig()
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestUsingSimulatorDetectsOverriddenCommands(t *testing.T) {
	cfg := Default()
	if cfg.UsingSimulator() {
		t.Error("Default() commands should not be flagged as simulators")
	}
	cfg.DefenderCommand = "/tmp/fake-mdatp"
	if !cfg.UsingSimulator() {
		t.Error("overriding DefenderCommand should be detected as simulator mode")
	}
}

func minimalValidConfig() RunConfig {
	cfg := Default()
	cfg.SourcePath = "/var/shuttle/source"
	cfg.DestinationPath = "/var/shuttle/destination"
	cfg.QuarantinePath = "/var/shuttle/quarantine"
	cfg.DailyProcessingTrackerLogsPath = "/var/shuttle/tracker"
	cfg.LockFilePath = "/var/shuttle/shuttle.lock"
	return cfg
}
