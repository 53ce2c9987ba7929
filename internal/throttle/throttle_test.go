package throttle

import "testing"

func fixedProbe(freeMB float64) SpaceProbe {
	return func(string) float64 { return freeMB }
}

func TestCanProcess(t *testing.T) {
	baseReq := Request{
		FileSizeMB:      10,
		QuarantinePath:  "/quarantine",
		DestinationPath: "/destination",
		HazardPath:      "/hazard",
	}
	baseLimits := Limits{MinFreeSpaceMB: 100}

	cases := []struct {
		name   string
		probe  SpaceProbe
		req    Request
		limits Limits
		daily  DailyTotals
		run    DailyTotals
		want   bool
	}{
		{
			name:   "plenty of space, no quotas",
			probe:  fixedProbe(1000),
			req:    baseReq,
			limits: baseLimits,
			want:   true,
		},
		{
			name:   "insufficient destination space",
			probe:  fixedProbe(50),
			req:    baseReq,
			limits: baseLimits,
			want:   false,
		},
		{
			name:   "daily file count limit already reached",
			probe:  fixedProbe(1000),
			req:    baseReq,
			limits: Limits{MinFreeSpaceMB: 100, MaxFileCountPerDay: 5},
			daily:  DailyTotals{FilesProcessed: 5},
			want:   false,
		},
		{
			name:   "daily volume limit would be exceeded",
			probe:  fixedProbe(1000),
			req:    baseReq,
			limits: Limits{MinFreeSpaceMB: 100, MaxFileVolumePerDayMB: 100},
			daily:  DailyTotals{VolumeProcessedMB: 95},
			want:   false,
		},
		{
			name:   "per-run count limit reached",
			probe:  fixedProbe(1000),
			req:    baseReq,
			limits: Limits{MinFreeSpaceMB: 100, MaxFileCountPerRun: 2},
			run:    DailyTotals{FilesProcessed: 2},
			want:   false,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := CanProcess(c.probe, c.req, c.limits, c.daily, c.run)
			if got.CanProcess != c.want {
				t.Errorf("CanProcess() = %+v, want CanProcess=%v", got, c.want)
			}
		})
	}
}

func TestCanProcess_QuarantineExcludesPendingVolume(t *testing.T) {
	// Quarantine space must NOT reserve pending volume (quarantined files
	// are already on disk); destination and hazard must.
	probe := func(path string) float64 {
		if path == "/quarantine" {
			return 115 // enough for file (10) + min free (100), not pending (50) on top
		}
		return 115
	}
	req := Request{
		FileSizeMB:      10,
		QuarantinePath:  "/quarantine",
		DestinationPath: "/destination",
		HazardPath:      "/hazard",
		PendingVolumeMB: 50,
	}
	limits := Limits{MinFreeSpaceMB: 100}

	d := CanProcess(probe, req, limits, DailyTotals{}, DailyTotals{})
	if !d.QuarantineHasSpace {
		t.Errorf("expected quarantine to have space without reserving pending volume, got %+v", d)
	}
	if d.DestinationHasSpace {
		t.Errorf("expected destination to lack space once pending volume is reserved, got %+v", d)
	}
}
