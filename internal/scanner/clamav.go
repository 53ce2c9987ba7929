package scanner

import "context"

// ClamAVAdapter scans files using clamdscan.
type ClamAVAdapter struct {
	Command string
}

// NewClamAVAdapter builds an adapter invoking command (normally
// config.RealClamAVCommand).
func NewClamAVAdapter(command string) *ClamAVAdapter {
	return &ClamAVAdapter{Command: command}
}

// Scan runs `clamdscan --fdpass <path>` and classifies the result by exit
// code: 0 clean, 1 suspect, 2 error, anything else scan-failed.
func (a *ClamAVAdapter) Scan(ctx context.Context, path string) (Result, error) {
	out, err := runArgv(ctx, a.Command, []string{"--fdpass"}, path)
	if err != nil {
		return Result{Verdict: VerdictScanFailed}, err
	}

	switch out.ExitCode {
	case 0:
		return Result{Verdict: VerdictClean}, nil
	case 1:
		return Result{Verdict: VerdictSuspect}, nil
	default:
		return Result{Verdict: VerdictScanFailed}, nil
	}
}
