package scanner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/glimps-re/shuttle/internal/fsutil"
)

// ErrUnsafePath is returned when the path to scan fails the name-safety
// check before ever reaching a subprocess argv.
var ErrUnsafePath = errors.New("scanner: unsafe path")

// processOutput is the captured result of one scanner invocation.
type processOutput struct {
	ExitCode int
	Stdout   string
}

// runArgv runs name with args..., appends path last, and retries only
// process-start failures (the binary missing, fork/exec errors) — never a
// verdict, since a verdict is data, not a transient fault. Grounded on
// sdk/client.go's backoff.Retry usage around its HTTP client.
func runArgv(ctx context.Context, name string, args []string, path string) (processOutput, error) {
	if !fsutil.IsPathnameSafe(path) {
		return processOutput{}, fmt.Errorf("%w: %s", ErrUnsafePath, path)
	}

	argv := append(append([]string{}, args...), path)

	op := func() (processOutput, error) {
		cmd := exec.CommandContext(ctx, name, argv...)
		out, err := cmd.Output()
		if err == nil {
			return processOutput{ExitCode: 0, Stdout: string(out)}, nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The process started and produced a verdict via its exit
			// code; that is not a transient failure to retry.
			return processOutput{ExitCode: exitErr.ExitCode(), Stdout: string(out)}, nil
		}
		// Process failed to start at all (binary missing, etc).
		return processOutput{}, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(10*time.Second),
	)
}

// runArgvNoPath runs name with args... and no trailing path argument, for
// commands like `mdatp version` that don't take a scan target.
func runArgvNoPath(ctx context.Context, name string, args []string) (processOutput, error) {
	op := func() (processOutput, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		out, err := cmd.Output()
		if err == nil {
			return processOutput{ExitCode: 0, Stdout: string(out)}, nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return processOutput{ExitCode: exitErr.ExitCode(), Stdout: string(out)}, nil
		}
		return processOutput{}, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(10*time.Second),
	)
}
