package scanner

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const (
	threatFoundPattern = "Threat(s) found"
	fileNotFoundSuffix = "\n\t0 file(s) scanned\n\t0 threat(s) detected"
	noThreatsSuffix    = "\n\t0 threat(s) detected"
)

// DefenderAdapter scans files using Microsoft Defender's on-demand CLI
// (mdatp). Command defaults to the real binary name; tests override it to
// point at a simulator instead.
type DefenderAdapter struct {
	Command                string
	HandlesSuspectInternally bool
}

// NewDefenderAdapter builds an adapter invoking command (normally
// config.RealDefenderCommand) to scan files, with handlesSuspectInternally
// reflecting RunConfig.DefenderHandlesSuspectFiles.
func NewDefenderAdapter(command string, handlesSuspectInternally bool) *DefenderAdapter {
	return &DefenderAdapter{Command: command, HandlesSuspectInternally: handlesSuspectInternally}
}

// Scan runs `mdatp scan custom --ignore-exclusions --path <path>` and
// classifies the result.
func (a *DefenderAdapter) Scan(ctx context.Context, path string) (Result, error) {
	out, err := runArgv(ctx, a.Command, []string{"scan", "custom", "--ignore-exclusions", "--path"}, path)
	if err != nil {
		return Result{Verdict: VerdictScanFailed}, err
	}

	verdict := parseDefenderOutput(out.ExitCode, out.Stdout)
	result := Result{Verdict: verdict}
	if verdict == VerdictSuspect {
		result.ScannerHandled = a.HandlesSuspectInternally
	}
	if verdict == VerdictNotFound && a.HandlesSuspectInternally {
		// Defender reporting the file missing, while it is configured to
		// quarantine suspects itself, means it almost certainly already
		// moved the file out from under the scan.
		result.Verdict = VerdictSuspect
		result.ScannerHandled = true
	}
	return result, nil
}

// parseDefenderOutput mirrors parse_defender_scan_result: the threat
// pattern is checked before the "not found"/"no threats" suffixes, so a
// crafted filename embedded in the scanner's own echoed output can never
// downgrade a threat to clean.
func parseDefenderOutput(exitCode int, output string) ScanVerdict {
	if exitCode != 0 {
		return VerdictScanFailed
	}
	if strings.Contains(output, threatFoundPattern) {
		return VerdictSuspect
	}
	trimmed := strings.TrimRight(output, " \t\r\n")
	if strings.HasSuffix(trimmed, fileNotFoundSuffix) {
		return VerdictNotFound
	}
	if strings.HasSuffix(trimmed, noThreatsSuffix) {
		return VerdictClean
	}
	return VerdictScanFailed
}

var mdatpVersionPattern = regexp.MustCompile(`Product version: ([\d.]+)`)

// DefenderVersion runs `mdatp version` and extracts the product version
// line, per original_source/.../scan_utils.py's get_mdatp_version.
func DefenderVersion(ctx context.Context, command string) (string, error) {
	out, err := runArgvNoPath(ctx, command, []string{"version"})
	if err != nil {
		return "", err
	}
	m := mdatpVersionPattern.FindStringSubmatch(out.Stdout)
	if m == nil {
		return "", fmt.Errorf("scanner: could not parse %s version from output", command)
	}
	return m[1], nil
}
