// Package fsutil provides the filesystem primitives shuttle's pipeline is
// built from: name safety checks, hashing, atomic copy, integrity
// verification, hazard-archive encryption, and stability/openness probes.
package fsutil

import "strings"

// dangerousSubstrings blocks shell metacharacters and traversal sequences
// from ever reaching a filesystem or subprocess argv.
var dangerousSubstrings = []string{
	"\\", "..", ">", "<", "|", "*", "$", "&", ";", "`",
}

// IsFilenameSafe reports whether name is safe to use as a bare filename
// (forward slashes are rejected).
func IsFilenameSafe(name string) bool {
	return IsNameSafe(name, false)
}

// IsPathnameSafe reports whether name is safe to use as a path (forward
// slashes are allowed as separators).
func IsPathnameSafe(name string) bool {
	return IsNameSafe(name, true)
}

// IsNameSafe blocks control characters, dangerous substrings, and a leading
// dash or dot on the final path component (except the literal "." or "..").
func IsNameSafe(name string, isPath bool) bool {
	for _, r := range name {
		if r < 0x20 || r == 0x7F {
			return false
		}
	}

	dangerous := dangerousSubstrings
	if !isPath {
		dangerous = append(append([]string{}, dangerousSubstrings...), "/")
	}
	for _, d := range dangerous {
		if strings.Contains(name, d) {
			return false
		}
	}

	checkName := name
	if isPath && strings.Contains(name, "/") {
		trimmed := strings.TrimRight(name, "/")
		parts := strings.Split(trimmed, "/")
		checkName = parts[len(parts)-1]
	}
	if checkName != "." && checkName != ".." {
		if strings.HasPrefix(checkName, "-") || strings.HasPrefix(checkName, ".") {
			return false
		}
	}

	return strings.ToValidUTF8(name, "�") == name
}
