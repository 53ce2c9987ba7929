package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HashFile computes the SHA-256 hash of the file at path, reading it in
// 4 KiB chunks so arbitrarily large files never need to fit in memory.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fsutil: hashing %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 4096)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("fsutil: hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IntegrityResult reports the outcome of comparing two files' hashes.
type IntegrityResult struct {
	Success bool
	HashA   string
	HashB   string
}

// VerifyIntegrity hashes both files and reports whether they match. Either
// file being empty is treated as a failure without hashing, matching the
// original semantics (an empty file can never legitimately match a
// non-empty copy).
func VerifyIntegrity(pathA, pathB string) (IntegrityResult, error) {
	infoA, err := os.Stat(pathA)
	if err != nil {
		return IntegrityResult{}, fmt.Errorf("fsutil: stat %s: %w", pathA, err)
	}
	infoB, err := os.Stat(pathB)
	if err != nil {
		return IntegrityResult{}, fmt.Errorf("fsutil: stat %s: %w", pathB, err)
	}
	if infoA.Size() == 0 || infoB.Size() == 0 {
		return IntegrityResult{}, nil
	}

	hashA, err := HashFile(pathA)
	if err != nil {
		return IntegrityResult{}, err
	}
	hashB, err := HashFile(pathB)
	if err != nil {
		return IntegrityResult{HashA: hashA}, err
	}

	return IntegrityResult{
		Success: hashA == hashB,
		HashA:   hashA,
		HashB:   hashB,
	}, nil
}
