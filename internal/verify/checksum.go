package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	terrors "github.com/3leaps/taprelease/internal/errors"
)

// DigestLength is the hex length of a SHA-256 digest.
const DigestLength = sha256.Size * 2

// FileChecksum streams the file at path through SHA-256 and returns the
// lowercase hex digest.
func FileChecksum(path string) (string, error) {
	// #nosec G304 -- path is a downloaded artifact in the work dir
	f, err := os.Open(path)
	if err != nil {
		return "", terrors.IO("open artifact", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", terrors.IO("hash artifact", fmt.Errorf("read %s: %w", path, err))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ExtractChecksum looks up the digest for assetName in checksum file data.
// A file holding only a bare digest matches any asset.
func ExtractChecksum(data []byte, assetName string) (string, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("checksum file is empty")
	}
	if isHexDigest(text, DigestLength) {
		return strings.ToLower(text), nil
	}

	for _, line := range strings.Split(text, "\n") {
		digest, name, ok := parseLine(line)
		if !ok {
			continue
		}
		if filepath.Base(name) == assetName {
			return digest, nil
		}
	}

	return "", fmt.Errorf("checksum for %s not found", assetName)
}

// parseLine splits a "<digest> <name>" line. Comments, blanks and lines whose
// first field is not a SHA-256 digest are rejected.
func parseLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	fields := strings.Fields(line)
	if len(fields) < 2 || !isHexDigest(fields[0], DigestLength) {
		return "", "", false
	}
	// sha256sum binary mode marks names with a leading '*'
	name := strings.TrimPrefix(fields[len(fields)-1], "*")
	return strings.ToLower(fields[0]), name, true
}

func isHexDigest(value string, expectedLen int) bool {
	if expectedLen > 0 && len(value) != expectedLen {
		return false
	}
	if len(value)%2 != 0 {
		return false
	}
	for _, ch := range value {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') && (ch < 'A' || ch > 'F') {
			return false
		}
	}
	return true
}
