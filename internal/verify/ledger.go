package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	terrors "github.com/3leaps/taprelease/internal/errors"
)

// LedgerName is the file name the ledger is written and uploaded under.
const LedgerName = "checksum.txt"

// LedgerEntry is one "<digest> <filename>" line.
type LedgerEntry struct {
	Digest   string `json:"digest" yaml:"digest"`
	Filename string `json:"filename" yaml:"filename"`
}

// Ledger is the checksum manifest published alongside a release. Entry
// order is the order artifacts were planned in.
type Ledger struct {
	Entries []LedgerEntry `json:"entries" yaml:"entries"`
}

func (l *Ledger) Add(digest, filename string) {
	l.Entries = append(l.Entries, LedgerEntry{Digest: digest, Filename: filename})
}

func (l Ledger) String() string {
	var b strings.Builder
	for _, e := range l.Entries {
		fmt.Fprintf(&b, "%s %s\n", e.Digest, e.Filename)
	}
	return b.String()
}

// Lookup returns the digest recorded for filename.
func (l Ledger) Lookup(filename string) (string, bool) {
	for _, e := range l.Entries {
		if e.Filename == filename {
			return e.Digest, true
		}
	}
	return "", false
}

func (l Ledger) WriteFile(path string) error {
	// #nosec G306 -- ledger is published publicly
	if err := os.WriteFile(path, []byte(l.String()), 0o644); err != nil {
		return terrors.IO("write ledger", err)
	}
	return nil
}

// ParseLedger reads ledger text, skipping comments and malformed lines.
func ParseLedger(data []byte) Ledger {
	var l Ledger
	for _, line := range strings.Split(string(data), "\n") {
		digest, name, ok := parseLine(line)
		if !ok {
			continue
		}
		l.Add(digest, name)
	}
	return l
}

func ReadLedger(path string) (Ledger, error) {
	// #nosec G304 -- ledger path supplied by operator
	data, err := os.ReadFile(path)
	if err != nil {
		return Ledger{}, terrors.IO("read ledger", err)
	}
	return ParseLedger(data), nil
}

// LedgerForDir hashes every artifact in dir, sorted by name.
func LedgerForDir(dir string) (Ledger, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return Ledger{}, terrors.IO("stat artifact dir", err)
	}
	if !info.IsDir() {
		return Ledger{}, terrors.IO("stat artifact dir", fmt.Errorf("%s is not a directory", dir))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Ledger{}, terrors.IO("read artifact dir", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || skipFile(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	if len(files) == 0 {
		return Ledger{}, terrors.Data("read artifact dir", fmt.Errorf("no release artifacts found in %s", dir))
	}
	sort.Strings(files)

	var l Ledger
	for _, name := range files {
		sum, err := FileChecksum(filepath.Join(dir, name))
		if err != nil {
			return Ledger{}, err
		}
		l.Add(sum, name)
	}
	return l, nil
}

// Mismatch describes a ledger entry whose file differs on disk.
type Mismatch struct {
	Filename string `json:"filename" yaml:"filename"`
	Want     string `json:"want" yaml:"want"`
	Got      string `json:"got,omitempty" yaml:"got,omitempty"`
	Missing  bool   `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// CheckDir recomputes every ledger entry against files in dir.
func CheckDir(l Ledger, dir string) ([]Mismatch, error) {
	var out []Mismatch
	for _, e := range l.Entries {
		m, err := checkFile(dir, e.Filename, e.Digest)
		if err != nil {
			return nil, err
		}
		if m != nil {
			out = append(out, *m)
		}
	}
	return out, nil
}

// CheckArtifacts verifies the named files in dir against checksum file data
// in any shape ExtractChecksum accepts, such as a sha256sums listing or a
// per-file .sha256 holding a bare digest.
func CheckArtifacts(data []byte, dir string, names []string) ([]Mismatch, error) {
	var out []Mismatch
	for _, name := range names {
		want, err := ExtractChecksum(data, filepath.Base(name))
		if err != nil {
			return nil, terrors.Data("verify checksums", err)
		}
		m, err := checkFile(dir, name, want)
		if err != nil {
			return nil, err
		}
		if m != nil {
			out = append(out, *m)
		}
	}
	return out, nil
}

func checkFile(dir, filename, want string) (*Mismatch, error) {
	path := filepath.Join(dir, filepath.Base(filename))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Mismatch{Filename: filename, Want: want, Missing: true}, nil
	}
	got, err := FileChecksum(path)
	if err != nil {
		return nil, err
	}
	if got != want {
		return &Mismatch{Filename: filename, Want: want, Got: got}, nil
	}
	return nil, nil
}

func skipFile(name string) bool {
	lower := strings.ToLower(name)

	if strings.HasPrefix(lower, ".") ||
		strings.HasSuffix(lower, ".asc") ||
		strings.HasSuffix(lower, ".minisig") ||
		strings.HasSuffix(lower, ".sig") ||
		strings.HasSuffix(lower, ".sha256") ||
		strings.HasSuffix(lower, ".sha256.txt") ||
		strings.HasPrefix(lower, "sha256sums") {
		return true
	}

	switch lower {
	case "checksums.txt", LedgerName:
		return true
	}
	return false
}
