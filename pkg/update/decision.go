package update

import (
	"fmt"
	"strconv"
	"strings"
)

type Decision string

const (
	DecisionCreate    Decision = "create"    // No formula in the tap yet
	DecisionProceed   Decision = "proceed"   // Replace the tap formula
	DecisionSkip      Decision = "skip"      // Rendered formula is identical
	DecisionRefuse    Decision = "refuse"    // Release is older than the tap formula
	DecisionDowngrade Decision = "downgrade" // Older release published with --force
)

// FormatVersionDisplay formats a version string for display, adding "v" prefix if needed.
func FormatVersionDisplay(v string) string {
	if v == "" || v == "dev" || v == "0.0.0-dev" {
		return v
	}
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// NormalizeVersion strips the leading "v" and reports whether the result is
// semver-like (MAJOR.MINOR with optional PATCH, prerelease and build metadata).
// "dev", empty strings and other formats return ("", false).
func NormalizeVersion(v string) (string, bool) {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" || trimmed == "dev" || trimmed == "0.0.0-dev" {
		return "", false
	}

	normalized := strings.TrimPrefix(trimmed, "v")
	parts := strings.Split(normalized, ".")
	if len(parts) < 2 {
		return "", false
	}

	for i := 0; i < 2; i++ {
		if _, err := strconv.Atoi(parts[i]); err != nil {
			return "", false
		}
	}

	if len(parts) >= 3 {
		patchPart := parts[2]
		if idx := strings.IndexAny(patchPart, "-+"); idx >= 0 {
			patchPart = patchPart[:idx]
		}
		if patchPart != "" {
			if _, err := strconv.Atoi(patchPart); err != nil {
				return "", false
			}
		}
	}

	return normalized, true
}

type semverParts struct {
	major      int
	minor      int
	patch      int
	prerelease []string
}

func parseSemver(normalized string) (semverParts, error) {
	var out semverParts

	base := normalized
	if idx := strings.IndexByte(base, '+'); idx >= 0 {
		base = base[:idx]
	}

	var prerelease string
	if idx := strings.IndexByte(base, '-'); idx >= 0 {
		prerelease = base[idx+1:]
		base = base[:idx]
	}

	parts := strings.Split(base, ".")
	if len(parts) < 2 {
		return semverParts{}, fmt.Errorf("invalid semver format")
	}

	var err error
	out.major, err = strconv.Atoi(parts[0])
	if err != nil {
		return semverParts{}, fmt.Errorf("parse major %q: %w", parts[0], err)
	}
	out.minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return semverParts{}, fmt.Errorf("parse minor %q: %w", parts[1], err)
	}
	out.patch = 0
	if len(parts) >= 3 && parts[2] != "" {
		out.patch, err = strconv.Atoi(parts[2])
		if err != nil {
			return semverParts{}, fmt.Errorf("parse patch %q: %w", parts[2], err)
		}
	}

	if prerelease != "" {
		out.prerelease = strings.Split(prerelease, ".")
	}

	return out, nil
}

func comparePrerelease(a, b []string) int {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	if len(a) == 0 {
		return 1
	}
	if len(b) == 0 {
		return -1
	}

	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai, bi := a[i], b[i]
		aNum, aErr := strconv.Atoi(ai)
		bNum, bErr := strconv.Atoi(bi)
		aIsNum := aErr == nil
		bIsNum := bErr == nil

		switch {
		case aIsNum && bIsNum:
			if aNum < bNum {
				return -1
			}
			if aNum > bNum {
				return 1
			}
		case aIsNum && !bIsNum:
			return -1
		case !aIsNum && bIsNum:
			return 1
		default:
			if ai < bi {
				return -1
			}
			if ai > bi {
				return 1
			}
		}
	}

	if len(a) < len(b) {
		return -1
	}
	if len(a) > len(b) {
		return 1
	}
	return 0
}

// CompareSemver compares two normalized semver-like strings.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
// Supports MAJOR.MINOR[.PATCH] with optional prerelease/build metadata; build metadata is ignored.
// Returns an error if either version cannot be parsed.
func CompareSemver(a, b string) (int, error) {
	av, err := parseSemver(a)
	if err != nil {
		return 0, err
	}
	bv, err := parseSemver(b)
	if err != nil {
		return 0, err
	}

	switch {
	case av.major < bv.major:
		return -1, nil
	case av.major > bv.major:
		return 1, nil
	case av.minor < bv.minor:
		return -1, nil
	case av.minor > bv.minor:
		return 1, nil
	case av.patch < bv.patch:
		return -1, nil
	case av.patch > bv.patch:
		return 1, nil
	}

	return comparePrerelease(av.prerelease, bv.prerelease), nil
}

// DecidePublish decides whether a rendered formula should replace the one
// already in the tap.
//
// current: version of the formula in the tap ("" when there is none)
// target:  release version being published
// unchanged: the rendered formula is byte-identical to the tap copy
// allowDowngrade: replace a newer formula with an older release instead of refusing
//
// Returns a Decision and a human message.
func DecidePublish(current, target string, exists, unchanged, allowDowngrade bool) (Decision, string) {
	if !exists {
		return DecisionCreate, fmt.Sprintf("Adding new formula at %s", FormatVersionDisplay(target))
	}
	if unchanged {
		return DecisionSkip, fmt.Sprintf("Formula already up to date (%s)", FormatVersionDisplay(target))
	}

	currentNorm, currentOK := NormalizeVersion(current)
	targetNorm, targetOK := NormalizeVersion(target)
	if !currentOK || !targetOK {
		msg := fmt.Sprintf("Version comparison skipped (tap=%q, release=%q). Publishing.", current, target)
		return DecisionProceed, msg
	}

	cmp, err := CompareSemver(currentNorm, targetNorm)
	if err != nil {
		return DecisionProceed, fmt.Sprintf("Version comparison failed: %v. Publishing.", err)
	}

	switch cmp {
	case 0:
		return DecisionProceed, fmt.Sprintf("Refreshing formula %s", FormatVersionDisplay(targetNorm))
	case -1:
		return DecisionProceed, fmt.Sprintf("Updating formula: %s → %s",
			FormatVersionDisplay(currentNorm), FormatVersionDisplay(targetNorm))
	default:
		if !allowDowngrade {
			msg := fmt.Sprintf("Refusing to replace formula %s with older release %s; rerun with --force or unset refuse_downgrade to proceed.",
				FormatVersionDisplay(currentNorm), FormatVersionDisplay(targetNorm))
			return DecisionRefuse, msg
		}
		return DecisionDowngrade, fmt.Sprintf("Downgrading formula: %s → %s",
			FormatVersionDisplay(currentNorm), FormatVersionDisplay(targetNorm))
	}
}

// Publishes reports whether the decision leads to a commit.
func (d Decision) Publishes() bool {
	switch d {
	case DecisionCreate, DecisionProceed, DecisionDowngrade:
		return true
	default:
		return false
	}
}

// DescribeDecision returns a human-readable dry-run status.
func DescribeDecision(d Decision) string {
	switch d {
	case DecisionCreate:
		return "New formula"
	case DecisionSkip:
		return "Formula unchanged (nothing to publish)"
	case DecisionRefuse:
		return "Publish refused (release is older than tap)"
	case DecisionProceed:
		return "Formula update"
	case DecisionDowngrade:
		return "Formula downgrade"
	default:
		return string(d)
	}
}
