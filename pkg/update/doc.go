// Package update decides whether a freshly rendered formula should replace
// the copy already published in a tap.
//
// It does not touch git or the network. Callers pass the version found in
// the tap formula, the release version, and whether the rendered text
// differs; the package returns a Decision and an operator-facing message.
//
// Version model
//   - Semver-like strings "vMAJOR.MINOR[.PATCH]" with optional prerelease and
//     build metadata ("v0.2.5-rc1", "v1.0.0+build123").
//   - Prerelease precedence follows SemVer: "0.2.5-rc1" < "0.2.5".
//   - Anything else (date tags, "latest", "") is non-comparable and publishing
//     proceeds.
package update
