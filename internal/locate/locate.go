// Package locate plans which release artifacts a formula is built from: the
// display URL written into the formula, the URL bytes are fetched from, and
// how the fetch must be made.
package locate

import (
	"fmt"
	"path"
	"strings"

	terrors "github.com/3leaps/taprelease/internal/errors"
	"github.com/3leaps/taprelease/internal/model"
)

const (
	DefaultWebBase = "https://github.com"
	DefaultAPIBase = "https://api.github.com"
)

// Role says where an artifact comes from.
type Role string

const (
	RoleTarball  Role = "tarball"
	RoleZipball  Role = "zipball"
	RoleCustom   Role = "custom"
	RolePlatform Role = "platform"
)

// Artifact is one planned download.
type Artifact struct {
	Role Role `json:"role" yaml:"role"`
	// URL is written into the formula and the ledger.
	URL string `json:"url" yaml:"url"`
	// FetchURL is where the bytes are downloaded from.
	FetchURL string `json:"fetch_url" yaml:"fetch_url"`
	// Stream requests Accept: application/octet-stream.
	Stream        bool            `json:"stream" yaml:"stream"`
	Authenticated bool            `json:"authenticated" yaml:"authenticated"`
	Platform      *model.Platform `json:"platform,omitempty" yaml:"platform,omitempty"`
	Filename      string          `json:"filename" yaml:"filename"`
	// Matched is false when a private platform asset could not be found in
	// the release and the constructed URL is used as a fallback.
	Matched bool `json:"matched" yaml:"matched"`
}

// Plan is the ordered artifact list. Primary indexes the artifact whose
// checksum becomes the formula's top-level sha256.
type Plan struct {
	Artifacts []Artifact `json:"artifacts" yaml:"artifacts"`
	Primary   int        `json:"primary" yaml:"primary"`
}

type Input struct {
	Owner         string
	Repo          string
	Version       string
	Private       bool
	Assets        []model.Asset
	Matrix        model.Matrix
	CustomTarball string
	WebBase       string
	APIBase       string
}

// Locate builds the plan. The auto-generated tarball and zipball are always
// the first two artifacts.
func Locate(in Input) (Plan, error) {
	if strings.TrimSpace(in.Version) == "" {
		return Plan{}, terrors.Data("locate artifacts", terrors.ErrEmptyVersion)
	}
	if in.Owner == "" || in.Repo == "" {
		return Plan{}, terrors.Data("locate artifacts", fmt.Errorf("owner and repo are required"))
	}

	web := strings.TrimRight(orDefault(in.WebBase, DefaultWebBase), "/")
	api := strings.TrimRight(orDefault(in.APIBase, DefaultAPIBase), "/")

	var plan Plan
	if in.Private {
		base := fmt.Sprintf("%s/repos/%s/%s", api, in.Owner, in.Repo)
		plan.Artifacts = append(plan.Artifacts,
			privateArchive(RoleTarball, base+"/tarball/"+in.Version, ".tar.gz"),
			privateArchive(RoleZipball, base+"/zipball/"+in.Version, ".zip"),
		)
	} else {
		base := fmt.Sprintf("%s/%s/%s/archive/refs/tags/%s", web, in.Owner, in.Repo, in.Version)
		plan.Artifacts = append(plan.Artifacts,
			publicArtifact(RoleTarball, base+".tar.gz"),
			publicArtifact(RoleZipball, base+".zip"),
		)
	}

	download := fmt.Sprintf("%s/%s/%s/releases/download/%s", web, in.Owner, in.Repo, in.Version)

	if name := strings.TrimSpace(in.CustomTarball); name != "" {
		plan.Primary = len(plan.Artifacts)
		plan.Artifacts = append(plan.Artifacts, releaseAsset(in, RoleCustom, download+"/"+name, nil))
	}

	bare := strings.TrimPrefix(in.Version, "v")
	for _, p := range in.Matrix.Platforms() {
		name := fmt.Sprintf("%s-%s-%s-%s.tar.gz", in.Repo, bare, p.OS, p.Arch)
		plan.Artifacts = append(plan.Artifacts, releaseAsset(in, RolePlatform, download+"/"+name, &p))
	}

	return plan, nil
}

// Unmatched returns the artifacts that fell back to their constructed URL.
func (p Plan) Unmatched() []Artifact {
	var out []Artifact
	for _, a := range p.Artifacts {
		if !a.Matched {
			out = append(out, a)
		}
	}
	return out
}

// Targets pairs every artifact with its checksum in plan order.
func (p Plan) Targets(checksums []string) []model.Target {
	out := make([]model.Target, 0, len(p.Artifacts))
	for i, a := range p.Artifacts {
		out = append(out, a.target(checksumAt(checksums, i)))
	}
	return out
}

// FormulaTargets orders the primary artifact first, followed by the platform
// artifacts. The non-primary source archives are left out.
func (p Plan) FormulaTargets(checksums []string) []model.Target {
	if len(p.Artifacts) == 0 {
		return nil
	}
	out := []model.Target{p.Artifacts[p.Primary].target(checksumAt(checksums, p.Primary))}
	for i, a := range p.Artifacts {
		if i == p.Primary || a.Role != RolePlatform {
			continue
		}
		out = append(out, a.target(checksumAt(checksums, i)))
	}
	return out
}

func (a Artifact) target(checksum string) model.Target {
	return model.Target{
		Filename: a.Filename,
		Checksum: checksum,
		URL:      a.URL,
		Platform: a.Platform,
	}
}

func checksumAt(checksums []string, i int) string {
	if i < len(checksums) {
		return checksums[i]
	}
	return ""
}

func privateArchive(role Role, url, ext string) Artifact {
	return Artifact{
		Role:          role,
		URL:           url,
		FetchURL:      url,
		Authenticated: true,
		Filename:      path.Base(url) + ext,
		Matched:       true,
	}
}

func publicArtifact(role Role, url string) Artifact {
	return Artifact{
		Role:     role,
		URL:      url,
		FetchURL: url,
		Stream:   true,
		Filename: path.Base(url),
		Matched:  true,
	}
}

func releaseAsset(in Input, role Role, url string, p *model.Platform) Artifact {
	a := publicArtifact(role, url)
	a.Platform = p
	if !in.Private {
		return a
	}
	a.Authenticated = true
	if asset, ok := findAsset(in.Assets, url); ok && asset.URL != "" {
		a.FetchURL = asset.URL
		return a
	}
	a.Matched = false
	return a
}

func findAsset(assets []model.Asset, browserURL string) (model.Asset, bool) {
	for _, a := range assets {
		if a.BrowserDownloadURL == browserURL {
			return a, true
		}
	}
	return model.Asset{}, false
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
