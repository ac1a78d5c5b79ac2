// Package config loads the run configuration from defaults, an optional
// config file, GitHub Actions inputs and command-line overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/3leaps/taprelease/internal/model"
)

const (
	DefaultFormulaFolder = "Formula"
	DefaultCommitOwner   = "homebrew-releaser"
	DefaultCommitEmail   = "homebrew-releaser@example.com"
	DefaultTimeout       = 5 * time.Minute
	DefaultParallelism   = 1
)

// Config is built once per run and passed down explicitly.
type Config struct {
	Repository    string `koanf:"repository" json:"repository"`
	GitHubToken   string `koanf:"github_token" json:"-"`
	HomebrewOwner string `koanf:"homebrew_owner" json:"homebrew_owner"`
	HomebrewTap   string `koanf:"homebrew_tap" json:"homebrew_tap"`
	FormulaFolder string `koanf:"formula_folder" json:"formula_folder"`
	CommitOwner   string `koanf:"commit_owner" json:"commit_owner"`
	CommitEmail   string `koanf:"commit_email" json:"commit_email"`

	Install               string `koanf:"install" json:"install"`
	Test                  string `koanf:"test" json:"test,omitempty"`
	DependsOn             string `koanf:"depends_on" json:"depends_on,omitempty"`
	DownloadStrategy      string `koanf:"download_strategy" json:"download_strategy,omitempty"`
	CustomRequire         string `koanf:"custom_require" json:"custom_require,omitempty"`
	FormulaIncludes       string `koanf:"formula_includes" json:"formula_includes,omitempty"`
	UpdatePythonResources bool   `koanf:"update_python_resources" json:"update_python_resources"`
	Version               string `koanf:"version" json:"version,omitempty"`
	ReleaseTag            string `koanf:"release_tag" json:"release_tag,omitempty"`

	TargetDarwinAMD64 bool   `koanf:"target_darwin_amd64" json:"target_darwin_amd64"`
	TargetDarwinARM64 bool   `koanf:"target_darwin_arm64" json:"target_darwin_arm64"`
	TargetLinuxAMD64  bool   `koanf:"target_linux_amd64" json:"target_linux_amd64"`
	TargetLinuxARM64  bool   `koanf:"target_linux_arm64" json:"target_linux_arm64"`
	CustomTarball     string `koanf:"custom_tarball" json:"custom_tarball,omitempty"`

	UpdateReadmeTable bool `koanf:"update_readme_table" json:"update_readme_table"`
	SkipCommit        bool `koanf:"skip_commit" json:"skip_commit"`
	SkipChecksum      bool `koanf:"skip_checksum" json:"skip_checksum"`
	Debug             bool `koanf:"debug" json:"debug"`

	WorkDir     string        `koanf:"work_dir" json:"work_dir"`
	Timeout     time.Duration `koanf:"timeout" json:"timeout"`
	Parallelism int           `koanf:"parallelism" json:"parallelism"`
	APIBase     string        `koanf:"api_base" json:"api_base,omitempty"`
	WebBase     string        `koanf:"web_base" json:"web_base,omitempty"`
	UploadBase  string        `koanf:"upload_base" json:"upload_base,omitempty"`

	MinisignKey      string `koanf:"minisign_key" json:"minisign_key,omitempty"`
	RequireSignature bool   `koanf:"require_signature" json:"require_signature"`
	// RefuseDowngrade fails the run when the release is older than the tap
	// formula. Force overrides it.
	RefuseDowngrade bool `koanf:"refuse_downgrade" json:"refuse_downgrade"`
	Force           bool `koanf:"force" json:"force"`
}

// AllowDowngrade reports whether an older release may replace the tap formula.
func (c *Config) AllowDowngrade() bool {
	return !c.RefuseDowngrade || c.Force
}

// Defaults returns the lowest configuration layer.
func Defaults() map[string]any {
	return map[string]any{
		"formula_folder": DefaultFormulaFolder,
		"commit_owner":   DefaultCommitOwner,
		"commit_email":   DefaultCommitEmail,
		"work_dir":       filepath.Join(xdg.CacheHome, "taprelease"),
		"timeout":        DefaultTimeout.String(),
		"parallelism":    DefaultParallelism,
	}
}

// Owner is the repository owner from "owner/repo".
func (c *Config) Owner() string {
	owner, _, _ := strings.Cut(c.Repository, "/")
	return owner
}

// Repo is the repository name from "owner/repo".
func (c *Config) Repo() string {
	_, repo, _ := strings.Cut(c.Repository, "/")
	return repo
}

func (c *Config) Matrix() model.Matrix {
	return model.Matrix{
		DarwinAMD64: c.TargetDarwinAMD64,
		DarwinARM64: c.TargetDarwinARM64,
		LinuxAMD64:  c.TargetLinuxAMD64,
		LinuxARM64:  c.TargetLinuxARM64,
	}
}

// FormulaFile is the formula file name for the repository.
func (c *Config) FormulaFile() string {
	return c.Repo() + ".rb"
}

// String summarises the run target without secrets.
func (c *Config) String() string {
	return fmt.Sprintf("%s -> %s/%s (%s)", c.Repository, c.HomebrewOwner, c.HomebrewTap, c.FormulaFolder)
}
