// Package release runs one publish: release metadata in, formula and
// checksum ledger out, committed to the tap.
package release

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/3leaps/taprelease/internal/config"
	terrors "github.com/3leaps/taprelease/internal/errors"
	"github.com/3leaps/taprelease/internal/formula"
	"github.com/3leaps/taprelease/internal/host/github"
	"github.com/3leaps/taprelease/internal/locate"
	"github.com/3leaps/taprelease/internal/model"
	"github.com/3leaps/taprelease/internal/readme"
	"github.com/3leaps/taprelease/internal/verify"
	"github.com/3leaps/taprelease/pkg/update"
)

// MetadataProvider is the GitHub side of a run.
type MetadataProvider interface {
	Repository(ctx context.Context, owner, repo string) (model.Repository, error)
	Release(ctx context.Context, owner, repo, tag string) (model.Release, error)
	UploadAsset(ctx context.Context, owner, repo string, release model.Release, path string) error
}

// Downloader fetches one artifact to path.
type Downloader interface {
	Download(ctx context.Context, req github.Request, path string) error
}

// TapPublisher is the git side of a run.
type TapPublisher interface {
	Clone(ctx context.Context, parent string) (string, error)
	Configure(ctx context.Context, user, email string) error
	ReadFormula(folder, file string) (string, bool, error)
	WriteFormula(folder, file, content string) (string, error)
	Tap(ctx context.Context) error
	UpdatePythonResources(ctx context.Context, folder, file string) error
	Add(ctx context.Context, paths ...string) error
	Staged(ctx context.Context) (bool, error)
	Commit(ctx context.Context, repo, version string) error
	Push(ctx context.Context) error
}

type Runner struct {
	Config   *config.Config
	Metadata MetadataProvider
	Fetcher  Downloader
	Tap      TapPublisher
	Logger   hclog.Logger
}

type Options struct {
	// DryRun stops after the formula and ledger are written locally.
	DryRun bool
}

// Result summarises a run for the CLI.
type Result struct {
	Repository  model.Repository `json:"repository" yaml:"repository"`
	Version     string           `json:"version" yaml:"version"`
	Plan        locate.Plan      `json:"plan" yaml:"plan"`
	Ledger      verify.Ledger    `json:"ledger" yaml:"ledger"`
	Formula     string           `json:"formula" yaml:"formula"`
	FormulaPath string           `json:"formula_path" yaml:"formula_path"`
	LedgerPath  string           `json:"ledger_path" yaml:"ledger_path"`
	Decision    update.Decision  `json:"decision,omitempty" yaml:"decision,omitempty"`
	Message     string           `json:"message,omitempty" yaml:"message,omitempty"`
	Signatures  int              `json:"signatures_verified" yaml:"signatures_verified"`
	Committed   bool             `json:"committed" yaml:"committed"`
	Pushed      bool             `json:"pushed" yaml:"pushed"`
	Uploaded    bool             `json:"uploaded" yaml:"uploaded"`
	Readme      bool             `json:"readme_updated" yaml:"readme_updated"`
}

func (r *Runner) log() hclog.Logger {
	if r.Logger == nil {
		return hclog.NewNullLogger()
	}
	return r.Logger.Named("release")
}

// Run executes the full sequence. Any failure aborts the run.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := r.Config
	log := r.log()
	if err := cfg.Validate(config.ForRelease); err != nil {
		return nil, err
	}

	owner, repo := cfg.Owner(), cfg.Repo()
	meta, err := r.Metadata.Repository(ctx, owner, repo)
	if err != nil {
		return nil, err
	}
	if meta.Description == "" {
		log.Warn("repository has no description", "repository", cfg.Repository)
	}
	if meta.License == "" {
		log.Warn("repository has no license; omitting license field", "repository", cfg.Repository)
	}

	rel, err := r.Metadata.Release(ctx, owner, repo, cfg.ReleaseTag)
	if err != nil {
		return nil, err
	}
	log.Info("packaging release", "repository", cfg.Repository, "version", rel.TagName, "private", meta.Private)

	plan, err := locate.Locate(locate.Input{
		Owner:         owner,
		Repo:          repo,
		Version:       rel.TagName,
		Private:       meta.Private,
		Assets:        rel.Assets,
		Matrix:        cfg.Matrix(),
		CustomTarball: cfg.CustomTarball,
		WebBase:       cfg.WebBase,
		APIBase:       cfg.APIBase,
	})
	if err != nil {
		return nil, err
	}
	for _, a := range plan.Unmatched() {
		log.Warn("no release asset matches platform artifact; using constructed URL", "url", a.URL)
	}

	artifactDir := filepath.Join(cfg.WorkDir, "artifacts", repo, rel.TagName)
	if err := os.MkdirAll(artifactDir, 0o750); err != nil {
		return nil, terrors.IO("create artifact dir", err)
	}

	checksums, err := r.download(ctx, plan, artifactDir)
	if err != nil {
		return nil, err
	}

	verified, err := r.verifySignatures(ctx, plan, rel, artifactDir)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Repository:  meta,
		Version:     rel.TagName,
		Plan:        plan,
		Signatures:  verified,
		FormulaPath: filepath.Join(cfg.WorkDir, cfg.FormulaFile()),
		LedgerPath:  filepath.Join(cfg.WorkDir, verify.LedgerName),
	}
	for _, t := range plan.Targets(checksums) {
		res.Ledger.Add(t.Checksum, t.Filename)
	}

	res.Formula, err = formula.Render(formula.Input{
		Owner:            owner,
		Repo:             repo,
		Repository:       meta,
		Targets:          plan.FormulaTargets(checksums),
		Install:          cfg.Install,
		Test:             cfg.Test,
		DependsOn:        cfg.DependsOn,
		Matrix:           cfg.Matrix(),
		DownloadStrategy: cfg.DownloadStrategy,
		CustomRequire:    cfg.CustomRequire,
		FormulaIncludes:  cfg.FormulaIncludes,
		Version:          cfg.Version,
	})
	if err != nil {
		return nil, err
	}

	// #nosec G306 -- formula is public content
	if err := os.WriteFile(res.FormulaPath, []byte(res.Formula), 0o644); err != nil {
		return nil, terrors.IO("write formula", err)
	}
	if err := res.Ledger.WriteFile(res.LedgerPath); err != nil {
		return nil, err
	}
	log.Debug("formula rendered", "path", res.FormulaPath, "ledger", res.LedgerPath)

	if opts.DryRun {
		return res, nil
	}

	if err := r.publish(ctx, res); err != nil {
		return res, err
	}

	if cfg.SkipChecksum || cfg.SkipCommit {
		log.Info("skipping checksum upload")
		return res, nil
	}
	if err := r.Metadata.UploadAsset(ctx, owner, repo, rel, res.LedgerPath); err != nil {
		return res, err
	}
	res.Uploaded = true
	log.Info("checksum ledger uploaded", "release", rel.TagName)
	return res, nil
}

// download fetches and hashes every planned artifact. Checksums keep plan
// order regardless of completion order.
func (r *Runner) download(ctx context.Context, plan locate.Plan, dir string) ([]string, error) {
	log := r.log()
	checksums := make([]string, len(plan.Artifacts))

	g, gctx := errgroup.WithContext(ctx)
	limit := r.Config.Parallelism
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, a := range plan.Artifacts {
		g.Go(func() error {
			path := filepath.Join(dir, a.Filename)
			log.Debug("downloading artifact", "url", a.FetchURL, "stream", a.Stream)
			req := github.Request{URL: a.FetchURL, Stream: a.Stream, Auth: a.Authenticated}
			if err := r.Fetcher.Download(gctx, req, path); err != nil {
				return err
			}
			sum, err := verify.FileChecksum(path)
			if err != nil {
				return err
			}
			checksums[i] = sum
			log.Debug("artifact checksum", "file", a.Filename, "sha256", sum)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return checksums, nil
}

// verifySignatures checks minisign signatures for uploaded artifacts when a
// public key is configured. Auto-generated archives are never signed.
func (r *Runner) verifySignatures(ctx context.Context, plan locate.Plan, rel model.Release, dir string) (int, error) {
	cfg := r.Config
	if cfg.MinisignKey == "" {
		return 0, nil
	}
	log := r.log()

	verified := 0
	for _, a := range plan.Artifacts {
		if a.Role != locate.RoleCustom && a.Role != locate.RolePlatform {
			continue
		}
		sigName := a.Filename + verify.SignatureSuffix
		asset, ok := findAsset(rel.Assets, sigName)
		if !ok {
			if cfg.RequireSignature {
				return verified, terrors.Data("verify signature", fmt.Errorf("%w: %s", terrors.ErrSignatureMissing, sigName))
			}
			log.Warn("artifact has no minisign signature", "artifact", a.Filename)
			continue
		}

		sigPath := filepath.Join(dir, sigName)
		req := github.Request{URL: asset.BrowserDownloadURL, Stream: true, Auth: a.Authenticated}
		if a.Authenticated && asset.URL != "" {
			req.URL = asset.URL
		}
		if err := r.Fetcher.Download(ctx, req, sigPath); err != nil {
			return verified, err
		}

		// #nosec G304 -- artifact downloaded into the work dir
		content, err := os.ReadFile(filepath.Join(dir, a.Filename))
		if err != nil {
			return verified, terrors.IO("read artifact", err)
		}
		if err := verify.VerifyMinisign(content, sigPath, cfg.MinisignKey); err != nil {
			return verified, fmt.Errorf("%s: %w", a.Filename, err)
		}
		verified++
		log.Debug("signature verified", "artifact", a.Filename)
	}
	return verified, nil
}

func (r *Runner) publish(ctx context.Context, res *Result) error {
	cfg := r.Config
	log := r.log()

	if _, err := r.Tap.Clone(ctx, cfg.WorkDir); err != nil {
		return err
	}
	if err := r.Tap.Configure(ctx, cfg.CommitOwner, cfg.CommitEmail); err != nil {
		return err
	}

	existing, exists, err := r.Tap.ReadFormula(cfg.FormulaFolder, cfg.FormulaFile())
	if err != nil {
		return err
	}
	target := res.Version
	if cfg.Version != "" {
		target = cfg.Version
	}
	current := formula.Parse(existing).ReleaseVersion()
	res.Decision, res.Message = update.DecidePublish(current, target, exists, existing == res.Formula, cfg.AllowDowngrade())
	if res.Decision == update.DecisionDowngrade {
		log.Warn(res.Message, "decision", res.Decision)
	} else {
		log.Info(res.Message, "decision", res.Decision)
	}

	if !res.Decision.Publishes() {
		if res.Decision == update.DecisionRefuse {
			return terrors.Data("publish formula", errors.New(res.Message))
		}
		return nil
	}

	paths := make([]string, 0, 2)
	rel, err := r.Tap.WriteFormula(cfg.FormulaFolder, cfg.FormulaFile(), res.Formula)
	if err != nil {
		return err
	}
	paths = append(paths, rel)

	if cfg.UpdatePythonResources {
		if err := r.Tap.Tap(ctx); err != nil {
			return err
		}
		if err := r.Tap.UpdatePythonResources(ctx, cfg.FormulaFolder, cfg.FormulaFile()); err != nil {
			return err
		}
	}

	if cfg.UpdateReadmeTable {
		path, err := readme.Update(tapDir(r.Tap, cfg), cfg.FormulaFolder, log)
		if err != nil {
			return err
		}
		if path != "" {
			res.Readme = true
			paths = append(paths, filepath.Base(path))
		}
	}

	if err := r.Tap.Add(ctx, paths...); err != nil {
		return err
	}
	staged, err := r.Tap.Staged(ctx)
	if err != nil {
		return err
	}
	if !staged {
		log.Info("nothing to commit in tap")
		return nil
	}
	if err := r.Tap.Commit(ctx, cfg.Repo(), target); err != nil {
		return err
	}
	res.Committed = true

	if cfg.SkipCommit {
		log.Info("skip_commit set; formula committed locally but not pushed")
		return nil
	}
	if err := r.Tap.Push(ctx); err != nil {
		return err
	}
	res.Pushed = true
	log.Info("formula published", "tap", cfg.HomebrewOwner+"/"+cfg.HomebrewTap)
	return nil
}

// tapDir resolves the working copy, preferring the publisher's own record.
func tapDir(p TapPublisher, cfg *config.Config) string {
	if d, ok := p.(interface{ Dir() string }); ok && d.Dir() != "" {
		return d.Dir()
	}
	return filepath.Join(cfg.WorkDir, cfg.HomebrewTap)
}

func findAsset(assets []model.Asset, name string) (model.Asset, bool) {
	for _, a := range assets {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return model.Asset{}, false
}
