package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/3leaps/taprelease/internal/host/github"
	"github.com/3leaps/taprelease/internal/release"
	"github.com/3leaps/taprelease/internal/tap"
	"github.com/3leaps/taprelease/pkg/update"
)

type releaseOptions struct {
	dryRun bool
	output OutputFormat
}

// releaseBindings maps command flags onto config keys.
var releaseBindings = map[string]string{
	"tag":              "release_tag",
	"force":            "force",
	"refuse-downgrade": "refuse_downgrade",
	"work-dir":         "work_dir",
	"parallelism":      "parallelism",
	"skip-commit":      "skip_commit",
}

func newReleaseCmd(g *globals) *cobra.Command {
	opts := &releaseOptions{output: FormatText}

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Render the formula for a release and publish it to the tap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig(cmd.Flags(), releaseBindings)
			if err != nil {
				return err
			}
			log := g.logger(cfg.Debug)
			log.Debug("configuration loaded", "target", cfg.String())

			ghOpts := github.Options{
				Token:      cfg.GitHubToken,
				UserAgent:  github.UserAgent(Version),
				APIBase:    cfg.APIBase,
				UploadBase: cfg.UploadBase,
				Timeout:    cfg.Timeout,
			}
			client, err := github.NewClient(ghOpts)
			if err != nil {
				return err
			}
			publisher := tap.New(tap.Options{
				Owner:   cfg.HomebrewOwner,
				Tap:     cfg.HomebrewTap,
				Token:   cfg.GitHubToken,
				WebBase: cfg.WebBase,
				Runner:  tap.ExecRunner{Timeout: cfg.Timeout},
				Logger:  log,
			})

			ctx := cmd.Context()
			runner := &release.Runner{
				Config:   cfg,
				Metadata: client,
				Fetcher:  github.NewFetcher(ghOpts),
				Tap:      publisher,
				Logger:   log,
			}
			res, err := runner.Run(ctx, release.Options{DryRun: opts.dryRun})
			if err != nil {
				return err
			}
			return opts.output.write(g.stdout, res, func(w io.Writer) error {
				return writeReleaseText(w, res, opts.dryRun)
			})
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.dryRun, "dry-run", false, "write the formula and ledger locally without touching the tap")
	f.Var(&opts.output, "output", "summary format: text, json or yaml")
	f.String("tag", "", "release tag to package (default latest release)")
	f.Bool("force", false, "publish even when refuse_downgrade is set and the tap holds a newer version")
	f.Bool("refuse-downgrade", false, "fail when the release is older than the tap formula")
	f.String("work-dir", "", "directory for downloads, the rendered formula and the tap checkout")
	f.Int("parallelism", 1, "number of artifacts downloaded concurrently")
	f.Bool("skip-commit", false, "commit to the tap locally without pushing")
	return cmd
}

func writeReleaseText(w io.Writer, res *release.Result, dryRun bool) error {
	if dryRun {
		_, err := io.WriteString(w, res.Formula)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s %s: %s\n", res.Repository.Name, res.Version, update.DescribeDecision(res.Decision)); err != nil {
		return err
	}
	if res.Message != "" {
		if _, err := fmt.Fprintln(w, res.Message); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "formula: %s\nledger: %s\ncommitted=%t pushed=%t uploaded=%t\n",
		res.FormulaPath, res.LedgerPath, res.Committed, res.Pushed, res.Uploaded)
	return err
}
