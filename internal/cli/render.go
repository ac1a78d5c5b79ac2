package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/3leaps/taprelease/internal/config"
	terrors "github.com/3leaps/taprelease/internal/errors"
	"github.com/3leaps/taprelease/internal/formula"
	"github.com/3leaps/taprelease/internal/locate"
	"github.com/3leaps/taprelease/internal/model"
	"github.com/3leaps/taprelease/internal/verify"
)

type renderOptions struct {
	ledger      string
	description string
	license     string
	homepage    string
	private     bool
	out         string
}

var renderBindings = map[string]string{
	"tag": "release_tag",
}

func newRenderCmd(g *globals) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render --ledger <checksum.txt> --tag <tag>",
		Short: "Render a formula offline from a checksum ledger",
		Long: `Render builds the same formula a release run would, taking artifact
checksums from an existing ledger instead of downloading the artifacts.
No network access is made.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig(cmd.Flags(), renderBindings)
			if err != nil {
				return err
			}
			text, err := renderOffline(cfg, opts)
			if err != nil {
				return err
			}
			if opts.out == "" {
				_, err := io.WriteString(g.stdout, text)
				return err
			}
			// #nosec G306 -- formula is public content
			if err := os.WriteFile(opts.out, []byte(text), 0o644); err != nil {
				return terrors.IO("write formula", err)
			}
			g.logger(cfg.Debug).Info("formula written", "path", opts.out)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ledger, "ledger", "", "checksum ledger holding every planned artifact")
	f.String("tag", "", "release tag the artifacts belong to")
	f.StringVar(&opts.description, "description", "", "repository description")
	f.StringVar(&opts.license, "license", "", "SPDX license identifier")
	f.StringVar(&opts.homepage, "homepage", "", "homepage (default the repository URL)")
	f.BoolVar(&opts.private, "private", false, "build the formula for a private repository")
	f.StringVarP(&opts.out, "out", "o", "", "write the formula to a file instead of stdout")
	_ = cmd.MarkFlagRequired("ledger")
	return cmd
}

func renderOffline(cfg *config.Config, opts *renderOptions) (string, error) {
	if err := cfg.Validate(config.ForRender); err != nil {
		return "", err
	}
	if strings.TrimSpace(cfg.ReleaseTag) == "" {
		return "", terrors.Config("render formula", fmt.Errorf("%w: tag", terrors.ErrMissingInput))
	}
	ledger, err := verify.ReadLedger(opts.ledger)
	if err != nil {
		return "", err
	}

	owner, repo := cfg.Owner(), cfg.Repo()
	plan, err := locate.Locate(locate.Input{
		Owner:         owner,
		Repo:          repo,
		Version:       cfg.ReleaseTag,
		Private:       opts.private,
		Matrix:        cfg.Matrix(),
		CustomTarball: cfg.CustomTarball,
		WebBase:       cfg.WebBase,
		APIBase:       cfg.APIBase,
	})
	if err != nil {
		return "", err
	}

	checksums, err := ledgerChecksums(plan, ledger)
	if err != nil {
		return "", err
	}

	return formula.Render(formula.Input{
		Owner: owner,
		Repo:  repo,
		Repository: model.Repository{
			Owner:       owner,
			Name:        repo,
			Description: opts.description,
			License:     opts.license,
			Private:     opts.private,
		},
		Targets:          plan.FormulaTargets(checksums),
		Install:          cfg.Install,
		Test:             cfg.Test,
		DependsOn:        cfg.DependsOn,
		Matrix:           cfg.Matrix(),
		DownloadStrategy: cfg.DownloadStrategy,
		CustomRequire:    cfg.CustomRequire,
		FormulaIncludes:  cfg.FormulaIncludes,
		Version:          cfg.Version,
		Homepage:         opts.homepage,
	})
}

// ledgerChecksums returns the digest of every planned artifact in plan order.
func ledgerChecksums(plan locate.Plan, ledger verify.Ledger) ([]string, error) {
	out := make([]string, len(plan.Artifacts))
	var missing []string
	for i, a := range plan.Artifacts {
		digest, ok := ledger.Lookup(a.Filename)
		if !ok {
			missing = append(missing, a.Filename)
			continue
		}
		out[i] = digest
	}
	if len(missing) > 0 {
		return nil, terrors.Data("render formula", fmt.Errorf("ledger has no checksum for %s", strings.Join(missing, ", ")))
	}
	return out, nil
}
