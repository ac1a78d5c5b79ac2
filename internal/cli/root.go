package cli

import (
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/3leaps/taprelease/internal/config"
)

const (
	flagConfig   = "config"
	flagLogLevel = "log-level"
)

// globals are the persistent flags shared by every command.
type globals struct {
	stdout   io.Writer
	stderr   io.Writer
	config   string
	logLevel string
}

func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "taprelease <command> [args]",
		Short: "Publish Homebrew formulas for GitHub releases.",
		Long: `taprelease turns a finished GitHub release into a Homebrew formula,
computes a checksum for every artifact it references and commits the result
into a tap repository. Inputs come from a config file, INPUT_* variables set
by GitHub Actions, and flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.config, flagConfig, "", "path to a YAML or TOML config file")
	pf.StringVar(&g.logLevel, flagLogLevel, "", "log level: trace, debug, info, warn, error, off (default info, debug when the debug input is set)")

	root.AddCommand(
		newReleaseCmd(g),
		newRenderCmd(g),
		newChecksumsCmd(g),
		newReadmeCmd(g),
		newVersionCmd(g),
	)
	return root
}

// logger builds the root logger. An explicit --log-level wins over the
// debug input.
func (g *globals) logger(debug bool) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "taprelease",
		Level:  hclog.LevelFromString(logLevel(g.logLevel, debug)),
		Output: g.stderr,
	})
}

func logLevel(flag string, debug bool) string {
	lvl := strings.ToLower(strings.TrimSpace(flag))
	switch lvl {
	case "trace", "debug", "info", "warn", "error", "off":
		return lvl
	}
	if debug {
		return "debug"
	}
	return "info"
}

// loadConfig reads the layered configuration, applying values of flags the
// user actually set on top.
func (g *globals) loadConfig(fs *pflag.FlagSet, bindings map[string]string) (*config.Config, error) {
	overrides := make(map[string]any)
	for flag, key := range bindings {
		f := fs.Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		overrides[key] = f.Value.String()
	}
	return config.Load(config.LoadOptions{File: g.config, Overrides: overrides})
}
