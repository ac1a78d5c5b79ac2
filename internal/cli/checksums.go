package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	terrors "github.com/3leaps/taprelease/internal/errors"
	"github.com/3leaps/taprelease/internal/verify"
)

func newChecksumsCmd(g *globals) *cobra.Command {
	var (
		out    string
		output = FormatText
	)

	cmd := &cobra.Command{
		Use:   "checksums <dir>",
		Short: "Write a checksum ledger for the release artifacts in a directory",
		Long: `Checksums hashes every regular file in dir, skipping signatures and
existing checksum files, and writes "<sha256> <filename>" lines to
dir/checksum.txt (or --out).`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := args[0]
			ledger, err := verify.LedgerForDir(dir)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(dir, verify.LedgerName)
			}
			if err := ledger.WriteFile(out); err != nil {
				return err
			}
			g.logger(false).Info("ledger written", "path", out, "artifacts", len(ledger.Entries))
			return output.write(g.stdout, ledger, func(w io.Writer) error {
				_, err := io.WriteString(w, ledger.String())
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "ledger path (default <dir>/checksum.txt)")
	cmd.Flags().Var(&output, "output", "output format: text, json or yaml")
	cmd.AddCommand(newChecksumsVerifyCmd(g))
	return cmd
}

func newChecksumsVerifyCmd(g *globals) *cobra.Command {
	output := FormatText

	cmd := &cobra.Command{
		Use:   "verify <ledger> <dir> [artifact...]",
		Short: "Check the files in a directory against a checksum ledger",
		Long: `Verify recomputes every ledger entry against the files in dir. When
artifact names follow dir, only those files are checked and the first
argument may be any checksum file: a sha256sums listing or a bare digest.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			mismatches, total, err := checkArtifacts(args[0], args[1], args[2:])
			if err != nil {
				return err
			}
			if err := output.write(g.stdout, mismatches, func(w io.Writer) error {
				return writeMismatches(w, mismatches, total)
			}); err != nil {
				return err
			}
			if len(mismatches) > 0 {
				return terrors.Data("verify checksums", fmt.Errorf("%d of %d artifacts failed verification", len(mismatches), total))
			}
			return nil
		},
	}
	cmd.Flags().Var(&output, "output", "output format: text, json or yaml")
	return cmd
}

func checkArtifacts(sums, dir string, names []string) ([]verify.Mismatch, int, error) {
	if len(names) > 0 {
		// #nosec G304 -- checksum file named on the command line
		data, err := os.ReadFile(sums)
		if err != nil {
			return nil, 0, terrors.IO("read checksum file", err)
		}
		mismatches, err := verify.CheckArtifacts(data, dir, names)
		return mismatches, len(names), err
	}
	ledger, err := verify.ReadLedger(sums)
	if err != nil {
		return nil, 0, err
	}
	mismatches, err := verify.CheckDir(ledger, dir)
	return mismatches, len(ledger.Entries), err
}

func writeMismatches(w io.Writer, mismatches []verify.Mismatch, total int) error {
	for _, m := range mismatches {
		var err error
		if m.Missing {
			_, err = fmt.Fprintf(w, "MISSING  %s\n", m.Filename)
		} else {
			_, err = fmt.Fprintf(w, "MISMATCH %s want %s got %s\n", m.Filename, m.Want, m.Got)
		}
		if err != nil {
			return err
		}
	}
	if len(mismatches) == 0 {
		_, err := fmt.Fprintf(w, "OK %d artifacts\n", total)
		return err
	}
	return nil
}
