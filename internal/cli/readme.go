package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/3leaps/taprelease/internal/config"
	"github.com/3leaps/taprelease/internal/readme"
)

func newReadmeCmd(g *globals) *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "readme <tap-dir>",
		Short: "Regenerate the project table in a tap README",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path, err := readme.Update(args[0], folder, g.logger(false))
			if err != nil {
				return err
			}
			if path == "" {
				_, err = fmt.Fprintln(g.stdout, "README unchanged")
				return err
			}
			_, err = fmt.Fprintf(g.stdout, "updated %s\n", path)
			return err
		},
	}
	cmd.Flags().StringVar(&folder, "formula-folder", config.DefaultFormulaFolder, "folder inside the tap holding formula files")
	return cmd
}
