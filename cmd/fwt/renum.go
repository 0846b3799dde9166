package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bamsammich/fwt/internal/renum"
)

func newRenumCmd(g *globals) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "renum [flags] <files>... <target>",
		Short: "Renumber a set of files into a numbered sequence",
		Long: `Renum renames the matching files, in natural order, to a numbered
sequence. The target holds a number followed by "+", which sets the first
number and its zero padding: "img001+.jpg" yields img001.jpg, img002.jpg...

Source patterns may use *, ? and [...] in the file name; --icase makes them
case-insensitive. Files are first renamed to "<new>.renum" and then to their
final name, so no two files ever share a name.`,
		Args: minArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			plan, err := renum.Build(args, g.icase)
			if err != nil {
				return err
			}
			if len(plan.Moves) == 0 {
				g.printer.Summary("nothing to rename.")
				return nil
			}
			if dryRun {
				plan.Report(g.sink())
				return nil
			}
			if err := plan.Apply(g.sink()); err != nil {
				return err
			}
			g.printer.Summary(fmt.Sprintf("%d renamed.", len(plan.Moves)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the renames without performing them")
	return cmd
}
