package main

import (
	"github.com/spf13/cobra"

	"github.com/bamsammich/fwt/internal/merge"
)

func newMergeCmd(g *globals) *cobra.Command {
	var (
		dryRun        bool
		preserveTimes bool
	)
	cmd := &cobra.Command{
		Use:   "merge [flags] <source> <target>",
		Short: "Copy files from source into target without overwriting anything",
		Long: `Merge copies every file of the source tree into the target tree. A file
already present with identical content is skipped. A different file with the
same name is kept and the incoming copy is written beside it as
"name (Conflict 1).ext", "name (Conflict 2).ext" and so on. Existing target
files are never modified or removed.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("times") && g.cfg.Defaults.PreserveTimes != nil {
				preserveTimes = *g.cfg.Defaults.PreserveTimes
			}

			ctx, stop := signalContext()
			defer stop()
			defer merge.CleanupTmpFiles()

			res, err := merge.Run(ctx, merge.Config{
				Source:        args[0],
				Target:        args[1],
				Filter:        g.filter,
				DryRun:        dryRun,
				PreserveTimes: preserveTimes,
				Sink:          g.sink(),
			})
			if err != nil {
				return err
			}

			g.printer.Summary(res.String())
			if res.Failed > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be copied without writing")
	cmd.Flags().BoolVar(&preserveTimes, "times", false, "give copies the source modification time")
	return cmd
}
