package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bamsammich/fwt/internal/dupes"
	"github.com/bamsammich/fwt/internal/ui"
)

func newFinddupsCmd(g *globals) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "finddups [flags] <dir>...",
		Short: "Find duplicate files and fully duplicated directories",
		Long: `Finddups indexes every directory given, reports each group of files with
identical content, then lists the directories whose files all have a copy
in another directory and whose subdirectories are fully duplicated too.
Nested directories are folded into their top-most ancestor. Review the
duplicate groups before deleting anything: a reported directory may hold
the only copies of files that are duplicated within it.`,
		Args: minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("strict") && g.cfg.Defaults.Strict != nil {
				strict = *g.cfg.Defaults.Strict
			}

			cache, err := g.openCache()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			res, err := dupes.Run(ctx, dupes.Config{
				Roots:     args,
				Index:     cache,
				Filter:    g.filter,
				MoveAware: !strict,
				Sink:      g.sink(),
			})
			if err != nil {
				return err
			}

			g.printer.Summary(fmt.Sprintf("%s duplicate sets (%s reclaimable), %s fully duplicated directories",
				ui.FormatCount(int64(len(res.Sets))), ui.FormatBytes(res.WastedBytes()),
				ui.FormatCount(int64(len(res.Dirs)))))
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", true,
		"rehash files whose path changed; --strict=false trusts name, size and mtime of moved files")
	return cmd
}
