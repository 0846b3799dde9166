package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/bamsammich/fwt/internal/compare"
	"github.com/bamsammich/fwt/internal/errs"
	"github.com/bamsammich/fwt/internal/hashcache"
)

func newCompareCmd(g *globals) *cobra.Command {
	var (
		noLeft    bool
		noRight   bool
		attrsOnly bool
		content   bool
		moveAware bool
		tolerance time.Duration
	)
	cmd := &cobra.Command{
		Use:   "compare [flags] <left> <right>",
		Short: "Report files missing from either tree or that differ",
		Long: `Compare walks two directory trees side by side and reports entries that
exist on one side only ("missing") and files whose type, modification time,
size or content differ. Content is compared through the hash cache.

With --content the trees are compared by content alone: a file is missing
when no file with the same hash exists anywhere in the other tree.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("tolerance") {
				t, err := g.cfg.Defaults.Tolerance()
				if err != nil {
					return errs.Invalid("%v", err)
				}
				if t > 0 {
					tolerance = t
				}
			}
			if attrsOnly && content {
				return errs.Invalid("--attrs and --content are mutually exclusive")
			}

			ctx, stop := signalContext()
			defer stop()

			cfg := compare.Config{
				Left:      args[0],
				Right:     args[1],
				Filter:    g.filter,
				AttrsOnly: attrsOnly,
				NoLeft:    noLeft,
				NoRight:   noRight,
				MoveAware: moveAware,
				Tolerance: tolerance,
				Sink:      g.sink(),
			}

			var (
				res compare.Result
				err error
			)
			switch {
			case attrsOnly:
				res, err = compare.Run(ctx, cfg)
			default:
				cache, openErr := g.openCache(hashcache.WithContext(ctx))
				if openErr != nil {
					return openErr
				}
				if content {
					res, err = compare.RunContent(ctx, cfg, cache)
				} else {
					cfg.Content = cache
					res, err = compare.Run(ctx, cfg)
				}
			}
			if err != nil {
				return err
			}

			g.printer.Summary(res.String())
			if res.Errors > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&noLeft, "no-left", false, "don't report files missing from the left")
	f.BoolVar(&noRight, "no-right", false, "don't report files missing from the right")
	f.BoolVar(&attrsOnly, "attrs", false, "compare size and modification time only, never content")
	f.BoolVar(&content, "content", false, "compare by content only, ignoring names and locations")
	f.BoolVar(&moveAware, "move", false, "reuse cached hashes of files that were moved")
	f.DurationVar(&tolerance, "tolerance", compare.DefaultTolerance, "modification time slack")
	return cmd
}
