package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/bamsammich/fwt/internal/errs"
)

func newDocsCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:    "docs [dir]",
		Short:  "Generate documentation for fwt",
		Hidden: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return errs.Invalid("%s takes at most 1 argument, got %d", cmd.Name(), len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "docs"
			if len(args) == 1 {
				dir = args[0]
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errs.IO("create output dir", dir, err)
			}

			// Use the root to generate docs for all commands.
			root := cmd.Root()

			switch format {
			case "man":
				header := &doc.GenManHeader{
					Title:   "FWT",
					Section: "1",
					Source:  "fwt " + version,
				}
				return doc.GenManTree(root, header, dir)
			case "markdown":
				return doc.GenMarkdownTree(root, dir)
			default:
				return errs.Invalid("unknown format %q (use man or markdown)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "man", "output format (man or markdown)")
	return cmd
}

