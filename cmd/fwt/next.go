package main

import (
	"github.com/spf13/cobra"

	"github.com/bamsammich/fwt/internal/naming"
)

func newNextCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "next <filename>",
		Short: "Print the first free name in a numbered file sequence",
		Long: `Next increments the last number in the file name (img009.jpg, img010.jpg,
...) until it finds a name that does not exist, then prints it. A name
without digits gains "(2)" before its extension.`,
		Args: exactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			g.printer.Line("%s", naming.Next(args[0], nil))
			return nil
		},
	}
}
