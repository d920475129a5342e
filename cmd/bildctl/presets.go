package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List variants and output tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VARIANT\tGAIN\tOFFSET\tLABEL")
			for _, v := range cat.Variants() {
				fmt.Fprintf(w, "%s\t%.1f\t%+.0f\t%s\n", v.ID, v.Gain, v.Offset, v.Label)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "TIER\tMAX\tQUALITY\tDISPOSITION")
			for _, t := range cat.Tiers() {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", t.ID, t.MaxDimension, t.Quality, t.Disposition)
			}
			return w.Flush()
		},
	}
}
