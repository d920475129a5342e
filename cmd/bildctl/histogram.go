package main

import (
	"encoding/json"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/emandor/bild_service/internal/histogram"
)

func newHistogramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "histogram <file>",
		Short: "Print the smoothed luminance histogram of an image as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistogram,
	}
	cmd.Flags().String("png", "", "Also draw the curve to this PNG file")
	return cmd
}

func runHistogram(cmd *cobra.Command, args []string) error {
	pngPath, _ := cmd.Flags().GetString("png")

	im, err := imaging.Open(args[0], imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decoding: %w", err)
	}

	a := histogram.NewAnalyzer(histogram.CurveWidth, histogram.CurveHeight)
	defer a.Release()
	r := a.Analyze(im)

	if pngPath != "" {
		if err := imaging.Save(r.Curve, pngPath); err != nil {
			return fmt.Errorf("writing curve: %w", err)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(r.Result)
}
