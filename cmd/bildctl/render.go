package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/emandor/bild_service/internal/delivery"
	"github.com/emandor/bild_service/internal/img"
	"github.com/emandor/bild_service/internal/preset"
	"github.com/emandor/bild_service/internal/telemetry"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render one variant of an image to a JPEG file",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}
	cmd.Flags().String("variant", string(preset.HighContrast), "Variant id (high_contrast, flat_gray)")
	cmd.Flags().String("tier", string(preset.Download), "Output tier (preview, download)")
	cmd.Flags().StringP("output", "o", "", "Output JPEG path (default bild_<variant>_<timestamp>.jpg)")
	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	variantID, _ := cmd.Flags().GetString("variant")
	tierID, _ := cmd.Flags().GetString("tier")
	out, _ := cmd.Flags().GetString("output")

	cat := catalog()
	v, ok := cat.Variant(variantID)
	if !ok {
		return fmt.Errorf("unknown variant %q", variantID)
	}
	t, ok := cat.Tier(preset.TierID(tierID))
	if !ok {
		return fmt.Errorf("unknown tier %q", tierID)
	}
	if out == "" {
		out = delivery.Filename(v.ID, time.Now())
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	engine := img.NewEngine(img.EngineConfig{Workers: 1})
	start := time.Now()
	res, err := engine.Render(cmd.Context(), f, img.OptionsFor(v, t))
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, res.Bytes, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	log := telemetry.L()
	log.Info().
		Str("variant", string(v.ID)).
		Str("tier", string(t.ID)).
		Int("width", res.Width).
		Int("height", res.Height).
		Dur("took", time.Since(start)).
		Str("output", out).
		Msg("render_done")
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
