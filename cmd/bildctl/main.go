package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emandor/bild_service/internal/config"
	"github.com/emandor/bild_service/internal/preset"
	"github.com/emandor/bild_service/internal/telemetry"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bildctl",
		Short:         "Render black-and-white variants and histograms from local files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			lc := telemetry.FromEnv(config.GetEnv)
			lc.JSON = false
			lc.File = ""
			telemetry.Init(lc)
		},
	}
	root.AddCommand(newRenderCmd(), newHistogramCmd(), newPresetsCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		log := telemetry.L()
		log.Error().Err(err).Msg("bildctl_failed")
		os.Exit(1)
	}
}

func catalog() *preset.Catalog { return preset.Default() }
