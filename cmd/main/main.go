package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "guardplan",
		Short: "Security deployment planner for event perimeters",
		Long: `guardplan sizes a drawn event perimeter, runs a staged threat analysis
over it and lays out guards, cameras, barriers and other resources.`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd(), newPlanCmd())
	return root
}
