package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"guardplan/internal/export"
	"guardplan/internal/logging"
	"guardplan/internal/model"
	"guardplan/internal/service/planner"
	"guardplan/internal/timectrl"
	"guardplan/internal/util"

	"github.com/spf13/cobra"
)

type planOptions struct {
	perimeterFile string
	polyline      string
	plannerConfig string
	format        string
	analyzeOnly   bool
	verbose       bool
}

func newPlanCmd() *cobra.Command {
	var opts planOptions
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Analyze a perimeter and print the deployment plan",
		Long: `plan runs analysis and automatic deployment offline, without waiting
for stage delays or placement staggering, and prints the result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.perimeterFile, "perimeter", "", "GeoJSON file holding the perimeter polygon")
	f.StringVar(&opts.polyline, "polyline", "", "perimeter as a Google encoded polyline")
	f.StringVar(&opts.plannerConfig, "planner-config", "", "YAML file with planner tunables")
	f.StringVarP(&opts.format, "format", "o", "json", "output format: json or geojson")
	f.BoolVar(&opts.analyzeOnly, "analyze-only", false, "stop after analysis, place no units")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log planner progress to stderr")
	cmd.MarkFlagsMutuallyExclusive("perimeter", "polyline")
	return cmd
}

func runPlan(ctx context.Context, opts planOptions, out, errOut io.Writer) error {
	format := strings.ToLower(opts.format)
	if format != "json" && format != "geojson" {
		return fmt.Errorf("unknown output format %q", opts.format)
	}

	perimeter, err := readPerimeter(opts)
	if err != nil {
		return err
	}

	cfg, err := loadPlannerConfig(opts.plannerConfig)
	if err != nil {
		return err
	}

	level := "warn"
	if opts.verbose {
		level = "info"
	}
	logger := logging.New(logging.Config{Level: level}, errOut)

	p, err := planner.New(cfg, planner.WithClock(timectrl.Instant{}), planner.WithLogger(logger))
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.StartAnalysis(perimeter); err != nil {
		return fmt.Errorf("start analysis: %w", err)
	}
	if err := p.Wait(ctx); err != nil {
		return err
	}
	if state := p.AnalysisState(); state.Phase != model.AnalysisComplete {
		return fmt.Errorf("analysis ended in phase %s: %s", state.Phase, state.Err)
	}

	if !opts.analyzeOnly {
		if err := p.StartAutoDeployment(); err != nil {
			return fmt.Errorf("start deployment: %w", err)
		}
		if err := p.Wait(ctx); err != nil {
			return err
		}
		logger.Info("deployment finished", slog.Int("units", len(p.Units())))
	}

	report := p.Snapshot()
	if format == "geojson" {
		data, err := export.FeatureCollection(report).MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func readPerimeter(opts planOptions) (model.Perimeter, error) {
	switch {
	case opts.polyline != "":
		return util.DecodePerimeter(opts.polyline)
	case opts.perimeterFile != "":
		data, err := os.ReadFile(opts.perimeterFile)
		if err != nil {
			return nil, fmt.Errorf("read perimeter: %w", err)
		}
		return export.ParsePerimeter(data)
	default:
		return nil, errors.New("one of --perimeter or --polyline is required")
	}
}
