package worker

import (
	"context"
	"log/slog"
	"time"

	"guardplan/internal/model"
)

// PlanStatus is the read side of the planner the status worker reports on
type PlanStatus interface {
	AnalysisState() model.AnalysisState
	DeployedCounts() map[model.ResourceKind]int
}

// UnitGauge receives the per-kind count of placed units
type UnitGauge interface {
	SetActiveUnits(counts map[model.ResourceKind]int)
}

// StartStatusWorker starts the worker that periodically logs the plan state
// and refreshes the active unit gauge. gauge may be nil.
func StartStatusWorker(ctx context.Context, interval time.Duration, source PlanStatus, gauge UnitGauge, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info("status worker stopped")
				return
			case <-ticker.C:
				reportStatus(source, gauge, logger)
			}
		}
	}()

	logger.Info("status worker started", slog.Duration("interval", interval))
}

func reportStatus(source PlanStatus, gauge UnitGauge, logger *slog.Logger) {
	state := source.AnalysisState()
	counts := source.DeployedCounts()

	total := 0
	for _, n := range counts {
		total += n
	}

	logger.Info("plan status",
		slog.String("phase", state.Phase.String()),
		slog.Int("progress", state.Progress),
		slog.Int("units", total),
	)

	if gauge != nil {
		gauge.SetActiveUnits(counts)
	}
}
