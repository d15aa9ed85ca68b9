package worker

import (
	"context"
	"log/slog"

	"guardplan/internal/config"
)

// StartAllWorkers initializes and starts all background workers. They stop
// when ctx is cancelled.
func StartAllWorkers(ctx context.Context, source PlanStatus, gauge UnitGauge, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("starting all workers")

	StartStatusWorker(ctx, config.StatusWorkerInterval, source, gauge, logger)

	logger.Info("all workers started")
}
