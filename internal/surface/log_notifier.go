package surface

import (
	"log/slog"

	"guardplan/internal/model"
)

// LogNotifier writes notifications to a structured logger
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) AnalysisStageChanged(stage string, progress int, message string) {
	l.Logger.Info(message, slog.String("stage", stage), slog.Int("progress", progress))
}

func (l LogNotifier) AnalysisCompleted(findings []model.ThreatFinding) {
	for _, f := range findings {
		l.Logger.Info("threat finding",
			slog.String("severity", string(f.Severity)),
			slog.String("title", f.Title),
			slog.Float64("lat", f.Location.Lat),
			slog.Float64("lng", f.Location.Lng),
		)
	}
}

func (l LogNotifier) QuotaComputed(quota model.DeploymentQuota) {
	attrs := make([]any, 0, len(model.DeploymentOrder))
	for _, kind := range model.DeploymentOrder {
		attrs = append(attrs, slog.Int(string(kind), quota[kind]))
	}
	l.Logger.Info("quota computed", attrs...)
}

func (l LogNotifier) UnitPlaced(unit model.PlacedUnit) {
	l.Logger.Debug("unit placed",
		slog.String("id", unit.ID),
		slog.String("kind", string(unit.Kind)),
		slog.Bool("overlapping", unit.Overlapping),
	)
}

func (l LogNotifier) DeploymentCompleted(count int) {
	l.Logger.Info("deployment completed", slog.Int("units", count))
}
