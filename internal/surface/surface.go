// Package surface defines the contracts of the collaborators that render the
// plan (map surfaces) and surface its progress to users (notifiers), and
// adapts them onto the event bus.
package surface

import (
	"guardplan/internal/events"
	"guardplan/internal/model"
)

// MapSurface visualizes placed units
type MapSurface interface {
	OnUnitPlaced(unit model.PlacedUnit)
	OnUnitRemoved(id string)
	OnSessionCleared()
}

// Notifier renders engine state changes to the user
type Notifier interface {
	AnalysisStageChanged(stage string, progress int, message string)
	AnalysisCompleted(findings []model.ThreatFinding)
	QuotaComputed(quota model.DeploymentQuota)
	UnitPlaced(unit model.PlacedUnit)
	DeploymentCompleted(count int)
}

// AttachMapSurface forwards placement events to s. The returned function detaches it.
func AttachMapSurface(bus *events.Emitter, s MapSurface) func() {
	id := bus.Subscribe(func(ev events.Event) {
		switch data := ev.Data.(type) {
		case events.UnitPlaced:
			s.OnUnitPlaced(data.Unit)
		case events.UnitRemoved:
			s.OnUnitRemoved(data.ID)
		case events.SessionCleared:
			s.OnSessionCleared()
		}
	}, events.TypeUnitPlaced, events.TypeUnitRemoved, events.TypeSessionCleared)

	return func() { bus.Unsubscribe(id) }
}

// AttachNotifier forwards state-change events to n. The returned function detaches it.
func AttachNotifier(bus *events.Emitter, n Notifier) func() {
	id := bus.Subscribe(func(ev events.Event) {
		switch data := ev.Data.(type) {
		case events.StageChanged:
			n.AnalysisStageChanged(data.Stage, data.Progress, data.Message)
		case events.AnalysisCompleted:
			n.AnalysisCompleted(data.Findings)
		case events.QuotaComputed:
			n.QuotaComputed(data.Quota)
		case events.UnitPlaced:
			n.UnitPlaced(data.Unit)
		case events.DeploymentCompleted:
			n.DeploymentCompleted(data.Count)
		}
	},
		events.TypeAnalysisStageChanged,
		events.TypeAnalysisCompleted,
		events.TypeQuotaComputed,
		events.TypeUnitPlaced,
		events.TypeDeploymentCompleted,
	)

	return func() { bus.Unsubscribe(id) }
}
