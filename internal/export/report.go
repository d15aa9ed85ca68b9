// Package export exposes the plan as stable, serializable structures for
// report generators and map clients.
package export

import (
	"time"

	"guardplan/internal/model"
	"guardplan/internal/service/capacity"
)

// KindProgress is the deployed/required count of one resource kind
type KindProgress struct {
	Kind     model.ResourceKind `json:"kind"`
	Deployed int                `json:"deployed"`
	Required int                `json:"required"`
}

// Report is a point-in-time snapshot of the whole plan
type Report struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Perimeter   model.Perimeter       `json:"perimeter"`
	Analysis    model.AnalysisState   `json:"analysis"`
	Estimate    capacity.Estimate     `json:"estimate"`
	Quota       model.DeploymentQuota `json:"quota,omitempty"` // set once analysis completed
	Progress    []KindProgress        `json:"progress"`
	Units       []model.PlacedUnit    `json:"units"`
	Findings    []model.ThreatFinding `json:"findings"`
}

// BuildProgress lists deployed/required per kind in deployment order. Kinds
// with neither a requirement nor a deployed unit are omitted.
func BuildProgress(quota model.DeploymentQuota, deployed map[model.ResourceKind]int) []KindProgress {
	out := make([]KindProgress, 0, len(model.DeploymentOrder))
	for _, kind := range model.DeploymentOrder {
		req, dep := quota[kind], deployed[kind]
		if req == 0 && dep == 0 {
			continue
		}
		out = append(out, KindProgress{Kind: kind, Deployed: dep, Required: req})
	}
	return out
}
