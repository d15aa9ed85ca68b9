package events

import (
	"time"

	"guardplan/internal/model"
)

// Type tags an event. Subscribers filter on it instead of inspecting payloads.
type Type string

const (
	TypeAnalysisStageChanged Type = "analysis_stage_changed"
	TypeAnalysisCompleted    Type = "analysis_completed"
	TypeAnalysisFailed       Type = "analysis_failed"
	TypeAnalysisReset        Type = "analysis_reset"
	TypeQuotaComputed        Type = "quota_computed"
	TypeUnitPlaced           Type = "unit_placed"
	TypeUnitRemoved          Type = "unit_removed"
	TypeSessionCleared       Type = "session_cleared"
	TypeDeploymentCompleted  Type = "deployment_completed"
	TypePlacementExhausted   Type = "placement_exhausted"
)

// Event is a single notification on the bus
type Event struct {
	Type Type      `json:"type"`
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}

// StageChanged is the payload of TypeAnalysisStageChanged
type StageChanged struct {
	Stage    string `json:"stage"`
	Index    int    `json:"index"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// AnalysisCompleted is the payload of TypeAnalysisCompleted
type AnalysisCompleted struct {
	Findings []model.ThreatFinding `json:"findings"`
}

// AnalysisFailed is the payload of TypeAnalysisFailed
type AnalysisFailed struct {
	Reason string `json:"reason"`
}

// QuotaComputed is the payload of TypeQuotaComputed
type QuotaComputed struct {
	Area     float64               `json:"area"`
	Capacity int                   `json:"capacity"`
	Quota    model.DeploymentQuota `json:"quota"`
}

// UnitPlaced is the payload of TypeUnitPlaced
type UnitPlaced struct {
	Unit model.PlacedUnit `json:"unit"`
}

// UnitRemoved is the payload of TypeUnitRemoved
type UnitRemoved struct {
	ID   string             `json:"id"`
	Kind model.ResourceKind `json:"kind"`
}

// SessionCleared is the payload of TypeSessionCleared
type SessionCleared struct {
	Removed int `json:"removed"`
}

// DeploymentCompleted is the payload of TypeDeploymentCompleted
type DeploymentCompleted struct {
	Count int `json:"count"`
}

// PlacementExhausted is the payload of TypePlacementExhausted
type PlacementExhausted struct {
	Kind     model.ResourceKind `json:"kind"`
	Index    int                `json:"index"`
	Attempts int                `json:"attempts"`
	Position model.Point        `json:"position"`
}
