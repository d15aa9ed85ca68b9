package model

import "fmt"

// ResourceKind identifies a deployable security resource
type ResourceKind string

const (
	KindGuard   ResourceKind = "guard"
	KindCamera  ResourceKind = "camera"
	KindSensor  ResourceKind = "sensor"
	KindK9      ResourceKind = "k9"
	KindDrone   ResourceKind = "drone"
	KindMedical ResourceKind = "medical"
	KindBarrier ResourceKind = "barrier"
	KindRadio   ResourceKind = "radio" // radio relay point
)

// DeploymentOrder is the order the orchestrator walks resource kinds in.
// Aerial and high-vantage kinds go first so they render underneath ground units.
var DeploymentOrder = []ResourceKind{
	KindDrone,
	KindCamera,
	KindRadio,
	KindGuard,
	KindK9,
	KindSensor,
	KindBarrier,
	KindMedical,
}

// ParseResourceKind validates a kind name
func ParseResourceKind(s string) (ResourceKind, error) {
	k := ResourceKind(s)
	for _, known := range DeploymentOrder {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown resource kind %q", s)
}

// Strategy names a placement rule turning an index into a candidate point
type Strategy string

const (
	StrategyCorners   Strategy = "corners"
	StrategyMidpoints Strategy = "midpoints"
	StrategyCenter    Strategy = "center"
	StrategyPerimeter Strategy = "perimeter"
	StrategyPatrol    Strategy = "patrol"
	StrategyEntrances Strategy = "entrances"

	// StrategyManual marks units placed by an explicit user request
	StrategyManual Strategy = "manual"
)

// KindSpec holds the placement defaults of a resource kind
type KindSpec struct {
	MinSeparation float64  `json:"min_separation" mapstructure:"min_separation" validate:"gte=0"` // meters
	Strategy      Strategy `json:"strategy" mapstructure:"strategy" validate:"required"`
}

// KindSpecs maps every resource kind to its placement defaults
type KindSpecs map[ResourceKind]KindSpec

// DefaultKindSpecs returns the built-in placement defaults
func DefaultKindSpecs() KindSpecs {
	return KindSpecs{
		KindDrone:   {MinSeparation: 60, Strategy: StrategyPatrol},
		KindCamera:  {MinSeparation: 25, Strategy: StrategyCorners},
		KindRadio:   {MinSeparation: 80, Strategy: StrategyCenter},
		KindGuard:   {MinSeparation: 30, Strategy: StrategyPerimeter},
		KindK9:      {MinSeparation: 40, Strategy: StrategyMidpoints},
		KindSensor:  {MinSeparation: 20, Strategy: StrategyPerimeter},
		KindBarrier: {MinSeparation: 10, Strategy: StrategyEntrances},
		KindMedical: {MinSeparation: 50, Strategy: StrategyCenter},
	}
}

// MinSeparation returns the separation for a kind, zero for unknown kinds
func (s KindSpecs) MinSeparation(kind ResourceKind) float64 {
	return s[kind].MinSeparation
}

// DeploymentQuota is the required unit count per resource kind
type DeploymentQuota map[ResourceKind]int

// Total returns the sum of all counts
func (q DeploymentQuota) Total() int {
	total := 0
	for _, n := range q {
		total += n
	}
	return total
}

// Clone returns an independent copy of the quota
func (q DeploymentQuota) Clone() DeploymentQuota {
	if q == nil {
		return nil
	}
	out := make(DeploymentQuota, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}
