package placement

import (
	"math"

	"guardplan/internal/model"
	"guardplan/internal/util"
)

// Occupant is an already placed unit as seen by the placer
type Occupant struct {
	Position      model.Point
	MinSeparation float64
}

// Occupancy answers neighbourhood queries over placed units
type Occupancy interface {
	// Within returns the occupants whose distance to center is at most radius meters
	Within(center model.Point, radius float64) []Occupant
	// MaxSeparation returns the largest MinSeparation among occupants
	MaxSeparation() float64
}

// Occupants is a linear-scan Occupancy over a plain slice
type Occupants []Occupant

func (o Occupants) Within(center model.Point, radius float64) []Occupant {
	var out []Occupant
	for _, occ := range o {
		if util.DistanceMeters(center, occ.Position) <= radius {
			out = append(out, occ)
		}
	}
	return out
}

func (o Occupants) MaxSeparation() float64 {
	m := 0.0
	for _, occ := range o {
		m = math.Max(m, occ.MinSeparation)
	}
	return m
}

// PlacerConfig bounds the perturbation retries
type PlacerConfig struct {
	BaseOffset  float64 `mapstructure:"base_offset" validate:"gt=0"`  // meters per attempt
	MaxAttempts int     `mapstructure:"max_attempts" validate:"gte=0"`
}

// DefaultPlacerConfig returns the reference retry policy
func DefaultPlacerConfig() PlacerConfig {
	return PlacerConfig{
		BaseOffset:  30,
		MaxAttempts: 10,
	}
}

// Placement is the outcome of conflict avoidance
type Placement struct {
	Point    model.Point
	Attempts int // perturbations tried, 0 when the candidate was free

	// Exhausted is set when every attempt conflicted; Point is then the last
	// perturbed position
	Exhausted bool
}

// Placer moves candidates away from occupied positions
type Placer struct {
	cfg PlacerConfig
}

// NewPlacer creates a placer
func NewPlacer(cfg PlacerConfig) *Placer {
	return &Placer{cfg: cfg}
}

// Place returns the first position at least max(minSep, occupant separation)
// away from every occupant. Attempt k offsets the original candidate by
// BaseOffset*k meters at bearing k*GoldenAngle. After MaxAttempts the last
// perturbed position is accepted and the placement is flagged as exhausted.
func (p *Placer) Place(candidate model.Point, minSep float64, occ Occupancy) Placement {
	if !p.conflicts(candidate, minSep, occ) {
		return Placement{Point: candidate}
	}

	last := candidate
	for k := 1; k <= p.cfg.MaxAttempts; k++ {
		last = util.OffsetPoint(candidate, p.cfg.BaseOffset*float64(k), GoldenAngle*float64(k))
		if !p.conflicts(last, minSep, occ) {
			return Placement{Point: last, Attempts: k}
		}
	}
	return Placement{Point: last, Attempts: p.cfg.MaxAttempts, Exhausted: true}
}

func (p *Placer) conflicts(pt model.Point, minSep float64, occ Occupancy) bool {
	if occ == nil {
		return false
	}
	radius := math.Max(minSep, occ.MaxSeparation())
	for _, o := range occ.Within(pt, radius) {
		if util.DistanceMeters(pt, o.Position) < math.Max(minSep, o.MinSeparation) {
			return true
		}
	}
	return false
}
