// Package placement resolves named placement strategies into candidate points
// and keeps placed units apart through bounded perturbation retries.
package placement

import (
	"errors"
	"fmt"

	"guardplan/internal/model"
	"guardplan/internal/util"
)

var (
	// ErrUnknownStrategy is returned for strategy names the resolver does not know
	ErrUnknownStrategy = errors.New("unknown placement strategy")
	// ErrEmptyPerimeter is returned when the perimeter has fewer than 3 vertices
	ErrEmptyPerimeter = errors.New("perimeter has fewer than 3 vertices")
	// ErrInvalidIndex is returned for negative unit indexes
	ErrInvalidIndex = errors.New("negative placement index")
)

// GoldenAngle spreads successive points around a spiral without clustering
const GoldenAngle = 137.5

// ResolverConfig holds strategy offsets in meters
type ResolverConfig struct {
	CornerFanOut     float64 `mapstructure:"corner_fan_out" validate:"gt=0"`     // per repeated pass
	MidpointOffset   float64 `mapstructure:"midpoint_offset" validate:"gt=0"`    // per pair of repeated passes
	CenterSpiralStep float64 `mapstructure:"center_spiral_step" validate:"gt=0"` // radius per index
	PatrolStep       float64 `mapstructure:"patrol_step" validate:"gt=0"`        // outward per index
	EntranceOffset   float64 `mapstructure:"entrance_offset" validate:"gt=0"`    // perpendicular
}

// DefaultResolverConfig returns the reference offsets
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		CornerFanOut:     40,
		MidpointOffset:   30,
		CenterSpiralStep: 20,
		PatrolStep:       30,
		EntranceOffset:   20,
	}
}

// Resolver maps (strategy, perimeter, i, n) to a candidate point.
// It is deterministic and safe for concurrent use.
type Resolver struct {
	cfg ResolverConfig
}

// NewResolver creates a resolver
func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve returns the candidate for unit i of n placed with the given strategy
func (r *Resolver) Resolve(strategy model.Strategy, p model.Perimeter, i, n int) (model.Point, error) {
	if !p.Valid() {
		return model.Point{}, ErrEmptyPerimeter
	}
	if i < 0 {
		return model.Point{}, fmt.Errorf("%w: %d", ErrInvalidIndex, i)
	}
	if n < 1 {
		n = 1
	}

	switch strategy {
	case model.StrategyCorners:
		return r.corners(p, i), nil
	case model.StrategyMidpoints:
		return r.midpoints(p, i), nil
	case model.StrategyCenter:
		return r.center(p, i), nil
	case model.StrategyPerimeter:
		return r.alongPerimeter(p, i, n), nil
	case model.StrategyPatrol:
		return r.patrol(p, i), nil
	case model.StrategyEntrances:
		return r.entrances(p, i, n), nil
	default:
		return model.Point{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// corners cycles through the vertices; each further pass fans out away from the centroid
func (r *Resolver) corners(p model.Perimeter, i int) model.Point {
	v := len(p)
	vertex := p[i%v]
	pass := i / v
	if pass == 0 {
		return vertex
	}
	bearing := util.Bearing(util.Centroid(p), vertex)
	return util.OffsetPoint(vertex, r.cfg.CornerFanOut*float64(pass), bearing)
}

// midpoints cycles through edge midpoints, alternating sides on repeated passes
func (r *Resolver) midpoints(p model.Perimeter, i int) model.Point {
	v := len(p)
	a, b := p.Edge(i % v)
	mid := util.Interpolate(a, b, 0.5)
	pass := i / v
	if pass == 0 {
		return mid
	}

	side := -90.0
	if pass%2 == 1 {
		side = 90
	}
	dist := r.cfg.MidpointOffset * float64((pass+1)/2)
	return util.OffsetPoint(mid, dist, util.Bearing(a, b)+side)
}

// center spirals outward from the centroid
func (r *Resolver) center(p model.Perimeter, i int) model.Point {
	return util.OffsetPoint(util.Centroid(p), r.cfg.CenterSpiralStep*float64(i), GoldenAngle*float64(i))
}

// alongPerimeter places unit i at arc-length fraction i/n of the boundary
func (r *Resolver) alongPerimeter(p model.Perimeter, i, n int) model.Point {
	total := util.PerimeterLength(p)
	if total == 0 {
		return p[0]
	}

	remaining := total * float64(i%n) / float64(n)
	for e := 0; e < len(p); e++ {
		a, b := p.Edge(e)
		length := util.DistanceMeters(a, b)
		if remaining <= length || e == len(p)-1 {
			if length == 0 {
				return a
			}
			return util.Interpolate(a, b, min(remaining/length, 1))
		}
		remaining -= length
	}
	return p[0]
}

// patrol alternates between the northeast and southwest bounding-box corners,
// moving outward with every index
func (r *Resolver) patrol(p model.Perimeter, i int) model.Point {
	ne, sw := util.BoundsOf(p)
	dist := r.cfg.PatrolStep * float64(i)
	if i%2 == 0 {
		return util.OffsetPoint(ne, dist, 45)
	}
	return util.OffsetPoint(sw, dist, 225)
}

// entrances spreads units over vertices at stride V/n with a perpendicular
// offset whose side follows the parity of i
func (r *Resolver) entrances(p model.Perimeter, i, n int) model.Point {
	v := len(p)
	idx := (i * v / n) % v
	a, b := p.Edge(idx)

	side := -90.0
	if i%2 == 1 {
		side = 90
	}
	return util.OffsetPoint(a, r.cfg.EntranceOffset, util.Bearing(a, b)+side)
}
