// Package capacity turns a perimeter into crowd capacity and a per-kind
// deployment quota.
package capacity

import (
	"math"

	"guardplan/internal/model"
	"guardplan/internal/util"
)

// EstimatorConfig holds the sizing thresholds. Counts are floored at their Min values.
type EstimatorConfig struct {
	AreaPerPerson float64 `mapstructure:"area_per_person" validate:"gt=0"` // m² per attendee

	GuardAreaQuantum float64 `mapstructure:"guard_area_quantum" validate:"gt=0"` // one guard per quantum m²
	GuardMin         int     `mapstructure:"guard_min" validate:"gte=0"`

	CameraPerVertex float64 `mapstructure:"camera_per_vertex" validate:"gte=0"`
	CameraMin       int     `mapstructure:"camera_min" validate:"gte=0"`

	BarrierPerVertex float64 `mapstructure:"barrier_per_vertex" validate:"gte=0"`
	BarrierMin       int     `mapstructure:"barrier_min" validate:"gte=0"`

	SensorPerVertex float64 `mapstructure:"sensor_per_vertex" validate:"gte=0"`
	SensorMin       int     `mapstructure:"sensor_min" validate:"gte=0"`

	K9AreaStep float64 `mapstructure:"k9_area_step" validate:"gt=0"`
	K9Min      int     `mapstructure:"k9_min" validate:"gte=1"`

	MedicalAreaStep float64 `mapstructure:"medical_area_step" validate:"gt=0"`
	MedicalMin      int     `mapstructure:"medical_min" validate:"gte=1"`

	// DroneBreakpoints are ascending areas; each one exceeded adds a drone
	DroneBreakpoints []float64 `mapstructure:"drone_breakpoints"`
	DroneMin         int       `mapstructure:"drone_min" validate:"gte=1"`

	RadioAreaStep float64 `mapstructure:"radio_area_step" validate:"gt=0"`
	RadioMin      int     `mapstructure:"radio_min" validate:"gte=1"`
}

// DefaultEstimatorConfig returns the reference thresholds
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		AreaPerPerson:    2,
		GuardAreaQuantum: 5000,
		GuardMin:         8,
		CameraPerVertex:  1.5,
		CameraMin:        6,
		BarrierPerVertex: 3,
		BarrierMin:       12,
		SensorPerVertex:  2,
		SensorMin:        6,
		K9AreaStep:       10000,
		K9Min:            2,
		MedicalAreaStep:  15000,
		MedicalMin:       2,
		DroneBreakpoints: []float64{20000, 100000, 500000},
		DroneMin:         1,
		RadioAreaStep:    25000,
		RadioMin:         1,
	}
}

// Estimate is the sizing result for one perimeter
type Estimate struct {
	Area        float64               `json:"area"` // m²
	Capacity    int                   `json:"capacity"`
	VertexCount int                   `json:"vertex_count"`
	Quota       model.DeploymentQuota `json:"quota,omitempty"`
}

// Valid reports whether the estimate came from a usable perimeter
func (e Estimate) Valid() bool {
	return e.Quota != nil
}

// Estimator derives capacity and quotas. It is stateless and safe for concurrent use.
type Estimator struct {
	cfg EstimatorConfig
}

// NewEstimator creates an estimator
func NewEstimator(cfg EstimatorConfig) *Estimator {
	return &Estimator{cfg: cfg}
}

// Config returns the thresholds in use
func (e *Estimator) Config() EstimatorConfig {
	return e.cfg
}

// Estimate sizes a perimeter. Perimeters with fewer than 3 vertices or with
// self-intersections yield a zero estimate with no quota.
func (e *Estimator) Estimate(p model.Perimeter) Estimate {
	if !p.Valid() || !util.IsSimple(p) {
		return Estimate{VertexCount: len(p)}
	}
	return e.FromMeasurements(util.Area(p), len(p))
}

// FromMeasurements sizes an already measured area with the given vertex count
func (e *Estimator) FromMeasurements(area float64, vertices int) Estimate {
	if area <= 0 || vertices < model.MinPerimeterVertices {
		return Estimate{Area: math.Max(area, 0), VertexCount: vertices}
	}

	cfg := e.cfg
	v := float64(vertices)

	quota := model.DeploymentQuota{
		model.KindGuard:   atLeast(cfg.GuardMin, int(math.Ceil(area/cfg.GuardAreaQuantum))),
		model.KindCamera:  atLeast(cfg.CameraMin, int(math.Ceil(cfg.CameraPerVertex*v))),
		model.KindBarrier: atLeast(cfg.BarrierMin, int(math.Ceil(cfg.BarrierPerVertex*v))),
		model.KindSensor:  atLeast(cfg.SensorMin, int(math.Ceil(cfg.SensorPerVertex*v))),
		model.KindK9:      atLeast(cfg.K9Min, int(math.Floor(area/cfg.K9AreaStep))),
		model.KindMedical: atLeast(cfg.MedicalMin, int(math.Floor(area/cfg.MedicalAreaStep))),
		model.KindDrone:   cfg.DroneMin + exceeded(cfg.DroneBreakpoints, area),
		model.KindRadio:   atLeast(cfg.RadioMin, int(math.Floor(area/cfg.RadioAreaStep))),
	}

	return Estimate{
		Area:        area,
		Capacity:    int(math.Floor(area / cfg.AreaPerPerson)),
		VertexCount: vertices,
		Quota:       quota,
	}
}

func atLeast(minimum, n int) int {
	if n < minimum {
		return minimum
	}
	return n
}

func exceeded(breakpoints []float64, area float64) int {
	n := 0
	for _, b := range breakpoints {
		if area > b {
			n++
		}
	}
	return n
}
