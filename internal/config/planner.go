package config

import (
	"errors"
	"fmt"
	"time"

	"guardplan/internal/model"
	"guardplan/internal/service/analysis"
	"guardplan/internal/service/capacity"
	"guardplan/internal/service/placement"

	"github.com/spf13/viper"
)

// KindOverride adjusts the placement defaults of one resource kind
type KindOverride struct {
	MinSeparation *float64 `mapstructure:"min_separation" validate:"omitempty,gte=0"`
	Strategy      string   `mapstructure:"strategy"`
}

// Planner groups the tunables of the planning engine
type Planner struct {
	Estimator capacity.EstimatorConfig `mapstructure:"estimator"`
	Resolver  placement.ResolverConfig `mapstructure:"resolver"`
	Placer    placement.PlacerConfig   `mapstructure:"placer"`

	Kinds map[string]KindOverride `mapstructure:"kinds" validate:"dive"`

	Stagger         time.Duration    `mapstructure:"stagger" validate:"gte=0"`
	Stages          []analysis.Stage `mapstructure:"stages" validate:"required,dive"`
	StageDelayScale float64          `mapstructure:"stage_delay_scale" validate:"gte=0"`
}

// DefaultPlanner returns the reference tunables
func DefaultPlanner() Planner {
	return Planner{
		Estimator:       capacity.DefaultEstimatorConfig(),
		Resolver:        placement.DefaultResolverConfig(),
		Placer:          placement.DefaultPlacerConfig(),
		Stagger:         200 * time.Millisecond,
		Stages:          analysis.DefaultStages(),
		StageDelayScale: 1,
	}
}

// LoadPlanner overlays the YAML file at path onto the defaults. An empty path
// returns the defaults.
func LoadPlanner(path string) (Planner, error) {
	p := DefaultPlanner()
	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return p, fmt.Errorf("read planner config: %w", err)
		}
		if err := v.Unmarshal(&p); err != nil {
			return p, fmt.Errorf("decode planner config: %w", err)
		}
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate checks struct tags and the cross-field rules
func (p Planner) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid planner config: %w", err)
	}

	prev := -1
	for _, s := range p.Stages {
		if s.Progress <= prev {
			return fmt.Errorf("invalid planner config: stage %q progress %d does not increase", s.Name, s.Progress)
		}
		prev = s.Progress
	}
	if prev != 100 {
		return errors.New("invalid planner config: last stage must reach 100")
	}

	for i := 1; i < len(p.Estimator.DroneBreakpoints); i++ {
		if p.Estimator.DroneBreakpoints[i] <= p.Estimator.DroneBreakpoints[i-1] {
			return errors.New("invalid planner config: drone breakpoints must ascend")
		}
	}

	_, err := p.KindSpecs()
	return err
}

// KindSpecs merges the overrides onto the default kind table
func (p Planner) KindSpecs() (model.KindSpecs, error) {
	specs := model.DefaultKindSpecs()
	for name, o := range p.Kinds {
		kind, err := model.ParseResourceKind(name)
		if err != nil {
			return nil, fmt.Errorf("invalid planner config: %w", err)
		}
		spec := specs[kind]
		if o.MinSeparation != nil {
			spec.MinSeparation = *o.MinSeparation
		}
		if o.Strategy != "" {
			s := model.Strategy(o.Strategy)
			if !placeable(s) {
				return nil, fmt.Errorf("invalid planner config: kind %s: unknown strategy %q", kind, o.Strategy)
			}
			spec.Strategy = s
		}
		specs[kind] = spec
	}
	return specs, nil
}

func placeable(s model.Strategy) bool {
	switch s {
	case model.StrategyCorners, model.StrategyMidpoints, model.StrategyCenter,
		model.StrategyPerimeter, model.StrategyPatrol, model.StrategyEntrances:
		return true
	}
	return false
}
