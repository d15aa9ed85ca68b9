// Package planner is the command surface of the engine. It owns the perimeter
// and wires the analysis pipeline to the deployment orchestrator.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"guardplan/internal/config"
	"guardplan/internal/events"
	"guardplan/internal/export"
	"guardplan/internal/model"
	"guardplan/internal/service/analysis"
	"guardplan/internal/service/capacity"
	"guardplan/internal/service/deployment"
	"guardplan/internal/service/placement"
	"guardplan/internal/surface"
	"guardplan/internal/timectrl"
)

var (
	// ErrVertexIndex is returned for vertex edits outside the perimeter
	ErrVertexIndex = errors.New("vertex index out of range")
	// ErrInvalidPoint is returned for coordinates outside the WGS84 range
	ErrInvalidPoint = errors.New("coordinate out of range")
)

// Planner serializes commands against one plan. Readers may call any method
// concurrently.
type Planner struct {
	estimator    *capacity.Estimator
	pipeline     *analysis.Pipeline
	orchestrator *deployment.Orchestrator

	bus    *events.Emitter
	clock  timectrl.Clock
	ready  *surface.Ready
	logger *slog.Logger

	mu        sync.Mutex
	perimeter model.Perimeter
}

type options struct {
	clock  timectrl.Clock
	bus    *events.Emitter
	ready  *surface.Ready
	logger *slog.Logger
}

// Option configures a Planner
type Option func(*options)

// WithClock sets the clock driving analysis stages and placement stagger
func WithClock(c timectrl.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithEmitter sets the bus every component publishes on
func WithEmitter(bus *events.Emitter) Option {
	return func(o *options) { o.bus = bus }
}

// WithMapReady makes StartAnalysis fail with surface.ErrMapNotReady until ready is signalled
func WithMapReady(ready *surface.Ready) Option {
	return func(o *options) { o.ready = ready }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New builds a planner from validated tunables
func New(cfg config.Planner, opts ...Option) (*Planner, error) {
	o := options{
		clock:  timectrl.Real{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.bus == nil {
		o.bus = events.NewEmitter(events.WithLogger(o.logger), events.WithTimeSource(o.clock.Now))
	}

	specs, err := cfg.KindSpecs()
	if err != nil {
		return nil, err
	}

	estimator := capacity.NewEstimator(cfg.Estimator)
	p := &Planner{
		estimator: estimator,
		pipeline: analysis.NewPipeline(estimator,
			analysis.WithStages(cfg.Stages),
			analysis.WithDelayScale(cfg.StageDelayScale),
			analysis.WithClock(o.clock),
			analysis.WithEmitter(o.bus),
			analysis.WithLogger(o.logger.With(slog.String("component", "analysis"))),
		),
		orchestrator: deployment.NewOrchestrator(
			placement.NewResolver(cfg.Resolver),
			placement.NewPlacer(cfg.Placer),
			specs,
			deployment.WithClock(o.clock),
			deployment.WithStagger(cfg.Stagger),
			deployment.WithEmitter(o.bus),
			deployment.WithLogger(o.logger.With(slog.String("component", "deployment"))),
		),
		bus:    o.bus,
		clock:  o.clock,
		ready:  o.ready,
		logger: o.logger,
	}
	return p, nil
}

// Emitter returns the bus collaborators subscribe to
func (p *Planner) Emitter() *events.Emitter {
	return p.bus
}

// Perimeter returns a copy of the current perimeter
func (p *Planner) Perimeter() model.Perimeter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.perimeter.Clone()
}

// SetPerimeter replaces the whole perimeter
func (p *Planner) SetPerimeter(points model.Perimeter) error {
	for _, pt := range points {
		if !pt.Valid() {
			return fmt.Errorf("%w: %+v", ErrInvalidPoint, pt)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.redefineLocked(points.Clone())
	return nil
}

// AddVertex appends a vertex to the perimeter
func (p *Planner) AddVertex(pt model.Point) error {
	if !pt.Valid() {
		return fmt.Errorf("%w: %+v", ErrInvalidPoint, pt)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	next := append(p.perimeter.Clone(), pt)
	p.redefineLocked(next)
	return nil
}

// MoveVertex moves vertex i
func (p *Planner) MoveVertex(i int, pt model.Point) error {
	if !pt.Valid() {
		return fmt.Errorf("%w: %+v", ErrInvalidPoint, pt)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.perimeter) {
		return fmt.Errorf("%w: %d of %d", ErrVertexIndex, i, len(p.perimeter))
	}
	next := p.perimeter.Clone()
	next[i] = pt
	p.redefineLocked(next)
	return nil
}

// RemoveVertex deletes vertex i
func (p *Planner) RemoveVertex(i int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i < 0 || i >= len(p.perimeter) {
		return fmt.Errorf("%w: %d of %d", ErrVertexIndex, i, len(p.perimeter))
	}
	next := append(p.perimeter[:i:i], p.perimeter[i+1:]...)
	p.redefineLocked(next)
	return nil
}

// ClearPerimeter removes the perimeter, cancelling analysis and discarding the deployment
func (p *Planner) ClearPerimeter() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.redefineLocked(nil)
}

// redefineLocked installs a new perimeter. Repeated vertices collapse into
// one. Analysis returns to Idle and any deployment is discarded. Caller holds mu.
func (p *Planner) redefineLocked(next model.Perimeter) {
	next = next.Compact()
	p.pipeline.Reset()
	if p.orchestrator.Running() || p.orchestrator.Session().Count() > 0 {
		p.orchestrator.Clear()
	}
	p.perimeter = next
	p.logger.Debug("perimeter redefined", slog.Int("vertices", len(next)))
}

// StartAnalysis analyzes the given perimeter, or the current one when
// perimeter is nil. Supplying a perimeter redefines the plan first.
func (p *Planner) StartAnalysis(perimeter model.Perimeter) error {
	if p.ready != nil && !p.ready.IsReady() {
		return surface.ErrMapNotReady
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if perimeter != nil {
		for _, pt := range perimeter {
			if !pt.Valid() {
				return fmt.Errorf("%w: %+v", ErrInvalidPoint, pt)
			}
		}
		p.redefineLocked(perimeter.Clone())
	}
	return p.pipeline.Start(p.perimeter)
}

// CancelAnalysis stops a running analysis, reporting whether one was running
func (p *Planner) CancelAnalysis() bool {
	return p.pipeline.Cancel()
}

// StartAutoDeployment deploys the completed quota over the perimeter
func (p *Planner) StartAutoDeployment() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.orchestrator.Start(p.perimeter, p.pipeline)
}

// ClearDeployment discards every placed unit
func (p *Planner) ClearDeployment() int {
	return p.orchestrator.Clear()
}

// PlaceUnit places one unit exactly where requested
func (p *Planner) PlaceUnit(kind model.ResourceKind, at model.Point) (model.PlacedUnit, error) {
	if !at.Valid() {
		return model.PlacedUnit{}, fmt.Errorf("%w: %+v", ErrInvalidPoint, at)
	}
	return p.orchestrator.PlaceUnit(kind, at)
}

// RemoveUnit removes one placed unit
func (p *Planner) RemoveUnit(id string) error {
	return p.orchestrator.RemoveUnit(id)
}

// Estimate sizes the current perimeter. It never fails; incomplete perimeters
// give a zero estimate.
func (p *Planner) Estimate() capacity.Estimate {
	return p.estimator.Estimate(p.Perimeter())
}

// AnalysisState returns the pipeline state
func (p *Planner) AnalysisState() model.AnalysisState {
	return p.pipeline.State()
}

// Units returns the placed units in placement order
func (p *Planner) Units() []model.PlacedUnit {
	return p.orchestrator.Session().Units()
}

// DeployedCounts returns the running count per kind
func (p *Planner) DeployedCounts() map[model.ResourceKind]int {
	return p.orchestrator.Session().Counts()
}

// Snapshot returns the plan as plain data
func (p *Planner) Snapshot() export.Report {
	perimeter := p.Perimeter()
	quota, _ := p.pipeline.Completed()
	return export.Report{
		GeneratedAt: p.clock.Now(),
		Perimeter:   perimeter,
		Analysis:    p.pipeline.State(),
		Estimate:    p.estimator.Estimate(perimeter),
		Quota:       quota,
		Progress:    export.BuildProgress(quota, p.orchestrator.Session().Counts()),
		Units:       p.orchestrator.Session().Units(),
		Findings:    p.pipeline.Findings(),
	}
}

// Wait blocks until the running analysis and deployment have finished
func (p *Planner) Wait(ctx context.Context) error {
	if err := p.pipeline.Wait(ctx); err != nil {
		return err
	}
	return p.orchestrator.Wait(ctx)
}
