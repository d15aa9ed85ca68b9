// Package deployment sequences automatic unit placement over a perimeter and
// owns the resulting deployment session.
package deployment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"guardplan/internal/events"
	"guardplan/internal/model"
	"guardplan/internal/service/placement"
	"guardplan/internal/timectrl"
	"guardplan/internal/util"
)

var (
	// ErrAnalysisNotComplete is returned when deployment is requested before analysis completed
	ErrAnalysisNotComplete = errors.New("cannot deploy: analysis not complete")
	// ErrUnitNotFound is returned when removing an unknown unit
	ErrUnitNotFound = errors.New("unit not found")
	// ErrUnknownKind is returned for resource kinds without a placement spec
	ErrUnknownKind = errors.New("unknown resource kind")
)

// DefaultStagger is the delay between two automatic placements
const DefaultStagger = 200 * time.Millisecond

// Gate reports whether analysis has completed and, if so, the quota to deploy
type Gate interface {
	Completed() (model.DeploymentQuota, bool)
}

// job is one unit to place during an automatic run
type job struct {
	kind model.ResourceKind
	i, n int
}

// Orchestrator places units kind by kind, staggering emissions over time.
// Event handlers run while the orchestrator lock is held and must not call
// back into the orchestrator.
type Orchestrator struct {
	session  *Session
	resolver *placement.Resolver
	placer   *placement.Placer
	specs    model.KindSpecs

	clock   timectrl.Clock
	stagger time.Duration
	bus     *events.Emitter
	logger  *slog.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithClock sets the timer source used for staggering
func WithClock(c timectrl.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithStagger sets the delay between placements; zero places everything at once
func WithStagger(d time.Duration) Option {
	return func(o *Orchestrator) { o.stagger = d }
}

// WithEmitter sets the bus events are published on
func WithEmitter(bus *events.Emitter) Option {
	return func(o *Orchestrator) { o.bus = bus }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// NewOrchestrator creates an orchestrator with an empty session
func NewOrchestrator(resolver *placement.Resolver, placer *placement.Placer, specs model.KindSpecs, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		session:  newSession(specs),
		resolver: resolver,
		placer:   placer,
		specs:    specs,
		clock:    timectrl.Real{},
		stagger:  DefaultStagger,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.bus == nil {
		o.bus = events.NewEmitter(events.WithLogger(o.logger))
	}
	return o
}

// Session returns the deployment session for reading
func (o *Orchestrator) Session() *Session {
	return o.session
}

// Start clears the session and begins an automatic run over the perimeter.
// It fails with ErrAnalysisNotComplete unless the gate reports completion.
// Any run in flight is superseded.
func (o *Orchestrator) Start(p model.Perimeter, gate Gate) error {
	quota, ok := gate.Completed()
	if !ok {
		return ErrAnalysisNotComplete
	}
	if !p.Valid() {
		return placement.ErrEmptyPerimeter
	}

	jobs := o.plan(quota)

	o.mu.Lock()
	defer o.mu.Unlock()

	gen := o.supersedeLocked()
	if removed := o.session.clear(); removed > 0 {
		o.bus.Emit(events.TypeSessionCleared, events.SessionCleared{Removed: removed})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	o.cancel = cancel
	o.done = done

	o.logger.Info("deployment started",
		slog.Uint64("generation", gen),
		slog.Int("units", len(jobs)),
	)
	go o.run(ctx, gen, p.Clone(), jobs, done)
	return nil
}

// plan expands a quota into jobs in kind-then-index order
func (o *Orchestrator) plan(quota model.DeploymentQuota) []job {
	var jobs []job
	for _, kind := range model.DeploymentOrder {
		n := quota[kind]
		if _, ok := o.specs[kind]; !ok {
			continue
		}
		for i := 0; i < n; i++ {
			jobs = append(jobs, job{kind: kind, i: i, n: n})
		}
	}
	return jobs
}

func (o *Orchestrator) run(ctx context.Context, gen uint64, p model.Perimeter, jobs []job, done chan struct{}) {
	defer close(done)

	placed := 0
	for idx, j := range jobs {
		if idx > 0 && o.stagger > 0 {
			select {
			case <-ctx.Done():
				o.logger.Debug("deployment run superseded", slog.Uint64("generation", gen))
				return
			case <-o.clock.After(o.stagger):
			}
		}

		o.mu.Lock()
		if o.generation != gen {
			o.mu.Unlock()
			o.logger.Debug("deployment run superseded", slog.Uint64("generation", gen))
			return
		}
		if err := o.placeLocked(p, j); err != nil {
			o.logger.Error("placement failed",
				slog.String("kind", string(j.kind)),
				slog.Int("index", j.i),
				slog.Any("error", err),
			)
		} else {
			placed++
		}
		o.mu.Unlock()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.generation != gen {
		return
	}
	o.bus.Emit(events.TypeDeploymentCompleted, events.DeploymentCompleted{Count: placed})
	o.logger.Info("deployment completed",
		slog.Uint64("generation", gen),
		slog.Int("placed", placed),
	)
}

// placeLocked resolves, de-conflicts and records one unit. Caller holds mu.
func (o *Orchestrator) placeLocked(p model.Perimeter, j job) error {
	spec := o.specs[j.kind]
	candidate, err := o.resolver.Resolve(spec.Strategy, p, j.i, j.n)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", spec.Strategy, err)
	}

	result := o.placer.Place(candidate, spec.MinSeparation, o.session)
	unit := o.session.add(model.PlacedUnit{
		ID:          util.NewID(string(j.kind)),
		Kind:        j.kind,
		Position:    result.Point,
		Strategy:    spec.Strategy,
		Overlapping: result.Exhausted,
	})

	if result.Exhausted {
		o.logger.Warn("placement exhausted, accepting overlap",
			slog.String("kind", string(j.kind)),
			slog.Int("index", j.i),
			slog.Int("attempts", result.Attempts),
		)
		o.bus.Emit(events.TypePlacementExhausted, events.PlacementExhausted{
			Kind:     j.kind,
			Index:    j.i,
			Attempts: result.Attempts,
			Position: result.Point,
		})
	}
	o.bus.Emit(events.TypeUnitPlaced, events.UnitPlaced{Unit: unit})
	return nil
}

// PlaceUnit places one unit exactly at the given point, skipping strategy
// resolution and conflict avoidance
func (o *Orchestrator) PlaceUnit(kind model.ResourceKind, at model.Point) (model.PlacedUnit, error) {
	if _, ok := o.specs[kind]; !ok {
		return model.PlacedUnit{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	unit := o.session.add(model.PlacedUnit{
		ID:       util.NewID(string(kind)),
		Kind:     kind,
		Position: at,
		Strategy: model.StrategyManual,
	})
	o.bus.Emit(events.TypeUnitPlaced, events.UnitPlaced{Unit: unit})
	return unit, nil
}

// RemoveUnit removes a single placed unit
func (o *Orchestrator) RemoveUnit(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	unit, ok := o.session.remove(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnitNotFound, id)
	}
	o.bus.Emit(events.TypeUnitRemoved, events.UnitRemoved{ID: unit.ID, Kind: unit.Kind})
	return nil
}

// Clear stops any run in flight and empties the session
func (o *Orchestrator) Clear() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.supersedeLocked()
	removed := o.session.clear()
	o.bus.Emit(events.TypeSessionCleared, events.SessionCleared{Removed: removed})
	return removed
}

// supersedeLocked invalidates the current run. Caller holds mu.
func (o *Orchestrator) supersedeLocked() uint64 {
	o.generation++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	return o.generation
}

// Running reports whether an automatic run is still placing units
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Wait blocks until the latest run finished or ctx is done
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
