// Package analysis runs the staged perimeter analysis that gates deployment.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"guardplan/internal/events"
	"guardplan/internal/model"
	"guardplan/internal/service/capacity"
	"guardplan/internal/timectrl"
	"guardplan/internal/util"
)

var (
	// ErrInvalidPerimeter is returned when analysis is started on a perimeter
	// with fewer than 3 vertices or with self-intersections
	ErrInvalidPerimeter = errors.New("cannot analyze: perimeter incomplete")
	// ErrAnalysisInProgress is returned when analysis is already running
	ErrAnalysisInProgress = errors.New("analysis already in progress")
	// ErrAnalysisDone is returned when analysis already completed for the current perimeter
	ErrAnalysisDone = errors.New("analysis already complete")
	// ErrAnalysisFailed is returned while the pipeline sits in the error phase
	ErrAnalysisFailed = errors.New("analysis failed; redefine the perimeter")
)

// Pipeline is the Idle -> Analyzing -> Complete state machine. Error is
// entered on invalid input and left only through Reset. Event handlers run
// while the pipeline lock is held and must not call back into the pipeline.
type Pipeline struct {
	estimator  *capacity.Estimator
	stages     []Stage
	delayScale float64

	clock  timectrl.Clock
	bus    *events.Emitter
	logger *slog.Logger

	mu         sync.Mutex
	state      model.AnalysisState
	findings   []model.ThreatFinding
	estimate   capacity.Estimate
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithStages replaces the stage script
func WithStages(stages []Stage) Option {
	return func(p *Pipeline) { p.stages = stages }
}

// WithDelayScale multiplies every stage delay; 0 runs the stages back to back
func WithDelayScale(scale float64) Option {
	return func(p *Pipeline) { p.delayScale = scale }
}

// WithClock sets the timer source
func WithClock(c timectrl.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithEmitter sets the bus events are published on
func WithEmitter(bus *events.Emitter) Option {
	return func(p *Pipeline) { p.bus = bus }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// NewPipeline creates an idle pipeline
func NewPipeline(estimator *capacity.Estimator, opts ...Option) *Pipeline {
	p := &Pipeline{
		estimator:  estimator,
		stages:     DefaultStages(),
		delayScale: 1,
		clock:      timectrl.Real{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bus == nil {
		p.bus = events.NewEmitter(events.WithLogger(p.logger))
	}
	return p
}

// Start begins analyzing the perimeter. It is accepted only from Idle.
// An invalid perimeter moves the pipeline to Error and returns ErrInvalidPerimeter.
func (p *Pipeline) Start(perimeter model.Perimeter) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state.Phase {
	case model.AnalysisAnalyzing:
		return ErrAnalysisInProgress
	case model.AnalysisComplete:
		return ErrAnalysisDone
	case model.AnalysisError:
		return ErrAnalysisFailed
	}

	if reason := invalidReason(perimeter); reason != "" {
		p.generation++
		p.state = model.AnalysisState{Phase: model.AnalysisError, Err: reason}
		p.bus.Emit(events.TypeAnalysisFailed, events.AnalysisFailed{Reason: reason})
		p.logger.Warn("analysis rejected", slog.String("reason", reason))
		return fmt.Errorf("%w: %s", ErrInvalidPerimeter, reason)
	}

	p.generation++
	gen := p.generation
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.state = model.AnalysisState{Phase: model.AnalysisAnalyzing}

	p.logger.Info("analysis started",
		slog.Uint64("generation", gen),
		slog.Int("vertices", len(perimeter)),
		slog.Duration("eta", p.expectedDuration()),
	)
	go p.run(ctx, gen, perimeter.Clone(), done)
	return nil
}

// expectedDuration is the wall time a full run takes on a real clock
func (p *Pipeline) expectedDuration() time.Duration {
	return time.Duration(float64(TotalDelay(p.stages)) * p.delayScale)
}

func invalidReason(perimeter model.Perimeter) string {
	if !perimeter.Valid() {
		return fmt.Sprintf("perimeter has %d vertices, need at least %d", len(perimeter), model.MinPerimeterVertices)
	}
	if util.HasDuplicateVertex(perimeter) {
		return "perimeter has a duplicate vertex"
	}
	if util.IsDegenerate(perimeter) {
		return "perimeter encloses no area"
	}
	if !util.IsSimple(perimeter) {
		return "perimeter edges intersect"
	}
	return ""
}

func (p *Pipeline) run(ctx context.Context, gen uint64, perimeter model.Perimeter, done chan struct{}) {
	defer close(done)

	for idx, st := range p.stages {
		if !p.enterStage(gen, idx, st) {
			return
		}

		delay := time.Duration(float64(st.Delay) * p.delayScale)
		if delay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			p.logger.Debug("analysis run cancelled", slog.Uint64("generation", gen), slog.String("stage", st.Name))
			return
		case <-p.clock.After(delay):
		}
	}

	estimate := p.estimator.Estimate(perimeter)
	findings := SynthesizeFindings(perimeter)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen {
		return
	}

	p.state = model.AnalysisState{Phase: model.AnalysisComplete, Progress: 100}
	p.estimate = estimate
	p.findings = findings

	p.bus.Emit(events.TypeQuotaComputed, events.QuotaComputed{
		Area:     estimate.Area,
		Capacity: estimate.Capacity,
		Quota:    estimate.Quota.Clone(),
	})
	p.bus.Emit(events.TypeAnalysisCompleted, events.AnalysisCompleted{Findings: cloneFindings(findings)})
	p.logger.Info("analysis complete",
		slog.Uint64("generation", gen),
		slog.Float64("area_m2", estimate.Area),
		slog.Int("capacity", estimate.Capacity),
		slog.Int("units", estimate.Quota.Total()),
	)
}

// enterStage publishes the stage if the run is still current
func (p *Pipeline) enterStage(gen uint64, idx int, st Stage) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.generation != gen {
		p.logger.Debug("analysis run superseded", slog.Uint64("generation", gen))
		return false
	}
	p.state = model.AnalysisState{
		Phase:    model.AnalysisAnalyzing,
		Stage:    st.Name,
		Progress: st.Progress,
		Message:  st.Message,
	}
	p.bus.Emit(events.TypeAnalysisStageChanged, events.StageChanged{
		Stage:    st.Name,
		Index:    idx,
		Progress: st.Progress,
		Message:  st.Message,
	})
	p.logger.Debug("analysis stage",
		slog.String("stage", st.Name),
		slog.Int("progress", st.Progress),
	)
	return true
}

// Cancel stops a running analysis and returns to Idle. It reports whether
// anything was running.
func (p *Pipeline) Cancel() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Phase != model.AnalysisAnalyzing {
		return false
	}
	p.resetLocked()
	return true
}

// Reset returns the pipeline to Idle from any phase, discarding findings and
// quota. Called whenever the perimeter is redefined or cleared.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Phase == model.AnalysisIdle {
		return
	}
	p.resetLocked()
}

func (p *Pipeline) resetLocked() {
	p.generation++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	from := p.state.Phase
	p.state = model.AnalysisState{Phase: model.AnalysisIdle}
	p.findings = nil
	p.estimate = capacity.Estimate{}
	p.bus.Emit(events.TypeAnalysisReset, nil)
	p.logger.Info("analysis reset", slog.String("from", from.String()))
}

// State returns a snapshot of the current state
func (p *Pipeline) State() model.AnalysisState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Completed implements deployment.Gate
func (p *Pipeline) Completed() (model.DeploymentQuota, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Phase != model.AnalysisComplete {
		return nil, false
	}
	return p.estimate.Quota.Clone(), true
}

// Estimate returns the sizing computed at completion
func (p *Pipeline) Estimate() (capacity.Estimate, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.Phase != model.AnalysisComplete {
		return capacity.Estimate{}, false
	}
	est := p.estimate
	est.Quota = est.Quota.Clone()
	return est, true
}

// Findings returns the threat findings; empty unless complete
func (p *Pipeline) Findings() []model.ThreatFinding {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneFindings(p.findings)
}

// Wait blocks until the latest run finished or ctx is done
func (p *Pipeline) Wait(ctx context.Context) error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
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

func cloneFindings(in []model.ThreatFinding) []model.ThreatFinding {
	if in == nil {
		return nil
	}
	out := make([]model.ThreatFinding, len(in))
	for i, f := range in {
		f.RecommendedActions = append([]string(nil), f.RecommendedActions...)
		out[i] = f
	}
	return out
}
