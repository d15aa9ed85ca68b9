package analysis

import (
	"context"
	"sync"
	"testing"
	"time"

	"guardplan/internal/events"
	"guardplan/internal/model"
	"guardplan/internal/service/capacity"
	"guardplan/internal/timectrl"
	"guardplan/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func (r *recorder) stages() []events.StageChanged {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.StageChanged
	for _, ev := range r.events {
		if sc, ok := ev.Data.(events.StageChanged); ok {
			out = append(out, sc)
		}
	}
	return out
}

func square(side float64) model.Perimeter {
	sw := model.Point{Lat: 35.6762, Lng: 139.6503}
	se := util.OffsetPoint(sw, side, 90)
	return model.Perimeter{sw, se, util.OffsetPoint(se, side, 0), util.OffsetPoint(sw, side, 0)}
}

func newTestPipeline(clock timectrl.Clock, opts ...Option) (*Pipeline, *recorder) {
	bus := events.NewEmitter()
	rec := &recorder{}
	bus.Subscribe(rec.handle)
	opts = append([]Option{WithClock(clock), WithEmitter(bus)}, opts...)
	return NewPipeline(capacity.NewEstimator(capacity.DefaultEstimatorConfig()), opts...), rec
}

func wait(t *testing.T, p *Pipeline) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))
}

func TestStartRejectsIncompletePerimeter(t *testing.T) {
	p, rec := newTestPipeline(timectrl.Instant{})

	err := p.Start(model.Perimeter{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}})
	assert.ErrorIs(t, err, ErrInvalidPerimeter)
	assert.Equal(t, model.AnalysisError, p.State().Phase)
	assert.NotEmpty(t, p.State().Err)
	assert.Equal(t, []events.Type{events.TypeAnalysisFailed}, rec.types())

	// error is terminal until the perimeter is redefined
	assert.ErrorIs(t, p.Start(square(100)), ErrAnalysisFailed)
	p.Reset()
	assert.Equal(t, model.AnalysisIdle, p.State().Phase)
	require.NoError(t, p.Start(square(100)))
	wait(t, p)
	assert.Equal(t, model.AnalysisComplete, p.State().Phase)
}

func TestStartRejectsSelfIntersectingPerimeter(t *testing.T) {
	p, _ := newTestPipeline(timectrl.Instant{})
	bowtie := model.Perimeter{{Lat: 0, Lng: 0}, {Lat: 0.001, Lng: 0.001}, {Lat: 0, Lng: 0.001}, {Lat: 0.001, Lng: 0}}

	assert.ErrorIs(t, p.Start(bowtie), ErrInvalidPerimeter)
	assert.Equal(t, model.AnalysisError, p.State().Phase)
}

func TestStartRejectsCollinearPerimeter(t *testing.T) {
	a := model.Point{Lat: 40.758, Lng: -73.985}
	for name, perimeter := range map[string]model.Perimeter{
		"exact":    {{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0.001}, {Lat: 0, Lng: 0.002}},
		"geodesic": {a, util.OffsetPoint(a, 100, 90), util.OffsetPoint(a, 200, 90)},
	} {
		p, rec := newTestPipeline(timectrl.Instant{})

		err := p.Start(perimeter)
		assert.ErrorIs(t, err, ErrInvalidPerimeter, name)
		assert.Equal(t, model.AnalysisError, p.State().Phase, name)
		assert.Equal(t, "perimeter encloses no area", p.State().Err, name)
		assert.Equal(t, []events.Type{events.TypeAnalysisFailed}, rec.types(), name)
	}
}

func TestStartRejectsDuplicateVertex(t *testing.T) {
	p, _ := newTestPipeline(timectrl.Instant{})
	sq := square(100)
	doubled := model.Perimeter{sq[0], sq[1], sq[1], sq[2], sq[3]}

	assert.ErrorIs(t, p.Start(doubled), ErrInvalidPerimeter)
	assert.Equal(t, "perimeter has a duplicate vertex", p.State().Err)
}

func TestFullRunCompletes(t *testing.T) {
	p, rec := newTestPipeline(timectrl.Instant{})
	perimeter := square(100)

	require.NoError(t, p.Start(perimeter))
	wait(t, p)

	stages := rec.stages()
	require.Len(t, stages, len(DefaultStages()))
	for i, st := range stages {
		assert.Equal(t, i, st.Index)
		assert.Equal(t, DefaultStages()[i].Name, st.Stage)
		if i > 0 {
			assert.Greater(t, st.Progress, stages[i-1].Progress)
		}
	}
	assert.Equal(t, 100, stages[len(stages)-1].Progress)

	types := rec.types()
	assert.Equal(t, []events.Type{events.TypeQuotaComputed, events.TypeAnalysisCompleted}, types[len(types)-2:])

	state := p.State()
	assert.Equal(t, model.AnalysisComplete, state.Phase)
	assert.Equal(t, 100, state.Progress)

	quota, ok := p.Completed()
	require.True(t, ok)
	want := capacity.NewEstimator(capacity.DefaultEstimatorConfig()).Estimate(perimeter)
	assert.Equal(t, want.Quota, quota)
	assert.Len(t, p.Findings(), 4)

	est, ok := p.Estimate()
	require.True(t, ok)
	assert.Equal(t, want.Capacity, est.Capacity)

	assert.ErrorIs(t, p.Start(perimeter), ErrAnalysisDone)
}

func TestStagesAdvanceWithClock(t *testing.T) {
	clock := timectrl.NewManual(time.Unix(0, 0))
	p, _ := newTestPipeline(clock)
	stages := DefaultStages()

	require.NoError(t, p.Start(square(100)))
	assert.ErrorIs(t, p.Start(square(100)), ErrAnalysisInProgress)

	clock.BlockUntil(1)
	state := p.State()
	assert.Equal(t, model.AnalysisAnalyzing, state.Phase)
	assert.Equal(t, stages[0].Name, state.Stage)
	assert.Equal(t, 10, state.Progress)
	assert.Equal(t, stages[0].Message, state.Message)

	_, ok := p.Completed()
	assert.False(t, ok)

	clock.Advance(stages[0].Delay)
	clock.BlockUntil(1)
	assert.Equal(t, 20, p.State().Progress)

	for i := 1; i < len(stages); i++ {
		clock.BlockUntil(1)
		assert.Equal(t, stages[i].Progress, p.State().Progress)
		clock.Advance(stages[i].Delay)
	}
	wait(t, p)
	assert.Equal(t, model.AnalysisComplete, p.State().Phase)
}

func TestDelayScale(t *testing.T) {
	clock := timectrl.NewManual(time.Unix(0, 0))
	p, _ := newTestPipeline(clock, WithDelayScale(0.5))

	require.NoError(t, p.Start(square(100)))
	clock.BlockUntil(1)

	clock.Advance(399 * time.Millisecond)
	assert.Equal(t, 10, p.State().Progress)

	clock.Advance(time.Millisecond)
	clock.BlockUntil(1)
	assert.Equal(t, 20, p.State().Progress)

	p.Cancel()
	wait(t, p)
}

func TestExpectedDuration(t *testing.T) {
	p, _ := newTestPipeline(timectrl.Instant{})
	assert.Equal(t, 7800*time.Millisecond, p.expectedDuration())

	half, _ := newTestPipeline(timectrl.Instant{}, WithDelayScale(0.5))
	assert.Equal(t, 3900*time.Millisecond, half.expectedDuration())
}

func TestCancelDuringAnalysis(t *testing.T) {
	clock := timectrl.NewManual(time.Unix(0, 0))
	p, rec := newTestPipeline(clock)

	require.NoError(t, p.Start(square(100)))
	clock.BlockUntil(1)
	clock.Advance(800 * time.Millisecond)
	clock.BlockUntil(1)

	assert.True(t, p.Cancel())
	wait(t, p)
	assert.Equal(t, model.AnalysisIdle, p.State().Phase)
	assert.Empty(t, p.Findings())

	clock.Advance(time.Hour)
	assert.Equal(t, model.AnalysisIdle, p.State().Phase)
	assert.Len(t, rec.stages(), 2)
	assert.NotContains(t, rec.types(), events.TypeAnalysisCompleted)

	assert.False(t, p.Cancel())
}

func TestResetFromComplete(t *testing.T) {
	p, rec := newTestPipeline(timectrl.Instant{})
	require.NoError(t, p.Start(square(100)))
	wait(t, p)

	p.Reset()
	assert.Equal(t, model.AnalysisIdle, p.State().Phase)
	assert.Empty(t, p.Findings())
	_, ok := p.Completed()
	assert.False(t, ok)
	assert.Equal(t, events.TypeAnalysisReset, rec.types()[len(rec.types())-1])

	// reset while idle is a no-op
	n := len(rec.types())
	p.Reset()
	assert.Len(t, rec.types(), n)
}

func TestZeroDelayScaleSkipsTimers(t *testing.T) {
	clock := timectrl.NewManual(time.Unix(0, 0))
	p, _ := newTestPipeline(clock, WithDelayScale(0))

	require.NoError(t, p.Start(square(100)))
	wait(t, p)
	assert.Equal(t, model.AnalysisComplete, p.State().Phase)
	assert.Zero(t, clock.Waiters())
}
