package surface

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"guardplan/internal/events"
	"guardplan/internal/model"

	"github.com/stretchr/testify/assert"
)

type fakeSurface struct {
	placed  []string
	removed []string
	cleared int
}

func (f *fakeSurface) OnUnitPlaced(u model.PlacedUnit) { f.placed = append(f.placed, u.ID) }
func (f *fakeSurface) OnUnitRemoved(id string)         { f.removed = append(f.removed, id) }
func (f *fakeSurface) OnSessionCleared()               { f.cleared++ }

func TestAttachMapSurface(t *testing.T) {
	bus := events.NewEmitter()
	s := &fakeSurface{}
	detach := AttachMapSurface(bus, s)

	bus.Emit(events.TypeUnitPlaced, events.UnitPlaced{Unit: model.PlacedUnit{ID: "guard-1"}})
	bus.Emit(events.TypeAnalysisStageChanged, events.StageChanged{Stage: "scan"})
	bus.Emit(events.TypeUnitRemoved, events.UnitRemoved{ID: "guard-1"})
	bus.Emit(events.TypeSessionCleared, events.SessionCleared{})

	assert.Equal(t, []string{"guard-1"}, s.placed)
	assert.Equal(t, []string{"guard-1"}, s.removed)
	assert.Equal(t, 1, s.cleared)

	detach()
	bus.Emit(events.TypeSessionCleared, events.SessionCleared{})
	assert.Equal(t, 1, s.cleared)
}

func TestAttachLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	bus := events.NewEmitter()
	AttachNotifier(bus, LogNotifier{Logger: logger})

	bus.Emit(events.TypeAnalysisStageChanged, events.StageChanged{Stage: "satellite_scan", Progress: 10, Message: "Scanning satellite imagery..."})
	bus.Emit(events.TypeQuotaComputed, events.QuotaComputed{Quota: model.DeploymentQuota{model.KindGuard: 8}})
	bus.Emit(events.TypeDeploymentCompleted, events.DeploymentCompleted{Count: 40})

	out := buf.String()
	assert.Contains(t, out, "Scanning satellite imagery...")
	assert.Contains(t, out, "progress=10")
	assert.Contains(t, out, "guard=8")
	assert.Contains(t, out, "units=40")
}

func TestReady(t *testing.T) {
	r := NewReady()
	assert.False(t, r.IsReady())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)

	r.Signal()
	r.Signal()
	assert.True(t, r.IsReady())
	assert.NoError(t, r.Wait(context.Background()))
}
