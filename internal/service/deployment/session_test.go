package deployment

import (
	"testing"

	"guardplan/internal/model"
	"guardplan/internal/service/placement"
	"guardplan/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionWithinMatchesLinearScan(t *testing.T) {
	s := newSession(model.DefaultKindSpecs())
	center := model.Point{Lat: 59.3293, Lng: 18.0686}

	var all placement.Occupants
	for i := 0; i < 60; i++ {
		pos := util.OffsetPoint(center, float64(i*7), float64(i)*placement.GoldenAngle)
		s.add(model.PlacedUnit{ID: util.NewID("guard"), Kind: model.KindGuard, Position: pos})
		all = append(all, placement.Occupant{Position: pos, MinSeparation: 30})
	}

	for _, radius := range []float64{0, 15, 60, 200, 500} {
		want := all.Within(center, radius)
		got := s.Within(center, radius)
		assert.Len(t, got, len(want), "radius %v", radius)
	}
}

func TestSessionCountsAndMaxSeparation(t *testing.T) {
	s := newSession(model.DefaultKindSpecs())
	at := model.Point{Lat: 1, Lng: 1}

	assert.Zero(t, s.MaxSeparation())
	g := s.add(model.PlacedUnit{ID: "g", Kind: model.KindGuard, Position: at})
	r := s.add(model.PlacedUnit{ID: "r", Kind: model.KindRadio, Position: at})
	assert.Equal(t, 0, g.Sequence)
	assert.Equal(t, 1, r.Sequence)
	assert.Equal(t, 80.0, s.MaxSeparation())

	_, ok := s.remove("r")
	require.True(t, ok)
	assert.Equal(t, 30.0, s.MaxSeparation())
	assert.Equal(t, map[model.ResourceKind]int{model.KindGuard: 1}, s.Counts())

	assert.Equal(t, 1, s.clear())
	assert.Empty(t, s.Counts())
	assert.Zero(t, s.MaxSeparation())
	assert.Zero(t, s.add(model.PlacedUnit{ID: "x", Kind: model.KindGuard, Position: at}).Sequence)
}
