package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerimeterRingIsClosed(t *testing.T) {
	p := Perimeter{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}, {Lat: 5, Lng: 0}}
	ring := p.Ring()
	require.Len(t, ring, 4)
	assert.Equal(t, ring[0], ring[3])
	assert.Equal(t, 2.0, ring[0][0]) // lng first
	assert.Nil(t, Perimeter(nil).Ring())
}

func TestPerimeterEdgeWraps(t *testing.T) {
	p := Perimeter{{Lat: 1}, {Lat: 2}, {Lat: 3}}
	a, b := p.Edge(2)
	assert.Equal(t, p[2], a)
	assert.Equal(t, p[0], b)
}

func TestPerimeterCloneIsIndependent(t *testing.T) {
	p := Perimeter{{Lat: 1}, {Lat: 2}, {Lat: 3}}
	c := p.Clone()
	c[0].Lat = 9
	assert.Equal(t, 1.0, p[0].Lat)
	assert.Nil(t, Perimeter(nil).Clone())
}

func TestPerimeterCompact(t *testing.T) {
	a, b, c := Point{Lat: 1, Lng: 1}, Point{Lat: 1, Lng: 2}, Point{Lat: 2, Lng: 2}

	assert.Equal(t, Perimeter{a, b, c}, Perimeter{a, a, b, c, c}.Compact())
	assert.Equal(t, Perimeter{a, b, c}, Perimeter{a, b, c, a, a}.Compact())
	assert.Equal(t, Perimeter{a}, Perimeter{a, a}.Compact())
	assert.Equal(t, Perimeter{a, b, a, c}, Perimeter{a, b, a, c}.Compact())
	assert.Nil(t, Perimeter(nil).Compact())
}

func TestPointValid(t *testing.T) {
	assert.True(t, Point{Lat: -90, Lng: 180}.Valid())
	assert.False(t, Point{Lat: 91}.Valid())
	assert.False(t, Point{Lng: -181}.Valid())
}

func TestParseResourceKind(t *testing.T) {
	for _, k := range DeploymentOrder {
		got, err := ParseResourceKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseResourceKind("tank")
	assert.Error(t, err)
}

func TestDefaultKindSpecsCoverDeploymentOrder(t *testing.T) {
	specs := DefaultKindSpecs()
	assert.Len(t, specs, len(DeploymentOrder))
	for _, k := range DeploymentOrder {
		assert.Contains(t, specs, k)
		assert.Greater(t, specs.MinSeparation(k), 0.0)
	}
	assert.Zero(t, specs.MinSeparation("tank"))
}

func TestQuotaTotalAndClone(t *testing.T) {
	q := DeploymentQuota{KindGuard: 8, KindCamera: 6}
	assert.Equal(t, 14, q.Total())

	c := q.Clone()
	c[KindGuard] = 1
	assert.Equal(t, 8, q[KindGuard])
	assert.Nil(t, DeploymentQuota(nil).Clone())
}

func TestAnalysisPhaseText(t *testing.T) {
	text, err := AnalysisComplete.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "complete", string(text))
	assert.Equal(t, "unknown", AnalysisPhase(42).String())
}
