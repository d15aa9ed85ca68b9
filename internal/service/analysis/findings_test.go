package analysis

import (
	"testing"

	"guardplan/internal/model"
	"guardplan/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeFindingsAtCompassExtremes(t *testing.T) {
	p := square(200)
	ne, sw := util.BoundsOf(p)

	findings := SynthesizeFindings(p)
	require.Len(t, findings, 4)

	north, west, east, south := findings[0], findings[1], findings[2], findings[3]
	assert.Equal(t, ne.Lat, north.Location.Lat)
	assert.Equal(t, sw.Lng, west.Location.Lng)
	assert.Equal(t, ne.Lng, east.Location.Lng)
	assert.Equal(t, sw.Lat, south.Location.Lat)

	assert.Equal(t, model.SeverityHigh, north.Severity)
	assert.Equal(t, "Vehicle Ram Attack Vector", north.Title)
	assert.Equal(t, []string{"Install motion sensors", "Add lighting", "Increase patrol frequency"}, south.RecommendedActions)

	ids := map[string]bool{}
	for _, f := range findings {
		assert.NotEmpty(t, f.RecommendedActions)
		ids[f.ID] = true
	}
	assert.Len(t, ids, 4)
}

func TestSynthesizeFindingsIsDeterministic(t *testing.T) {
	p := square(120)
	a := SynthesizeFindings(p)
	b := SynthesizeFindings(p)
	assert.Equal(t, a, b)

	a[0].RecommendedActions[0] = "changed"
	assert.NotEqual(t, "changed", SynthesizeFindings(p)[0].RecommendedActions[0])
}

func TestSynthesizeFindingsIncompletePerimeter(t *testing.T) {
	assert.Nil(t, SynthesizeFindings(model.Perimeter{{Lat: 1, Lng: 1}}))
}
