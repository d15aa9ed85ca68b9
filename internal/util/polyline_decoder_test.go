package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePerimeter(t *testing.T) {
	// Reference example from the encoded polyline format documentation
	p, err := DecodePerimeter("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.NoError(t, err)
	require.Len(t, p, 3)

	want := [][2]float64{{38.5, -120.2}, {40.7, -120.95}, {43.252, -126.453}}
	for i, w := range want {
		assert.InDelta(t, w[0], p[i].Lat, 1e-9)
		assert.InDelta(t, w[1], p[i].Lng, 1e-9)
	}
}

func TestDecodePerimeterDropsClosingVertex(t *testing.T) {
	// (1,1) -> (1,2) -> (2,2) -> (1,1)
	p, err := DecodePerimeterWithPrecision("AA?AA?@@", 1)
	require.NoError(t, err)
	assert.Len(t, p, 3)
}

func TestDecodePerimeterTruncated(t *testing.T) {
	_, err := DecodePerimeter("_p~iF~ps|U_")
	assert.ErrorIs(t, err, ErrTruncatedPolyline)
}

func TestDecodePerimeterMalformed(t *testing.T) {
	for name, encoded := range map[string]string{
		"below alphabet": "!!!!!!",
		"control bytes":  "\x00\x00\x00\x00\x00\x00",
		"above alphabet": "_p~iF\x7f",
		"mid string":     "_p~iF~ps|U _ulLnnqC",
		"overlong value": "~~~~~~~~?",
	} {
		p, err := DecodePerimeter(encoded)
		assert.ErrorIs(t, err, ErrMalformedPolyline, name)
		assert.Nil(t, p, name)
	}
}
