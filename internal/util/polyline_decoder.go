package util

import (
	"errors"
	"fmt"

	"guardplan/internal/model"
)

var (
	// ErrTruncatedPolyline is returned when an encoded polyline ends mid-value
	ErrTruncatedPolyline = errors.New("truncated encoded polyline")
	// ErrMalformedPolyline is returned for characters outside the encoding
	// alphabet or values longer than 32 bits
	ErrMalformedPolyline = errors.New("malformed encoded polyline")
)

// maxShift caps a value at seven 5-bit chunks
const maxShift = 30

// DecodePerimeter converts a Google encoded polyline into perimeter vertices.
// Default precision is 1e-5 (the Google Maps standard)
func DecodePerimeter(encoded string) (model.Perimeter, error) {
	return DecodePerimeterWithPrecision(encoded, 1e-5)
}

// DecodePerimeterWithPrecision decodes a polyline with a custom precision factor.
// A closing vertex equal to the first one is dropped since perimeters close implicitly.
func DecodePerimeterWithPrecision(encoded string, precision float64) (model.Perimeter, error) {
	var (
		perimeter model.Perimeter
		index     int
		lat, lng  int
	)

	for index < len(encoded) {
		dLat, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		dLng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next

		lat += dLat
		lng += dLng
		perimeter = append(perimeter, model.Point{
			Lat: float64(lat) * precision,
			Lng: float64(lng) * precision,
		})
	}

	if n := len(perimeter); n > 1 && perimeter[0] == perimeter[n-1] {
		perimeter = perimeter[:n-1]
	}
	return perimeter, nil
}

// decodeValue reads one zig-zag encoded varint starting at index
func decodeValue(encoded string, index int) (int, int, error) {
	shift, result := 0, 0
	for {
		if index >= len(encoded) {
			return 0, index, ErrTruncatedPolyline
		}
		b := int(encoded[index]) - 63
		if b < 0 || b > 63 || shift > maxShift {
			return 0, index, fmt.Errorf("%w at offset %d", ErrMalformedPolyline, index)
		}
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}
