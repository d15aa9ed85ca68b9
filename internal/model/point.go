package model

import "github.com/paulmach/orb"

// Point is a geographic coordinate in decimal degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate lies within the WGS84 range
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// OrbPoint converts the point to orb's [lng, lat] order
func (p Point) OrbPoint() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// PointFromOrb converts an orb [lng, lat] point back to a Point
func PointFromOrb(p orb.Point) Point {
	return Point{Lat: p[1], Lng: p[0]}
}

// Perimeter is an ordered list of vertices forming a closed polygon.
// The closing edge from the last vertex back to the first is implicit.
type Perimeter []Point

// MinPerimeterVertices is the smallest vertex count that encloses an area
const MinPerimeterVertices = 3

// Valid reports whether the perimeter has enough vertices to enclose an area
func (p Perimeter) Valid() bool {
	return len(p) >= MinPerimeterVertices
}

// Ring returns the perimeter as a closed orb ring ([lng, lat], first point repeated)
func (p Perimeter) Ring() orb.Ring {
	if len(p) == 0 {
		return nil
	}
	ring := make(orb.Ring, 0, len(p)+1)
	for _, pt := range p {
		ring = append(ring, pt.OrbPoint())
	}
	return append(ring, p[0].OrbPoint())
}

// Clone returns an independent copy of the perimeter
func (p Perimeter) Clone() Perimeter {
	if p == nil {
		return nil
	}
	out := make(Perimeter, len(p))
	copy(out, p)
	return out
}

// Compact returns the perimeter without consecutive repeated vertices,
// counting the wrap from the last vertex back to the first
func (p Perimeter) Compact() Perimeter {
	if p == nil {
		return nil
	}
	out := make(Perimeter, 0, len(p))
	for _, pt := range p {
		if n := len(out); n > 0 && out[n-1] == pt {
			continue
		}
		out = append(out, pt)
	}
	for len(out) > 1 && out[len(out)-1] == out[0] {
		out = out[:len(out)-1]
	}
	return out
}

// Edge returns the i-th edge, wrapping around to close the polygon
func (p Perimeter) Edge(i int) (Point, Point) {
	n := len(p)
	return p[i%n], p[(i+1)%n]
}
