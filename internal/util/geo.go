package util

import (
	"math"

	"guardplan/internal/model"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// EarthRadiusMeters is shared with orb/geo so distances, areas and offsets agree
const EarthRadiusMeters = orb.EarthRadius

// Area returns the spherical area of the perimeter in square meters.
// Perimeters with fewer than 3 vertices have no area.
func Area(p model.Perimeter) float64 {
	if !p.Valid() {
		return 0
	}
	return math.Abs(geo.SignedArea(p.Ring()))
}

// Centroid returns the arithmetic mean of the vertices
func Centroid(p model.Perimeter) model.Point {
	if len(p) == 0 {
		return model.Point{}
	}
	var lat, lng float64
	for _, pt := range p {
		lat += pt.Lat
		lng += pt.Lng
	}
	n := float64(len(p))
	return model.Point{Lat: lat / n, Lng: lng / n}
}

// BoundsOf returns the northeast and southwest corners of the bounding box
func BoundsOf(p model.Perimeter) (ne, sw model.Point) {
	if len(p) == 0 {
		return model.Point{}, model.Point{}
	}
	bound := p.Ring().Bound()
	ne = model.Point{Lat: bound.Max[1], Lng: bound.Max[0]}
	sw = model.Point{Lat: bound.Min[1], Lng: bound.Min[0]}
	return ne, sw
}

// ContainsPoint reports whether pt lies inside the perimeter (boundary counts as inside)
func ContainsPoint(pt model.Point, p model.Perimeter) bool {
	if !p.Valid() {
		return false
	}
	return planar.RingContains(p.Ring(), pt.OrbPoint())
}

// DistanceMeters returns the great-circle distance between two points
func DistanceMeters(a, b model.Point) float64 {
	// s2 computes the angle with the haversine formula
	angle := s2.LatLngFromDegrees(a.Lat, a.Lng).Distance(s2.LatLngFromDegrees(b.Lat, b.Lng))
	return angle.Radians() * EarthRadiusMeters
}

// OffsetPoint returns the destination reached from origin after travelling
// distanceMeters along the given bearing (degrees clockwise from north)
func OffsetPoint(origin model.Point, distanceMeters, bearingDegrees float64) model.Point {
	if distanceMeters == 0 {
		return origin
	}
	return model.PointFromOrb(geo.PointAtBearingAndDistance(origin.OrbPoint(), NormalizeBearing(bearingDegrees), distanceMeters))
}

// Bearing returns the initial bearing from a to b in [0, 360)
func Bearing(a, b model.Point) float64 {
	return NormalizeBearing(geo.Bearing(a.OrbPoint(), b.OrbPoint()))
}

// NormalizeBearing folds any angle in degrees into [0, 360)
func NormalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Interpolate returns the point at fraction t along the straight a-b segment in degree space
func Interpolate(a, b model.Point, t float64) model.Point {
	return model.Point{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lng: a.Lng + (b.Lng-a.Lng)*t,
	}
}

// PerimeterLength returns the length of the closed boundary in meters
func PerimeterLength(p model.Perimeter) float64 {
	if len(p) < 2 {
		return 0
	}
	total := 0.0
	for i := range p {
		a, b := p.Edge(i)
		total += DistanceMeters(a, b)
	}
	return total
}

// IsSimple reports whether the perimeter is a valid polygon without
// self-intersections. Adjacent edges may only share their common vertex.
func IsSimple(p model.Perimeter) bool {
	n := len(p)
	if n < model.MinPerimeterVertices {
		return false
	}
	for i := 0; i < n; i++ {
		a1, a2 := p.Edge(i)
		for j := i + 1; j < n; j++ {
			b1, b2 := p.Edge(j)
			switch {
			case j == i+1:
				if foldsBack(a2, a1, b2) {
					return false
				}
			case i == 0 && j == n-1:
				if foldsBack(a1, a2, b1) {
					return false
				}
			case segmentsIntersect(a1, a2, b1, b2):
				return false
			}
		}
	}
	return !IsDegenerate(p)
}

// foldsBack reports whether two edges meeting at shared run back over each
// other. x and y are their far endpoints.
func foldsBack(shared, x, y model.Point) bool {
	if orientation(x, shared, y) != 0 {
		return false
	}
	return onSegment(shared, x, y) || onSegment(shared, y, x)
}

// degenerateRatio bounds area against squared perimeter length below which
// a polygon is treated as a line
const degenerateRatio = 1e-6

// IsDegenerate reports whether the perimeter encloses no meaningful area,
// e.g. all vertices on one line
func IsDegenerate(p model.Perimeter) bool {
	if !p.Valid() {
		return true
	}
	length := PerimeterLength(p)
	return length == 0 || Area(p) <= degenerateRatio*length*length
}

// HasDuplicateVertex reports whether two consecutive vertices coincide,
// including the last and first
func HasDuplicateVertex(p model.Perimeter) bool {
	if len(p) < 2 {
		return false
	}
	for i := range p {
		if a, b := p.Edge(i); a == b {
			return true
		}
	}
	return false
}

func segmentsIntersect(p1, p2, q1, q2 model.Point) bool {
	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear touching cases
	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

func orientation(a, b, c model.Point) float64 {
	return (b.Lng-a.Lng)*(c.Lat-a.Lat) - (b.Lat-a.Lat)*(c.Lng-a.Lng)
}

func onSegment(a, b, c model.Point) bool {
	return math.Min(a.Lng, b.Lng) <= c.Lng && c.Lng <= math.Max(a.Lng, b.Lng) &&
		math.Min(a.Lat, b.Lat) <= c.Lat && c.Lat <= math.Max(a.Lat, b.Lat)
}
