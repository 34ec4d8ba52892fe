package geoquizdal

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

const maxSimplifyAttempts = 5

// SimplifyGeometry reduces the vertex count of a polygonal geometry.
// Each ring is simplified with Douglas-Peucker. If the result collapses (fewer than 4 points) or
// crosses itself, the ring is retried at half the tolerance, and after maxSimplifyAttempts the original ring is kept.
// If rings of the same polygon then cross each other (a hole crossing its shell), the whole polygon is retried
// at half the tolerance, and after maxSimplifyAttempts the original polygon is kept.
// Non-polygonal geometries are returned unchanged.
func SimplifyGeometry(geometry orb.Geometry, tolerance float64) orb.Geometry {
	switch g := geometry.(type) {
	case orb.Polygon:
		return simplifyPolygon(g, tolerance)
	case orb.MultiPolygon:
		multiPolygon := make(orb.MultiPolygon, len(g))
		for i, polygon := range g {
			multiPolygon[i] = simplifyPolygon(polygon, tolerance)
		}
		return multiPolygon
	default:
		return geometry
	}
}

func simplifyPolygon(polygon orb.Polygon, tolerance float64) orb.Polygon {
	for attempt := 0; attempt < maxSimplifyAttempts; attempt++ {
		simplified := make(orb.Polygon, len(polygon))
		for i, ring := range polygon {
			simplified[i] = simplifyRing(ring, tolerance)
		}

		if !ringsCross(simplified) {
			return simplified
		}

		tolerance = tolerance / 2
	}

	return polygon
}

func simplifyRing(ring orb.Ring, tolerance float64) orb.Ring {
	for attempt := 0; attempt < maxSimplifyAttempts; attempt++ {
		// the simplifier works in place
		simplified := simplify.DouglasPeucker(tolerance).Ring(ring.Clone())
		if len(simplified) >= 4 && !isSelfIntersecting(simplified) {
			return simplified
		}

		tolerance = tolerance / 2
	}

	return ring
}

// isSelfIntersecting checks every pair of non-adjacent edges of a closed ring
func isSelfIntersecting(ring orb.Ring) bool {
	edgeCount := len(ring) - 1
	for i := 0; i < edgeCount; i++ {
		for j := i + 2; j < edgeCount; j++ {
			if i == 0 && j == edgeCount-1 {
				// first and last edges share the closing point
				continue
			}

			if segmentsIntersect(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return true
			}
		}
	}

	return false
}

// ringsCross checks every pair of rings of a polygon for touching or crossing edges
func ringsCross(polygon orb.Polygon) bool {
	for i := 0; i < len(polygon); i++ {
		for j := i + 1; j < len(polygon); j++ {
			if ringsIntersect(polygon[i], polygon[j]) {
				return true
			}
		}
	}

	return false
}

func ringsIntersect(a, b orb.Ring) bool {
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}

	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if segmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}

	return false
}

func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}

	return false
}

// orientation is the cross product of (b-a) and (c-a)
func orientation(a, b, c orb.Point) float64 {
	return (b.X()-a.X())*(c.Y()-a.Y()) - (b.Y()-a.Y())*(c.X()-a.X())
}

func onSegment(a, b, p orb.Point) bool {
	return p.X() >= min(a.X(), b.X()) && p.X() <= max(a.X(), b.X()) &&
		p.Y() >= min(a.Y(), b.Y()) && p.Y() <= max(a.Y(), b.Y())
}
