package geoquiz

import (
	"github.com/paulmach/orb"
)

// Overlaps checks whether an item is at least partially inside a container
func Overlaps(container orb.Bound, item orb.Bound) bool {
	if container.Min.Lat() > item.Max.Lat() {
		// container is wholly above item
		return false
	}

	if container.Max.Lat() < item.Min.Lat() {
		// container is wholly below item
		return false
	}

	if container.Min.Lon() > item.Max.Lon() {
		// container is wholly to the right of item
		return false
	}

	if container.Max.Lon() < item.Min.Lon() {
		// container is wholly to the left of item
		return false
	}

	return true
}

func IsTotallyInside(container orb.Bound, item orb.Bound) bool {
	return item.Max.Lat() <= container.Max.Lat() &&
		item.Max.Lon() <= container.Max.Lon() &&
		item.Min.Lat() >= container.Min.Lat() &&
		item.Min.Lon() >= container.Min.Lon()
}

func GetWholeWorldBounds() orb.Bound {
	return orb.Bound{
		Min: orb.Point{-180, -90},
		Max: orb.Point{180, 90},
	}
}

// IsWithinWorldBounds checks an envelope lies inside [-180,180]x[-90,90], edges included
func IsWithinWorldBounds(bound orb.Bound) bool {
	return IsTotallyInside(GetWholeWorldBounds(), bound)
}

// IsInBounds tests if a point is strictly inside a container
func IsInBounds(bounds orb.Bound, point GeoPoint) bool {
	isInLatBounds := point.Lat < bounds.Max.Lat() && point.Lat > bounds.Min.Lat()
	if !isInLatBounds {
		return false
	}

	isInLonBounds := point.Lon < bounds.Max.Lon() && point.Lon > bounds.Min.Lon()
	if !isInLonBounds {
		return false
	}

	return true
}

// CountPoints counts the vertices of a polygonal geometry, all rings included.
// Non-polygonal geometries count as 0.
func CountPoints(geometry orb.Geometry) int {
	switch g := geometry.(type) {
	case orb.Ring:
		return len(g)
	case orb.Polygon:
		count := 0
		for _, ring := range g {
			count += len(ring)
		}
		return count
	case orb.MultiPolygon:
		count := 0
		for _, polygon := range g {
			count += CountPoints(polygon)
		}
		return count
	default:
		return 0
	}
}
