package geoquiz

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func bound(minLon, minLat, maxLon, maxLat float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
}

func TestOverlaps(t *testing.T) {
	containerBounds := bound(-1, -1, 1, 1)

	type args struct {
		container orb.Bound
		item      orb.Bound
	}
	tests := []struct {
		name string
		args args
		want bool
	}{
		{
			"item wholly above container",
			args{containerBounds, bound(-1, 2, 1, 3)},
			false,
		}, {
			"item wholly below container",
			args{containerBounds, bound(-1, -3, 1, -2)},
			false,
		}, {
			"item wholly left of container",
			args{containerBounds, bound(-3, -1, -2, 1)},
			false,
		}, {
			"item wholly right of container",
			args{containerBounds, bound(2, -1, 3, 1)},
			false,
		}, {
			"item inside container",
			args{containerBounds, bound(-0.5, -0.5, 0.5, 0.5)},
			true,
		}, {
			"container inside item",
			args{containerBounds, bound(-2, -2, 2, 2)},
			true,
		}, {
			"item partially inside container (top side)",
			args{containerBounds, bound(0.2, 0.5, 0.8, 2)},
			true,
		}, {
			"item partially inside container (bottom-right side)",
			args{containerBounds, bound(0.5, -1.5, 1.5, -0.5)},
			true,
		}, {
			"item == container",
			args{containerBounds, containerBounds},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.args.container, tt.args.item))
		})
	}
}

func TestIsInBounds(t *testing.T) {
	bounds := bound(-1, -1, 1, 1)

	tests := []struct {
		name  string
		point GeoPoint
		want  bool
	}{
		{"is in bounds", GeoPoint{Lon: -0.5, Lat: 0.5}, true},
		{"is above bounds", GeoPoint{Lon: -0.5, Lat: 1.5}, false},
		{"is to the left of bounds", GeoPoint{Lon: -1.5, Lat: 0.5}, false},
		{"is below bounds", GeoPoint{Lon: -0.5, Lat: -1.5}, false},
		{"is to the right of bounds", GeoPoint{Lon: 1.5, Lat: 0.5}, false},
		{"is on the edge", GeoPoint{Lon: 1, Lat: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInBounds(bounds, tt.point))
		})
	}
}

func TestIsWithinWorldBounds(t *testing.T) {
	assert.True(t, IsWithinWorldBounds(bound(-180, -90, 180, 90)))
	assert.True(t, IsWithinWorldBounds(bound(-10, -10, 10, 10)))
	assert.False(t, IsWithinWorldBounds(bound(170, 0, 181, 10)))
	assert.False(t, IsWithinWorldBounds(bound(0, -91, 10, 0)))
}

func TestCountPoints(t *testing.T) {
	square := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	hole := orb.Ring{{0.2, 0.2}, {0.4, 0.2}, {0.4, 0.4}, {0.2, 0.2}}

	assert.Equal(t, 5, CountPoints(square))
	assert.Equal(t, 9, CountPoints(orb.Polygon{square, hole}))
	assert.Equal(t, 14, CountPoints(orb.MultiPolygon{{square, hole}, {square}}))
	assert.Equal(t, 0, CountPoints(orb.LineString{{0, 0}, {1, 1}}))
}
