package geoquizdal

import (
	"math"
	"testing"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func circleRing(centre orb.Point, radius float64, pointCount int) orb.Ring {
	ring := make(orb.Ring, 0, pointCount+1)
	for i := 0; i < pointCount; i++ {
		angle := 2 * math.Pi * float64(i) / float64(pointCount)
		ring = append(ring, orb.Point{centre.X() + radius*math.Cos(angle), centre.Y() + radius*math.Sin(angle)})
	}

	return append(ring, ring[0])
}

func TestSimplifyGeometry(t *testing.T) {
	circle := orb.Polygon{circleRing(orb.Point{5, 5}, 10, 2000)}

	simplified := SimplifyGeometry(circle, 0.01)
	simplifiedPolygon, ok := simplified.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, simplifiedPolygon, 1)

	assert.Less(t, geoquiz.CountPoints(simplifiedPolygon), geoquiz.CountPoints(circle))
	assert.GreaterOrEqual(t, len(simplifiedPolygon[0]), 4)
	assert.Equal(t, simplifiedPolygon[0][0], simplifiedPolygon[0][len(simplifiedPolygon[0])-1])
	assert.False(t, isSelfIntersecting(simplifiedPolygon[0]))

	originalBound := circle.Bound()
	simplifiedBound := simplifiedPolygon.Bound()
	assert.InDelta(t, originalBound.Min.X(), simplifiedBound.Min.X(), 0.02)
	assert.InDelta(t, originalBound.Max.X(), simplifiedBound.Max.X(), 0.02)
	assert.InDelta(t, originalBound.Min.Y(), simplifiedBound.Min.Y(), 0.02)
	assert.InDelta(t, originalBound.Max.Y(), simplifiedBound.Max.Y(), 0.02)

	// input is untouched
	assert.Len(t, circle[0], 2001)
}

func TestSimplifyGeometry_multiPolygon(t *testing.T) {
	multiPolygon := orb.MultiPolygon{
		{circleRing(orb.Point{0, 0}, 1, 1500)},
		{circleRing(orb.Point{10, 10}, 1, 1500)},
	}

	simplified, ok := SimplifyGeometry(multiPolygon, 0.01).(orb.MultiPolygon)
	require.True(t, ok)
	require.Len(t, simplified, 2)
	assert.Less(t, len(simplified[1][0]), 1501)
}

func TestSimplifyRing_keepsTinyRing(t *testing.T) {
	// every vertex is within tolerance of the chord, so a plain Douglas-Peucker would collapse it
	tiny := orb.Ring{{0, 0}, {0.001, 0}, {0.001, 0.001}, {0, 0.001}, {0, 0}}

	simplified := simplifyRing(tiny, 0.01)
	assert.GreaterOrEqual(t, len(simplified), 4)
}

func TestIsSelfIntersecting(t *testing.T) {
	square := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	bowtie := orb.Ring{{0, 0}, {1, 1}, {1, 0}, {0, 1}, {0, 0}}

	assert.False(t, isSelfIntersecting(square))
	assert.True(t, isSelfIntersecting(bowtie))
}

func TestSimplifyGeometry_holeNearShell(t *testing.T) {
	// a square whose top edge bulges up to y=10.5, with a hole tucked into the bulge
	shell := orb.Ring{{0, 0}, {10, 0}}
	for x := 10.0; x >= 0; x -= 0.5 {
		shell = append(shell, orb.Point{x, 10 + 0.5*math.Sin(math.Pi*x/10)})
	}
	shell = append(shell, orb.Point{0, 0})

	hole := orb.Ring{{4.5, 9.8}, {4.5, 10.3}, {5.5, 10.3}, {5.5, 9.8}, {4.5, 9.8}}
	polygon := orb.Polygon{shell, hole}
	require.False(t, ringsCross(polygon))

	// simplifying each ring on its own flattens the bulge through the hole
	naive := orb.Polygon{simplifyRing(shell, 1), simplifyRing(hole, 1)}
	require.True(t, ringsCross(naive))

	simplified := SimplifyGeometry(polygon, 1).(orb.Polygon)
	require.Len(t, simplified, 2)
	assert.False(t, ringsCross(simplified))
	assert.Less(t, len(simplified[0]), len(shell))
	assert.False(t, isSelfIntersecting(simplified[0]))
}

func TestRingsCross(t *testing.T) {
	outer := orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}

	tests := []struct {
		name    string
		polygon orb.Polygon
		want    bool
	}{
		{"single ring", orb.Polygon{outer}, false},
		{"hole well inside", orb.Polygon{outer, {{4, 4}, {4, 6}, {6, 6}, {6, 4}, {4, 4}}}, false},
		{"hole crossing the shell", orb.Polygon{outer, {{8, 4}, {8, 6}, {12, 6}, {12, 4}, {8, 4}}}, true},
		{"two holes crossing each other", orb.Polygon{
			outer,
			{{2, 2}, {2, 5}, {5, 5}, {5, 2}, {2, 2}},
			{{4, 4}, {4, 7}, {7, 7}, {7, 4}, {4, 4}},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ringsCross(tt.polygon))
		})
	}
}
