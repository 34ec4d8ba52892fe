package geoquiz

import (
	"image"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeature_Polygons(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}
	other := orb.Polygon{{{5, 5}, {6, 5}, {6, 6}, {5, 6}, {5, 5}}}

	single := &Feature{Name: "A", Geometry: square}
	require.Len(t, single.Polygons(), 1)

	multi := &Feature{Name: "B", Geometry: orb.MultiPolygon{square, other}}
	polygons := multi.Polygons()
	require.Len(t, polygons, 2)
	assert.Equal(t, other, polygons[1])
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{6, 6}}, multi.Bound())
}

func TestNewRasterImage(t *testing.T) {
	raster := NewRasterImage(image.NewRGBA(image.Rect(0, 0, 360, 180)))
	assert.Equal(t, 360, raster.Width)
	assert.Equal(t, 180, raster.Height)
	assert.Equal(t, 2.0, raster.AspectRatio())

	empty := NewRasterImage(image.NewRGBA(image.Rect(0, 0, 10, 0)))
	assert.Equal(t, 0.0, empty.AspectRatio())
}

func TestDisplayFrame(t *testing.T) {
	tests := []struct {
		name           string
		frame          DisplayFrame
		wantValid      bool
		wantRenderable bool
	}{
		{"normal", DisplayFrame{Width: 720, Height: 360}, true, true},
		{"zero width", DisplayFrame{Width: 0, Height: 360}, false, false},
		{"negative height", DisplayFrame{Width: 720, Height: -1}, false, false},
		{"one pixel", DisplayFrame{Width: 1, Height: 360}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantValid, tt.frame.IsValid())
			assert.Equal(t, tt.wantRenderable, tt.frame.IsRenderable())
		})
	}
}
