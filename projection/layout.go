package projection

import (
	"math"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
)

type LayoutLimits struct {
	// share of the available width given to the map
	AreaFactor float64
	MinWidth   float64
	MaxWidth   float64
	MinHeight  float64
	MaxHeight  float64
}

func DefaultLayoutLimits() LayoutLimits {
	return LayoutLimits{
		AreaFactor: 0.9,
		MinWidth:   400,
		MaxWidth:   4000,
		MinHeight:  300,
		MaxHeight:  3000,
	}
}

// DefaultWindowFrame is the size used before the display has reported its own
var DefaultWindowFrame = geoquiz.DisplayFrame{Width: 1200, Height: 800}

// FitDisplayFrame picks the map size for the space available, keeping the raster's aspect ratio
// (until the limits clamp one of the dimensions)
func FitDisplayFrame(available geoquiz.DisplayFrame, aspectRatio float64, limits LayoutLimits) geoquiz.DisplayFrame {
	if !available.IsValid() {
		available = DefaultWindowFrame
	}

	width := available.Width * limits.AreaFactor
	height := available.Height * limits.AreaFactor

	if aspectRatio > 0 {
		width = math.Min(width, height*aspectRatio)
		height = width / aspectRatio
	}

	return geoquiz.DisplayFrame{
		Width:  clamp(width, limits.MinWidth, limits.MaxWidth),
		Height: clamp(height, limits.MinHeight, limits.MaxHeight),
	}
}

func clamp(value, minValue, maxValue float64) float64 {
	return math.Max(minValue, math.Min(maxValue, value))
}
