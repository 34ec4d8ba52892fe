package overlay

import (
	"math"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/projection"
	"github.com/paulmach/orb"
)

// StrokePolicy thins the outlines as the map shrinks, down to a floor
type StrokePolicy struct {
	MinWidth    float64
	WidthFactor float64
}

func DefaultStrokePolicy() StrokePolicy {
	return StrokePolicy{
		MinWidth:    0.2,
		WidthFactor: 0.4,
	}
}

func (p StrokePolicy) StrokeWidth(scales projection.Scales) float64 {
	return math.Max(p.MinWidth, p.WidthFactor*math.Min(scales.X, scales.Y))
}

type BuildOptions struct {
	StrokePolicy StrokePolicy
	// by default only the exterior ring of each polygon is drawn
	IncludeInnerRings bool
}

func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		StrokePolicy: DefaultStrokePolicy(),
	}
}

// Build projects the feature outlines onto a display frame.
// Each polygon gives one polyline (more with IncludeInnerRings), tagged with its feature's name.
// Frames of 1 pixel or less, and empty rasters, give an empty result.
func Build(features []*geoquiz.Feature, imageWidth, imageHeight int, frame geoquiz.DisplayFrame, options BuildOptions) []geoquiz.OverlayPolyline {
	polylines := []geoquiz.OverlayPolyline{}

	if !frame.IsRenderable() {
		return polylines
	}

	scales, err := projection.ScalesForFrame(imageWidth, imageHeight, frame)
	if err != nil {
		return polylines
	}

	strokeWidth := options.StrokePolicy.StrokeWidth(scales)

	for _, feature := range features {
		for _, polygon := range feature.Polygons() {
			rings := []orb.Ring(polygon)
			if !options.IncludeInnerRings && len(rings) > 1 {
				rings = rings[:1]
			}

			for _, ring := range rings {
				polylines = append(polylines, geoquiz.OverlayPolyline{
					FeatureName: feature.Name,
					Points:      projectRing(ring, imageWidth, imageHeight, scales),
					StrokeWidth: strokeWidth,
				})
			}
		}
	}

	return polylines
}

func projectRing(ring orb.Ring, imageWidth, imageHeight int, scales projection.Scales) []geoquiz.PixelPoint {
	points := make([]geoquiz.PixelPoint, len(ring))
	for i, point := range ring {
		points[i] = projection.GeoToPixel(geoquiz.GeoPoint{Lon: point.Lon(), Lat: point.Lat()}, imageWidth, imageHeight, scales)
	}

	return points
}
