package geoquiz

import (
	"image"

	"github.com/paulmach/orb"
)

// GeoPoint is a longitude/latitude pair in degrees (WGS84, plate carrée)
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

func (p GeoPoint) OrbPoint() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// PixelPoint is a position in device pixels, relative to the top-left of a display surface
type PixelPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DisplayFrame is the current on-screen size of the map surface
type DisplayFrame struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsValid reports whether the frame can be projected onto (no division by zero)
func (f DisplayFrame) IsValid() bool {
	return f.Width > 0 && f.Height > 0
}

// IsRenderable reports whether the frame is big enough to draw overlays on.
// Frames of a single pixel (or less) in either dimension are produced by the UI layer before layout has finished.
func (f DisplayFrame) IsRenderable() bool {
	return f.Width > 1 && f.Height > 1
}

// Feature is one named boundary (usually a country).
// Geometry is always an orb.Polygon or an orb.MultiPolygon.
type Feature struct {
	Name     string
	Geometry orb.Geometry
}

// Polygons returns the constituent polygons of the feature, in order
func (f *Feature) Polygons() []orb.Polygon {
	switch g := f.Geometry.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}
	case orb.MultiPolygon:
		return []orb.Polygon(g)
	default:
		return nil
	}
}

func (f *Feature) Bound() orb.Bound {
	return f.Geometry.Bound()
}

// RasterImage is the decoded base map
type RasterImage struct {
	Image       image.Image
	Width       int
	Height      int
	aspectRatio float64
}

func NewRasterImage(img image.Image) *RasterImage {
	bounds := img.Bounds()
	raster := &RasterImage{
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
	if raster.Height > 0 {
		raster.aspectRatio = float64(raster.Width) / float64(raster.Height)
	}

	return raster
}

// AspectRatio is width / height. 0 for an empty image.
func (r *RasterImage) AspectRatio() float64 {
	return r.aspectRatio
}

// OverlayPolyline is one ring of a feature, projected into display pixels
type OverlayPolyline struct {
	FeatureName string       `json:"featureName"`
	Points      []PixelPoint `json:"points"`
	StrokeWidth float64      `json:"strokeWidth"`
}
