package projection

import (
	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/goutil/errorsx"
)

// Scales is the ratio of the display size to the native raster size
type Scales struct {
	X float64
	Y float64
}

// PixelToGeo maps a point on a display showing the whole world in plate carrée to a coordinate.
// A frame with no area gives ErrDegenerateFrame.
func PixelToGeo(point geoquiz.PixelPoint, frame geoquiz.DisplayFrame) (geoquiz.GeoPoint, errorsx.Error) {
	if !frame.IsValid() {
		return geoquiz.GeoPoint{}, errorsx.Wrap(geoquiz.ErrDegenerateFrame, "width", frame.Width, "height", frame.Height)
	}

	return geoquiz.GeoPoint{
		Lon: (point.X/frame.Width)*360 - 180,
		Lat: 90 - (point.Y/frame.Height)*180,
	}, nil
}

// GeoToPixel is the inverse of PixelToGeo when the scales come from ScalesForFrame
func GeoToPixel(point geoquiz.GeoPoint, imageWidth, imageHeight int, scales Scales) geoquiz.PixelPoint {
	return geoquiz.PixelPoint{
		X: ((point.Lon + 180) / 360) * float64(imageWidth) * scales.X,
		Y: ((90 - point.Lat) / 180) * float64(imageHeight) * scales.Y,
	}
}

func ScalesForFrame(imageWidth, imageHeight int, frame geoquiz.DisplayFrame) (Scales, errorsx.Error) {
	if imageWidth <= 0 || imageHeight <= 0 {
		return Scales{}, errorsx.Wrap(geoquiz.ErrDegenerateFrame, "imageWidth", imageWidth, "imageHeight", imageHeight)
	}

	if !frame.IsValid() {
		return Scales{}, errorsx.Wrap(geoquiz.ErrDegenerateFrame, "width", frame.Width, "height", frame.Height)
	}

	return Scales{
		X: frame.Width / float64(imageWidth),
		Y: frame.Height / float64(imageHeight),
	}, nil
}
