package maprenderer

import (
	"context"
	"image"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/styling"
	"github.com/jamesrr39/goutil/errorsx"
)

type MapRenderer interface {
	// RenderMap draws the raster scaled to the frame, with the polylines on top.
	// Polylines of the highlighted feature (if any) are drawn last, with the style's highlight, and the feature name is written on the map.
	RenderMap(ctx context.Context, raster *geoquiz.RasterImage, polylines []geoquiz.OverlayPolyline, frame geoquiz.DisplayFrame, highlightFeatureName string, style styling.Style) (image.Image, errorsx.Error)
	RenderTextTile(size image.Rectangle, text string) (image.Image, errorsx.Error)
}
