package quizrenderer

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"unicode/utf8"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/metrics"
	"github.com/jamesrr39/geoquiz-app/styling"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/llgcode/draw2d/draw2dimg"
	xdraw "golang.org/x/image/draw"
)

const labelMargin = 8

type RasterRenderer struct {
	font *truetype.Font
}

func NewRasterRenderer(font *truetype.Font) *RasterRenderer {
	return &RasterRenderer{
		font,
	}
}

func (rr *RasterRenderer) RenderTextTile(size image.Rectangle, text string) (image.Image, errorsx.Error) {
	img := image.NewRGBA(size)
	x := labelMargin
	y := size.Max.Y / 2

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(rr.font)
	ctx.SetFontSize(16.0)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.NewUniform(color.Black))

	_, err := ctx.DrawString(text, freetype.Pt(x, y))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return img, nil
}

func (rr *RasterRenderer) RenderMap(ctx context.Context, raster *geoquiz.RasterImage, polylines []geoquiz.OverlayPolyline, frame geoquiz.DisplayFrame, highlightFeatureName string, style styling.Style) (image.Image, errorsx.Error) {
	if !frame.IsRenderable() {
		return nil, errorsx.Wrap(geoquiz.ErrDegenerateFrame, "width", frame.Width, "height", frame.Height)
	}

	drawMapSpan := startSpan(ctx, "drawMap")
	defer endSpan(ctx, drawMapSpan)

	size := image.Rect(0, 0, int(math.Ceil(frame.Width)), int(math.Ceil(frame.Height)))
	img := NewImageWithBackground(size, style.GetBackground())

	if raster != nil && raster.Width > 0 && raster.Height > 0 {
		span := startSpan(ctx, "scale raster")
		xdraw.ApproxBiLinear.Scale(img, img.Bounds(), raster.Image, raster.Image.Bounds(), draw.Over, nil)
		endSpan(ctx, span)
	}

	span := startSpan(ctx, "draw outlines")
	gc := draw2dimg.NewGraphicContext(img)
	defer gc.Close()

	var highlighted []geoquiz.OverlayPolyline
	outlineStyle := style.GetOutlineStyle()
	for _, polyline := range polylines {
		if highlightFeatureName != "" && polyline.FeatureName == highlightFeatureName {
			highlighted = append(highlighted, polyline)
			continue
		}
		drawPolyline(gc, polyline, outlineStyle)
	}

	highlightStyle := style.GetHighlightStyle()
	for _, polyline := range highlighted {
		drawPolyline(gc, polyline, highlightStyle)
	}
	endSpan(ctx, span)

	if highlightFeatureName != "" {
		err := rr.drawLabel(img, highlightFeatureName, style.GetLabelStyle())
		if err != nil {
			return nil, err
		}
	}

	metrics.MapRendersTotal.Inc()

	return img, nil
}

func drawPolyline(gc *draw2dimg.GraphicContext, polyline geoquiz.OverlayPolyline, lineStyle *styling.LineStyle) {
	if len(polyline.Points) == 0 {
		return
	}

	lineWidth := polyline.StrokeWidth
	if lineStyle.LineWidth != 0 {
		lineWidth = lineStyle.LineWidth
	}

	gc.SetStrokeColor(lineStyle.LineColor)
	gc.SetLineWidth(lineWidth)
	if lineStyle.FillColor != nil {
		gc.SetFillColor(lineStyle.FillColor)
	}

	gc.BeginPath()
	for i, point := range polyline.Points {
		if i == 0 {
			gc.MoveTo(point.X, point.Y)
		} else {
			gc.LineTo(point.X, point.Y)
		}
	}

	if lineStyle.FillColor != nil {
		gc.Close()
		gc.FillStroke()
		return
	}

	gc.Stroke()
}

func (rr *RasterRenderer) drawLabel(img draw.Image, text string, labelStyle *styling.LabelStyle) errorsx.Error {
	labelImg, err := rr.generateLabelImage(text, labelStyle)
	if err != nil {
		return err
	}

	pt := image.Point{X: labelMargin, Y: labelMargin}
	draw.Draw(img, labelImg.Bounds().Add(pt), labelImg, image.Point{}, draw.Over)

	return nil
}

func (rr *RasterRenderer) generateLabelImage(text string, labelStyle *styling.LabelStyle) (image.Image, errorsx.Error) {
	width := utf8.RuneCountInString(text)*labelStyle.TextSize + labelMargin
	height := labelStyle.TextSize * 2
	labelImg := NewImageWithBackground(image.Rect(0, 0, width, height), labelStyle.Background)

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(rr.font)
	ctx.SetFontSize(float64(labelStyle.TextSize))
	ctx.SetClip(labelImg.Bounds())
	ctx.SetDst(labelImg)
	ctx.SetSrc(image.NewUniform(labelStyle.TextColor))

	_, err := ctx.DrawString(text, freetype.Pt(labelMargin/2, height*2/3))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return labelImg, nil
}
