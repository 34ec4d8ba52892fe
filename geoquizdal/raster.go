package geoquizdal

import (
	"bytes"
	"image"
	"io"
	"os"

	// primary decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

type decodeFunc func(r io.Reader) (image.Image, error)

// fallbackDecoders are tried in order, without relying on the format sniffing of image.Decode
var fallbackDecoders = []struct {
	name   string
	decode decodeFunc
}{
	{"tiff", tiff.Decode},
	{"bmp", bmp.Decode},
	{"webp", webp.Decode},
}

type RasterLoader struct {
	logger *logpkg.Logger
	fs     gofs.Fs
}

func NewRasterLoader(logger *logpkg.Logger, fs gofs.Fs) *RasterLoader {
	return &RasterLoader{logger, fs}
}

// Load reads and decodes the base map image
func (l *RasterLoader) Load(rasterPath string) (*geoquiz.RasterImage, errorsx.Error) {
	data, err := l.fs.ReadFile(rasterPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errorsx.Wrap(geoquiz.ErrMissingResource, "path", rasterPath)
		}
		return nil, errorsx.Wrap(geoquiz.ErrUnreadableRaster, "path", rasterPath, "cause", err.Error())
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err == nil && hasArea(img) {
		l.logger.Info("decoded raster %q (%s, %dx%d)", rasterPath, format, img.Bounds().Dx(), img.Bounds().Dy())
		return geoquiz.NewRasterImage(img), nil
	}

	l.logger.Warn("primary decode of raster %q failed (error: %v), trying fallback decoders", rasterPath, err)

	for _, decoder := range fallbackDecoders {
		img, err = decoder.decode(bytes.NewReader(data))
		if err != nil || !hasArea(img) {
			l.logger.Debug("fallback decoder %q could not decode %q. Error: %v", decoder.name, rasterPath, err)
			continue
		}

		l.logger.Info("decoded raster %q with fallback decoder %q (%dx%d)", rasterPath, decoder.name, img.Bounds().Dx(), img.Bounds().Dy())
		return geoquiz.NewRasterImage(img), nil
	}

	return nil, errorsx.Wrap(geoquiz.ErrUnreadableRaster, "path", rasterPath)
}

func hasArea(img image.Image) bool {
	if img == nil {
		return false
	}
	bounds := img.Bounds()
	return bounds.Dx() > 0 && bounds.Dy() > 0
}
