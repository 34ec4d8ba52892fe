package shapefiledb

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/geoquizdal"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

var _ geoquizdal.FeatureSource = &ShapefileSource{}

// ShapefileSource reads an ESRI shapefile, with its attributes from the .dbf next to it
type ShapefileSource struct {
	filePath string
	reader   *shp.Reader
}

func Open(filePath string) (*ShapefileSource, errorsx.Error) {
	reader, err := shp.Open(filePath)
	if err != nil {
		return nil, errorsx.Wrap(err, "filepath", filePath)
	}

	return &ShapefileSource{filePath, reader}, nil
}

func (s *ShapefileSource) Name() string {
	return filepath.Base(s.filePath)
}

func (s *ShapefileSource) Iterate(ctx context.Context, onFeature geoquizdal.OnRawFeatureFunc) errorsx.Error {
	fields := s.reader.Fields()

	for s.reader.Next() {
		err := ctx.Err()
		if err != nil {
			return errorsx.Wrap(err)
		}

		index, shape := s.reader.Shape()

		attributes := make([]geoquiz.Attribute, 0, len(fields))
		for fieldIndex, field := range fields {
			attributes = append(attributes, geoquiz.Attribute{
				Key:   field.String(),
				Value: strings.Trim(s.reader.ReadAttribute(index, fieldIndex), "\x00 "),
			})
		}

		rawFeature := &geoquizdal.RawFeature{
			Index:      index,
			Attributes: attributes,
		}

		geometry, err := shapeToGeometry(shape)
		if err != nil {
			rawFeature.Err = err
		} else {
			rawFeature.Geometry = geometry
		}

		onFeatureErr := onFeature(rawFeature)
		if onFeatureErr != nil {
			return onFeatureErr
		}
	}

	err := s.reader.Err()
	if err != nil {
		return errorsx.Wrap(err, "filepath", s.filePath)
	}

	return nil
}

func (s *ShapefileSource) Close() errorsx.Error {
	err := s.reader.Close()
	if err != nil {
		return errorsx.Wrap(err)
	}
	return nil
}

// shapeToGeometry converts polygon shapes to orb geometry. Other shape types give a nil geometry.
func shapeToGeometry(shape shp.Shape) (orb.Geometry, errorsx.Error) {
	switch s := shape.(type) {
	case *shp.Polygon:
		return partsToGeometry(s.Parts, s.Points)
	case *shp.PolygonZ:
		return partsToGeometry(s.Parts, s.Points)
	case *shp.PolygonM:
		return partsToGeometry(s.Parts, s.Points)
	case *shp.Point:
		return orb.Point{s.X, s.Y}, nil
	default:
		return nil, nil
	}
}

// partsToGeometry splits the points into rings. Clockwise rings are outer rings and start a new polygon,
// counter-clockwise rings are holes of the polygon before them.
func partsToGeometry(parts []int32, points []shp.Point) (orb.Geometry, errorsx.Error) {
	var polygons orb.MultiPolygon

	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}

		if start < 0 || start > end || int(end) > len(points) {
			return nil, errorsx.Errorf("invalid part bounds %d..%d (%d points)", start, end, len(points))
		}

		ring := make(orb.Ring, 0, end-start)
		for _, point := range points[start:end] {
			ring = append(ring, orb.Point{point.X, point.Y})
		}

		if len(ring) == 0 {
			continue
		}

		if !ring.Closed() {
			ring = append(ring, ring[0])
		}

		if ring.Orientation() == orb.CCW && len(polygons) > 0 {
			lastIndex := len(polygons) - 1
			polygons[lastIndex] = append(polygons[lastIndex], ring)
			continue
		}

		polygons = append(polygons, orb.Polygon{ring})
	}

	switch len(polygons) {
	case 0:
		return nil, errorsx.Errorf("polygon shape has no rings")
	case 1:
		return polygons[0], nil
	default:
		return polygons, nil
	}
}
