package parquetdb

import (
	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/orb/encoding/wkb"
)

// FeatureRow is one row of a prepared feature file. The geometry is stored as WKB.
type FeatureRow struct {
	Name        string  `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8"`
	GeometryWKB string  `parquet:"name=geometry_wkb, type=BYTE_ARRAY"`
	MinLon      float64 `parquet:"name=min_lon, type=DOUBLE"`
	MinLat      float64 `parquet:"name=min_lat, type=DOUBLE"`
	MaxLon      float64 `parquet:"name=max_lon, type=DOUBLE"`
	MaxLat      float64 `parquet:"name=max_lat, type=DOUBLE"`
}

func newFeatureRow(feature *geoquiz.Feature) (*FeatureRow, errorsx.Error) {
	geometryBytes, err := wkb.Marshal(feature.Geometry)
	if err != nil {
		return nil, errorsx.Wrap(err, "featureName", feature.Name)
	}

	bound := feature.Bound()

	return &FeatureRow{
		Name:        feature.Name,
		GeometryWKB: string(geometryBytes),
		MinLon:      bound.Min.Lon(),
		MinLat:      bound.Min.Lat(),
		MaxLon:      bound.Max.Lon(),
		MaxLat:      bound.Max.Lat(),
	}, nil
}
