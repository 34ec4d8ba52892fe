package geoquizsqldb

import (
	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/geoquizdal"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/orb/encoding/wkb"
)

// featureRow is one row of the features table
type featureRow struct {
	ID          int64   `db:"id"`
	Name        string  `db:"name"`
	GeometryWKB []byte  `db:"geometry_wkb"`
	MinLon      float64 `db:"min_lon"`
	MinLat      float64 `db:"min_lat"`
	MaxLon      float64 `db:"max_lon"`
	MaxLat      float64 `db:"max_lat"`
}

func newFeatureRow(id int64, feature *geoquiz.Feature) (*featureRow, errorsx.Error) {
	geometryBytes, err := wkb.Marshal(feature.Geometry)
	if err != nil {
		return nil, errorsx.Wrap(err, "featureName", feature.Name)
	}

	bound := feature.Bound()

	return &featureRow{
		ID:          id,
		Name:        feature.Name,
		GeometryWKB: geometryBytes,
		MinLon:      bound.Min.Lon(),
		MinLat:      bound.Min.Lat(),
		MaxLon:      bound.Max.Lon(),
		MaxLat:      bound.Max.Lat(),
	}, nil
}

func (row *featureRow) toRawFeature(index int) *geoquizdal.RawFeature {
	rawFeature := &geoquizdal.RawFeature{
		Index: index,
		Attributes: []geoquiz.Attribute{
			{Key: "NAME", Value: row.Name},
			{Key: "id", Value: row.ID},
		},
	}

	geometry, err := wkb.Unmarshal(row.GeometryWKB)
	if err != nil {
		rawFeature.Err = errorsx.Wrap(err, "id", row.ID)
		return rawFeature
	}

	rawFeature.Geometry = geometry
	return rawFeature
}
