package geojsondb

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/geoquizdal"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/paulmach/orb/geojson"
)

var _ geoquizdal.FeatureSource = &GeoJSONSource{}

// GeoJSONSource reads a FeatureCollection (or a single Feature) held entirely in memory
type GeoJSONSource struct {
	filePath   string
	collection *geojson.FeatureCollection
}

func Open(fs gofs.Fs, filePath string) (*GeoJSONSource, errorsx.Error) {
	data, err := fs.ReadFile(filePath)
	if err != nil {
		return nil, errorsx.Wrap(err, "filepath", filePath)
	}

	collection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil || len(collection.Features) == 0 {
		feature, featureErr := geojson.UnmarshalFeature(data)
		if featureErr != nil {
			if err == nil {
				err = featureErr
			}
			return nil, errorsx.Wrap(err, "filepath", filePath)
		}
		collection = geojson.NewFeatureCollection().Append(feature)
	}

	return &GeoJSONSource{filePath, collection}, nil
}

func (s *GeoJSONSource) Name() string {
	return filepath.Base(s.filePath)
}

func (s *GeoJSONSource) Iterate(ctx context.Context, onFeature geoquizdal.OnRawFeatureFunc) errorsx.Error {
	for i, feature := range s.collection.Features {
		err := ctx.Err()
		if err != nil {
			return errorsx.Wrap(err)
		}

		rawFeature := &geoquizdal.RawFeature{
			Index:      i,
			Attributes: AttributesFromProperties(feature.Properties),
		}
		if feature.Geometry == nil {
			rawFeature.Err = errorsx.Errorf("feature has no geometry")
		} else {
			rawFeature.Geometry = feature.Geometry
		}

		onFeatureErr := onFeature(rawFeature)
		if onFeatureErr != nil {
			return onFeatureErr
		}
	}

	return nil
}

func (s *GeoJSONSource) Close() errorsx.Error {
	s.collection = nil
	return nil
}

// AttributesFromProperties orders the properties by key, since JSON objects have no order once decoded
func AttributesFromProperties(properties geojson.Properties) []geoquiz.Attribute {
	keys := make([]string, 0, len(properties))
	for key := range properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	attributes := make([]geoquiz.Attribute, 0, len(keys))
	for _, key := range keys {
		attributes = append(attributes, geoquiz.Attribute{Key: key, Value: properties[key]})
	}

	return attributes
}
