package osmxmldb

import (
	"context"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/geoquizdal"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmgeojson"
)

var _ geoquizdal.FeatureSource = &OSMXMLSource{}

// OSMXMLSource reads boundaries from an OpenStreetMap XML extract.
// Closed area ways and multipolygon/boundary relations become polygons; the OSM tags become the attributes.
type OSMXMLSource struct {
	filePath string
	features []*geojson.Feature
}

func Open(fs gofs.Fs, filePath string) (*OSMXMLSource, errorsx.Error) {
	data, err := fs.ReadFile(filePath)
	if err != nil {
		return nil, errorsx.Wrap(err, "filepath", filePath)
	}

	o := new(osm.OSM)
	err = xml.Unmarshal(data, o)
	if err != nil {
		return nil, errorsx.Wrap(err, "filepath", filePath)
	}

	collection, err := osmgeojson.Convert(
		o,
		osmgeojson.NoMeta(true),
		osmgeojson.NoRelationMembership(true),
	)
	if err != nil {
		return nil, errorsx.Wrap(err, "filepath", filePath)
	}

	return &OSMXMLSource{filePath, collection.Features}, nil
}

func (s *OSMXMLSource) Name() string {
	return filepath.Base(s.filePath)
}

func (s *OSMXMLSource) Iterate(ctx context.Context, onFeature geoquizdal.OnRawFeatureFunc) errorsx.Error {
	for i, feature := range s.features {
		err := ctx.Err()
		if err != nil {
			return errorsx.Wrap(err)
		}

		onFeatureErr := onFeature(&geoquizdal.RawFeature{
			Index:      i,
			Attributes: attributesFromFeature(feature),
			Geometry:   feature.Geometry,
		})
		if onFeatureErr != nil {
			return onFeatureErr
		}
	}

	return nil
}

func (s *OSMXMLSource) Close() errorsx.Error {
	s.features = nil
	return nil
}

// attributesFromFeature lists the OSM tags sorted by key, followed by the object id
func attributesFromFeature(feature *geojson.Feature) []geoquiz.Attribute {
	tags := make(map[string]string)
	switch t := feature.Properties["tags"].(type) {
	case map[string]string:
		tags = t
	case map[string]interface{}:
		for key, value := range t {
			tags[key] = fmt.Sprint(value)
		}
	}

	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	attributes := make([]geoquiz.Attribute, 0, len(keys)+1)
	for _, key := range keys {
		attributes = append(attributes, geoquiz.Attribute{Key: key, Value: tags[key]})
	}

	id, ok := feature.Properties["id"]
	if ok {
		attributes = append(attributes, geoquiz.Attribute{Key: "id", Value: id})
	}

	return attributes
}
