package geoquizdal

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/orb"
)

type DatasetType string

const (
	DatasetTypeShapefile  DatasetType = "shapefile"
	DatasetTypeGeoJSON    DatasetType = "geojson"
	DatasetTypeOSMXML     DatasetType = "osmxml"
	DatasetTypeParquet    DatasetType = "parquet"
	DatasetTypePostgresql DatasetType = "postgresql"
)

var datasetTypesByExtension = map[string]DatasetType{
	".shp":     DatasetTypeShapefile,
	".geojson": DatasetTypeGeoJSON,
	".json":    DatasetTypeGeoJSON,
	".osm":     DatasetTypeOSMXML,
	".parquet": DatasetTypeParquet,
}

type DatasetConnectionURL struct {
	Type           DatasetType
	ConnectionPath string
}

// IsFileBased is true for datasets that live in a single file on disk
func (u DatasetConnectionURL) IsFileBased() bool {
	return u.Type != DatasetTypePostgresql
}

func (u DatasetConnectionURL) String() string {
	return string(u.Type) + ConnectionPathSeparator + u.ConnectionPath
}

const ConnectionPathSeparator = "://"

// ParseDatasetConnString parses "<type>://<path-or-dsn>".
// A plain file path is accepted too, and the type is taken from the file extension.
func ParseDatasetConnString(str string) (DatasetConnectionURL, errorsx.Error) {
	idx := strings.Index(str, ConnectionPathSeparator)
	if idx < 0 {
		ext := strings.ToLower(filepath.Ext(str))
		datasetType, ok := datasetTypesByExtension[ext]
		if !ok {
			return DatasetConnectionURL{}, errorsx.Errorf("couldn't find connection path separator %q in dataset path %q, and couldn't infer a type from the file extension", ConnectionPathSeparator, str)
		}

		return DatasetConnectionURL{
			Type:           datasetType,
			ConnectionPath: str,
		}, nil
	}

	connURL := DatasetConnectionURL{
		Type:           DatasetType(str[:idx]),
		ConnectionPath: str[idx+len(ConnectionPathSeparator):],
	}

	if connURL.ConnectionPath == "" {
		return DatasetConnectionURL{}, errorsx.Errorf("empty connection path in %q", str)
	}

	return connURL, nil
}

// RawFeature is one feature as read from a source, before validation and naming.
// Err is set when the source could not decode this feature; the loader skips it.
type RawFeature struct {
	Index      int
	Attributes []geoquiz.Attribute
	Geometry   orb.Geometry
	Err        error
}

type OnRawFeatureFunc func(rawFeature *RawFeature) errorsx.Error

// FeatureSource is an opened vector dataset.
// Iterate must call onFeature in dataset order, and stop at the first error onFeature returns.
type FeatureSource interface {
	Name() string
	Iterate(ctx context.Context, onFeature OnRawFeatureFunc) errorsx.Error
	Close() errorsx.Error
}

type OpenSourceFunc func(connURL DatasetConnectionURL) (FeatureSource, errorsx.Error)

// FinalStorage receives features during an import into a prepared store
type FinalStorage interface {
	ImportFeature(feature *geoquiz.Feature) errorsx.Error
	Commit() errorsx.Error
	Rollback() errorsx.Error
}
