package datasources

import (
	"github.com/jamesrr39/geoquiz-app/geoquizdal"
	"github.com/jamesrr39/geoquiz-app/geoquizdal/geojsondb"
	"github.com/jamesrr39/geoquiz-app/geoquizdal/geoquizsqldb/geoquizpostgresql"
	"github.com/jamesrr39/geoquiz-app/geoquizdal/osmxmldb"
	"github.com/jamesrr39/geoquiz-app/geoquizdal/parquetdb"
	"github.com/jamesrr39/geoquiz-app/geoquizdal/shapefiledb"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
)

// NewOpenSourceFunc returns a function opening the right FeatureSource for a connection URL
func NewOpenSourceFunc(fs gofs.Fs) geoquizdal.OpenSourceFunc {
	return func(connURL geoquizdal.DatasetConnectionURL) (geoquizdal.FeatureSource, errorsx.Error) {
		var source geoquizdal.FeatureSource
		var err errorsx.Error

		switch connURL.Type {
		case geoquizdal.DatasetTypeShapefile:
			source, err = openShapefile(connURL.ConnectionPath)
		case geoquizdal.DatasetTypeGeoJSON:
			source, err = openGeoJSON(fs, connURL.ConnectionPath)
		case geoquizdal.DatasetTypeOSMXML:
			source, err = openOSMXML(fs, connURL.ConnectionPath)
		case geoquizdal.DatasetTypeParquet:
			source, err = openParquet(connURL.ConnectionPath)
		case geoquizdal.DatasetTypePostgresql:
			source, err = openPostgresql(connURL.ConnectionPath)
		default:
			return nil, errorsx.Errorf("unsupported dataset type: %q", connURL.Type)
		}
		if err != nil {
			return nil, errorsx.Wrap(err, "datasetType", connURL.Type)
		}

		return source, nil
	}
}

func openShapefile(filePath string) (geoquizdal.FeatureSource, errorsx.Error) {
	source, err := shapefiledb.Open(filePath)
	if err != nil {
		return nil, err
	}
	return source, nil
}

func openGeoJSON(fs gofs.Fs, filePath string) (geoquizdal.FeatureSource, errorsx.Error) {
	source, err := geojsondb.Open(fs, filePath)
	if err != nil {
		return nil, err
	}
	return source, nil
}

func openOSMXML(fs gofs.Fs, filePath string) (geoquizdal.FeatureSource, errorsx.Error) {
	source, err := osmxmldb.Open(fs, filePath)
	if err != nil {
		return nil, err
	}
	return source, nil
}

func openParquet(filePath string) (geoquizdal.FeatureSource, errorsx.Error) {
	source, err := parquetdb.Open(filePath)
	if err != nil {
		return nil, err
	}
	return source, nil
}

func openPostgresql(connStr string) (geoquizdal.FeatureSource, errorsx.Error) {
	source, err := geoquizpostgresql.NewSource(connStr)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// NewFinalStorage returns the prepared store for an import destination.
// Only parquet and postgresql can be written to.
func NewFinalStorage(fs gofs.Fs, connURL geoquizdal.DatasetConnectionURL) (geoquizdal.FinalStorage, errorsx.Error) {
	switch connURL.Type {
	case geoquizdal.DatasetTypeParquet:
		importer, err := parquetdb.NewImporter(fs, connURL.ConnectionPath)
		if err != nil {
			return nil, err
		}
		return importer, nil
	case geoquizdal.DatasetTypePostgresql:
		importer, err := geoquizpostgresql.NewFinalStorage(connURL.ConnectionPath)
		if err != nil {
			return nil, err
		}
		return importer, nil
	default:
		return nil, errorsx.Errorf("cannot import into dataset type %q, expected %q or %q", connURL.Type, geoquizdal.DatasetTypeParquet, geoquizdal.DatasetTypePostgresql)
	}
}
