package parquetdb

import (
	"context"
	"path/filepath"
	"runtime"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/geoquizdal"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/xitongsys/parquet-go-source/local"
	parquetreader "github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
)

const readBatchSize = 256

var _ geoquizdal.FeatureSource = &ParquetSource{}

// ParquetSource reads features written by Importer
type ParquetSource struct {
	filePath      string
	file          source.ParquetFile
	parquetReader *parquetreader.ParquetReader
}

func Open(filePath string) (*ParquetSource, errorsx.Error) {
	file, err := local.NewLocalFileReader(filePath)
	if err != nil {
		return nil, errorsx.Wrap(err, "filepath", filePath)
	}

	parquetReader, err := parquetreader.NewParquetReader(file, new(FeatureRow), int64(runtime.NumCPU()))
	if err != nil {
		file.Close()
		return nil, errorsx.Wrap(err, "filepath", filePath)
	}

	return &ParquetSource{filePath, file, parquetReader}, nil
}

func (s *ParquetSource) Name() string {
	return filepath.Base(s.filePath)
}

func (s *ParquetSource) Iterate(ctx context.Context, onFeature geoquizdal.OnRawFeatureFunc) errorsx.Error {
	numRows := int(s.parquetReader.GetNumRows())

	for offset := 0; offset < numRows; offset += readBatchSize {
		err := ctx.Err()
		if err != nil {
			return errorsx.Wrap(err)
		}

		batchSize := readBatchSize
		if offset+batchSize > numRows {
			batchSize = numRows - offset
		}

		rows := make([]FeatureRow, batchSize)
		err = s.parquetReader.Read(&rows)
		if err != nil {
			return errorsx.Wrap(err, "filepath", s.filePath, "offset", offset)
		}

		for i, row := range rows {
			rawFeature := &geoquizdal.RawFeature{
				Index:      offset + i,
				Attributes: []geoquiz.Attribute{{Key: "NAME", Value: row.Name}},
			}

			geometry, err := wkb.Unmarshal([]byte(row.GeometryWKB))
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
	}

	return nil
}

func (s *ParquetSource) Close() errorsx.Error {
	s.parquetReader.ReadStop()

	err := s.file.Close()
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}
