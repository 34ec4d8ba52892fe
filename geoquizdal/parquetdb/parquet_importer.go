package parquetdb

import (
	"runtime"

	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/geoquizdal"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	parquetwriter "github.com/xitongsys/parquet-go/writer"
)

var _ geoquizdal.FinalStorage = &Importer{}

// Importer writes features to a temporary file next to the destination, and moves it into place on Commit
type Importer struct {
	fs            gofs.Fs
	filePath      string
	tempFilePath  string
	file          source.ParquetFile
	parquetWriter *parquetwriter.ParquetWriter
	rowCount      int
}

func NewImporter(fs gofs.Fs, filePath string) (*Importer, errorsx.Error) {
	tempFilePath := filePath + ".tmp"

	file, err := local.NewLocalFileWriter(tempFilePath)
	if err != nil {
		return nil, errorsx.Wrap(err, "filepath", tempFilePath)
	}

	parquetWriter, err := parquetwriter.NewParquetWriter(file, new(FeatureRow), int64(runtime.NumCPU()))
	if err != nil {
		file.Close()
		return nil, errorsx.Wrap(err, "filepath", tempFilePath)
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	return &Importer{
		fs:            fs,
		filePath:      filePath,
		tempFilePath:  tempFilePath,
		file:          file,
		parquetWriter: parquetWriter,
	}, nil
}

func (i *Importer) ImportFeature(feature *geoquiz.Feature) errorsx.Error {
	row, err := newFeatureRow(feature)
	if err != nil {
		return err
	}

	writeErr := i.parquetWriter.Write(row)
	if writeErr != nil {
		return errorsx.Wrap(writeErr, "featureName", feature.Name)
	}

	i.rowCount++
	return nil
}

func (i *Importer) Commit() errorsx.Error {
	err := i.parquetWriter.WriteStop()
	if err != nil {
		return errorsx.Wrap(err, "filepath", i.tempFilePath)
	}

	err = i.file.Close()
	if err != nil {
		return errorsx.Wrap(err, "filepath", i.tempFilePath)
	}

	err = i.fs.Rename(i.tempFilePath, i.filePath)
	if err != nil {
		return errorsx.Wrap(err, "filepath", i.filePath)
	}

	return nil
}

func (i *Importer) Rollback() errorsx.Error {
	// the file may already be closed by a failed Commit
	i.file.Close()

	err := i.fs.Remove(i.tempFilePath)
	if err != nil && !isNotExist(i.fs, i.tempFilePath) {
		return errorsx.Wrap(err, "filepath", i.tempFilePath)
	}

	return nil
}

func isNotExist(fs gofs.Fs, path string) bool {
	_, err := fs.Stat(path)
	return err != nil
}
