package geoquizsqldb

import (
	"github.com/jamesrr39/geoquiz-app/geoquiz"
	"github.com/jamesrr39/geoquiz-app/geoquizdal"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jmoiron/sqlx"
)

var _ geoquizdal.FinalStorage = &Importer{}

const insertFeatureQuery = `INSERT INTO features (id, name, geometry_wkb, min_lon, min_lat, max_lon, max_lat)
VALUES (:id, :name, :geometry_wkb, :min_lon, :min_lat, :max_lon, :max_lat)`

// Importer replaces the contents of the features table inside one transaction
type Importer struct {
	tx     *sqlx.Tx
	nextID int64
}

func NewImporter(db *sqlx.DB) (*Importer, errorsx.Error) {
	tx, err := db.Beginx()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	_, err = tx.Exec("DELETE FROM features")
	if err != nil {
		tx.Rollback()
		return nil, errorsx.Wrap(err)
	}

	return &Importer{tx, 1}, nil
}

func (importer *Importer) ImportFeature(feature *geoquiz.Feature) errorsx.Error {
	row, err := newFeatureRow(importer.nextID, feature)
	if err != nil {
		return err
	}

	_, execErr := importer.tx.NamedExec(insertFeatureQuery, row)
	if execErr != nil {
		return errorsx.Wrap(execErr, "featureName", feature.Name)
	}

	importer.nextID++
	return nil
}

func (importer *Importer) Commit() errorsx.Error {
	err := importer.tx.Commit()
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}

func (importer *Importer) Rollback() errorsx.Error {
	err := importer.tx.Rollback()
	if err != nil {
		return errorsx.Wrap(err)
	}

	return nil
}
