package geoquizsqldb

import (
	"context"

	"github.com/jamesrr39/geoquiz-app/geoquizdal"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jmoiron/sqlx"
)

var _ geoquizdal.FeatureSource = &SQLSource{}

// SQLSource reads features from the features table, in id order
type SQLSource struct {
	db   *sqlx.DB
	name string
}

func NewSQLSource(db *sqlx.DB, name string) *SQLSource {
	return &SQLSource{db, name}
}

func (s *SQLSource) Name() string {
	return s.name
}

func (s *SQLSource) Iterate(ctx context.Context, onFeature geoquizdal.OnRawFeatureFunc) errorsx.Error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errorsx.Wrap(err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryxContext(ctx, "SELECT id, name, geometry_wkb, min_lon, min_lat, max_lon, max_lat FROM features ORDER BY id")
	if err != nil {
		return errorsx.Wrap(err)
	}
	defer rows.Close()

	index := 0
	for rows.Next() {
		row := new(featureRow)
		err = rows.StructScan(row)
		if err != nil {
			return errorsx.Wrap(err, "index", index)
		}

		onFeatureErr := onFeature(row.toRawFeature(index))
		if onFeatureErr != nil {
			return onFeatureErr
		}
		index++
	}

	if rows.Err() != nil {
		return errorsx.Wrap(rows.Err())
	}

	return nil
}

func (s *SQLSource) Close() errorsx.Error {
	err := s.db.Close()
	if err != nil {
		return errorsx.Wrap(err)
	}
	return nil
}
