package geoquizpostgresql

import (
	"github.com/jamesrr39/geoquiz-app/geoquizdal/geoquizsqldb"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const postgresqlSchema = `
CREATE TABLE IF NOT EXISTS features (
	id BIGINT PRIMARY KEY,
	name TEXT NOT NULL,
	geometry_wkb BYTEA NOT NULL,
	min_lon DOUBLE PRECISION NOT NULL,
	min_lat DOUBLE PRECISION NOT NULL,
	max_lon DOUBLE PRECISION NOT NULL,
	max_lat DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS features_bounds_idx ON features (min_lon, min_lat, max_lon, max_lat);
`

func open(connStr string) (*sqlx.DB, errorsx.Error) {
	db, err := sqlx.Open("postgres", "postgresql://"+connStr)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return db, nil
}

// NewFinalStorage creates the schema if needed and starts an import transaction
func NewFinalStorage(connStr string) (*geoquizsqldb.Importer, errorsx.Error) {
	db, err := open(connStr)
	if err != nil {
		return nil, err
	}

	_, execErr := db.Exec(postgresqlSchema)
	if execErr != nil {
		return nil, errorsx.Wrap(execErr)
	}

	return geoquizsqldb.NewImporter(db)
}

func NewSource(connStr string) (*geoquizsqldb.SQLSource, errorsx.Error) {
	db, err := open(connStr)
	if err != nil {
		return nil, err
	}

	pingErr := db.Ping()
	if pingErr != nil {
		db.Close()
		return nil, errorsx.Wrap(pingErr)
	}

	return geoquizsqldb.NewSQLSource(db, "postgresql database"), nil
}
