package db

import "database/sql"

// DBProvider is implemented by SQL clients that hand out a connected sql.DB handle.
type DBProvider interface {
	DB() *sql.DB
	Dialect() Dialect
}
