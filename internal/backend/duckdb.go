package backend

import (
	"context"
	"errors"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/jbweber/ailsa/internal/config"
	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/value"
)

// DuckDB runs statements against an embedded DuckDB database file. It is
// mainly used for local reporting over a copy of the inventory.
type DuckDB struct {
	s session
}

// NewDuckDB returns an adapter for the file named in cfg. An empty file
// opens an in-memory database that is discarded after each call.
func NewDuckDB(cfg config.Database) *DuckDB {
	return &DuckDB{s: session{
		engine: config.EngineDuckDB,
		driver: "duckdb",
		dsn:    cfg.File,
		kindOf: duckdbKind,
		code:   duckdbCode,
	}}
}

// Engine returns the configured engine name.
func (a *DuckDB) Engine() string { return a.s.engine }

// ExecuteBasic runs a descriptor that takes no arguments against the DuckDB file.
func (a *DuckDB) ExecuteBasic(ctx context.Context, d *query.Descriptor) (*value.List, error) {
	return a.s.read(ctx, d, nil)
}

// ExecuteArgument binds args to d and returns the rows it selects.
func (a *DuckDB) ExecuteArgument(ctx context.Context, d *query.Descriptor, args *value.List) (*value.List, error) {
	return a.s.read(ctx, d, args)
}

// ExecuteWrite runs an insert, update or delete and returns the affected row count.
func (a *DuckDB) ExecuteWrite(ctx context.Context, d *query.Descriptor, args *value.List) (int64, error) {
	return a.s.write(ctx, d, args)
}

func duckdbKind(dbType string) (value.Kind, bool) {
	switch dbType {
	case "VARCHAR", "TEXT":
		return value.KindText, true
	case "BIGINT", "INTEGER", "UBIGINT", "UINTEGER":
		return value.KindBigInt, true
	case "SMALLINT", "TINYINT", "USMALLINT", "UTINYINT":
		return value.KindSmallInt, true
	case "DOUBLE", "FLOAT":
		return value.KindFloat, true
	case "TIMESTAMP", "TIMESTAMP_S", "TIMESTAMP_MS", "TIMESTAMPTZ", "DATE":
		return value.KindTimestamp, true
	default:
		return 0, false
	}
}

func duckdbCode(err error) int {
	var de *duckdb.Error
	if errors.As(err, &de) {
		return int(de.Type)
	}
	return 0
}
