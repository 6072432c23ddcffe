package backend

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"modernc.org/sqlite"

	"github.com/jbweber/ailsa/internal/config"
	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/value"
)

// SQLite runs statements against a local SQLite database file.
type SQLite struct {
	s session
}

// NewSQLite returns an adapter for the file named in cfg.
func NewSQLite(cfg config.Database) *SQLite {
	return &SQLite{s: session{
		engine: config.EngineSQLite,
		driver: "sqlite",
		dsn:    SQLiteDSN(cfg.File),
		kindOf: sqliteKind,
		code:   sqliteCode,
	}}
}

// SQLiteDSN builds the driver connection string for file. Timestamps are
// stored in SQLite's own text format so other tools can read them.
func SQLiteDSN(file string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_time_format", "sqlite")
	u := url.URL{Scheme: "file", Opaque: escapePath(file), RawQuery: q.Encode()}
	return u.String()
}

// escapePath escapes each segment of a file path so that '?' and '#' in a
// name stay part of the path.
func escapePath(file string) string {
	segs := strings.Split(file, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

// Engine returns the configured engine name.
func (a *SQLite) Engine() string { return a.s.engine }

// ExecuteBasic runs a descriptor that takes no arguments against the SQLite file.
func (a *SQLite) ExecuteBasic(ctx context.Context, d *query.Descriptor) (*value.List, error) {
	return a.s.read(ctx, d, nil)
}

// ExecuteArgument binds args to d and returns the rows it selects.
func (a *SQLite) ExecuteArgument(ctx context.Context, d *query.Descriptor, args *value.List) (*value.List, error) {
	return a.s.read(ctx, d, args)
}

// ExecuteWrite runs an insert, update or delete and returns the affected row count.
func (a *SQLite) ExecuteWrite(ctx context.Context, d *query.Descriptor, args *value.List) (int64, error) {
	return a.s.write(ctx, d, args)
}

// sqliteKind follows SQLite's type affinity rules on the declared type.
func sqliteKind(dbType string) (value.Kind, bool) {
	switch dbType {
	case "TEXT", "VARCHAR", "CHAR", "CLOB":
		return value.KindText, true
	case "INTEGER", "INT", "BIGINT":
		return value.KindBigInt, true
	case "SMALLINT", "TINYINT":
		return value.KindSmallInt, true
	case "REAL", "DOUBLE", "FLOAT", "NUMERIC":
		return value.KindFloat, true
	case "TIMESTAMP", "DATETIME", "DATE":
		return value.KindTimestamp, true
	default:
		// Expressions have no declared type.
		return 0, false
	}
}

func sqliteCode(err error) int {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}
