// Package store routes catalogued statements to the adapter selected by the
// configured engine. It holds no query logic of its own: every call site
// goes through here so that none of them depend on a particular engine.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jbweber/ailsa/internal/backend"
	"github.com/jbweber/ailsa/internal/config"
	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/schema"
	"github.com/jbweber/ailsa/internal/value"
)

// Errors reported by the services built on the store.
var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

// Engine identifies a supported database engine.
type Engine int

const (
	EngineMySQL Engine = iota + 1
	EngineSQLite
	EngineDuckDB
)

func (e Engine) String() string {
	switch e {
	case EngineMySQL:
		return config.EngineMySQL
	case EngineSQLite:
		return config.EngineSQLite
	case EngineDuckDB:
		return config.EngineDuckDB
	default:
		return fmt.Sprintf("engine(%d)", int(e))
	}
}

// Dialect returns the DDL dialect for the engine.
func (e Engine) Dialect() schema.Dialect {
	switch e {
	case EngineMySQL:
		return schema.DialectMySQL
	case EngineDuckDB:
		return schema.DialectDuckDB
	default:
		return schema.DialectSQLite
	}
}

// ParseEngine converts a configured engine identifier. "none" and the empty
// string are a configuration error; anything unrecognised is unsupported.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case config.EngineMySQL:
		return EngineMySQL, nil
	case config.EngineSQLite:
		return EngineSQLite, nil
	case config.EngineDuckDB:
		return EngineDuckDB, nil
	case "", config.EngineNone:
		return 0, query.Errorf(query.CodeNoEngine, "dispatch", "no database engine configured")
	default:
		return 0, query.Errorf(query.CodeUnsupportedEngine, "dispatch", "unsupported database engine %q", s)
	}
}

// DB is a handle on the configured engine. It opens no connection itself;
// each call opens and closes its own.
type DB struct {
	engine  Engine
	adapter backend.Adapter
}

// Open selects the adapter for cfg.Engine. No connection is attempted.
func Open(cfg config.Database) (*DB, error) {
	engine, err := ParseEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}

	var a backend.Adapter
	switch engine {
	case EngineMySQL:
		a = backend.NewMySQL(cfg)
	case EngineSQLite:
		a = backend.NewSQLite(cfg)
	case EngineDuckDB:
		a = backend.NewDuckDB(cfg)
	}
	return &DB{engine: engine, adapter: a}, nil
}

// Engine returns the selected engine.
func (db *DB) Engine() Engine {
	return db.engine
}

// Execute runs descriptor id of family f. Reads return the flattened result
// list; writes return an empty list.
func (db *DB) Execute(ctx context.Context, f query.Family, id query.ID, args *value.List) (*value.List, error) {
	d, err := query.Lookup(f, id)
	if err != nil {
		return nil, err
	}

	switch {
	case f.IsWrite():
		if _, err := db.adapter.ExecuteWrite(ctx, d, args); err != nil {
			return nil, err
		}
		return value.NewList(), nil
	case f == query.Basic && (args == nil || args.Len() == 0):
		return db.adapter.ExecuteBasic(ctx, d)
	default:
		return db.adapter.ExecuteArgument(ctx, d, args)
	}
}

// Basic runs a parameterless read.
func (db *DB) Basic(ctx context.Context, id query.ID) (*value.List, error) {
	return db.Execute(ctx, query.Basic, id, nil)
}

// Argument runs a parameterized read.
func (db *DB) Argument(ctx context.Context, id query.ID, args ...value.Value) (*value.List, error) {
	return db.Execute(ctx, query.Argument, id, value.NewList(args...))
}

// Write runs an insert, update or delete and returns the affected row count.
func (db *DB) Write(ctx context.Context, f query.Family, id query.ID, args ...value.Value) (int64, error) {
	if !f.IsWrite() {
		return 0, query.Errorf(query.CodeArgument, "write", "%s is not a write family", f)
	}
	d, err := query.Lookup(f, id)
	if err != nil {
		return 0, err
	}
	return db.adapter.ExecuteWrite(ctx, d, value.NewList(args...))
}

// Init creates any missing tables.
func (db *DB) Init(ctx context.Context) error {
	stmts, err := schema.DDL(db.engine.Dialect())
	if err != nil {
		return err
	}
	for i, s := range stmts {
		d := &query.Descriptor{Name: fmt.Sprintf("DDL_%d", i), SQL: s}
		if _, err := db.adapter.ExecuteWrite(ctx, d, nil); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

var ping = query.Descriptor{Name: "PING", SQL: "SELECT 1", Results: []value.Kind{value.KindBigInt}}

// Ping opens a connection and runs a trivial query.
func (db *DB) Ping(ctx context.Context) error {
	_, err := db.adapter.ExecuteBasic(ctx, &ping)
	return err
}

// Execute opens the engine named in cfg and runs one descriptor.
func Execute(ctx context.Context, cfg config.Database, f query.Family, id query.ID, args *value.List) (*value.List, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	return db.Execute(ctx, f, id, args)
}

// LookupID runs a single-column id query and returns the id, or ErrNotFound
// when there is no row.
func (db *DB) LookupID(ctx context.Context, id query.ID, args ...value.Value) (int64, error) {
	res, err := db.Argument(ctx, id, args...)
	if err != nil {
		return 0, err
	}
	v, ok := value.First(res)
	if !ok {
		return 0, ErrNotFound
	}
	return value.AsInt(v)
}
