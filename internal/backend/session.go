package backend

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"

	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/value"
)

// Adapter executes catalogued statements against one engine.
type Adapter interface {
	// Engine returns the engine identifier, e.g. "mysql".
	Engine() string

	// ExecuteBasic runs a parameterless read.
	ExecuteBasic(ctx context.Context, d *query.Descriptor) (*value.List, error)

	// ExecuteArgument runs a parameterized read.
	ExecuteArgument(ctx context.Context, d *query.Descriptor, args *value.List) (*value.List, error)

	// ExecuteWrite runs an insert, update or delete and returns the number
	// of affected rows.
	ExecuteWrite(ctx context.Context, d *query.Descriptor, args *value.List) (int64, error)
}

// openFunc matches sql.Open and is replaced in tests.
type openFunc func(driverName, dataSourceName string) (*sql.DB, error)

// session holds the engine specifics for one adapter.
type session struct {
	engine string
	driver string
	dsn    string
	open   openFunc

	// kindOf maps engine column type names to value kinds. It is used only
	// when a descriptor declares no result kinds.
	kindOf func(dbType string) (value.Kind, bool)

	// code extracts the engine's native error number, or 0.
	code func(err error) int
}

func (s *session) fail(code query.Code, d *query.Descriptor, err error) error {
	qe := &query.Error{
		Code:       code,
		Op:         d.Name,
		Engine:     s.engine,
		EngineCode: s.code(err),
		Err:        err,
	}
	log.Printf("%s: %s failed: %v", s.engine, d.Name, err)
	return qe
}

// reject logs and returns a local validation error.
func (s *session) reject(err error) error {
	var qe *query.Error
	if errors.As(err, &qe) {
		qe.Engine = s.engine
	}
	log.Printf("%s: %v", s.engine, err)
	return err
}

// connect opens a single-connection handle and verifies it is reachable.
func (s *session) connect(ctx context.Context, d *query.Descriptor) (*sql.DB, error) {
	open := s.open
	if open == nil {
		open = sql.Open
	}
	db, err := open(s.driver, s.dsn)
	if err != nil {
		return nil, s.fail(query.CodeResource, d, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, s.fail(query.CodeResource, d, err)
	}
	return db, nil
}

func closeDB(engine string, db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Printf("Warning: %s: failed to close connection: %v", engine, err)
	}
}

// read runs a query descriptor and materializes its rows.
func (s *session) read(ctx context.Context, d *query.Descriptor, args *value.List) (*value.List, error) {
	if d == nil {
		return nil, s.reject(query.Errorf(query.CodeArgument, "execute", "descriptor is nil"))
	}
	if err := d.CheckArgs(args); err != nil {
		return nil, s.reject(err)
	}
	bound, err := bind(d, args)
	if err != nil {
		return nil, s.reject(err)
	}

	db, err := s.connect(ctx, d)
	if err != nil {
		return nil, err
	}
	defer closeDB(s.engine, db)

	stmt, err := db.PrepareContext(ctx, d.SQL)
	if err != nil {
		return nil, s.fail(query.CodePrepare, d, err)
	}
	defer func() { _ = stmt.Close() }()

	rows, err := stmt.QueryContext(ctx, bound...)
	if err != nil {
		return nil, s.fail(execCode(err), d, err)
	}
	defer func() { _ = rows.Close() }()

	result, err := materialize(rows, d, s.kindOf)
	if err != nil {
		var qe *query.Error
		if errors.As(err, &qe) && qe.Err != nil {
			return nil, s.fail(qe.Code, d, qe.Err)
		}
		return nil, s.fail(query.CodeFetch, d, err)
	}
	return result, nil
}

// write runs a write descriptor and returns the affected row count.
func (s *session) write(ctx context.Context, d *query.Descriptor, args *value.List) (int64, error) {
	if d == nil {
		return 0, s.reject(query.Errorf(query.CodeArgument, "execute", "descriptor is nil"))
	}
	if err := d.CheckArgs(args); err != nil {
		return 0, s.reject(err)
	}
	bound, err := bind(d, args)
	if err != nil {
		return 0, s.reject(err)
	}

	db, err := s.connect(ctx, d)
	if err != nil {
		return 0, err
	}
	defer closeDB(s.engine, db)

	stmt, err := db.PrepareContext(ctx, d.SQL)
	if err != nil {
		return 0, s.fail(query.CodePrepare, d, err)
	}
	defer func() { _ = stmt.Close() }()

	res, err := stmt.ExecContext(ctx, bound...)
	if err != nil {
		return 0, s.fail(execCode(err), d, err)
	}

	return affectedRows(s.engine, d, res), nil
}

// affectedRows reads the row count of a write. Some statements (DDL) do not
// report one; that is logged and counts as zero.
func affectedRows(engine string, d *query.Descriptor, res sql.Result) int64 {
	affected, err := res.RowsAffected()
	if err != nil {
		log.Printf("Warning: %s: %s: failed to read affected rows: %v", engine, d.Name, err)
		return 0
	}
	return affected
}

// execCode separates argument conversion failures raised by database/sql
// before the statement reaches the engine from engine execution failures.
func execCode(err error) query.Code {
	msg := err.Error()
	if strings.HasPrefix(msg, "sql: converting argument") || strings.HasPrefix(msg, "sql: expected ") {
		return query.CodeBind
	}
	return query.CodeExecute
}
