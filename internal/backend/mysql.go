package backend

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/jbweber/ailsa/internal/config"
	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/value"
)

// MySQL runs statements against a MySQL or MariaDB server.
type MySQL struct {
	s session
}

// NewMySQL returns an adapter for cfg. No connection is made until a
// statement is executed.
func NewMySQL(cfg config.Database) *MySQL {
	return &MySQL{s: session{
		engine: config.EngineMySQL,
		driver: "mysql",
		dsn:    MySQLDSN(cfg),
		kindOf: mysqlKind,
		code:   mysqlCode,
	}}
}

// MySQLDSN builds the driver connection string. A socket, when set, takes
// precedence over host and port.
func MySQLDSN(cfg config.Database) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Pass
	mc.DBName = cfg.DB
	if cfg.Socket != "" {
		mc.Net = "unix"
		mc.Addr = cfg.Socket
	} else {
		port := cfg.Port
		if port == 0 {
			port = config.DefaultMySQLPort
		}
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc.FormatDSN()
}

// Engine returns the configured engine name.
func (m *MySQL) Engine() string { return m.s.engine }

// ExecuteBasic runs a descriptor that takes no arguments against the MySQL server.
func (m *MySQL) ExecuteBasic(ctx context.Context, d *query.Descriptor) (*value.List, error) {
	return m.s.read(ctx, d, nil)
}

// ExecuteArgument binds args to d and returns the rows it selects.
func (m *MySQL) ExecuteArgument(ctx context.Context, d *query.Descriptor, args *value.List) (*value.List, error) {
	return m.s.read(ctx, d, args)
}

// ExecuteWrite runs an insert, update or delete and returns the affected row count.
func (m *MySQL) ExecuteWrite(ctx context.Context, d *query.Descriptor, args *value.List) (int64, error) {
	return m.s.write(ctx, d, args)
}

func mysqlKind(dbType string) (value.Kind, bool) {
	switch dbType {
	case "VARCHAR", "CHAR", "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT", "ENUM":
		return value.KindText, true
	case "BIGINT", "INT", "MEDIUMINT", "UNSIGNED BIGINT", "UNSIGNED INT":
		return value.KindBigInt, true
	case "SMALLINT", "TINYINT", "UNSIGNED SMALLINT", "UNSIGNED TINYINT":
		return value.KindSmallInt, true
	case "DOUBLE", "FLOAT", "DECIMAL":
		return value.KindFloat, true
	case "DATETIME", "TIMESTAMP", "DATE":
		return value.KindTimestamp, true
	default:
		return 0, false
	}
}

func mysqlCode(err error) int {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return int(me.Number)
	}
	return 0
}
