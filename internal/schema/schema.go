// Package schema defines the tables the query catalog reads and writes and
// renders them as DDL for each supported engine.
package schema

import (
	"fmt"
	"strings"

	"github.com/jbweber/ailsa/internal/value"
)

// Dialect selects engine-specific DDL.
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
	DialectDuckDB Dialect = "duckdb"
)

// Column is a non-key table column.
type Column struct {
	Name   string
	Kind   value.Kind
	Unique bool
	// Long marks text columns that may exceed an indexed VARCHAR.
	Long bool
}

// Table is a table with a surrogate integer primary key.
type Table struct {
	Name    string
	Key     string
	Columns []Column
}

func text(name string) Column       { return Column{Name: name, Kind: value.KindText} }
func uniqueText(name string) Column { return Column{Name: name, Kind: value.KindText, Unique: true} }
func longText(name string) Column   { return Column{Name: name, Kind: value.KindText, Long: true} }
func bigint(name string) Column     { return Column{Name: name, Kind: value.KindBigInt} }
func smallint(name string) Column   { return Column{Name: name, Kind: value.KindSmallInt} }
func float(name string) Column      { return Column{Name: name, Kind: value.KindFloat} }
func timestamp(name string) Column  { return Column{Name: name, Kind: value.KindTimestamp} }

// Tables lists every table in creation order.
var Tables = []Table{
	{
		Name: "customer",
		Key:  "cust_id",
		Columns: []Column{
			text("name"), text("address"), text("city"), text("county"), text("postcode"),
			uniqueText("coid"), timestamp("ctime"), timestamp("mtime"),
		},
	},
	{
		Name: "server",
		Key:  "server_id",
		Columns: []Column{
			uniqueText("name"), text("make"), text("model"), text("vendor"), text("uuid"),
			bigint("cust_id"), smallint("vcpus"), float("memory_gib"),
			timestamp("ctime"), timestamp("mtime"),
		},
	},
	{
		Name: "zones",
		Key:  "id",
		Columns: []Column{
			uniqueText("name"), text("pri_dns"), text("sec_dns"), bigint("serial"),
			bigint("refresh"), bigint("retry"), bigint("expire"), bigint("ttl"),
			text("valid"), timestamp("mtime"),
		},
	},
	{
		Name: "records",
		Key:  "id",
		Columns: []Column{
			bigint("zone"), text("host"), text("type"), text("protocol"), text("service"),
			smallint("pri"), text("destination"), text("valid"), timestamp("mtime"),
		},
	},
	{
		Name: "build_domain",
		Key:  "bd_id",
		Columns: []Column{
			uniqueText("domain"), bigint("start_ip"), bigint("end_ip"), bigint("netmask"),
			bigint("gateway"), bigint("ns"), smallint("config_ntp"), text("ntp_server"),
			timestamp("mtime"),
		},
	},
	{
		Name: "build_ip",
		Key:  "ip_id",
		Columns: []Column{
			bigint("ip"), text("hostname"), text("domainname"), bigint("bd_id"),
			bigint("server_id"), timestamp("mtime"),
		},
	},
	{
		Name: "build_os",
		Key:  "os_id",
		Columns: []Column{
			text("os"), text("os_version"), text("alias"), text("arch"), timestamp("mtime"),
		},
	},
	{
		Name: "varient",
		Key:  "varient_id",
		Columns: []Column{
			uniqueText("varient"), uniqueText("valias"), timestamp("mtime"),
		},
	},
	{
		Name: "build",
		Key:  "build_id",
		Columns: []Column{
			text("mac_addr"), text("net_int"), bigint("varient_id"), bigint("os_id"),
			bigint("ip_id"), bigint("server_id"), timestamp("mtime"),
		},
	},
	{
		Name: "build_sshkey",
		Key:  "key_id",
		Columns: []Column{
			bigint("server_id"), text("key_type"), longText("pubkey"), text("comment"),
			timestamp("mtime"),
		},
	},
}

// DDL returns the CREATE statements for every table in d.
func DDL(d Dialect) ([]string, error) {
	var stmts []string
	for _, t := range Tables {
		s, err := t.Create(d)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s...)
	}
	return stmts, nil
}

// Create returns the statements creating t in d. DuckDB needs a sequence
// for the key, so it yields two statements.
func (t Table) Create(d Dialect) ([]string, error) {
	var (
		pre []string
		key string
	)
	switch d {
	case DialectMySQL:
		key = fmt.Sprintf("%s BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY", t.Key)
	case DialectSQLite:
		key = fmt.Sprintf("%s INTEGER PRIMARY KEY AUTOINCREMENT", t.Key)
	case DialectDuckDB:
		seq := "seq_" + t.Name
		pre = append(pre, fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s START 1", seq))
		key = fmt.Sprintf("%s BIGINT PRIMARY KEY DEFAULT nextval('%s')", t.Key, seq)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", d)
	}

	cols := []string{key}
	for _, c := range t.Columns {
		typ, err := columnType(d, c)
		if err != nil {
			return nil, fmt.Errorf("table %s column %s: %w", t.Name, c.Name, err)
		}
		def := c.Name + " " + typ
		if c.Unique {
			def += " UNIQUE"
		}
		cols = append(cols, def)
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", t.Name, strings.Join(cols, ",\n  "))
	if d == DialectMySQL {
		stmt += " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
	}
	return append(pre, stmt), nil
}

func columnType(d Dialect, c Column) (string, error) {
	switch c.Kind {
	case value.KindText:
		switch {
		case d == DialectMySQL && c.Long:
			return "TEXT", nil
		case d == DialectMySQL:
			return "VARCHAR(255)", nil
		case d == DialectSQLite:
			return "TEXT", nil
		default:
			return "VARCHAR", nil
		}
	case value.KindBigInt:
		if d == DialectSQLite {
			return "INTEGER", nil
		}
		return "BIGINT", nil
	case value.KindSmallInt:
		return "SMALLINT", nil
	case value.KindFloat:
		if d == DialectSQLite {
			return "REAL", nil
		}
		return "DOUBLE", nil
	case value.KindTimestamp:
		switch d {
		case DialectMySQL:
			return "DATETIME", nil
		default:
			return "TIMESTAMP", nil
		}
	default:
		return "", fmt.Errorf("unsupported kind %v", c.Kind)
	}
}
