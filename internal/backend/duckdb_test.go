package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jbweber/ailsa/internal/config"
	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/schema"
	"github.com/jbweber/ailsa/internal/value"
)

func TestDuckDBKind(t *testing.T) {
	tests := []struct {
		dbType string
		want   value.Kind
		ok     bool
	}{
		{"VARCHAR", value.KindText, true},
		{"BIGINT", value.KindBigInt, true},
		{"SMALLINT", value.KindSmallInt, true},
		{"DOUBLE", value.KindFloat, true},
		{"TIMESTAMP", value.KindTimestamp, true},
		{"HUGEINT", 0, false},
		{"LIST", 0, false},
	}
	for _, tt := range tests {
		got, ok := duckdbKind(tt.dbType)
		if got != tt.want || ok != tt.ok {
			t.Errorf("duckdbKind(%q) = %v, %v; want %v, %v", tt.dbType, got, ok, tt.want, tt.ok)
		}
	}
}

// TestDuckDB_RoundTrip runs against the embedded engine; no server is needed.
func TestDuckDB_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded DuckDB in short mode")
	}

	a := NewDuckDB(config.Database{Engine: config.EngineDuckDB, File: filepath.Join(t.TempDir(), "ailsa.duckdb")})
	createSchema(t, a, schema.DialectDuckDB)

	now := value.Now()
	mustWrite(t, a, query.MustLookup(query.Insert, query.InsertZone),
		value.Text("example.com"), value.Text("ns1.example.com"), value.Text("ns2.example.com"),
		value.BigInt(2024010101), value.BigInt(604800), value.BigInt(86400), value.BigInt(2419200),
		value.BigInt(604800), value.Text("yes"), now)

	d := query.MustLookup(query.Argument, query.ZoneIDOnName)
	got, err := a.ExecuteArgument(context.Background(), d, value.NewList(value.Text("example.com")))
	if err != nil {
		t.Fatalf("ExecuteArgument() error = %v", err)
	}
	if got.Len() != 1 || !value.Equal(got.Head().Value, value.BigInt(1)) {
		t.Errorf("Expected zone id 1, got %v", got.Values())
	}
}
