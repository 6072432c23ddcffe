package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

type testServer struct {
	Name  string `json:"name" yaml:"name"`
	VCPUs int    `json:"vcpus" yaml:"vcpus"`
	Coid  string `json:"coid,omitempty" yaml:"coid,omitempty"`
}

func testListing(servers ...testServer) Listing {
	l := Listing{Kind: "servers", Headers: []string{"NAME", "VCPUS", "COID"}, Items: servers}
	for _, s := range servers {
		l.Rows = append(l.Rows, []string{s.Name, strings.Repeat("1", s.VCPUs), s.Coid})
	}
	return l
}

func TestTableFormatter_Format(t *testing.T) {
	tests := []struct {
		name       string
		listing    Listing
		noHeaders  bool
		wantLines  int
		wantHeader bool
	}{
		{
			name:      "empty list",
			listing:   testListing(),
			wantLines: 0,
		},
		{
			name:       "single row",
			listing:    testListing(testServer{Name: "web01", VCPUs: 2, Coid: "ACME"}),
			wantLines:  2,
			wantHeader: true,
		},
		{
			name: "multiple rows",
			listing: testListing(
				testServer{Name: "web01", VCPUs: 2, Coid: "ACME"},
				testServer{Name: "web02", VCPUs: 4},
				testServer{Name: "db01", VCPUs: 8, Coid: "ACME"},
			),
			wantLines:  4,
			wantHeader: true,
		},
		{
			name:       "no headers",
			listing:    testListing(testServer{Name: "web01", VCPUs: 2}),
			noHeaders:  true,
			wantLines:  1,
			wantHeader: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &TableFormatter{NoHeaders: tt.noHeaders}
			output, err := formatter.Format(tt.listing)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			if tt.wantLines == 0 {
				if output != "No servers found\n" {
					t.Errorf("expected 'No servers found' message, got: %q", output)
				}
				return
			}

			hasHeader := strings.Contains(output, "NAME") && strings.Contains(output, "VCPUS")
			if tt.wantHeader != hasHeader {
				t.Errorf("header present = %v, want %v: %s", hasHeader, tt.wantHeader, output)
			}

			lines := strings.Split(strings.TrimSpace(output), "\n")
			if len(lines) != tt.wantLines {
				t.Errorf("expected %d lines, got %d: %s", tt.wantLines, len(lines), output)
			}
		})
	}
}

func TestTableFormatter_EmptyCells(t *testing.T) {
	output, err := (&TableFormatter{NoHeaders: true}).Format(testListing(testServer{Name: "web02", VCPUs: 1}))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if fields := strings.Fields(output); len(fields) != 3 || fields[2] != "-" {
		t.Errorf("fields = %q, want empty coid as -", fields)
	}
}

func TestTableFormatter_Alignment(t *testing.T) {
	output, err := (&TableFormatter{}).Format(testListing(
		testServer{Name: "a", VCPUs: 1},
		testServer{Name: "longer-name", VCPUs: 1},
	))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	col := strings.Index(lines[0], "VCPUS")
	for _, line := range lines[1:] {
		if line[col] != '1' {
			t.Errorf("column not aligned at %d: %q", col, line)
		}
	}
}

func TestTableFormatter_RaggedRow(t *testing.T) {
	l := Listing{Kind: "servers", Headers: []string{"NAME", "VCPUS"}, Rows: [][]string{{"web01"}}}
	if _, err := (&TableFormatter{}).Format(l); err == nil {
		t.Error("expected error for short row, got nil")
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	output, err := (&JSONFormatter{}).Format(testListing(
		testServer{Name: "web01", VCPUs: 2, Coid: "ACME"},
		testServer{Name: "web02", VCPUs: 4},
	))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var got []testServer
	if err := json.Unmarshal([]byte(output), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, output)
	}
	if len(got) != 2 || got[0].Name != "web01" || got[1].VCPUs != 4 {
		t.Errorf("decoded = %+v", got)
	}
	if !strings.Contains(output, "\n  {") {
		t.Errorf("expected indented output, got: %s", output)
	}
}

func TestJSONFormatter_Empty(t *testing.T) {
	output, err := (&JSONFormatter{}).Format(Listing{Kind: "servers"})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.TrimSpace(output) != "[]" {
		t.Errorf("expected [], got: %q", output)
	}
}

func TestYAMLFormatter_Format(t *testing.T) {
	output, err := (&YAMLFormatter{}).Format(testListing(testServer{Name: "web01", VCPUs: 2, Coid: "ACME"}))
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	for _, field := range []string{"- name: web01", "vcpus: 2", "coid: ACME"} {
		if !strings.Contains(output, field) {
			t.Errorf("output missing %q:\n%s", field, output)
		}
	}

	var got []testServer
	if err := yaml.Unmarshal([]byte(output), &got); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if len(got) != 1 || got[0].Coid != "ACME" {
		t.Errorf("decoded = %+v", got)
	}
}

func TestYAMLFormatter_Empty(t *testing.T) {
	output, err := (&YAMLFormatter{}).Format(Listing{Kind: "servers"})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.TrimSpace(output) != "[]" {
		t.Errorf("expected [], got: %q", output)
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format  Format
		want    string
		wantErr bool
	}{
		{format: FormatTable, want: "*output.TableFormatter"},
		{format: "", want: "*output.TableFormatter"},
		{format: FormatYAML, want: "*output.YAMLFormatter"},
		{format: FormatJSON, want: "*output.JSONFormatter"},
		{format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			f, err := NewFormatter(Options{Format: tt.format})
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFormatter() error = %v", err)
			}
			if got := typeName(f); got != tt.want {
				t.Errorf("NewFormatter() = %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(f Formatter) string {
	switch f.(type) {
	case *TableFormatter:
		return "*output.TableFormatter"
	case *YAMLFormatter:
		return "*output.YAMLFormatter"
	case *JSONFormatter:
		return "*output.JSONFormatter"
	}
	return "unknown"
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"table", "yaml", "json"} {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) error = %v", f, err)
		}
	}
	for _, f := range []string{"", "xml", "YAML"} {
		if err := ValidateFormat(f); err == nil {
			t.Errorf("ValidateFormat(%q) expected error", f)
		}
	}
}

func TestAge(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{ago: 5 * time.Second, want: "5s"},
		{ago: 2 * time.Minute, want: "2m"},
		{ago: 3 * time.Hour, want: "3h"},
		{ago: 4 * 24 * time.Hour, want: "4d"},
		{ago: 14 * 24 * time.Hour, want: "2w"},
		{ago: 60 * 24 * time.Hour, want: "60d"},
		{ago: 400 * 24 * time.Hour, want: "1y"},
		{ago: -time.Minute, want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Age(now.Add(-tt.ago), now); got != tt.want {
				t.Errorf("Age(-%v) = %q, want %q", tt.ago, got, tt.want)
			}
		})
	}

	if got := Age(time.Time{}, now); got != "-" {
		t.Errorf("Age(zero) = %q, want -", got)
	}
}
