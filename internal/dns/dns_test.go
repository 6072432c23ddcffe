package dns

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jbweber/ailsa/internal/config"
	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/store"
	"github.com/jbweber/ailsa/internal/value"
)

var testDefaults = config.DNSConfig{
	Primary:   "ns1.example.com",
	Secondary: "ns2.example.com",
	Refresh:   config.DefaultRefresh,
	Retry:     config.DefaultRetry,
	Expire:    config.DefaultExpire,
	TTL:       config.DefaultTTL,
}

// newTestService returns a service over a fresh SQLite store whose clock is
// controlled by the returned pointer.
func newTestService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	db, err := store.Open(config.Database{Engine: config.EngineSQLite, File: filepath.Join(t.TempDir(), "ailsa.db")})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	if err := db.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	clock := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	svc := New(db, testDefaults)
	svc.now = func() value.Timestamp { return value.TimestampOf(clock) }
	return svc, &clock
}

func TestNextSerial(t *testing.T) {
	day := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)

	tests := []struct {
		name    string
		current int64
		want    int64
	}{
		{name: "new zone", current: 0, want: 2024030901},
		{name: "earlier day", current: 2024030805, want: 2024030901},
		{name: "same day", current: 2024030901, want: 2024030902},
		{name: "ahead of today", current: 2024031000, want: 2024031001},
		{name: "legacy counter", current: 17, want: 2024030901},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextSerial(tt.current, day); got != tt.want {
				t.Errorf("NextSerial(%d) = %d, want %d", tt.current, got, tt.want)
			}
		})
	}
}

func TestNextSerial_UsesUTCDate(t *testing.T) {
	// 01:00 on the 10th in UTC+2 is still the 9th in UTC.
	local := time.Date(2024, 3, 10, 1, 0, 0, 0, time.FixedZone("EET", 2*3600))
	if got := NextSerial(0, local); got != 2024030901 {
		t.Errorf("NextSerial() = %d, want 2024030901", got)
	}
}

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		r       Record
		wantErr string
	}{
		{name: "A", r: Record{Host: "www", Type: "a", Destination: "192.0.2.10"}},
		{name: "AAAA", r: Record{Host: "www", Type: "AAAA", Destination: "2001:db8::10"}},
		{name: "apex MX", r: Record{Type: "MX", Priority: 10, Destination: "mail.example.com."}},
		{name: "CNAME", r: Record{Host: "ftp", Type: "CNAME", Destination: "www.example.com"}},
		{name: "TXT keeps case", r: Record{Host: "@", Type: "TXT", Destination: "v=spf1 -ALL"}},
		{name: "SRV", r: Record{Host: "_sip._tcp", Type: "SRV", Protocol: "tcp", Service: "sip", Priority: 5, Destination: "sip.example.com"}},
		{name: "wildcard", r: Record{Host: "*.dev", Type: "A", Destination: "192.0.2.1"}},
		{name: "unknown type", r: Record{Host: "www", Type: "HINFO", Destination: "x"}, wantErr: "unsupported record type"},
		{name: "A with v6", r: Record{Host: "www", Type: "A", Destination: "2001:db8::1"}, wantErr: "not an IPv4"},
		{name: "AAAA with v4", r: Record{Host: "www", Type: "AAAA", Destination: "192.0.2.1"}, wantErr: "not an IPv6"},
		{name: "bad address", r: Record{Host: "www", Type: "A", Destination: "300.1.1.1"}, wantErr: "invalid address"},
		{name: "MX without priority", r: Record{Type: "MX", Destination: "mail.example.com"}, wantErr: "priority is required"},
		{name: "SRV without protocol", r: Record{Host: "_sip", Type: "SRV", Service: "sip", Destination: "sip.example.com"}, wantErr: "protocol"},
		{name: "bad host", r: Record{Host: "bad host", Type: "A", Destination: "192.0.2.1"}, wantErr: "invalid host"},
		{name: "missing destination", r: Record{Host: "www", Type: "CNAME"}, wantErr: "destination is required"},
		{name: "bad destination", r: Record{Host: "www", Type: "CNAME", Destination: "not a host"}, wantErr: "invalid destination"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.r
			r.Normalize()
			err := r.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestRecord_NormalizeTXT(t *testing.T) {
	r := Record{Type: "txt", Destination: " Hello World "}
	r.Normalize()
	if r.Host != "@" || r.Type != TypeTXT || r.Destination != "Hello World" {
		t.Errorf("Normalize() = %+v", r)
	}
}

func TestZone_NormalizeDefaults(t *testing.T) {
	z := Zone{Name: "Example.COM.", Retry: 60}
	z.Normalize(testDefaults)
	if z.Name != "example.com" {
		t.Errorf("Name = %q", z.Name)
	}
	if z.Primary != testDefaults.Primary || z.Secondary != testDefaults.Secondary {
		t.Errorf("name servers = %q, %q", z.Primary, z.Secondary)
	}
	if z.Retry != 60 || z.Refresh != config.DefaultRefresh || z.TTL != config.DefaultTTL {
		t.Errorf("timers = %+v", z)
	}
	if err := z.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	bad := Zone{Name: "localhost"}
	bad.Normalize(testDefaults)
	if err := bad.Validate(); err == nil {
		t.Error("Expected single-label zone to be rejected")
	}
}

func TestZoneLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestService(t)

	if err := svc.AddZone(ctx, Zone{Name: "example.com"}); err != nil {
		t.Fatalf("AddZone() error = %v", err)
	}
	if err := svc.AddZone(ctx, Zone{Name: "EXAMPLE.com."}); !errors.Is(err, store.ErrExists) {
		t.Errorf("duplicate AddZone() error = %v, want ErrExists", err)
	}

	z, err := svc.Zone(ctx, "example.com")
	if err != nil {
		t.Fatalf("Zone() error = %v", err)
	}
	if z.Serial != 2024030901 || z.Valid != ValidUnknown || z.Primary != "ns1.example.com" {
		t.Errorf("Zone() = %+v", z)
	}

	records := []Record{
		{Host: "www", Type: "A", Destination: "192.0.2.10"},
		{Type: "MX", Priority: 10, Destination: "mail.example.com"},
		{Host: "ftp", Type: "CNAME", Destination: "www.example.com"},
	}
	for _, r := range records {
		if err := svc.AddRecord(ctx, "example.com", r); err != nil {
			t.Fatalf("AddRecord(%+v) error = %v", r, err)
		}
	}
	if err := svc.AddRecord(ctx, "example.com", records[0]); !errors.Is(err, store.ErrExists) {
		t.Errorf("duplicate AddRecord() error = %v, want ErrExists", err)
	}
	if err := svc.AddRecord(ctx, "example.org", records[0]); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("AddRecord() to unknown zone error = %v, want ErrNotFound", err)
	}

	z, _ = svc.Zone(ctx, "example.com")
	if z.Serial != 2024030904 {
		t.Errorf("Serial after 3 records = %d, want 2024030904", z.Serial)
	}

	got, err := svc.Records(ctx, "example.com")
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Records() returned %d, want 3", len(got))
	}
	// Ordered by type: A, CNAME, MX.
	if got[0].Type != TypeA || got[1].Type != TypeCNAME || got[2].Type != TypeMX || got[2].Priority != 10 {
		t.Errorf("Records() = %+v", got)
	}

	*clock = clock.AddDate(0, 0, 1)
	if err := svc.RemoveRecord(ctx, "example.com", got[1].ID); err != nil {
		t.Fatalf("RemoveRecord() error = %v", err)
	}
	if err := svc.RemoveRecord(ctx, "example.com", got[1].ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second RemoveRecord() error = %v, want ErrNotFound", err)
	}
	z, _ = svc.Zone(ctx, "example.com")
	if z.Serial != 2024031001 {
		t.Errorf("Serial on the next day = %d, want 2024031001", z.Serial)
	}

	if err := svc.SetValid(ctx, "example.com", true); err != nil {
		t.Fatalf("SetValid() error = %v", err)
	}
	if err := svc.SetValid(ctx, "example.org", true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("SetValid() on unknown zone error = %v", err)
	}
	zones, err := svc.Zones(ctx)
	if err != nil || len(zones) != 1 || zones[0].Valid != ValidYes {
		t.Errorf("Zones() = %+v, %v", zones, err)
	}

	if err := svc.RemoveZone(ctx, "example.com"); err != nil {
		t.Fatalf("RemoveZone() error = %v", err)
	}
	if _, err := svc.Zone(ctx, "example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Zone() after remove error = %v", err)
	}
	if got, _ := svc.Records(ctx, "example.com"); len(got) != 0 {
		t.Errorf("Expected records removed with zone, got %+v", got)
	}
}

func TestAddRecord_StoreErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("zone lookup failure", func(t *testing.T) {
		m := newMockExecutor()
		m.lookupIDFunc = func(query.ID, []value.Value) (int64, error) {
			return 0, query.Errorf(query.CodeResource, "ZONE_ID_ON_NAME", "connection refused")
		}
		svc := newWithDeps(m, testDefaults)

		err := svc.AddRecord(ctx, "example.com", Record{Host: "www", Type: "A", Destination: "192.0.2.1"})
		if !errors.Is(err, query.ErrResource) {
			t.Errorf("AddRecord() error = %v, want resource error", err)
		}
		if len(m.writeCalls) != 0 {
			t.Errorf("Expected no writes, got %v", m.writeCalls)
		}
	})

	t.Run("invalid record never reaches the store", func(t *testing.T) {
		m := newMockExecutor()
		svc := newWithDeps(m, testDefaults)

		if err := svc.AddRecord(ctx, "example.com", Record{Host: "www", Type: "A", Destination: "nope"}); err == nil {
			t.Fatal("Expected validation error")
		}
		if len(m.lookupIDCalls) != 0 || len(m.writeCalls) != 0 {
			t.Errorf("Expected no store calls, got lookups %v writes %v", m.lookupIDCalls, m.writeCalls)
		}
	})

	t.Run("insert then serial update", func(t *testing.T) {
		m := newMockExecutor()
		m.lookupIDFunc = func(id query.ID, _ []value.Value) (int64, error) {
			if id == query.ZoneIDOnName {
				return 7, nil
			}
			return 0, store.ErrNotFound
		}
		m.argumentFunc = func(query.ID, []value.Value) (*value.List, error) {
			return value.NewList(
				value.Text("example.com"), value.Text("ns1"), value.Text("ns2"), value.BigInt(2024030901),
				value.BigInt(1), value.BigInt(1), value.BigInt(1), value.BigInt(1),
				value.Text(ValidUnknown), value.Timestamp{},
			), nil
		}
		var serial value.Value
		m.writeFunc = func(_ query.Family, id query.ID, args []value.Value) (int64, error) {
			if id == query.UpdateZoneSerial {
				serial = args[0]
			}
			return 1, nil
		}
		svc := newWithDeps(m, testDefaults)
		svc.now = func() value.Timestamp { return value.TimestampOf(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)) }

		if err := svc.AddRecord(ctx, "example.com", Record{Host: "www", Type: "A", Destination: "192.0.2.1"}); err != nil {
			t.Fatalf("AddRecord() error = %v", err)
		}
		if len(m.writeCalls) != 2 || m.writeCalls[0] != query.InsertRecord || m.writeCalls[1] != query.UpdateZoneSerial {
			t.Errorf("write calls = %v", m.writeCalls)
		}
		if !value.Equal(serial, value.BigInt(2024030902)) {
			t.Errorf("serial = %v, want 2024030902", serial)
		}
	})
}
