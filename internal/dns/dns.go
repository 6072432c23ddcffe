// Package dns manages the zones and resource records held in the store.
//
// Every change to a zone's records advances the zone serial so that a zone
// file generated from the store is picked up by secondaries.
package dns

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/netip"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/jbweber/ailsa/internal/config"
	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/store"
	"github.com/jbweber/ailsa/internal/value"
)

// Zone validity states.
const (
	ValidUnknown = "unknown"
	ValidYes     = "yes"
	ValidNo      = "no"
)

// Record types accepted by AddRecord.
const (
	TypeA     = "A"
	TypeAAAA  = "AAAA"
	TypeCNAME = "CNAME"
	TypeMX    = "MX"
	TypeNS    = "NS"
	TypeTXT   = "TXT"
	TypeSRV   = "SRV"
	TypePTR   = "PTR"
)

var recordTypes = []string{TypeA, TypeAAAA, TypeCNAME, TypeMX, TypeNS, TypeTXT, TypeSRV, TypePTR}

var (
	labelPattern = regexp.MustCompile(`^(\*\.)?[a-z0-9_]([a-z0-9_-]{0,61}[a-z0-9])?(\.[a-z0-9_]([a-z0-9_-]{0,61}[a-z0-9])?)*$`)
	zonePattern  = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)+$`)
)

type executor interface {
	Basic(ctx context.Context, id query.ID) (*value.List, error)
	Argument(ctx context.Context, id query.ID, args ...value.Value) (*value.List, error)
	Write(ctx context.Context, f query.Family, id query.ID, args ...value.Value) (int64, error)
	LookupID(ctx context.Context, id query.ID, args ...value.Value) (int64, error)
}

// Zone is a forward zone and its SOA parameters.
type Zone struct {
	Name      string    `json:"name" yaml:"name"`
	Primary   string    `json:"primary" yaml:"primary"`
	Secondary string    `json:"secondary,omitempty" yaml:"secondary,omitempty"`
	Serial    int64     `json:"serial" yaml:"serial"`
	Refresh   int64     `json:"refresh,omitempty" yaml:"refresh,omitempty"`
	Retry     int64     `json:"retry,omitempty" yaml:"retry,omitempty"`
	Expire    int64     `json:"expire,omitempty" yaml:"expire,omitempty"`
	TTL       int64     `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	Valid     string    `json:"valid" yaml:"valid"`
	Modified  time.Time `json:"modified,omitzero" yaml:"modified,omitempty"`
}

// Record is a resource record within a zone. Protocol and Service are only
// used by SRV records.
type Record struct {
	ID          int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Host        string `json:"host" yaml:"host"`
	Type        string `json:"type" yaml:"type"`
	Protocol    string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Service     string `json:"service,omitempty" yaml:"service,omitempty"`
	Priority    int16  `json:"priority,omitempty" yaml:"priority,omitempty"`
	Destination string `json:"destination" yaml:"destination"`
}

// Service provides zone and record operations over a store.
type Service struct {
	db       executor
	defaults config.DNSConfig
	now      func() value.Timestamp
}

// New returns a Service backed by db. defaults supplies the name servers and
// SOA timers of zones that do not set their own.
func New(db *store.DB, defaults config.DNSConfig) *Service {
	return newWithDeps(db, defaults)
}

func newWithDeps(db executor, defaults config.DNSConfig) *Service {
	return &Service{db: db, defaults: defaults, now: value.Now}
}

// NextSerial returns the serial that follows current on the day of now, in
// YYYYMMDDnn form. A serial from an earlier day restarts at nn = 01; a serial
// already at or past today's base is incremented.
func NextSerial(current int64, now time.Time) int64 {
	now = now.UTC()
	base := int64(now.Year()*10000+int(now.Month())*100+now.Day()) * 100
	if current < base {
		return base + 1
	}
	return current + 1
}

// Normalize lower-cases names and fills SOA fields from defaults.
func (z *Zone) Normalize(defaults config.DNSConfig) {
	z.Name = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(z.Name)), ".")
	z.Primary = strings.ToLower(strings.TrimSpace(z.Primary))
	z.Secondary = strings.ToLower(strings.TrimSpace(z.Secondary))
	if z.Primary == "" {
		z.Primary = defaults.Primary
	}
	if z.Secondary == "" {
		z.Secondary = defaults.Secondary
	}
	if z.Refresh == 0 {
		z.Refresh = defaults.Refresh
	}
	if z.Retry == 0 {
		z.Retry = defaults.Retry
	}
	if z.Expire == 0 {
		z.Expire = defaults.Expire
	}
	if z.TTL == 0 {
		z.TTL = defaults.TTL
	}
}

// Validate checks a zone before it is stored.
func (z *Zone) Validate() error {
	if !zonePattern.MatchString(z.Name) {
		return fmt.Errorf("invalid zone name %q", z.Name)
	}
	if z.Primary == "" {
		return fmt.Errorf("zone %s: primary name server is required", z.Name)
	}
	if z.Refresh <= 0 || z.Retry <= 0 || z.Expire <= 0 || z.TTL <= 0 {
		return fmt.Errorf("zone %s: refresh, retry, expire and ttl must be > 0", z.Name)
	}
	return nil
}

// AddZone stores a new zone with a fresh serial.
func (s *Service) AddZone(ctx context.Context, z Zone) error {
	z.Normalize(s.defaults)
	if err := z.Validate(); err != nil {
		return err
	}

	if _, err := s.db.LookupID(ctx, query.ZoneIDOnName, value.Text(z.Name)); err == nil {
		return fmt.Errorf("zone %s: %w", z.Name, store.ErrExists)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to look up zone %s: %w", z.Name, err)
	}

	now := s.now()
	z.Serial = NextSerial(0, now.Time)
	if _, err := s.db.Write(ctx, query.Insert, query.InsertZone,
		value.Text(z.Name), value.Text(z.Primary), value.Text(z.Secondary), value.BigInt(z.Serial),
		value.BigInt(z.Refresh), value.BigInt(z.Retry), value.BigInt(z.Expire), value.BigInt(z.TTL),
		value.Text(ValidUnknown), now); err != nil {
		return fmt.Errorf("failed to add zone %s: %w", z.Name, err)
	}
	log.Printf("Added zone %s (serial %d)", z.Name, z.Serial)
	return nil
}

// Zones lists every zone by name.
func (s *Service) Zones(ctx context.Context) ([]Zone, error) {
	res, err := s.db.Basic(ctx, query.AllZones)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	rows, err := query.Rows(query.MustLookup(query.Basic, query.AllZones), res)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	out := make([]Zone, 0, len(rows))
	for _, r := range rows {
		out = append(out, Zone{
			Name:      value.ToString(r[0]),
			Primary:   value.ToString(r[1]),
			Secondary: value.ToString(r[2]),
			Serial:    value.ToInt(r[3]),
			Valid:     value.ToString(r[4]),
		})
	}
	return out, nil
}

// Zone returns the named zone.
func (s *Service) Zone(ctx context.Context, name string) (*Zone, error) {
	name = zoneName(name)
	res, err := s.db.Argument(ctx, query.ZoneOnName, value.Text(name))
	if err != nil {
		return nil, fmt.Errorf("failed to get zone %s: %w", name, err)
	}
	rows, err := query.Rows(query.MustLookup(query.Argument, query.ZoneOnName), res)
	if err != nil {
		return nil, fmt.Errorf("failed to get zone %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("zone %s: %w", name, store.ErrNotFound)
	}
	r := rows[0]
	return &Zone{
		Name:      value.ToString(r[0]),
		Primary:   value.ToString(r[1]),
		Secondary: value.ToString(r[2]),
		Serial:    value.ToInt(r[3]),
		Refresh:   value.ToInt(r[4]),
		Retry:     value.ToInt(r[5]),
		Expire:    value.ToInt(r[6]),
		TTL:       value.ToInt(r[7]),
		Valid:     value.ToString(r[8]),
		Modified:  value.ToTime(r[9]),
	}, nil
}

// RemoveZone deletes a zone and all of its records.
func (s *Service) RemoveZone(ctx context.Context, name string) error {
	name = zoneName(name)
	id, err := s.zoneID(ctx, name)
	if err != nil {
		return err
	}
	n, err := s.db.Write(ctx, query.Delete, query.DeleteRecordsOnZone, value.BigInt(id))
	if err != nil {
		return fmt.Errorf("failed to remove records of zone %s: %w", name, err)
	}
	if _, err := s.db.Write(ctx, query.Delete, query.DeleteZoneOnName, value.Text(name)); err != nil {
		return fmt.Errorf("failed to remove zone %s: %w", name, err)
	}
	log.Printf("Removed zone %s and %d records", name, n)
	return nil
}

// SetValid records whether the zone last passed a check.
func (s *Service) SetValid(ctx context.Context, name string, valid bool) error {
	name = zoneName(name)
	state := ValidNo
	if valid {
		state = ValidYes
	}
	n, err := s.db.Write(ctx, query.Update, query.UpdateZoneValid, value.Text(state), s.now(), value.Text(name))
	if err != nil {
		return fmt.Errorf("failed to update zone %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("zone %s: %w", name, store.ErrNotFound)
	}
	return nil
}

// Normalize trims the record and upper-cases its type. An empty host is the
// zone apex.
func (r *Record) Normalize() {
	r.Host = strings.ToLower(strings.TrimSpace(r.Host))
	if r.Host == "" {
		r.Host = "@"
	}
	r.Type = strings.ToUpper(strings.TrimSpace(r.Type))
	r.Protocol = strings.ToLower(strings.TrimSpace(r.Protocol))
	r.Service = strings.ToLower(strings.TrimSpace(r.Service))
	r.Destination = strings.TrimSpace(r.Destination)
	if r.Type != TypeTXT {
		r.Destination = strings.ToLower(r.Destination)
	}
}

// Validate checks that the destination suits the record type.
func (r *Record) Validate() error {
	if !slices.Contains(recordTypes, r.Type) {
		return fmt.Errorf("unsupported record type %q", r.Type)
	}
	if r.Host != "@" && !labelPattern.MatchString(r.Host) {
		return fmt.Errorf("invalid host %q", r.Host)
	}
	if r.Destination == "" {
		return fmt.Errorf("%s record %s: destination is required", r.Type, r.Host)
	}
	if r.Priority < 0 {
		return fmt.Errorf("priority must be >= 0, got %d", r.Priority)
	}

	switch r.Type {
	case TypeA, TypeAAAA:
		addr, err := netip.ParseAddr(r.Destination)
		if err != nil {
			return fmt.Errorf("%s record %s: invalid address: %w", r.Type, r.Host, err)
		}
		if r.Type == TypeA && !addr.Is4() {
			return fmt.Errorf("A record %s: %s is not an IPv4 address", r.Host, r.Destination)
		}
		if r.Type == TypeAAAA && !addr.Is6() {
			return fmt.Errorf("AAAA record %s: %s is not an IPv6 address", r.Host, r.Destination)
		}
	case TypeMX:
		if r.Priority == 0 {
			return fmt.Errorf("MX record %s: priority is required", r.Host)
		}
	case TypeSRV:
		if r.Protocol != "tcp" && r.Protocol != "udp" {
			return fmt.Errorf("SRV record %s: protocol must be tcp or udp, got %q", r.Host, r.Protocol)
		}
		if r.Service == "" {
			return fmt.Errorf("SRV record %s: service is required", r.Host)
		}
	}
	if r.Type != TypeTXT && r.Type != TypeA && r.Type != TypeAAAA &&
		!labelPattern.MatchString(strings.TrimSuffix(r.Destination, ".")) {
		return fmt.Errorf("%s record %s: invalid destination %q", r.Type, r.Host, r.Destination)
	}
	return nil
}

// AddRecord stores a record in zone and advances the zone serial.
func (s *Service) AddRecord(ctx context.Context, zone string, r Record) error {
	zone = zoneName(zone)
	r.Normalize()
	if err := r.Validate(); err != nil {
		return err
	}
	id, err := s.zoneID(ctx, zone)
	if err != nil {
		return err
	}

	if _, err := s.db.LookupID(ctx, query.RecordIDOnZoneHost,
		value.BigInt(id), value.Text(r.Host), value.Text(r.Type), value.Text(r.Destination)); err == nil {
		return fmt.Errorf("%s record %s in %s: %w", r.Type, r.Host, zone, store.ErrExists)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to look up record %s in %s: %w", r.Host, zone, err)
	}

	if _, err := s.db.Write(ctx, query.Insert, query.InsertRecord,
		value.BigInt(id), value.Text(r.Host), value.Text(r.Type), value.Text(r.Protocol),
		value.Text(r.Service), value.SmallInt(r.Priority), value.Text(r.Destination),
		value.Text(ValidUnknown), s.now()); err != nil {
		return fmt.Errorf("failed to add record %s to %s: %w", r.Host, zone, err)
	}
	log.Printf("Added %s record %s -> %s in %s", r.Type, r.Host, r.Destination, zone)
	return s.bumpSerial(ctx, zone, id)
}

// Records lists the records of zone ordered by type and host.
func (s *Service) Records(ctx context.Context, zone string) ([]Record, error) {
	zone = zoneName(zone)
	res, err := s.db.Argument(ctx, query.RecordsOnZone, value.Text(zone))
	if err != nil {
		return nil, fmt.Errorf("failed to list records of %s: %w", zone, err)
	}
	rows, err := query.Rows(query.MustLookup(query.Argument, query.RecordsOnZone), res)
	if err != nil {
		return nil, fmt.Errorf("failed to list records of %s: %w", zone, err)
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{
			ID:          value.ToInt(r[0]),
			Host:        value.ToString(r[1]),
			Type:        value.ToString(r[2]),
			Protocol:    value.ToString(r[3]),
			Service:     value.ToString(r[4]),
			Priority:    int16(value.ToInt(r[5])),
			Destination: value.ToString(r[6]),
		})
	}
	return out, nil
}

// RemoveRecord deletes record id from zone and advances the zone serial. The
// record must belong to zone.
func (s *Service) RemoveRecord(ctx context.Context, zone string, id int64) error {
	zone = zoneName(zone)
	zoneID, err := s.zoneID(ctx, zone)
	if err != nil {
		return err
	}
	records, err := s.Records(ctx, zone)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(records, func(r Record) bool { return r.ID == id }) {
		return fmt.Errorf("record %d in %s: %w", id, zone, store.ErrNotFound)
	}

	if _, err := s.db.Write(ctx, query.Delete, query.DeleteRecordOnID, value.BigInt(id)); err != nil {
		return fmt.Errorf("failed to remove record %d from %s: %w", id, zone, err)
	}
	log.Printf("Removed record %d from %s", id, zone)
	return s.bumpSerial(ctx, zone, zoneID)
}

func (s *Service) bumpSerial(ctx context.Context, zone string, id int64) error {
	z, err := s.Zone(ctx, zone)
	if err != nil {
		return err
	}
	now := s.now()
	serial := NextSerial(z.Serial, now.Time)
	if _, err := s.db.Write(ctx, query.Update, query.UpdateZoneSerial, value.BigInt(serial), now, value.BigInt(id)); err != nil {
		return fmt.Errorf("failed to update serial of %s: %w", zone, err)
	}
	return nil
}

func (s *Service) zoneID(ctx context.Context, zone string) (int64, error) {
	id, err := s.db.LookupID(ctx, query.ZoneIDOnName, value.Text(zone))
	if err != nil {
		return 0, fmt.Errorf("zone %s: %w", zone, err)
	}
	return id, nil
}

func zoneName(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}
