// Package inventory manages customers and the servers assigned to them.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/store"
	"github.com/jbweber/ailsa/internal/value"
)

// executor is the subset of *store.DB used by this package.
type executor interface {
	Basic(ctx context.Context, id query.ID) (*value.List, error)
	Argument(ctx context.Context, id query.ID, args ...value.Value) (*value.List, error)
	Write(ctx context.Context, f query.Family, id query.ID, args ...value.Value) (int64, error)
	LookupID(ctx context.Context, id query.ID, args ...value.Value) (int64, error)
}

// Customer is a customer record.
type Customer struct {
	Name     string    `json:"name" yaml:"name"`
	Address  string    `json:"address,omitempty" yaml:"address,omitempty"`
	City     string    `json:"city,omitempty" yaml:"city,omitempty"`
	County   string    `json:"county,omitempty" yaml:"county,omitempty"`
	Postcode string    `json:"postcode,omitempty" yaml:"postcode,omitempty"`
	Coid     string    `json:"coid" yaml:"coid"`
	Created  time.Time `json:"created,omitzero" yaml:"created,omitempty"`
}

// Server is a server record. Coid names the owning customer, if any.
type Server struct {
	Name      string    `json:"name" yaml:"name"`
	Make      string    `json:"make,omitempty" yaml:"make,omitempty"`
	Model     string    `json:"model,omitempty" yaml:"model,omitempty"`
	Vendor    string    `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	UUID      string    `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Coid      string    `json:"coid,omitempty" yaml:"coid,omitempty"`
	VCPUs     int16     `json:"vcpus" yaml:"vcpus"`
	MemoryGiB float64   `json:"memoryGiB" yaml:"memoryGiB"`
	Created   time.Time `json:"created,omitzero" yaml:"created,omitempty"`
	Modified  time.Time `json:"modified,omitzero" yaml:"modified,omitempty"`
}

// Service provides inventory operations over a store.
type Service struct {
	db  executor
	now func() value.Timestamp
}

// New returns a Service backed by db.
func New(db *store.DB) *Service {
	return newWithDeps(db)
}

func newWithDeps(db executor) *Service {
	return &Service{db: db, now: value.Now}
}

// Normalize trims input and upper-cases the customer identifier.
func (c *Customer) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Coid = strings.ToUpper(strings.TrimSpace(c.Coid))
}

// Validate checks the fields required to store a customer.
func (c *Customer) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("customer name is required")
	}
	if c.Coid == "" {
		return fmt.Errorf("customer coid is required")
	}
	if len(c.Coid) > 8 {
		return fmt.Errorf("customer coid must be at most 8 characters, got %q", c.Coid)
	}
	return nil
}

// AddCustomer stores a new customer. The coid must be unused.
func (s *Service) AddCustomer(ctx context.Context, c Customer) error {
	c.Normalize()
	if err := c.Validate(); err != nil {
		return err
	}

	if _, err := s.db.LookupID(ctx, query.CustomerIDOnCoid, value.Text(c.Coid)); err == nil {
		return fmt.Errorf("customer %s: %w", c.Coid, store.ErrExists)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to look up customer %s: %w", c.Coid, err)
	}

	now := s.now()
	if _, err := s.db.Write(ctx, query.Insert, query.InsertCustomer,
		value.Text(c.Name), value.Text(c.Address), value.Text(c.City), value.Text(c.County),
		value.Text(c.Postcode), value.Text(c.Coid), now, now); err != nil {
		return fmt.Errorf("failed to add customer %s: %w", c.Coid, err)
	}
	log.Printf("Added customer %s (%s)", c.Coid, c.Name)
	return nil
}

// Customers lists every customer by coid.
func (s *Service) Customers(ctx context.Context) ([]Customer, error) {
	rows, err := s.rows(ctx, query.Basic, query.AllCustomers, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	out := make([]Customer, 0, len(rows))
	for _, r := range rows {
		out = append(out, Customer{Name: value.ToString(r[0]), City: value.ToString(r[1]), Coid: value.ToString(r[2])})
	}
	return out, nil
}

// Customer returns the customer with the given coid.
func (s *Service) Customer(ctx context.Context, coid string) (*Customer, error) {
	coid = strings.ToUpper(strings.TrimSpace(coid))
	rows, err := s.rows(ctx, query.Argument, query.CustomerOnCoid, []value.Value{value.Text(coid)})
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %s: %w", coid, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("customer %s: %w", coid, store.ErrNotFound)
	}
	r := rows[0]
	return &Customer{
		Name:     value.ToString(r[0]),
		Address:  value.ToString(r[1]),
		City:     value.ToString(r[2]),
		County:   value.ToString(r[3]),
		Postcode: value.ToString(r[4]),
		Coid:     value.ToString(r[5]),
		Created:  value.ToTime(r[6]),
	}, nil
}

// RemoveCustomer deletes a customer and returns the number of rows removed.
// Servers keep their customer id and list without an owner afterwards.
func (s *Service) RemoveCustomer(ctx context.Context, coid string) (int64, error) {
	coid = strings.ToUpper(strings.TrimSpace(coid))
	n, err := s.db.Write(ctx, query.Delete, query.DeleteCustomerOnCoid, value.Text(coid))
	if err != nil {
		return 0, fmt.Errorf("failed to remove customer %s: %w", coid, err)
	}
	return n, nil
}

// Normalize trims and lower-cases the server name.
func (sv *Server) Normalize() {
	sv.Name = strings.ToLower(strings.TrimSpace(sv.Name))
	sv.Coid = strings.ToUpper(strings.TrimSpace(sv.Coid))
	sv.UUID = strings.ToLower(strings.TrimSpace(sv.UUID))
}

// Validate checks the fields required to store a server.
func (sv *Server) Validate() error {
	if sv.Name == "" {
		return fmt.Errorf("server name is required")
	}
	if sv.UUID != "" {
		if _, err := uuid.Parse(sv.UUID); err != nil {
			return fmt.Errorf("invalid server uuid %q: %w", sv.UUID, err)
		}
	}
	if sv.VCPUs < 0 {
		return fmt.Errorf("vcpus must be >= 0, got %d", sv.VCPUs)
	}
	if sv.MemoryGiB < 0 {
		return fmt.Errorf("memory must be >= 0, got %v", sv.MemoryGiB)
	}
	return nil
}

// AddServer stores a new server. A missing UUID is generated and a coid, if
// given, must name an existing customer.
func (s *Service) AddServer(ctx context.Context, sv Server) error {
	sv.Normalize()
	if err := sv.Validate(); err != nil {
		return err
	}
	if sv.UUID == "" {
		sv.UUID = uuid.NewString()
	}

	if _, err := s.db.LookupID(ctx, query.ServerIDOnName, value.Text(sv.Name)); err == nil {
		return fmt.Errorf("server %s: %w", sv.Name, store.ErrExists)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to look up server %s: %w", sv.Name, err)
	}

	var custID int64
	if sv.Coid != "" {
		id, err := s.db.LookupID(ctx, query.CustomerIDOnCoid, value.Text(sv.Coid))
		if err != nil {
			return fmt.Errorf("failed to look up customer %s: %w", sv.Coid, err)
		}
		custID = id
	}

	now := s.now()
	if _, err := s.db.Write(ctx, query.Insert, query.InsertServer,
		value.Text(sv.Name), value.Text(sv.Make), value.Text(sv.Model), value.Text(sv.Vendor),
		value.Text(sv.UUID), value.BigInt(custID), value.SmallInt(sv.VCPUs), value.Float(sv.MemoryGiB),
		now, now); err != nil {
		return fmt.Errorf("failed to add server %s: %w", sv.Name, err)
	}
	log.Printf("Added server %s (uuid %s)", sv.Name, sv.UUID)
	return nil
}

// Servers lists every server by name.
func (s *Service) Servers(ctx context.Context) ([]Server, error) {
	rows, err := s.rows(ctx, query.Basic, query.AllServers, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	out := make([]Server, 0, len(rows))
	for _, r := range rows {
		out = append(out, Server{
			Name:      value.ToString(r[0]),
			Make:      value.ToString(r[1]),
			Model:     value.ToString(r[2]),
			Vendor:    value.ToString(r[3]),
			UUID:      value.ToString(r[4]),
			Coid:      value.ToString(r[5]),
			VCPUs:     int16(value.ToInt(r[6])),
			MemoryGiB: value.ToFloat(r[7]),
		})
	}
	return out, nil
}

// ServersForCustomer lists the servers owned by coid.
func (s *Service) ServersForCustomer(ctx context.Context, coid string) ([]Server, error) {
	coid = strings.ToUpper(strings.TrimSpace(coid))
	rows, err := s.rows(ctx, query.Argument, query.ServersOnCustomer, []value.Value{value.Text(coid)})
	if err != nil {
		return nil, fmt.Errorf("failed to list servers for %s: %w", coid, err)
	}
	out := make([]Server, 0, len(rows))
	for _, r := range rows {
		out = append(out, Server{Name: value.ToString(r[0]), Make: value.ToString(r[1]), Model: value.ToString(r[2]), Vendor: value.ToString(r[3]), Coid: coid})
	}
	return out, nil
}

// Server returns the named server.
func (s *Service) Server(ctx context.Context, name string) (*Server, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	rows, err := s.rows(ctx, query.Argument, query.ServerOnName, []value.Value{value.Text(name)})
	if err != nil {
		return nil, fmt.Errorf("failed to get server %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("server %s: %w", name, store.ErrNotFound)
	}
	r := rows[0]
	return &Server{
		Name:      value.ToString(r[0]),
		Make:      value.ToString(r[1]),
		Model:     value.ToString(r[2]),
		Vendor:    value.ToString(r[3]),
		UUID:      value.ToString(r[4]),
		Coid:      value.ToString(r[5]),
		VCPUs:     int16(value.ToInt(r[6])),
		MemoryGiB: value.ToFloat(r[7]),
		Created:   value.ToTime(r[8]),
		Modified:  value.ToTime(r[9]),
	}, nil
}

// ServerID returns the id of the named server.
func (s *Service) ServerID(ctx context.Context, name string) (int64, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	id, err := s.db.LookupID(ctx, query.ServerIDOnName, value.Text(name))
	if err != nil {
		return 0, fmt.Errorf("server %s: %w", name, err)
	}
	return id, nil
}

// UpdateResources records a server's current CPU, memory and UUID. It
// returns the number of rows changed, zero when the server is unknown.
func (s *Service) UpdateResources(ctx context.Context, name string, vcpus int16, memoryGiB float64, id string) (int64, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	n, err := s.db.Write(ctx, query.Update, query.UpdateServerResources,
		value.SmallInt(vcpus), value.Float(memoryGiB), value.Text(strings.ToLower(id)), s.now(), value.Text(name))
	if err != nil {
		return 0, fmt.Errorf("failed to update server %s: %w", name, err)
	}
	return n, nil
}

// RemoveServer deletes a server and returns the number of rows removed.
func (s *Service) RemoveServer(ctx context.Context, name string) (int64, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	n, err := s.db.Write(ctx, query.Delete, query.DeleteServerOnName, value.Text(name))
	if err != nil {
		return 0, fmt.Errorf("failed to remove server %s: %w", name, err)
	}
	return n, nil
}

func (s *Service) rows(ctx context.Context, f query.Family, id query.ID, args []value.Value) ([][]value.Value, error) {
	var (
		res *value.List
		err error
	)
	if f == query.Basic {
		res, err = s.db.Basic(ctx, id)
	} else {
		res, err = s.db.Argument(ctx, id, args...)
	}
	if err != nil {
		return nil, err
	}
	return query.Rows(query.MustLookup(f, id), res)
}
