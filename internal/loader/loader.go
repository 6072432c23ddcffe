// Package loader reads and writes inventory manifests: YAML files that
// declare customers, servers, DNS zones and build catalog entries, so an
// inventory can be seeded from or exported to a file.
package loader

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/ailsa/internal/build"
	"github.com/jbweber/ailsa/internal/container"
	"github.com/jbweber/ailsa/internal/dns"
	"github.com/jbweber/ailsa/internal/inventory"
)

// Manifest identifiers.
const (
	APIVersion   = "ailsa/v1"
	ManifestKind = "Inventory"
)

// seenBuckets sizes the duplicate-name tables used by validation.
const seenBuckets = 64

// Manifest is the file form of an inventory.
type Manifest struct {
	APIVersion   string               `yaml:"apiVersion"`
	Kind         string               `yaml:"kind"`
	Customers    []inventory.Customer `yaml:"customers,omitempty"`
	Servers      []inventory.Server   `yaml:"servers,omitempty"`
	Zones        []Zone               `yaml:"zones,omitempty"`
	BuildDomains []BuildDomain        `yaml:"buildDomains,omitempty"`
	OSes         []build.OS           `yaml:"operatingSystems,omitempty"`
	Varients     []build.Varient      `yaml:"varients,omitempty"`
}

// Zone is a zone together with its records.
type Zone struct {
	dns.Zone `yaml:",inline"`
	Records  []dns.Record `yaml:"records,omitempty"`
}

// BuildDomain is a build domain with its addresses in dotted form.
type BuildDomain struct {
	Name       string `yaml:"name"`
	Start      string `yaml:"start"`
	End        string `yaml:"end"`
	Netmask    string `yaml:"netmask"`
	Gateway    string `yaml:"gateway,omitempty"`
	Nameserver string `yaml:"nameserver,omitempty"`
	NTPServer  string `yaml:"ntpServer,omitempty"`
}

// LoadFromFile loads a manifest from a YAML file.
func LoadFromFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return LoadFromYAML(data)
}

// LoadFromYAML loads a manifest from YAML bytes.
func LoadFromYAML(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if m.APIVersion == "" {
		return nil, fmt.Errorf("missing required field: apiVersion")
	}
	if m.Kind == "" {
		return nil, fmt.Errorf("missing required field: kind")
	}
	if m.APIVersion != APIVersion {
		return nil, fmt.Errorf("unsupported apiVersion: %s (expected: %s)", m.APIVersion, APIVersion)
	}
	if m.Kind != ManifestKind {
		return nil, fmt.Errorf("unsupported kind: %s (expected: %s)", m.Kind, ManifestKind)
	}

	if err := validate(&m); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &m, nil
}

// SaveToFile writes a manifest to a YAML file.
func SaveToFile(m *Manifest, path string) error {
	m.APIVersion = APIVersion
	m.Kind = ManifestKind

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

// validate checks each entry and rejects names declared twice. Fields that
// defaults fill in at apply time, such as zone name servers, are not
// required here.
func validate(m *Manifest) error {
	customers := newSeen()
	defer customers.Destroy()
	for i := range m.Customers {
		c := &m.Customers[i]
		c.Normalize()
		if err := c.Validate(); err != nil {
			return fmt.Errorf("customers[%d]: %w", i, err)
		}
		if err := customers.add(c.Coid); err != nil {
			return fmt.Errorf("customers[%d]: %w", i, err)
		}
	}

	servers := newSeen()
	defer servers.Destroy()
	for i := range m.Servers {
		sv := &m.Servers[i]
		sv.Normalize()
		if err := sv.Validate(); err != nil {
			return fmt.Errorf("servers[%d]: %w", i, err)
		}
		if err := servers.add(sv.Name); err != nil {
			return fmt.Errorf("servers[%d]: %w", i, err)
		}
	}

	zones := newSeen()
	defer zones.Destroy()
	for i := range m.Zones {
		z := &m.Zones[i]
		z.Name = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(z.Name)), ".")
		if z.Name == "" {
			return fmt.Errorf("zones[%d].name is required", i)
		}
		if err := zones.add(z.Name); err != nil {
			return fmt.Errorf("zones[%d]: %w", i, err)
		}
		for j := range z.Records {
			r := &z.Records[j]
			r.Normalize()
			if err := r.Validate(); err != nil {
				return fmt.Errorf("zones[%d].records[%d]: %w", i, j, err)
			}
		}
	}

	domains := newSeen()
	defer domains.Destroy()
	for i, d := range m.BuildDomains {
		dom, err := d.parse()
		if err != nil {
			return fmt.Errorf("buildDomains[%d]: %w", i, err)
		}
		dom.Normalize()
		if err := dom.Validate(); err != nil {
			return fmt.Errorf("buildDomains[%d]: %w", i, err)
		}
		if err := domains.add(dom.Name); err != nil {
			return fmt.Errorf("buildDomains[%d]: %w", i, err)
		}
	}

	for i := range m.OSes {
		m.OSes[i].Normalize()
		if err := m.OSes[i].Validate(); err != nil {
			return fmt.Errorf("operatingSystems[%d]: %w", i, err)
		}
	}
	for i, v := range m.Varients {
		if strings.TrimSpace(v.Alias) == "" || strings.TrimSpace(v.Name) == "" {
			return fmt.Errorf("varients[%d]: name and alias are required", i)
		}
	}

	return nil
}

func (d BuildDomain) parse() (build.Domain, error) {
	return build.ParseDomain(d.Name, d.Start, d.End, d.Netmask, d.Gateway, d.Nameserver, d.NTPServer)
}

// seen is a set of names declared so far in one manifest section.
type seen struct {
	*container.Table[string, string]
}

func newSeen() seen {
	t, _ := container.NewTable(seenBuckets, container.StringHash,
		func(key, v string) bool { return key == v }, nil)
	return seen{t}
}

func (s seen) add(name string) error {
	if err := s.Insert(name, name); err != nil {
		return fmt.Errorf("%q is declared more than once", name)
	}
	return nil
}

// stores is what Apply and Export read and write through.
type stores struct {
	inventory inventoryStore
	dns       zoneStore
	build     catalogStore
}

type inventoryStore interface {
	AddCustomer(ctx context.Context, c inventory.Customer) error
	AddServer(ctx context.Context, sv inventory.Server) error
	Customers(ctx context.Context) ([]inventory.Customer, error)
	Servers(ctx context.Context) ([]inventory.Server, error)
}

type zoneStore interface {
	AddZone(ctx context.Context, z dns.Zone) error
	AddRecord(ctx context.Context, zone string, r dns.Record) error
	Zones(ctx context.Context) ([]dns.Zone, error)
	Records(ctx context.Context, zone string) ([]dns.Record, error)
}

type catalogStore interface {
	AddDomain(ctx context.Context, d build.Domain) error
	AddOS(ctx context.Context, o build.OS) error
	AddVarient(ctx context.Context, v build.Varient) error
	Domains(ctx context.Context) ([]build.Domain, error)
	OSes(ctx context.Context) ([]build.OS, error)
	Varients(ctx context.Context) ([]build.Varient, error)
}
