package loader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/netip"

	"github.com/jbweber/ailsa/internal/build"
	"github.com/jbweber/ailsa/internal/config"
	"github.com/jbweber/ailsa/internal/dns"
	"github.com/jbweber/ailsa/internal/inventory"
	"github.com/jbweber/ailsa/internal/store"
)

// Result counts what Apply wrote. Entries that already exist are skipped,
// which makes applying the same manifest twice harmless.
type Result struct {
	Created int `json:"created" yaml:"created"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

// Apply creates every entry of m that is not already stored. Zones without
// name servers or timers take them from defaults.
func Apply(ctx context.Context, db *store.DB, defaults config.DNSConfig, m *Manifest) (*Result, error) {
	return applyWithDeps(ctx, stores{
		inventory: inventory.New(db),
		dns:       dns.New(db, defaults),
		build:     build.New(db),
	}, m)
}

// Export reads the stored inventory into a manifest.
func Export(ctx context.Context, db *store.DB) (*Manifest, error) {
	return exportWithDeps(ctx, stores{
		inventory: inventory.New(db),
		dns:       dns.New(db, config.DNSConfig{}),
		build:     build.New(db),
	})
}

func applyWithDeps(ctx context.Context, s stores, m *Manifest) (*Result, error) {
	// Nothing is written unless every section is valid.
	if err := validate(m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	res := &Result{}

	// record counts one write, treating ErrExists as a skip.
	record := func(what string, err error) error {
		switch {
		case err == nil:
			res.Created++
			return nil
		case errors.Is(err, store.ErrExists):
			log.Printf("Skipping %s: already exists", what)
			res.Skipped++
			return nil
		default:
			return fmt.Errorf("failed to apply %s: %w", what, err)
		}
	}

	// Customers first so servers can reference them.
	for _, c := range m.Customers {
		if err := record("customer "+c.Coid, s.inventory.AddCustomer(ctx, c)); err != nil {
			return nil, err
		}
	}
	for _, sv := range m.Servers {
		if err := record("server "+sv.Name, s.inventory.AddServer(ctx, sv)); err != nil {
			return nil, err
		}
	}

	for _, z := range m.Zones {
		if err := record("zone "+z.Name, s.dns.AddZone(ctx, z.Zone)); err != nil {
			return nil, err
		}
		for _, r := range z.Records {
			what := fmt.Sprintf("%s record %s in %s", r.Type, r.Host, z.Name)
			if err := record(what, s.dns.AddRecord(ctx, z.Name, r)); err != nil {
				return nil, err
			}
		}
	}

	for _, bd := range m.BuildDomains {
		d, err := bd.parse()
		if err != nil {
			return nil, fmt.Errorf("build domain %s: %w", bd.Name, err)
		}
		if err := record("build domain "+d.Name, s.build.AddDomain(ctx, d)); err != nil {
			return nil, err
		}
	}
	for _, o := range m.OSes {
		if err := record("os "+o.Release(), s.build.AddOS(ctx, o)); err != nil {
			return nil, err
		}
	}
	for _, v := range m.Varients {
		if err := record("varient "+v.Alias, s.build.AddVarient(ctx, v)); err != nil {
			return nil, err
		}
	}

	log.Printf("Applied manifest: %d created, %d skipped", res.Created, res.Skipped)
	return res, nil
}

func exportWithDeps(ctx context.Context, s stores) (*Manifest, error) {
	m := &Manifest{APIVersion: APIVersion, Kind: ManifestKind}

	var err error
	if m.Customers, err = s.inventory.Customers(ctx); err != nil {
		return nil, err
	}
	if m.Servers, err = s.inventory.Servers(ctx); err != nil {
		return nil, err
	}

	zones, err := s.dns.Zones(ctx)
	if err != nil {
		return nil, err
	}
	for _, z := range zones {
		records, err := s.dns.Records(ctx, z.Name)
		if err != nil {
			return nil, err
		}
		for i := range records {
			records[i].ID = 0
		}
		z.Serial = 0
		z.Valid = ""
		m.Zones = append(m.Zones, Zone{Zone: z, Records: records})
	}

	domains, err := s.build.Domains(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range domains {
		m.BuildDomains = append(m.BuildDomains, BuildDomain{
			Name:       d.Name,
			Start:      addrString(d.Start),
			End:        addrString(d.End),
			Netmask:    addrString(d.Netmask),
			Gateway:    addrString(d.Gateway),
			Nameserver: addrString(d.Nameserver),
			NTPServer:  d.NTPServer,
		})
	}

	if m.OSes, err = s.build.OSes(ctx); err != nil {
		return nil, err
	}
	if m.Varients, err = s.build.Varients(ctx); err != nil {
		return nil, err
	}

	return m, nil
}

func addrString(a netip.Addr) string {
	if !a.IsValid() {
		return ""
	}
	return a.String()
}
