package build

import (
	"context"
	"fmt"
	"log"
	"net/netip"
	"strings"

	"github.com/jbweber/ailsa/internal/container"
	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/store"
	"github.com/jbweber/ailsa/internal/value"
)

// usedBuckets sizes the hash table of allocated addresses.
const usedBuckets = 251

// Domain is a build network: the address range handed out to hosts built
// into it and the settings they are configured with.
type Domain struct {
	Name       string     `json:"name" yaml:"name"`
	Start      netip.Addr `json:"start" yaml:"start"`
	End        netip.Addr `json:"end" yaml:"end"`
	Netmask    netip.Addr `json:"netmask" yaml:"netmask"`
	Gateway    netip.Addr `json:"gateway,omitzero" yaml:"gateway,omitempty"`
	Nameserver netip.Addr `json:"nameserver,omitzero" yaml:"nameserver,omitempty"`
	ConfigNTP  bool       `json:"configNTP,omitempty" yaml:"configNTP,omitempty"`
	NTPServer  string     `json:"ntpServer,omitempty" yaml:"ntpServer,omitempty"`
}

// ParseDomain builds a Domain from its textual fields. Gateway, nameserver
// and ntp may be empty.
func ParseDomain(name, start, end, netmask, gateway, nameserver, ntp string) (Domain, error) {
	d := Domain{Name: name, NTPServer: strings.TrimSpace(ntp), ConfigNTP: strings.TrimSpace(ntp) != ""}
	var err error
	if d.Start, err = parseIPv4("start address", start); err != nil {
		return Domain{}, err
	}
	if d.End, err = parseIPv4("end address", end); err != nil {
		return Domain{}, err
	}
	if d.Netmask, err = parseIPv4("netmask", netmask); err != nil {
		return Domain{}, err
	}
	if gateway != "" {
		if d.Gateway, err = parseIPv4("gateway", gateway); err != nil {
			return Domain{}, err
		}
	}
	if nameserver != "" {
		if d.Nameserver, err = parseIPv4("nameserver", nameserver); err != nil {
			return Domain{}, err
		}
	}
	return d, nil
}

// Prefix returns the subnet of the domain.
func (d *Domain) Prefix() (netip.Prefix, error) {
	n, err := maskBits(d.Netmask)
	if err != nil {
		return netip.Prefix{}, err
	}
	return d.Start.Prefix(n)
}

// Normalize lower-cases the domain name.
func (d *Domain) Normalize() {
	d.Name = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(d.Name)), ".")
}

// Validate checks that the range lies within one subnet, together with the
// gateway.
func (d *Domain) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("build domain name is required")
	}
	if !d.Start.Is4() || !d.End.Is4() {
		return fmt.Errorf("build domain %s: start and end must be IPv4 addresses", d.Name)
	}
	if d.End.Less(d.Start) {
		return fmt.Errorf("build domain %s: end %s is before start %s", d.Name, d.End, d.Start)
	}
	prefix, err := d.Prefix()
	if err != nil {
		return fmt.Errorf("build domain %s: %w", d.Name, err)
	}
	if !prefix.Contains(d.End) {
		return fmt.Errorf("build domain %s: %s and %s are not in one %s subnet", d.Name, d.Start, d.End, d.Netmask)
	}
	if d.Gateway.IsValid() && !prefix.Contains(d.Gateway) {
		return fmt.Errorf("build domain %s: gateway %s is outside %s", d.Name, d.Gateway, prefix)
	}
	if d.ConfigNTP && d.NTPServer == "" {
		return fmt.Errorf("build domain %s: ntp server is required when ntp is configured", d.Name)
	}
	return nil
}

// AddDomain stores a new build domain.
func (s *Service) AddDomain(ctx context.Context, d Domain) error {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return err
	}

	rows, err := s.rows(ctx, query.Argument, query.BuildDomainOnName, value.Text(d.Name))
	if err != nil {
		return fmt.Errorf("failed to look up build domain %s: %w", d.Name, err)
	}
	if len(rows) > 0 {
		return fmt.Errorf("build domain %s: %w", d.Name, store.ErrExists)
	}

	var ntp int16
	if d.ConfigNTP {
		ntp = 1
	}
	if _, err := s.db.Write(ctx, query.Insert, query.InsertBuildDomain,
		value.Text(d.Name), value.BigInt(storeAddr(d.Start)), value.BigInt(storeAddr(d.End)),
		value.BigInt(storeAddr(d.Netmask)), value.BigInt(storeAddr(d.Gateway)), value.BigInt(storeAddr(d.Nameserver)),
		value.SmallInt(ntp), value.Text(d.NTPServer), s.now()); err != nil {
		return fmt.Errorf("failed to add build domain %s: %w", d.Name, err)
	}
	log.Printf("Added build domain %s (%s-%s)", d.Name, d.Start, d.End)
	return nil
}

// Domains lists every build domain.
func (s *Service) Domains(ctx context.Context) ([]Domain, error) {
	rows, err := s.rows(ctx, query.Basic, query.AllBuildDomains)
	if err != nil {
		return nil, fmt.Errorf("failed to list build domains: %w", err)
	}
	out := make([]Domain, 0, len(rows))
	for _, r := range rows {
		out = append(out, Domain{
			Name:       value.ToString(r[0]),
			Start:      storedAddr(value.ToInt(r[1])),
			End:        storedAddr(value.ToInt(r[2])),
			Netmask:    storedAddr(value.ToInt(r[3])),
			Gateway:    storedAddr(value.ToInt(r[4])),
			Nameserver: storedAddr(value.ToInt(r[5])),
			ConfigNTP:  value.ToInt(r[6]) != 0,
			NTPServer:  value.ToString(r[7]),
		})
	}
	return out, nil
}

type storedDomain struct {
	id int64
	Domain
}

func (s *Service) domain(ctx context.Context, name string) (*storedDomain, error) {
	rows, err := s.rows(ctx, query.Argument, query.BuildDomainOnName, value.Text(name))
	if err != nil {
		return nil, fmt.Errorf("failed to get build domain %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("build domain %s: %w", name, store.ErrNotFound)
	}
	r := rows[0]
	return &storedDomain{
		id: value.ToInt(r[0]),
		Domain: Domain{
			Name:       name,
			Start:      storedAddr(value.ToInt(r[1])),
			End:        storedAddr(value.ToInt(r[2])),
			Netmask:    storedAddr(value.ToInt(r[3])),
			Gateway:    storedAddr(value.ToInt(r[4])),
			Nameserver: storedAddr(value.ToInt(r[5])),
		},
	}, nil
}

// Lease is an address allocated to a server.
type Lease struct {
	id       int64
	Addr     netip.Addr `json:"addr" yaml:"addr"`
	Hostname string     `json:"hostname" yaml:"hostname"`
	Domain   string     `json:"domain" yaml:"domain"`
}

// Lease returns the address allocated to the server, if any.
func (s *Service) Lease(ctx context.Context, server string) (*Lease, error) {
	server = strings.ToLower(strings.TrimSpace(server))
	id, err := s.serverID(ctx, server)
	if err != nil {
		return nil, err
	}
	return s.lease(ctx, server, id)
}

func (s *Service) lease(ctx context.Context, server string, serverID int64) (*Lease, error) {
	rows, err := s.rows(ctx, query.Argument, query.BuildIPOnServer, value.BigInt(serverID))
	if err != nil {
		return nil, fmt.Errorf("failed to get address of %s: %w", server, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("address of %s: %w", server, store.ErrNotFound)
	}
	r := rows[0]
	return &Lease{
		id:       value.ToInt(r[0]),
		Addr:     storedAddr(value.ToInt(r[1])),
		Hostname: value.ToString(r[2]),
		Domain:   value.ToString(r[3]),
	}, nil
}

// AllocateIP assigns the lowest free address of the named build domain to
// the server. The gateway and nameserver are never handed out. A server
// holds at most one address.
func (s *Service) AllocateIP(ctx context.Context, domain, server string) (netip.Addr, error) {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	server = strings.ToLower(strings.TrimSpace(server))

	serverID, err := s.serverID(ctx, server)
	if err != nil {
		return netip.Addr{}, err
	}
	if l, err := s.lease(ctx, server, serverID); err == nil {
		return netip.Addr{}, fmt.Errorf("server %s already has address %s: %w", server, l.Addr, store.ErrExists)
	} else if ok, err := exists(err); ok || err != nil {
		return netip.Addr{}, err
	}

	d, err := s.domain(ctx, domain)
	if err != nil {
		return netip.Addr{}, err
	}
	addr, err := s.nextFree(ctx, d)
	if err != nil {
		return netip.Addr{}, err
	}

	if _, err := s.db.Write(ctx, query.Insert, query.InsertBuildIP,
		value.BigInt(storeAddr(addr)), value.Text(server), value.Text(domain),
		value.BigInt(d.id), value.BigInt(serverID), s.now()); err != nil {
		return netip.Addr{}, fmt.Errorf("failed to record address %s for %s: %w", addr, server, err)
	}
	log.Printf("Allocated %s in %s to %s", addr, domain, server)
	return addr, nil
}

// nextFree walks the domain range and returns the first address not already
// recorded against it.
func (s *Service) nextFree(ctx context.Context, d *storedDomain) (netip.Addr, error) {
	rows, err := s.rows(ctx, query.Argument, query.BuildIPsOnDomain, value.BigInt(d.id))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to list addresses in %s: %w", d.Name, err)
	}

	used, err := container.NewTable(usedBuckets, addrHash, func(k, v uint32) bool { return k == v }, nil)
	if err != nil {
		return netip.Addr{}, err
	}
	defer used.Destroy()

	reserve := func(n uint32) {
		// A duplicate only means the address is already reserved.
		_ = used.Insert(n, n)
	}
	for _, r := range rows {
		reserve(uint32(value.ToInt(r[0])))
	}
	for _, a := range []netip.Addr{d.Gateway, d.Nameserver} {
		if a.IsValid() {
			reserve(addrToInt(a))
		}
	}

	start, end := addrToInt(d.Start), addrToInt(d.End)
	for n := start; ; n++ {
		if _, taken := used.Lookup(n); !taken {
			return intToAddr(n), nil
		}
		if n == end {
			break
		}
	}
	return netip.Addr{}, fmt.Errorf("build domain %s: %w", d.Name, ErrExhausted)
}
