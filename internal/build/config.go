package build

import (
	"context"
	"fmt"
	"log"
	"net/netip"
	"strings"
	"time"

	"github.com/jbweber/ailsa/internal/cloudinit"
	"github.com/jbweber/ailsa/internal/naming"
	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/store"
	"github.com/jbweber/ailsa/internal/value"
)

// DefaultInterface is the interface configured when a build names none.
const DefaultInterface = "eth0"

// Spec describes a build to create for an existing server.
type Spec struct {
	Server    string
	Domain    string
	OSAlias   string
	OSVersion string
	Arch      string
	Varient   string
	// MAC defaults to one derived from the allocated address.
	MAC       string
	Interface string
}

// Build is a server's stored build configuration.
type Build struct {
	Server     string     `json:"server" yaml:"server"`
	MAC        string     `json:"mac" yaml:"mac"`
	Interface  string     `json:"interface,omitempty" yaml:"interface,omitempty"`
	Varient    string     `json:"varient" yaml:"varient"`
	OSAlias    string     `json:"os" yaml:"os"`
	OSVersion  string     `json:"osVersion" yaml:"osVersion"`
	Arch       string     `json:"arch" yaml:"arch"`
	Addr       netip.Addr `json:"addr,omitzero" yaml:"addr,omitempty"`
	Hostname   string     `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	Domain     string     `json:"domain,omitempty" yaml:"domain,omitempty"`
	Netmask    netip.Addr `json:"netmask,omitzero" yaml:"netmask,omitempty"`
	Gateway    netip.Addr `json:"gateway,omitzero" yaml:"gateway,omitempty"`
	Nameserver netip.Addr `json:"nameserver,omitzero" yaml:"nameserver,omitempty"`
	Modified   time.Time  `json:"modified,omitzero" yaml:"modified,omitempty"`
}

func (sp *Spec) normalize() {
	sp.Server = strings.ToLower(strings.TrimSpace(sp.Server))
	sp.Domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(sp.Domain)), ".")
	sp.OSAlias = strings.ToLower(strings.TrimSpace(sp.OSAlias))
	sp.OSVersion = strings.TrimSpace(sp.OSVersion)
	sp.Arch = strings.ToLower(strings.TrimSpace(sp.Arch))
	sp.Varient = strings.TrimSpace(sp.Varient)
	sp.MAC = strings.ToLower(strings.TrimSpace(sp.MAC))
	sp.Interface = strings.TrimSpace(sp.Interface)
	if sp.Interface == "" {
		sp.Interface = DefaultInterface
	}
}

// AddBuild creates the build for an existing server. The server gets an
// address from the build domain unless it already holds one.
func (s *Service) AddBuild(ctx context.Context, sp Spec) (*Build, error) {
	sp.normalize()
	if sp.Server == "" || sp.OSAlias == "" || sp.OSVersion == "" || sp.Arch == "" || sp.Varient == "" {
		return nil, fmt.Errorf("server, os, version, arch and varient are required")
	}

	serverID, err := s.serverID(ctx, sp.Server)
	if err != nil {
		return nil, err
	}
	if b, err := s.build(ctx, sp.Server); err == nil {
		return nil, fmt.Errorf("build for %s (%s): %w", sp.Server, b.Varient, store.ErrExists)
	} else if _, err := exists(err); err != nil {
		return nil, err
	}

	osID, err := s.db.LookupID(ctx, query.BuildOSIDOnAlias, value.Text(sp.OSAlias), value.Text(sp.OSVersion), value.Text(sp.Arch))
	if err != nil {
		return nil, fmt.Errorf("os %s-%s-%s: %w", sp.OSAlias, sp.OSVersion, sp.Arch, err)
	}
	varID, err := s.db.LookupID(ctx, query.VarientIDOnAlias, value.Text(sp.Varient), value.Text(sp.Varient))
	if err != nil {
		return nil, fmt.Errorf("varient %s: %w", sp.Varient, err)
	}

	l, err := s.lease(ctx, sp.Server, serverID)
	if found, lerr := exists(err); lerr != nil {
		return nil, lerr
	} else if !found {
		if sp.Domain == "" {
			return nil, fmt.Errorf("server %s has no address and no build domain was given", sp.Server)
		}
		if _, err := s.AllocateIP(ctx, sp.Domain, sp.Server); err != nil {
			return nil, err
		}
		if l, err = s.lease(ctx, sp.Server, serverID); err != nil {
			return nil, err
		}
	}

	if sp.MAC == "" {
		sp.MAC = naming.MACFromAddr(l.Addr)
	}

	if _, err := s.db.Write(ctx, query.Insert, query.InsertBuild,
		value.Text(sp.MAC), value.Text(sp.Interface), value.BigInt(varID), value.BigInt(osID),
		value.BigInt(l.id), value.BigInt(serverID), s.now()); err != nil {
		return nil, fmt.Errorf("failed to add build for %s: %w", sp.Server, err)
	}
	log.Printf("Added build for %s: %s-%s-%s %s at %s", sp.Server, sp.OSAlias, sp.OSVersion, sp.Arch, sp.Varient, l.Addr)
	return s.build(ctx, sp.Server)
}

// Builds lists every build. Only the server, MAC, varient, OS and
// modification time are filled in.
func (s *Service) Builds(ctx context.Context) ([]Build, error) {
	rows, err := s.rows(ctx, query.Basic, query.AllBuilds)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	out := make([]Build, 0, len(rows))
	for _, r := range rows {
		out = append(out, Build{
			Server:    value.ToString(r[0]),
			MAC:       value.ToString(r[1]),
			Varient:   value.ToString(r[2]),
			OSAlias:   value.ToString(r[3]),
			OSVersion: value.ToString(r[4]),
			Arch:      value.ToString(r[5]),
			Modified:  value.ToTime(r[6]),
		})
	}
	return out, nil
}

// Build returns the full build configuration of a server.
func (s *Service) Build(ctx context.Context, server string) (*Build, error) {
	return s.build(ctx, strings.ToLower(strings.TrimSpace(server)))
}

func (s *Service) build(ctx context.Context, server string) (*Build, error) {
	rows, err := s.rows(ctx, query.Argument, query.BuildOnServer, value.Text(server))
	if err != nil {
		return nil, fmt.Errorf("failed to get build for %s: %w", server, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("build for %s: %w", server, store.ErrNotFound)
	}
	r := rows[0]
	return &Build{
		Server:     value.ToString(r[0]),
		MAC:        value.ToString(r[1]),
		Interface:  value.ToString(r[2]),
		Varient:    value.ToString(r[3]),
		OSAlias:    value.ToString(r[4]),
		OSVersion:  value.ToString(r[5]),
		Arch:       value.ToString(r[6]),
		Addr:       storedAddr(value.ToInt(r[7])),
		Hostname:   value.ToString(r[8]),
		Domain:     value.ToString(r[9]),
		Netmask:    storedAddr(value.ToInt(r[10])),
		Gateway:    storedAddr(value.ToInt(r[11])),
		Nameserver: storedAddr(value.ToInt(r[12])),
	}, nil
}

// RemoveBuild deletes a server's build along with its address and SSH keys.
func (s *Service) RemoveBuild(ctx context.Context, server string) error {
	server = strings.ToLower(strings.TrimSpace(server))
	serverID, err := s.serverID(ctx, server)
	if err != nil {
		return err
	}

	var total int64
	for _, id := range []query.ID{query.DeleteBuildOnServer, query.DeleteBuildIPOnServer, query.DeleteSSHKeysOnServer} {
		n, err := s.db.Write(ctx, query.Delete, id, value.BigInt(serverID))
		if err != nil {
			return fmt.Errorf("failed to remove build for %s: %w", server, err)
		}
		total += n
	}
	if total == 0 {
		return fmt.Errorf("build for %s: %w", server, store.ErrNotFound)
	}
	log.Printf("Removed build for %s", server)
	return nil
}

// SetVarient switches a server's build to another profile.
func (s *Service) SetVarient(ctx context.Context, server, varient string) error {
	server = strings.ToLower(strings.TrimSpace(server))
	varient = strings.TrimSpace(varient)
	serverID, err := s.serverID(ctx, server)
	if err != nil {
		return err
	}
	varID, err := s.db.LookupID(ctx, query.VarientIDOnAlias, value.Text(varient), value.Text(varient))
	if err != nil {
		return fmt.Errorf("varient %s: %w", varient, err)
	}
	n, err := s.db.Write(ctx, query.Update, query.UpdateBuildVarient, value.BigInt(varID), s.now(), value.BigInt(serverID))
	if err != nil {
		return fmt.Errorf("failed to update build for %s: %w", server, err)
	}
	if n == 0 {
		return fmt.Errorf("build for %s: %w", server, store.ErrNotFound)
	}
	return nil
}

// Seed assembles the cloud-init seed for a server's build.
func (s *Service) Seed(ctx context.Context, server string) (*cloudinit.Seed, error) {
	b, err := s.Build(ctx, server)
	if err != nil {
		return nil, err
	}
	keys, err := s.SSHKeys(ctx, b.Server)
	if err != nil {
		return nil, err
	}

	bits, err := maskBits(b.Netmask)
	if err != nil {
		return nil, fmt.Errorf("build for %s: %w", b.Server, err)
	}
	seed := &cloudinit.Seed{
		Hostname:   b.Hostname,
		Domain:     b.Domain,
		MACAddress: b.MAC,
		Interface:  b.Interface,
		Address:    netip.PrefixFrom(b.Addr, bits),
		Gateway:    b.Gateway,
		Release:    b.OSAlias + "-" + b.OSVersion + "-" + b.Arch,
	}
	if seed.Hostname == "" {
		seed.Hostname = b.Server
	}
	if b.Nameserver.IsValid() {
		seed.Nameservers = []netip.Addr{b.Nameserver}
	}
	for _, k := range keys {
		seed.SSHKeys = append(seed.SSHKeys, k.AuthorizedKey())
	}
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("build for %s: %w", b.Server, err)
	}
	return seed, nil
}
