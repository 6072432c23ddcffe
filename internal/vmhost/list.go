// Package vmhost reads the domains defined on a libvirt host and records
// them in the inventory as servers.
package vmhost

import (
	"context"
	"fmt"
	"log"

	"github.com/digitalocean/go-libvirt"

	ailsalibvirt "github.com/jbweber/ailsa/internal/libvirt"
	"github.com/jbweber/ailsa/internal/metadata"
)

// Domain describes one libvirt domain.
type Domain struct {
	Name      string  `json:"name" yaml:"name"`
	UUID      string  `json:"uuid" yaml:"uuid"`
	State     string  `json:"state" yaml:"state"`
	Autostart bool    `json:"autostart" yaml:"autostart"`
	VCPUs     uint    `json:"vcpus" yaml:"vcpus"`
	MemoryGiB float64 `json:"memoryGiB" yaml:"memoryGiB"`
	Arch      string  `json:"arch,omitempty" yaml:"arch,omitempty"`
	MAC       string  `json:"mac,omitempty" yaml:"mac,omitempty"`
	// Coid and Server come from the domain's ailsa tag, if it has one.
	Coid   string `json:"coid,omitempty" yaml:"coid,omitempty"`
	Server string `json:"server,omitempty" yaml:"server,omitempty"`
}

// List connects to the daemon at socket and describes every domain, running
// or not.
func List(ctx context.Context, socket string) ([]Domain, error) {
	log.Printf("Connecting to libvirt...")
	client, err := ailsalibvirt.ConnectWithContext(ctx, socket, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to libvirt: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("Warning: failed to close libvirt connection: %v", err)
		}
	}()

	return listWithDeps(ctx, client.Libvirt())
}

// listWithDeps lists domains with injected dependencies. A domain that
// cannot be read is logged and skipped.
func listWithDeps(ctx context.Context, lv libvirtClient) ([]Domain, error) {
	// NeedResults 1 populates the slice; flags 0 selects active and inactive.
	domains, _, err := lv.ConnectListAllDomains(1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}

	out := make([]Domain, 0, len(domains))
	for _, dom := range domains {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := describe(lv, dom)
		if err != nil {
			log.Printf("Warning: failed to read domain %s: %v", dom.Name, err)
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func describe(lv libvirtClient, dom libvirt.Domain) (Domain, error) {
	xml, err := lv.DomainGetXMLDesc(dom, 0)
	if err != nil {
		return Domain{}, fmt.Errorf("failed to get domain XML: %w", err)
	}
	spec, err := ailsalibvirt.ParseDomainXML(xml)
	if err != nil {
		return Domain{}, err
	}

	state, _, err := lv.DomainGetState(dom, 0)
	if err != nil {
		return Domain{}, fmt.Errorf("failed to get domain state: %w", err)
	}

	autostart, err := lv.DomainGetAutostart(dom)
	if err != nil {
		log.Printf("Warning: failed to get autostart for %s: %v", dom.Name, err)
		autostart = 0
	}

	d := Domain{
		Name:      spec.Name,
		UUID:      spec.UUID,
		State:     stateToString(state),
		Autostart: autostart != 0,
		VCPUs:     spec.VCPUs,
		MemoryGiB: spec.MemoryGiB(),
		Arch:      spec.Arch,
	}
	if len(spec.MACs) > 0 {
		d.MAC = spec.MACs[0]
	}
	// Untagged domains are the common case, so a failed read is not logged.
	if tag, err := metadata.Load(lv, dom); err == nil {
		d.Coid = tag.Coid
		d.Server = tag.Server
	}
	return d, nil
}

// stateToString converts a libvirt domain state to its virsh name.
func stateToString(state int32) string {
	switch libvirt.DomainState(state) {
	case libvirt.DomainNostate:
		return "no state"
	case libvirt.DomainRunning:
		return "running"
	case libvirt.DomainBlocked:
		return "blocked"
	case libvirt.DomainPaused:
		return "paused"
	case libvirt.DomainShutdown:
		return "shutdown"
	case libvirt.DomainShutoff:
		return "shutoff"
	case libvirt.DomainCrashed:
		return "crashed"
	case libvirt.DomainPmsuspended:
		return "pmsuspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}
