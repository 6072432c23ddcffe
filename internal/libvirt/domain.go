package libvirt

import (
	"fmt"
	"strings"

	"libvirt.org/go/libvirtxml"
)

// DomainSpec is the part of a domain definition recorded in the inventory.
type DomainSpec struct {
	Name      string
	UUID      string
	Type      string
	Arch      string
	Machine   string
	VCPUs     uint
	MemoryKiB uint64
	MACs      []string
}

// MemoryGiB returns the configured memory in GiB.
func (d *DomainSpec) MemoryGiB() float64 {
	return float64(d.MemoryKiB) / (1024 * 1024)
}

// ParseDomainXML extracts a DomainSpec from a domain's XML description.
func ParseDomainXML(xml string) (*DomainSpec, error) {
	var dom libvirtxml.Domain
	if err := dom.Unmarshal(xml); err != nil {
		return nil, fmt.Errorf("failed to parse domain XML: %w", err)
	}
	if dom.Name == "" {
		return nil, fmt.Errorf("domain XML has no name")
	}

	spec := &DomainSpec{
		Name: dom.Name,
		UUID: strings.ToLower(dom.UUID),
		Type: dom.Type,
	}
	if dom.VCPU != nil {
		spec.VCPUs = dom.VCPU.Value
	}
	if dom.Memory != nil {
		kib, err := toKiB(uint64(dom.Memory.Value), dom.Memory.Unit)
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", dom.Name, err)
		}
		spec.MemoryKiB = kib
	}
	if dom.OS != nil && dom.OS.Type != nil {
		spec.Arch = dom.OS.Type.Arch
		spec.Machine = dom.OS.Type.Machine
	}
	if dom.Devices != nil {
		for _, iface := range dom.Devices.Interfaces {
			if iface.MAC != nil && iface.MAC.Address != "" {
				spec.MACs = append(spec.MACs, strings.ToLower(iface.MAC.Address))
			}
		}
	}
	return spec, nil
}

// toKiB converts a libvirt memory value to KiB. An empty unit is KiB.
func toKiB(v uint64, unit string) (uint64, error) {
	switch strings.ToLower(unit) {
	case "", "k", "kib":
		return v, nil
	case "b", "bytes":
		return v / 1024, nil
	case "kb":
		return v * 1000 / 1024, nil
	case "m", "mib":
		return v * 1024, nil
	case "mb":
		return v * 1000 * 1000 / 1024, nil
	case "g", "gib":
		return v * 1024 * 1024, nil
	case "gb":
		return v * 1000 * 1000 * 1000 / 1024, nil
	case "t", "tib":
		return v * 1024 * 1024 * 1024, nil
	default:
		return 0, fmt.Errorf("unsupported memory unit %q", unit)
	}
}
