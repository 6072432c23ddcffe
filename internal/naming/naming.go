// Package naming derives the per-host identifiers a build needs when none are
// stored: a locally administered MAC address and a tap interface name, both
// computed from the host's IPv4 address, and the seed image file name.
package naming

import (
	"fmt"
	"net/netip"
	"strings"
)

// parseIPv4 accepts "10.1.2.3" or "10.1.2.3/24".
func parseIPv4(ip string) (netip.Addr, error) {
	s := ip
	if strings.Contains(ip, "/") {
		p, err := netip.ParsePrefix(ip)
		if err != nil {
			return netip.Addr{}, fmt.Errorf("invalid IP/CIDR: %w", err)
		}
		s = p.Addr().String()
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid IP address: %s", s)
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("not an IPv4 address: %s", s)
	}
	return addr, nil
}

// MACFromIP calculates a deterministic MAC address from an IP address,
// using the locally administered prefix be:ef.
//
// Example: IP 10.55.22.22 → MAC be:ef:0a:37:16:16
func MACFromIP(ip string) (string, error) {
	addr, err := parseIPv4(ip)
	if err != nil {
		return "", err
	}
	return MACFromAddr(addr), nil
}

// MACFromAddr is MACFromIP for an already parsed IPv4 address.
func MACFromAddr(addr netip.Addr) string {
	b := addr.As4()
	return fmt.Sprintf("be:ef:%02x:%02x:%02x:%02x", b[0], b[1], b[2], b[3])
}

// InterfaceNameFromIP calculates a deterministic tap interface name from an
// IP address: "vm" plus the octets in hex, well inside the 15 character
// kernel limit.
//
// Example: IP 10.55.22.22 → vm0a371616
func InterfaceNameFromIP(ip string) (string, error) {
	addr, err := parseIPv4(ip)
	if err != nil {
		return "", err
	}
	b := addr.As4()
	return fmt.Sprintf("vm%02x%02x%02x%02x", b[0], b[1], b[2], b[3]), nil
}

// SeedFileName returns the default file name of a host's cloud-init seed
// image.
func SeedFileName(host string) string {
	return fmt.Sprintf("%s_cidata.iso", host)
}
