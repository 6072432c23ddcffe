package build

import (
	"fmt"
	"math/bits"
	"net/netip"
)

// Addresses are stored as the big-endian integer value of the IPv4 address.

func addrToInt(a netip.Addr) uint32 {
	b := a.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func intToAddr(n uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
}

// storedAddr converts a stored column back to an address. Zero means unset.
func storedAddr(n int64) netip.Addr {
	if n <= 0 || n > 0xffffffff {
		return netip.Addr{}
	}
	return intToAddr(uint32(n))
}

func storeAddr(a netip.Addr) int64 {
	if !a.IsValid() {
		return 0
	}
	return int64(addrToInt(a))
}

// maskBits returns the prefix length of a dotted netmask. The mask must be
// contiguous.
func maskBits(mask netip.Addr) (int, error) {
	if !mask.Is4() {
		return 0, fmt.Errorf("netmask %s is not IPv4", mask)
	}
	m := addrToInt(mask)
	inv := ^m
	if inv&(inv+1) != 0 {
		return 0, fmt.Errorf("netmask %s is not contiguous", mask)
	}
	return bits.OnesCount32(m), nil
}

// parseIPv4 parses s and rejects anything but IPv4.
func parseIPv4(field, s string) (netip.Addr, error) {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	a = a.Unmap()
	if !a.Is4() {
		return netip.Addr{}, fmt.Errorf("%s %s is not an IPv4 address", field, s)
	}
	return a, nil
}

// addrHash spreads consecutive addresses across buckets.
func addrHash(n uint32) uint32 {
	n ^= n >> 16
	n *= 0x45d9f3b
	n ^= n >> 16
	return n
}
