package main

import (
	"net/netip"

	"github.com/jbweber/ailsa/internal/cloudinit"
	"github.com/jbweber/ailsa/internal/naming"
)

// addrString prints an unset address as empty.
func addrString(a netip.Addr) string {
	if !a.IsValid() {
		return ""
	}
	return a.String()
}

func seedFileName(s *cloudinit.Seed) string {
	return naming.SeedFileName(s.Hostname)
}
