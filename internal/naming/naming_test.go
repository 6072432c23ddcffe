package naming

import (
	"net/netip"
	"testing"
)

func TestMACFromIP(t *testing.T) {
	tests := []struct {
		name    string
		ip      string
		want    string
		wantErr bool
	}{
		{name: "basic IP", ip: "10.20.30.40", want: "be:ef:0a:14:1e:28"},
		{name: "IP with CIDR", ip: "10.250.250.10/24", want: "be:ef:0a:fa:fa:0a"},
		{name: "zero octets", ip: "10.0.0.1", want: "be:ef:0a:00:00:01"},
		{name: "v4-mapped v6", ip: "::ffff:192.0.2.1", want: "be:ef:c0:00:02:01"},
		{name: "invalid IP", ip: "not-an-ip", wantErr: true},
		{name: "IPv6 address", ip: "2001:db8::1", wantErr: true},
		{name: "invalid CIDR", ip: "10.1.2.3/99", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MACFromIP(tt.ip)
			if (err != nil) != tt.wantErr {
				t.Errorf("MACFromIP() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("MACFromIP() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMACFromAddr(t *testing.T) {
	if got := MACFromAddr(netip.MustParseAddr("192.168.1.100")); got != "be:ef:c0:a8:01:64" {
		t.Errorf("MACFromAddr() = %v", got)
	}
}

func TestInterfaceNameFromIP(t *testing.T) {
	tests := []struct {
		name    string
		ip      string
		want    string
		wantErr bool
	}{
		{name: "basic IP", ip: "10.20.30.40", want: "vm0a141e28"},
		{name: "IP with CIDR", ip: "10.250.250.10/24", want: "vm0afafa0a"},
		{name: "high octets", ip: "192.168.1.100", want: "vmc0a80164"},
		{name: "invalid IP", ip: "not-an-ip", wantErr: true},
		{name: "IPv6 address", ip: "2001:db8::1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InterfaceNameFromIP(tt.ip)
			if (err != nil) != tt.wantErr {
				t.Errorf("InterfaceNameFromIP() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("InterfaceNameFromIP() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeedFileName(t *testing.T) {
	if got := SeedFileName("web01"); got != "web01_cidata.iso" {
		t.Errorf("SeedFileName() = %v", got)
	}
}
