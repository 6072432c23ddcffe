// Package cloudinit renders the NoCloud seed for a stored build: user-data,
// meta-data and a netplan v2 network-config, packed into a CIDATA ISO.
//
// See https://cloudinit.readthedocs.io/en/latest/reference/datasources/nocloud.html
package cloudinit

import (
	"fmt"
	"net/netip"
	"strings"

	"gopkg.in/yaml.v3"
)

// Seed is everything the generator needs to describe one host.
type Seed struct {
	Hostname string
	// Domain is appended to Hostname to form the FQDN, if set.
	Domain      string
	MACAddress  string
	Interface   string
	Address     netip.Prefix
	Gateway     netip.Addr
	Nameservers []netip.Addr
	SSHKeys     []string
	// Release names the OS build, recorded in meta-data.
	Release string
}

// FQDN returns the host's fully qualified name.
func (s *Seed) FQDN() string {
	if s.Domain == "" {
		return s.Hostname
	}
	return s.Hostname + "." + strings.TrimSuffix(s.Domain, ".")
}

// Validate checks the fields every generated file depends on.
func (s *Seed) Validate() error {
	if s.Hostname == "" {
		return fmt.Errorf("hostname is required")
	}
	if s.MACAddress == "" {
		return fmt.Errorf("%s: mac address is required", s.Hostname)
	}
	if !s.Address.IsValid() {
		return fmt.Errorf("%s: address is required", s.Hostname)
	}
	if s.Gateway.IsValid() && !s.Address.Contains(s.Gateway) {
		return fmt.Errorf("%s: gateway %s is outside %s", s.Hostname, s.Gateway, s.Address.Masked())
	}
	return nil
}

// UserData is the cloud-config user-data document.
type UserData struct {
	Hostname          string   `yaml:"hostname"`
	FQDN              string   `yaml:"fqdn"`
	ManageEtcHosts    bool     `yaml:"manage_etc_hosts"`
	SSHAuthorizedKeys []string `yaml:"ssh_authorized_keys,omitempty"`
	SSHPasswordAuth   bool     `yaml:"ssh_pwauth"`
	Output            *Output  `yaml:"output,omitempty"`
}

// Output configures cloud-init output logging.
type Output struct {
	All string `yaml:"all"`
}

// MetaData is the NoCloud meta-data document.
type MetaData struct {
	InstanceID    string `yaml:"instance-id"`
	LocalHostname string `yaml:"local-hostname"`
	Release       string `yaml:"release,omitempty"`
}

// NetworkConfig is a netplan version 2 document.
//
// See https://cloudinit.readthedocs.io/en/latest/reference/network-config-format-v2.html
type NetworkConfig struct {
	Version   int                       `yaml:"version"`
	Ethernets map[string]EthernetConfig `yaml:"ethernets"`
}

// EthernetConfig configures one interface.
type EthernetConfig struct {
	Match       MatchConfig   `yaml:"match"`
	SetName     string        `yaml:"set-name,omitempty"`
	Addresses   []string      `yaml:"addresses"`
	Routes      []RouteConfig `yaml:"routes,omitempty"`
	Nameservers *Nameservers  `yaml:"nameservers,omitempty"`
}

// MatchConfig matches an interface by MAC address.
type MatchConfig struct {
	MACAddress string `yaml:"macaddress"`
}

// RouteConfig is a static route.
type RouteConfig struct {
	To  string `yaml:"to"`
	Via string `yaml:"via"`
}

// Nameservers lists resolvers and the search domain.
type Nameservers struct {
	Addresses []string `yaml:"addresses"`
	Search    []string `yaml:"search,omitempty"`
}

// GenerateUserData returns user-data including the "#cloud-config" header.
func GenerateUserData(s *Seed) (string, error) {
	if s == nil {
		return "", fmt.Errorf("seed cannot be nil")
	}

	userData := UserData{
		Hostname:          s.Hostname,
		FQDN:              s.FQDN(),
		ManageEtcHosts:    true,
		SSHAuthorizedKeys: s.SSHKeys,
		Output: &Output{
			All: "| tee -a /var/log/cloud-init-output.log",
		},
	}

	yamlBytes, err := yaml.Marshal(&userData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal user-data to YAML: %w", err)
	}
	return "#cloud-config\n" + string(yamlBytes), nil
}

// GenerateMetaData returns meta-data. The instance-id is the hostname, so
// a rebuilt host with the same name is not treated as a first boot.
func GenerateMetaData(s *Seed) (string, error) {
	if s == nil {
		return "", fmt.Errorf("seed cannot be nil")
	}

	metaData := MetaData{
		InstanceID:    s.Hostname,
		LocalHostname: s.Hostname,
		Release:       s.Release,
	}

	yamlBytes, err := yaml.Marshal(&metaData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal meta-data to YAML: %w", err)
	}
	return string(yamlBytes), nil
}

// GenerateNetworkConfig returns a single-interface netplan document matched
// by MAC address.
func GenerateNetworkConfig(s *Seed) (string, error) {
	if s == nil {
		return "", fmt.Errorf("seed cannot be nil")
	}
	if err := s.Validate(); err != nil {
		return "", err
	}

	name := s.Interface
	if name == "" {
		name = "eth0"
	}
	eth := EthernetConfig{
		Match:     MatchConfig{MACAddress: s.MACAddress},
		SetName:   name,
		Addresses: []string{s.Address.String()},
	}
	if s.Gateway.IsValid() {
		eth.Routes = []RouteConfig{{To: "0.0.0.0/0", Via: s.Gateway.String()}}
	}
	if len(s.Nameservers) > 0 {
		ns := &Nameservers{}
		for _, a := range s.Nameservers {
			ns.Addresses = append(ns.Addresses, a.String())
		}
		if s.Domain != "" {
			ns.Search = []string{strings.TrimSuffix(s.Domain, ".")}
		}
		eth.Nameservers = ns
	}

	networkConfig := NetworkConfig{
		Version:   2,
		Ethernets: map[string]EthernetConfig{name: eth},
	}

	yamlBytes, err := yaml.Marshal(&networkConfig)
	if err != nil {
		return "", fmt.Errorf("failed to marshal network-config to YAML: %w", err)
	}
	return string(yamlBytes), nil
}
