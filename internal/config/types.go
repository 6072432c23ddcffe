package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Engine identifiers accepted in database.engine.
const (
	EngineNone   = "none"
	EngineMySQL  = "mysql"
	EngineSQLite = "sqlite"
	EngineDuckDB = "duckdb"
)

// Defaults applied by Normalize.
const (
	DefaultMySQLPort     = 3306
	DefaultLibvirtSocket = "/var/run/libvirt/libvirt-sock"
	DefaultRefresh       = 604800
	DefaultRetry         = 86400
	DefaultExpire        = 2419200
	DefaultTTL           = 604800
)

// Config is the complete ailsa configuration.
type Config struct {
	Database Database      `yaml:"database"`
	DNS      DNSConfig     `yaml:"dns,omitempty"`
	Libvirt  LibvirtConfig `yaml:"libvirt,omitempty"`
}

// Database holds the connection parameters handed to the query layer.
type Database struct {
	Engine string `yaml:"engine"`           // mysql, sqlite, duckdb or none
	Host   string `yaml:"host,omitempty"`   // MySQL host (ignored when socket is set)
	Port   int    `yaml:"port,omitempty"`   // MySQL port (default: 3306)
	User   string `yaml:"user,omitempty"`   // MySQL user
	Pass   string `yaml:"pass,omitempty"`   // MySQL password
	DB     string `yaml:"db,omitempty"`     // MySQL database name
	Socket string `yaml:"socket,omitempty"` // MySQL unix socket path
	File   string `yaml:"file,omitempty"`   // SQLite or DuckDB database file
}

// DNSConfig holds defaults for new zones.
type DNSConfig struct {
	Primary   string `yaml:"primary,omitempty"`
	Secondary string `yaml:"secondary,omitempty"`
	Refresh   int64  `yaml:"refresh,omitempty"`
	Retry     int64  `yaml:"retry,omitempty"`
	Expire    int64  `yaml:"expire,omitempty"`
	TTL       int64  `yaml:"ttl,omitempty"`
}

// LibvirtConfig locates the libvirt daemon used by the inventory sync.
type LibvirtConfig struct {
	Socket string `yaml:"socket,omitempty"`
}

var hostnamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)

// Normalize sanitizes user input and fills defaults.
// This is called automatically by LoadFromFile before validation.
func (c *Config) Normalize() {
	c.Database.Normalize()

	c.DNS.Primary = strings.ToLower(strings.TrimSpace(c.DNS.Primary))
	c.DNS.Secondary = strings.ToLower(strings.TrimSpace(c.DNS.Secondary))
	if c.DNS.Refresh == 0 {
		c.DNS.Refresh = DefaultRefresh
	}
	if c.DNS.Retry == 0 {
		c.DNS.Retry = DefaultRetry
	}
	if c.DNS.Expire == 0 {
		c.DNS.Expire = DefaultExpire
	}
	if c.DNS.TTL == 0 {
		c.DNS.TTL = DefaultTTL
	}

	if c.Libvirt.Socket == "" {
		c.Libvirt.Socket = DefaultLibvirtSocket
	}
}

// Normalize lowercases the engine identifier and applies the MySQL port
// default. An empty engine becomes "none".
func (d *Database) Normalize() {
	d.Engine = strings.ToLower(strings.TrimSpace(d.Engine))
	if d.Engine == "" {
		d.Engine = EngineNone
	}
	d.Host = strings.TrimSpace(d.Host)
	if d.Engine == EngineMySQL && d.Port == 0 {
		d.Port = DefaultMySQLPort
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.DNS.Validate(); err != nil {
		return fmt.Errorf("dns: %w", err)
	}
	return nil
}

// Validate checks the fields each known engine requires. The engine name
// itself is not checked here: selecting "none" or an unknown engine is
// reported by the store when a query is dispatched.
func (d *Database) Validate() error {
	switch d.Engine {
	case EngineMySQL:
		if d.Host == "" && d.Socket == "" {
			return fmt.Errorf("mysql requires host or socket")
		}
		if d.User == "" {
			return fmt.Errorf("mysql requires user")
		}
		if d.DB == "" {
			return fmt.Errorf("mysql requires db")
		}
		if d.Port < 0 || d.Port > 65535 {
			return fmt.Errorf("port must be between 0 and 65535, got %d", d.Port)
		}
	case EngineSQLite, EngineDuckDB:
		if d.File == "" {
			return fmt.Errorf("%s requires file", d.Engine)
		}
	}
	return nil
}

// Validate checks DNS defaults. Fields are checked in declaration order so
// the first invalid one is always the one reported.
func (n *DNSConfig) Validate() error {
	hosts := []struct {
		name, host string
	}{
		{"primary", n.Primary},
		{"secondary", n.Secondary},
	}
	for _, h := range hosts {
		if h.host != "" && !hostnamePattern.MatchString(strings.TrimSuffix(h.host, ".")) {
			return fmt.Errorf("%s must be a valid hostname, got %q", h.name, h.host)
		}
	}

	timers := []struct {
		name string
		v    int64
	}{
		{"refresh", n.Refresh},
		{"retry", n.Retry},
		{"expire", n.Expire},
		{"ttl", n.TTL},
	}
	for _, tm := range timers {
		if tm.v < 0 {
			return fmt.Errorf("%s must be >= 0, got %d", tm.name, tm.v)
		}
	}
	return nil
}

// LoadFromFile loads a configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromYAML(data)
}

// LoadFromYAML loads a configuration from YAML bytes.
func LoadFromYAML(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Normalize user input before validation
	config.Normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// DefaultPath returns the configuration file used when none is given:
// $AILSA_CONFIG if set, otherwise ~/.ailsa.yaml.
func DefaultPath() string {
	if p := os.Getenv("AILSA_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ailsa.yaml"
	}
	return filepath.Join(home, ".ailsa.yaml")
}
