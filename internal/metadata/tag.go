// Package metadata stores ailsa tags in libvirt domain metadata. A tag
// travels with the domain definition and tells the inventory sync which
// customer owns the domain and which server name to record it under.
package metadata

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/digitalocean/go-libvirt"
)

const (
	// Namespace is the XML namespace of the ailsa metadata element.
	Namespace = "https://github.com/jbweber/ailsa/v1"

	// Key is the namespace prefix libvirt writes the element under.
	Key = "ailsa"
)

// Tag is the metadata element. Empty fields fall back to the sync defaults.
type Tag struct {
	XMLName xml.Name `xml:"tag"`
	Xmlns   string   `xml:"xmlns,attr,omitempty"`
	Coid    string   `xml:"coid,attr,omitempty"`
	Server  string   `xml:"server,attr,omitempty"`
}

// Reader reads domain metadata. *libvirt.Libvirt satisfies it.
type Reader interface {
	DomainGetMetadata(Dom libvirt.Domain, Type int32, Uri libvirt.OptString, Flags libvirt.DomainModificationImpact) (string, error)
}

// Client reads and writes domain metadata. *libvirt.Libvirt satisfies it.
type Client interface {
	Reader
	DomainSetMetadata(Dom libvirt.Domain, Type int32, Metadata libvirt.OptString, Key libvirt.OptString, Uri libvirt.OptString, Flags libvirt.DomainModificationImpact) error
}

// Normalize upper-cases the coid and lower-cases the server name, matching
// how the inventory stores them.
func (t *Tag) Normalize() {
	t.Coid = strings.ToUpper(strings.TrimSpace(t.Coid))
	t.Server = strings.ToLower(strings.TrimSpace(t.Server))
}

// IsEmpty reports whether the tag carries nothing.
func (t *Tag) IsEmpty() bool {
	return t.Coid == "" && t.Server == ""
}

// Store writes tag to the domain, replacing any existing ailsa metadata.
func Store(l Client, dom libvirt.Domain, tag *Tag) error {
	if tag == nil {
		return fmt.Errorf("tag cannot be nil")
	}
	t := *tag
	t.Normalize()
	if t.IsEmpty() {
		return fmt.Errorf("tag for %s sets neither coid nor server", dom.Name)
	}
	t.Xmlns = Namespace

	data, err := xml.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal tag to XML: %w", err)
	}

	// flags 0 applies to the current state (live and config as appropriate)
	err = l.DomainSetMetadata(
		dom,
		int32(libvirt.DomainMetadataElement),
		libvirt.OptString{string(data)},
		libvirt.OptString{Key},
		libvirt.OptString{Namespace},
		libvirt.DomainModificationImpact(0),
	)
	if err != nil {
		return fmt.Errorf("failed to set libvirt domain metadata: %w", err)
	}
	return nil
}

// Load reads the domain's tag. It fails when the domain has none.
func Load(l Reader, dom libvirt.Domain) (*Tag, error) {
	xmlStr, err := l.DomainGetMetadata(
		dom,
		int32(libvirt.DomainMetadataElement),
		libvirt.OptString{Namespace},
		libvirt.DomainModificationImpact(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get libvirt domain metadata: %w", err)
	}

	var t Tag
	if err := xml.Unmarshal([]byte(xmlStr), &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tag XML: %w", err)
	}
	t.Normalize()
	return &t, nil
}

// Delete removes the ailsa metadata from a domain.
func Delete(l Client, dom libvirt.Domain) error {
	// An empty element removes the metadata.
	err := l.DomainSetMetadata(
		dom,
		int32(libvirt.DomainMetadataElement),
		libvirt.OptString{},
		libvirt.OptString{},
		libvirt.OptString{Namespace},
		libvirt.DomainModificationImpact(0),
	)
	if err != nil {
		return fmt.Errorf("failed to delete libvirt domain metadata: %w", err)
	}
	return nil
}
