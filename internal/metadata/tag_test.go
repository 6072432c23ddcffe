package metadata

import (
	"errors"
	"strings"
	"testing"

	"github.com/digitalocean/go-libvirt"
)

// mockLibvirtClient is a mock implementation of Client for testing.
type mockLibvirtClient struct {
	// For controlling behavior
	setMetadataError error
	getMetadataError error
	getMetadataValue string

	// For verification
	lastSetMetadata  libvirt.OptString
	lastSetKey       libvirt.OptString
	lastSetURI       string
	setMetadataCalls int
	getMetadataCalls int
}

func (m *mockLibvirtClient) DomainSetMetadata(
	dom libvirt.Domain,
	typ int32,
	metadata libvirt.OptString,
	key libvirt.OptString,
	uri libvirt.OptString,
	flags libvirt.DomainModificationImpact,
) error {
	m.setMetadataCalls++
	m.lastSetMetadata = metadata
	m.lastSetKey = key
	if len(uri) > 0 {
		m.lastSetURI = uri[0]
	}
	if m.setMetadataError == nil && len(metadata) > 0 {
		// Behave like libvirt: later reads return the stored element.
		m.getMetadataValue = metadata[0]
	}
	return m.setMetadataError
}

func (m *mockLibvirtClient) DomainGetMetadata(
	dom libvirt.Domain,
	typ int32,
	uri libvirt.OptString,
	flags libvirt.DomainModificationImpact,
) (string, error) {
	m.getMetadataCalls++
	return m.getMetadataValue, m.getMetadataError
}

var testDomain = libvirt.Domain{Name: "web01"}

func TestStore(t *testing.T) {
	mock := &mockLibvirtClient{}

	if err := Store(mock, testDomain, &Tag{Coid: " acme ", Server: "Web01.Example.com"}); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	if mock.setMetadataCalls != 1 {
		t.Fatalf("expected 1 DomainSetMetadata call, got %d", mock.setMetadataCalls)
	}
	if mock.lastSetURI != Namespace {
		t.Errorf("uri = %q, want %q", mock.lastSetURI, Namespace)
	}
	if len(mock.lastSetKey) != 1 || mock.lastSetKey[0] != Key {
		t.Errorf("key = %v, want [%s]", mock.lastSetKey, Key)
	}

	xml := mock.lastSetMetadata[0]
	for _, want := range []string{`<tag`, `xmlns="` + Namespace + `"`, `coid="ACME"`, `server="web01.example.com"`} {
		if !strings.Contains(xml, want) {
			t.Errorf("metadata %s missing %s", xml, want)
		}
	}
}

func TestStore_Errors(t *testing.T) {
	tests := []struct {
		name    string
		tag     *Tag
		setErr  error
		wantErr string
	}{
		{name: "nil tag", tag: nil, wantErr: "nil"},
		{name: "empty tag", tag: &Tag{Coid: "  "}, wantErr: "neither coid nor server"},
		{name: "libvirt error", tag: &Tag{Coid: "ACME"}, setErr: errors.New("domain is read-only"), wantErr: "failed to set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockLibvirtClient{setMetadataError: tt.setErr}
			err := Store(mock, testDomain, tt.tag)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Store() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		getErr  error
		want    Tag
		wantErr bool
	}{
		{
			name:  "as returned by libvirt",
			value: `<tag xmlns="https://github.com/jbweber/ailsa/v1" coid="acme" server="WEB01"/>`,
			want:  Tag{Coid: "ACME", Server: "web01"},
		},
		{
			name:  "coid only",
			value: `<tag coid="ACME"></tag>`,
			want:  Tag{Coid: "ACME"},
		},
		{name: "no metadata", getErr: errors.New("metadata not found"), wantErr: true},
		{name: "corrupted", value: `<tag coid="ACME"`, wantErr: true},
		{name: "wrong element", value: `<server name="web01"/>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockLibvirtClient{getMetadataValue: tt.value, getMetadataError: tt.getErr}
			got, err := Load(mock, testDomain)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got.Coid != tt.want.Coid || got.Server != tt.want.Server {
				t.Errorf("Load() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRoundTrip_StoreAndLoad(t *testing.T) {
	mock := &mockLibvirtClient{}

	if err := Store(mock, testDomain, &Tag{Coid: "ACME", Server: "web01"}); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	got, err := Load(mock, testDomain)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Coid != "ACME" || got.Server != "web01" {
		t.Errorf("round trip = %+v", got)
	}
}

func TestDelete(t *testing.T) {
	mock := &mockLibvirtClient{}
	if err := Delete(mock, testDomain); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if mock.setMetadataCalls != 1 || len(mock.lastSetMetadata) != 0 {
		t.Errorf("Delete() should set empty metadata, got %v", mock.lastSetMetadata)
	}

	mock = &mockLibvirtClient{setMetadataError: errors.New("boom")}
	if err := Delete(mock, testDomain); err == nil {
		t.Error("expected error, got nil")
	}
}
