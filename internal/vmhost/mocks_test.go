package vmhost

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/ailsa/internal/inventory"
)

// mockLibvirtClient is a mock implementation of the libvirtClient interface for testing.
type mockLibvirtClient struct {
	mu sync.Mutex

	// Configurable behavior
	connectListAllDomainsFunc func(needResults int32, flags libvirt.ConnectListAllDomainsFlags) ([]libvirt.Domain, uint32, error)
	domainGetStateFunc        func(dom libvirt.Domain, flags uint32) (int32, int32, error)
	domainGetAutostartFunc    func(dom libvirt.Domain) (int32, error)
	domainGetXMLDescFunc      func(dom libvirt.Domain, flags libvirt.DomainXMLFlags) (string, error)
	domainGetMetadataFunc     func(dom libvirt.Domain) (string, error)

	// Call tracking
	connectListAllDomainsCalls int
	domainGetXMLDescCalls      []string
}

// newMockLibvirtClient creates a mock with no domains.
func newMockLibvirtClient() *mockLibvirtClient {
	m := &mockLibvirtClient{}

	m.connectListAllDomainsFunc = func(needResults int32, flags libvirt.ConnectListAllDomainsFlags) ([]libvirt.Domain, uint32, error) {
		return nil, 0, nil
	}

	// Default: running
	m.domainGetStateFunc = func(dom libvirt.Domain, flags uint32) (int32, int32, error) {
		return int32(libvirt.DomainRunning), 0, nil
	}

	m.domainGetAutostartFunc = func(dom libvirt.Domain) (int32, error) {
		return 0, nil
	}

	// Default: a 2 vCPU, 4 GiB domain named after the handle
	m.domainGetXMLDescFunc = func(dom libvirt.Domain, flags libvirt.DomainXMLFlags) (string, error) {
		return domainXML(dom.Name, fmt.Sprintf("4dea22b3-1d52-d8f3-2516-%012x", len(dom.Name)), 2, 4194304), nil
	}

	// Default: no ailsa tag
	m.domainGetMetadataFunc = func(dom libvirt.Domain) (string, error) {
		return "", fmt.Errorf("metadata not found: Requested metadata element is not present")
	}

	return m
}

// withDomains makes the mock list the named domains.
func (m *mockLibvirtClient) withDomains(names ...string) *mockLibvirtClient {
	m.connectListAllDomainsFunc = func(needResults int32, flags libvirt.ConnectListAllDomainsFlags) ([]libvirt.Domain, uint32, error) {
		doms := make([]libvirt.Domain, 0, len(names))
		for i, n := range names {
			doms = append(doms, libvirt.Domain{Name: n, ID: int32(i + 1)})
		}
		return doms, uint32(len(doms)), nil
	}
	return m
}

func (m *mockLibvirtClient) ConnectListAllDomains(needResults int32, flags libvirt.ConnectListAllDomainsFlags) ([]libvirt.Domain, uint32, error) {
	m.mu.Lock()
	m.connectListAllDomainsCalls++
	m.mu.Unlock()
	return m.connectListAllDomainsFunc(needResults, flags)
}

func (m *mockLibvirtClient) DomainGetState(dom libvirt.Domain, flags uint32) (int32, int32, error) {
	return m.domainGetStateFunc(dom, flags)
}

func (m *mockLibvirtClient) DomainGetAutostart(dom libvirt.Domain) (int32, error) {
	return m.domainGetAutostartFunc(dom)
}

func (m *mockLibvirtClient) DomainGetXMLDesc(dom libvirt.Domain, flags libvirt.DomainXMLFlags) (string, error) {
	m.mu.Lock()
	m.domainGetXMLDescCalls = append(m.domainGetXMLDescCalls, dom.Name)
	m.mu.Unlock()
	return m.domainGetXMLDescFunc(dom, flags)
}

func (m *mockLibvirtClient) DomainGetMetadata(dom libvirt.Domain, typ int32, uri libvirt.OptString, flags libvirt.DomainModificationImpact) (string, error) {
	return m.domainGetMetadataFunc(dom)
}

func domainXML(name, uuid string, vcpus int, memKiB uint64) string {
	return fmt.Sprintf(`<domain type='kvm'>
  <name>%s</name>
  <uuid>%s</uuid>
  <memory unit='KiB'>%d</memory>
  <vcpu>%d</vcpu>
  <os><type arch='x86_64' machine='q35'>hvm</type></os>
  <devices>
    <interface type='bridge'><mac address='be:ef:0a:00:00:03'/><source bridge='br0'/></interface>
  </devices>
</domain>`, name, uuid, memKiB, vcpus)
}

// mockServerStore is an in-memory serverStore.
type mockServerStore struct {
	mu sync.Mutex

	serversFunc func(ctx context.Context) ([]inventory.Server, error)
	addErr      error
	updateErr   error

	servers     []inventory.Server
	addCalls    []inventory.Server
	updateCalls []string
}

func newMockServerStore(servers ...inventory.Server) *mockServerStore {
	m := &mockServerStore{servers: servers}
	m.serversFunc = func(ctx context.Context) ([]inventory.Server, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		return append([]inventory.Server(nil), m.servers...), nil
	}
	return m
}

func (m *mockServerStore) Servers(ctx context.Context) ([]inventory.Server, error) {
	return m.serversFunc(ctx)
}

func (m *mockServerStore) AddServer(ctx context.Context, sv inventory.Server) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCalls = append(m.addCalls, sv)
	if m.addErr != nil {
		return m.addErr
	}
	m.servers = append(m.servers, sv)
	return nil
}

func (m *mockServerStore) UpdateResources(ctx context.Context, name string, vcpus int16, memoryGiB float64, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls = append(m.updateCalls, name)
	if m.updateErr != nil {
		return 0, m.updateErr
	}
	for i := range m.servers {
		if m.servers[i].Name == name {
			m.servers[i].VCPUs = vcpus
			m.servers[i].MemoryGiB = memoryGiB
			m.servers[i].UUID = id
			return 1, nil
		}
	}
	return 0, nil
}

// mockVolumeClient is an in-memory storage pool for seed uploads.
type mockVolumeClient struct {
	mu sync.Mutex

	pools     map[string]map[string][]byte
	createErr error
	uploadErr error

	lastXML     string
	deleteCalls int
}

func newMockVolumeClient(pools ...string) *mockVolumeClient {
	m := &mockVolumeClient{pools: make(map[string]map[string][]byte)}
	for _, p := range pools {
		m.pools[p] = make(map[string][]byte)
	}
	return m
}

func (m *mockVolumeClient) StoragePoolLookupByName(name string) (libvirt.StoragePool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pools[name]; !ok {
		return libvirt.StoragePool{}, fmt.Errorf("storage pool not found: %s", name)
	}
	return libvirt.StoragePool{Name: name}, nil
}

func (m *mockVolumeClient) StoragePoolRefresh(pool libvirt.StoragePool, flags uint32) error {
	return nil
}

func (m *mockVolumeClient) StorageVolLookupByName(pool libvirt.StoragePool, name string) (libvirt.StorageVol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pools[pool.Name][name]; !ok {
		return libvirt.StorageVol{}, fmt.Errorf("storage volume not found: %s", name)
	}
	return libvirt.StorageVol{Pool: pool.Name, Name: name, Key: "/var/lib/libvirt/" + pool.Name + "/" + name}, nil
}

func (m *mockVolumeClient) StorageVolCreateXML(pool libvirt.StoragePool, xml string, flags libvirt.StorageVolCreateFlags) (libvirt.StorageVol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastXML = xml
	if m.createErr != nil {
		return libvirt.StorageVol{}, m.createErr
	}
	start := strings.Index(xml, "<name>") + len("<name>")
	name := xml[start : start+strings.Index(xml[start:], "</name>")]
	if _, ok := m.pools[pool.Name][name]; ok {
		return libvirt.StorageVol{}, fmt.Errorf("storage volume already exists: %s", name)
	}
	m.pools[pool.Name][name] = nil
	return libvirt.StorageVol{Pool: pool.Name, Name: name, Key: "/var/lib/libvirt/" + pool.Name + "/" + name}, nil
}

func (m *mockVolumeClient) StorageVolDelete(vol libvirt.StorageVol, flags libvirt.StorageVolDeleteFlags) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	delete(m.pools[vol.Pool], vol.Name)
	return nil
}

func (m *mockVolumeClient) StorageVolGetPath(vol libvirt.StorageVol) (string, error) {
	return vol.Key, nil
}

func (m *mockVolumeClient) StorageVolUpload(vol libvirt.StorageVol, r io.Reader, offset, length uint64, flags libvirt.StorageVolUploadFlags) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if uint64(len(data)) != length {
		return fmt.Errorf("short upload: %d of %d bytes", len(data), length)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[vol.Pool][vol.Name] = data
	return nil
}
