package vmhost

import (
	"context"
	"io"

	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/ailsa/internal/inventory"
	"github.com/jbweber/ailsa/internal/metadata"
)

// libvirtClient is the subset of *libvirt.Libvirt used to read domains.
//
// In production, this is satisfied by *libvirt.Libvirt directly.
// In tests, this is satisfied by mock implementations.
type libvirtClient interface {
	// ConnectListAllDomains lists active and inactive domains
	ConnectListAllDomains(NeedResults int32, Flags libvirt.ConnectListAllDomainsFlags) ([]libvirt.Domain, uint32, error)

	// DomainGetState gets the state of a domain
	DomainGetState(Dom libvirt.Domain, Flags uint32) (int32, int32, error)

	// DomainGetAutostart reports whether a domain starts with the host
	DomainGetAutostart(Dom libvirt.Domain) (int32, error)

	// DomainGetXMLDesc returns the domain definition
	DomainGetXMLDesc(Dom libvirt.Domain, Flags libvirt.DomainXMLFlags) (string, error)

	// DomainGetMetadata reads the ailsa tag
	metadata.Reader
}

// serverStore is the subset of *inventory.Service the sync writes through.
type serverStore interface {
	Servers(ctx context.Context) ([]inventory.Server, error)
	AddServer(ctx context.Context, sv inventory.Server) error
	UpdateResources(ctx context.Context, name string, vcpus int16, memoryGiB float64, id string) (int64, error)
}

// volumeClient is the subset of *libvirt.Libvirt used to place seed ISOs in
// a storage pool.
type volumeClient interface {
	StoragePoolLookupByName(Name string) (libvirt.StoragePool, error)
	StoragePoolRefresh(Pool libvirt.StoragePool, Flags uint32) error
	StorageVolLookupByName(Pool libvirt.StoragePool, Name string) (libvirt.StorageVol, error)
	StorageVolCreateXML(Pool libvirt.StoragePool, XML string, Flags libvirt.StorageVolCreateFlags) (libvirt.StorageVol, error)
	StorageVolDelete(Vol libvirt.StorageVol, Flags libvirt.StorageVolDeleteFlags) error
	StorageVolGetPath(Vol libvirt.StorageVol) (string, error)
	StorageVolUpload(Vol libvirt.StorageVol, outStream io.Reader, Offset uint64, Length uint64, Flags libvirt.StorageVolUploadFlags) error
}
