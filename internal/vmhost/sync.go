package vmhost

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/jbweber/ailsa/internal/container"
	"github.com/jbweber/ailsa/internal/inventory"
	ailsalibvirt "github.com/jbweber/ailsa/internal/libvirt"
)

// MakeLibvirt is recorded as the make of servers created by a sync.
const MakeLibvirt = "libvirt"

// serverBuckets sizes the name table built from the inventory.
const serverBuckets = 127

// SyncOptions controls a sync.
type SyncOptions struct {
	// Host is recorded as the vendor of new servers. Empty uses the
	// hostname the daemon reports.
	Host string
	// Coid assigns new untagged servers to a customer.
	Coid string
	// DryRun reports what would change without writing.
	DryRun bool
}

// SyncResult names the servers a sync touched.
type SyncResult struct {
	Added     []string `json:"added" yaml:"added"`
	Updated   []string `json:"updated" yaml:"updated"`
	Unchanged []string `json:"unchanged" yaml:"unchanged"`
}

// Sync records every domain on the daemon at socket as an inventory server.
// Unknown domains are added; known ones get their CPU, memory and UUID
// refreshed when they differ. A domain's ailsa tag overrides the server name
// and the customer of a new server.
func Sync(ctx context.Context, socket string, inv *inventory.Service, opts SyncOptions) (*SyncResult, error) {
	client, err := ailsalibvirt.ConnectWithContext(ctx, socket, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to libvirt: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("Warning: failed to close libvirt connection: %v", err)
		}
	}()

	if opts.Host == "" {
		host, err := client.Hostname()
		if err != nil {
			return nil, fmt.Errorf("failed to get libvirt hostname: %w", err)
		}
		opts.Host = host
	}

	return syncWithDeps(ctx, client.Libvirt(), inv, opts)
}

// syncWithDeps performs the sync with injected dependencies.
func syncWithDeps(ctx context.Context, lv libvirtClient, inv serverStore, opts SyncOptions) (*SyncResult, error) {
	domains, err := listWithDeps(ctx, lv)
	if err != nil {
		return nil, err
	}

	servers, err := inv.Servers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load servers: %w", err)
	}
	known, err := container.NewTable(serverBuckets, container.StringHash,
		func(name string, sv inventory.Server) bool { return sv.Name == name }, nil)
	if err != nil {
		return nil, err
	}
	defer known.Destroy()
	for _, sv := range servers {
		if err := known.Insert(sv, sv.Name); err != nil {
			return nil, fmt.Errorf("failed to index server %s: %w", sv.Name, err)
		}
	}

	res := &SyncResult{}
	for _, d := range domains {
		name := d.Server
		if name == "" {
			name = strings.ToLower(d.Name)
		}
		coid := d.Coid
		if coid == "" {
			coid = opts.Coid
		}
		vcpus, err := toVCPUs(d.VCPUs)
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", d.Name, err)
		}

		sv, ok := known.Lookup(name)
		if !ok {
			if !opts.DryRun {
				err := inv.AddServer(ctx, inventory.Server{
					Name:      name,
					Make:      MakeLibvirt,
					Model:     d.Arch,
					Vendor:    opts.Host,
					UUID:      d.UUID,
					Coid:      coid,
					VCPUs:     vcpus,
					MemoryGiB: d.MemoryGiB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to add domain %s: %w", d.Name, err)
				}
			}
			res.Added = append(res.Added, name)
			continue
		}

		if sv.VCPUs == vcpus && sv.MemoryGiB == d.MemoryGiB && strings.EqualFold(sv.UUID, d.UUID) {
			res.Unchanged = append(res.Unchanged, name)
			continue
		}
		if !opts.DryRun {
			if _, err := inv.UpdateResources(ctx, name, vcpus, d.MemoryGiB, d.UUID); err != nil {
				return nil, fmt.Errorf("failed to update domain %s: %w", d.Name, err)
			}
		}
		res.Updated = append(res.Updated, name)
	}

	log.Printf("Synced %d domains: %d added, %d updated, %d unchanged",
		len(domains), len(res.Added), len(res.Updated), len(res.Unchanged))
	return res, nil
}

func toVCPUs(n uint) (int16, error) {
	if n > math.MaxInt16 {
		return 0, fmt.Errorf("vcpu count %d out of range", n)
	}
	return int16(n), nil
}
