package vmhost

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	libvirtxml "libvirt.org/go/libvirtxml"

	ailsalibvirt "github.com/jbweber/ailsa/internal/libvirt"
)

// qemuID owns seed volumes so the hypervisor can read them.
const qemuID = "107"

// UploadSeed stores a seed ISO as volume name in pool on the daemon at
// socket, replacing any volume of the same name. It returns the volume path.
func UploadSeed(ctx context.Context, socket, pool, name string, iso []byte) (string, error) {
	client, err := ailsalibvirt.ConnectWithContext(ctx, socket, 0)
	if err != nil {
		return "", fmt.Errorf("failed to connect to libvirt: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("Warning: failed to close libvirt connection: %v", err)
		}
	}()

	return uploadSeedWithDeps(ctx, client.Libvirt(), pool, name, iso)
}

// uploadSeedWithDeps performs the upload with injected dependencies.
func uploadSeedWithDeps(ctx context.Context, lv volumeClient, pool, name string, iso []byte) (string, error) {
	if pool == "" || name == "" {
		return "", fmt.Errorf("pool and volume name are required")
	}
	if len(iso) == 0 {
		return "", fmt.Errorf("seed ISO is empty")
	}

	p, err := lv.StoragePoolLookupByName(pool)
	if err != nil {
		return "", fmt.Errorf("pool not found: %w", err)
	}

	if old, err := lv.StorageVolLookupByName(p, name); err == nil {
		log.Printf("Replacing existing volume %s in pool %s", name, pool)
		if err := lv.StorageVolDelete(old, 0); err != nil {
			return "", fmt.Errorf("failed to delete existing volume: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	volXML, err := seedVolumeXML(name, uint64(len(iso)))
	if err != nil {
		return "", fmt.Errorf("failed to generate volume XML: %w", err)
	}
	vol, err := lv.StorageVolCreateXML(p, volXML, 0)
	if err != nil {
		return "", fmt.Errorf("failed to create volume: %w", err)
	}

	if err := lv.StorageVolUpload(vol, bytes.NewReader(iso), 0, uint64(len(iso)), 0); err != nil {
		return "", fmt.Errorf("failed to upload data to volume: %w", err)
	}

	// Pool stats are stale until refreshed; not fatal.
	if err := lv.StoragePoolRefresh(p, 0); err != nil {
		log.Printf("Warning: failed to refresh pool %s: %v", pool, err)
	}

	path, err := lv.StorageVolGetPath(vol)
	if err != nil {
		return "", fmt.Errorf("failed to get volume path: %w", err)
	}
	return path, nil
}

func seedVolumeXML(name string, size uint64) (string, error) {
	vol := &libvirtxml.StorageVolume{
		Type: "file",
		Name: name,
		Capacity: &libvirtxml.StorageVolumeSize{
			Value: size,
			Unit:  "B",
		},
		Target: &libvirtxml.StorageVolumeTarget{
			Format: &libvirtxml.StorageVolumeTargetFormat{Type: "raw"},
			Permissions: &libvirtxml.StorageVolumeTargetPermissions{
				Owner: qemuID,
				Group: qemuID,
				Mode:  "0644",
			},
		},
	}

	out, err := vol.Marshal()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.TrimPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`)), nil
}
