package main

import (
	"fmt"
	"os"
	"strconv"

	golibvirt "github.com/digitalocean/go-libvirt"
	"github.com/spf13/cobra"

	"github.com/jbweber/ailsa/internal/inventory"
	"github.com/jbweber/ailsa/internal/libvirt"
	"github.com/jbweber/ailsa/internal/metadata"
	"github.com/jbweber/ailsa/internal/output"
	"github.com/jbweber/ailsa/internal/vmhost"
)

var vmhostCmd = &cobra.Command{
	Use:   "vmhost",
	Short: "Inspect a libvirt host and record its domains as servers",
}

var libvirtCmd = &cobra.Command{
	Use:   "libvirt",
	Short: "Libvirt connection utilities",
}

func init() {
	vmhostCmd.PersistentFlags().String("socket", "", "Libvirt socket (default from config)")
	vmhostCmd.AddCommand(vmhostListCmd)
	vmhostCmd.AddCommand(vmhostSyncCmd)
	vmhostCmd.AddCommand(vmhostTagCmd)
	vmhostCmd.AddCommand(vmhostUntagCmd)

	vmhostTagCmd.Flags().String("coid", "", "Customer the domain belongs to")
	vmhostTagCmd.Flags().String("server", "", "Inventory server name for the domain")

	vmhostSyncCmd.Flags().String("host", "", "Vendor recorded for new servers (default: hypervisor hostname)")
	vmhostSyncCmd.Flags().String("coid", "", "Customer to assign new servers to")
	vmhostSyncCmd.Flags().Bool("dry-run", false, "Show what would change without writing")

	libvirtCmd.AddCommand(libvirtTestConnCmd)
	libvirtTestConnCmd.Flags().String("socket", "", "Libvirt socket (default from config)")
}

// libvirtSocket returns --socket, falling back to the configured socket.
func libvirtSocket(cmd *cobra.Command) (string, error) {
	if s, _ := cmd.Flags().GetString("socket"); s != "" {
		return s, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Libvirt.Socket, nil
}

var vmhostListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the domains defined on the host",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		socket, err := libvirtSocket(cmd)
		if err != nil {
			return err
		}

		domains, err := vmhost.List(cmd.Context(), socket)
		if err != nil {
			return fmt.Errorf("failed to list domains: %w", err)
		}

		l := output.Listing{Kind: "domains", Headers: []string{"NAME", "STATE", "AUTOSTART", "VCPUS", "MEMORY", "SERVER", "UUID"}, Items: domains}
		for _, d := range domains {
			l.Rows = append(l.Rows, []string{
				d.Name,
				d.State,
				strconv.FormatBool(d.Autostart),
				strconv.FormatUint(uint64(d.VCPUs), 10),
				strconv.FormatFloat(d.MemoryGiB, 'g', -1, 64) + " GiB",
				d.Server,
				d.UUID,
			})
		}
		return printListing(l)
	},
}

var vmhostSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Record the host's domains in the inventory",
	Long: `Record every domain on the host as an inventory server.

Domains without a server of the same name are added. Servers whose CPU,
memory or UUID differ from the domain are updated.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openStore()
		if err != nil {
			return err
		}
		socket, _ := cmd.Flags().GetString("socket")
		if socket == "" {
			socket = cfg.Libvirt.Socket
		}

		flags := cmd.Flags()
		var opts vmhost.SyncOptions
		opts.Host, _ = flags.GetString("host")
		opts.Coid, _ = flags.GetString("coid")
		opts.DryRun, _ = flags.GetBool("dry-run")

		res, err := vmhost.Sync(cmd.Context(), socket, inventory.New(db), opts)
		if err != nil {
			return fmt.Errorf("failed to sync domains: %w", err)
		}

		if outputFormat != string(output.FormatTable) {
			return printListing(output.Listing{Kind: "sync results", Items: res})
		}

		l := output.Listing{Kind: "domains", Headers: []string{"SERVER", "ACTION"}}
		for _, n := range res.Added {
			l.Rows = append(l.Rows, []string{n, "added"})
		}
		for _, n := range res.Updated {
			l.Rows = append(l.Rows, []string{n, "updated"})
		}
		for _, n := range res.Unchanged {
			l.Rows = append(l.Rows, []string{n, "unchanged"})
		}
		if opts.DryRun {
			fmt.Println("Dry run: no changes written")
		}
		return printListing(l)
	},
}

// withDomain connects to the host and runs fn against the named domain.
func withDomain(cmd *cobra.Command, name string, fn func(c *libvirt.Client, dom golibvirt.Domain) error) error {
	socket, err := libvirtSocket(cmd)
	if err != nil {
		return err
	}

	client, err := libvirt.ConnectWithContext(cmd.Context(), socket, libvirt.DefaultTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to libvirt: %w", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close libvirt connection: %v\n", closeErr)
		}
	}()

	dom, err := client.Libvirt().DomainLookupByName(name)
	if err != nil {
		return fmt.Errorf("failed to find domain %s: %w", name, err)
	}
	return fn(client, dom)
}

var vmhostTagCmd = &cobra.Command{
	Use:   "tag <domain>",
	Short: "Attach an ailsa tag to a domain",
	Long: `Store the customer and inventory server name in the domain's metadata.

A later sync records the domain under the tagged server name and, for new
servers, assigns the tagged customer.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag := &metadata.Tag{}
		tag.Coid, _ = cmd.Flags().GetString("coid")
		tag.Server, _ = cmd.Flags().GetString("server")

		return withDomain(cmd, args[0], func(c *libvirt.Client, dom golibvirt.Domain) error {
			if err := metadata.Store(c.Libvirt(), dom, tag); err != nil {
				return err
			}
			fmt.Printf("✓ Tagged domain %s\n", args[0])
			return nil
		})
	},
}

var vmhostUntagCmd = &cobra.Command{
	Use:   "untag <domain>",
	Short: "Remove the ailsa tag from a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDomain(cmd, args[0], func(c *libvirt.Client, dom golibvirt.Domain) error {
			if err := metadata.Delete(c.Libvirt(), dom); err != nil {
				return err
			}
			fmt.Printf("✓ Removed tag from domain %s\n", args[0])
			return nil
		})
	},
}

var libvirtTestConnCmd = &cobra.Command{
	Use:   "test-conn",
	Short: "Test libvirt connection",
	Long:  `Test connectivity to the libvirt daemon and display version information.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		socket, err := libvirtSocket(cmd)
		if err != nil {
			return err
		}

		fmt.Println("Testing libvirt connection...")
		client, err := libvirt.ConnectWithContext(cmd.Context(), socket, libvirt.DefaultTimeout)
		if err != nil {
			return fmt.Errorf("failed to connect to libvirt: %w", err)
		}
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close libvirt connection: %v\n", closeErr)
			}
		}()

		fmt.Println("✓ Connected to libvirt daemon")

		if err := client.Ping(); err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}

		version, err := client.Version()
		if err != nil {
			return err
		}
		fmt.Printf("✓ Libvirt version: %s\n", version)

		hostname, err := client.Hostname()
		if err != nil {
			return err
		}
		fmt.Printf("✓ Hypervisor hostname: %s\n", hostname)

		fmt.Println("\nConnection test successful!")
		return nil
	},
}
