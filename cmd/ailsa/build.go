package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jbweber/ailsa/internal/build"
	"github.com/jbweber/ailsa/internal/cloudinit"
	"github.com/jbweber/ailsa/internal/output"
	"github.com/jbweber/ailsa/internal/vmhost"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Manage server build configuration",
	Long: `Manage how servers are built: build domains (address ranges), operating
systems, varients, per-server build configuration, SSH keys and the
cloud-init seed handed to the installer.`,
}

var buildDomainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Manage build domains",
}

var buildOSCmd = &cobra.Command{
	Use:   "os",
	Short: "Manage buildable operating systems",
}

var buildVarientCmd = &cobra.Command{
	Use:   "varient",
	Short: "Manage build varients",
}

var buildSSHKeyCmd = &cobra.Command{
	Use:   "sshkey",
	Short: "Manage SSH keys installed at build time",
}

func init() {
	buildCmd.AddCommand(buildDomainCmd)
	buildCmd.AddCommand(buildOSCmd)
	buildCmd.AddCommand(buildVarientCmd)
	buildCmd.AddCommand(buildSSHKeyCmd)
	buildCmd.AddCommand(buildAddCmd)
	buildCmd.AddCommand(buildListCmd)
	buildCmd.AddCommand(buildShowCmd)
	buildCmd.AddCommand(buildRemoveCmd)
	buildCmd.AddCommand(buildSetVarientCmd)
	buildCmd.AddCommand(buildIPCmd)
	buildCmd.AddCommand(buildSeedCmd)

	buildDomainCmd.AddCommand(buildDomainAddCmd)
	buildDomainCmd.AddCommand(buildDomainListCmd)
	buildDomainAddCmd.Flags().String("start", "", "First address of the range (required)")
	buildDomainAddCmd.Flags().String("end", "", "Last address of the range (required)")
	buildDomainAddCmd.Flags().String("netmask", "", "Network mask, e.g. 255.255.255.0 (required)")
	buildDomainAddCmd.Flags().String("gateway", "", "Default gateway")
	buildDomainAddCmd.Flags().String("nameserver", "", "Name server")
	buildDomainAddCmd.Flags().String("ntp", "", "NTP server")
	_ = buildDomainAddCmd.MarkFlagRequired("start")
	_ = buildDomainAddCmd.MarkFlagRequired("end")
	_ = buildDomainAddCmd.MarkFlagRequired("netmask")

	buildOSCmd.AddCommand(buildOSAddCmd)
	buildOSCmd.AddCommand(buildOSListCmd)
	buildOSAddCmd.Flags().String("name", "", "Display name, e.g. Debian (required)")
	buildOSAddCmd.Flags().String("arch", "x86_64", "Architecture")
	_ = buildOSAddCmd.MarkFlagRequired("name")

	buildVarientCmd.AddCommand(buildVarientAddCmd)
	buildVarientCmd.AddCommand(buildVarientListCmd)
	buildVarientCmd.AddCommand(buildVarientRemoveCmd)
	buildVarientAddCmd.Flags().String("name", "", "Display name (required)")
	_ = buildVarientAddCmd.MarkFlagRequired("name")

	buildSSHKeyCmd.AddCommand(buildSSHKeyAddCmd)
	buildSSHKeyCmd.AddCommand(buildSSHKeyListCmd)
	buildSSHKeyCmd.AddCommand(buildSSHKeyRemoveCmd)

	buildAddCmd.Flags().String("domain", "", "Build domain to allocate an address from")
	buildAddCmd.Flags().String("os", "", "OS alias (required)")
	buildAddCmd.Flags().String("os-version", "", "OS version (required)")
	buildAddCmd.Flags().String("arch", "x86_64", "Architecture")
	buildAddCmd.Flags().String("varient", "", "Varient alias (required)")
	buildAddCmd.Flags().String("mac", "", "MAC address (derived from the address when empty)")
	buildAddCmd.Flags().String("interface", build.DefaultInterface, "Network interface")
	_ = buildAddCmd.MarkFlagRequired("os")
	_ = buildAddCmd.MarkFlagRequired("os-version")
	_ = buildAddCmd.MarkFlagRequired("varient")

	buildSeedCmd.Flags().String("dir", ".", "Directory to write the seed ISO to")
	buildSeedCmd.Flags().String("pool", "", "Upload the seed ISO to this libvirt storage pool instead")
	buildSeedCmd.Flags().String("socket", "", "Libvirt socket for --pool (default from config)")
}

var buildDomainAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a build domain",
	Long: `Add a build domain: a DNS domain and the address range hosts built into
it are allocated from.

Example:
  ailsa build domain add lab.example.com --start 10.0.0.10 --end 10.0.0.99 \
      --netmask 255.255.255.0 --gateway 10.0.0.1 --nameserver 10.0.0.2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		start, _ := flags.GetString("start")
		end, _ := flags.GetString("end")
		netmask, _ := flags.GetString("netmask")
		gateway, _ := flags.GetString("gateway")
		nameserver, _ := flags.GetString("nameserver")
		ntp, _ := flags.GetString("ntp")

		d, err := build.ParseDomain(args[0], start, end, netmask, gateway, nameserver, ntp)
		if err != nil {
			return err
		}

		_, db, err := openStore()
		if err != nil {
			return err
		}
		if err := build.New(db).AddDomain(cmd.Context(), d); err != nil {
			return fmt.Errorf("failed to add build domain: %w", err)
		}

		fmt.Printf("✓ Build domain %s added\n", d.Name)
		return nil
	},
}

var buildDomainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List build domains",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		domains, err := build.New(db).Domains(cmd.Context())
		if err != nil {
			return err
		}

		l := output.Listing{Kind: "build domains", Headers: []string{"NAME", "START", "END", "NETMASK", "GATEWAY", "NAMESERVER"}, Items: domains}
		for _, d := range domains {
			l.Rows = append(l.Rows, []string{d.Name, addrString(d.Start), addrString(d.End), addrString(d.Netmask), addrString(d.Gateway), addrString(d.Nameserver)})
		}
		return printListing(l)
	},
}

var buildOSAddCmd = &cobra.Command{
	Use:   "add <alias> <version>",
	Short: "Add an operating system release",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		o := build.OS{Alias: args[0], Version: args[1]}
		o.Name, _ = cmd.Flags().GetString("name")
		o.Arch, _ = cmd.Flags().GetString("arch")
		if err := build.New(db).AddOS(cmd.Context(), o); err != nil {
			return fmt.Errorf("failed to add OS: %w", err)
		}

		fmt.Printf("✓ OS %s added\n", o.Release())
		return nil
	},
}

var buildOSListCmd = &cobra.Command{
	Use:   "list",
	Short: "List operating systems",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		oses, err := build.New(db).OSes(cmd.Context())
		if err != nil {
			return err
		}

		l := output.Listing{Kind: "operating systems", Headers: []string{"ALIAS", "VERSION", "ARCH", "NAME"}, Items: oses}
		for _, o := range oses {
			l.Rows = append(l.Rows, []string{o.Alias, o.Version, o.Arch, o.Name})
		}
		return printListing(l)
	},
}

var buildVarientAddCmd = &cobra.Command{
	Use:   "add <alias>",
	Short: "Add a varient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		v := build.Varient{Alias: args[0]}
		v.Name, _ = cmd.Flags().GetString("name")
		if err := build.New(db).AddVarient(cmd.Context(), v); err != nil {
			return fmt.Errorf("failed to add varient: %w", err)
		}

		fmt.Printf("✓ Varient %s added\n", args[0])
		return nil
	},
}

var buildVarientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List varients",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		varients, err := build.New(db).Varients(cmd.Context())
		if err != nil {
			return err
		}

		l := output.Listing{Kind: "varients", Headers: []string{"ALIAS", "NAME"}, Items: varients}
		for _, v := range varients {
			l.Rows = append(l.Rows, []string{v.Alias, v.Name})
		}
		return printListing(l)
	},
}

var buildVarientRemoveCmd = &cobra.Command{
	Use:   "rm <alias>",
	Short: "Remove a varient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}
		if err := build.New(db).RemoveVarient(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("✓ Varient %s removed\n", args[0])
		return nil
	},
}

var buildSSHKeyAddCmd = &cobra.Command{
	Use:   "add <server> <public-key-file>",
	Short: "Install an SSH public key on a server at build time",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read key file: %w", err)
		}

		_, db, err := openStore()
		if err != nil {
			return err
		}
		key, err := build.New(db).AddSSHKey(cmd.Context(), args[0], string(data))
		if err != nil {
			return fmt.Errorf("failed to add SSH key: %w", err)
		}

		fmt.Printf("✓ SSH key %s added to %s (id %d)\n", key.Fingerprint, args[0], key.ID)
		return nil
	},
}

var buildSSHKeyListCmd = &cobra.Command{
	Use:   "list <server>",
	Short: "List a server's SSH keys",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		keys, err := build.New(db).SSHKeys(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		l := output.Listing{Kind: "SSH keys", Headers: []string{"ID", "TYPE", "FINGERPRINT", "COMMENT"}, Items: keys}
		for _, k := range keys {
			l.Rows = append(l.Rows, []string{strconv.FormatInt(k.ID, 10), k.Type, k.Fingerprint, k.Comment})
		}
		return printListing(l)
	},
}

var buildSSHKeyRemoveCmd = &cobra.Command{
	Use:   "rm <server> <id>",
	Short: "Remove an SSH key from a server",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid key id %q: %w", args[1], err)
		}

		_, db, err := openStore()
		if err != nil {
			return err
		}
		if err := build.New(db).RemoveSSHKey(cmd.Context(), args[0], id); err != nil {
			return err
		}

		fmt.Printf("✓ SSH key %d removed from %s\n", id, args[0])
		return nil
	},
}

var buildAddCmd = &cobra.Command{
	Use:   "add <server>",
	Short: "Add build configuration for a server",
	Long: `Add build configuration for an existing server. When the server has no
address yet, the next free address in --domain is allocated.

Example:
  ailsa build add web01 --domain lab.example.com --os debian --os-version 12 --varient base`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		sp := build.Spec{Server: args[0]}
		sp.Domain, _ = flags.GetString("domain")
		sp.OSAlias, _ = flags.GetString("os")
		sp.OSVersion, _ = flags.GetString("os-version")
		sp.Arch, _ = flags.GetString("arch")
		sp.Varient, _ = flags.GetString("varient")
		sp.MAC, _ = flags.GetString("mac")
		sp.Interface, _ = flags.GetString("interface")

		b, err := build.New(db).AddBuild(cmd.Context(), sp)
		if err != nil {
			return fmt.Errorf("failed to add build: %w", err)
		}

		fmt.Printf("✓ Build for %s added (%s, %s)\n", b.Server, addrString(b.Addr), b.MAC)
		return nil
	},
}

var buildListCmd = &cobra.Command{
	Use:   "list",
	Short: "List server builds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		builds, err := build.New(db).Builds(cmd.Context())
		if err != nil {
			return err
		}

		l := output.Listing{Kind: "builds", Headers: []string{"SERVER", "OS", "VARIENT", "ADDRESS", "MAC", "DOMAIN"}, Items: builds}
		for _, b := range builds {
			release := b.OSAlias + "-" + b.OSVersion + "-" + b.Arch
			l.Rows = append(l.Rows, []string{b.Server, release, b.Varient, addrString(b.Addr), b.MAC, b.Domain})
		}
		return printListing(l)
	},
}

var buildShowCmd = &cobra.Command{
	Use:   "show <server>",
	Short: "Show a server's build configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		b, err := build.New(db).Build(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if outputFormat != string(output.FormatTable) {
			return printListing(output.Listing{Kind: "builds", Items: b})
		}

		fmt.Printf("Server: %s\n", b.Server)
		fmt.Printf("OS: %s %s (%s)\n", b.OSAlias, b.OSVersion, b.Arch)
		fmt.Printf("Varient: %s\n", b.Varient)
		fmt.Printf("Interface: %s\n", b.Interface)
		fmt.Printf("MAC: %s\n", b.MAC)
		fmt.Printf("Address: %s\n", addrString(b.Addr))
		fmt.Printf("Netmask: %s\n", addrString(b.Netmask))
		fmt.Printf("Gateway: %s\n", addrString(b.Gateway))
		fmt.Printf("Nameserver: %s\n", addrString(b.Nameserver))
		fmt.Printf("Domain: %s\n", b.Domain)
		return nil
	},
}

var buildRemoveCmd = &cobra.Command{
	Use:   "rm <server>",
	Short: "Remove a server's build configuration, address and keys",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}
		if err := build.New(db).RemoveBuild(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("✓ Build for %s removed\n", args[0])
		return nil
	},
}

var buildSetVarientCmd = &cobra.Command{
	Use:   "set-varient <server> <varient>",
	Short: "Change the varient a server is built with",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}
		if err := build.New(db).SetVarient(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}

		fmt.Printf("✓ %s now builds with varient %s\n", args[0], args[1])
		return nil
	},
}

var buildIPCmd = &cobra.Command{
	Use:   "ip <server> [domain]",
	Short: "Show or allocate a server's address",
	Long: `With only a server, show its allocated address. With a build domain as
well, allocate the next free address in that domain to the server.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		svc := build.New(db)
		if len(args) == 2 {
			addr, err := svc.AllocateIP(cmd.Context(), args[1], args[0])
			if err != nil {
				return fmt.Errorf("failed to allocate address: %w", err)
			}
			fmt.Printf("✓ Allocated %s to %s\n", addr, args[0])
			return nil
		}

		lease, err := svc.Lease(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printListing(output.Listing{
			Kind:    "addresses",
			Headers: []string{"SERVER", "ADDRESS", "DOMAIN"},
			Rows:    [][]string{{lease.Hostname, addrString(lease.Addr), lease.Domain}},
			Items:   lease,
		})
	},
}

var buildSeedCmd = &cobra.Command{
	Use:   "seed <server>",
	Short: "Write the cloud-init seed ISO for a server",
	Long: `Render the NoCloud seed (user-data, meta-data, network-config) for a
server's build and write it as a CIDATA ISO named <server>_cidata.iso.

With --pool the ISO is stored as a volume of that name in a libvirt storage
pool, replacing any previous seed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openStore()
		if err != nil {
			return err
		}

		seed, err := build.New(db).Seed(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		iso, err := cloudinit.GenerateISO(seed)
		if err != nil {
			return fmt.Errorf("failed to generate seed ISO: %w", err)
		}

		if pool, _ := cmd.Flags().GetString("pool"); pool != "" {
			socket, _ := cmd.Flags().GetString("socket")
			if socket == "" {
				socket = cfg.Libvirt.Socket
			}
			path, err := vmhost.UploadSeed(cmd.Context(), socket, pool, seedFileName(seed), iso)
			if err != nil {
				return fmt.Errorf("failed to upload seed ISO: %w", err)
			}
			fmt.Printf("✓ Seed for %s uploaded to %s\n", seed.FQDN(), path)
			return nil
		}

		dir, _ := cmd.Flags().GetString("dir")
		path := filepath.Join(dir, seedFileName(seed))
		if err := os.WriteFile(path, iso, 0o644); err != nil {
			return fmt.Errorf("failed to write seed ISO: %w", err)
		}

		fmt.Printf("✓ Seed for %s written to %s\n", seed.FQDN(), path)
		return nil
	},
}
