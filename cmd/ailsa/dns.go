package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jbweber/ailsa/internal/dns"
	"github.com/jbweber/ailsa/internal/output"
)

var zoneCmd = &cobra.Command{
	Use:   "zone",
	Short: "Manage DNS zones",
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Manage DNS records",
	Long: `Manage the resource records of a zone.

Adding or removing a record advances the zone serial (YYYYMMDDnn).`,
}

func init() {
	zoneCmd.AddCommand(zoneAddCmd)
	zoneCmd.AddCommand(zoneListCmd)
	zoneCmd.AddCommand(zoneShowCmd)
	zoneCmd.AddCommand(zoneRemoveCmd)
	zoneCmd.AddCommand(zoneSetValidCmd)

	zoneAddCmd.Flags().String("primary", "", "Primary name server (default from config)")
	zoneAddCmd.Flags().String("secondary", "", "Secondary name server (default from config)")
	zoneAddCmd.Flags().Int64("refresh", 0, "SOA refresh in seconds")
	zoneAddCmd.Flags().Int64("retry", 0, "SOA retry in seconds")
	zoneAddCmd.Flags().Int64("expire", 0, "SOA expire in seconds")
	zoneAddCmd.Flags().Int64("ttl", 0, "Default TTL in seconds")

	recordCmd.AddCommand(recordAddCmd)
	recordCmd.AddCommand(recordListCmd)
	recordCmd.AddCommand(recordRemoveCmd)

	recordAddCmd.Flags().String("host", "@", "Host name relative to the zone")
	recordAddCmd.Flags().String("type", dns.TypeA, "Record type")
	recordAddCmd.Flags().Int16("priority", 0, "Priority (MX and SRV)")
	recordAddCmd.Flags().String("protocol", "", "Protocol (SRV): tcp or udp")
	recordAddCmd.Flags().String("service", "", "Service name (SRV)")
}

var zoneAddCmd = &cobra.Command{
	Use:   "add <zone>",
	Short: "Add a zone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openStore()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		z := dns.Zone{Name: args[0]}
		z.Primary, _ = flags.GetString("primary")
		z.Secondary, _ = flags.GetString("secondary")
		z.Refresh, _ = flags.GetInt64("refresh")
		z.Retry, _ = flags.GetInt64("retry")
		z.Expire, _ = flags.GetInt64("expire")
		z.TTL, _ = flags.GetInt64("ttl")

		if err := dns.New(db, cfg.DNS).AddZone(cmd.Context(), z); err != nil {
			return fmt.Errorf("failed to add zone: %w", err)
		}

		fmt.Printf("✓ Zone %s added\n", args[0])
		return nil
	},
}

var zoneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List zones",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openStore()
		if err != nil {
			return err
		}

		zones, err := dns.New(db, cfg.DNS).Zones(cmd.Context())
		if err != nil {
			return err
		}

		l := output.Listing{Kind: "zones", Headers: []string{"NAME", "PRIMARY", "SECONDARY", "SERIAL", "VALID"}, Items: zones}
		for _, z := range zones {
			l.Rows = append(l.Rows, []string{z.Name, z.Primary, z.Secondary, strconv.FormatInt(z.Serial, 10), z.Valid})
		}
		return printListing(l)
	},
}

var zoneShowCmd = &cobra.Command{
	Use:   "show <zone>",
	Short: "Show a zone and its records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openStore()
		if err != nil {
			return err
		}

		svc := dns.New(db, cfg.DNS)
		z, err := svc.Zone(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if outputFormat != string(output.FormatTable) {
			return printListing(output.Listing{Kind: "zones", Items: z})
		}

		records, err := svc.Records(cmd.Context(), z.Name)
		if err != nil {
			return err
		}

		fmt.Printf("Zone: %s\n", z.Name)
		fmt.Printf("Primary: %s\n", z.Primary)
		fmt.Printf("Secondary: %s\n", z.Secondary)
		fmt.Printf("Serial: %d\n", z.Serial)
		fmt.Printf("Refresh/Retry/Expire/TTL: %d/%d/%d/%d\n", z.Refresh, z.Retry, z.Expire, z.TTL)
		fmt.Printf("Valid: %s\n", z.Valid)
		fmt.Println()
		return printListing(recordListing(records))
	},
}

var zoneRemoveCmd = &cobra.Command{
	Use:   "rm <zone>",
	Short: "Remove a zone and all of its records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openStore()
		if err != nil {
			return err
		}

		if err := dns.New(db, cfg.DNS).RemoveZone(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Printf("✓ Zone %s removed\n", args[0])
		return nil
	},
}

var zoneSetValidCmd = &cobra.Command{
	Use:   "set-valid <zone> <yes|no>",
	Short: "Record the result of a zone check",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var valid bool
		switch args[1] {
		case dns.ValidYes:
			valid = true
		case dns.ValidNo:
		default:
			return fmt.Errorf("invalid state %q (valid states: yes, no)", args[1])
		}

		cfg, db, err := openStore()
		if err != nil {
			return err
		}
		if err := dns.New(db, cfg.DNS).SetValid(cmd.Context(), args[0], valid); err != nil {
			return err
		}

		fmt.Printf("✓ Zone %s marked valid=%s\n", args[0], args[1])
		return nil
	},
}

var recordAddCmd = &cobra.Command{
	Use:   "add <zone> <destination>",
	Short: "Add a record to a zone",
	Long: `Add a resource record to a zone.

Example:
  ailsa record add example.com 192.0.2.10 --host www
  ailsa record add example.com mail.example.com --type MX --priority 10`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openStore()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		r := dns.Record{Destination: args[1]}
		r.Host, _ = flags.GetString("host")
		r.Type, _ = flags.GetString("type")
		r.Priority, _ = flags.GetInt16("priority")
		r.Protocol, _ = flags.GetString("protocol")
		r.Service, _ = flags.GetString("service")

		if err := dns.New(db, cfg.DNS).AddRecord(cmd.Context(), args[0], r); err != nil {
			return fmt.Errorf("failed to add record: %w", err)
		}

		fmt.Printf("✓ Record %s added to %s\n", r.Host, args[0])
		return nil
	},
}

var recordListCmd = &cobra.Command{
	Use:   "list <zone>",
	Short: "List the records of a zone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openStore()
		if err != nil {
			return err
		}

		records, err := dns.New(db, cfg.DNS).Records(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printListing(recordListing(records))
	},
}

var recordRemoveCmd = &cobra.Command{
	Use:   "rm <zone> <id>",
	Short: "Remove a record from a zone",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid record id %q: %w", args[1], err)
		}

		cfg, db, err := openStore()
		if err != nil {
			return err
		}
		if err := dns.New(db, cfg.DNS).RemoveRecord(cmd.Context(), args[0], id); err != nil {
			return err
		}

		fmt.Printf("✓ Record %d removed from %s\n", id, args[0])
		return nil
	},
}

func recordListing(records []dns.Record) output.Listing {
	l := output.Listing{Kind: "records", Headers: []string{"ID", "HOST", "TYPE", "PRIORITY", "DESTINATION"}, Items: records}
	for _, r := range records {
		prio := ""
		if r.Priority > 0 {
			prio = strconv.Itoa(int(r.Priority))
		}
		l.Rows = append(l.Rows, []string{strconv.FormatInt(r.ID, 10), r.Host, r.Type, prio, r.Destination})
	}
	return l
}
