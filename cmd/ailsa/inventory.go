package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jbweber/ailsa/internal/inventory"
	"github.com/jbweber/ailsa/internal/output"
)

var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Manage customers",
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage servers",
}

func init() {
	customerCmd.AddCommand(customerAddCmd)
	customerCmd.AddCommand(customerListCmd)
	customerCmd.AddCommand(customerShowCmd)
	customerCmd.AddCommand(customerRemoveCmd)

	customerAddCmd.Flags().String("name", "", "Customer name (required)")
	customerAddCmd.Flags().String("address", "", "Street address")
	customerAddCmd.Flags().String("city", "", "City")
	customerAddCmd.Flags().String("county", "", "County")
	customerAddCmd.Flags().String("postcode", "", "Postcode")
	_ = customerAddCmd.MarkFlagRequired("name")

	serverCmd.AddCommand(serverAddCmd)
	serverCmd.AddCommand(serverListCmd)
	serverCmd.AddCommand(serverShowCmd)
	serverCmd.AddCommand(serverRemoveCmd)

	serverAddCmd.Flags().String("make", "", "Hardware make")
	serverAddCmd.Flags().String("model", "", "Hardware model")
	serverAddCmd.Flags().String("vendor", "", "Vendor")
	serverAddCmd.Flags().String("uuid", "", "Server UUID (generated when empty)")
	serverAddCmd.Flags().String("coid", "", "Owning customer")
	serverAddCmd.Flags().Int16("vcpus", 0, "Number of virtual CPUs")
	serverAddCmd.Flags().Float64("memory", 0, "Memory in GiB")

	serverListCmd.Flags().String("coid", "", "Only list servers owned by this customer")
}

var customerAddCmd = &cobra.Command{
	Use:   "add <coid>",
	Short: "Add a customer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		c := inventory.Customer{Coid: args[0]}
		c.Name, _ = flags.GetString("name")
		c.Address, _ = flags.GetString("address")
		c.City, _ = flags.GetString("city")
		c.County, _ = flags.GetString("county")
		c.Postcode, _ = flags.GetString("postcode")

		if err := inventory.New(db).AddCustomer(cmd.Context(), c); err != nil {
			return fmt.Errorf("failed to add customer: %w", err)
		}

		fmt.Printf("✓ Customer %s added\n", args[0])
		return nil
	},
}

var customerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List customers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		customers, err := inventory.New(db).Customers(cmd.Context())
		if err != nil {
			return err
		}
		return printListing(customerListing(customers))
	},
}

var customerShowCmd = &cobra.Command{
	Use:   "show <coid>",
	Short: "Show a customer and its servers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		svc := inventory.New(db)
		c, err := svc.Customer(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if outputFormat != string(output.FormatTable) {
			return printListing(output.Listing{Kind: "customers", Items: c})
		}

		servers, err := svc.ServersForCustomer(cmd.Context(), c.Coid)
		if err != nil {
			return err
		}

		fmt.Printf("Customer: %s\n", c.Name)
		fmt.Printf("Coid: %s\n", c.Coid)
		fmt.Printf("Address: %s\n", c.Address)
		fmt.Printf("City: %s\n", c.City)
		fmt.Printf("County: %s\n", c.County)
		fmt.Printf("Postcode: %s\n", c.Postcode)
		fmt.Println()
		return printListing(serverListing(servers))
	},
}

var customerRemoveCmd = &cobra.Command{
	Use:   "rm <coid>",
	Short: "Remove a customer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		n, err := inventory.New(db).RemoveCustomer(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("customer %s not found", args[0])
		}

		fmt.Printf("✓ Customer %s removed\n", args[0])
		return nil
	},
}

var serverAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		sv := inventory.Server{Name: args[0]}
		sv.Make, _ = flags.GetString("make")
		sv.Model, _ = flags.GetString("model")
		sv.Vendor, _ = flags.GetString("vendor")
		sv.UUID, _ = flags.GetString("uuid")
		sv.Coid, _ = flags.GetString("coid")
		sv.VCPUs, _ = flags.GetInt16("vcpus")
		sv.MemoryGiB, _ = flags.GetFloat64("memory")

		if err := inventory.New(db).AddServer(cmd.Context(), sv); err != nil {
			return fmt.Errorf("failed to add server: %w", err)
		}

		fmt.Printf("✓ Server %s added\n", args[0])
		return nil
	},
}

var serverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List servers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		svc := inventory.New(db)
		var servers []inventory.Server
		if coid, _ := cmd.Flags().GetString("coid"); coid != "" {
			servers, err = svc.ServersForCustomer(cmd.Context(), coid)
		} else {
			servers, err = svc.Servers(cmd.Context())
		}
		if err != nil {
			return err
		}
		return printListing(serverListing(servers))
	},
}

var serverShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		sv, err := inventory.New(db).Server(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if outputFormat != string(output.FormatTable) {
			return printListing(output.Listing{Kind: "servers", Items: sv})
		}

		fmt.Printf("Server: %s\n", sv.Name)
		fmt.Printf("UUID: %s\n", sv.UUID)
		fmt.Printf("Make: %s\n", sv.Make)
		fmt.Printf("Model: %s\n", sv.Model)
		fmt.Printf("Vendor: %s\n", sv.Vendor)
		fmt.Printf("Customer: %s\n", sv.Coid)
		fmt.Printf("VCPUs: %d\n", sv.VCPUs)
		fmt.Printf("Memory: %g GiB\n", sv.MemoryGiB)
		fmt.Printf("Created: %s\n", sv.Created.Format("2006-01-02 15:04:05"))
		fmt.Printf("Modified: %s\n", sv.Modified.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var serverRemoveCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		n, err := inventory.New(db).RemoveServer(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("server %s not found", args[0])
		}

		fmt.Printf("✓ Server %s removed\n", args[0])
		return nil
	},
}

func customerListing(customers []inventory.Customer) output.Listing {
	l := output.Listing{Kind: "customers", Headers: []string{"COID", "NAME", "CITY", "POSTCODE"}, Items: customers}
	for _, c := range customers {
		l.Rows = append(l.Rows, []string{c.Coid, c.Name, c.City, c.Postcode})
	}
	return l
}

func serverListing(servers []inventory.Server) output.Listing {
	l := output.Listing{Kind: "servers", Headers: []string{"NAME", "COID", "MAKE", "MODEL", "VCPUS", "MEMORY"}, Items: servers}
	for _, sv := range servers {
		vcpus, mem := "", ""
		if sv.VCPUs > 0 {
			vcpus = strconv.Itoa(int(sv.VCPUs))
		}
		if sv.MemoryGiB > 0 {
			mem = strconv.FormatFloat(sv.MemoryGiB, 'g', -1, 64) + " GiB"
		}
		l.Rows = append(l.Rows, []string{sv.Name, sv.Coid, sv.Make, sv.Model, vcpus, mem})
	}
	return l
}
