package cli

import (
	"context"
	"fmt"

	"github.com/andy/billbook/internal/domain"
	"github.com/spf13/cobra"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage clients",
	Long:  `List, add, edit, and archive clients.`,
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		includeArchived, _ := cmd.Flags().GetBool("archived")

		clients, err := appInstance.ClientRepo.List(ctx, includeArchived)
		if err != nil {
			return fmt.Errorf("failed to list clients: %w", err)
		}

		if len(clients) == 0 {
			fmt.Println("No clients found")
			return nil
		}

		fmt.Printf("%-5s %-28s %-28s %-6s %-10s\n", "ID", "Name", "Email", "Terms", "Status")
		fmt.Println("-------------------------------------------------------------------------------")

		for _, client := range clients {
			status := "Active"
			if client.IsArchived {
				status = "Archived"
			}
			fmt.Printf("%-5d %-28s %-28s %-6s %-10s\n",
				client.ID,
				truncate(client.Name, 28),
				truncate(client.Email, 28),
				fmt.Sprintf("%dd", client.PaymentTermsDays),
				status,
			)
		}

		fmt.Printf("\nTotal: %d client(s)\n", len(clients))
		return nil
	},
}

var clientsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a new client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		email, _ := cmd.Flags().GetString("email")
		client := domain.NewClient(args[0], email)
		client.Phone, _ = cmd.Flags().GetString("phone")
		client.Address, _ = cmd.Flags().GetString("address")
		client.Notes, _ = cmd.Flags().GetString("notes")
		client.PaymentTermsDays, _ = cmd.Flags().GetInt("terms")
		client.SendReminders, _ = cmd.Flags().GetBool("reminders")

		if err := client.Validate(); err != nil {
			return fmt.Errorf("invalid client: %w", err)
		}

		if err := appInstance.ClientRepo.Create(ctx, client); err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}

		fmt.Printf("✓ Client created: %s (ID: %d)\n", client.Name, client.ID)
		fmt.Printf("  Payment terms: %d days\n", client.PaymentTermsDays)

		return nil
	},
}

var clientsEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit an existing client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "client")
		if err != nil {
			return err
		}

		client, err := appInstance.ClientRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get client: %w", err)
		}

		flags := cmd.Flags()
		if flags.Changed("name") {
			client.Name, _ = flags.GetString("name")
		}
		if flags.Changed("email") {
			client.Email, _ = flags.GetString("email")
		}
		if flags.Changed("phone") {
			client.Phone, _ = flags.GetString("phone")
		}
		if flags.Changed("address") {
			client.Address, _ = flags.GetString("address")
		}
		if flags.Changed("notes") {
			client.Notes, _ = flags.GetString("notes")
		}
		if flags.Changed("terms") {
			client.PaymentTermsDays, _ = flags.GetInt("terms")
		}
		if flags.Changed("reminders") {
			client.SendReminders, _ = flags.GetBool("reminders")
		}

		if err := client.Validate(); err != nil {
			return fmt.Errorf("invalid client: %w", err)
		}

		if err := appInstance.ClientRepo.Update(ctx, client); err != nil {
			return fmt.Errorf("failed to update client: %w", err)
		}

		fmt.Printf("✓ Client updated: %s\n", client.Name)
		return nil
	},
}

var clientsArchiveCmd = &cobra.Command{
	Use:   "archive [id]",
	Short: "Archive a client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "client")
		if err != nil {
			return err
		}

		client, err := appInstance.ClientRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get client: %w", err)
		}

		if err := appInstance.ClientRepo.Archive(ctx, id); err != nil {
			return fmt.Errorf("failed to archive client: %w", err)
		}

		fmt.Printf("✓ Client archived: %s\n", client.Name)
		return nil
	},
}

var clientsUnarchiveCmd = &cobra.Command{
	Use:   "unarchive [id]",
	Short: "Unarchive a client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "client")
		if err != nil {
			return err
		}

		if err := appInstance.ClientRepo.Unarchive(ctx, id); err != nil {
			return fmt.Errorf("failed to unarchive client: %w", err)
		}

		fmt.Printf("✓ Client unarchived (ID: %d)\n", id)
		return nil
	},
}

func init() {
	clientsCmd.AddCommand(clientsListCmd)
	clientsCmd.AddCommand(clientsAddCmd)
	clientsCmd.AddCommand(clientsEditCmd)
	clientsCmd.AddCommand(clientsArchiveCmd)
	clientsCmd.AddCommand(clientsUnarchiveCmd)

	// List flags
	clientsListCmd.Flags().Bool("archived", false, "Include archived clients")

	// Add flags
	clientsAddCmd.Flags().String("email", "", "Client email")
	clientsAddCmd.Flags().String("phone", "", "Client phone")
	clientsAddCmd.Flags().String("address", "", "Billing address")
	clientsAddCmd.Flags().String("notes", "", "Notes about the client")
	clientsAddCmd.Flags().Int("terms", domain.DefaultPaymentTermsDays, "Payment terms in days")
	clientsAddCmd.Flags().Bool("reminders", false, "Send payment reminders")

	// Edit flags
	clientsEditCmd.Flags().String("name", "", "New name")
	clientsEditCmd.Flags().String("email", "", "New email")
	clientsEditCmd.Flags().String("phone", "", "New phone")
	clientsEditCmd.Flags().String("address", "", "New billing address")
	clientsEditCmd.Flags().String("notes", "", "New notes")
	clientsEditCmd.Flags().Int("terms", 0, "New payment terms in days")
	clientsEditCmd.Flags().Bool("reminders", false, "Send payment reminders")
}
