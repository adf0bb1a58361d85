package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset data in the database",
	Long: `Reset data in the database.

Examples:
  billbook reset invoices    # Delete all invoices and their line items
  billbook reset expenses    # Delete all expenses
  billbook reset all         # Wipe everything: clients, invoices, expenses`,
}

var resetInvoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Delete all invoices and line items",
	RunE: func(cmd *cobra.Command, args []string) error {
		return resetTables(cmd,
			"This will delete ALL invoices. Continue?",
			"All invoices have been deleted.",
			"invoice_line_items", "invoices")
	},
}

var resetExpensesCmd = &cobra.Command{
	Use:   "expenses",
	Short: "Delete all expenses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return resetTables(cmd,
			"This will delete ALL expenses. Continue?",
			"All expenses have been deleted.",
			"expenses")
	},
}

var resetAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Delete ALL data: clients, invoices, expenses",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Order matters due to foreign keys
		return resetTables(cmd,
			"This will delete ALL data (clients, invoices, expenses). Continue?",
			"All data has been deleted.",
			"invoice_line_items", "invoices", "expenses", "clients")
	},
}

func resetTables(cmd *cobra.Command, prompt, done string, tables ...string) error {
	force, _ := cmd.Flags().GetBool("force")
	if !force && !confirmPrompt(prompt) {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := appInstance.DB.Truncate(context.Background(), tables...); err != nil {
		return err
	}

	fmt.Println(done)
	return nil
}

func confirmPrompt(message string) bool {
	fmt.Printf("%s [y/N] ", message)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func init() {
	resetCmd.AddCommand(resetInvoicesCmd)
	resetCmd.AddCommand(resetExpensesCmd)
	resetCmd.AddCommand(resetAllCmd)

	resetCmd.PersistentFlags().Bool("force", false, "Skip the confirmation prompt")
}
