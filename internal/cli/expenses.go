package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andy/billbook/internal/builder"
	"github.com/andy/billbook/internal/domain"
	"github.com/andy/billbook/internal/render"
	"github.com/andy/billbook/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var expensesCmd = &cobra.Command{
	Use:   "expenses",
	Short: "Track business expenses",
	Long:  `List, add, and delete expenses.`,
}

var expensesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List expenses",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var filter repository.ExpenseFilter
		if cmd.Flags().Changed("from") {
			s, _ := cmd.Flags().GetString("from")
			t, err := parseDate(s)
			if err != nil {
				return fmt.Errorf("invalid from date: %w", err)
			}
			filter.Start = &t
		}
		if cmd.Flags().Changed("to") {
			s, _ := cmd.Flags().GetString("to")
			t, err := parseDate(s)
			if err != nil {
				return fmt.Errorf("invalid to date: %w", err)
			}
			filter.End = &t
		}
		if cmd.Flags().Changed("category") {
			s, _ := cmd.Flags().GetString("category")
			c, err := domain.ParseExpenseCategory(s)
			if err != nil {
				return err
			}
			filter.Category = &c
		}

		expenses, err := appInstance.ExpenseRepo.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list expenses: %w", err)
		}

		if len(expenses) == 0 {
			fmt.Println("No expenses found")
			return nil
		}

		fmt.Printf("%-5s %-12s %-16s %-24s %12s\n", "ID", "Date", "Category", "Vendor", "Amount")
		fmt.Println("------------------------------------------------------------------------")

		total := decimal.Zero
		for _, e := range expenses {
			fmt.Printf("%-5d %-12s %-16s %-24s %12s\n",
				e.ID,
				e.Date.Format(builder.DateLayout),
				e.Category,
				truncate(e.Vendor, 24),
				render.FormatMoney(e.Amount),
			)
			total = total.Add(e.Amount)
		}

		fmt.Printf("\nTotal: %d expense(s), %s\n", len(expenses), render.FormatMoney(total))
		return nil
	},
}

var expensesAddCmd = &cobra.Command{
	Use:   "add [amount] [vendor]",
	Short: "Record an expense",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		amount, err := decimal.NewFromString(strings.TrimPrefix(args[0], "$"))
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[0], err)
		}

		categoryStr, _ := cmd.Flags().GetString("category")
		category, err := domain.ParseExpenseCategory(categoryStr)
		if err != nil {
			return err
		}

		date := time.Now()
		if dateStr, _ := cmd.Flags().GetString("date"); dateStr != "" {
			date, err = parseDate(dateStr)
			if err != nil {
				return fmt.Errorf("invalid date: %w", err)
			}
		}

		expense := domain.NewExpense(category, amount, date, args[1])
		expense.Description, _ = cmd.Flags().GetString("description")
		expense.ReceiptPath, _ = cmd.Flags().GetString("receipt")

		if err := expense.Validate(); err != nil {
			return fmt.Errorf("invalid expense: %w", err)
		}

		if err := appInstance.ExpenseRepo.Create(ctx, expense); err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}

		fmt.Printf("✓ Expense recorded: %s at %s (ID: %d)\n", render.FormatMoney(expense.Amount), expense.Vendor, expense.ID)
		return nil
	},
}

var expensesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an expense",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "expense")
		if err != nil {
			return err
		}

		if err := appInstance.ExpenseRepo.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}

		fmt.Printf("✓ Expense #%d deleted\n", id)
		return nil
	},
}

var expensesSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show expenses by category for a month",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		month, _ := cmd.Flags().GetString("month")
		start, err := time.Parse("2006-01", month)
		if err != nil {
			return fmt.Errorf("invalid month %q: expected YYYY-MM", month)
		}
		end := start.AddDate(0, 1, -1)

		totals, err := appInstance.SummaryService.GetExpensesByCategory(ctx, start, end)
		if err != nil {
			return fmt.Errorf("failed to summarize expenses: %w", err)
		}
		if len(totals) == 0 {
			fmt.Printf("No expenses in %s\n", start.Format("January 2006"))
			return nil
		}

		fmt.Printf("Expenses for %s\n\n", start.Format("January 2006"))
		grand := decimal.Zero
		for _, t := range totals {
			fmt.Printf("  %-18s %12s\n", t.Category, render.FormatMoney(t.Total))
			grand = grand.Add(t.Total)
		}
		fmt.Printf("  %-18s %12s\n", "Total", render.FormatMoney(grand))
		return nil
	},
}

func init() {
	expensesCmd.AddCommand(expensesListCmd)
	expensesCmd.AddCommand(expensesAddCmd)
	expensesCmd.AddCommand(expensesDeleteCmd)
	expensesCmd.AddCommand(expensesSummaryCmd)

	// List flags
	expensesListCmd.Flags().String("from", "", "Start date (inclusive)")
	expensesListCmd.Flags().String("to", "", "End date (inclusive)")
	expensesListCmd.Flags().String("category", "", "Filter by category")

	// Add flags
	expensesAddCmd.Flags().String("category", string(domain.CategoryOther), "Office Supplies, Travel, Software, Meals, Equipment or Other")
	expensesAddCmd.Flags().String("date", "", "Expense date (defaults to today)")
	expensesAddCmd.Flags().String("description", "", "What the expense was for")
	expensesAddCmd.Flags().String("receipt", "", "Path to a receipt file")

	// Summary flags
	expensesSummaryCmd.Flags().String("month", time.Now().Format("2006-01"), "Month as YYYY-MM")
}
