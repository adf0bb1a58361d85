package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andy/billbook/internal/builder"
	"github.com/andy/billbook/internal/domain"
	"github.com/andy/billbook/internal/render"
	"github.com/andy/billbook/internal/repository"
	"github.com/andy/billbook/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Manage invoices",
	Long:  `Create, list, export, and manage invoices.`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var filter repository.InvoiceFilter
		if cmd.Flags().Changed("client") {
			idOrName, _ := cmd.Flags().GetString("client")
			client, err := resolveClient(ctx, idOrName)
			if err != nil {
				return err
			}
			filter.ClientID = &client.ID
		}
		if cmd.Flags().Changed("status") {
			statusStr, _ := cmd.Flags().GetString("status")
			status, err := domain.ParseInvoiceStatus(statusStr)
			if err != nil {
				return err
			}
			filter.Status = &status
		}

		if err := appInstance.CheckOverdue(ctx); err != nil {
			return fmt.Errorf("failed to refresh overdue invoices: %w", err)
		}

		invoices, err := appInstance.InvoiceService.ListInvoices(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}

		if len(invoices) == 0 {
			fmt.Println("No invoices found")
			return nil
		}

		fmt.Printf("%-5s %-15s %-24s %-12s %14s %-8s\n", "ID", "Number", "Client", "Due", "Total", "Status")
		fmt.Println("-----------------------------------------------------------------------------------")

		total := decimal.Zero
		for _, invoice := range invoices {
			fmt.Printf("%-5d %-15s %-24s %-12s %14s %-8s\n",
				invoice.ID,
				truncate(invoice.InvoiceNumber, 15),
				truncate(invoice.ClientName, 24),
				invoice.DueDate.Format(builder.DateLayout),
				render.FormatMoney(invoice.Total),
				invoice.Status,
			)
			total = total.Add(invoice.Total)
		}

		fmt.Printf("\nTotal: %d invoice(s), %s\n", len(invoices), render.FormatMoney(total))
		return nil
	},
}

var invoicesShowCmd = &cobra.Command{
	Use:   "show [id_or_number]",
	Short: "Show invoice details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		invoice, err := lookupInvoice(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Println(strings.Repeat("=", 80))
		fmt.Printf("Invoice: %s\n", invoice.InvoiceNumber)
		fmt.Println(strings.Repeat("=", 80))
		fmt.Printf("Client:   %s", invoice.ClientName)
		if invoice.ClientEmail != "" {
			fmt.Printf(" <%s>", invoice.ClientEmail)
		}
		fmt.Println()
		fmt.Printf("Issued:   %s\n", invoice.IssueDate.Format(builder.DateLayout))
		fmt.Printf("Due:      %s\n", invoice.DueDate.Format(builder.DateLayout))
		fmt.Printf("Template: %s\n", invoice.TemplateID)
		fmt.Printf("Status:   %s\n", invoice.Status)
		if invoice.SentAt != nil {
			fmt.Printf("Sent:     %s\n", invoice.SentAt.Format(builder.DateLayout))
		}
		if invoice.PaidDate != nil {
			fmt.Printf("Paid:     %s\n", invoice.PaidDate.Format(builder.DateLayout))
		}
		fmt.Println()

		if len(invoice.LineItems) > 0 {
			fmt.Println("Line Items:")
			fmt.Println(strings.Repeat("-", 80))
			fmt.Printf("%-40s %8s %14s %14s\n", "Description", "Qty", "Rate", "Amount")
			fmt.Println(strings.Repeat("-", 80))

			for _, item := range invoice.LineItems {
				fmt.Printf("%-40s %8s %14s %14s\n",
					truncate(item.Description, 40),
					render.FormatQuantity(item.Quantity),
					render.FormatMoney(item.Rate),
					render.FormatMoney(item.Amount),
				)
			}
			fmt.Println(strings.Repeat("-", 80))
		}

		fmt.Println()
		fmt.Printf("Subtotal: %s\n", render.FormatMoney(invoice.Subtotal))
		fmt.Printf("Tax (%s): %s\n", render.FormatPercent(invoice.TaxRate), render.FormatMoney(invoice.TaxAmount))
		fmt.Printf("Total: %s\n", render.FormatMoney(invoice.Total))
		if invoice.Notes != "" {
			fmt.Printf("\nNotes: %s\n", invoice.Notes)
		}
		fmt.Println(strings.Repeat("=", 80))

		return nil
	},
}

var invoicesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an invoice from flags",
	Long: `Create an invoice without the TUI. Each --item is "description;quantity;rate".

Examples:
  billbook invoices create --client "Acme Corp" --item "Web design;1;500" --item "Logo;1;200"
  billbook invoices create --client 3 --template minimal --due 2026-05-01 --send`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		flags := cmd.Flags()

		itemFlags, _ := flags.GetStringArray("item")
		specs := make([]itemSpec, 0, len(itemFlags))
		for _, s := range itemFlags {
			spec, err := parseItemSpec(s)
			if err != nil {
				return err
			}
			specs = append(specs, spec)
		}

		var extra []builder.Option
		if flags.Changed("tax") {
			rate, _ := flags.GetFloat64("tax")
			if rate < 0 || rate > 1 {
				return fmt.Errorf("tax rate must be between 0 and 1, got %v", rate)
			}
			extra = append(extra, builder.WithTaxRate(decimal.NewFromFloat(rate)))
		}

		b := appInstance.NewBuilder(appInstance.NewDraft(ctx, time.Now()), extra...)

		edits := map[builder.Field]string{}
		if flags.Changed("client") {
			idOrName, _ := flags.GetString("client")
			client, err := resolveClient(ctx, idOrName)
			switch {
			case err == nil:
				edits[builder.FieldClientName] = client.Name
				edits[builder.FieldClientEmail] = client.Email
				issue := time.Now()
				if flags.Changed("issue") {
					s, _ := flags.GetString("issue")
					if t, err := parseDate(s); err == nil {
						issue = t
					}
				}
				edits[builder.FieldDueDate] = client.DueDateFrom(issue).Format(builder.DateLayout)
			case isNumeric(idOrName):
				return err
			default:
				// free-form client without a saved record
				edits[builder.FieldClientName] = idOrName
			}
		}

		for flag, field := range map[string]builder.Field{
			"number": builder.FieldInvoiceNumber,
			"email":  builder.FieldClientEmail,
			"notes":  builder.FieldNotes,
		} {
			if flags.Changed(flag) {
				edits[field], _ = flags.GetString(flag)
			}
		}
		for flag, field := range map[string]builder.Field{
			"issue": builder.FieldIssueDate,
			"due":   builder.FieldDueDate,
		} {
			if flags.Changed(flag) {
				s, _ := flags.GetString(flag)
				t, err := parseDate(s)
				if err != nil {
					return fmt.Errorf("invalid %s date: %w", flag, err)
				}
				edits[field] = t.Format(builder.DateLayout)
			}
		}

		for field, value := range edits {
			if err := b.EditField(field, value); err != nil {
				return err
			}
		}

		if flags.Changed("template") {
			id, _ := flags.GetString("template")
			if _, ok := builder.LookupTemplate(id); !ok {
				return fmt.Errorf("unknown template %q", id)
			}
			b.SelectTemplate(id)
		}
		if noLogo, _ := flags.GetBool("no-logo"); noLogo {
			b.ToggleLogo()
		}
		if noSig, _ := flags.GetBool("no-signature"); noSig {
			b.ToggleSignature()
		}

		if err := applyItems(b, specs); err != nil {
			return err
		}

		if strict, _ := flags.GetBool("strict"); strict {
			draft := b.State().Draft
			if strings.TrimSpace(draft.ClientName) == "" {
				return fmt.Errorf("invoice rejected: client name is required")
			}
			if len(draft.LineItems) == 0 {
				return fmt.Errorf("invoice rejected: at least one line item is required")
			}
			if err := draft.Check(); err != nil {
				return fmt.Errorf("invoice rejected: %w", err)
			}
		}

		if send, _ := flags.GetBool("send"); send {
			invoice, path, err := appInstance.InvoiceService.Send(ctx, b.Send())
			if err != nil {
				return fmt.Errorf("failed to send invoice: %w", err)
			}
			fmt.Printf("✓ Invoice sent: %s\n", invoice.InvoiceNumber)
			fmt.Printf("  Total: %s\n", render.FormatMoney(invoice.Total))
			fmt.Printf("  PDF: %s\n", path)
			return nil
		}

		invoice, err := appInstance.InvoiceService.Save(ctx, b.Finalize())
		if err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}

		fmt.Printf("✓ Invoice saved: %s (ID: %d)\n", invoice.InvoiceNumber, invoice.ID)
		fmt.Printf("  Client: %s\n", invoice.ClientName)
		fmt.Printf("  Due: %s\n", invoice.DueDate.Format(builder.DateLayout))
		fmt.Printf("  Subtotal: %s\n", render.FormatMoney(invoice.Subtotal))
		fmt.Printf("  Tax: %s\n", render.FormatMoney(invoice.TaxAmount))
		fmt.Printf("  Total: %s\n", render.FormatMoney(invoice.Total))
		return nil
	},
}

var invoicesMarkSentCmd = &cobra.Command{
	Use:   "mark-sent [id]",
	Short: "Mark an invoice as sent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		if err := appInstance.InvoiceService.MarkSent(ctx, id); err != nil {
			return fmt.Errorf("failed to mark invoice as sent: %w", err)
		}

		fmt.Printf("✓ Invoice #%d marked as sent\n", id)
		return nil
	},
}

var invoicesMarkPaidCmd = &cobra.Command{
	Use:   "mark-paid [id]",
	Short: "Mark an invoice as paid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		dateStr, _ := cmd.Flags().GetString("date")
		paidDate := time.Now()
		if dateStr != "" {
			paidDate, err = parseDate(dateStr)
			if err != nil {
				return fmt.Errorf("invalid paid date: %w", err)
			}
		}

		if err := appInstance.InvoiceService.MarkPaid(ctx, id, paidDate); err != nil {
			return fmt.Errorf("failed to mark invoice as paid: %w", err)
		}

		fmt.Printf("✓ Invoice #%d marked as paid on %s\n", id, paidDate.Format(builder.DateLayout))
		return nil
	},
}

var invoicesExportCmd = &cobra.Command{
	Use:   "export [id_or_number]",
	Short: "Write an invoice to pdf, txt or xlsx",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		invoice, err := lookupInvoice(ctx, args[0])
		if err != nil {
			return err
		}

		formatStr, _ := cmd.Flags().GetString("format")
		format, err := render.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("out")

		path, err := appInstance.InvoiceService.Export(ctx, invoice.ID, format, dir)
		if err != nil {
			return fmt.Errorf("failed to export invoice: %w", err)
		}

		fmt.Printf("✓ Invoice %s written to %s\n", invoice.InvoiceNumber, path)
		return nil
	},
}

var invoicesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := parseID(args[0], "invoice")
		if err != nil {
			return err
		}

		invoice, err := appInstance.InvoiceService.GetInvoice(ctx, id)
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")
		if !force && !confirmPrompt(fmt.Sprintf("Delete invoice %s (%s)?", invoice.InvoiceNumber, invoice.Status)) {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := appInstance.InvoiceService.DeleteInvoice(ctx, id); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}

		fmt.Printf("✓ Invoice %s deleted\n", invoice.InvoiceNumber)
		return nil
	},
}

// lookupInvoice accepts a numeric ID or an invoice number
func lookupInvoice(ctx context.Context, idOrNumber string) (*domain.Invoice, error) {
	if isNumeric(idOrNumber) {
		id, _ := strconv.ParseInt(idOrNumber, 10, 64)
		invoice, err := appInstance.InvoiceService.GetInvoice(ctx, id)
		if err == nil {
			return invoice, nil
		}
		if !errors.Is(err, service.ErrInvoiceNotFound) {
			return nil, err
		}
	}
	return appInstance.InvoiceService.GetInvoiceByNumber(ctx, idOrNumber)
}

func init() {
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesShowCmd)
	invoicesCmd.AddCommand(invoicesCreateCmd)
	invoicesCmd.AddCommand(invoicesMarkSentCmd)
	invoicesCmd.AddCommand(invoicesMarkPaidCmd)
	invoicesCmd.AddCommand(invoicesExportCmd)
	invoicesCmd.AddCommand(invoicesDeleteCmd)

	// List flags
	invoicesListCmd.Flags().String("client", "", "Filter by client ID or name")
	invoicesListCmd.Flags().String("status", "", "Filter by status (draft, pending, sent, paid, overdue)")

	// Create flags
	f := invoicesCreateCmd.Flags()
	f.String("client", "", "Client ID or name; unknown names are used as-is")
	f.String("email", "", "Client email")
	f.String("number", "", "Invoice number (defaults to the next free number)")
	f.String("issue", "", "Issue date (defaults to today)")
	f.String("due", "", "Due date (defaults to the client's payment terms)")
	f.String("template", "", "Template: professional, minimal or creative")
	f.String("notes", "", "Notes printed on the invoice")
	f.StringArray("item", nil, `Line item as "description;quantity;rate" (repeatable)`)
	f.Float64("tax", 0, "Tax rate override (0.0 to 1.0)")
	f.Bool("no-logo", false, "Leave the logo block off")
	f.Bool("no-signature", false, "Leave the signature block off")
	f.Bool("strict", false, "Reject missing client, bad dates or empty items")
	f.Bool("send", false, "Mark sent and write a PDF to the output directory")

	// Mark paid flags
	invoicesMarkPaidCmd.Flags().String("date", "", "Payment date (defaults to today)")

	// Export flags
	invoicesExportCmd.Flags().String("format", "pdf", "Output format: pdf, txt or xlsx")
	invoicesExportCmd.Flags().String("out", "", "Output directory (defaults to invoice.output_dir)")

	// Delete flags
	invoicesDeleteCmd.Flags().Bool("force", false, "Skip the confirmation prompt")
}
