package render

import (
	"fmt"
	"io"
	"strings"
)

// TextRenderer writes a fixed-width plain text invoice
type TextRenderer struct{}

func (TextRenderer) Format() Format { return FormatText }

func (TextRenderer) Render(w io.Writer, doc Document) error {
	inv := doc.Invoice
	var b strings.Builder

	sep := strings.Repeat("=", 64)
	line := strings.Repeat("-", 64)

	b.WriteString("INVOICE\n")
	b.WriteString(sep + "\n")
	fmt.Fprintf(&b, "Invoice #:  %s\n", inv.InvoiceNumber)
	fmt.Fprintf(&b, "Date:       %s\n", FormatDate(inv.IssueDate))
	fmt.Fprintf(&b, "Due:        %s\n", FormatDate(inv.DueDate))
	if doc.Status != "" {
		fmt.Fprintf(&b, "Status:     %s\n", strings.ToUpper(doc.Status))
	}

	if inv.IncludeLogo && !doc.From.empty() {
		fmt.Fprintf(&b, "\n[ %s ]\n", strings.ToUpper(doc.From.Name))
	}

	if !doc.From.empty() {
		b.WriteString("\nFrom:\n")
		for _, l := range doc.From.lines() {
			fmt.Fprintf(&b, "  %s\n", l)
		}
	}

	b.WriteString("\nBill To:\n")
	if inv.ClientName != "" {
		fmt.Fprintf(&b, "  %s\n", inv.ClientName)
	}
	if inv.ClientEmail != "" {
		fmt.Fprintf(&b, "  %s\n", inv.ClientEmail)
	}

	b.WriteString("\n" + line + "\n")
	fmt.Fprintf(&b, "%-30s %8s %11s %12s\n", "Description", "Qty", "Rate", "Amount")
	b.WriteString(line + "\n")

	for _, item := range inv.LineItems {
		fmt.Fprintf(&b, "%-30s %8s %11s %12s\n",
			truncate(item.Description, 30),
			FormatQuantity(item.Quantity),
			FormatMoney(item.Rate),
			FormatMoney(item.Amount),
		)
	}

	b.WriteString(line + "\n")
	fmt.Fprintf(&b, "%51s %12s\n", "Subtotal", FormatMoney(inv.Subtotal))
	fmt.Fprintf(&b, "%51s %12s\n", fmt.Sprintf("Tax (%s)", FormatPercent(inv.TaxRate)), FormatMoney(inv.Tax))
	fmt.Fprintf(&b, "%51s %12s\n", "TOTAL", FormatMoney(inv.Total))
	b.WriteString(sep + "\n")

	if inv.Notes != "" {
		fmt.Fprintf(&b, "\nNotes:\n  %s\n", inv.Notes)
	}

	if inv.IncludeSignature {
		b.WriteString("\n\n____________________________\n")
		if doc.From.Name != "" {
			fmt.Fprintf(&b, "%s\n", doc.From.Name)
		} else {
			b.WriteString("Authorized signature\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
