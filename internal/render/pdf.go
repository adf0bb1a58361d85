package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"
)

// PDFRenderer lays the invoice out on a single A4 page using the template's
// accent colour for the header band and table heading.
type PDFRenderer struct{}

func (PDFRenderer) Format() Format { return FormatPDF }

func (PDFRenderer) Render(w io.Writer, doc Document) error {
	inv := doc.Invoice
	r, g, b := hexToRGB(inv.Template.Color)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle("Invoice "+inv.InvoiceNumber, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Header band
	pdf.SetFillColor(r, g, b)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(190, 14, "INVOICE", "", 1, "L", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(3)

	top := pdf.GetY()
	if inv.IncludeLogo {
		if usableImage(doc.LogoPath) {
			pdf.ImageOptions(doc.LogoPath, 160, top, 40, 0, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
		} else if doc.From.Name != "" {
			pdf.SetFont("Arial", "B", 14)
			pdf.SetTextColor(r, g, b)
			pdf.SetXY(120, top)
			pdf.CellFormat(80, 8, tr(doc.From.Name), "", 0, "R", false, 0, "")
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.SetXY(10, top)
	}

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(30, 6, "Invoice #:", "", 0, "L", false, 0, "")
	pdf.CellFormat(70, 6, tr(inv.InvoiceNumber), "", 1, "L", false, 0, "")
	pdf.CellFormat(30, 6, "Issue date:", "", 0, "L", false, 0, "")
	pdf.CellFormat(70, 6, tr(FormatDate(inv.IssueDate)), "", 1, "L", false, 0, "")
	pdf.CellFormat(30, 6, "Due date:", "", 0, "L", false, 0, "")
	pdf.CellFormat(70, 6, tr(FormatDate(inv.DueDate)), "", 1, "L", false, 0, "")
	if doc.Status != "" {
		pdf.CellFormat(30, 6, "Status:", "", 0, "L", false, 0, "")
		pdf.CellFormat(70, 6, strings.ToUpper(doc.Status), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// From / Bill To columns
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(95, 7, "From", "B", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Bill To", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)

	from := doc.From.lines()
	to := make([]string, 0, 2)
	for _, s := range []string{inv.ClientName, inv.ClientEmail} {
		if s != "" {
			to = append(to, s)
		}
	}
	rows := max(len(from), len(to))
	for i := 0; i < rows; i++ {
		left, right := "", ""
		if i < len(from) {
			left = from[i]
		}
		if i < len(to) {
			right = to[i]
		}
		pdf.CellFormat(95, 6, tr(left), "", 0, "L", false, 0, "")
		pdf.CellFormat(95, 6, tr(right), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	// Line items
	pdf.SetFillColor(r, g, b)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(95, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 8, "Rate", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Amount", "1", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Arial", "", 10)
	for _, item := range inv.LineItems {
		pdf.CellFormat(95, 7, tr(truncate(item.Description, 55)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, FormatQuantity(item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, FormatMoney(item.Rate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, FormatMoney(item.Amount), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	// Totals
	pdf.CellFormat(120, 7, "", "", 0, "", false, 0, "")
	pdf.CellFormat(35, 7, "Subtotal", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, FormatMoney(inv.Subtotal), "", 1, "R", false, 0, "")
	pdf.CellFormat(120, 7, "", "", 0, "", false, 0, "")
	pdf.CellFormat(35, 7, fmt.Sprintf("Tax (%s)", FormatPercent(inv.TaxRate)), "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, FormatMoney(inv.Tax), "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(120, 9, "", "", 0, "", false, 0, "")
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(35, 9, "Total", "T", 0, "R", true, 0, "")
	pdf.CellFormat(35, 9, FormatMoney(inv.Total), "T", 1, "R", true, 0, "")

	if inv.Notes != "" {
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(190, 7, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 5, tr(inv.Notes), "", "L", false)
	}

	if inv.IncludeSignature {
		pdf.Ln(16)
		y := pdf.GetY()
		if usableImage(doc.SignaturePath) {
			pdf.ImageOptions(doc.SignaturePath, 10, y-14, 50, 0, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
		}
		pdf.SetDrawColor(0, 0, 0)
		pdf.Line(10, y, 80, y)
		pdf.SetFont("Arial", "", 9)
		label := "Authorized signature"
		if doc.From.Name != "" {
			label = doc.From.Name
		}
		pdf.CellFormat(70, 6, tr(label), "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}

// usableImage reports whether path names an existing image gofpdf can read
func usableImage(path string) bool {
	if path == "" {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif":
	default:
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
