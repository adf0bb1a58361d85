// Package render turns a finalized invoice snapshot into a document:
// plain text, PDF or an XLSX workbook.
package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andy/billbook/internal/builder"
	"github.com/shopspring/decimal"
)

type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a format name or file extension
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "txt", "text":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unknown document format %q (want txt, pdf or xlsx)", s)
}

// Party is the sender block printed under "From"
type Party struct {
	Name    string
	Email   string
	Address string
	Phone   string
}

func (p Party) empty() bool {
	return p.Name == "" && p.Email == "" && p.Address == "" && p.Phone == ""
}

func (p Party) lines() []string {
	out := make([]string, 0, 4)
	for _, s := range []string{p.Name, p.Email, p.Address, p.Phone} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Document is everything a renderer needs
type Document struct {
	Invoice builder.Snapshot
	From    Party
	Status  string // optional; printed when set

	// Image files drawn by the PDF renderer when the matching block is on
	LogoPath      string
	SignaturePath string
}

type Renderer interface {
	Format() Format
	Render(w io.Writer, doc Document) error
}

// New returns the renderer for a format
func New(format Format) (Renderer, error) {
	switch format {
	case FormatText:
		return TextRenderer{}, nil
	case FormatPDF:
		return PDFRenderer{}, nil
	case FormatXLSX:
		return XLSXRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown document format %q", format)
}

// FileName returns a filesystem-safe name for the document
func FileName(doc Document, format Format) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.TrimSpace(doc.Invoice.InvoiceNumber))
	if name == "" {
		name = "invoice"
	}
	return name + "." + string(format)
}

// WriteFile renders the document into dir and returns the file path
func WriteFile(r Renderer, dir string, doc Document) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, FileName(doc, r.Format()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	if err := r.Render(f, doc); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("render %s: %w", r.Format(), err)
	}

	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// FormatMoney formats money as "$X,XXX.XX" with comma separators
func FormatMoney(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	s := amount.Abs().StringFixed(2)

	dotPos := len(s) - 3
	intPart := s[:dotPos]
	decPart := s[dotPos:]

	result := make([]byte, 0, len(intPart)+len(intPart)/3)
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}

	prefix := "$"
	if negative {
		prefix = "-$"
	}
	return prefix + string(result) + decPart
}

// FormatQuantity drops trailing zeros ("2", "1.5")
func FormatQuantity(q decimal.Decimal) string {
	return q.String()
}

// FormatPercent renders a rate as a percentage ("10%", "8.25%")
func FormatPercent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).String() + "%"
}

// FormatDate renders a YYYY-MM-DD string for display. Text that is not a
// valid date is shown as typed.
func FormatDate(s string) string {
	t, err := time.Parse(builder.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return t.Format("Jan 02, 2006")
}

// hexToRGB parses "#rrggbb"; anything else yields mid grey
func hexToRGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 128, 128, 128
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 128, 128, 128
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

// truncate shortens s to max runes with an ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
