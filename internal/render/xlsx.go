package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Invoice"

// XLSXRenderer writes a one-sheet workbook with header, line items and totals.
// Money cells are numeric so the sheet can be summed or re-used by the client.
type XLSXRenderer struct{}

func (XLSXRenderer) Format() Format { return FormatXLSX }

func (XLSXRenderer) Render(w io.Writer, doc Document) error {
	inv := doc.Invoice

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}

	accent := strings.ToUpper(strings.TrimPrefix(inv.Template.Color, "#"))
	if len(accent) != 6 {
		accent = "808080"
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 18, Color: accent},
	})
	if err != nil {
		return err
	}
	headStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{accent}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 4})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	set := func(cell string, value any) {
		if err == nil {
			err = f.SetCellValue(xlsxSheet, cell, value)
		}
	}
	style := func(from, to string, id int) {
		if err == nil {
			err = f.SetCellStyle(xlsxSheet, from, to, id)
		}
	}

	set("A1", "INVOICE")
	style("A1", "A1", titleStyle)

	set("A3", "Invoice #")
	set("B3", inv.InvoiceNumber)
	set("A4", "Issue date")
	set("B4", inv.IssueDate)
	set("A5", "Due date")
	set("B5", inv.DueDate)
	set("A6", "Bill to")
	set("B6", inv.ClientName)
	set("B7", inv.ClientEmail)
	style("A3", "A6", labelStyle)

	if !doc.From.empty() {
		set("D3", "From")
		style("D3", "D3", labelStyle)
		for i, l := range doc.From.lines() {
			set(fmt.Sprintf("D%d", 4+i), l)
		}
	}

	row := 9
	set(fmt.Sprintf("A%d", row), "Description")
	set(fmt.Sprintf("B%d", row), "Quantity")
	set(fmt.Sprintf("C%d", row), "Rate")
	set(fmt.Sprintf("D%d", row), "Amount")
	style(fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), headStyle)

	for _, item := range inv.LineItems {
		row++
		set(fmt.Sprintf("A%d", row), item.Description)
		set(fmt.Sprintf("B%d", row), item.Quantity.InexactFloat64())
		set(fmt.Sprintf("C%d", row), item.Rate.InexactFloat64())
		set(fmt.Sprintf("D%d", row), item.Amount.InexactFloat64())
		style(fmt.Sprintf("C%d", row), fmt.Sprintf("D%d", row), moneyStyle)
	}

	row += 2
	set(fmt.Sprintf("C%d", row), "Subtotal")
	set(fmt.Sprintf("D%d", row), inv.Subtotal.InexactFloat64())
	style(fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), moneyStyle)
	row++
	set(fmt.Sprintf("C%d", row), "Tax ("+FormatPercent(inv.TaxRate)+")")
	set(fmt.Sprintf("D%d", row), inv.Tax.InexactFloat64())
	style(fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), moneyStyle)
	row++
	set(fmt.Sprintf("C%d", row), "Total")
	set(fmt.Sprintf("D%d", row), inv.Total.InexactFloat64())
	style(fmt.Sprintf("C%d", row), fmt.Sprintf("D%d", row), totalStyle)

	if inv.Notes != "" {
		row += 2
		set(fmt.Sprintf("A%d", row), "Notes")
		style(fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
		set(fmt.Sprintf("A%d", row+1), inv.Notes)
	}

	if err == nil {
		err = f.SetColWidth(xlsxSheet, "A", "A", 40)
	}
	if err == nil {
		err = f.SetColWidth(xlsxSheet, "B", "D", 16)
	}
	if err != nil {
		return fmt.Errorf("build sheet: %w", err)
	}

	return f.Write(w)
}
