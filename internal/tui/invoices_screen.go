package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/andy/billbook/internal/app"
	"github.com/andy/billbook/internal/builder"
	"github.com/andy/billbook/internal/domain"
	"github.com/andy/billbook/internal/render"
	"github.com/andy/billbook/internal/repository"
	"github.com/andy/billbook/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type invoiceViewMode int

const (
	invoiceViewList          invoiceViewMode = iota
	invoiceViewDetail                        // Viewing a single invoice
	invoiceViewConfirmDelete                 // Waiting for y/n
)

// statusFilters is the cycle order of the list filter; nil shows everything
var statusFilters = []*domain.InvoiceStatus{
	nil,
	statusPtr(domain.InvoiceStatusPending),
	statusPtr(domain.InvoiceStatusSent),
	statusPtr(domain.InvoiceStatusOverdue),
	statusPtr(domain.InvoiceStatusPaid),
}

func statusPtr(s domain.InvoiceStatus) *domain.InvoiceStatus { return &s }

// InvoicesModel displays invoices in list and detail views
type InvoicesModel struct {
	app       *app.App
	mode      invoiceViewMode
	invoices  []*domain.Invoice
	cursor    int
	selected  *domain.Invoice
	filterIdx int
	loading   bool
	err       error
	statusMsg string
}

type invoicesDataMsg struct {
	invoices []*domain.Invoice
	err      error
}

type invoiceDetailMsg struct {
	invoice *domain.Invoice
	err     error
}

// invoiceActionMsg reports the outcome of a status change, export or delete
type invoiceActionMsg struct {
	status string
	err    error
}

// NewInvoicesModel creates a new invoices screen model
func NewInvoicesModel(a *app.App) tea.Model {
	return &InvoicesModel{
		app:     a,
		mode:    invoiceViewList,
		loading: true,
	}
}

func (m *InvoicesModel) Init() tea.Cmd {
	return m.loadInvoices()
}

func (m *InvoicesModel) loadInvoices() tea.Cmd {
	filter := repository.InvoiceFilter{Status: statusFilters[m.filterIdx]}
	return func() tea.Msg {
		ctx := context.Background()
		if err := m.app.CheckOverdue(ctx); err != nil {
			return invoicesDataMsg{err: err}
		}
		invoices, err := m.app.InvoiceService.ListInvoices(ctx, filter)
		return invoicesDataMsg{invoices: invoices, err: err}
	}
}

func (m *InvoicesModel) loadDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		invoice, err := m.app.InvoiceService.GetInvoice(context.Background(), id)
		return invoiceDetailMsg{invoice: invoice, err: err}
	}
}

// current returns the invoice the next action applies to
func (m *InvoicesModel) current() *domain.Invoice {
	if m.mode != invoiceViewList && m.selected != nil {
		return m.selected
	}
	if len(m.invoices) == 0 {
		return nil
	}
	return m.invoices[m.cursor]
}

func (m *InvoicesModel) markSent(inv *domain.Invoice) tea.Cmd {
	return func() tea.Msg {
		if err := m.app.InvoiceService.MarkSent(context.Background(), inv.ID); err != nil {
			return invoiceActionMsg{err: err}
		}
		return invoiceActionMsg{status: fmt.Sprintf("Invoice %s marked as sent", inv.InvoiceNumber)}
	}
}

func (m *InvoicesModel) markPaid(inv *domain.Invoice) tea.Cmd {
	return func() tea.Msg {
		if err := m.app.InvoiceService.MarkPaid(context.Background(), inv.ID, time.Now()); err != nil {
			return invoiceActionMsg{err: err}
		}
		return invoiceActionMsg{status: fmt.Sprintf("Invoice %s marked as paid", inv.InvoiceNumber)}
	}
}

func (m *InvoicesModel) export(inv *domain.Invoice, format render.Format) tea.Cmd {
	dir := m.app.Config.Invoice.OutputDir
	return func() tea.Msg {
		path, err := m.app.InvoiceService.Export(context.Background(), inv.ID, format, dir)
		if err != nil {
			return invoiceActionMsg{err: fmt.Errorf("export %s: %w", format, err)}
		}
		return invoiceActionMsg{status: fmt.Sprintf("Exported %s -> %s", inv.InvoiceNumber, path)}
	}
}

func (m *InvoicesModel) deleteInvoice(inv *domain.Invoice) tea.Cmd {
	return func() tea.Msg {
		if err := m.app.InvoiceService.DeleteInvoice(context.Background(), inv.ID); err != nil {
			return invoiceActionMsg{err: err}
		}
		return invoiceActionMsg{status: fmt.Sprintf("Invoice %s deleted", inv.InvoiceNumber)}
	}
}

func (m *InvoicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadInvoices()

	case BuilderClosedMsg:
		m.statusMsg = msg.Status
		m.loading = true
		return m, m.loadInvoices()

	case invoicesDataMsg:
		m.loading = false
		m.err = msg.err
		m.invoices = msg.invoices
		if m.cursor >= len(m.invoices) {
			m.cursor = max(0, len(m.invoices)-1)
		}
		return m, nil

	case invoiceDetailMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.selected = msg.invoice
		m.mode = invoiceViewDetail
		return m, nil

	case invoiceActionMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusMsg = msg.status
		// Reload both the list and an open detail view
		cmds := []tea.Cmd{m.loadInvoices()}
		if m.mode == invoiceViewConfirmDelete {
			m.mode = invoiceViewList
			m.selected = nil
		}
		if m.mode == invoiceViewDetail && m.selected != nil {
			cmds = append(cmds, m.loadDetail(m.selected.ID))
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch m.mode {
		case invoiceViewList:
			return m.updateList(msg)
		case invoiceViewDetail:
			return m.updateDetail(msg)
		case invoiceViewConfirmDelete:
			return m.updateConfirmDelete(msg)
		}
	}

	return m, nil
}

func (m *InvoicesModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil

	switch {
	case key.Matches(msg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, DefaultKeyMap.Down):
		if m.cursor < len(m.invoices)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, DefaultKeyMap.Select):
		if len(m.invoices) > 0 {
			m.loading = true
			return m, m.loadDetail(m.invoices[m.cursor].ID)
		}
		return m, nil
	case key.Matches(msg, DefaultKeyMap.New):
		m.statusMsg = ""
		return m, func() tea.Msg { return OpenBuilderMsg{} }
	case msg.String() == "f":
		m.filterIdx = (m.filterIdx + 1) % len(statusFilters)
		m.cursor = 0
		m.loading = true
		return m, m.loadInvoices()
	}

	return m.updateAction(msg)
}

func (m *InvoicesModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	if key.Matches(msg, DefaultKeyMap.Back) {
		m.mode = invoiceViewList
		m.selected = nil
		return m, nil
	}
	return m.updateAction(msg)
}

// updateAction handles the keys shared by list and detail views
func (m *InvoicesModel) updateAction(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	inv := m.current()
	if inv == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, DefaultKeyMap.Edit):
		if !inv.CanEdit() {
			m.err = fmt.Errorf("%w: %s is %s", service.ErrInvoiceNotEditable, inv.InvoiceNumber, inv.Status)
			return m, nil
		}
		if len(inv.LineItems) == 0 && m.mode == invoiceViewList {
			// List rows carry no line items; load them first
			m.loading = true
			id := inv.ID
			return m, func() tea.Msg {
				full, err := m.app.InvoiceService.GetInvoice(context.Background(), id)
				if err != nil {
					return invoiceActionMsg{err: err}
				}
				draft := service.ToDraft(full)
				return OpenBuilderMsg{Draft: &draft}
			}
		}
		draft := service.ToDraft(inv)
		return m, func() tea.Msg { return OpenBuilderMsg{Draft: &draft} }

	case msg.String() == "s":
		if inv.Status == domain.InvoiceStatusSent || inv.Status == domain.InvoiceStatusPaid {
			return m, nil
		}
		m.loading = true
		return m, m.markSent(inv)

	case msg.String() == "p":
		if inv.Status == domain.InvoiceStatusPaid {
			return m, nil
		}
		m.loading = true
		return m, m.markPaid(inv)

	case msg.String() == "o":
		m.loading = true
		return m, m.export(inv, render.FormatPDF)
	case msg.String() == "w":
		m.loading = true
		return m, m.export(inv, render.FormatXLSX)
	case msg.String() == "t":
		m.loading = true
		return m, m.export(inv, render.FormatText)

	case key.Matches(msg, DefaultKeyMap.Delete):
		m.selected = inv
		m.mode = invoiceViewConfirmDelete
	}
	return m, nil
}

func (m *InvoicesModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.loading = true
		return m, m.deleteInvoice(m.selected)
	default:
		m.mode = invoiceViewList
		m.selected = nil
	}
	return m, nil
}

func (m *InvoicesModel) View() string {
	if m.loading {
		return "Loading..."
	}

	switch m.mode {
	case invoiceViewDetail:
		return m.viewDetail()
	case invoiceViewConfirmDelete:
		return m.viewList() + "\n\n" + lipgloss.NewStyle().Foreground(warningColor).Render(
			fmt.Sprintf("  Delete invoice %s? [y/N]", m.selected.InvoiceNumber))
	default:
		return m.viewList()
	}
}

func (m *InvoicesModel) viewList() string {
	var s string
	title := "Invoices"
	if f := statusFilters[m.filterIdx]; f != nil {
		title += " (" + string(*f) + ")"
	}
	s += titleStyle.Render(title) + "\n\n"

	if m.statusMsg != "" {
		s += successStyle.Render("  "+m.statusMsg) + "\n\n"
	}

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	if len(m.invoices) == 0 && m.err == nil {
		s += subtitleStyle.Render("  No invoices yet. Press 'n' to create one.")
		return s
	}

	// Header
	s += subtitleStyle.Render(fmt.Sprintf(
		"  %-14s  %-22s  %-12s  %-12s  %12s  %s",
		"Number", "Client", "Issued", "Due", "Total", "Status",
	)) + "\n"

	for i, inv := range m.invoices {
		invLine := fmt.Sprintf("  %-14s  %-22s  %-12s  %-12s  %12s  ",
			inv.InvoiceNumber,
			truncateStr(inv.ClientName, 22),
			inv.IssueDate.Format("Jan 02, 2006"),
			inv.DueDate.Format("Jan 02, 2006"),
			formatMoney(inv.Total),
		)

		if i == m.cursor {
			s += selectedStyle.Render(invLine+string(inv.Status)) + "\n"
		} else {
			s += invLine + statusBadge(inv.Status) + "\n"
		}
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: detail  n: new  e: edit  s: sent  p: paid  o/w/t: pdf/xlsx/txt  d: delete  f: filter")

	return s
}

func (m *InvoicesModel) viewDetail() string {
	inv := m.selected
	if inv == nil {
		return "No invoice selected"
	}

	var s string
	template, _ := builder.LookupTemplate(inv.TemplateID)

	// Header
	s += titleStyle.Render(fmt.Sprintf("Invoice %s", inv.InvoiceNumber)) + "\n\n"
	s += fmt.Sprintf("  Client:   %s %s\n", inv.ClientName, subtitleStyle.Render(inv.ClientEmail))
	s += fmt.Sprintf("  Issued:   %s\n", inv.IssueDate.Format("Jan 02, 2006"))
	s += fmt.Sprintf("  Due:      %s\n", inv.DueDate.Format("Jan 02, 2006"))
	s += fmt.Sprintf("  Template: %s\n", accentStyle(template.Color).Render(template.Name))
	s += fmt.Sprintf("  Status:   %s\n", statusBadge(inv.Status))
	if inv.SentAt != nil {
		s += fmt.Sprintf("  Sent:     %s\n", inv.SentAt.Format("Jan 02, 2006"))
	}
	if inv.PaidDate != nil {
		s += fmt.Sprintf("  Paid:     %s\n", inv.PaidDate.Format("Jan 02, 2006"))
	}
	s += "\n"

	// Line items
	if len(inv.LineItems) == 0 {
		s += subtitleStyle.Render("  No line items") + "\n"
	} else {
		s += subtitleStyle.Render(fmt.Sprintf(
			"  %-36s  %8s  %12s  %12s",
			"Description", "Qty", "Rate", "Amount",
		)) + "\n"

		for _, item := range inv.LineItems {
			s += fmt.Sprintf("  %-36s  %8s  %12s  %12s\n",
				truncateStr(item.Description, 36),
				render.FormatQuantity(item.Quantity),
				formatMoney(item.Rate),
				formatMoney(item.Amount),
			)
		}
	}

	s += "\n"
	s += fmt.Sprintf("  Subtotal:  %12s\n", formatMoney(inv.Subtotal))
	s += fmt.Sprintf("  Tax %-6s %12s\n", render.FormatPercent(inv.TaxRate)+":", formatMoney(inv.TaxAmount))
	s += lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("  Total:     %12s", formatMoney(inv.Total)),
	) + "\n"

	if inv.Notes != "" {
		s += "\n" + subtitleStyle.Render("  "+inv.Notes) + "\n"
	}

	if m.statusMsg != "" {
		s += "\n" + successStyle.Render("  "+m.statusMsg) + "\n"
	}
	if m.err != nil {
		s += "\n" + errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n"
	}

	s += "\n" + helpStyle.Render("  e: edit  s: sent  p: paid  o/w/t: pdf/xlsx/txt  d: delete  esc: back to list")

	return s
}

// statusBadge renders an invoice status with color
func statusBadge(status domain.InvoiceStatus) string {
	switch status {
	case domain.InvoiceStatusDraft:
		return lipgloss.NewStyle().Foreground(mutedColor).Render("DRAFT")
	case domain.InvoiceStatusPending:
		return lipgloss.NewStyle().Foreground(primaryColor).Render("PENDING")
	case domain.InvoiceStatusSent:
		return lipgloss.NewStyle().Foreground(warningColor).Render("SENT")
	case domain.InvoiceStatusPaid:
		return lipgloss.NewStyle().Foreground(successColor).Render("PAID")
	case domain.InvoiceStatusOverdue:
		return lipgloss.NewStyle().Foreground(errorColor).Render("OVERDUE")
	default:
		return string(status)
	}
}
