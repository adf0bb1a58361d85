package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/andy/billbook/internal/app"
	"github.com/andy/billbook/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DashboardModel represents the dashboard home screen
type DashboardModel struct {
	app *app.App

	summary *service.Summary
	now     time.Time

	loading bool
	err     error
}

type dashboardDataMsg struct {
	summary *service.Summary
	now     time.Time
	err     error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(a *app.App) tea.Model {
	return &DashboardModel{
		app:     a,
		loading: true,
	}
}

func (m *DashboardModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *DashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		now := time.Now()

		// Flag overdue invoices before totalling
		if err := m.app.CheckOverdue(ctx); err != nil {
			return dashboardDataMsg{err: fmt.Errorf("overdue check: %w", err)}
		}

		summary, err := m.app.SummaryService.GetSummary(ctx, now)
		if err != nil {
			return dashboardDataMsg{err: fmt.Errorf("summary: %w", err)}
		}
		return dashboardDataMsg{summary: summary, now: now}
	}
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.summary = msg.summary
		m.now = msg.now
		return m, nil

	case RefreshDataMsg:
		m.loading = true
		return m, m.loadData()

	case tea.KeyMsg:
		if msg.String() == "n" {
			return m, func() tea.Msg { return OpenBuilderMsg{} }
		}
	}

	return m, nil
}

func (m *DashboardModel) View() string {
	if m.loading {
		return "Loading dashboard..."
	}

	if m.err != nil {
		return lipgloss.NewStyle().Foreground(errorColor).
			Render(fmt.Sprintf("Error: %v", m.err))
	}

	s := m.summary
	var out string

	out += fmt.Sprintf("  Outstanding:  %-14s %s\n",
		formatMoney(s.Outstanding),
		subtitleStyle.Render(fmt.Sprintf("%d invoice(s)", s.OutstandingCount)))

	overdue := fmt.Sprintf("%-14s", formatMoney(s.Overdue))
	if s.OverdueCount > 0 {
		overdue = errorStyle.Render(overdue)
	}
	out += fmt.Sprintf("  Overdue:      %s %s\n",
		overdue,
		subtitleStyle.Render(fmt.Sprintf("%d invoice(s)", s.OverdueCount)))

	out += "\n" + subtitleStyle.Render("  "+m.now.Format("January 2006")) + "\n"
	out += fmt.Sprintf("  Paid:         %s\n", successStyle.Render(formatMoney(s.PaidThisMonth)))
	out += fmt.Sprintf("  Expenses:     %s\n", formatMoney(s.ExpensesThisMonth))

	net := formatMoney(s.NetThisMonth)
	if s.NetThisMonth.IsNegative() {
		net = errorStyle.Render(net)
	} else {
		net = totalStyle.Render(net)
	}
	out += fmt.Sprintf("  Net:          %s\n", net)

	out += "\n" + m.renderRecentInvoices()
	out += "\n" + helpStyle.Render("  n: new invoice")
	return out
}

func (m *DashboardModel) renderRecentInvoices() string {
	header := "  Recent Invoices\n"
	if len(m.summary.RecentInvoices) == 0 {
		return header + subtitleStyle.Render("  No invoices yet. Press n to create one.") + "\n"
	}

	s := header
	for _, inv := range m.summary.RecentInvoices {
		s += fmt.Sprintf("  %-14s %-22s %-8s %12s  %s\n",
			inv.InvoiceNumber,
			truncateStr(inv.ClientName, 22),
			inv.IssueDate.Format("Jan 2"),
			formatMoney(inv.Total),
			statusBadge(inv.Status),
		)
	}
	return s
}
