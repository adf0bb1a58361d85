package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/andy/billbook/internal/app"
	"github.com/andy/billbook/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// ReportsModel displays yearly revenue, monthly expense breakdowns and
// outstanding totals
type ReportsModel struct {
	app         *app.App
	revenueYear int

	// Month detail
	monthCursor time.Month
	categories  []service.CategoryTotal

	summary *service.Summary
	monthly map[time.Month]decimal.Decimal

	loading bool
	err     error
}

type reportsDataMsg struct {
	summary *service.Summary
	monthly map[time.Month]decimal.Decimal
	err     error
}

type monthDetailMsg struct {
	categories []service.CategoryTotal
	err        error
}

// NewReportsModel creates a new reports screen model
func NewReportsModel(a *app.App) tea.Model {
	now := time.Now()
	return &ReportsModel{
		app:         a,
		revenueYear: now.Year(),
		monthCursor: now.Month(),
		loading:     true,
	}
}

func (m *ReportsModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *ReportsModel) loadData() tea.Cmd {
	year := m.revenueYear
	return func() tea.Msg {
		ctx := context.Background()

		summary, err := m.app.SummaryService.GetSummary(ctx, time.Now())
		if err != nil {
			return reportsDataMsg{err: err}
		}

		monthly, err := m.app.SummaryService.GetRevenueByMonth(ctx, year)
		if err != nil {
			return reportsDataMsg{err: err}
		}

		return reportsDataMsg{summary: summary, monthly: monthly}
	}
}

func (m *ReportsModel) loadMonthDetail() tea.Cmd {
	start := time.Date(m.revenueYear, m.monthCursor, 1, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 1, -1)
	return func() tea.Msg {
		categories, err := m.app.SummaryService.GetExpensesByCategory(context.Background(), start, end)
		return monthDetailMsg{categories: categories, err: err}
	}
}

func (m *ReportsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadData()

	case reportsDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.summary = msg.summary
		m.monthly = msg.monthly
		// Load expense detail for current cursor
		return m, m.loadMonthDetail()

	case monthDetailMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.categories = msg.categories
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.monthCursor > time.January {
				m.monthCursor--
				return m, m.loadMonthDetail()
			}

		case key.Matches(msg, DefaultKeyMap.Down):
			if m.monthCursor < time.December {
				m.monthCursor++
				return m, m.loadMonthDetail()
			}

		case key.Matches(msg, DefaultKeyMap.Left), msg.String() == "[":
			m.revenueYear--
			m.loading = true
			return m, m.loadData()

		case key.Matches(msg, DefaultKeyMap.Right), msg.String() == "]":
			if m.revenueYear < time.Now().Year() {
				m.revenueYear++
				m.loading = true
				return m, m.loadData()
			}
		}
	}

	return m, nil
}

func (m *ReportsModel) View() string {
	if m.loading {
		return titleStyle.Render("Reports") + "\n\n  Loading..."
	}

	if m.err != nil {
		return titleStyle.Render("Reports") + "\n\n" +
			errorStyle.Render(fmt.Sprintf("  Error: %v", m.err))
	}

	var s string

	s += titleStyle.Render("Reports") + "\n\n"

	// Outstanding money
	s += lipgloss.NewStyle().Bold(true).Render("  Receivables") + "\n"
	s += fmt.Sprintf("    Outstanding: %s (%d)\n", formatMoney(m.summary.Outstanding), m.summary.OutstandingCount)
	overdue := formatMoney(m.summary.Overdue)
	if m.summary.OverdueCount > 0 {
		overdue = errorStyle.Render(overdue)
	}
	s += fmt.Sprintf("    Overdue:     %s (%d)\n", overdue, m.summary.OverdueCount)
	s += "\n"

	// Monthly revenue chart with month selection
	s += m.renderMonthlyRevenue()
	s += "\n"

	// Expenses for selected month
	s += m.renderMonthExpenses()

	s += "\n" + helpStyle.Render("  j/k: select month  h/l or [/]: prev/next year")

	return s
}

func (m *ReportsModel) renderMonthlyRevenue() string {
	s := lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("  Revenue by Month (%d)", m.revenueYear),
	) + "\n"

	maxRevenue := decimal.Zero
	yearTotal := decimal.Zero
	for _, revenue := range m.monthly {
		maxRevenue = decimal.Max(maxRevenue, revenue)
		yearTotal = yearTotal.Add(revenue)
	}

	const maxBar = 25
	barStyle := lipgloss.NewStyle().Foreground(primaryColor)
	for month := time.January; month <= time.December; month++ {
		revenue := m.monthly[month]
		label := lipgloss.NewStyle().Width(5).Render(month.String()[:3])
		line := fmt.Sprintf("%s %s %12s", label, barStyle.Render(fmt.Sprintf("%-25s", bar(revenue, maxRevenue, maxBar))), formatMoney(revenue))

		if month == m.monthCursor {
			s += lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render("  > "+line) + "\n"
		} else {
			s += "    " + line + "\n"
		}
	}

	if yearTotal.IsZero() {
		s += subtitleStyle.Render("    No revenue recorded") + "\n"
	} else {
		s += "    " + totalStyle.Render(fmt.Sprintf("%-31s %12s", "Total", formatMoney(yearTotal))) + "\n"
	}

	return s
}

func (m *ReportsModel) renderMonthExpenses() string {
	header := fmt.Sprintf("  Expenses, %s %d", m.monthCursor, m.revenueYear)
	s := lipgloss.NewStyle().Bold(true).Render(header) + "\n"

	if len(m.categories) == 0 {
		s += subtitleStyle.Render("    No expenses") + "\n"
		return s
	}

	total := decimal.Zero
	for _, c := range m.categories {
		total = total.Add(c.Total)
	}

	for _, c := range m.categories {
		share := decimal.Zero
		if !total.IsZero() {
			share = c.Total.Div(total).Mul(decimal.NewFromInt(100))
		}
		s += fmt.Sprintf("    %-16s %12s  %s\n",
			c.Category,
			formatMoney(c.Total),
			subtitleStyle.Render(share.StringFixed(0)+"%"),
		)
	}

	revenue := m.monthly[m.monthCursor]
	net := revenue.Sub(total)
	netStr := formatMoney(net)
	if net.IsNegative() {
		netStr = errorStyle.Render(netStr)
	}
	s += fmt.Sprintf("    %-16s %12s\n", "Total", formatMoney(total))
	s += fmt.Sprintf("    %-16s %12s\n", "Net", netStr)
	return s
}
