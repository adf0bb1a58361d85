package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andy/billbook/internal/app"
	"github.com/andy/billbook/internal/builder"
	"github.com/andy/billbook/internal/domain"
	"github.com/andy/billbook/internal/repository"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

type expenseMode int

const (
	expenseModeList expenseMode = iota
	expenseModeForm
	expenseModeConfirmDelete
)

// expense form fields; category is a picker, not a text input
const (
	expFieldAmount = iota
	expFieldVendor
	expFieldDate
	expFieldDescription
	expFieldCategory
	expFieldCount
)

var expenseFieldLabels = [expFieldCount]string{"Amount:", "Vendor:", "Date:", "Description:", "Category:"}

// ExpensesModel lists one month of expenses with an add/edit form
type ExpensesModel struct {
	app      *app.App
	month    time.Time // first day of the month shown
	expenses []*domain.Expense
	total    decimal.Decimal
	cursor   int
	loading  bool
	err      error
	status   string

	mode        expenseMode
	inputs      []textinput.Model
	focus       int
	categoryIdx int
	editingID   int64
}

type expensesDataMsg struct {
	expenses []*domain.Expense
	err      error
}

type expenseSavedMsg struct {
	status string
	err    error
}

// NewExpensesModel creates a new expenses screen model
func NewExpensesModel(a *app.App) tea.Model {
	now := time.Now()
	return &ExpensesModel{
		app:     a,
		month:   time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
		loading: true,
	}
}

// IsCapturingInput returns true when the form is active
func (m *ExpensesModel) IsCapturingInput() bool {
	return m.mode == expenseModeForm
}

func (m *ExpensesModel) Init() tea.Cmd {
	return m.loadExpenses()
}

func (m *ExpensesModel) loadExpenses() tea.Cmd {
	start := m.month
	end := m.month.AddDate(0, 1, -1)
	return func() tea.Msg {
		expenses, err := m.app.ExpenseRepo.List(context.Background(), repository.ExpenseFilter{Start: &start, End: &end})
		return expensesDataMsg{expenses: expenses, err: err}
	}
}

func (m *ExpensesModel) initForm(editing *domain.Expense) {
	m.inputs = make([]textinput.Model, expFieldCategory)
	placeholders := []string{"0.00", "Vendor", builder.DateLayout, "What was it for?"}
	for i := range m.inputs {
		m.inputs[i] = textinput.New()
		m.inputs[i].Placeholder = placeholders[i]
		m.inputs[i].CharLimit = 120
		m.inputs[i].Width = 40
	}
	m.inputs[expFieldDate].SetValue(time.Now().Format(builder.DateLayout))
	m.categoryIdx = len(domain.ExpenseCategories) - 1
	m.editingID = 0

	if editing != nil {
		m.inputs[expFieldAmount].SetValue(editing.Amount.StringFixed(2))
		m.inputs[expFieldVendor].SetValue(editing.Vendor)
		m.inputs[expFieldDate].SetValue(editing.Date.Format(builder.DateLayout))
		m.inputs[expFieldDescription].SetValue(editing.Description)
		for i, c := range domain.ExpenseCategories {
			if c == editing.Category {
				m.categoryIdx = i
			}
		}
		m.editingID = editing.ID
	}

	m.focus = expFieldAmount
	m.inputs[expFieldAmount].Focus()
	m.mode = expenseModeForm
	m.err = nil
}

func (m *ExpensesModel) saveExpense() tea.Cmd {
	amountStr := strings.TrimPrefix(strings.TrimSpace(m.inputs[expFieldAmount].Value()), "$")
	vendor := m.inputs[expFieldVendor].Value()
	dateStr := strings.TrimSpace(m.inputs[expFieldDate].Value())
	description := strings.TrimSpace(m.inputs[expFieldDescription].Value())
	category := domain.ExpenseCategories[m.categoryIdx]
	editingID := m.editingID

	return func() tea.Msg {
		ctx := context.Background()

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return expenseSavedMsg{err: fmt.Errorf("invalid amount: %q", amountStr)}
		}
		date, err := time.ParseInLocation(builder.DateLayout, dateStr, time.Local)
		if err != nil {
			return expenseSavedMsg{err: fmt.Errorf("invalid date: %q", dateStr)}
		}

		expense := domain.NewExpense(category, amount, date, vendor)
		expense.Description = description
		if editingID > 0 {
			existing, err := m.app.ExpenseRepo.GetByID(ctx, editingID)
			if err != nil {
				return expenseSavedMsg{err: err}
			}
			expense.ID = existing.ID
			expense.ReceiptPath = existing.ReceiptPath
			expense.CreatedAt = existing.CreatedAt
		}
		if err := expense.Validate(); err != nil {
			return expenseSavedMsg{err: err}
		}

		if editingID > 0 {
			err = m.app.ExpenseRepo.Update(ctx, expense)
		} else {
			err = m.app.ExpenseRepo.Create(ctx, expense)
		}
		if err != nil {
			return expenseSavedMsg{err: err}
		}
		return expenseSavedMsg{status: fmt.Sprintf("Saved %s at %s", formatMoney(expense.Amount), expense.Vendor)}
	}
}

func (m *ExpensesModel) deleteExpense(e *domain.Expense) tea.Cmd {
	return func() tea.Msg {
		if err := m.app.ExpenseRepo.Delete(context.Background(), e.ID); err != nil {
			return expenseSavedMsg{err: err}
		}
		return expenseSavedMsg{status: fmt.Sprintf("Deleted expense at %s", e.Vendor)}
	}
}

func (m *ExpensesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadExpenses()

	case expensesDataMsg:
		m.loading = false
		m.err = msg.err
		m.expenses = msg.expenses
		m.total = decimal.Zero
		for _, e := range m.expenses {
			m.total = m.total.Add(e.Amount)
		}
		if m.cursor >= len(m.expenses) {
			m.cursor = max(0, len(m.expenses)-1)
		}
		return m, nil

	case expenseSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			if m.mode == expenseModeConfirmDelete {
				m.mode = expenseModeList
			}
			return m, nil
		}
		m.mode = expenseModeList
		m.status = msg.status
		m.loading = true
		return m, m.loadExpenses()

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		switch m.mode {
		case expenseModeForm:
			return m.updateForm(msg)
		case expenseModeConfirmDelete:
			if msg.String() == "y" || msg.String() == "Y" {
				return m, m.deleteExpense(m.expenses[m.cursor])
			}
			m.mode = expenseModeList
			return m, nil
		}
		return m.updateList(msg)
	}

	if m.mode == expenseModeForm && m.focus < expFieldCategory {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *ExpensesModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	m.status = ""

	switch {
	case key.Matches(msg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, DefaultKeyMap.Down):
		if m.cursor < len(m.expenses)-1 {
			m.cursor++
		}
	case key.Matches(msg, DefaultKeyMap.Left):
		m.month = m.month.AddDate(0, -1, 0)
		m.cursor = 0
		m.loading = true
		return m, m.loadExpenses()
	case key.Matches(msg, DefaultKeyMap.Right):
		m.month = m.month.AddDate(0, 1, 0)
		m.cursor = 0
		m.loading = true
		return m, m.loadExpenses()
	case key.Matches(msg, DefaultKeyMap.New):
		m.initForm(nil)
		return m, textinput.Blink
	case key.Matches(msg, DefaultKeyMap.Edit), key.Matches(msg, DefaultKeyMap.Select):
		if len(m.expenses) > 0 {
			m.initForm(m.expenses[m.cursor])
			return m, textinput.Blink
		}
	case key.Matches(msg, DefaultKeyMap.Delete):
		if len(m.expenses) > 0 {
			m.mode = expenseModeConfirmDelete
		}
	}
	return m, nil
}

func (m *ExpensesModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = expenseModeList
		m.err = nil
		return m, nil
	case "tab", "down":
		return m, m.focusField((m.focus + 1) % expFieldCount)
	case "shift+tab", "up":
		return m, m.focusField((m.focus - 1 + expFieldCount) % expFieldCount)
	case "enter":
		if m.focus == expFieldCount-1 {
			return m, m.saveExpense()
		}
		return m, m.focusField(m.focus + 1)
	case "ctrl+s":
		return m, m.saveExpense()
	}

	if m.focus == expFieldCategory {
		n := len(domain.ExpenseCategories)
		switch msg.String() {
		case "left", "h":
			m.categoryIdx = (m.categoryIdx - 1 + n) % n
		case "right", "l", " ":
			m.categoryIdx = (m.categoryIdx + 1) % n
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *ExpensesModel) focusField(i int) tea.Cmd {
	if m.focus < expFieldCategory {
		m.inputs[m.focus].Blur()
	}
	m.focus = i
	if m.focus < expFieldCategory {
		return m.inputs[m.focus].Focus()
	}
	return nil
}

func (m *ExpensesModel) View() string {
	if m.loading {
		return "Loading expenses..."
	}
	if m.mode == expenseModeForm {
		return m.viewForm()
	}

	s := m.viewList()
	if m.mode == expenseModeConfirmDelete {
		e := m.expenses[m.cursor]
		s += "\n\n" + lipgloss.NewStyle().Foreground(warningColor).Render(
			fmt.Sprintf("  Delete %s at %s? [y/N]", formatMoney(e.Amount), e.Vendor))
	}
	return s
}

func (m *ExpensesModel) viewList() string {
	var s string
	s += titleStyle.Render("Expenses") + subtitleStyle.Render("  "+m.month.Format("January 2006")) + "\n\n"

	if m.status != "" {
		s += successStyle.Render("  "+m.status) + "\n\n"
	}
	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	if len(m.expenses) == 0 {
		s += subtitleStyle.Render("  No expenses this month. Press 'n' to add one.") + "\n"
	} else {
		s += subtitleStyle.Render(fmt.Sprintf("  %-8s  %-16s  %-24s  %12s", "Date", "Category", "Vendor", "Amount")) + "\n"
		for i, e := range m.expenses {
			line := fmt.Sprintf("  %-8s  %-16s  %-24s  %12s",
				e.Date.Format("Jan 02"),
				e.Category,
				truncateStr(e.Vendor, 24),
				formatMoney(e.Amount),
			)
			if i == m.cursor {
				s += selectedStyle.Render(line) + "\n"
			} else {
				s += line + "\n"
			}
		}
		s += "\n" + totalStyle.Render(fmt.Sprintf("  %-52s  %12s", "Total", formatMoney(m.total))) + "\n"
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  h/l: prev/next month  n: new  e: edit  d: delete")
	return s
}

func (m *ExpensesModel) viewForm() string {
	var s string
	if m.editingID > 0 {
		s += titleStyle.Render("Edit Expense") + "\n\n"
	} else {
		s += titleStyle.Render("New Expense") + "\n\n"
	}

	for i, label := range expenseFieldLabels {
		indicator := "  "
		labelStyle := subtitleStyle
		if i == m.focus {
			indicator = "> "
			labelStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
		}
		var value string
		if i == expFieldCategory {
			value = fmt.Sprintf("< %s >", domain.ExpenseCategories[m.categoryIdx])
		} else {
			value = m.inputs[i].View()
		}
		s += fmt.Sprintf("%s%s\n  %s\n\n", indicator, labelStyle.Render(label), value)
	}

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	s += helpStyle.Render("  tab/shift+tab: navigate fields  ←/→: category  ctrl+s: save  esc: cancel")
	return s
}
