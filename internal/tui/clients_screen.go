package tui

import (
	"context"
	"fmt"
	"strconv"
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

// clientMode represents the current screen mode
type clientMode int

const (
	clientModeList clientMode = iota
	clientModeNew
	clientModeEdit
)

// form field indices
const (
	fieldName = iota
	fieldEmail
	fieldPhone
	fieldAddress
	fieldTerms
	fieldNotes
	fieldCount
)

var clientFieldLabels = [fieldCount]string{"Name:", "Email:", "Phone:", "Address:", "Payment terms (days):", "Notes:"}

// ClientsModel displays a navigable list of clients with create/edit forms
type ClientsModel struct {
	app          *app.App
	clients      []*domain.Client
	cursor       int
	showArchived bool
	stats        map[int64]*clientStats
	loading      bool
	err          error
	statusMsg    string

	// Form state
	mode          clientMode
	fields        []textinput.Model
	fieldFocus    int
	editingID     int64 // 0 for new client
	autoNewClient bool  // open new client form after data loads
}

// clientStats summarizes a client's invoices
type clientStats struct {
	invoices    int
	outstanding decimal.Decimal
	paid        decimal.Decimal
}

type clientsDataMsg struct {
	clients []*domain.Client
	stats   map[int64]*clientStats
	err     error
}

type clientSavedMsg struct {
	name string
	err  error
}

// NewClientsModel creates a new clients screen model
func NewClientsModel(a *app.App) tea.Model {
	return &ClientsModel{
		app:     a,
		stats:   make(map[int64]*clientStats),
		loading: true,
	}
}

// IsCapturingInput returns true when the form is active
func (m *ClientsModel) IsCapturingInput() bool {
	return m.mode == clientModeNew || m.mode == clientModeEdit
}

func (m *ClientsModel) Init() tea.Cmd {
	return m.loadClients()
}

func (m *ClientsModel) loadClients() tea.Cmd {
	showArchived := m.showArchived
	return func() tea.Msg {
		ctx := context.Background()

		clients, err := m.app.ClientRepo.List(ctx, showArchived)
		if err != nil {
			return clientsDataMsg{err: err}
		}

		stats := make(map[int64]*clientStats)
		for _, client := range clients {
			cid := client.ID
			invoices, err := m.app.InvoiceRepo.List(ctx, repository.InvoiceFilter{ClientID: &cid})
			if err != nil {
				continue
			}
			cs := &clientStats{invoices: len(invoices)}
			for _, inv := range invoices {
				switch {
				case inv.IsOutstanding():
					cs.outstanding = cs.outstanding.Add(inv.Total)
				case inv.Status == domain.InvoiceStatusPaid:
					cs.paid = cs.paid.Add(inv.Total)
				}
			}
			stats[client.ID] = cs
		}

		return clientsDataMsg{clients: clients, stats: stats}
	}
}

func (m *ClientsModel) initForm(editing *domain.Client) {
	m.fields = make([]textinput.Model, fieldCount)

	placeholders := [fieldCount]string{"Client name", "billing@example.com", "+1 555 0100", "Street, City", strconv.Itoa(domain.DefaultPaymentTermsDays), "Optional notes"}
	limits := [fieldCount]int{100, 100, 40, 200, 4, 200}
	for i := range m.fields {
		m.fields[i] = textinput.New()
		m.fields[i].Placeholder = placeholders[i]
		m.fields[i].CharLimit = limits[i]
		m.fields[i].Width = 50
	}
	m.fields[fieldTerms].Width = 6

	// Pre-fill for editing
	if editing != nil {
		m.fields[fieldName].SetValue(editing.Name)
		m.fields[fieldEmail].SetValue(editing.Email)
		m.fields[fieldPhone].SetValue(editing.Phone)
		m.fields[fieldAddress].SetValue(editing.Address)
		m.fields[fieldTerms].SetValue(strconv.Itoa(editing.PaymentTermsDays))
		m.fields[fieldNotes].SetValue(editing.Notes)
		m.editingID = editing.ID
	} else {
		m.editingID = 0
	}

	m.fieldFocus = fieldName
	m.fields[fieldName].Focus()
}

func (m *ClientsModel) saveClient() tea.Cmd {
	values := make([]string, fieldCount)
	for i := range m.fields {
		values[i] = strings.TrimSpace(m.fields[i].Value())
	}
	editingID := m.editingID

	return func() tea.Msg {
		ctx := context.Background()

		terms := domain.DefaultPaymentTermsDays
		if s := values[fieldTerms]; s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return clientSavedMsg{err: fmt.Errorf("invalid payment terms: %s", s)}
			}
			terms = n
		}

		var client *domain.Client
		if editingID > 0 {
			existing, err := m.app.ClientRepo.GetByID(ctx, editingID)
			if err != nil {
				return clientSavedMsg{err: err}
			}
			client = existing
			client.Name = values[fieldName]
			client.Email = values[fieldEmail]
			client.UpdatedAt = time.Now()
		} else {
			client = domain.NewClient(values[fieldName], values[fieldEmail])
		}
		client.Phone = values[fieldPhone]
		client.Address = values[fieldAddress]
		client.PaymentTermsDays = terms
		client.Notes = values[fieldNotes]

		if err := client.Validate(); err != nil {
			return clientSavedMsg{err: err}
		}

		if editingID > 0 {
			if err := m.app.ClientRepo.Update(ctx, client); err != nil {
				return clientSavedMsg{err: err}
			}
		} else if err := m.app.ClientRepo.Create(ctx, client); err != nil {
			return clientSavedMsg{err: err}
		}
		return clientSavedMsg{name: client.Name}
	}
}

func (m *ClientsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle OpenNewClientFormMsg at the top so it works regardless of mode
	if _, ok := msg.(OpenNewClientFormMsg); ok {
		if m.loading {
			// Data hasn't loaded yet; set flag to auto-open form when it does
			m.autoNewClient = true
			return m, nil
		}
		m.mode = clientModeNew
		m.initForm(nil)
		return m, m.fields[fieldName].Focus()
	}

	// Handle form mode
	if m.mode == clientModeNew || m.mode == clientModeEdit {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadClients()

	case clientsDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.clients = msg.clients
			m.stats = msg.stats
			if m.cursor >= len(m.clients) {
				m.cursor = max(0, len(m.clients)-1)
			}
		}
		// Auto-open new client form on first run
		if m.autoNewClient {
			m.autoNewClient = false
			m.mode = clientModeNew
			m.initForm(nil)
			return m, m.fields[fieldName].Focus()
		}
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		m.statusMsg = ""
		m.err = nil

		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.cursor < len(m.clients)-1 {
				m.cursor++
			}
		case key.Matches(msg, DefaultKeyMap.New):
			m.mode = clientModeNew
			m.initForm(nil)
			return m, m.fields[fieldName].Focus()
		case key.Matches(msg, DefaultKeyMap.Select), key.Matches(msg, DefaultKeyMap.Edit):
			if len(m.clients) > 0 && m.cursor < len(m.clients) {
				m.mode = clientModeEdit
				m.initForm(m.clients[m.cursor])
				return m, m.fields[fieldName].Focus()
			}
		case msg.String() == "b":
			// Start an invoice billed to the selected client
			if len(m.clients) > 0 {
				return m, m.billClient(m.clients[m.cursor])
			}
		case msg.String() == "a":
			if len(m.clients) > 0 && m.cursor < len(m.clients) {
				return m, m.toggleArchive(m.clients[m.cursor])
			}
		case msg.String() == "h":
			m.showArchived = !m.showArchived
			m.cursor = 0
			m.loading = true
			return m, m.loadClients()
		}
	}

	return m, nil
}

func (m *ClientsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clientSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mode = clientModeList
		m.statusMsg = fmt.Sprintf("Saved: %s", msg.name)
		m.loading = true
		return m, m.loadClients()

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			// Cancel form
			m.mode = clientModeList
			m.err = nil
			return m, nil

		case "tab", "down":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus + 1) % fieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "shift+tab", "up":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus - 1 + fieldCount) % fieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "enter":
			if m.fieldFocus == fieldCount-1 {
				return m, m.saveClient()
			}
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus++
			return m, m.fields[m.fieldFocus].Focus()

		case "ctrl+s":
			return m, m.saveClient()
		}
	}

	// Update the focused text input
	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	return m, cmd
}

// billClient opens the builder with the client's name, email and terms filled in
func (m *ClientsModel) billClient(client *domain.Client) tea.Cmd {
	return func() tea.Msg {
		now := time.Now()
		draft := m.app.NewDraft(context.Background(), now)
		draft.ClientName = client.Name
		draft.ClientEmail = client.Email
		draft.DueDate = client.DueDateFrom(now).Format(builder.DateLayout)
		return OpenBuilderMsg{Draft: &draft}
	}
}

func (m *ClientsModel) toggleArchive(client *domain.Client) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		var err error
		if client.IsArchived {
			err = m.app.ClientRepo.Unarchive(ctx, client.ID)
		} else {
			err = m.app.ClientRepo.Archive(ctx, client.ID)
		}
		if err != nil {
			return clientsDataMsg{err: err}
		}

		// Reload
		return m.loadClients()()
	}
}

func (m *ClientsModel) View() string {
	if m.mode == clientModeNew || m.mode == clientModeEdit {
		return m.viewForm()
	}
	return m.viewList()
}

func (m *ClientsModel) viewForm() string {
	var s string

	if m.mode == clientModeNew {
		if len(m.clients) == 0 {
			s += titleStyle.Render("Welcome to billbook!") + "\n"
			s += subtitleStyle.Render("  Add your first client to get started.") + "\n\n"
		} else {
			s += titleStyle.Render("New Client") + "\n\n"
		}
	} else {
		s += titleStyle.Render("Edit Client") + "\n\n"
	}

	for i, label := range clientFieldLabels {
		indicator := "  "
		labelStyle := subtitleStyle
		if i == m.fieldFocus {
			indicator = "> "
			labelStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
		}
		s += fmt.Sprintf("%s%s\n  %s\n\n", indicator, labelStyle.Render(label), m.fields[i].View())
	}

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	s += helpStyle.Render("  tab/shift+tab: navigate fields  ctrl+s: save  enter: next/save  esc: cancel")

	return s
}

func (m *ClientsModel) viewList() string {
	if m.loading {
		return "Loading clients..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	var s string

	// Header
	header := "Clients"
	if m.showArchived {
		header += subtitleStyle.Render("  (showing archived)")
	}
	s += titleStyle.Render(header) + "\n\n"

	if m.statusMsg != "" {
		s += successStyle.Render("  "+m.statusMsg) + "\n\n"
	}

	if len(m.clients) == 0 {
		s += subtitleStyle.Render("  No clients yet. Press 'n' to add one.") + "\n"
		s += subtitleStyle.Render("  Press 'h' to toggle archived clients") + "\n"
		return s
	}

	for i, client := range m.clients {
		s += m.renderClient(i, client) + "\n"
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  n: new  enter/e: edit  b: bill  a: archive/unarchive  h: toggle archived")

	return s
}

func (m *ClientsModel) renderClient(index int, client *domain.Client) string {
	selected := index == m.cursor

	name := client.Name
	if client.IsArchived {
		name += " (archived)"
	}

	stats := m.stats[client.ID]
	if stats == nil {
		stats = &clientStats{}
	}
	billing := fmt.Sprintf("Net %d  |  %d invoice(s)  |  Outstanding %s  |  Paid %s",
		client.PaymentTermsDays, stats.invoices, formatMoney(stats.outstanding), formatMoney(stats.paid))

	contact := client.Email
	if client.Phone != "" {
		contact = strings.TrimSpace(contact + "  " + client.Phone)
	}
	if contact == "" && client.Notes != "" {
		contact = truncateStr(client.Notes, 40)
	}

	indicator := "  "
	if selected {
		indicator = "> "
	}

	nameStyle := lipgloss.NewStyle()
	detailStyle := subtitleStyle
	if client.IsArchived {
		nameStyle = nameStyle.Foreground(mutedColor)
		detailStyle = lipgloss.NewStyle().Foreground(mutedColor)
	}
	if selected {
		nameStyle = nameStyle.Bold(true).Foreground(primaryColor)
	}

	result := nameStyle.Render(indicator+name) + "\n" + detailStyle.Render("    "+billing)
	if contact != "" {
		result += "\n" + detailStyle.Render("    "+contact)
	}
	return result
}
