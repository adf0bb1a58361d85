package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andy/billbook/internal/app"
	"github.com/andy/billbook/internal/builder"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type settingsMode int

const (
	settingsModeView settingsMode = iota
	settingsModeEdit
)

// settings form field indices
const (
	settingsFieldName = iota
	settingsFieldEmail
	settingsFieldAddress
	settingsFieldPhone
	settingsFieldOutputDir
	settingsFieldPrefix
	settingsFieldDueDays
	settingsFieldTaxRate
	settingsFieldTemplate
	settingsFieldCount
)

var settingsLabels = [settingsFieldCount]string{
	"Your Name:", "Your Email:", "Your Address:", "Your Phone:",
	"Output Directory:", "Number Prefix:", "Default Due Days:", "Tax Rate (%):", "Default Template:",
}

type settingsSavedMsg struct {
	err error
}

// SettingsModel manages the settings screen
type SettingsModel struct {
	app        *app.App
	mode       settingsMode
	fields     []textinput.Model
	fieldFocus int
	err        error
	statusMsg  string
}

// NewSettingsModel creates a new settings screen
func NewSettingsModel(a *app.App) tea.Model {
	return &SettingsModel{
		app:  a,
		mode: settingsModeView,
	}
}

// IsCapturingInput returns true when the edit form is active
func (m *SettingsModel) IsCapturingInput() bool {
	return m.mode == settingsModeEdit
}

func (m *SettingsModel) Init() tea.Cmd {
	return nil
}

func (m *SettingsModel) initForm() {
	m.fields = make([]textinput.Model, settingsFieldCount)
	cfg := m.app.Config

	values := [settingsFieldCount]string{
		cfg.User.Name,
		cfg.User.Email,
		cfg.User.Address,
		cfg.User.Phone,
		cfg.Invoice.OutputDir,
		cfg.Invoice.NumberPrefix,
		strconv.Itoa(cfg.Invoice.DefaultDueDays),
		strconv.FormatFloat(cfg.Invoice.DefaultTaxRate*100, 'f', 2, 64),
		cfg.Invoice.DefaultTemplate,
	}
	placeholders := [settingsFieldCount]string{
		"Jane Smith", "jane@example.com", "123 Main St, City", "+1 555 0100",
		"/path/to/invoices", "INV", "30", "0.0", builder.DefaultTemplateID,
	}

	for i := range m.fields {
		m.fields[i] = textinput.New()
		m.fields[i].Placeholder = placeholders[i]
		m.fields[i].CharLimit = 256
		m.fields[i].Width = 50
		m.fields[i].SetValue(values[i])
	}
	m.fields[settingsFieldPrefix].CharLimit = 20
	m.fields[settingsFieldDueDays].CharLimit = 5
	m.fields[settingsFieldTaxRate].CharLimit = 10

	m.fieldFocus = settingsFieldName
	m.fields[settingsFieldName].Focus()
}

func (m *SettingsModel) saveSettings() tea.Cmd {
	values := make([]string, settingsFieldCount)
	for i := range m.fields {
		values[i] = strings.TrimSpace(m.fields[i].Value())
	}

	return func() tea.Msg {
		if values[settingsFieldOutputDir] == "" {
			return settingsSavedMsg{err: fmt.Errorf("output directory is required")}
		}
		if values[settingsFieldPrefix] == "" {
			return settingsSavedMsg{err: fmt.Errorf("invoice prefix is required")}
		}

		dueDays, err := strconv.Atoi(values[settingsFieldDueDays])
		if err != nil || dueDays <= 0 {
			return settingsSavedMsg{err: fmt.Errorf("due days must be a positive number")}
		}

		taxRate, err := strconv.ParseFloat(values[settingsFieldTaxRate], 64)
		if err != nil || taxRate < 0 {
			return settingsSavedMsg{err: fmt.Errorf("tax rate must be a non-negative number")}
		}

		template := values[settingsFieldTemplate]
		if template == "" {
			template = builder.DefaultTemplateID
		}
		if _, ok := builder.LookupTemplate(template); !ok {
			return settingsSavedMsg{err: fmt.Errorf("unknown template %q", template)}
		}

		cfg := m.app.Config
		cfg.User.Name = values[settingsFieldName]
		cfg.User.Email = values[settingsFieldEmail]
		cfg.User.Address = values[settingsFieldAddress]
		cfg.User.Phone = values[settingsFieldPhone]
		cfg.Invoice.OutputDir = values[settingsFieldOutputDir]
		cfg.Invoice.NumberPrefix = values[settingsFieldPrefix]
		cfg.Invoice.DefaultDueDays = dueDays
		cfg.Invoice.DefaultTaxRate = taxRate / 100
		cfg.Invoice.DefaultTemplate = template

		if err := m.app.SaveConfig(); err != nil {
			return settingsSavedMsg{err: fmt.Errorf("failed to save config: %w", err)}
		}

		return settingsSavedMsg{}
	}
}

func (m *SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.mode == settingsModeEdit {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		m.err = nil
		if msg.String() == "enter" {
			m.mode = settingsModeEdit
			m.statusMsg = ""
			m.initForm()
			return m, m.fields[m.fieldFocus].Focus()
		}
	}

	return m, nil
}

func (m *SettingsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mode = settingsModeView
		m.statusMsg = "Settings saved"
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.mode = settingsModeView
			m.err = nil
			return m, nil

		case "tab", "down":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus + 1) % settingsFieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "shift+tab", "up":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus - 1 + settingsFieldCount) % settingsFieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "enter":
			if m.fieldFocus == settingsFieldCount-1 {
				return m, m.saveSettings()
			}
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus++
			return m, m.fields[m.fieldFocus].Focus()

		case "ctrl+s":
			return m, m.saveSettings()
		}
	}

	// Update the focused text input
	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	return m, cmd
}

func (m *SettingsModel) View() string {
	if m.mode == settingsModeEdit {
		return m.viewForm()
	}
	return m.viewSettings()
}

func (m *SettingsModel) viewSettings() string {
	var s string
	s += titleStyle.Render("Settings") + "\n\n"

	if m.statusMsg != "" {
		s += successStyle.Render("  "+m.statusMsg) + "\n\n"
	}

	cfg := m.app.Config

	labelStyle := lipgloss.NewStyle().Bold(true).Width(22)
	valueStyle := lipgloss.NewStyle().Foreground(primaryColor)
	row := func(label, value string) string {
		if value == "" {
			return fmt.Sprintf("  %s %s\n", labelStyle.Render(label), subtitleStyle.Render("(not set)"))
		}
		return fmt.Sprintf("  %s %s\n", labelStyle.Render(label), valueStyle.Render(value))
	}

	s += subtitleStyle.Render("  Your Details") + "\n\n"
	s += row("Name:", cfg.User.Name)
	s += row("Email:", cfg.User.Email)
	s += row("Address:", cfg.User.Address)
	s += row("Phone:", cfg.User.Phone)

	s += "\n" + subtitleStyle.Render("  Invoice Settings") + "\n\n"
	s += row("Output Directory:", cfg.Invoice.OutputDir)
	s += row("Number Prefix:", cfg.Invoice.NumberPrefix)
	s += row("Default Due Days:", strconv.Itoa(cfg.Invoice.DefaultDueDays))
	s += row("Default Tax Rate:", fmt.Sprintf("%.2f%%", cfg.Invoice.DefaultTaxRate*100))

	template, _ := builder.LookupTemplate(cfg.Invoice.DefaultTemplate)
	s += fmt.Sprintf("  %s %s\n", labelStyle.Render("Default Template:"), accentStyle(template.Color).Render(template.Name))

	s += "\n" + helpStyle.Render("  enter: edit settings")

	return s
}

func (m *SettingsModel) viewForm() string {
	var s string
	s += titleStyle.Render("Edit Settings") + "\n\n"

	for i, label := range settingsLabels {
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
