package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/billbook/internal/app"
	"github.com/andy/billbook/internal/builder"
	"github.com/andy/billbook/internal/domain"
	"github.com/andy/billbook/internal/render"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// invoiceSaver persists wizard output
type invoiceSaver interface {
	Save(ctx context.Context, snap builder.Snapshot) (*domain.Invoice, error)
	Send(ctx context.Context, snap builder.Snapshot) (*domain.Invoice, string, error)
}

// clientLister supplies saved clients for quick fill
type clientLister interface {
	List(ctx context.Context, includeArchived bool) ([]*domain.Client, error)
}

// details step fields, in display order
var detailFields = []struct {
	field       builder.Field
	label       string
	placeholder string
}{
	{builder.FieldInvoiceNumber, "Invoice #:", "INV-2026-001 (blank for next free number)"},
	{builder.FieldClientName, "Client name:", "Acme Corp"},
	{builder.FieldClientEmail, "Client email:", "billing@example.com"},
	{builder.FieldIssueDate, "Issue date:", "YYYY-MM-DD"},
	{builder.FieldDueDate, "Due date:", "YYYY-MM-DD"},
}

// line item columns
const (
	itemColDescription = iota
	itemColQuantity
	itemColRate
	itemColCount
)

var itemColFields = [itemColCount]builder.ItemField{
	builder.ItemDescription,
	builder.ItemQuantity,
	builder.ItemRate,
}

// customize step focus targets
const (
	customizeNotes = iota
	customizeLogo
	customizeSignature
	customizeCount
)

type builderClientsMsg struct {
	clients []*domain.Client
	err     error
}

type builderSavedMsg struct {
	invoice *domain.Invoice
	path    string
	sent    bool
	err     error
}

// BuilderModel hosts the invoice wizard. It owns one builder.Builder for the
// lifetime of the screen and persists snapshots through the invoice service.
type BuilderModel struct {
	b       *builder.Builder
	saver   invoiceSaver
	lister  clientLister
	from    render.Party
	logger  *zap.Logger
	clients []*domain.Client

	detailInputs []textinput.Model
	notesInput   textinput.Model
	itemInput    textinput.Model

	focus     int
	itemRow   int
	itemCol   int
	clientIdx int

	pending     *builder.Snapshot
	pendingSend bool
	closed      bool
	saving      bool

	flash  string
	status string
	err    error
}

// NewBuilderModel opens the wizard on draft with the app's configured options
func NewBuilderModel(a *app.App, draft builder.Draft) *BuilderModel {
	from := render.Party{
		Name:    a.Config.User.Name,
		Email:   a.Config.User.Email,
		Address: a.Config.User.Address,
		Phone:   a.Config.User.Phone,
	}
	return newBuilderModel(a.InvoiceService, a.ClientRepo, from, a.Logger, func(opts ...builder.Option) *builder.Builder {
		return a.NewBuilder(draft, opts...)
	})
}

func newBuilderModel(
	saver invoiceSaver,
	lister clientLister,
	from render.Party,
	logger *zap.Logger,
	open func(opts ...builder.Option) *builder.Builder,
) *BuilderModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &BuilderModel{
		saver:     saver,
		lister:    lister,
		from:      from,
		logger:    logger,
		clientIdx: -1,
	}
	m.b = open(
		builder.WithOnSave(func(s builder.Snapshot) {
			m.pending = &s
			m.pendingSend = false
		}),
		builder.WithOnSend(func(s builder.Snapshot) {
			m.pending = &s
			m.pendingSend = true
		}),
		builder.WithOnClose(func() { m.closed = true }),
		builder.WithNotifier(builder.NotifierFunc(m.onEvent)),
	)
	m.initInputs()
	m.enterStep()
	return m
}

// IsCapturingInput is always true: every step takes typed input
func (m *BuilderModel) IsCapturingInput() bool {
	return true
}

func (m *BuilderModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadClients())
}

func (m *BuilderModel) loadClients() tea.Cmd {
	if m.lister == nil {
		return nil
	}
	return func() tea.Msg {
		clients, err := m.lister.List(context.Background(), false)
		return builderClientsMsg{clients: clients, err: err}
	}
}

func (m *BuilderModel) onEvent(e builder.Event) {
	switch e.Kind {
	case builder.EventItemAdded:
		m.flash = "Line item added"
	case builder.EventItemRemoved:
		m.flash = "Line item removed"
	case builder.EventAssetRequested:
		m.flash = fmt.Sprintf("Including %s on the invoice", e.Asset)
	case builder.EventTemplateSelected:
		m.flash = ""
	}
}

func (m *BuilderModel) initInputs() {
	m.detailInputs = make([]textinput.Model, len(detailFields))
	for i, f := range detailFields {
		in := textinput.New()
		in.Placeholder = f.placeholder
		in.CharLimit = 120
		in.Width = 44
		m.detailInputs[i] = in
	}

	m.notesInput = textinput.New()
	m.notesInput.Placeholder = "Thank you for your business!"
	m.notesInput.CharLimit = 500
	m.notesInput.Width = 60

	m.itemInput = textinput.New()
	m.itemInput.CharLimit = 120
	m.itemInput.Width = 36
}

// enterStep resets focus and loads inputs from the draft for the current step
func (m *BuilderModel) enterStep() tea.Cmd {
	d := m.b.State().Draft
	m.focus = 0

	switch m.b.CurrentStep() {
	case builder.StepTemplate:
		for i, t := range builder.Templates() {
			if t.ID == d.TemplateID {
				m.focus = i
			}
		}
	case builder.StepDetails:
		values := []string{d.InvoiceNumber, d.ClientName, d.ClientEmail, d.IssueDate, d.DueDate}
		for i := range m.detailInputs {
			m.detailInputs[i].SetValue(values[i])
			m.detailInputs[i].Blur()
		}
		return m.detailInputs[0].Focus()
	case builder.StepLineItems:
		m.itemRow = min(m.itemRow, max(0, len(d.LineItems)-1))
		m.itemCol = itemColDescription
		return m.loadItemCell()
	case builder.StepCustomize:
		m.notesInput.SetValue(d.Notes)
		return m.notesInput.Focus()
	}
	return nil
}

// loadItemCell copies the focused cell into the item input
func (m *BuilderModel) loadItemCell() tea.Cmd {
	items := m.b.State().Draft.LineItems
	if len(items) == 0 {
		m.itemInput.SetValue("")
		m.itemInput.Blur()
		return nil
	}
	item := items[m.itemRow]
	switch m.itemCol {
	case itemColDescription:
		m.itemInput.Placeholder = "Description"
		m.itemInput.SetValue(item.Description)
	case itemColQuantity:
		m.itemInput.Placeholder = "1"
		m.itemInput.SetValue(item.Quantity.String())
	case itemColRate:
		m.itemInput.Placeholder = "0.00"
		m.itemInput.SetValue(item.Rate.String())
	}
	m.itemInput.CursorEnd()
	return m.itemInput.Focus()
}

// persist hands a pending snapshot to the invoice service
func (m *BuilderModel) persist() tea.Cmd {
	if m.pending == nil || m.saver == nil {
		return nil
	}
	snap := *m.pending
	send := m.pendingSend
	m.pending = nil
	m.saving = true
	m.err = nil

	return func() tea.Msg {
		ctx := context.Background()
		if send {
			inv, path, err := m.saver.Send(ctx, snap)
			return builderSavedMsg{invoice: inv, path: path, sent: true, err: err}
		}
		inv, err := m.saver.Save(ctx, snap)
		return builderSavedMsg{invoice: inv, err: err}
	}
}

func (m *BuilderModel) close() tea.Cmd {
	status := m.status
	return func() tea.Msg { return BuilderClosedMsg{Status: status} }
}

func (m *BuilderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case builderClientsMsg:
		if msg.err != nil {
			m.logger.Warn("could not load clients for builder", zap.Error(msg.err))
			return m, nil
		}
		m.clients = msg.clients
		return m, nil

	case builderSavedMsg:
		m.saving = false
		// later saves must hit the same invoice, even one persisted before a failure
		if msg.invoice != nil && m.b.State().Draft.InvoiceNumber != msg.invoice.InvoiceNumber {
			_ = m.b.EditField(builder.FieldInvoiceNumber, msg.invoice.InvoiceNumber)
		}
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if msg.sent {
			m.status = fmt.Sprintf("Invoice %s sent -> %s", msg.invoice.InvoiceNumber, msg.path)
		} else {
			m.status = fmt.Sprintf("Invoice %s saved (%s)", msg.invoice.InvoiceNumber, formatMoney(msg.invoice.Total))
		}
		return m, nil

	case tea.KeyMsg:
		if m.saving {
			return m, nil
		}
		m.flash = ""
		return m.updateKey(msg)
	}

	return m, m.forwardToInput(msg)
}

func (m *BuilderModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, BuilderKeys.Close):
		m.b.Close()
		return m, m.close()

	case key.Matches(msg, BuilderKeys.Preview):
		m.b.TogglePreview()
		if !m.b.PreviewMode() {
			return m, m.enterStep()
		}
		return m, nil

	case key.Matches(msg, BuilderKeys.Send):
		m.b.Send()
		return m, m.persist()

	case key.Matches(msg, BuilderKeys.Next):
		return m, m.advance()

	case key.Matches(msg, BuilderKeys.Prev):
		switch m.b.Retreat() {
		case builder.TransitionStep:
			return m, m.enterStep()
		case builder.TransitionCancelled:
			return m, m.close()
		}
		return m, nil
	}

	if m.b.PreviewMode() {
		return m, nil
	}

	switch m.b.CurrentStep() {
	case builder.StepTemplate:
		return m, m.updateTemplate(msg)
	case builder.StepDetails:
		return m, m.updateDetails(msg)
	case builder.StepLineItems:
		return m, m.updateItems(msg)
	case builder.StepCustomize:
		return m, m.updateCustomize(msg)
	}

	if msg.String() == "enter" {
		return m, m.advance()
	}
	return m, nil
}

func (m *BuilderModel) advance() tea.Cmd {
	switch m.b.Advance() {
	case builder.TransitionStep:
		return m.enterStep()
	case builder.TransitionFinalized:
		return m.persist()
	}
	return nil
}

func (m *BuilderModel) updateTemplate(msg tea.KeyMsg) tea.Cmd {
	templates := builder.Templates()
	switch {
	case key.Matches(msg, DefaultKeyMap.Up), key.Matches(msg, DefaultKeyMap.Left):
		m.focus = (m.focus - 1 + len(templates)) % len(templates)
		m.b.SelectTemplate(templates[m.focus].ID)
	case key.Matches(msg, DefaultKeyMap.Down), key.Matches(msg, DefaultKeyMap.Right), msg.String() == "tab":
		m.focus = (m.focus + 1) % len(templates)
		m.b.SelectTemplate(templates[m.focus].ID)
	case msg.String() == "enter":
		return m.advance()
	}
	return nil
}

func (m *BuilderModel) updateDetails(msg tea.KeyMsg) tea.Cmd {
	n := len(m.detailInputs)
	switch {
	case key.Matches(msg, BuilderKeys.NextField):
		m.detailInputs[m.focus].Blur()
		m.focus = (m.focus + 1) % n
		return m.detailInputs[m.focus].Focus()

	case key.Matches(msg, BuilderKeys.PrevField):
		m.detailInputs[m.focus].Blur()
		m.focus = (m.focus - 1 + n) % n
		return m.detailInputs[m.focus].Focus()

	case msg.String() == "enter":
		if m.focus == n-1 {
			return m.advance()
		}
		m.detailInputs[m.focus].Blur()
		m.focus++
		return m.detailInputs[m.focus].Focus()

	case key.Matches(msg, BuilderKeys.PickClient):
		m.pickNextClient()
		return nil
	}

	var cmd tea.Cmd
	m.detailInputs[m.focus], cmd = m.detailInputs[m.focus].Update(msg)
	if err := m.b.EditField(detailFields[m.focus].field, m.detailInputs[m.focus].Value()); err != nil {
		m.err = err
	}
	return cmd
}

// pickNextClient fills name, email and due date from the next saved client
func (m *BuilderModel) pickNextClient() {
	if len(m.clients) == 0 {
		m.flash = "No saved clients"
		return
	}
	m.clientIdx = (m.clientIdx + 1) % len(m.clients)
	c := m.clients[m.clientIdx]

	_ = m.b.EditField(builder.FieldClientName, c.Name)
	_ = m.b.EditField(builder.FieldClientEmail, c.Email)
	snap := builder.Snapshot{Draft: m.b.State().Draft}
	if issued := snap.ParseIssueDate(); !issued.IsZero() {
		_ = m.b.EditField(builder.FieldDueDate, c.DueDateFrom(issued).Format(builder.DateLayout))
	}

	d := m.b.State().Draft
	m.detailInputs[1].SetValue(d.ClientName)
	m.detailInputs[2].SetValue(d.ClientEmail)
	m.detailInputs[4].SetValue(d.DueDate)
	m.flash = fmt.Sprintf("Client: %s (%d day terms)", c.Name, c.PaymentTermsDays)
}

func (m *BuilderModel) updateItems(msg tea.KeyMsg) tea.Cmd {
	items := m.b.State().Draft.LineItems

	switch {
	case key.Matches(msg, BuilderKeys.AddItem):
		m.b.AddLineItem()
		m.itemRow = len(m.b.State().Draft.LineItems) - 1
		m.itemCol = itemColDescription
		return m.loadItemCell()

	case key.Matches(msg, BuilderKeys.RemoveItem):
		if len(items) == 0 {
			return nil
		}
		if !m.b.RemoveLineItem(items[m.itemRow].ID) {
			m.flash = "Cannot remove: minimum line items reached"
			return nil
		}
		m.itemRow = max(0, min(m.itemRow, len(items)-2))
		return m.loadItemCell()

	case msg.String() == "up":
		if m.itemRow > 0 {
			m.itemRow--
			return m.loadItemCell()
		}
		return nil

	case msg.String() == "down":
		if m.itemRow < len(items)-1 {
			m.itemRow++
			return m.loadItemCell()
		}
		return nil

	case msg.String() == "tab":
		m.itemCol = (m.itemCol + 1) % itemColCount
		if m.itemCol == itemColDescription && m.itemRow < len(items)-1 {
			m.itemRow++
		}
		return m.loadItemCell()

	case msg.String() == "shift+tab":
		m.itemCol = (m.itemCol - 1 + itemColCount) % itemColCount
		if m.itemCol == itemColRate && m.itemRow > 0 {
			m.itemRow--
		}
		return m.loadItemCell()

	case msg.String() == "enter":
		return m.advance()
	}

	if len(items) == 0 {
		return nil
	}

	var cmd tea.Cmd
	m.itemInput, cmd = m.itemInput.Update(msg)
	id := items[m.itemRow].ID
	if err := m.b.UpdateLineItem(id, itemColFields[m.itemCol], m.itemInput.Value()); err != nil {
		m.err = err
	}
	return cmd
}

func (m *BuilderModel) updateCustomize(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, BuilderKeys.Logo):
		m.b.ToggleLogo()
		return nil
	case key.Matches(msg, BuilderKeys.Signature):
		m.b.ToggleSignature()
		return nil
	case key.Matches(msg, BuilderKeys.NextField):
		m.focus = (m.focus + 1) % customizeCount
	case key.Matches(msg, BuilderKeys.PrevField):
		m.focus = (m.focus - 1 + customizeCount) % customizeCount
	case msg.String() == "enter":
		return m.advance()
	case msg.String() == " " && m.focus == customizeLogo:
		m.b.ToggleLogo()
		return nil
	case msg.String() == " " && m.focus == customizeSignature:
		m.b.ToggleSignature()
		return nil
	default:
		if m.focus != customizeNotes {
			return nil
		}
		var cmd tea.Cmd
		m.notesInput, cmd = m.notesInput.Update(msg)
		if err := m.b.EditField(builder.FieldNotes, m.notesInput.Value()); err != nil {
			m.err = err
		}
		return cmd
	}

	if m.focus == customizeNotes {
		return m.notesInput.Focus()
	}
	m.notesInput.Blur()
	return nil
}

// forwardToInput passes non-key messages (cursor blink) to the focused input
func (m *BuilderModel) forwardToInput(msg tea.Msg) tea.Cmd {
	if m.b.PreviewMode() {
		return nil
	}
	var cmd tea.Cmd
	switch m.b.CurrentStep() {
	case builder.StepDetails:
		m.detailInputs[m.focus], cmd = m.detailInputs[m.focus].Update(msg)
	case builder.StepLineItems:
		m.itemInput, cmd = m.itemInput.Update(msg)
	case builder.StepCustomize:
		m.notesInput, cmd = m.notesInput.Update(msg)
	}
	return cmd
}

// previewSnapshot builds a renderable snapshot without finalizing
func (m *BuilderModel) previewSnapshot() builder.Snapshot {
	st := m.b.State()
	template, _ := builder.LookupTemplate(st.Draft.TemplateID)
	return builder.Snapshot{
		Draft:    st.Draft,
		Totals:   st.Totals,
		TaxRate:  st.TaxRate,
		Template: template,
	}
}

func (m *BuilderModel) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("New Invoice"))
	if n := m.b.State().Draft.InvoiceNumber; n != "" {
		s.WriteString(subtitleStyle.Render("  " + n))
	}
	s.WriteString("\n")
	s.WriteString(m.viewSteps() + "\n\n")

	if m.b.PreviewMode() {
		s.WriteString(m.viewPreview())
	} else {
		switch m.b.CurrentStep() {
		case builder.StepTemplate:
			s.WriteString(m.viewTemplate())
		case builder.StepDetails:
			s.WriteString(m.viewDetails())
		case builder.StepLineItems:
			s.WriteString(m.viewItems())
		case builder.StepCustomize:
			s.WriteString(m.viewCustomize())
		default:
			s.WriteString(m.viewReview())
		}
	}

	s.WriteString("\n" + m.viewTotals() + "\n")

	switch {
	case m.saving:
		s.WriteString(subtitleStyle.Render("  Saving...") + "\n")
	case m.err != nil:
		s.WriteString(errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n")
	case m.status != "":
		s.WriteString(successStyle.Render("  "+m.status) + "\n")
	case m.flash != "":
		s.WriteString(lipgloss.NewStyle().Foreground(accentColor).Render("  "+m.flash) + "\n")
	}

	s.WriteString("\n" + helpStyle.Render("  "+m.help()))
	return s.String()
}

func (m *BuilderModel) viewSteps() string {
	parts := make([]string, 0, m.b.StepCount())
	for i := 1; i <= m.b.StepCount(); i++ {
		label := fmt.Sprintf("%d %s", i, builder.StepName(i))
		switch {
		case i < m.b.CurrentStep():
			parts = append(parts, stepDoneStyle.Render("✓ "+label))
		case i == m.b.CurrentStep() && !m.b.PreviewMode():
			parts = append(parts, stepCurrentStyle.Render("● "+label))
		default:
			parts = append(parts, stepTodoStyle.Render("○ "+label))
		}
	}
	line := "  " + strings.Join(parts, stepTodoStyle.Render(" ─ "))
	if m.b.PreviewMode() {
		line += "  " + stepCurrentStyle.Render("[PREVIEW]")
	}
	return line
}

func (m *BuilderModel) viewTemplate() string {
	var s string
	s += subtitleStyle.Render("  Choose a template") + "\n\n"
	current := m.b.State().Draft.TemplateID
	for _, t := range builder.Templates() {
		indicator := "  "
		if t.ID == current {
			indicator = "> "
		}
		s += fmt.Sprintf("  %s%s %s\n", indicator, accentStyle(t.Color).Render("■"), t.Name)
	}
	return s
}

func (m *BuilderModel) viewDetails() string {
	var s string
	for i, f := range detailFields {
		indicator := "  "
		labelStyle := subtitleStyle
		if i == m.focus {
			indicator = "> "
			labelStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
		}
		s += fmt.Sprintf("%s%s\n  %s\n", indicator, labelStyle.Render(f.label), m.detailInputs[i].View())
	}
	if len(m.clients) > 0 {
		s += "\n" + subtitleStyle.Render(fmt.Sprintf("  %d saved client(s): ctrl+k to fill", len(m.clients))) + "\n"
	}
	return s
}

func (m *BuilderModel) viewItems() string {
	items := m.b.State().Draft.LineItems
	if len(items) == 0 {
		return subtitleStyle.Render("  No line items. Press ctrl+a to add one.") + "\n"
	}

	s := subtitleStyle.Render(fmt.Sprintf("  %-38s %10s %12s %14s", "Description", "Qty", "Rate", "Amount")) + "\n"
	for i, item := range items {
		cells := [itemColCount]string{
			truncateStr(item.Description, 38),
			render.FormatQuantity(item.Quantity),
			formatMoney(item.Rate),
		}
		if i == m.itemRow {
			cells[m.itemCol] = m.itemInput.View()
		}
		indicator := "  "
		if i == m.itemRow {
			indicator = "> "
		}
		s += fmt.Sprintf("%s%-38s %10s %12s %14s\n", indicator, cells[0], cells[1], cells[2], formatMoney(item.Amount))
	}
	return s
}

func (m *BuilderModel) viewCustomize() string {
	d := m.b.State().Draft
	check := func(on bool) string {
		if on {
			return "[x]"
		}
		return "[ ]"
	}

	rows := []string{
		fmt.Sprintf("Notes:\n  %s", m.notesInput.View()),
		fmt.Sprintf("%s Include logo", check(d.IncludeLogo)),
		fmt.Sprintf("%s Include signature", check(d.IncludeSignature)),
	}
	var s string
	for i, row := range rows {
		indicator := "  "
		if i == m.focus {
			indicator = "> "
		}
		s += indicator + row + "\n"
	}
	return s
}

func (m *BuilderModel) viewReview() string {
	d := m.b.State().Draft
	template, _ := builder.LookupTemplate(d.TemplateID)

	s := fmt.Sprintf("  Template:  %s\n", accentStyle(template.Color).Render(template.Name))
	s += fmt.Sprintf("  Bill to:   %s %s\n", d.ClientName, subtitleStyle.Render(d.ClientEmail))
	s += fmt.Sprintf("  Dates:     %s -> %s\n", render.FormatDate(d.IssueDate), render.FormatDate(d.DueDate))
	s += fmt.Sprintf("  Items:     %d\n", len(d.LineItems))
	if err := d.Check(); err != nil {
		s += lipgloss.NewStyle().Foreground(warningColor).Render(fmt.Sprintf("  Warning: %v", err)) + "\n"
	}
	s += "\n" + subtitleStyle.Render("  enter saves the invoice and opens the preview") + "\n"
	return s
}

func (m *BuilderModel) viewPreview() string {
	var buf strings.Builder
	doc := render.Document{Invoice: m.previewSnapshot(), From: m.from}
	if err := (render.TextRenderer{}).Render(&buf, doc); err != nil {
		return errorStyle.Render(fmt.Sprintf("  Preview failed: %v", err))
	}
	template, _ := builder.LookupTemplate(m.b.State().Draft.TemplateID)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(template.Color)).
		Padding(0, 1).
		Render(strings.TrimRight(buf.String(), "\n")) + "\n"
}

func (m *BuilderModel) viewTotals() string {
	st := m.b.State()
	return fmt.Sprintf("  Subtotal %s   Tax (%s) %s   %s",
		formatMoney(st.Subtotal),
		render.FormatPercent(st.TaxRate),
		formatMoney(st.Tax),
		totalStyle.Render("Total "+formatMoney(st.Total)),
	)
}

func (m *BuilderModel) help() string {
	if m.b.PreviewMode() {
		return "ctrl+p: back to editing  ctrl+s: send  esc: close"
	}
	nav := "ctrl+n/ctrl+b: next/prev step  ctrl+p: preview  ctrl+s: send  esc: close"
	switch m.b.CurrentStep() {
	case builder.StepTemplate:
		return "↑/↓: choose template  enter: next  " + nav
	case builder.StepDetails:
		return "tab: next field  ctrl+k: saved client  " + nav
	case builder.StepLineItems:
		return "ctrl+a: add  ctrl+x: remove  tab: next cell  ↑/↓: row  " + nav
	case builder.StepCustomize:
		return "tab: next  space: toggle  ctrl+l: logo  ctrl+g: signature  " + nav
	}
	return "enter: save & preview  " + nav
}
