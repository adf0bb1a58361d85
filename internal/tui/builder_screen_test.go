package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/andy/billbook/internal/builder"
	"github.com/andy/billbook/internal/domain"
	"github.com/andy/billbook/internal/render"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var screenNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeSaver struct {
	saved []builder.Snapshot
	sent  []builder.Snapshot
	err   error
	// renderErr fails Send after the invoice has been persisted
	renderErr error
}

func (f *fakeSaver) Save(ctx context.Context, snap builder.Snapshot) (*domain.Invoice, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, snap)
	inv := &domain.Invoice{InvoiceNumber: snap.InvoiceNumber, Total: snap.Total}
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = "INV-2026-007"
	}
	return inv, nil
}

func (f *fakeSaver) Send(ctx context.Context, snap builder.Snapshot) (*domain.Invoice, string, error) {
	f.sent = append(f.sent, snap)
	inv := &domain.Invoice{InvoiceNumber: snap.InvoiceNumber, Total: snap.Total}
	if inv.InvoiceNumber == "" {
		inv.InvoiceNumber = fmt.Sprintf("INV-2026-%03d", 6+len(f.sent))
	}
	if f.renderErr != nil {
		return inv, "", f.renderErr
	}
	return inv, "/tmp/" + inv.InvoiceNumber + ".pdf", nil
}

type fakeLister struct {
	clients []*domain.Client
}

func (f *fakeLister) List(ctx context.Context, includeArchived bool) ([]*domain.Client, error) {
	return f.clients, nil
}

func newTestBuilderModel(t *testing.T, saver *fakeSaver, clients ...*domain.Client) *BuilderModel {
	t.Helper()
	m := newBuilderModel(saver, &fakeLister{clients: clients}, render.Party{Name: "Jane Smith"}, nil,
		func(opts ...builder.Option) *builder.Builder {
			opts = append([]builder.Option{
				builder.WithClock(func() time.Time { return screenNow }),
				builder.WithTaxRate(decimal.RequireFromString("0.1")),
			}, opts...)
			return builder.New(opts...)
		})
	if len(clients) > 0 {
		m.Update(builderClientsMsg{clients: clients})
	}
	return m
}

func press(m *BuilderModel, keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(k)
	}
	return cmd
}

func typeText(m *BuilderModel, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

var (
	keyNext    = tea.KeyMsg{Type: tea.KeyCtrlN}
	keyPrev    = tea.KeyMsg{Type: tea.KeyCtrlB}
	keyTab     = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc     = tea.KeyMsg{Type: tea.KeyEsc}
	keySend    = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyPreview = tea.KeyMsg{Type: tea.KeyCtrlP}
	keyAdd     = tea.KeyMsg{Type: tea.KeyCtrlA}
	keyRemove  = tea.KeyMsg{Type: tea.KeyCtrlX}
	keyClient  = tea.KeyMsg{Type: tea.KeyCtrlK}
	keyLogo    = tea.KeyMsg{Type: tea.KeyCtrlL}
)

func TestBuilderModel_TemplateStep(t *testing.T) {
	m := newTestBuilderModel(t, &fakeSaver{})

	assert.Equal(t, builder.StepTemplate, m.b.CurrentStep())
	assert.Equal(t, builder.DefaultTemplateID, m.b.State().Draft.TemplateID)

	press(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, builder.Templates()[1].ID, m.b.State().Draft.TemplateID)

	press(m, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, builder.Templates()[2].ID, m.b.State().Draft.TemplateID, "selection wraps")

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, builder.StepDetails, m.b.CurrentStep())
}

func TestBuilderModel_DetailsEditDraft(t *testing.T) {
	m := newTestBuilderModel(t, &fakeSaver{})
	press(m, keyNext)
	require.Equal(t, builder.StepDetails, m.b.CurrentStep())

	press(m, keyTab)
	typeText(m, "Acme Corp")
	press(m, keyTab)
	typeText(m, "ap@acme.test")

	d := m.b.State().Draft
	assert.Equal(t, "Acme Corp", d.ClientName)
	assert.Equal(t, "ap@acme.test", d.ClientEmail)
	assert.Equal(t, "2026-03-10", d.IssueDate)
}

func TestBuilderModel_PickClient(t *testing.T) {
	client := domain.NewClient("Globex", "billing@globex.test")
	client.PaymentTermsDays = 15
	m := newTestBuilderModel(t, &fakeSaver{}, client)
	press(m, keyNext)

	press(m, keyClient)

	d := m.b.State().Draft
	assert.Equal(t, "Globex", d.ClientName)
	assert.Equal(t, "billing@globex.test", d.ClientEmail)
	assert.Equal(t, "2026-03-25", d.DueDate)
	assert.Equal(t, "Globex", m.detailInputs[1].Value())
}

func TestBuilderModel_LineItems(t *testing.T) {
	m := newTestBuilderModel(t, &fakeSaver{})
	press(m, keyNext, keyNext)
	require.Equal(t, builder.StepLineItems, m.b.CurrentStep())

	press(m, keyAdd)
	typeText(m, "Design")
	press(m, keyTab)
	// quantity cell starts at "1"; clear it first
	press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	typeText(m, "3")
	press(m, keyTab)
	press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	typeText(m, "150")

	items := m.b.State().Draft.LineItems
	require.Len(t, items, 1)
	assert.Equal(t, "Design", items[0].Description)
	assert.True(t, items[0].Amount.Equal(decimal.NewFromInt(450)), "amount %s", items[0].Amount)
	assert.True(t, m.b.Totals().Total.Equal(decimal.NewFromInt(495)))

	press(m, keyRemove)
	assert.Empty(t, m.b.State().Draft.LineItems)
}

func TestBuilderModel_FinalizeSaves(t *testing.T) {
	saver := &fakeSaver{}
	m := newTestBuilderModel(t, saver)

	var cmd tea.Cmd
	for i := 0; i < m.b.StepCount(); i++ {
		cmd = press(m, keyNext)
	}
	require.True(t, m.b.PreviewMode())
	require.NotNil(t, cmd)

	msg := cmd()
	saved, ok := msg.(builderSavedMsg)
	require.True(t, ok, "got %T", msg)
	require.NoError(t, saved.err)
	require.Len(t, saver.saved, 1)

	m.Update(saved)
	assert.Equal(t, "INV-2026-007", m.b.State().Draft.InvoiceNumber, "assigned number fed back into draft")
	assert.Contains(t, m.status, "INV-2026-007 saved")
	assert.Contains(t, m.View(), "INVOICE")
}

func TestBuilderModel_SaveError(t *testing.T) {
	saver := &fakeSaver{err: errors.New("disk full")}
	m := newTestBuilderModel(t, saver)

	var cmd tea.Cmd
	for i := 0; i < m.b.StepCount(); i++ {
		cmd = press(m, keyNext)
	}
	m.Update(cmd())

	assert.EqualError(t, m.err, "disk full")
	assert.Contains(t, m.View(), "disk full")
}

func TestBuilderModel_Send(t *testing.T) {
	saver := &fakeSaver{}
	m := newTestBuilderModel(t, saver)

	cmd := press(m, keySend)
	require.NotNil(t, cmd)
	m.Update(cmd())

	require.Len(t, saver.sent, 1)
	assert.Contains(t, m.status, "sent")
	assert.Contains(t, m.status, "/tmp/INV-2026-007.pdf")
}

func TestBuilderModel_SendFailureKeepsAssignedNumber(t *testing.T) {
	saver := &fakeSaver{renderErr: errors.New("pdf: output dir not writable")}
	m := newTestBuilderModel(t, saver)

	m.Update(press(m, keySend)())
	require.Len(t, saver.sent, 1)
	assert.Empty(t, saver.sent[0].InvoiceNumber)
	assert.EqualError(t, m.err, "pdf: output dir not writable")
	assert.Equal(t, "INV-2026-007", m.b.State().Draft.InvoiceNumber)

	// a retry must target the invoice that was already persisted
	saver.renderErr = nil
	m.Update(press(m, keySend)())
	require.Len(t, saver.sent, 2)
	assert.Equal(t, "INV-2026-007", saver.sent[1].InvoiceNumber)
	assert.NoError(t, m.err)
	assert.Contains(t, m.status, "INV-2026-007 sent")
}

func TestBuilderModel_PreviewToggle(t *testing.T) {
	m := newTestBuilderModel(t, &fakeSaver{})
	press(m, keyNext)

	press(m, keyPreview)
	assert.True(t, m.b.PreviewMode())
	assert.Equal(t, builder.StepDetails, m.b.CurrentStep())

	// step navigation is inert while previewing
	press(m, keyNext)
	assert.Equal(t, builder.StepDetails, m.b.CurrentStep())

	press(m, keyPreview)
	assert.False(t, m.b.PreviewMode())
}

func TestBuilderModel_ToggleLogo(t *testing.T) {
	m := newTestBuilderModel(t, &fakeSaver{})
	for i := 1; i < builder.StepCustomize; i++ {
		press(m, keyNext)
	}
	require.Equal(t, builder.StepCustomize, m.b.CurrentStep())

	press(m, keyLogo)
	assert.False(t, m.b.State().Draft.IncludeLogo)
	press(m, keyLogo)
	assert.True(t, m.b.State().Draft.IncludeLogo)
	assert.Contains(t, m.flash, "logo")
}

func TestBuilderModel_Close(t *testing.T) {
	m := newTestBuilderModel(t, &fakeSaver{})

	cmd := press(m, keyEsc)
	require.NotNil(t, cmd)
	assert.True(t, m.closed)
	assert.IsType(t, BuilderClosedMsg{}, cmd())
}

func TestBuilderModel_RetreatFromFirstStepCloses(t *testing.T) {
	m := newTestBuilderModel(t, &fakeSaver{})

	cmd := press(m, keyPrev)
	require.NotNil(t, cmd)
	assert.True(t, m.closed)
	assert.IsType(t, BuilderClosedMsg{}, cmd())
}
