package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andy/billbook/internal/builder"
	"github.com/andy/billbook/internal/config"
	"github.com/andy/billbook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "billbook.db")
	cfg.Invoice.OutputDir = filepath.Join(dir, "invoices")
	cfg.Invoice.DefaultTemplate = builder.TemplateCreative
	cfg.Log.Path = ""
	cfg.User.Name = "Jane Smith"

	a, err := NewWithPassword(cfg, "test-password", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestBuilderSendFlow(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	draft := a.NewDraft(ctx, now)
	assert.Equal(t, "INV-2026-001", draft.InvoiceNumber)
	assert.Equal(t, builder.TemplateCreative, draft.TemplateID)
	assert.Equal(t, "2026-06-03", draft.DueDate)

	b := a.NewBuilder(draft)
	require.NoError(t, b.EditField(builder.FieldClientName, "Acme Corp"))
	id := b.AddLineItem()
	require.NoError(t, b.UpdateLineItem(id, builder.ItemQuantity, "3"))
	require.NoError(t, b.UpdateLineItem(id, builder.ItemRate, "150"))

	inv, path, err := a.InvoiceService.Send(ctx, b.Send())
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, inv.Status)
	assert.Equal(t, filepath.Join(a.Config.Invoice.OutputDir, "INV-2026-001.pdf"), path)

	_, err = os.Stat(path)
	require.NoError(t, err)

	stored, err := a.InvoiceService.GetInvoiceByNumber(ctx, "INV-2026-001")
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, stored.Status)
	assert.Equal(t, "495.00", stored.Total.StringFixed(2))
	require.Len(t, stored.LineItems, 1)

	next := a.NewDraft(ctx, now)
	assert.Equal(t, "INV-2026-002", next.InvoiceNumber)
}

func TestNewBuilder_UsesConfig(t *testing.T) {
	a := newTestApp(t)
	a.Config.Invoice.StepCount = 3
	a.Config.Invoice.MinLineItems = 1
	a.Config.Invoice.DefaultTaxRate = 0.2

	b := a.NewBuilder(builder.Draft{})
	assert.Equal(t, 3, b.StepCount())
	assert.Len(t, b.State().Draft.LineItems, 1)
	assert.Equal(t, "0.2", b.State().TaxRate.String())
}
