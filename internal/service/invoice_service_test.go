package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/andy/billbook/internal/builder"
	"github.com/andy/billbook/internal/domain"
	"github.com/andy/billbook/internal/render"
	"github.com/andy/billbook/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// mock implementations
type mockInvoiceRepo struct {
	invoices      map[int64]*domain.Invoice
	nextID        int64
	statusUpdates int
	statusErr     error
}

func newMockInvoiceRepo(invoices ...*domain.Invoice) *mockInvoiceRepo {
	m := &mockInvoiceRepo{invoices: make(map[int64]*domain.Invoice)}
	for _, inv := range invoices {
		m.invoices[inv.ID] = inv
		m.nextID = max(m.nextID, inv.ID)
	}
	return m
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	m.nextID++
	invoice.ID = m.nextID
	m.invoices[invoice.ID] = invoice
	return nil
}
func (m *mockInvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	if inv, ok := m.invoices[id]; ok {
		return inv, nil
	}
	return nil, fmt.Errorf("invoice %w", repository.ErrNotFound)
}
func (m *mockInvoiceRepo) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.InvoiceNumber == number {
			return inv, nil
		}
	}
	return nil, fmt.Errorf("invoice %w", repository.ErrNotFound)
}
func (m *mockInvoiceRepo) List(ctx context.Context, filter repository.InvoiceFilter) ([]*domain.Invoice, error) {
	out := make([]*domain.Invoice, 0, len(m.invoices))
	for _, inv := range m.invoices {
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		if filter.ClientID != nil && inv.ClientID != *filter.ClientID {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
func (m *mockInvoiceRepo) Update(ctx context.Context, invoice *domain.Invoice) error {
	if _, ok := m.invoices[invoice.ID]; !ok {
		return fmt.Errorf("invoice %w", repository.ErrNotFound)
	}
	m.invoices[invoice.ID] = invoice
	return nil
}
func (m *mockInvoiceRepo) UpdateStatus(ctx context.Context, invoice *domain.Invoice) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	m.statusUpdates++
	return nil
}
func (m *mockInvoiceRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.invoices[id]; !ok {
		return fmt.Errorf("invoice %w", repository.ErrNotFound)
	}
	delete(m.invoices, id)
	return nil
}
func (m *mockInvoiceRepo) GetLineItems(ctx context.Context, invoiceID int64) ([]*domain.InvoiceLineItem, error) {
	if inv, ok := m.invoices[invoiceID]; ok {
		return inv.LineItems, nil
	}
	return nil, nil
}
func (m *mockInvoiceRepo) GetNextInvoiceNumber(ctx context.Context, prefix string, year int) (string, error) {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, m.nextID+1), nil
}

type mockClientRepo struct {
	clients []*domain.Client
}

func (m *mockClientRepo) Create(ctx context.Context, client *domain.Client) error { return nil }
func (m *mockClientRepo) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	for _, c := range m.clients {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("client %w", repository.ErrNotFound)
}
func (m *mockClientRepo) GetByName(ctx context.Context, name string) (*domain.Client, error) {
	for _, c := range m.clients {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("client %w", repository.ErrNotFound)
}
func (m *mockClientRepo) List(ctx context.Context, includeArchived bool) ([]*domain.Client, error) {
	return m.clients, nil
}
func (m *mockClientRepo) Update(ctx context.Context, client *domain.Client) error { return nil }
func (m *mockClientRepo) Archive(ctx context.Context, id int64) error             { return nil }
func (m *mockClientRepo) Unarchive(ctx context.Context, id int64) error           { return nil }

var fixedNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, invoices *mockInvoiceRepo, clients *mockClientRepo) *invoiceService {
	t.Helper()
	return &invoiceService{
		invoiceRepo: invoices,
		clientRepo:  clients,
		settings: InvoiceSettings{
			NumberPrefix: "INV",
			DueDays:      30,
			OutputDir:    t.TempDir(),
			From:         render.Party{Name: "Jane Smith"},
		},
		sendFormat: render.FormatText,
		now:        func() time.Time { return fixedNow },
		logger:     zap.NewNop(),
	}
}

func sampleSnapshot(number string) builder.Snapshot {
	b := builder.New(
		builder.WithClock(func() time.Time { return fixedNow }),
		builder.WithInitialDraft(builder.Draft{
			TemplateID:    builder.TemplateMinimal,
			InvoiceNumber: number,
			ClientName:    "Acme Corp",
			ClientEmail:   "billing@acme.test",
			IssueDate:     "2026-03-01",
			DueDate:       "2026-03-31",
			LineItems: []builder.LineItem{
				{ID: "1", Description: "Web Design Services", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(500)},
				{ID: "2", Description: "Logo Design", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(200)},
			},
			Notes:       "Thanks!",
			IncludeLogo: true,
		}),
	)
	return b.Finalize()
}

func TestSave_CreatesPendingInvoice(t *testing.T) {
	ctx := context.Background()
	acme := &domain.Client{ID: 7, Name: "Acme Corp"}
	repo := newMockInvoiceRepo()
	svc := newTestService(t, repo, &mockClientRepo{clients: []*domain.Client{acme}})

	inv, err := svc.Save(ctx, sampleSnapshot("INV-2026-001"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), inv.ID)
	assert.Equal(t, domain.InvoiceStatusPending, inv.Status)
	assert.Equal(t, int64(7), inv.ClientID)
	assert.Equal(t, builder.TemplateMinimal, inv.TemplateID)
	assert.Equal(t, "2026-03-01", inv.IssueDate.Format(builder.DateLayout))
	assert.Equal(t, "2026-03-31", inv.DueDate.Format(builder.DateLayout))
	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(700)))
	assert.True(t, inv.TaxAmount.Equal(decimal.NewFromInt(70)))
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(770)))

	require.Len(t, inv.LineItems, 2)
	assert.Equal(t, "1", inv.LineItems[0].ItemKey)
	assert.Equal(t, 1, inv.LineItems[1].Position)
}

func TestSave_FreeFormClient(t *testing.T) {
	svc := newTestService(t, newMockInvoiceRepo(), &mockClientRepo{})

	inv, err := svc.Save(context.Background(), sampleSnapshot("INV-2026-001"))
	require.NoError(t, err)
	assert.Zero(t, inv.ClientID)
	assert.Equal(t, "Acme Corp", inv.ClientName)
}

func TestSave_AssignsNumberWhenBlank(t *testing.T) {
	svc := newTestService(t, newMockInvoiceRepo(), &mockClientRepo{})

	inv, err := svc.Save(context.Background(), sampleSnapshot("  "))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-001", inv.InvoiceNumber)
}

func TestSave_FallsBackOnBadDates(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := newTestService(t, newMockInvoiceRepo(), &mockClientRepo{})
	svc.logger = zap.New(core)

	snap := sampleSnapshot("INV-2026-001")
	snap.IssueDate = "soon"
	snap.DueDate = ""

	inv, err := svc.Save(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", inv.IssueDate.Format(builder.DateLayout))
	assert.Equal(t, "2026-04-09", inv.DueDate.Format(builder.DateLayout))

	// only the typed issue date is reported; a blank due date takes the default
	entries := logs.FilterMessage("unparseable invoice date replaced").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "issue_date", fields["field"])
	assert.Equal(t, "soon", fields["entered"])
	assert.Equal(t, "2026-03-10", fields["stored"])
}

func TestSave_UpdatesEditableInvoice(t *testing.T) {
	ctx := context.Background()
	existing := domain.NewInvoice("INV-2026-001", "Acme Corp", fixedNow, fixedNow)
	existing.ID = 3
	repo := newMockInvoiceRepo(existing)
	svc := newTestService(t, repo, &mockClientRepo{})

	snap := sampleSnapshot("INV-2026-001")
	snap.Notes = "Revised"

	inv, err := svc.Save(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, int64(3), inv.ID)
	assert.Len(t, repo.invoices, 1)
	assert.Equal(t, "Revised", repo.invoices[3].Notes)
}

func TestSave_RejectsSentInvoice(t *testing.T) {
	existing := domain.NewInvoice("INV-2026-001", "Acme Corp", fixedNow, fixedNow)
	existing.ID = 3
	require.NoError(t, existing.MarkSent(fixedNow))
	svc := newTestService(t, newMockInvoiceRepo(existing), &mockClientRepo{})

	_, err := svc.Save(context.Background(), sampleSnapshot("INV-2026-001"))
	assert.ErrorIs(t, err, ErrInvoiceNotEditable)
}

func TestSend_MarksSentAndRenders(t *testing.T) {
	repo := newMockInvoiceRepo()
	svc := newTestService(t, repo, &mockClientRepo{})

	inv, path, err := svc.Send(context.Background(), sampleSnapshot(""))
	require.NoError(t, err)

	assert.Equal(t, domain.InvoiceStatusSent, inv.Status)
	require.NotNil(t, inv.SentAt)
	assert.Equal(t, fixedNow, *inv.SentAt)
	assert.Equal(t, 1, repo.statusUpdates)
	assert.Equal(t, filepath.Join(svc.settings.OutputDir, "INV-2026-001.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INV-2026-001")
	assert.Contains(t, string(data), "SENT")
	assert.Contains(t, string(data), "$770.00")
}

func TestSend_ReturnsSavedInvoiceWhenStatusUpdateFails(t *testing.T) {
	repo := newMockInvoiceRepo()
	repo.statusErr = errors.New("database is locked")
	svc := newTestService(t, repo, &mockClientRepo{})

	inv, path, err := svc.Send(context.Background(), sampleSnapshot(""))
	require.Error(t, err)
	assert.ErrorContains(t, err, "database is locked")
	assert.Empty(t, path)

	require.NotNil(t, inv)
	assert.Equal(t, "INV-2026-001", inv.InvoiceNumber)
	assert.Equal(t, domain.InvoiceStatusPending, inv.Status)
	assert.Nil(t, inv.SentAt)
	assert.Len(t, repo.invoices, 1)
}

func TestSend_ReturnsSentInvoiceWhenRenderFails(t *testing.T) {
	repo := newMockInvoiceRepo()
	svc := newTestService(t, repo, &mockClientRepo{})
	svc.settings.OutputDir = filepath.Join(svc.settings.OutputDir, "not-a-dir")
	require.NoError(t, os.WriteFile(svc.settings.OutputDir, []byte("x"), 0644))

	inv, path, err := svc.Send(context.Background(), sampleSnapshot(""))
	require.Error(t, err)
	assert.Empty(t, path)
	require.NotNil(t, inv)
	assert.Equal(t, "INV-2026-001", inv.InvoiceNumber)
	assert.Equal(t, domain.InvoiceStatusSent, inv.Status)
	assert.Equal(t, 1, repo.statusUpdates)
}

func TestMarkPaid(t *testing.T) {
	ctx := context.Background()
	inv := domain.NewInvoice("INV-2026-001", "Acme Corp", fixedNow, fixedNow)
	inv.ID = 1
	repo := newMockInvoiceRepo(inv)
	svc := newTestService(t, repo, &mockClientRepo{})

	require.NoError(t, svc.MarkPaid(ctx, 1, fixedNow))
	assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
	assert.Equal(t, 1, repo.statusUpdates)

	assert.Error(t, svc.MarkPaid(ctx, 1, fixedNow))
	assert.ErrorIs(t, svc.MarkPaid(ctx, 99, fixedNow), ErrInvoiceNotFound)
}

func TestCheckOverdue(t *testing.T) {
	dueYesterday := domain.NewInvoice("INV-2026-001", "A", fixedNow.AddDate(0, 0, -31), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	dueYesterday.ID = 1
	dueToday := domain.NewInvoice("INV-2026-002", "B", fixedNow.AddDate(0, 0, -30), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	dueToday.ID = 2
	paid := domain.NewInvoice("INV-2026-003", "C", fixedNow.AddDate(0, 0, -60), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	paid.ID = 3
	require.NoError(t, paid.MarkPaid(fixedNow))

	repo := newMockInvoiceRepo(dueYesterday, dueToday, paid)
	svc := newTestService(t, repo, &mockClientRepo{})

	n, err := svc.CheckOverdue(context.Background(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.InvoiceStatusOverdue, dueYesterday.Status)
	assert.Equal(t, domain.InvoiceStatusPending, dueToday.Status)
	assert.Equal(t, domain.InvoiceStatusPaid, paid.Status)

	// already flagged invoices are not counted twice
	n, err = svc.CheckOverdue(context.Background(), fixedNow)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteInvoice(t *testing.T) {
	inv := domain.NewInvoice("INV-2026-001", "A", fixedNow, fixedNow)
	inv.ID = 1
	repo := newMockInvoiceRepo(inv)
	svc := newTestService(t, repo, &mockClientRepo{})

	require.NoError(t, svc.DeleteInvoice(context.Background(), 1))
	assert.Empty(t, repo.invoices)
	assert.ErrorIs(t, svc.DeleteInvoice(context.Background(), 1), ErrInvoiceNotFound)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	repo := newMockInvoiceRepo()
	svc := newTestService(t, repo, &mockClientRepo{})

	inv, err := svc.Save(ctx, sampleSnapshot("INV-2026-001"))
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := svc.Export(ctx, inv.ID, render.FormatText, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "INV-2026-001.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Logo Design")
	assert.Contains(t, string(data), "PENDING")

	_, err = svc.Export(ctx, 42, render.FormatText, dir)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestToDraft_RoundTrip(t *testing.T) {
	svc := newTestService(t, newMockInvoiceRepo(), &mockClientRepo{})
	snap := sampleSnapshot("INV-2026-001")

	inv, err := svc.Save(context.Background(), snap)
	require.NoError(t, err)

	d := ToDraft(inv)
	assert.Equal(t, snap.InvoiceNumber, d.InvoiceNumber)
	assert.Equal(t, snap.TemplateID, d.TemplateID)
	assert.Equal(t, snap.IssueDate, d.IssueDate)
	assert.Equal(t, snap.DueDate, d.DueDate)
	assert.Equal(t, snap.IncludeLogo, d.IncludeLogo)
	require.Len(t, d.LineItems, 2)
	assert.Equal(t, "2", d.LineItems[1].ID)
	assert.True(t, d.LineItems[1].Amount.Equal(decimal.NewFromInt(200)))

	b := builder.New(builder.WithInitialDraft(d))
	assert.True(t, b.Totals().Total.Equal(snap.Total))
}

func TestNextInvoiceNumber(t *testing.T) {
	svc := newTestService(t, newMockInvoiceRepo(), &mockClientRepo{})

	n, err := svc.NextInvoiceNumber(context.Background(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-001", n)
}
