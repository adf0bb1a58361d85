package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andy/billbook/internal/builder"
	"github.com/andy/billbook/internal/domain"
	"github.com/andy/billbook/internal/render"
	"github.com/andy/billbook/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrInvoiceNotEditable = errors.New("invoice cannot be edited after it has been sent")
	ErrInvoiceNotFound    = errors.New("invoice not found")
)

// InvoiceSettings carries the configuration the invoice service needs
type InvoiceSettings struct {
	NumberPrefix  string
	DueDays       int
	OutputDir     string
	From          render.Party
	LogoPath      string
	SignaturePath string
}

// InvoiceService persists builder snapshots and manages invoice lifecycle
type InvoiceService interface {
	// Save stores a finalized snapshot as a pending invoice. A snapshot whose
	// number matches an editable invoice replaces it.
	Save(ctx context.Context, snap builder.Snapshot) (*domain.Invoice, error)

	// Send saves the snapshot, marks it sent and writes a PDF to the output dir.
	// Once the invoice is persisted it is returned even when a later step fails.
	Send(ctx context.Context, snap builder.Snapshot) (*domain.Invoice, string, error)

	// MarkSent updates invoice status to sent
	MarkSent(ctx context.Context, invoiceID int64) error

	// MarkPaid updates invoice status to paid with payment date
	MarkPaid(ctx context.Context, invoiceID int64, paidDate time.Time) error

	// CheckOverdue flags outstanding invoices past their due date and
	// returns how many changed
	CheckOverdue(ctx context.Context, now time.Time) (int, error)

	// GetInvoice retrieves an invoice by ID
	GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error)

	// GetInvoiceByNumber retrieves an invoice by its number
	GetInvoiceByNumber(ctx context.Context, number string) (*domain.Invoice, error)

	// ListInvoices lists invoices with optional filters
	ListInvoices(ctx context.Context, filter repository.InvoiceFilter) ([]*domain.Invoice, error)

	// DeleteInvoice removes an invoice and its line items
	DeleteInvoice(ctx context.Context, id int64) error

	// NextInvoiceNumber returns the next free number for the year of now
	NextInvoiceNumber(ctx context.Context, now time.Time) (string, error)

	// Export renders a stored invoice into dir and returns the file path
	Export(ctx context.Context, invoiceID int64, format render.Format, dir string) (string, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	settings    InvoiceSettings
	sendFormat  render.Format
	now         func() time.Time
	logger      *zap.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	settings InvoiceSettings,
	logger *zap.Logger,
) InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.NumberPrefix == "" {
		settings.NumberPrefix = "INV"
	}
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		settings:    settings,
		sendFormat:  render.FormatPDF,
		now:         time.Now,
		logger:      logger.Named("invoices"),
	}
}

func (s *invoiceService) Save(ctx context.Context, snap builder.Snapshot) (*domain.Invoice, error) {
	invoice := s.fromSnapshot(ctx, snap)

	if strings.TrimSpace(invoice.InvoiceNumber) == "" {
		number, err := s.invoiceRepo.GetNextInvoiceNumber(ctx, s.settings.NumberPrefix, invoice.IssueDate.Year())
		if err != nil {
			return nil, fmt.Errorf("failed to generate invoice number: %w", err)
		}
		invoice.InvoiceNumber = number
	}

	existing, err := s.invoiceRepo.GetByNumber(ctx, invoice.InvoiceNumber)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
			return nil, err
		}
		s.logger.Info("invoice created",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Int("line_items", len(invoice.LineItems)),
			zap.String("total", invoice.Total.StringFixed(2)))
		return invoice, nil

	case err != nil:
		return nil, err
	}

	if !existing.CanEdit() {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvoiceNotEditable, existing.InvoiceNumber, existing.Status)
	}

	invoice.ID = existing.ID
	invoice.Status = existing.Status
	invoice.CreatedAt = existing.CreatedAt
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("invoice updated",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int("line_items", len(invoice.LineItems)),
		zap.String("total", invoice.Total.StringFixed(2)))
	return invoice, nil
}

func (s *invoiceService) Send(ctx context.Context, snap builder.Snapshot) (*domain.Invoice, string, error) {
	invoice, err := s.Save(ctx, snap)
	if err != nil {
		return nil, "", err
	}

	// the invoice is persisted from here on, so it is returned with any error
	prevStatus, prevSentAt := invoice.Status, invoice.SentAt
	if err := invoice.MarkSent(s.now()); err != nil {
		return invoice, "", fmt.Errorf("invoice %s saved but not sent: %w", invoice.InvoiceNumber, err)
	}
	if err := s.invoiceRepo.UpdateStatus(ctx, invoice); err != nil {
		invoice.Status, invoice.SentAt = prevStatus, prevSentAt
		return invoice, "", fmt.Errorf("invoice %s saved but not sent: %w", invoice.InvoiceNumber, err)
	}

	r, err := render.New(s.sendFormat)
	if err != nil {
		return invoice, "", fmt.Errorf("invoice %s marked sent but not rendered: %w", invoice.InvoiceNumber, err)
	}
	snap.InvoiceNumber = invoice.InvoiceNumber
	path, err := render.WriteFile(r, s.settings.OutputDir, s.document(snap, invoice.Status))
	if err != nil {
		return invoice, "", fmt.Errorf("invoice %s marked sent but not rendered: %w", invoice.InvoiceNumber, err)
	}

	s.logger.Info("invoice sent",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("client_email", invoice.ClientEmail),
		zap.String("path", path))
	return invoice, path, nil
}

func (s *invoiceService) MarkSent(ctx context.Context, invoiceID int64) error {
	invoice, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}

	if err := invoice.MarkSent(s.now()); err != nil {
		return err
	}

	return s.invoiceRepo.UpdateStatus(ctx, invoice)
}

func (s *invoiceService) MarkPaid(ctx context.Context, invoiceID int64, paidDate time.Time) error {
	invoice, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}

	if err := invoice.MarkPaid(paidDate); err != nil {
		return err
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, invoice); err != nil {
		return err
	}

	s.logger.Info("invoice paid",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Time("paid_date", paidDate))
	return nil
}

func (s *invoiceService) CheckOverdue(ctx context.Context, now time.Time) (int, error) {
	invoices, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{})
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, invoice := range invoices {
		if invoice.Status == domain.InvoiceStatusOverdue || !invoice.IsOverdue(now) {
			continue
		}
		invoice.Status = domain.InvoiceStatusOverdue
		if err := s.invoiceRepo.UpdateStatus(ctx, invoice); err != nil {
			return changed, err
		}
		changed++
	}

	if changed > 0 {
		s.logger.Info("invoices marked overdue", zap.Int("count", changed))
	}
	return changed, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrInvoiceNotFound, id)
		}
		return nil, err
	}
	if invoice == nil {
		return nil, fmt.Errorf("%w: id %d", ErrInvoiceNotFound, id)
	}
	return invoice, nil
}

func (s *invoiceService) GetInvoiceByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, number)
		}
		return nil, err
	}
	return invoice, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter repository.InvoiceFilter) ([]*domain.Invoice, error) {
	return s.invoiceRepo.List(ctx, filter)
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, id int64) error {
	if err := s.invoiceRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: id %d", ErrInvoiceNotFound, id)
		}
		return err
	}
	s.logger.Info("invoice deleted", zap.Int64("invoice_id", id))
	return nil
}

func (s *invoiceService) NextInvoiceNumber(ctx context.Context, now time.Time) (string, error) {
	return s.invoiceRepo.GetNextInvoiceNumber(ctx, s.settings.NumberPrefix, now.Year())
}

func (s *invoiceService) Export(ctx context.Context, invoiceID int64, format render.Format, dir string) (string, error) {
	invoice, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return "", err
	}

	r, err := render.New(format)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = s.settings.OutputDir
	}

	path, err := render.WriteFile(r, dir, s.document(ToSnapshot(invoice), invoice.Status))
	if err != nil {
		return "", err
	}

	s.logger.Info("invoice exported",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("format", string(format)),
		zap.String("path", path))
	return path, nil
}

func (s *invoiceService) document(snap builder.Snapshot, status domain.InvoiceStatus) render.Document {
	return render.Document{
		Invoice:       snap,
		From:          s.settings.From,
		Status:        string(status),
		LogoPath:      s.settings.LogoPath,
		SignaturePath: s.settings.SignaturePath,
	}
}

// fromSnapshot maps a snapshot onto a new pending invoice. Dates that do not
// parse fall back to the finalize day and the configured payment window.
func (s *invoiceService) fromSnapshot(ctx context.Context, snap builder.Snapshot) *domain.Invoice {
	issue := snap.ParseIssueDate()
	if issue.IsZero() {
		at := snap.FinalizedAt
		if at.IsZero() {
			at = s.now()
		}
		issue = time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
		s.warnDateReplaced("issue_date", snap.IssueDate, issue)
	}
	due := snap.ParseDueDate()
	if due.IsZero() {
		due = issue.AddDate(0, 0, s.settings.DueDays)
		s.warnDateReplaced("due_date", snap.DueDate, due)
	}

	invoice := domain.NewInvoice(strings.TrimSpace(snap.InvoiceNumber), snap.ClientName, issue, due)
	invoice.ClientEmail = snap.ClientEmail
	template, _ := builder.LookupTemplate(snap.TemplateID)
	invoice.TemplateID = template.ID
	invoice.Notes = snap.Notes
	invoice.IncludeLogo = snap.IncludeLogo
	invoice.IncludeSignature = snap.IncludeSignature
	invoice.TaxRate = snap.TaxRate
	invoice.Subtotal = snap.Subtotal
	invoice.TaxAmount = snap.Tax
	invoice.Total = snap.Total

	for i, item := range snap.LineItems {
		invoice.LineItems = append(invoice.LineItems, &domain.InvoiceLineItem{
			ItemKey:     item.ID,
			Position:    i,
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      item.Amount,
		})
	}

	if name := strings.TrimSpace(snap.ClientName); name != "" {
		client, err := s.clientRepo.GetByName(ctx, name)
		switch {
		case err == nil && client != nil:
			invoice.ClientID = client.ID
			invoice.Client = client
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			s.logger.Warn("client lookup failed", zap.String("client_name", name), zap.Error(err))
		}
	}

	return invoice
}

// warnDateReplaced logs when a typed date could not be stored as entered.
// Blank dates are expected to take the default and are not reported.
func (s *invoiceService) warnDateReplaced(field, entered string, used time.Time) {
	if strings.TrimSpace(entered) == "" {
		return
	}
	s.logger.Warn("unparseable invoice date replaced",
		zap.String("field", field),
		zap.String("entered", entered),
		zap.String("stored", used.Format(builder.DateLayout)))
}

// ToDraft rebuilds a builder draft from a stored invoice for the edit flow
func ToDraft(invoice *domain.Invoice) builder.Draft {
	d := builder.Draft{
		TemplateID:       invoice.TemplateID,
		InvoiceNumber:    invoice.InvoiceNumber,
		ClientName:       invoice.ClientName,
		ClientEmail:      invoice.ClientEmail,
		IssueDate:        invoice.IssueDate.Format(builder.DateLayout),
		DueDate:          invoice.DueDate.Format(builder.DateLayout),
		LineItems:        make([]builder.LineItem, 0, len(invoice.LineItems)),
		Notes:            invoice.Notes,
		IncludeLogo:      invoice.IncludeLogo,
		IncludeSignature: invoice.IncludeSignature,
	}

	for _, item := range invoice.LineItems {
		id := item.ItemKey
		if id == "" {
			id = strconv.FormatInt(item.ID, 10)
		}
		d.LineItems = append(d.LineItems, builder.LineItem{
			ID:          id,
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      item.Quantity.Mul(item.Rate),
		})
	}

	return d
}

// ToSnapshot rebuilds a renderable snapshot from a stored invoice
func ToSnapshot(invoice *domain.Invoice) builder.Snapshot {
	template, _ := builder.LookupTemplate(invoice.TemplateID)
	return builder.Snapshot{
		Draft: ToDraft(invoice),
		Totals: builder.Totals{
			Subtotal: invoice.Subtotal,
			Tax:      invoice.TaxAmount,
			Total:    invoice.Total,
		},
		TaxRate:     invoice.TaxRate,
		Template:    template,
		FinalizedAt: invoice.UpdatedAt,
	}
}
