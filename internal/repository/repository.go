package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andy/billbook/internal/domain"
)

// ErrNotFound is returned (wrapped) when a lookup matches no row
var ErrNotFound = errors.New("not found")

// ClientRepository manages client persistence
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
	GetByName(ctx context.Context, name string) (*domain.Client, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
	Archive(ctx context.Context, id int64) error
	Unarchive(ctx context.Context, id int64) error
}

// InvoiceFilter narrows List results; nil fields match everything
type InvoiceFilter struct {
	ClientID *int64
	Status   *domain.InvoiceStatus
}

// InvoiceRepository manages invoice persistence
type InvoiceRepository interface {
	// Create inserts the invoice and its line items in one transaction
	Create(ctx context.Context, invoice *domain.Invoice) error
	// GetByID and GetByNumber return the invoice with line items loaded
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*domain.Invoice, error)
	// List returns invoice headers without line items
	List(ctx context.Context, filter InvoiceFilter) ([]*domain.Invoice, error)
	// Update rewrites the invoice and replaces its line items
	Update(ctx context.Context, invoice *domain.Invoice) error
	// UpdateStatus writes only status, sent and paid dates
	UpdateStatus(ctx context.Context, invoice *domain.Invoice) error
	Delete(ctx context.Context, id int64) error
	GetLineItems(ctx context.Context, invoiceID int64) ([]*domain.InvoiceLineItem, error)
	GetNextInvoiceNumber(ctx context.Context, prefix string, year int) (string, error)
}

// ExpenseFilter narrows List results; nil fields match everything.
// The date range is inclusive.
type ExpenseFilter struct {
	Start    *time.Time
	End      *time.Time
	Category *domain.ExpenseCategory
}

// ExpenseRepository manages expense persistence
type ExpenseRepository interface {
	Create(ctx context.Context, expense *domain.Expense) error
	GetByID(ctx context.Context, id int64) (*domain.Expense, error)
	List(ctx context.Context, filter ExpenseFilter) ([]*domain.Expense, error)
	Update(ctx context.Context, expense *domain.Expense) error
	Delete(ctx context.Context, id int64) error
}
