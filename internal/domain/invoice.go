package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// ParseInvoiceStatus accepts a status name as stored or typed on the command line
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch InvoiceStatus(s) {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue:
		return InvoiceStatus(s), nil
	}
	return "", errors.New("unknown invoice status: " + s)
}

type Invoice struct {
	ID               int64
	InvoiceNumber    string
	ClientID         int64 // 0 when the client was typed free-form
	ClientName       string
	ClientEmail      string
	TemplateID       string
	IssueDate        time.Time
	DueDate          time.Time
	Subtotal         decimal.Decimal
	TaxRate          decimal.Decimal
	TaxAmount        decimal.Decimal
	Total            decimal.Decimal
	Status           InvoiceStatus
	Notes            string
	IncludeLogo      bool
	IncludeSignature bool
	SentAt           *time.Time
	PaidDate         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Related data (populated by repository)
	LineItems []*InvoiceLineItem
	Client    *Client
}

type InvoiceLineItem struct {
	ID          int64
	InvoiceID   int64
	ItemKey     string // stable line item ID from the builder
	Position    int
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
}

// NewInvoice creates a new pending invoice
func NewInvoice(invoiceNumber, clientName string, issueDate, dueDate time.Time) *Invoice {
	now := time.Now()
	return &Invoice{
		InvoiceNumber: invoiceNumber,
		ClientName:    clientName,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		Status:        InvoiceStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		LineItems:     make([]*InvoiceLineItem, 0),
	}
}

// CanEdit returns true if the invoice can still be replaced by the builder
func (i *Invoice) CanEdit() bool {
	return i.Status == InvoiceStatusDraft || i.Status == InvoiceStatusPending
}

// IsOutstanding returns true if money is still owed on the invoice
func (i *Invoice) IsOutstanding() bool {
	switch i.Status {
	case InvoiceStatusPending, InvoiceStatusSent, InvoiceStatusOverdue:
		return true
	}
	return false
}

// IsOverdue returns true if the invoice is outstanding and its due date has
// passed as of now. The due date itself is not overdue.
func (i *Invoice) IsOverdue(now time.Time) bool {
	if !i.IsOutstanding() || i.DueDate.IsZero() {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, i.DueDate.Location())
	return i.DueDate.Before(today)
}

// MarkSent moves a pending invoice to sent
func (i *Invoice) MarkSent(at time.Time) error {
	if i.Status == InvoiceStatusPaid {
		return errors.New("invoice is already paid")
	}
	i.Status = InvoiceStatusSent
	i.SentAt = &at
	i.UpdatedAt = time.Now()
	return nil
}

// MarkPaid records payment
func (i *Invoice) MarkPaid(paid time.Time) error {
	if i.Status == InvoiceStatusPaid {
		return errors.New("invoice is already paid")
	}
	i.Status = InvoiceStatusPaid
	i.PaidDate = &paid
	i.UpdatedAt = time.Now()
	return nil
}

// CalculateTotals recalculates subtotal, tax, and total from line items
func (i *Invoice) CalculateTotals() {
	i.Subtotal = decimal.Zero
	for _, item := range i.LineItems {
		i.Subtotal = i.Subtotal.Add(item.Amount)
	}
	i.TaxAmount = i.Subtotal.Mul(i.TaxRate)
	i.Total = i.Subtotal.Add(i.TaxAmount)
	i.UpdatedAt = time.Now()
}

// Validate returns an error if the invoice is invalid
func (i *Invoice) Validate() error {
	if i.InvoiceNumber == "" {
		return errors.New("invoice number is required")
	}
	if i.IssueDate.IsZero() {
		return errors.New("issue date is required")
	}
	if i.DueDate.IsZero() {
		return errors.New("due date is required")
	}
	if i.TaxRate.IsNegative() || i.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("tax rate must be between 0 and 1")
	}
	return nil
}
