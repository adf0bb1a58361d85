package builder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the format used for issue and due dates
const DateLayout = "2006-01-02"

var (
	ErrInvalidDate    = errors.New("date is not in YYYY-MM-DD format")
	ErrDueBeforeIssue = errors.New("due date is before issue date")
)

// LineItem is one billable row. Amount is derived from Quantity and Rate and
// is only ever written by the builder.
type LineItem struct {
	ID          string
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	Amount      decimal.Decimal
}

// recompute restores Amount == Quantity * Rate
func (li *LineItem) recompute() {
	li.Amount = li.Quantity.Mul(li.Rate)
}

// Draft is the in-progress invoice document owned by one builder session
type Draft struct {
	TemplateID       string
	InvoiceNumber    string
	ClientName       string
	ClientEmail      string
	IssueDate        string
	DueDate          string
	LineItems        []LineItem
	Notes            string
	IncludeLogo      bool
	IncludeSignature bool
}

// BlankDraft returns an empty draft dated now and due dueDays later
func BlankDraft(now time.Time, dueDays int) Draft {
	return Draft{
		TemplateID:       DefaultTemplateID,
		IssueDate:        now.Format(DateLayout),
		DueDate:          now.AddDate(0, 0, dueDays).Format(DateLayout),
		LineItems:        make([]LineItem, 0),
		IncludeLogo:      true,
		IncludeSignature: true,
	}
}

// Clone returns a deep copy of the draft
func (d Draft) Clone() Draft {
	out := d
	out.LineItems = make([]LineItem, len(d.LineItems))
	copy(out.LineItems, d.LineItems)
	return out
}

// indexOf returns the position of the line item with the given ID, or -1
func (d *Draft) indexOf(id string) int {
	for i := range d.LineItems {
		if d.LineItems[i].ID == id {
			return i
		}
	}
	return -1
}

// Check reports problems with the draft's dates. The builder never calls it;
// hosts that want strict input (e.g. the CLI --strict flag) do.
func (d Draft) Check() error {
	var errs []error

	issue, issueErr := time.Parse(DateLayout, strings.TrimSpace(d.IssueDate))
	if issueErr != nil {
		errs = append(errs, fmt.Errorf("issue date %q: %w", d.IssueDate, ErrInvalidDate))
	}
	due, dueErr := time.Parse(DateLayout, strings.TrimSpace(d.DueDate))
	if dueErr != nil {
		errs = append(errs, fmt.Errorf("due date %q: %w", d.DueDate, ErrInvalidDate))
	}
	if issueErr == nil && dueErr == nil && due.Before(issue) {
		errs = append(errs, ErrDueBeforeIssue)
	}

	return errors.Join(errs...)
}

// Totals are the derived financial figures of a draft
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums line item amounts and applies a flat tax rate
func ComputeTotals(items []LineItem, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Amount)
	}
	tax := subtotal.Mul(taxRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Snapshot is a frozen copy of a draft and its totals, produced by Finalize
// and handed to save/send collaborators.
type Snapshot struct {
	Draft
	Totals
	TaxRate     decimal.Decimal
	Template    Template
	FinalizedAt time.Time
}

// ParseIssueDate returns the issue date, or the zero time if it is malformed
func (s Snapshot) ParseIssueDate() time.Time {
	t, _ := time.Parse(DateLayout, strings.TrimSpace(s.IssueDate))
	return t
}

// ParseDueDate returns the due date, or the zero time if it is malformed
func (s Snapshot) ParseDueDate() time.Time {
	t, _ := time.Parse(DateLayout, strings.TrimSpace(s.DueDate))
	return t
}
