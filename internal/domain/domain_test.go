package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestInvoiceIsOverdue(t *testing.T) {
	inv := NewInvoice("INV-2026-001", "Acme", day(2026, 3, 1), day(2026, 3, 31))

	assert.False(t, inv.IsOverdue(time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)), "due date itself")
	assert.True(t, inv.IsOverdue(time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)))

	require.NoError(t, inv.MarkPaid(day(2026, 4, 2)))
	assert.False(t, inv.IsOverdue(day(2026, 5, 1)))
	assert.Error(t, inv.MarkPaid(day(2026, 4, 3)))
}

func TestInvoiceStatusTransitions(t *testing.T) {
	inv := NewInvoice("INV-2026-002", "Acme", day(2026, 3, 1), day(2026, 3, 31))
	assert.True(t, inv.CanEdit())
	assert.True(t, inv.IsOutstanding())

	require.NoError(t, inv.MarkSent(day(2026, 3, 2)))
	assert.Equal(t, InvoiceStatusSent, inv.Status)
	assert.False(t, inv.CanEdit())
	require.NotNil(t, inv.SentAt)

	require.NoError(t, inv.MarkPaid(day(2026, 3, 20)))
	assert.False(t, inv.IsOutstanding())
	assert.Error(t, inv.MarkSent(day(2026, 3, 21)))
}

func TestInvoiceCalculateTotals(t *testing.T) {
	inv := NewInvoice("INV-2026-003", "Acme", day(2026, 3, 1), day(2026, 3, 31))
	inv.TaxRate = decimal.RequireFromString("0.10")
	inv.LineItems = []*InvoiceLineItem{
		{Amount: decimal.NewFromInt(500)},
		{Amount: decimal.NewFromInt(200)},
	}

	inv.CalculateTotals()

	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(700)))
	assert.True(t, inv.TaxAmount.Equal(decimal.NewFromInt(70)))
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(770)))
}

func TestInvoiceValidate(t *testing.T) {
	inv := NewInvoice("", "Acme", day(2026, 3, 1), day(2026, 3, 31))
	assert.Error(t, inv.Validate())

	inv.InvoiceNumber = "INV-2026-004"
	assert.NoError(t, inv.Validate())

	inv.TaxRate = decimal.RequireFromString("1.5")
	assert.Error(t, inv.Validate())
}

func TestParseInvoiceStatus(t *testing.T) {
	s, err := ParseInvoiceStatus("overdue")
	require.NoError(t, err)
	assert.Equal(t, InvoiceStatusOverdue, s)

	_, err = ParseInvoiceStatus("finalized")
	assert.Error(t, err)
}

func TestParseExpenseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want ExpenseCategory
		ok   bool
	}{
		{"Travel", CategoryTravel, true},
		{"office-supplies", CategoryOfficeSupplies, true},
		{" SOFTWARE ", CategorySoftware, true},
		{"groceries", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExpenseCategory(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpenseValidate(t *testing.T) {
	e := NewExpense(CategoryMeals, decimal.RequireFromString("12.40"), day(2026, 3, 5), "Cafe")
	assert.NoError(t, e.Validate())

	e.Amount = decimal.Zero
	assert.Error(t, e.Validate())

	e.Amount = decimal.NewFromInt(1)
	e.Vendor = " "
	assert.Error(t, e.Validate())
}

func TestClient(t *testing.T) {
	c := NewClient("  Jane  ", "jane@example.com")
	assert.Equal(t, "Jane", c.Name)
	assert.Equal(t, DefaultPaymentTermsDays, c.PaymentTermsDays)
	assert.NoError(t, c.Validate())
	assert.Equal(t, day(2026, 3, 31), c.DueDateFrom(day(2026, 3, 1)))

	c.Email = "nope"
	assert.Error(t, c.Validate())
}
