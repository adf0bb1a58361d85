package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ExpenseCategory string

const (
	CategoryOfficeSupplies ExpenseCategory = "Office Supplies"
	CategoryTravel         ExpenseCategory = "Travel"
	CategorySoftware       ExpenseCategory = "Software"
	CategoryMeals          ExpenseCategory = "Meals"
	CategoryEquipment      ExpenseCategory = "Equipment"
	CategoryOther          ExpenseCategory = "Other"
)

// ExpenseCategories lists categories in display order
var ExpenseCategories = []ExpenseCategory{
	CategoryOfficeSupplies,
	CategoryTravel,
	CategorySoftware,
	CategoryMeals,
	CategoryEquipment,
	CategoryOther,
}

// ParseExpenseCategory matches a category name case-insensitively.
// Dashes and underscores match spaces, so "office-supplies" works on the command line.
func ParseExpenseCategory(s string) (ExpenseCategory, error) {
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(s))
	for _, c := range ExpenseCategories {
		if strings.EqualFold(string(c), norm) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown expense category %q", s)
}

type Expense struct {
	ID          int64
	Category    ExpenseCategory
	Amount      decimal.Decimal
	Date        time.Time
	Vendor      string
	Description string
	ReceiptPath string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewExpense creates an expense dated at the given day
func NewExpense(category ExpenseCategory, amount decimal.Decimal, date time.Time, vendor string) *Expense {
	now := time.Now()
	return &Expense{
		Category:  category,
		Amount:    amount,
		Date:      date,
		Vendor:    strings.TrimSpace(vendor),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate returns an error if the expense is invalid
func (e *Expense) Validate() error {
	if _, err := ParseExpenseCategory(string(e.Category)); err != nil {
		return err
	}
	if !e.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if e.Date.IsZero() {
		return errors.New("date is required")
	}
	if strings.TrimSpace(e.Vendor) == "" {
		return errors.New("vendor is required")
	}
	return nil
}
