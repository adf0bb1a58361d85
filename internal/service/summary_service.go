package service

import (
	"context"
	"sort"
	"time"

	"github.com/andy/billbook/internal/domain"
	"github.com/andy/billbook/internal/repository"
	"github.com/shopspring/decimal"
)

// Summary is the dashboard view of money in and out
type Summary struct {
	Outstanding       decimal.Decimal // pending, sent and overdue invoices
	OutstandingCount  int
	Overdue           decimal.Decimal
	OverdueCount      int
	PaidThisMonth     decimal.Decimal
	ExpensesThisMonth decimal.Decimal
	NetThisMonth      decimal.Decimal
	RecentInvoices    []*domain.Invoice
}

// CategoryTotal is one row of an expense breakdown
type CategoryTotal struct {
	Category domain.ExpenseCategory
	Total    decimal.Decimal
}

// SummaryService provides aggregations for the dashboard and reports
type SummaryService interface {
	GetSummary(ctx context.Context, now time.Time) (*Summary, error)
	// GetRevenueByMonth sums paid invoices by the month they were paid
	GetRevenueByMonth(ctx context.Context, year int) (map[time.Month]decimal.Decimal, error)
	// GetExpensesByCategory sums expenses in [start, end], largest first
	GetExpensesByCategory(ctx context.Context, start, end time.Time) ([]CategoryTotal, error)
}

// recentInvoiceLimit caps Summary.RecentInvoices
const recentInvoiceLimit = 5

type summaryService struct {
	invoiceRepo repository.InvoiceRepository
	expenseRepo repository.ExpenseRepository
}

// NewSummaryService creates a new summary service
func NewSummaryService(
	invoiceRepo repository.InvoiceRepository,
	expenseRepo repository.ExpenseRepository,
) SummaryService {
	return &summaryService{
		invoiceRepo: invoiceRepo,
		expenseRepo: expenseRepo,
	}
}

func monthBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

func (s *summaryService) GetSummary(ctx context.Context, now time.Time) (*Summary, error) {
	invoices, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{})
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Outstanding:       decimal.Zero,
		Overdue:           decimal.Zero,
		PaidThisMonth:     decimal.Zero,
		ExpensesThisMonth: decimal.Zero,
	}

	for _, inv := range invoices {
		if inv.IsOutstanding() {
			summary.Outstanding = summary.Outstanding.Add(inv.Total)
			summary.OutstandingCount++
		}
		if inv.Status == domain.InvoiceStatusOverdue || inv.IsOverdue(now) {
			summary.Overdue = summary.Overdue.Add(inv.Total)
			summary.OverdueCount++
		}
		if inv.Status == domain.InvoiceStatusPaid && inv.PaidDate != nil &&
			inv.PaidDate.Year() == now.Year() && inv.PaidDate.Month() == now.Month() {
			summary.PaidThisMonth = summary.PaidThisMonth.Add(inv.Total)
		}
	}

	// List is newest first
	n := min(len(invoices), recentInvoiceLimit)
	summary.RecentInvoices = invoices[:n]

	start, end := monthBounds(now)
	expenses, err := s.expenseRepo.List(ctx, repository.ExpenseFilter{Start: &start, End: &end})
	if err != nil {
		return nil, err
	}
	for _, e := range expenses {
		summary.ExpensesThisMonth = summary.ExpensesThisMonth.Add(e.Amount)
	}

	summary.NetThisMonth = summary.PaidThisMonth.Sub(summary.ExpensesThisMonth)
	return summary, nil
}

func (s *summaryService) GetRevenueByMonth(ctx context.Context, year int) (map[time.Month]decimal.Decimal, error) {
	paid := domain.InvoiceStatusPaid
	invoices, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{Status: &paid})
	if err != nil {
		return nil, err
	}

	revenue := make(map[time.Month]decimal.Decimal)
	for _, inv := range invoices {
		if inv.PaidDate == nil || inv.PaidDate.Year() != year {
			continue
		}
		m := inv.PaidDate.Month()
		revenue[m] = revenue[m].Add(inv.Total)
	}

	return revenue, nil
}

func (s *summaryService) GetExpensesByCategory(ctx context.Context, start, end time.Time) ([]CategoryTotal, error) {
	expenses, err := s.expenseRepo.List(ctx, repository.ExpenseFilter{Start: &start, End: &end})
	if err != nil {
		return nil, err
	}

	byCategory := make(map[domain.ExpenseCategory]decimal.Decimal)
	for _, e := range expenses {
		byCategory[e.Category] = byCategory[e.Category].Add(e.Amount)
	}

	out := make([]CategoryTotal, 0, len(byCategory))
	for c, total := range byCategory {
		out = append(out, CategoryTotal{Category: c, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Category < out[j].Category
	})

	return out, nil
}
