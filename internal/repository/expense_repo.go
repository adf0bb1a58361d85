package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andy/billbook/internal/db"
	"github.com/andy/billbook/internal/domain"
)

// ExpenseRepo is a SQLite implementation of ExpenseRepository
type ExpenseRepo struct {
	db *db.DB
}

// NewExpenseRepo creates a new ExpenseRepo
func NewExpenseRepo(database *db.DB) *ExpenseRepo {
	return &ExpenseRepo{db: database}
}

const expenseColumns = `id, category, amount, date, vendor, description, receipt_path, created_at, updated_at`

func scanExpense(s scanner) (*domain.Expense, error) {
	expense := &domain.Expense{}
	var category, amount, date, createdAt, updatedAt string

	err := s.Scan(
		&expense.ID,
		&category,
		&amount,
		&date,
		&expense.Vendor,
		&expense.Description,
		&expense.ReceiptPath,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	expense.Category = domain.ExpenseCategory(category)
	if expense.Amount, err = parseDecimal("amount", amount); err != nil {
		return nil, err
	}
	if expense.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}
	if expense.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if expense.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return expense, nil
}

// Create inserts a new expense
func (r *ExpenseRepo) Create(ctx context.Context, expense *domain.Expense) error {
	if err := expense.Validate(); err != nil {
		return fmt.Errorf("invalid expense: %w", err)
	}

	query := `
		INSERT INTO expenses (category, amount, date, vendor, description, receipt_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		string(expense.Category),
		expense.Amount.String(),
		formatDate(expense.Date),
		expense.Vendor,
		expense.Description,
		expense.ReceiptPath,
		expense.CreatedAt.Format(timeLayout),
		expense.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get expense ID: %w", err)
	}

	expense.ID = id
	return nil
}

// GetByID retrieves an expense by ID
func (r *ExpenseRepo) GetByID(ctx context.Context, id int64) (*domain.Expense, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)

	expense, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("expense %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return expense, nil
}

// List retrieves expenses with optional filters, newest first
func (r *ExpenseRepo) List(ctx context.Context, filter ExpenseFilter) ([]*domain.Expense, error) {
	query := `
		SELECT ` + expenseColumns + `
		FROM expenses
		WHERE 1=1
	`
	args := make([]any, 0)

	if filter.Start != nil {
		query += " AND date >= ?"
		args = append(args, formatDate(*filter.Start))
	}
	if filter.End != nil {
		query += " AND date <= ?"
		args = append(args, formatDate(*filter.End))
	}
	if filter.Category != nil {
		query += " AND category = ?"
		args = append(args, string(*filter.Category))
	}

	query += " ORDER BY date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]*domain.Expense, 0)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}

	return expenses, nil
}

// Update updates an existing expense
func (r *ExpenseRepo) Update(ctx context.Context, expense *domain.Expense) error {
	if err := expense.Validate(); err != nil {
		return fmt.Errorf("invalid expense: %w", err)
	}

	expense.UpdatedAt = time.Now()

	query := `
		UPDATE expenses
		SET category = ?, amount = ?, date = ?, vendor = ?, description = ?, receipt_path = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(expense.Category),
		expense.Amount.String(),
		formatDate(expense.Date),
		expense.Vendor,
		expense.Description,
		expense.ReceiptPath,
		expense.UpdatedAt.Format(timeLayout),
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	return checkAffected(result, "expense")
}

// Delete removes an expense
func (r *ExpenseRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return checkAffected(result, "expense")
}
