package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andy/billbook/internal/db"
	"github.com/andy/billbook/internal/domain"
)

// InvoiceRepo is a SQLite implementation of InvoiceRepository
type InvoiceRepo struct {
	db *db.DB
}

// NewInvoiceRepo creates a new InvoiceRepo
func NewInvoiceRepo(database *db.DB) *InvoiceRepo {
	return &InvoiceRepo{db: database}
}

const invoiceColumns = `id, invoice_number, client_id, client_name, client_email, template_id,
	issue_date, due_date, subtotal, tax_rate, tax_amount, total, status, notes,
	include_logo, include_signature, sent_at, paid_date, created_at, updated_at`

func scanInvoice(s scanner) (*domain.Invoice, error) {
	invoice := &domain.Invoice{}
	var clientID sql.NullInt64
	var issueDate, dueDate, status, createdAt, updatedAt string
	var subtotal, taxRate, taxAmount, total string
	var sentAt, paidDate sql.NullString

	err := s.Scan(
		&invoice.ID,
		&invoice.InvoiceNumber,
		&clientID,
		&invoice.ClientName,
		&invoice.ClientEmail,
		&invoice.TemplateID,
		&issueDate,
		&dueDate,
		&subtotal,
		&taxRate,
		&taxAmount,
		&total,
		&status,
		&invoice.Notes,
		&invoice.IncludeLogo,
		&invoice.IncludeSignature,
		&sentAt,
		&paidDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	invoice.ClientID = clientID.Int64
	invoice.Status = domain.InvoiceStatus(status)

	if invoice.IssueDate, err = parseDate(issueDate); err != nil {
		return nil, fmt.Errorf("failed to parse issue_date: %w", err)
	}
	if invoice.DueDate, err = parseDate(dueDate); err != nil {
		return nil, fmt.Errorf("failed to parse due_date: %w", err)
	}
	if invoice.Subtotal, err = parseDecimal("subtotal", subtotal); err != nil {
		return nil, err
	}
	if invoice.TaxRate, err = parseDecimal("tax_rate", taxRate); err != nil {
		return nil, err
	}
	if invoice.TaxAmount, err = parseDecimal("tax_amount", taxAmount); err != nil {
		return nil, err
	}
	if invoice.Total, err = parseDecimal("total", total); err != nil {
		return nil, err
	}
	if invoice.SentAt, err = parseNullTime(sentAt); err != nil {
		return nil, fmt.Errorf("failed to parse sent_at: %w", err)
	}
	if invoice.PaidDate, err = parseNullTime(paidDate); err != nil {
		return nil, fmt.Errorf("failed to parse paid_date: %w", err)
	}
	if invoice.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if invoice.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return invoice, nil
}

func nullClientID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}

// Create inserts a new invoice and its line items
func (r *InvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	if err := invoice.Validate(); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	query := `
		INSERT INTO invoices (
			invoice_number, client_id, client_name, client_email, template_id,
			issue_date, due_date, subtotal, tax_rate, tax_amount, total, status, notes,
			include_logo, include_signature, sent_at, paid_date, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			invoice.InvoiceNumber,
			nullClientID(invoice.ClientID),
			invoice.ClientName,
			invoice.ClientEmail,
			invoice.TemplateID,
			formatDate(invoice.IssueDate),
			formatDate(invoice.DueDate),
			invoice.Subtotal.String(),
			invoice.TaxRate.String(),
			invoice.TaxAmount.String(),
			invoice.Total.String(),
			string(invoice.Status),
			invoice.Notes,
			invoice.IncludeLogo,
			invoice.IncludeSignature,
			nullTime(invoice.SentAt),
			nullTime(invoice.PaidDate),
			invoice.CreatedAt.Format(timeLayout),
			invoice.UpdatedAt.Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get invoice ID: %w", err)
		}
		invoice.ID = id

		return insertLineItems(ctx, tx, invoice)
	})
}

func insertLineItems(ctx context.Context, tx *sql.Tx, invoice *domain.Invoice) error {
	query := `
		INSERT INTO invoice_line_items (invoice_id, item_key, position, description, quantity, rate, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	for i, item := range invoice.LineItems {
		item.InvoiceID = invoice.ID
		item.Position = i

		result, err := tx.ExecContext(ctx, query,
			invoice.ID,
			item.ItemKey,
			item.Position,
			item.Description,
			item.Quantity.String(),
			item.Rate.String(),
			item.Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to add line item: %w", err)
		}

		if item.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get line item ID: %w", err)
		}
	}

	return nil
}

// GetByID retrieves an invoice by ID with its line items
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+invoiceColumns+" FROM invoices WHERE id = ?", id)
	return r.getWithItems(ctx, row)
}

// GetByNumber retrieves an invoice by invoice number with its line items
func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+invoiceColumns+" FROM invoices WHERE invoice_number = ?", number)
	return r.getWithItems(ctx, row)
}

func (r *InvoiceRepo) getWithItems(ctx context.Context, row *sql.Row) (*domain.Invoice, error) {
	invoice, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	if invoice.LineItems, err = r.GetLineItems(ctx, invoice.ID); err != nil {
		return nil, err
	}

	return invoice, nil
}

// List retrieves invoice headers with optional filters, newest first
func (r *InvoiceRepo) List(ctx context.Context, filter InvoiceFilter) ([]*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE 1=1
	`
	args := make([]any, 0)

	if filter.ClientID != nil {
		query += " AND client_id = ?"
		args = append(args, *filter.ClientID)
	}

	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*filter.Status))
	}

	query += " ORDER BY issue_date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]*domain.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	return invoices, nil
}

// Update rewrites an existing invoice and replaces its line items
func (r *InvoiceRepo) Update(ctx context.Context, invoice *domain.Invoice) error {
	if err := invoice.Validate(); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	query := `
		UPDATE invoices
		SET invoice_number = ?, client_id = ?, client_name = ?, client_email = ?, template_id = ?,
		    issue_date = ?, due_date = ?, subtotal = ?, tax_rate = ?, tax_amount = ?, total = ?,
		    status = ?, notes = ?, include_logo = ?, include_signature = ?,
		    sent_at = ?, paid_date = ?, updated_at = ?
		WHERE id = ?
	`

	invoice.UpdatedAt = time.Now()

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			invoice.InvoiceNumber,
			nullClientID(invoice.ClientID),
			invoice.ClientName,
			invoice.ClientEmail,
			invoice.TemplateID,
			formatDate(invoice.IssueDate),
			formatDate(invoice.DueDate),
			invoice.Subtotal.String(),
			invoice.TaxRate.String(),
			invoice.TaxAmount.String(),
			invoice.Total.String(),
			string(invoice.Status),
			invoice.Notes,
			invoice.IncludeLogo,
			invoice.IncludeSignature,
			nullTime(invoice.SentAt),
			nullTime(invoice.PaidDate),
			invoice.UpdatedAt.Format(timeLayout),
			invoice.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}
		if err := checkAffected(result, "invoice"); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM invoice_line_items WHERE invoice_id = ?", invoice.ID); err != nil {
			return fmt.Errorf("failed to clear line items: %w", err)
		}

		return insertLineItems(ctx, tx, invoice)
	})
}

// UpdateStatus writes the invoice's status fields only
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, invoice *domain.Invoice) error {
	query := `
		UPDATE invoices
		SET status = ?, sent_at = ?, paid_date = ?, updated_at = ?
		WHERE id = ?
	`

	invoice.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		string(invoice.Status),
		nullTime(invoice.SentAt),
		nullTime(invoice.PaidDate),
		invoice.UpdatedAt.Format(timeLayout),
		invoice.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}

	return checkAffected(result, "invoice")
}

// Delete removes an invoice and its line items
func (r *InvoiceRepo) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM invoice_line_items WHERE invoice_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete line items: %w", err)
		}
		result, err := tx.ExecContext(ctx, "DELETE FROM invoices WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}
		return checkAffected(result, "invoice")
	})
}

// GetLineItems retrieves all line items for an invoice in builder order
func (r *InvoiceRepo) GetLineItems(ctx context.Context, invoiceID int64) ([]*domain.InvoiceLineItem, error) {
	query := `
		SELECT id, invoice_id, item_key, position, description, quantity, rate, amount
		FROM invoice_line_items
		WHERE invoice_id = ?
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.InvoiceLineItem, 0)
	for rows.Next() {
		item := &domain.InvoiceLineItem{}
		var quantity, rate, amount string

		err := rows.Scan(
			&item.ID,
			&item.InvoiceID,
			&item.ItemKey,
			&item.Position,
			&item.Description,
			&quantity,
			&rate,
			&amount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}

		if item.Quantity, err = parseDecimal("quantity", quantity); err != nil {
			return nil, err
		}
		if item.Rate, err = parseDecimal("rate", rate); err != nil {
			return nil, err
		}
		if item.Amount, err = parseDecimal("amount", amount); err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line items: %w", err)
	}

	return items, nil
}

// GetNextInvoiceNumber generates the next invoice number in format "PREFIX-YEAR-SEQUENCE"
func (r *InvoiceRepo) GetNextInvoiceNumber(ctx context.Context, prefix string, year int) (string, error) {
	base := fmt.Sprintf("%s-%d-", prefix, year)

	rows, err := r.db.QueryContext(ctx,
		"SELECT invoice_number FROM invoices WHERE substr(invoice_number, 1, ?) = ?",
		len(base), base)
	if err != nil {
		return "", fmt.Errorf("failed to get last invoice number: %w", err)
	}
	defer rows.Close()

	// Sequences are compared numerically so INV-2026-1000 follows INV-2026-999
	lastSeq := 0
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return "", fmt.Errorf("failed to scan invoice number: %w", err)
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(number, base))
		if err != nil {
			continue
		}
		if seq > lastSeq {
			lastSeq = seq
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("error iterating invoice numbers: %w", err)
	}

	return fmt.Sprintf("%s%03d", base, lastSeq+1), nil
}
