package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/niel17/invoiceflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// StatusTotal is one row of the per-status invoice aggregate used by the
// dashboard.
type StatusTotal struct {
	Status string          `json:"status"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// InvoiceFilter narrows List results. Zero values mean "no filter".
type InvoiceFilter struct {
	Status    string
	ClientID  *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

type InvoiceRepository interface {
	// Create persists the invoice row and its line items in one
	// transaction, minting the invoice number inside that transaction when
	// it has not been assigned yet.
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, userID uuid.UUID, filter InvoiceFilter) ([]*models.Invoice, error)
	// Update rewrites the invoice row; when replaceLineItems is set the
	// stored line-item set is discarded and re-inserted atomically.
	Update(ctx context.Context, invoice *models.Invoice, replaceLineItems bool) error
	UpdateStatus(ctx context.Context, userID, id uuid.UUID, status string) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	NextInvoiceNumber(ctx context.Context, userID uuid.UUID, year int) (string, error)
	StatusTotals(ctx context.Context, userID uuid.UUID) ([]StatusTotal, error)
}

type invoiceRepo struct {
	db Database
}

func NewInvoiceRepository(db Database) InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceColumns = `id, user_id, client_id, invoice_number, status, issue_date, due_date, payment_terms,
		subtotal, tax_rate, tax_amount, discount_type, discount_value, discount_amount, total, notes, created_at, updated_at`

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	err := row.Scan(&invoice.ID, &invoice.UserID, &invoice.ClientID, &invoice.InvoiceNumber, &invoice.Status,
		&invoice.IssueDate, &invoice.DueDate, &invoice.PaymentTerms, &invoice.Subtotal, &invoice.TaxRate,
		&invoice.TaxAmount, &invoice.DiscountType, &invoice.DiscountValue, &invoice.DiscountAmount,
		&invoice.Total, &invoice.Notes, &invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// nextInvoiceNumber increments the per-owner-per-year sequence row and
// formats the result. The upsert is atomic, so concurrent creates by the same
// owner receive distinct numbers; running it on the create transaction keeps
// the sequence and the invoice row consistent under rollback.
func nextInvoiceNumber(ctx context.Context, q rowQuerier, userID uuid.UUID, year int) (string, error) {
	query := `
		WITH upsert AS (
			INSERT INTO invoice_sequences (user_id, year, last_number, updated_at)
			VALUES ($1, $2, 1, NOW())
			ON CONFLICT (user_id, year)
			DO UPDATE SET
				last_number = invoice_sequences.last_number + 1,
				updated_at = NOW()
			RETURNING last_number
		)
		SELECT last_number FROM upsert
	`

	var sequenceNum int
	if err := q.QueryRow(ctx, query, userID, year).Scan(&sequenceNum); err != nil {
		return "", fmt.Errorf("failed to generate invoice sequence: %w", err)
	}

	return fmt.Sprintf("INV-%d-%04d", year, sequenceNum), nil
}

func (r *invoiceRepo) NextInvoiceNumber(ctx context.Context, userID uuid.UUID, year int) (string, error) {
	return nextInvoiceNumber(ctx, r.db, userID, year)
}

func insertLineItems(ctx context.Context, tx pgx.Tx, invoiceID uuid.UUID, items []models.LineItem) error {
	query := `
		INSERT INTO invoice_line_items (id, invoice_id, description, quantity, rate, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].InvoiceID = invoiceID
		if _, err := tx.Exec(ctx, query, items[i].ID, invoiceID, items[i].Description, items[i].Quantity, items[i].Rate, items[i].Amount); err != nil {
			return err
		}
	}
	return nil
}

func (r *invoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if invoice.InvoiceNumber == "" {
		number, err := nextInvoiceNumber(ctx, tx, invoice.UserID, invoice.IssueDate.Year())
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number
	}

	query := `
		INSERT INTO invoices (id, user_id, client_id, invoice_number, status, issue_date, due_date, payment_terms,
			subtotal, tax_rate, tax_amount, discount_type, discount_value, discount_amount, total, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
	`
	_, err = tx.Exec(ctx, query, invoice.ID, invoice.UserID, invoice.ClientID, invoice.InvoiceNumber, invoice.Status,
		invoice.IssueDate, invoice.DueDate, invoice.PaymentTerms, invoice.Subtotal, invoice.TaxRate,
		invoice.TaxAmount, invoice.DiscountType, invoice.DiscountValue, invoice.DiscountAmount, invoice.Total, invoice.Notes)
	if err != nil {
		return err
	}

	if err := insertLineItems(ctx, tx, invoice.ID, invoice.LineItems); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *invoiceRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE user_id = $1 AND id = $2
	`
	invoice, err := scanInvoice(r.db.QueryRow(ctx, query, userID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := r.lineItems(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	invoice.LineItems = items
	return invoice, nil
}

func (r *invoiceRepo) lineItems(ctx context.Context, invoiceID uuid.UUID) ([]models.LineItem, error) {
	query := `
		SELECT id, invoice_id, description, quantity, rate, amount, created_at
		FROM invoice_line_items
		WHERE invoice_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		item := models.LineItem{}
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.Rate, &item.Amount, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *invoiceRepo) List(ctx context.Context, userID uuid.UUID, filter InvoiceFilter) ([]*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE user_id = $1
	`
	args := []any{userID}
	paramCount := 2

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", paramCount)
		args = append(args, filter.Status)
		paramCount++
	}
	if filter.ClientID != nil {
		query += fmt.Sprintf(" AND client_id = $%d", paramCount)
		args = append(args, *filter.ClientID)
		paramCount++
	}
	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND issue_date >= $%d", paramCount)
		args = append(args, *filter.StartDate)
		paramCount++
	}
	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND issue_date <= $%d", paramCount)
		args = append(args, *filter.EndDate)
		paramCount++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", paramCount, paramCount+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		invoice := &models.Invoice{}
		if err := rows.Scan(&invoice.ID, &invoice.UserID, &invoice.ClientID, &invoice.InvoiceNumber, &invoice.Status,
			&invoice.IssueDate, &invoice.DueDate, &invoice.PaymentTerms, &invoice.Subtotal, &invoice.TaxRate,
			&invoice.TaxAmount, &invoice.DiscountType, &invoice.DiscountValue, &invoice.DiscountAmount,
			&invoice.Total, &invoice.Notes, &invoice.CreatedAt, &invoice.UpdatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

func (r *invoiceRepo) Update(ctx context.Context, invoice *models.Invoice, replaceLineItems bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE invoices
		SET client_id = $1, status = $2, issue_date = $3, due_date = $4, payment_terms = $5,
			subtotal = $6, tax_rate = $7, tax_amount = $8, discount_type = $9, discount_value = $10,
			discount_amount = $11, total = $12, notes = $13, updated_at = NOW()
		WHERE user_id = $14 AND id = $15
	`
	_, err = tx.Exec(ctx, query, invoice.ClientID, invoice.Status, invoice.IssueDate, invoice.DueDate,
		invoice.PaymentTerms, invoice.Subtotal, invoice.TaxRate, invoice.TaxAmount, invoice.DiscountType,
		invoice.DiscountValue, invoice.DiscountAmount, invoice.Total, invoice.Notes, invoice.UserID, invoice.ID)
	if err != nil {
		return err
	}

	if replaceLineItems {
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_line_items WHERE invoice_id = $1`, invoice.ID); err != nil {
			return err
		}
		if err := insertLineItems(ctx, tx, invoice.ID, invoice.LineItems); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status string) error {
	query := `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE user_id = $2 AND id = $3
	`
	_, err := r.db.Exec(ctx, query, status, userID, id)
	return err
}

func (r *invoiceRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM invoice_line_items WHERE invoice_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM invoices WHERE user_id = $1 AND id = $2`, userID, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *invoiceRepo) StatusTotals(ctx context.Context, userID uuid.UUID) ([]StatusTotal, error) {
	query := `
		SELECT status, COUNT(*), COALESCE(SUM(total), 0)
		FROM invoices
		WHERE user_id = $1
		GROUP BY status
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []StatusTotal
	for rows.Next() {
		row := StatusTotal{}
		if err := rows.Scan(&row.Status, &row.Count, &row.Amount); err != nil {
			return nil, err
		}
		totals = append(totals, row)
	}
	return totals, rows.Err()
}
