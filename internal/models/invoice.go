package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice lifecycle statuses. Overdue is never stored; it is derived from the
// due date at read time via EffectiveStatus.
const (
	StatusDraft  = "draft"
	StatusSent   = "sent"
	StatusViewed = "viewed"
	StatusPaid   = "paid"

	StatusOverdue = "overdue"
)

type Invoice struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	ClientID       uuid.UUID       `json:"client_id" db:"client_id"`
	InvoiceNumber  string          `json:"invoice_number" db:"invoice_number"`
	Status         string          `json:"status" db:"status"`
	IssueDate      time.Time       `json:"issue_date" db:"issue_date"`
	DueDate        time.Time       `json:"due_date" db:"due_date"`
	PaymentTerms   string          `json:"payment_terms" db:"payment_terms"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	TaxRate        decimal.Decimal `json:"tax_rate" db:"tax_rate"`
	TaxAmount      decimal.Decimal `json:"tax_amount" db:"tax_amount"`
	DiscountType   *string         `json:"discount_type" db:"discount_type"`
	DiscountValue  *decimal.Decimal `json:"discount_value" db:"discount_value"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	Total          decimal.Decimal `json:"total" db:"total"`
	Notes          *string         `json:"notes" db:"notes"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`

	LineItems []LineItem `json:"line_items" db:"-"`
	Client    *Client    `json:"client,omitempty" db:"-"`
}

type LineItem struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	InvoiceID   uuid.UUID       `json:"invoice_id" db:"invoice_id"`
	Description string          `json:"description" db:"description"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	Rate        decimal.Decimal `json:"rate" db:"rate"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// EffectiveStatus reports the status as shown to callers: an unpaid invoice
// past its due date reads as overdue without the stored status changing.
func (i *Invoice) EffectiveStatus(now time.Time) string {
	if i.Status != StatusPaid && now.After(i.DueDate) {
		return StatusOverdue
	}
	return i.Status
}
