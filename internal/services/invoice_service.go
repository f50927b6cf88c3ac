package services

import (
	"context"
	"time"

	"github.com/niel17/invoiceflow/internal/billing"
	"github.com/niel17/invoiceflow/internal/caching"
	"github.com/niel17/invoiceflow/internal/models"
	"github.com/niel17/invoiceflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const invoiceCacheTTL = 5 * time.Minute

// LineItemParams is an incoming line item; the amount is always derived,
// never accepted from the caller.
type LineItemParams struct {
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
}

type CreateInvoiceParams struct {
	ClientID      uuid.UUID
	IssueDate     time.Time
	DueDate       time.Time
	PaymentTerms  string
	TaxRate       decimal.Decimal
	DiscountType  *string
	DiscountValue *decimal.Decimal
	Notes         *string
	LineItems     []LineItemParams
}

// UpdateInvoiceParams carries a partial update; nil fields are left as
// stored. A nil LineItems slice means the stored set is kept, a non-nil
// slice replaces it entirely.
type UpdateInvoiceParams struct {
	ClientID      *uuid.UUID
	IssueDate     *time.Time
	DueDate       *time.Time
	PaymentTerms  *string
	TaxRate       *decimal.Decimal
	DiscountType  *string
	DiscountValue *decimal.Decimal
	Notes         *string
	Status        *string
	LineItems     []LineItemParams
}

type InvoiceService interface {
	CreateInvoice(ctx context.Context, userID uuid.UUID, params CreateInvoiceParams) (*models.Invoice, error)
	GetInvoiceByID(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, userID uuid.UUID, filter repositories.InvoiceFilter) ([]*models.Invoice, error)
	UpdateInvoice(ctx context.Context, userID, invoiceID uuid.UUID, params UpdateInvoiceParams) (*models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, userID, invoiceID uuid.UUID, status string) (*models.Invoice, error)
	DeleteInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (bool, error)
}

type invoiceService struct {
	invoiceRepo repositories.InvoiceRepository
	clientRepo  repositories.ClientRepository
	cacheSvc    caching.CacheService
}

func NewInvoiceService(invoiceRepo repositories.InvoiceRepository, clientRepo repositories.ClientRepository, cacheSvc caching.CacheService) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		cacheSvc:    cacheSvc,
	}
}

// invoiceDraft is the merged financial state a recomputation runs against:
// the incoming values where given, the stored ones otherwise. Materializing
// it keeps the merge step separate from the pure calculation.
type invoiceDraft struct {
	lineItems     []billing.LineItem
	taxRate       decimal.Decimal
	discountType  *string
	discountValue *decimal.Decimal
}

func (d invoiceDraft) discount() *billing.Discount {
	return &billing.Discount{Type: d.discountType, Value: d.discountValue}
}

func toBillingItems(items []LineItemParams) []billing.LineItem {
	out := make([]billing.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, billing.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
		})
	}
	return out
}

func storedBillingItems(items []models.LineItem) []billing.LineItem {
	out := make([]billing.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, billing.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
		})
	}
	return out
}

func mergeDraft(existing *models.Invoice, params UpdateInvoiceParams) invoiceDraft {
	draft := invoiceDraft{
		taxRate:       existing.TaxRate,
		discountType:  existing.DiscountType,
		discountValue: existing.DiscountValue,
	}
	if params.TaxRate != nil {
		draft.taxRate = *params.TaxRate
	}
	if params.DiscountType != nil {
		draft.discountType = params.DiscountType
	}
	if params.DiscountValue != nil {
		draft.discountValue = params.DiscountValue
	}
	if params.LineItems != nil {
		draft.lineItems = toBillingItems(params.LineItems)
	} else {
		draft.lineItems = storedBillingItems(existing.LineItems)
	}
	return draft
}

// financialChange reports whether the update touches anything totals depend
// on. A tax-rate-only update still forces a recomputation against the stored
// line items.
func financialChange(params UpdateInvoiceParams) bool {
	return params.LineItems != nil || params.TaxRate != nil || params.DiscountType != nil || params.DiscountValue != nil
}

func buildLineItems(invoiceID uuid.UUID, items []LineItemParams) []models.LineItem {
	out := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.LineItem{
			ID:          uuid.New(),
			InvoiceID:   invoiceID,
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      billing.LineAmount(item.Quantity, item.Rate),
		})
	}
	return out
}

func (s *invoiceService) CreateInvoice(ctx context.Context, userID uuid.UUID, params CreateInvoiceParams) (*models.Invoice, error) {
	if len(params.LineItems) == 0 {
		return nil, ErrLineItemsRequired
	}

	client, err := s.clientRepo.GetByID(ctx, userID, params.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrClientNotFound
	}

	discount := &billing.Discount{Type: params.DiscountType, Value: params.DiscountValue}
	totals := billing.ComputeTotals(toBillingItems(params.LineItems), params.TaxRate, discount)

	invoiceID := uuid.New()
	invoice := &models.Invoice{
		ID:             invoiceID,
		UserID:         userID,
		ClientID:       params.ClientID,
		Status:         models.StatusDraft,
		IssueDate:      params.IssueDate,
		DueDate:        params.DueDate,
		PaymentTerms:   params.PaymentTerms,
		Subtotal:       totals.Subtotal,
		TaxRate:        params.TaxRate,
		TaxAmount:      totals.TaxAmount,
		DiscountType:   params.DiscountType,
		DiscountValue:  params.DiscountValue,
		DiscountAmount: totals.DiscountAmount,
		Total:          totals.Total,
		Notes:          params.Notes,
		LineItems:      buildLineItems(invoiceID, params.LineItems),
	}

	// Numbering, invoice row, and line items commit or roll back together.
	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	invoice.Client = client
	s.invalidate(ctx, userID, invoice.ID)
	return invoice, nil
}

func (s *invoiceService) GetInvoiceByID(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	if cached, err := s.cacheSvc.GetInvoice(ctx, userID, invoiceID); err == nil && cached != nil {
		return cached, nil
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil || invoice == nil {
		return invoice, err
	}

	client, err := s.clientRepo.GetByID(ctx, userID, invoice.ClientID)
	if err != nil {
		return nil, err
	}
	invoice.Client = client

	if err := s.cacheSvc.SetInvoice(ctx, userID, invoice, invoiceCacheTTL); err != nil {
		// Stale cache is worse than no cache; serving the fresh row is fine.
		_ = s.cacheSvc.DeleteInvoice(ctx, userID, invoiceID)
	}
	return invoice, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, userID uuid.UUID, filter repositories.InvoiceFilter) ([]*models.Invoice, error) {
	return s.invoiceRepo.List(ctx, userID, filter)
}

// UpdateInvoice applies a partial update. Totals are recomputed from the
// merged draft whenever line items, tax rate, or discount change; an update
// touching only non-financial fields leaves the stored totals untouched.
// A missing invoice returns (nil, nil) so the API layer can answer 404.
func (s *invoiceService) UpdateInvoice(ctx context.Context, userID, invoiceID uuid.UUID, params UpdateInvoiceParams) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, nil
	}

	if params.ClientID != nil {
		invoice.ClientID = *params.ClientID
	}
	if params.IssueDate != nil {
		invoice.IssueDate = *params.IssueDate
	}
	if params.DueDate != nil {
		invoice.DueDate = *params.DueDate
	}
	if params.PaymentTerms != nil {
		invoice.PaymentTerms = *params.PaymentTerms
	}
	if params.Notes != nil {
		invoice.Notes = params.Notes
	}
	if params.Status != nil {
		invoice.Status = *params.Status
	}

	replaceItems := params.LineItems != nil
	if financialChange(params) {
		draft := mergeDraft(invoice, params)
		totals := billing.ComputeTotals(draft.lineItems, draft.taxRate, draft.discount())

		invoice.TaxRate = draft.taxRate
		invoice.DiscountType = draft.discountType
		invoice.DiscountValue = draft.discountValue
		invoice.Subtotal = totals.Subtotal
		invoice.DiscountAmount = totals.DiscountAmount
		invoice.TaxAmount = totals.TaxAmount
		invoice.Total = totals.Total
	}
	if replaceItems {
		invoice.LineItems = buildLineItems(invoice.ID, params.LineItems)
	}

	if err := s.invoiceRepo.Update(ctx, invoice, replaceItems); err != nil {
		return nil, err
	}

	client, err := s.clientRepo.GetByID(ctx, userID, invoice.ClientID)
	if err != nil {
		return nil, err
	}
	invoice.Client = client

	s.invalidate(ctx, userID, invoiceID)
	return invoice, nil
}

// UpdateInvoiceStatus writes any of the lifecycle statuses without
// transition checks; ordering is a UI convention, not a core rule.
func (s *invoiceService) UpdateInvoiceStatus(ctx context.Context, userID, invoiceID uuid.UUID, status string) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, nil
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, userID, invoiceID, status); err != nil {
		return nil, err
	}
	invoice.Status = status

	s.invalidate(ctx, userID, invoiceID)
	return invoice, nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (bool, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil {
		return false, err
	}
	if invoice == nil {
		return false, nil
	}

	if err := s.invoiceRepo.Delete(ctx, userID, invoiceID); err != nil {
		return false, err
	}

	s.invalidate(ctx, userID, invoiceID)
	return true, nil
}

func (s *invoiceService) invalidate(ctx context.Context, userID, invoiceID uuid.UUID) {
	if err := s.cacheSvc.DeleteInvoice(ctx, userID, invoiceID); err != nil {
		// Cached entries expire on their own TTL.
		return
	}
	_ = s.cacheSvc.DeleteDashboardStats(ctx, userID)
}
