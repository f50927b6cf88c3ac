package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/niel17/invoiceflow/internal/common"
	"github.com/niel17/invoiceflow/internal/models"
	"github.com/niel17/invoiceflow/internal/pdf"
	"github.com/niel17/invoiceflow/internal/repositories"
	"github.com/niel17/invoiceflow/internal/services"
	"github.com/niel17/invoiceflow/internal/storage"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const pdfURLExpiry = 1 * time.Hour

// InvoiceHandlers handles HTTP requests for invoices
type InvoiceHandlers struct {
	invoiceService services.InvoiceService
	pdfRenderer    pdf.Renderer
	objectStorage  storage.ObjectStorage
	pdfBucket      string
}

func NewInvoiceHandlers(invoiceService services.InvoiceService, pdfRenderer pdf.Renderer, objectStorage storage.ObjectStorage, pdfBucket string) *InvoiceHandlers {
	return &InvoiceHandlers{
		invoiceService: invoiceService,
		pdfRenderer:    pdfRenderer,
		objectStorage:  objectStorage,
		pdfBucket:      pdfBucket,
	}
}

type lineItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
}

type createInvoiceRequest struct {
	ClientID      string            `json:"client_id"`
	IssueDate     string            `json:"issue_date"`
	DueDate       string            `json:"due_date"`
	PaymentTerms  string            `json:"payment_terms"`
	TaxRate       decimal.Decimal   `json:"tax_rate"`
	DiscountType  *string           `json:"discount_type"`
	DiscountValue *decimal.Decimal  `json:"discount_value"`
	Notes         *string           `json:"notes"`
	LineItems     []lineItemRequest `json:"line_items"`
}

type updateInvoiceRequest struct {
	ClientID      *string           `json:"client_id"`
	IssueDate     *string           `json:"issue_date"`
	DueDate       *string           `json:"due_date"`
	PaymentTerms  *string           `json:"payment_terms"`
	TaxRate       *decimal.Decimal  `json:"tax_rate"`
	DiscountType  *string           `json:"discount_type"`
	DiscountValue *decimal.Decimal  `json:"discount_value"`
	Notes         *string           `json:"notes"`
	Status        *string           `json:"status"`
	LineItems     []lineItemRequest `json:"line_items"`
}

var storedStatuses = map[string]bool{
	models.StatusDraft:  true,
	models.StatusSent:   true,
	models.StatusViewed: true,
	models.StatusPaid:   true,
}

func validateLineItems(items []lineItemRequest) error {
	for i, item := range items {
		if item.Description == "" {
			return fmt.Errorf("line item %d: description is required", i+1)
		}
		if !item.Quantity.IsPositive() {
			return fmt.Errorf("line item %d: quantity must be positive", i+1)
		}
		if item.Rate.IsNegative() {
			return fmt.Errorf("line item %d: rate cannot be negative", i+1)
		}
	}
	return nil
}

func validateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("tax_rate must be between 0 and 100")
	}
	return nil
}

func validateDiscount(discountType *string, discountValue *decimal.Decimal) error {
	if discountType != nil {
		if *discountType != "percentage" && *discountType != "fixed" {
			return fmt.Errorf("discount_type must be 'percentage' or 'fixed'")
		}
	}
	if discountValue != nil {
		if discountValue.IsNegative() {
			return fmt.Errorf("discount_value cannot be negative")
		}
		if discountType != nil && *discountType == "percentage" && discountValue.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("percentage discount cannot exceed 100")
		}
	}
	return nil
}

func toLineItemParams(items []lineItemRequest) []services.LineItemParams {
	out := make([]services.LineItemParams, 0, len(items))
	for _, item := range items {
		out = append(out, services.LineItemParams{
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
		})
	}
	return out
}

// withEffectiveStatus rewrites the serialized status so invoices past their
// due date read as overdue without the stored row changing.
func withEffectiveStatus(invoice *models.Invoice) *models.Invoice {
	invoice.Status = invoice.EffectiveStatus(time.Now())
	return invoice
}

// CreateInvoice handles POST /v1/invoices
func (h *InvoiceHandlers) CreateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req createInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	clientID, err := common.ValidateUUID(req.ClientID, "client_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	issueDate, err := common.ParseDate(req.IssueDate, "issue_date")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	dueDate, err := common.ParseDate(req.DueDate, "due_date")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	if len(req.LineItems) == 0 {
		return common.SendValidationError(c, "line_items", "At least one line item is required")
	}
	if err := validateLineItems(req.LineItems); err != nil {
		return common.SendValidationError(c, "line_items", err.Error())
	}
	if err := validateTaxRate(req.TaxRate); err != nil {
		return common.SendValidationError(c, "tax_rate", err.Error())
	}
	if err := validateDiscount(req.DiscountType, req.DiscountValue); err != nil {
		return common.SendValidationError(c, "discount", err.Error())
	}

	invoice, err := h.invoiceService.CreateInvoice(ctx, userID, services.CreateInvoiceParams{
		ClientID:      clientID,
		IssueDate:     issueDate,
		DueDate:       dueDate,
		PaymentTerms:  req.PaymentTerms,
		TaxRate:       req.TaxRate,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		Notes:         req.Notes,
		LineItems:     toLineItemParams(req.LineItems),
	})
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			return common.SendNotFoundError(c, "client")
		}
		if errors.Is(err, services.ErrLineItemsRequired) {
			return common.SendValidationError(c, "line_items", "At least one line item is required")
		}
		return common.SendServerError(c, "Failed to create invoice")
	}

	return c.JSON(http.StatusCreated, withEffectiveStatus(invoice))
}

// GetInvoiceByID handles GET /v1/invoices/:id
func (h *InvoiceHandlers) GetInvoiceByID(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	invoice, err := h.invoiceService.GetInvoiceByID(ctx, userID, invoiceID)
	if err != nil {
		return common.SendServerError(c, "Failed to load invoice")
	}
	if invoice == nil {
		return common.SendNotFoundError(c, "invoice")
	}

	return c.JSON(http.StatusOK, withEffectiveStatus(invoice))
}

// ListInvoices handles GET /v1/invoices
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	filter := repositories.InvoiceFilter{
		Status: c.QueryParam("status"),
	}

	if clientParam := c.QueryParam("client_id"); clientParam != "" {
		clientID, err := common.ValidateUUID(clientParam, "client_id")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		filter.ClientID = &clientID
	}
	if startParam := c.QueryParam("start_date"); startParam != "" {
		start, err := common.ParseDate(startParam, "start_date")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		filter.StartDate = &start
	}
	if endParam := c.QueryParam("end_date"); endParam != "" {
		end, err := common.ParseDate(endParam, "end_date")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		filter.EndDate = &end
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	filter.Limit, filter.Offset = common.ValidatePaginationParams(limit, offset)

	invoices, err := h.invoiceService.ListInvoices(ctx, userID, filter)
	if err != nil {
		return common.SendServerError(c, "Failed to list invoices")
	}

	for _, invoice := range invoices {
		withEffectiveStatus(invoice)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

// UpdateInvoice handles PUT /v1/invoices/:id
func (h *InvoiceHandlers) UpdateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req updateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	params := services.UpdateInvoiceParams{
		PaymentTerms:  req.PaymentTerms,
		TaxRate:       req.TaxRate,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		Notes:         req.Notes,
		Status:        req.Status,
	}

	if req.ClientID != nil {
		clientID, err := common.ValidateUUID(*req.ClientID, "client_id")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		params.ClientID = &clientID
	}
	if req.IssueDate != nil {
		issueDate, err := common.ParseDate(*req.IssueDate, "issue_date")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		params.IssueDate = &issueDate
	}
	if req.DueDate != nil {
		dueDate, err := common.ParseDate(*req.DueDate, "due_date")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		params.DueDate = &dueDate
	}
	if req.TaxRate != nil {
		if err := validateTaxRate(*req.TaxRate); err != nil {
			return common.SendValidationError(c, "tax_rate", err.Error())
		}
	}
	if err := validateDiscount(req.DiscountType, req.DiscountValue); err != nil {
		return common.SendValidationError(c, "discount", err.Error())
	}
	if req.Status != nil && !storedStatuses[*req.Status] {
		return common.SendValidationError(c, "status", "Status must be one of: draft, sent, viewed, paid")
	}
	if req.LineItems != nil {
		if err := validateLineItems(req.LineItems); err != nil {
			return common.SendValidationError(c, "line_items", err.Error())
		}
		params.LineItems = toLineItemParams(req.LineItems)
	}

	invoice, err := h.invoiceService.UpdateInvoice(ctx, userID, invoiceID, params)
	if err != nil {
		return common.SendServerError(c, "Failed to update invoice")
	}
	if invoice == nil {
		return common.SendNotFoundError(c, "invoice")
	}

	return c.JSON(http.StatusOK, withEffectiveStatus(invoice))
}

// UpdateInvoiceStatus handles PUT /v1/invoices/:id/status
func (h *InvoiceHandlers) UpdateInvoiceStatus(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if !storedStatuses[req.Status] {
		return common.SendValidationError(c, "status", "Status must be one of: draft, sent, viewed, paid")
	}

	invoice, err := h.invoiceService.UpdateInvoiceStatus(ctx, userID, invoiceID, req.Status)
	if err != nil {
		return common.SendServerError(c, "Failed to update invoice status")
	}
	if invoice == nil {
		return common.SendNotFoundError(c, "invoice")
	}

	return c.JSON(http.StatusOK, withEffectiveStatus(invoice))
}

// DeleteInvoice handles DELETE /v1/invoices/:id
func (h *InvoiceHandlers) DeleteInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	deleted, err := h.invoiceService.DeleteInvoice(ctx, userID, invoiceID)
	if err != nil {
		return common.SendServerError(c, "Failed to delete invoice")
	}
	if !deleted {
		return common.SendNotFoundError(c, "invoice")
	}

	return c.NoContent(http.StatusNoContent)
}

// ExportInvoicePDF handles POST /v1/invoices/:id/pdf
func (h *InvoiceHandlers) ExportInvoicePDF(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	invoiceID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	invoice, err := h.invoiceService.GetInvoiceByID(ctx, userID, invoiceID)
	if err != nil {
		return common.SendServerError(c, "Failed to load invoice")
	}
	if invoice == nil {
		return common.SendNotFoundError(c, "invoice")
	}

	content, err := h.pdfRenderer.Render(withEffectiveStatus(invoice))
	if err != nil {
		return common.SendServerError(c, "Failed to render PDF")
	}

	objectName := fmt.Sprintf("%s/%s.pdf", userID.String(), invoice.InvoiceNumber)
	if err := h.objectStorage.UploadDocument(ctx, h.pdfBucket, objectName, bytes.NewReader(content), int64(len(content))); err != nil {
		return common.SendServerError(c, "Failed to store PDF")
	}

	url, err := h.objectStorage.GetPresignedURL(ctx, h.pdfBucket, objectName, pdfURLExpiry)
	if err != nil {
		return common.SendServerError(c, "Failed to generate download URL")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"invoice_id": invoice.ID.String(),
		"url":        url,
	})
}
