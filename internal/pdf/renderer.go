package pdf

import (
	"bytes"
	"fmt"

	"github.com/niel17/invoiceflow/internal/models"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// Renderer produces a printable PDF for an invoice. Stored amounts keep
// full precision; rounding to two decimals happens only at render time.
type Renderer interface {
	Render(invoice *models.Invoice) ([]byte, error)
}

type renderer struct {
	companyName string
}

func NewRenderer(companyName string) Renderer {
	return &renderer{companyName: companyName}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func (r *renderer) Render(invoice *models.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	marginX := 20.0
	marginY := 20.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)

	pdf.SetXY(marginX, marginY)
	pdf.Cell(0, 10, r.companyName)
	pdf.Ln(15)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Invoice Number: %s", invoice.InvoiceNumber))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Issue Date: %s", invoice.IssueDate.Format("02-Jan-2006")))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Due Date: %s", invoice.DueDate.Format("02-Jan-2006")))
	pdf.Ln(8)
	if invoice.PaymentTerms != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Payment Terms: %s", invoice.PaymentTerms))
		pdf.Ln(8)
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 8, "BILL TO:")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 10)
	if invoice.Client != nil {
		pdf.Cell(0, 6, invoice.Client.Name)
		pdf.Ln(6)
		for _, line := range clientAddressLines(invoice.Client) {
			pdf.Cell(0, 6, line)
			pdf.Ln(6)
		}
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)

	headers := []string{"Description", "Qty", "Rate", "Amount"}
	colWidths := []float64{80, 20, 30, 40}
	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, item := range invoice.LineItems {
		pdf.CellFormat(colWidths[0], 8, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[1], 8, item.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[2], 8, money(item.Rate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[3], 8, money(item.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(5)

	labelWidth := colWidths[0] + colWidths[1] + colWidths[2]
	totalsRow := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(labelWidth, 7, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[3], 7, value, "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	totalsRow("Subtotal:", money(invoice.Subtotal), false)
	if !invoice.DiscountAmount.IsZero() {
		totalsRow("Discount:", "-"+money(invoice.DiscountAmount), false)
	}
	totalsRow(fmt.Sprintf("Tax (%s%%):", invoice.TaxRate.String()), money(invoice.TaxAmount), false)
	totalsRow("Total:", money(invoice.Total), true)

	if invoice.Notes != nil && *invoice.Notes != "" {
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Notes:")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 6, *invoice.Notes, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func clientAddressLines(client *models.Client) []string {
	var lines []string
	if client.Address != nil && *client.Address != "" {
		lines = append(lines, *client.Address)
	}

	var locality []string
	for _, part := range []*string{client.City, client.State, client.Zip} {
		if part != nil && *part != "" {
			locality = append(locality, *part)
		}
	}
	if len(locality) > 0 {
		lines = append(lines, joinParts(locality))
	}
	if client.Country != nil && *client.Country != "" {
		lines = append(lines, *client.Country)
	}
	if client.Email != nil && *client.Email != "" {
		lines = append(lines, *client.Email)
	}
	return lines
}

func joinParts(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}
