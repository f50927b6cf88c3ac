package models

import "github.com/shopspring/decimal"

// DashboardStats summarizes a user's invoices for the dashboard view.
type DashboardStats struct {
	TotalInvoices    int             `json:"total_invoices"`
	TotalBilled      decimal.Decimal `json:"total_billed"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	CountByStatus    map[string]int  `json:"count_by_status"`
}
