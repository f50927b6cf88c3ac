package services

import (
	"context"
	"time"

	"github.com/niel17/invoiceflow/internal/caching"
	"github.com/niel17/invoiceflow/internal/models"
	"github.com/niel17/invoiceflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dashboardCacheTTL = 15 * time.Minute

type DashboardService interface {
	GetStats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error)
	// RefreshStats recomputes the aggregate and rewrites the cache entry;
	// the background scheduler calls it so dashboard reads stay warm.
	RefreshStats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error)
}

type dashboardService struct {
	invoiceRepo repositories.InvoiceRepository
	cacheSvc    caching.CacheService
}

func NewDashboardService(invoiceRepo repositories.InvoiceRepository, cacheSvc caching.CacheService) DashboardService {
	return &dashboardService{invoiceRepo: invoiceRepo, cacheSvc: cacheSvc}
}

func (s *dashboardService) GetStats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error) {
	if cached, err := s.cacheSvc.GetDashboardStats(ctx, userID); err == nil && cached != nil {
		return cached, nil
	}
	return s.RefreshStats(ctx, userID)
}

func (s *dashboardService) RefreshStats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error) {
	totals, err := s.invoiceRepo.StatusTotals(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{
		TotalBilled:      decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
		CountByStatus:    make(map[string]int),
	}
	for _, row := range totals {
		stats.TotalInvoices += row.Count
		stats.TotalBilled = stats.TotalBilled.Add(row.Amount)
		stats.CountByStatus[row.Status] = row.Count
		if row.Status == models.StatusPaid {
			stats.TotalPaid = stats.TotalPaid.Add(row.Amount)
		} else {
			stats.TotalOutstanding = stats.TotalOutstanding.Add(row.Amount)
		}
	}

	_ = s.cacheSvc.SetDashboardStats(ctx, userID, stats, dashboardCacheTTL)
	return stats, nil
}
