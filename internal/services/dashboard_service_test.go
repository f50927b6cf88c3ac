package services

import (
	"context"
	"testing"

	"github.com/niel17/invoiceflow/internal/models"
	"github.com/niel17/invoiceflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type DashboardServiceTestSuite struct {
	suite.Suite
	mockInvoiceRepo *MockInvoiceRepository
	mockCache       *MockCacheService
	service         DashboardService
	userID          uuid.UUID
}

func (suite *DashboardServiceTestSuite) SetupTest() {
	suite.mockInvoiceRepo = &MockInvoiceRepository{}
	suite.mockCache = &MockCacheService{}
	suite.service = NewDashboardService(suite.mockInvoiceRepo, suite.mockCache)
	suite.userID = uuid.New()
}

func (suite *DashboardServiceTestSuite) TearDownTest() {
	suite.mockInvoiceRepo.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func TestDashboardServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DashboardServiceTestSuite))
}

func (suite *DashboardServiceTestSuite) TestGetStats_CacheHit() {
	cached := &models.DashboardStats{TotalInvoices: 5}
	suite.mockCache.On("GetDashboardStats", mock.Anything, suite.userID).Return(cached, nil).Once()

	stats, err := suite.service.GetStats(context.Background(), suite.userID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 5, stats.TotalInvoices)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "StatusTotals", mock.Anything, mock.Anything)
}

func (suite *DashboardServiceTestSuite) TestGetStats_CacheMissAggregates() {
	totals := []repositories.StatusTotal{
		{Status: models.StatusPaid, Count: 3, Amount: decimal.NewFromInt(3300)},
		{Status: models.StatusSent, Count: 2, Amount: decimal.NewFromInt(2000)},
		{Status: models.StatusDraft, Count: 1, Amount: decimal.NewFromInt(450)},
	}

	suite.mockCache.On("GetDashboardStats", mock.Anything, suite.userID).Return(nil, nil).Once()
	suite.mockInvoiceRepo.On("StatusTotals", mock.Anything, suite.userID).Return(totals, nil).Once()
	suite.mockCache.On("SetDashboardStats", mock.Anything, suite.userID, mock.AnythingOfType("*models.DashboardStats"), dashboardCacheTTL).Return(nil).Once()

	stats, err := suite.service.GetStats(context.Background(), suite.userID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 6, stats.TotalInvoices)
	assert.True(suite.T(), stats.TotalBilled.Equal(decimal.NewFromInt(5750)))
	assert.True(suite.T(), stats.TotalPaid.Equal(decimal.NewFromInt(3300)))
	assert.True(suite.T(), stats.TotalOutstanding.Equal(decimal.NewFromInt(2450)))
	assert.Equal(suite.T(), 3, stats.CountByStatus[models.StatusPaid])
	assert.Equal(suite.T(), 2, stats.CountByStatus[models.StatusSent])
}

func (suite *DashboardServiceTestSuite) TestRefreshStats_EmptyAccount() {
	suite.mockInvoiceRepo.On("StatusTotals", mock.Anything, suite.userID).Return([]repositories.StatusTotal{}, nil).Once()
	suite.mockCache.On("SetDashboardStats", mock.Anything, suite.userID, mock.AnythingOfType("*models.DashboardStats"), dashboardCacheTTL).Return(nil).Once()

	stats, err := suite.service.RefreshStats(context.Background(), suite.userID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, stats.TotalInvoices)
	assert.True(suite.T(), stats.TotalBilled.IsZero())
	assert.Empty(suite.T(), stats.CountByStatus)
}
