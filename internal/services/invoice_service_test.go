package services

import (
	"context"
	"testing"
	"time"

	"github.com/niel17/invoiceflow/internal/models"
	"github.com/niel17/invoiceflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// Mock repositories and services
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) List(ctx context.Context, userID uuid.UUID, filter repositories.InvoiceFilter) ([]*models.Invoice, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, invoice *models.Invoice, replaceLineItems bool) error {
	args := m.Called(ctx, invoice, replaceLineItems)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status string) error {
	args := m.Called(ctx, userID, id, status)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) NextInvoiceNumber(ctx context.Context, userID uuid.UUID, year int) (string, error) {
	args := m.Called(ctx, userID, year)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceRepository) StatusTotals(ctx context.Context, userID uuid.UUID) ([]repositories.StatusTotal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]repositories.StatusTotal), args.Error(1)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientRepository) Update(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockClientRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Client, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]*models.Client), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, userID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockCacheService) SetInvoice(ctx context.Context, userID uuid.UUID, invoice *models.Invoice, ttl time.Duration) error {
	args := m.Called(ctx, userID, invoice, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteInvoice(ctx context.Context, userID, invoiceID uuid.UUID) error {
	args := m.Called(ctx, userID, invoiceID)
	return args.Error(0)
}

func (m *MockCacheService) GetClient(ctx context.Context, userID, clientID uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, userID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockCacheService) SetClient(ctx context.Context, userID uuid.UUID, client *models.Client, ttl time.Duration) error {
	args := m.Called(ctx, userID, client, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteClient(ctx context.Context, userID, clientID uuid.UUID) error {
	args := m.Called(ctx, userID, clientID)
	return args.Error(0)
}

func (m *MockCacheService) GetDashboardStats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardStats), args.Error(1)
}

func (m *MockCacheService) SetDashboardStats(ctx context.Context, userID uuid.UUID, stats *models.DashboardStats, ttl time.Duration) error {
	args := m.Called(ctx, userID, stats, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteDashboardStats(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateUserCache(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// InvoiceServiceTestSuite defines the test suite
type InvoiceServiceTestSuite struct {
	suite.Suite
	mockInvoiceRepo *MockInvoiceRepository
	mockClientRepo  *MockClientRepository
	mockCache       *MockCacheService
	service         InvoiceService
	userID          uuid.UUID
	clientID        uuid.UUID
}

func (suite *InvoiceServiceTestSuite) SetupTest() {
	suite.mockInvoiceRepo = &MockInvoiceRepository{}
	suite.mockClientRepo = &MockClientRepository{}
	suite.mockCache = &MockCacheService{}
	suite.service = NewInvoiceService(suite.mockInvoiceRepo, suite.mockClientRepo, suite.mockCache)
	suite.userID = uuid.New()
	suite.clientID = uuid.New()
}

func (suite *InvoiceServiceTestSuite) TearDownTest() {
	suite.mockInvoiceRepo.AssertExpectations(suite.T())
	suite.mockClientRepo.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
}

func TestInvoiceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceServiceTestSuite))
}

func (suite *InvoiceServiceTestSuite) client() *models.Client {
	return &models.Client{ID: suite.clientID, UserID: suite.userID, Name: "Acme Corp"}
}

func (suite *InvoiceServiceTestSuite) expectInvalidation() {
	suite.mockCache.On("DeleteInvoice", mock.Anything, suite.userID, mock.Anything).Return(nil).Once()
	suite.mockCache.On("DeleteDashboardStats", mock.Anything, suite.userID).Return(nil).Once()
}

func (suite *InvoiceServiceTestSuite) createParams() CreateInvoiceParams {
	return CreateInvoiceParams{
		ClientID:  suite.clientID,
		IssueDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		TaxRate:   decimal.NewFromFloat(8.5),
		LineItems: []LineItemParams{
			{Description: "Consulting", Quantity: decimal.NewFromInt(10), Rate: decimal.NewFromInt(100)},
		},
	}
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_Success() {
	suite.mockClientRepo.On("GetByID", mock.Anything, suite.userID, suite.clientID).Return(suite.client(), nil).Once()
	suite.mockInvoiceRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Invoice")).Return(nil).Once()
	suite.expectInvalidation()

	invoice, err := suite.service.CreateInvoice(context.Background(), suite.userID, suite.createParams())

	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), invoice)
	assert.Equal(suite.T(), models.StatusDraft, invoice.Status)
	assert.Equal(suite.T(), suite.userID, invoice.UserID)
	assert.NotEqual(suite.T(), uuid.Nil, invoice.ID)
	assert.True(suite.T(), invoice.Subtotal.Equal(decimal.NewFromInt(1000)))
	assert.True(suite.T(), invoice.DiscountAmount.IsZero())
	assert.True(suite.T(), invoice.TaxAmount.Equal(decimal.NewFromInt(85)))
	assert.True(suite.T(), invoice.Total.Equal(decimal.NewFromInt(1085)))
	assert.Len(suite.T(), invoice.LineItems, 1)
	assert.True(suite.T(), invoice.LineItems[0].Amount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(suite.T(), suite.client().Name, invoice.Client.Name)
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_PercentageDiscount() {
	discountType := "percentage"
	discountValue := decimal.NewFromInt(10)
	params := suite.createParams()
	params.DiscountType = &discountType
	params.DiscountValue = &discountValue

	suite.mockClientRepo.On("GetByID", mock.Anything, suite.userID, suite.clientID).Return(suite.client(), nil).Once()
	suite.mockInvoiceRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Invoice")).Return(nil).Once()
	suite.expectInvalidation()

	invoice, err := suite.service.CreateInvoice(context.Background(), suite.userID, params)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), invoice.DiscountAmount.Equal(decimal.NewFromInt(100)))
	assert.True(suite.T(), invoice.TaxAmount.Equal(decimal.NewFromFloat(76.5)))
	assert.True(suite.T(), invoice.Total.Equal(decimal.NewFromFloat(976.5)))
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_ClientMissingPersistsNothing() {
	suite.mockClientRepo.On("GetByID", mock.Anything, suite.userID, suite.clientID).Return(nil, nil).Once()

	invoice, err := suite.service.CreateInvoice(context.Background(), suite.userID, suite.createParams())

	assert.ErrorIs(suite.T(), err, ErrClientNotFound)
	assert.Nil(suite.T(), invoice)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestCreateInvoice_NoLineItems() {
	params := suite.createParams()
	params.LineItems = nil

	invoice, err := suite.service.CreateInvoice(context.Background(), suite.userID, params)

	assert.ErrorIs(suite.T(), err, ErrLineItemsRequired)
	assert.Nil(suite.T(), invoice)
	suite.mockClientRepo.AssertNotCalled(suite.T(), "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) storedInvoice() *models.Invoice {
	invoiceID := uuid.New()
	return &models.Invoice{
		ID:             invoiceID,
		UserID:         suite.userID,
		ClientID:       suite.clientID,
		InvoiceNumber:  "INV-2025-0001",
		Status:         models.StatusSent,
		IssueDate:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:        time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Subtotal:       decimal.NewFromInt(1000),
		TaxRate:        decimal.NewFromInt(10),
		TaxAmount:      decimal.NewFromInt(100),
		DiscountAmount: decimal.Zero,
		Total:          decimal.NewFromInt(1100),
		LineItems: []models.LineItem{
			{
				ID:          uuid.New(),
				InvoiceID:   invoiceID,
				Description: "Consulting",
				Quantity:    decimal.NewFromInt(10),
				Rate:        decimal.NewFromInt(100),
				Amount:      decimal.NewFromInt(1000),
			},
		},
	}
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoice_TaxRateOnlyRecomputesFromStoredItems() {
	stored := suite.storedInvoice()
	newRate := decimal.NewFromInt(20)

	suite.mockInvoiceRepo.On("GetByID", mock.Anything, suite.userID, stored.ID).Return(stored, nil).Once()
	suite.mockInvoiceRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Invoice"), false).Return(nil).Once()
	suite.mockClientRepo.On("GetByID", mock.Anything, suite.userID, suite.clientID).Return(suite.client(), nil).Once()
	suite.expectInvalidation()

	invoice, err := suite.service.UpdateInvoice(context.Background(), suite.userID, stored.ID, UpdateInvoiceParams{
		TaxRate: &newRate,
	})

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), invoice.TaxRate.Equal(newRate))
	assert.True(suite.T(), invoice.Subtotal.Equal(decimal.NewFromInt(1000)))
	assert.True(suite.T(), invoice.TaxAmount.Equal(decimal.NewFromInt(200)))
	assert.True(suite.T(), invoice.Total.Equal(decimal.NewFromInt(1200)))
	assert.Len(suite.T(), invoice.LineItems, 1)
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoice_NonFinancialFieldsKeepTotals() {
	stored := suite.storedInvoice()
	notes := "Payment due on receipt"

	suite.mockInvoiceRepo.On("GetByID", mock.Anything, suite.userID, stored.ID).Return(stored, nil).Once()
	suite.mockInvoiceRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Invoice"), false).Return(nil).Once()
	suite.mockClientRepo.On("GetByID", mock.Anything, suite.userID, suite.clientID).Return(suite.client(), nil).Once()
	suite.expectInvalidation()

	invoice, err := suite.service.UpdateInvoice(context.Background(), suite.userID, stored.ID, UpdateInvoiceParams{
		Notes: &notes,
	})

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), notes, *invoice.Notes)
	assert.True(suite.T(), invoice.Subtotal.Equal(decimal.NewFromInt(1000)))
	assert.True(suite.T(), invoice.TaxAmount.Equal(decimal.NewFromInt(100)))
	assert.True(suite.T(), invoice.Total.Equal(decimal.NewFromInt(1100)))
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoice_LineItemReplacementRecomputes() {
	stored := suite.storedInvoice()

	suite.mockInvoiceRepo.On("GetByID", mock.Anything, suite.userID, stored.ID).Return(stored, nil).Once()
	suite.mockInvoiceRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Invoice"), true).Return(nil).Once()
	suite.mockClientRepo.On("GetByID", mock.Anything, suite.userID, suite.clientID).Return(suite.client(), nil).Once()
	suite.expectInvalidation()

	invoice, err := suite.service.UpdateInvoice(context.Background(), suite.userID, stored.ID, UpdateInvoiceParams{
		LineItems: []LineItemParams{
			{Description: "Design", Quantity: decimal.NewFromInt(5), Rate: decimal.NewFromInt(200)},
			{Description: "Hosting", Quantity: decimal.NewFromInt(1), Rate: decimal.NewFromInt(500)},
		},
	})

	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), invoice.LineItems, 2)
	assert.True(suite.T(), invoice.Subtotal.Equal(decimal.NewFromInt(1500)))
	assert.True(suite.T(), invoice.TaxAmount.Equal(decimal.NewFromInt(150)))
	assert.True(suite.T(), invoice.Total.Equal(decimal.NewFromInt(1650)))
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoice_DiscountChangeRecomputes() {
	stored := suite.storedInvoice()
	discountType := "fixed"
	discountValue := decimal.NewFromInt(200)

	suite.mockInvoiceRepo.On("GetByID", mock.Anything, suite.userID, stored.ID).Return(stored, nil).Once()
	suite.mockInvoiceRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.Invoice"), false).Return(nil).Once()
	suite.mockClientRepo.On("GetByID", mock.Anything, suite.userID, suite.clientID).Return(suite.client(), nil).Once()
	suite.expectInvalidation()

	invoice, err := suite.service.UpdateInvoice(context.Background(), suite.userID, stored.ID, UpdateInvoiceParams{
		DiscountType:  &discountType,
		DiscountValue: &discountValue,
	})

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), invoice.DiscountAmount.Equal(decimal.NewFromInt(200)))
	assert.True(suite.T(), invoice.TaxAmount.Equal(decimal.NewFromInt(80)))
	assert.True(suite.T(), invoice.Total.Equal(decimal.NewFromInt(880)))
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoice_MissingInvoiceReturnsNil() {
	invoiceID := uuid.New()
	suite.mockInvoiceRepo.On("GetByID", mock.Anything, suite.userID, invoiceID).Return(nil, nil).Once()

	notes := "ignored"
	invoice, err := suite.service.UpdateInvoice(context.Background(), suite.userID, invoiceID, UpdateInvoiceParams{Notes: &notes})

	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), invoice)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "Update", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoiceStatus_Success() {
	stored := suite.storedInvoice()

	suite.mockInvoiceRepo.On("GetByID", mock.Anything, suite.userID, stored.ID).Return(stored, nil).Once()
	suite.mockInvoiceRepo.On("UpdateStatus", mock.Anything, suite.userID, stored.ID, models.StatusPaid).Return(nil).Once()
	suite.expectInvalidation()

	invoice, err := suite.service.UpdateInvoiceStatus(context.Background(), suite.userID, stored.ID, models.StatusPaid)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.StatusPaid, invoice.Status)
}

func (suite *InvoiceServiceTestSuite) TestUpdateInvoiceStatus_MissingInvoice() {
	invoiceID := uuid.New()
	suite.mockInvoiceRepo.On("GetByID", mock.Anything, suite.userID, invoiceID).Return(nil, nil).Once()

	invoice, err := suite.service.UpdateInvoiceStatus(context.Background(), suite.userID, invoiceID, models.StatusPaid)

	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), invoice)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestDeleteInvoice_Success() {
	stored := suite.storedInvoice()

	suite.mockInvoiceRepo.On("GetByID", mock.Anything, suite.userID, stored.ID).Return(stored, nil).Once()
	suite.mockInvoiceRepo.On("Delete", mock.Anything, suite.userID, stored.ID).Return(nil).Once()
	suite.expectInvalidation()

	deleted, err := suite.service.DeleteInvoice(context.Background(), suite.userID, stored.ID)

	assert.NoError(suite.T(), err)
	assert.True(suite.T(), deleted)
}

func (suite *InvoiceServiceTestSuite) TestDeleteInvoice_Missing() {
	invoiceID := uuid.New()
	suite.mockInvoiceRepo.On("GetByID", mock.Anything, suite.userID, invoiceID).Return(nil, nil).Once()

	deleted, err := suite.service.DeleteInvoice(context.Background(), suite.userID, invoiceID)

	assert.NoError(suite.T(), err)
	assert.False(suite.T(), deleted)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestGetInvoiceByID_CacheHit() {
	stored := suite.storedInvoice()

	suite.mockCache.On("GetInvoice", mock.Anything, suite.userID, stored.ID).Return(stored, nil).Once()

	invoice, err := suite.service.GetInvoiceByID(context.Background(), suite.userID, stored.ID)

	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), stored.InvoiceNumber, invoice.InvoiceNumber)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *InvoiceServiceTestSuite) TestGetInvoiceByID_CacheMissLoadsAndCaches() {
	stored := suite.storedInvoice()

	suite.mockCache.On("GetInvoice", mock.Anything, suite.userID, stored.ID).Return(nil, nil).Once()
	suite.mockInvoiceRepo.On("GetByID", mock.Anything, suite.userID, stored.ID).Return(stored, nil).Once()
	suite.mockClientRepo.On("GetByID", mock.Anything, suite.userID, suite.clientID).Return(suite.client(), nil).Once()
	suite.mockCache.On("SetInvoice", mock.Anything, suite.userID, stored, invoiceCacheTTL).Return(nil).Once()

	invoice, err := suite.service.GetInvoiceByID(context.Background(), suite.userID, stored.ID)

	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), invoice.Client)
}
