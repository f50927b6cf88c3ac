package services

import (
	"context"
	"errors"
	"time"

	"github.com/niel17/invoiceflow/internal/caching"
	"github.com/niel17/invoiceflow/internal/models"
	"github.com/niel17/invoiceflow/internal/repositories"

	"github.com/google/uuid"
)

const clientCacheTTL = 10 * time.Minute

type CreateClientParams struct {
	Name    string
	Email   *string
	Phone   *string
	Address *string
	City    *string
	State   *string
	Zip     *string
	Country *string
}

// UpdateClientParams is a partial update; nil fields keep the stored value.
type UpdateClientParams struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	City    *string
	State   *string
	Zip     *string
	Country *string
}

type ClientService interface {
	CreateClient(ctx context.Context, userID uuid.UUID, params CreateClientParams) (*models.Client, error)
	GetClientByID(ctx context.Context, userID, clientID uuid.UUID) (*models.Client, error)
	ListClients(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Client, error)
	UpdateClient(ctx context.Context, userID, clientID uuid.UUID, params UpdateClientParams) (*models.Client, error)
	DeleteClient(ctx context.Context, userID, clientID uuid.UUID) (bool, error)
}

type clientService struct {
	clientRepo repositories.ClientRepository
	cacheSvc   caching.CacheService
}

func NewClientService(clientRepo repositories.ClientRepository, cacheSvc caching.CacheService) ClientService {
	return &clientService{clientRepo: clientRepo, cacheSvc: cacheSvc}
}

func (s *clientService) CreateClient(ctx context.Context, userID uuid.UUID, params CreateClientParams) (*models.Client, error) {
	if params.Name == "" {
		return nil, errors.New("client name is required")
	}

	client := &models.Client{
		ID:      uuid.New(),
		UserID:  userID,
		Name:    params.Name,
		Email:   params.Email,
		Phone:   params.Phone,
		Address: params.Address,
		City:    params.City,
		State:   params.State,
		Zip:     params.Zip,
		Country: params.Country,
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) GetClientByID(ctx context.Context, userID, clientID uuid.UUID) (*models.Client, error) {
	if cached, err := s.cacheSvc.GetClient(ctx, userID, clientID); err == nil && cached != nil {
		return cached, nil
	}

	client, err := s.clientRepo.GetByID(ctx, userID, clientID)
	if err != nil || client == nil {
		return client, err
	}

	_ = s.cacheSvc.SetClient(ctx, userID, client, clientCacheTTL)
	return client, nil
}

func (s *clientService) ListClients(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Client, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.clientRepo.List(ctx, userID, limit, offset)
}

func (s *clientService) UpdateClient(ctx context.Context, userID, clientID uuid.UUID, params UpdateClientParams) (*models.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, nil
	}

	if params.Name != nil {
		client.Name = *params.Name
	}
	if params.Email != nil {
		client.Email = params.Email
	}
	if params.Phone != nil {
		client.Phone = params.Phone
	}
	if params.Address != nil {
		client.Address = params.Address
	}
	if params.City != nil {
		client.City = params.City
	}
	if params.State != nil {
		client.State = params.State
	}
	if params.Zip != nil {
		client.Zip = params.Zip
	}
	if params.Country != nil {
		client.Country = params.Country
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, err
	}

	_ = s.cacheSvc.DeleteClient(ctx, userID, clientID)
	return client, nil
}

func (s *clientService) DeleteClient(ctx context.Context, userID, clientID uuid.UUID) (bool, error) {
	client, err := s.clientRepo.GetByID(ctx, userID, clientID)
	if err != nil {
		return false, err
	}
	if client == nil {
		return false, nil
	}

	if err := s.clientRepo.Delete(ctx, userID, clientID); err != nil {
		return false, err
	}

	_ = s.cacheSvc.DeleteClient(ctx, userID, clientID)
	return true, nil
}
