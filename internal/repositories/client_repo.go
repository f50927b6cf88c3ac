package repositories

import (
	"context"
	"errors"

	"github.com/niel17/invoiceflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Client, error)
}

type clientRepo struct {
	db Database
}

func NewClientRepository(db Database) ClientRepository {
	return &clientRepo{db: db}
}

func (r *clientRepo) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (id, user_id, name, email, phone, address, city, state, zip, country, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, client.ID, client.UserID, client.Name, client.Email, client.Phone, client.Address, client.City, client.State, client.Zip, client.Country)
	return err
}

func (r *clientRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Client, error) {
	client := &models.Client{}
	query := `
		SELECT id, user_id, name, email, phone, address, city, state, zip, country, created_at, updated_at
		FROM clients
		WHERE user_id = $1 AND id = $2
	`
	err := r.db.QueryRow(ctx, query, userID, id).Scan(&client.ID, &client.UserID, &client.Name, &client.Email, &client.Phone, &client.Address, &client.City, &client.State, &client.Zip, &client.Country, &client.CreatedAt, &client.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *clientRepo) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients
		SET name = $1, email = $2, phone = $3, address = $4, city = $5, state = $6, zip = $7, country = $8, updated_at = NOW()
		WHERE user_id = $9 AND id = $10
	`
	_, err := r.db.Exec(ctx, query, client.Name, client.Email, client.Phone, client.Address, client.City, client.State, client.Zip, client.Country, client.UserID, client.ID)
	return err
}

func (r *clientRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query := `DELETE FROM clients WHERE user_id = $1 AND id = $2`
	_, err := r.db.Exec(ctx, query, userID, id)
	return err
}

func (r *clientRepo) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Client, error) {
	query := `
		SELECT id, user_id, name, email, phone, address, city, state, zip, country, created_at, updated_at
		FROM clients
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client := &models.Client{}
		if err := rows.Scan(&client.ID, &client.UserID, &client.Name, &client.Email, &client.Phone, &client.Address, &client.City, &client.State, &client.Zip, &client.Country, &client.CreatedAt, &client.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}
