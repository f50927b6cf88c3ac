package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/niel17/invoiceflow/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Invoice caching
	GetInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error)
	SetInvoice(ctx context.Context, userID uuid.UUID, invoice *models.Invoice, ttl time.Duration) error
	DeleteInvoice(ctx context.Context, userID, invoiceID uuid.UUID) error

	// Client caching
	GetClient(ctx context.Context, userID, clientID uuid.UUID) (*models.Client, error)
	SetClient(ctx context.Context, userID uuid.UUID, client *models.Client, ttl time.Duration) error
	DeleteClient(ctx context.Context, userID, clientID uuid.UUID) error

	// Dashboard caching
	GetDashboardStats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error)
	SetDashboardStats(ctx context.Context, userID uuid.UUID, stats *models.DashboardStats, ttl time.Duration) error
	DeleteDashboardStats(ctx context.Context, userID uuid.UUID) error

	// Cache invalidation
	InvalidateUserCache(ctx context.Context, userID uuid.UUID) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (*models.Invoice, error) {
	key := fmt.Sprintf("invoiceflow:invoice:%s:%s", userID.String(), invoiceID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var invoice models.Invoice
	if err := json.Unmarshal(data, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *redisCacheService) SetInvoice(ctx context.Context, userID uuid.UUID, invoice *models.Invoice, ttl time.Duration) error {
	key := fmt.Sprintf("invoiceflow:invoice:%s:%s", userID.String(), invoice.ID.String())
	data, err := json.Marshal(invoice)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteInvoice(ctx context.Context, userID, invoiceID uuid.UUID) error {
	key := fmt.Sprintf("invoiceflow:invoice:%s:%s", userID.String(), invoiceID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetClient(ctx context.Context, userID, clientID uuid.UUID) (*models.Client, error) {
	key := fmt.Sprintf("invoiceflow:client:%s:%s", userID.String(), clientID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var client models.Client
	if err := json.Unmarshal(data, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *redisCacheService) SetClient(ctx context.Context, userID uuid.UUID, client *models.Client, ttl time.Duration) error {
	key := fmt.Sprintf("invoiceflow:client:%s:%s", userID.String(), client.ID.String())
	data, err := json.Marshal(client)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteClient(ctx context.Context, userID, clientID uuid.UUID) error {
	key := fmt.Sprintf("invoiceflow:client:%s:%s", userID.String(), clientID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetDashboardStats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error) {
	key := fmt.Sprintf("invoiceflow:dashboard:%s", userID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var stats models.DashboardStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *redisCacheService) SetDashboardStats(ctx context.Context, userID uuid.UUID, stats *models.DashboardStats, ttl time.Duration) error {
	key := fmt.Sprintf("invoiceflow:dashboard:%s", userID.String())
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteDashboardStats(ctx context.Context, userID uuid.UUID) error {
	key := fmt.Sprintf("invoiceflow:dashboard:%s", userID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) InvalidateUserCache(ctx context.Context, userID uuid.UUID) error {
	patterns := []string{
		fmt.Sprintf("invoiceflow:invoice:%s:*", userID.String()),
		fmt.Sprintf("invoiceflow:client:%s:*", userID.String()),
		fmt.Sprintf("invoiceflow:dashboard:%s", userID.String()),
	}

	for _, pattern := range patterns {
		keys, err := r.client.Keys(ctx, pattern).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}
