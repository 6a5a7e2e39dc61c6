package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// GormResetTokenRepository stores redeemed reset tokens in the database.
type GormResetTokenRepository struct {
	db *gorm.DB
}

// NewResetTokenRepository creates a database-backed ResetTokenRepository
func NewResetTokenRepository(db *gorm.DB) ResetTokenRepository {
	return &GormResetTokenRepository{db: db}
}

// Consume inserts the token ID. The unique index on token_id turns a second
// redemption into gorm.ErrDuplicatedKey.
func (r *GormResetTokenRepository) Consume(ctx context.Context, tokenID string, userID uint64, expiresAt time.Time) (bool, error) {
	db := r.db.WithContext(ctx)

	// Rows past their expiry can never be presented again.
	if err := db.Where("expires_at < ?", time.Now().UTC()).Delete(&models.ConsumedResetToken{}).Error; err != nil {
		return false, fmt.Errorf("purge consumed reset tokens: %w", err)
	}

	err := db.Create(&models.ConsumedResetToken{
		TokenID:   tokenID,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Release deletes the ledger row for tokenID.
func (r *GormResetTokenRepository) Release(ctx context.Context, tokenID string) error {
	err := r.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Delete(&models.ConsumedResetToken{}).Error
	if err != nil {
		return fmt.Errorf("release reset token: %w", err)
	}
	return nil
}

// RedisResetTokenRepository stores redeemed reset tokens in Redis with a TTL
// matching the token's remaining lifetime.
type RedisResetTokenRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisResetTokenRepository creates a Redis-backed ResetTokenRepository
func NewRedisResetTokenRepository(client *redis.Client) ResetTokenRepository {
	return &RedisResetTokenRepository{client: client, prefix: "taskflow:reset-token:"}
}

// Consume sets the key only if absent.
func (r *RedisResetTokenRepository) Consume(ctx context.Context, tokenID string, userID uint64, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt)
	if ttl < time.Second {
		ttl = time.Second
	}

	ok, err := r.client.SetNX(ctx, r.prefix+tokenID, userID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Release deletes the key for tokenID.
func (r *RedisResetTokenRepository) Release(ctx context.Context, tokenID string) error {
	if err := r.client.Del(ctx, r.prefix+tokenID).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
