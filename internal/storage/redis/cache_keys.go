package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jober/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	CategoriesCacheTTL  = 1 * time.Hour
	RateLimitWindowTTL  = 1 * time.Minute
	TelegramLinkCodeTTL = 15 * time.Minute
)

func SessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func CategoriesKey() string {
	return "categories:all"
}

func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}

func TelegramLinkKey(code string) string {
	return fmt.Sprintf("tglink:%s", code)
}

// Sessions

func (c *Cache) CreateSession(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	err := c.client.Set(ctx, SessionKey(token), userID, ttl).Err()
	if err != nil {
		c.logger.Error("failed to create session",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetSessionUser returns ErrCacheMiss for unknown or expired tokens
func (c *Cache) GetSessionUser(ctx context.Context, token string) (int64, error) {
	return c.getInt(ctx, SessionKey(token))
}

func (c *Cache) TouchSession(ctx context.Context, token string, ttl time.Duration) error {
	err := c.client.Expire(ctx, SessionKey(token), ttl).Err()
	if err != nil {
		c.logger.Warn("failed to extend session", zap.Error(err))
		return fmt.Errorf("touch session: %w", err)
	}

	return nil
}

func (c *Cache) DeleteSession(ctx context.Context, token string) error {
	return c.Delete(ctx, SessionKey(token))
}

// Categories

func (c *Cache) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := c.Get(ctx, CategoriesKey(), &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Cache) SetCategories(ctx context.Context, categories []models.Category) error {
	return c.Set(ctx, CategoriesKey(), categories, CategoriesCacheTTL)
}

// Rate limits

func (c *Cache) IncrementRateLimit(ctx context.Context, client string) (int64, error) {
	return c.IncrementWithExpiry(ctx, RateLimitKey(client), RateLimitWindowTTL)
}

// Telegram link codes

func (c *Cache) SetTelegramLinkCode(ctx context.Context, code string, userID int64) error {
	err := c.client.Set(ctx, TelegramLinkKey(code), userID, TelegramLinkCodeTTL).Err()
	if err != nil {
		c.logger.Error("failed to store telegram link code",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("set telegram link code: %w", err)
	}

	return nil
}

// ConsumeTelegramLinkCode returns the owner of a code and deletes it
func (c *Cache) ConsumeTelegramLinkCode(ctx context.Context, code string) (int64, error) {
	userID, err := c.client.GetDel(ctx, TelegramLinkKey(code)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrCacheMiss
	}
	if err != nil {
		c.logger.Error("failed to consume telegram link code", zap.Error(err))
		return 0, fmt.Errorf("consume telegram link code: %w", err)
	}

	return userID, nil
}
