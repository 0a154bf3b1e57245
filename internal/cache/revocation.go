package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/AtoyanMikhail/auth/internal/logger"
)

// RevokedTokenPrefix namespaces revoked refresh token identifiers.
const RevokedTokenPrefix = "revoked:refresh:"

type revocationCache struct {
	cache  Cache
	logger logger.Logger
}

func NewRevocationCache(cache Cache, l logger.Logger) RevocationCache {
	return &revocationCache{
		cache:  cache,
		logger: l,
	}
}

// MarkRevoked remembers tokenID for ttl.
func (c *revocationCache) MarkRevoked(ctx context.Context, tokenID string, ttl time.Duration) error {
	// An expired token is rejected by its signature check anyway.
	if ttl <= 0 {
		c.logger.Debug("Token already expired, not caching revocation",
			logger.String("token_id", tokenID))
		return nil
	}

	if err := c.cache.Set(ctx, RevokedTokenPrefix+tokenID, "revoked", ttl); err != nil {
		c.logger.Error("Failed to cache token revocation",
			logger.String("token_id", tokenID),
			logger.Error(err))
		return fmt.Errorf("failed to cache token revocation: %w", err)
	}

	c.logger.Debug("Token revocation cached",
		logger.String("token_id", tokenID),
		logger.Duration("ttl", ttl))

	return nil
}

func (c *revocationCache) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	exists, err := c.cache.Exists(ctx, RevokedTokenPrefix+tokenID)
	if err != nil {
		c.logger.Error("Failed to check token revocation",
			logger.String("token_id", tokenID),
			logger.Error(err))
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}

	return exists, nil
}
