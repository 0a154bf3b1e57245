package cache

import (
	"context"
	"time"
)

// Cache is the key/value subset the service needs from Redis.
type Cache interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
	Ping(ctx context.Context) error
}

// RevocationCache remembers revoked refresh token identifiers until they would
// have expired anyway, so verification can reject them without a database round trip.
// The database stays authoritative; a miss here proves nothing.
type RevocationCache interface {
	MarkRevoked(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
