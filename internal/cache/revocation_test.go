package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AtoyanMikhail/auth/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock Cache for testing the revocation cache
type mockCache struct {
	mock.Mock
}

func (m *mockCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *mockCache) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func SetupRevocationCache(t *testing.T) (*revocationCache, *mockCache) {
	mockCacheImpl := &mockCache{}
	return &revocationCache{
		cache:  mockCacheImpl,
		logger: logger.NewNop(),
	}, mockCacheImpl
}

func TestRevocationCache_MarkRevoked(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		tokenID   string
		ttl       time.Duration
		setupMock func(*mockCache)
		wantErr   bool
		errMsg    string
	}{
		{
			name:      "successful mark",
			tokenID:   "token123",
			ttl:       time.Hour,
			setupMock: func(m *mockCache) {
				m.On("Set", ctx, RevokedTokenPrefix+"token123", "revoked", time.Hour).Return(nil)
			},
		},
		{
			name:      "expired token not cached",
			tokenID:   "expired_token",
			ttl:       -time.Hour,
			setupMock: func(m *mockCache) {
				// No cache call should be made for expired token
			},
		},
		{
			name:      "cache error",
			tokenID:   "token456",
			ttl:       time.Hour,
			setupMock: func(m *mockCache) {
				m.On("Set", ctx, RevokedTokenPrefix+"token456", "revoked", time.Hour).Return(fmt.Errorf("cache error"))
			},
			wantErr: true,
			errMsg:  "failed to cache token revocation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, m := SetupRevocationCache(t)
			tt.setupMock(m)

			err := rc.MarkRevoked(ctx, tt.tokenID, tt.ttl)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}

			m.AssertExpectations(t)
		})
	}
}

func TestRevocationCache_IsRevoked(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		setupMock func(*mockCache)
		want      bool
		wantErr   bool
	}{
		{
			name: "revoked",
			setupMock: func(m *mockCache) {
				m.On("Exists", ctx, RevokedTokenPrefix+"token123").Return(true, nil)
			},
			want: true,
		},
		{
			name: "not revoked",
			setupMock: func(m *mockCache) {
				m.On("Exists", ctx, RevokedTokenPrefix+"token123").Return(false, nil)
			},
			want: false,
		},
		{
			name: "cache error",
			setupMock: func(m *mockCache) {
				m.On("Exists", ctx, RevokedTokenPrefix+"token123").Return(false, fmt.Errorf("cache error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, m := SetupRevocationCache(t)
			tt.setupMock(m)

			got, err := rc.IsRevoked(ctx, "token123")

			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			m.AssertExpectations(t)
		})
	}
}

func TestRevocationCache_WithRedis(t *testing.T) {
	store, mr, cleanup := SetupTestRedis(t)
	defer cleanup()

	rc := NewRevocationCache(store, logger.NewNop())
	ctx := context.Background()

	revoked, err := rc.IsRevoked(ctx, "tid")
	assert.NoError(t, err)
	assert.False(t, revoked)

	assert.NoError(t, rc.MarkRevoked(ctx, "tid", time.Hour))

	revoked, err = rc.IsRevoked(ctx, "tid")
	assert.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists(RevokedTokenPrefix+"tid"))
}
