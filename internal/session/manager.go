// Package session issues, verifies, rotates and revokes credential pairs.
//
// An access token is a stateless signed token and cannot be revoked before it
// expires. A refresh token is a signed token whose embedded token identifier
// points at a persisted record; the record is the authority on whether the
// refresh token is still usable. Refresh tokens are single use: Rotate consumes
// the record atomically before issuing a replacement pair.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AtoyanMikhail/auth/internal/cache"
	"github.com/AtoyanMikhail/auth/internal/logger"
	"github.com/AtoyanMikhail/auth/internal/repository"
	"github.com/AtoyanMikhail/auth/internal/repository/models"
	"github.com/AtoyanMikhail/auth/internal/token"
	"github.com/google/uuid"
)

// Config is the explicit configuration of a Manager.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Pair is an issued credential pair.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Subject identifies the user a pair is issued to.
type Subject struct {
	UserID int64
	Email  string
}

// UserLookup resolves a user id to an active subject.
// Implementations return ErrNotFound for missing or inactive users.
type UserLookup interface {
	Subject(ctx context.Context, userID int64) (Subject, error)
}

type Manager struct {
	store      models.CredentialRepository
	codec      *token.Codec
	revoked    cache.RevocationCache
	l          logger.Logger
	now        func() time.Time
	newTokenID func() string
}

type Option func(*Manager)

// WithRevocationCache enables the Redis fast path for revoked token ids.
func WithRevocationCache(c cache.RevocationCache) Option {
	return func(m *Manager) { m.revoked = c }
}

// WithClock replaces time.Now for issuing, verifying and consuming.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithTokenIDGenerator replaces the random UUID generator.
func WithTokenIDGenerator(gen func() string) Option {
	return func(m *Manager) { m.newTokenID = gen }
}

func NewManager(cfg Config, store models.CredentialRepository, l logger.Logger, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:      store,
		l:          l,
		now:        time.Now,
		newTokenID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}

	codec, err := token.NewCodec(token.Config{
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}, token.WithClock(m.now))
	if err != nil {
		return nil, err
	}
	m.codec = codec

	return m, nil
}

func (m *Manager) AccessTTL() time.Duration  { return m.codec.AccessTTL() }
func (m *Manager) RefreshTTL() time.Duration { return m.codec.RefreshTTL() }

// Issue signs a new access token and persists and signs a new refresh token.
// Nothing is returned unless the refresh record was stored.
func (m *Manager) Issue(ctx context.Context, subject Subject) (*Pair, error) {
	access, accessExp, err := m.codec.SignAccess(subject.UserID, subject.Email)
	if err != nil {
		return nil, err
	}

	record := &models.RefreshCredential{
		UserID:    subject.UserID,
		TokenID:   m.newTokenID(),
		ExpiresAt: m.now().Add(m.codec.RefreshTTL()),
	}
	if err := m.store.Create(ctx, record); err != nil {
		m.l.Error("Failed to persist refresh credential",
			logger.Int64("user_id", subject.UserID),
			logger.Error(err))
		return nil, fmt.Errorf("issue session: %w", err)
	}

	refresh, err := m.codec.SignRefresh(subject.UserID, record.TokenID, record.ExpiresAt)
	if err != nil {
		return nil, err
	}

	m.l.Info("Session issued",
		logger.Int64("user_id", subject.UserID),
		logger.String("token_id", record.TokenID))

	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: record.ExpiresAt,
	}, nil
}

// VerifyAccess checks an access token's signature and expiry only.
func (m *Manager) VerifyAccess(accessToken string) (*token.AccessPayload, error) {
	payload, err := m.codec.VerifyAccess(accessToken)
	if err != nil {
		m.l.Debug("Access token rejected", logger.Error(err))
		return nil, ErrInvalidCredential
	}
	return payload, nil
}

// VerifyRefresh checks the refresh token's signature and then the persisted
// record named by its embedded token id. Store failures are returned as
// ErrPersistence, every other rejection as ErrInvalidCredential.
func (m *Manager) VerifyRefresh(ctx context.Context, refreshToken string) (*token.RefreshPayload, error) {
	payload, err := m.codec.VerifyRefresh(refreshToken)
	if err != nil {
		m.l.Debug("Refresh token rejected", logger.Error(err))
		return nil, ErrInvalidCredential
	}

	if m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(ctx, payload.TokenID)
		if err != nil {
			m.l.Warn("Revocation cache unavailable, falling back to store", logger.Error(err))
		} else if revoked {
			m.l.Info("Revoked refresh token presented", logger.String("token_id", payload.TokenID))
			return nil, ErrInvalidCredential
		}
	}

	record, err := m.store.GetByTokenID(ctx, payload.TokenID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			m.l.Warn("Refresh token has no record", logger.String("token_id", payload.TokenID))
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("verify refresh token: %w", err)
	}

	if record.UserID != payload.UserID {
		m.l.Warn("Refresh token owner mismatch",
			logger.String("token_id", payload.TokenID),
			logger.Int64("token_user_id", payload.UserID),
			logger.Int64("record_user_id", record.UserID))
		return nil, ErrInvalidCredential
	}
	if !record.Usable(m.now()) {
		m.l.Info("Refresh token no longer usable",
			logger.String("token_id", payload.TokenID),
			logger.Bool("revoked", record.IsRevoked))
		return nil, ErrInvalidCredential
	}

	return payload, nil
}

// Rotate exchanges a refresh token for a new pair. The presented token is
// consumed atomically, so of two concurrent rotations of the same token at
// most one succeeds.
func (m *Manager) Rotate(ctx context.Context, refreshToken string, users UserLookup) (*Pair, error) {
	payload, err := m.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	subject, err := users.Subject(ctx, payload.UserID)
	if err != nil {
		return nil, err
	}

	if _, err := m.store.Consume(ctx, payload.TokenID, m.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			m.l.Warn("Refresh token consumed concurrently", logger.String("token_id", payload.TokenID))
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("rotate session: %w", err)
	}
	m.cacheRevocation(ctx, payload.TokenID, payload.ExpiresAt)

	pair, err := m.Issue(ctx, subject)
	if err != nil {
		return nil, err
	}

	m.l.Info("Session rotated",
		logger.Int64("user_id", subject.UserID),
		logger.String("previous_token_id", payload.TokenID))

	return pair, nil
}

// Logout revokes the refresh token if it is still valid. A missing or invalid
// token is a successful no-op, so logging out twice never fails.
func (m *Manager) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	payload, err := m.VerifyRefresh(ctx, refreshToken)
	if errors.Is(err, ErrInvalidCredential) {
		return nil
	}
	if err != nil {
		return err
	}

	return m.revoke(ctx, payload.TokenID, payload.ExpiresAt)
}

// Revoke marks tokenID revoked. Unknown ids fail with ErrPersistence;
// revoking an already revoked id succeeds.
func (m *Manager) Revoke(ctx context.Context, tokenID string) error {
	return m.revoke(ctx, tokenID, m.now().Add(m.codec.RefreshTTL()))
}

func (m *Manager) revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if err := m.store.Revoke(ctx, tokenID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	m.cacheRevocation(ctx, tokenID, expiresAt)
	return nil
}

// RevokeAll revokes every outstanding refresh token of userID.
func (m *Manager) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	n, err := m.store.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke all sessions: %w", err)
	}
	return n, nil
}

// CurrentSession returns the most recently issued refresh record of userID.
func (m *Manager) CurrentSession(ctx context.Context, userID int64) (*models.RefreshCredential, error) {
	record, err := m.store.GetLatestForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("current session: %w", err)
	}
	return record, nil
}

// PurgeExpired deletes refresh records that expired before now.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := m.store.CleanExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return n, nil
}

func (m *Manager) cacheRevocation(ctx context.Context, tokenID string, expiresAt time.Time) {
	if m.revoked == nil {
		return
	}
	if err := m.revoked.MarkRevoked(ctx, tokenID, expiresAt.Sub(m.now())); err != nil {
		m.l.Warn("Failed to cache revocation", logger.String("token_id", tokenID), logger.Error(err))
	}
}
