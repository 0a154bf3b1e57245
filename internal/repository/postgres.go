package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AtoyanMikhail/auth/internal/logger"
	"github.com/AtoyanMikhail/auth/internal/repository/models"
	"github.com/jmoiron/sqlx"
)

const credentialColumns = `id, user_id, token_id, expires_at, is_revoked, created_at`

type credentialRepo struct {
	db *sqlx.DB
	l  logger.Logger
}

func NewCredentialRepository(db *sqlx.DB, l logger.Logger) models.CredentialRepository {
	return &credentialRepo{db: db, l: l}
}

func (r *credentialRepo) Create(ctx context.Context, credential *models.RefreshCredential) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_id, expires_at, is_revoked)
		VALUES (:user_id, :token_id, :expires_at, :is_revoked)
		RETURNING id, created_at`

	stmt, err := r.db.PrepareNamedContext(ctx, query)
	if err != nil {
		r.l.Error("Failed to prepare query", logger.Error(err))
		return fmt.Errorf("%w: failed to prepare query: %w", ErrPersistence, err)
	}
	defer stmt.Close()

	err = stmt.QueryRowxContext(ctx, credential).Scan(&credential.ID, &credential.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		r.l.Error("Refresh credential insert affected no rows", logger.Int64("user_id", credential.UserID))
		return fmt.Errorf("%w: refresh credential was not inserted", ErrPersistence)
	}
	if err != nil {
		r.l.Error("Failed to execute insert query", logger.Error(err))
		return fmt.Errorf("%w: failed to insert refresh credential: %w", ErrPersistence, err)
	}

	r.l.Debug("Refresh credential created", logger.Int64("id", credential.ID), logger.Int64("user_id", credential.UserID))
	return nil
}

func (r *credentialRepo) GetLatestForUser(ctx context.Context, userID int64) (*models.RefreshCredential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM refresh_tokens
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT 1`

	credential := &models.RefreshCredential{}
	err := r.db.GetContext(ctx, credential, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no refresh credential for user %d", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("%w: failed to get refresh credential: %w", ErrPersistence, err)
	}

	return credential, nil
}

func (r *credentialRepo) GetByTokenID(ctx context.Context, tokenID string) (*models.RefreshCredential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM refresh_tokens
		WHERE token_id = $1`

	credential := &models.RefreshCredential{}
	err := r.db.GetContext(ctx, credential, query, tokenID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: refresh credential %s", ErrNotFound, tokenID)
		}
		return nil, fmt.Errorf("%w: failed to get refresh credential: %w", ErrPersistence, err)
	}

	return credential, nil
}

func (r *credentialRepo) Consume(ctx context.Context, tokenID string, now time.Time) (*models.RefreshCredential, error) {
	query := `
		UPDATE refresh_tokens
		SET is_revoked = true
		WHERE token_id = $1 AND is_revoked = false AND expires_at > $2
		RETURNING ` + credentialColumns

	credential := &models.RefreshCredential{}
	err := r.db.GetContext(ctx, credential, query, tokenID, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.l.Warn("Refresh credential not consumable", logger.String("token_id", tokenID))
			return nil, fmt.Errorf("%w: no usable refresh credential %s", ErrNotFound, tokenID)
		}
		r.l.Error("Failed to consume refresh credential", logger.Error(err), logger.String("token_id", tokenID))
		return nil, fmt.Errorf("%w: failed to consume refresh credential: %w", ErrPersistence, err)
	}

	// RETURNING yields the updated row; report it as it was when consumed.
	credential.IsRevoked = false

	r.l.Debug("Refresh credential consumed", logger.String("token_id", tokenID))
	return credential, nil
}

func (r *credentialRepo) Revoke(ctx context.Context, tokenID string) error {
	query := `
		UPDATE refresh_tokens
		SET is_revoked = true
		WHERE token_id = $1`

	result, err := r.db.ExecContext(ctx, query, tokenID)
	if err != nil {
		r.l.Error("Failed to revoke refresh credential", logger.Error(err), logger.String("token_id", tokenID))
		return fmt.Errorf("%w: failed to revoke refresh credential: %w", ErrPersistence, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.l.Error("Failed to get rows affected after revoke", logger.Error(err))
		return fmt.Errorf("%w: failed to get rows affected: %w", ErrPersistence, err)
	}

	if rowsAffected == 0 {
		r.l.Warn("Refresh credential not found for revoke", logger.String("token_id", tokenID))
		return fmt.Errorf("%w: %w: refresh credential %s", ErrPersistence, ErrNotFound, tokenID)
	}

	r.l.Info("Refresh credential revoked", logger.String("token_id", tokenID))
	return nil
}

func (r *credentialRepo) RevokeAllForUser(ctx context.Context, userID int64) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET is_revoked = true
		WHERE user_id = $1 AND is_revoked = false`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to revoke credentials for user %d: %w", ErrPersistence, userID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get rows affected: %w", ErrPersistence, err)
	}

	r.l.Info("Refresh credentials revoked for user", logger.Int64("user_id", userID), logger.Int64("count", rowsAffected))
	return rowsAffected, nil
}

func (r *credentialRepo) CleanExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to clean expired credentials: %w", ErrPersistence, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get rows affected: %w", ErrPersistence, err)
	}

	return rowsAffected, nil
}
