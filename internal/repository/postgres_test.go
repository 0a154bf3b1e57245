package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/AtoyanMikhail/auth/internal/logger"
	"github.com/AtoyanMikhail/auth/internal/repository/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var credentialRowColumns = []string{"id", "user_id", "token_id", "expires_at", "is_revoked", "created_at"}

// Test repo initialization helper
func SetupCredentialRepo(t *testing.T) (*credentialRepo, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := &credentialRepo{
		db: sqlx.NewDb(db, "postgres"),
		l:  logger.NewNop(),
	}

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

// Test credential initialization helper
func createTestCredential() *models.RefreshCredential {
	return &models.RefreshCredential{
		UserID:    42,
		TokenID:   "0b7c6f0e-3c1d-4f7e-9a55-0c2b8e1d9f11",
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
		IsRevoked: false,
	}
}

func credentialRows(c *models.RefreshCredential) *sqlmock.Rows {
	return sqlmock.NewRows(credentialRowColumns).
		AddRow(c.ID, c.UserID, c.TokenID, c.ExpiresAt, c.IsRevoked, c.CreatedAt)
}

func TestCredentialRepo_Create(t *testing.T) {
	repo, mock, cleanup := SetupCredentialRepo(t)
	defer cleanup()

	tests := []struct {
		name       string
		credential *models.RefreshCredential
		mockFn     func(sqlmock.Sqlmock, *models.RefreshCredential)
		wantErr    bool
		errMsg     string
	}{
		{
			name:       "successful create",
			credential: createTestCredential(),
			mockFn: func(m sqlmock.Sqlmock, c *models.RefreshCredential) {
				m.ExpectPrepare(`INSERT INTO refresh_tokens`).
					ExpectQuery().
					WithArgs(c.UserID, c.TokenID, c.ExpiresAt, c.IsRevoked).
					WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
			},
			wantErr: false,
		},
		{
			name:       "prepare statement error",
			credential: createTestCredential(),
			mockFn: func(m sqlmock.Sqlmock, c *models.RefreshCredential) {
				m.ExpectPrepare(`INSERT INTO refresh_tokens`).
					WillReturnError(fmt.Errorf("prepare error"))
			},
			wantErr: true,
			errMsg:  "failed to prepare query",
		},
		{
			name:       "zero rows returned",
			credential: createTestCredential(),
			mockFn: func(m sqlmock.Sqlmock, c *models.RefreshCredential) {
				m.ExpectPrepare(`INSERT INTO refresh_tokens`).
					ExpectQuery().
					WithArgs(c.UserID, c.TokenID, c.ExpiresAt, c.IsRevoked).
					WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))
			},
			wantErr: true,
			errMsg:  "was not inserted",
		},
		{
			name:       "query execution error",
			credential: createTestCredential(),
			mockFn: func(m sqlmock.Sqlmock, c *models.RefreshCredential) {
				m.ExpectPrepare(`INSERT INTO refresh_tokens`).
					ExpectQuery().
					WithArgs(c.UserID, c.TokenID, c.ExpiresAt, c.IsRevoked).
					WillReturnError(fmt.Errorf("query error"))
			},
			wantErr: true,
			errMsg:  "query error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockFn(mock, tt.credential)

			err := repo.Create(context.Background(), tt.credential)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPersistence)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, int64(1), tt.credential.ID)
				assert.NotZero(t, tt.credential.CreatedAt)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCredentialRepo_GetLatestForUser(t *testing.T) {
	repo, mock, cleanup := SetupCredentialRepo(t)
	defer cleanup()

	expected := createTestCredential()
	expected.ID = 3
	expected.CreatedAt = time.Now()

	tests := []struct {
		name      string
		mockFn    func(sqlmock.Sqlmock)
		wantErrIs error
	}{
		{
			name: "successful get",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT .+ FROM refresh_tokens WHERE user_id = \$1 ORDER BY id DESC LIMIT 1`).
					WithArgs(expected.UserID).
					WillReturnRows(credentialRows(expected))
			},
		},
		{
			name: "no rows found",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT .+ FROM refresh_tokens WHERE user_id = \$1`).
					WithArgs(expected.UserID).
					WillReturnError(sql.ErrNoRows)
			},
			wantErrIs: ErrNotFound,
		},
		{
			name: "database error",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`SELECT .+ FROM refresh_tokens WHERE user_id = \$1`).
					WithArgs(expected.UserID).
					WillReturnError(fmt.Errorf("database error"))
			},
			wantErrIs: ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockFn(mock)

			result, err := repo.GetLatestForUser(context.Background(), expected.UserID)

			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, expected.ID, result.ID)
				assert.Equal(t, expected.TokenID, result.TokenID)
				assert.Equal(t, expected.UserID, result.UserID)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCredentialRepo_GetByTokenID(t *testing.T) {
	repo, mock, cleanup := SetupCredentialRepo(t)
	defer cleanup()

	expected := createTestCredential()
	expected.ID = 9

	mock.ExpectQuery(`SELECT .+ FROM refresh_tokens WHERE token_id = \$1`).
		WithArgs(expected.TokenID).
		WillReturnRows(credentialRows(expected))

	result, err := repo.GetByTokenID(context.Background(), expected.TokenID)
	require.NoError(t, err)
	assert.Equal(t, expected.ID, result.ID)

	mock.ExpectQuery(`SELECT .+ FROM refresh_tokens WHERE token_id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByTokenID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepo_Consume(t *testing.T) {
	repo, mock, cleanup := SetupCredentialRepo(t)
	defer cleanup()

	now := time.Now()
	expected := createTestCredential()
	expected.ID = 5

	tests := []struct {
		name      string
		mockFn    func(sqlmock.Sqlmock)
		wantErrIs error
	}{
		{
			name: "consumed",
			mockFn: func(m sqlmock.Sqlmock) {
				revoked := *expected
				revoked.IsRevoked = true
				m.ExpectQuery(`UPDATE refresh_tokens SET is_revoked = true WHERE token_id = \$1 AND is_revoked = false AND expires_at > \$2 RETURNING`).
					WithArgs(expected.TokenID, now).
					WillReturnRows(credentialRows(&revoked))
			},
		},
		{
			name: "already consumed or expired",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`UPDATE refresh_tokens SET is_revoked = true`).
					WithArgs(expected.TokenID, now).
					WillReturnError(sql.ErrNoRows)
			},
			wantErrIs: ErrNotFound,
		},
		{
			name: "database error",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`UPDATE refresh_tokens SET is_revoked = true`).
					WithArgs(expected.TokenID, now).
					WillReturnError(fmt.Errorf("connection reset"))
			},
			wantErrIs: ErrPersistence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockFn(mock)

			result, err := repo.Consume(context.Background(), expected.TokenID, now)

			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, expected.ID, result.ID)
				assert.False(t, result.IsRevoked)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCredentialRepo_Revoke(t *testing.T) {
	repo, mock, cleanup := SetupCredentialRepo(t)
	defer cleanup()

	tokenID := "0b7c6f0e-3c1d-4f7e-9a55-0c2b8e1d9f11"

	tests := []struct {
		name       string
		mockFn     func(sqlmock.Sqlmock)
		wantErr    bool
		alsoNotFnd bool
	}{
		{
			name: "successful revoke",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`UPDATE refresh_tokens SET is_revoked = true WHERE token_id = \$1`).
					WithArgs(tokenID).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "token not found",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`UPDATE refresh_tokens SET is_revoked = true WHERE token_id = \$1`).
					WithArgs(tokenID).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr:    true,
			alsoNotFnd: true,
		},
		{
			name: "database error",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`UPDATE refresh_tokens SET is_revoked = true WHERE token_id = \$1`).
					WithArgs(tokenID).
					WillReturnError(fmt.Errorf("database error"))
			},
			wantErr: true,
		},
		{
			name: "rows affected error",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`UPDATE refresh_tokens SET is_revoked = true WHERE token_id = \$1`).
					WithArgs(tokenID).
					WillReturnResult(sqlmock.NewErrorResult(fmt.Errorf("rows affected error")))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockFn(mock)

			err := repo.Revoke(context.Background(), tokenID)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPersistence)
				if tt.alsoNotFnd {
					assert.ErrorIs(t, err, ErrNotFound)
				}
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCredentialRepo_RevokeAllForUser(t *testing.T) {
	repo, mock, cleanup := SetupCredentialRepo(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE refresh_tokens SET is_revoked = true WHERE user_id = \$1 AND is_revoked = false`).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.RevokeAllForUser(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	mock.ExpectExec(`UPDATE refresh_tokens SET is_revoked = true WHERE user_id = \$1`).
		WithArgs(int64(42)).
		WillReturnError(fmt.Errorf("database error"))

	_, err = repo.RevokeAllForUser(context.Background(), 42)
	assert.ErrorIs(t, err, ErrPersistence)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepo_CleanExpired(t *testing.T) {
	repo, mock, cleanup := SetupCredentialRepo(t)
	defer cleanup()

	before := time.Now()

	tests := []struct {
		name    string
		mockFn  func(sqlmock.Sqlmock)
		want    int64
		wantErr bool
	}{
		{
			name: "successful clean",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at < \$1`).
					WithArgs(before).
					WillReturnResult(sqlmock.NewResult(0, 5))
			},
			want: 5,
		},
		{
			name: "no expired tokens",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at < \$1`).
					WithArgs(before).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			want: 0,
		},
		{
			name: "database error",
			mockFn: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at < \$1`).
					WithArgs(before).
					WillReturnError(fmt.Errorf("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockFn(mock)

			result, err := repo.CleanExpired(context.Background(), before)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPersistence)
				assert.Equal(t, int64(0), result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, result)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
