package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AtoyanMikhail/auth/internal/logger"
	"github.com/AtoyanMikhail/auth/internal/repository/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	userColumns = `id, first_name, last_name, username, email, password, is_active, created_at`

	uniqueViolation = "23505"
)

type userRepo struct {
	db *sqlx.DB
	l  logger.Logger
}

func NewUserRepository(db *sqlx.DB, l logger.Logger) models.UserRepository {
	return &userRepo{db: db, l: l}
}

// Create inserts user and fills its generated columns. The password must already be hashed.
func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (first_name, last_name, username, email, password)
		VALUES (:first_name, :last_name, :username, :email, :password)
		RETURNING id, is_active, created_at`

	stmt, err := r.db.PrepareNamedContext(ctx, query)
	if err != nil {
		r.l.Error("Failed to prepare query", logger.Error(err))
		return fmt.Errorf("%w: failed to prepare query: %w", ErrPersistence, err)
	}
	defer stmt.Close()

	err = stmt.QueryRowxContext(ctx, user).Scan(&user.ID, &user.IsActive, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
		}
		r.l.Error("Failed to execute insert query", logger.Error(err))
		return fmt.Errorf("%w: failed to insert user: %w", ErrPersistence, err)
	}

	r.l.Info("User created", logger.Int64("id", user.ID), logger.String("username", user.Username))
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND is_active = true`

	return r.getOne(ctx, query, id)
}

func (r *userRepo) GetByEmailOrUsername(ctx context.Context, emailOrUsername string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE (email = $1 OR username = $1) AND is_active = true
		LIMIT 1`

	return r.getOne(ctx, query, emailOrUsername)
}

func (r *userRepo) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	user := &models.User{}
	err := r.db.GetContext(ctx, user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, fmt.Errorf("%w: failed to get user: %w", ErrPersistence, err)
	}
	return user, nil
}

// FindConflicts reports whether email or username are already taken, including by inactive users.
func (r *userRepo) FindConflicts(ctx context.Context, email, username string) (bool, bool, error) {
	query := `
		SELECT
			EXISTS (SELECT 1 FROM users WHERE email = $1) AS email_taken,
			EXISTS (SELECT 1 FROM users WHERE username = $2) AS username_taken`

	var row struct {
		EmailTaken    bool `db:"email_taken"`
		UsernameTaken bool `db:"username_taken"`
	}
	if err := r.db.GetContext(ctx, &row, query, email, username); err != nil {
		return false, false, fmt.Errorf("%w: failed to check user uniqueness: %w", ErrPersistence, err)
	}
	return row.EmailTaken, row.UsernameTaken, nil
}

func (r *userRepo) Update(ctx context.Context, id int64, update models.UserUpdate) error {
	query := `
		UPDATE users
		SET first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			password = COALESCE($4, password)
		WHERE id = $1 AND is_active = true`

	result, err := r.db.ExecContext(ctx, query, id, update.FirstName, update.LastName, update.Password)
	if err != nil {
		r.l.Error("Failed to update user", logger.Error(err), logger.Int64("id", id))
		return fmt.Errorf("%w: failed to update user: %w", ErrPersistence, err)
	}

	return r.expectOneRow(result, id)
}

// Deactivate soft-deletes the user by clearing its active flag.
func (r *userRepo) Deactivate(ctx context.Context, id int64) error {
	query := `
		UPDATE users
		SET is_active = false
		WHERE id = $1 AND is_active = true`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.l.Error("Failed to deactivate user", logger.Error(err), logger.Int64("id", id))
		return fmt.Errorf("%w: failed to deactivate user: %w", ErrPersistence, err)
	}

	if err := r.expectOneRow(result, id); err != nil {
		return err
	}

	r.l.Info("User deactivated", logger.Int64("id", id))
	return nil
}

func (r *userRepo) expectOneRow(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get rows affected: %w", ErrPersistence, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return nil
}
