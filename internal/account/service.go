// Package account implements registration, login and profile management on
// top of the user repository and the session manager.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AtoyanMikhail/auth/internal/logger"
	"github.com/AtoyanMikhail/auth/internal/password"
	"github.com/AtoyanMikhail/auth/internal/repository"
	"github.com/AtoyanMikhail/auth/internal/repository/models"
	"github.com/AtoyanMikhail/auth/internal/session"
)

var (
	ErrConflict      = repository.ErrConflict
	ErrEmailTaken    = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrUsernameTaken = fmt.Errorf("%w: username already taken", ErrConflict)
)

// Sessions is the part of session.Manager the service needs.
type Sessions interface {
	Issue(ctx context.Context, subject session.Subject) (*session.Pair, error)
	RevokeAll(ctx context.Context, userID int64) (int64, error)
}

type RegisterInput struct {
	FirstName string
	LastName  *string
	Username  string
	Email     string
	Password  string
}

type UpdateInput struct {
	FirstName *string
	LastName  *string
	Password  *string
}

type Service struct {
	users    models.UserRepository
	sessions Sessions
	hasher   password.Hasher
	l        logger.Logger

	// dummyHash is verified against when the user does not exist so both
	// login failures cost one hash comparison.
	dummyHash string
}

func NewService(users models.UserRepository, sessions Sessions, hasher password.Hasher, l logger.Logger) *Service {
	dummy, err := hasher.Hash("unknown-user-placeholder")
	if err != nil {
		l.Warn("Failed to prepare placeholder hash", logger.Error(err))
	}
	return &Service{
		users:     users,
		sessions:  sessions,
		hasher:    hasher,
		l:         l,
		dummyHash: dummy,
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	emailTaken, usernameTaken, err := s.users.FindConflicts(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if emailTaken {
		return nil, ErrEmailTaken
	}
	if usernameTaken {
		return nil, ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  in.LastName,
		Username:  username,
		Email:     email,
		Password:  hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.l.Info("User registered", logger.Int64("user_id", user.ID))
	return user, nil
}

// Login authenticates by email or username. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, identifier, plaintext string) (*models.User, *session.Pair, error) {
	user, err := s.users.GetByEmailOrUsername(ctx, normalizeIdentifier(identifier))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.Verify(plaintext, s.dummyHash)
			s.l.Info("Login for unknown user")
			return nil, nil, session.ErrInvalidCredential
		}
		return nil, nil, err
	}

	if !s.hasher.Verify(plaintext, user.Password) {
		s.l.Info("Login with wrong password", logger.Int64("user_id", user.ID))
		return nil, nil, session.ErrInvalidCredential
	}

	pair, err := s.sessions.Issue(ctx, subjectOf(user))
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// RegisterAndLogin registers the user and issues the first session in one step.
func (s *Service) RegisterAndLogin(ctx context.Context, in RegisterInput) (*models.User, *session.Pair, error) {
	user, err := s.Register(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.sessions.Issue(ctx, subjectOf(user))
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

func (s *Service) GetByEmailOrUsername(ctx context.Context, identifier string) (*models.User, error) {
	user, err := s.users.GetByEmailOrUsername(ctx, normalizeIdentifier(identifier))
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

// Update applies the non-nil fields of in. A new password is hashed before storing.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*models.User, error) {
	update := models.UserUpdate{
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		update.Password = &hash
	}

	if !update.Empty() {
		if err := s.users.Update(ctx, id, update); err != nil {
			return nil, notFound(err)
		}
		s.l.Info("User updated", logger.Int64("user_id", id), logger.Bool("password_changed", in.Password != nil))
	}

	return s.Get(ctx, id)
}

// Deactivate soft-deletes the user and revokes all of its refresh tokens.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if err := s.users.Deactivate(ctx, id); err != nil {
		return notFound(err)
	}

	revoked, err := s.sessions.RevokeAll(ctx, id)
	if err != nil {
		return err
	}

	s.l.Info("User deactivated", logger.Int64("user_id", id), logger.Int64("sessions_revoked", revoked))
	return nil
}

// Subject implements session.UserLookup.
func (s *Service) Subject(ctx context.Context, userID int64) (session.Subject, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return session.Subject{}, err
	}
	return subjectOf(user), nil
}

func subjectOf(user *models.User) session.Subject {
	return session.Subject{UserID: user.ID, Email: user.Email}
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %w", session.ErrNotFound, err)
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Emails are stored lowercase, usernames as given.
func normalizeIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return strings.ToLower(identifier)
	}
	return identifier
}
