package models

import (
	"context"
	"time"
)

type CredentialRepository interface {
	Create(ctx context.Context, credential *RefreshCredential) error
	GetLatestForUser(ctx context.Context, userID int64) (*RefreshCredential, error)
	GetByTokenID(ctx context.Context, tokenID string) (*RefreshCredential, error)
	// Consume revokes tokenID only if it is still usable at now and returns the
	// record as it was before revocation.
	Consume(ctx context.Context, tokenID string, now time.Time) (*RefreshCredential, error)
	Revoke(ctx context.Context, tokenID string) error
	RevokeAllForUser(ctx context.Context, userID int64) (int64, error)
	CleanExpired(ctx context.Context, before time.Time) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmailOrUsername(ctx context.Context, emailOrUsername string) (*User, error)
	FindConflicts(ctx context.Context, email, username string) (emailTaken, usernameTaken bool, err error)
	Update(ctx context.Context, id int64, update UserUpdate) error
	Deactivate(ctx context.Context, id int64) error
}
