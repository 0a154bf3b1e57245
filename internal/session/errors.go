package session

import (
	"errors"

	"github.com/AtoyanMikhail/auth/internal/repository"
)

var (
	// ErrInvalidCredential covers every rejected credential: bad password,
	// malformed, expired, tampered, revoked or unknown token. The reason is
	// logged, never returned.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrNotFound is returned when an otherwise valid credential names a
	// subject that no longer exists or is inactive.
	ErrNotFound = errors.New("subject not found")

	// ErrPersistence is the store failure sentinel shared with the repository layer.
	ErrPersistence = repository.ErrPersistence
)
