package token

import "errors"

var (
	// ErrInvalid is wrapped by every verification failure. Callers outside this
	// package should only ever match on it.
	ErrInvalid = errors.New("invalid token")

	ErrMalformed        = errors.New("malformed token")
	ErrExpired          = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrConfig is returned by NewCodec for unusable secrets or lifetimes.
	ErrConfig = errors.New("invalid token codec config")
)
