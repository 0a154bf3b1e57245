// Package token signs and verifies the two credential kinds issued by the
// service: short-lived access tokens and long-lived refresh tokens. Each kind
// is an HS512 JWT signed with its own secret.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

var signingMethod = jwt.SigningMethodHS512

// Config holds the secrets and lifetimes. AccessSecret and RefreshSecret must differ.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// AccessPayload is the identity carried by an access token.
type AccessPayload struct {
	UserID    int64
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RefreshPayload is the content of a refresh token. TokenID points at the
// persisted credential record.
type RefreshPayload struct {
	UserID    int64
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type accessClaims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Type   string `json:"typ"`
}

type refreshClaims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"userId"`
	Type   string `json:"typ"`
}

// Codec is safe for concurrent use.
type Codec struct {
	cfg Config
	now func() time.Time
}

type Option func(*Codec)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, fmt.Errorf("%w: secrets must not be empty", ErrConfig)
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", ErrConfig)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("%w: token lifetimes must be positive", ErrConfig)
	}

	c := &Codec{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.cfg.AccessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.cfg.RefreshTTL }

// SignAccess issues an access token valid for AccessTTL from now.
func (c *Codec) SignAccess(userID int64, email string) (string, time.Time, error) {
	now := c.now()
	exp := now.Add(c.cfg.AccessTTL)

	t := jwt.NewWithClaims(signingMethod, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: userID,
		Email:  email,
		Type:   typeAccess,
	})

	signed, err := t.SignedString(c.cfg.AccessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// SignRefresh issues a refresh token bound to tokenID that expires at expiresAt.
func (c *Codec) SignRefresh(userID int64, tokenID string, expiresAt time.Time) (string, error) {
	t := jwt.NewWithClaims(signingMethod, refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(c.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
		Type:   typeRefresh,
	})

	signed, err := t.SignedString(c.cfg.RefreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

func (c *Codec) VerifyAccess(tokenString string) (*AccessPayload, error) {
	claims := &accessClaims{}
	if err := c.parse(tokenString, claims, c.cfg.AccessSecret); err != nil {
		return nil, err
	}
	if claims.Type != typeAccess || claims.UserID == 0 {
		return nil, fmt.Errorf("%w: %w: not an access token", ErrInvalid, ErrMalformed)
	}

	return &AccessPayload{
		UserID:    claims.UserID,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (c *Codec) VerifyRefresh(tokenString string) (*RefreshPayload, error) {
	claims := &refreshClaims{}
	if err := c.parse(tokenString, claims, c.cfg.RefreshSecret); err != nil {
		return nil, err
	}
	if claims.Type != typeRefresh || claims.UserID == 0 || claims.ID == "" {
		return nil, fmt.Errorf("%w: %w: not a refresh token", ErrInvalid, ErrMalformed)
	}

	return &RefreshPayload{
		UserID:    claims.UserID,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (c *Codec) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrInvalid, ErrExpired)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrInvalid, ErrInvalidSignature)
	default:
		return fmt.Errorf("%w: %w: %v", ErrInvalid, ErrMalformed, err)
	}
}
