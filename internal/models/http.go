package models

import (
	"time"

	repo "github.com/AtoyanMikhail/auth/internal/repository/models"
	"github.com/AtoyanMikhail/auth/internal/session"
)

type RegisterReq struct {
	FirstName string  `json:"first_name" validate:"required,min=3,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Username  string  `json:"username" validate:"required,min=3,max=50"`
	Email     string  `json:"email" validate:"required,email,max=255"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
}

type LoginReq struct {
	// Login is an email address or a username.
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokensReq struct {
	RefreshToken string `json:"refresh_token"`
}

type UpdateUserReq struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=3,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=72"`
}

type TokensRes struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func NewTokensRes(p *session.Pair) TokensRes {
	return TokensRes{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		AccessExpiresAt:  p.AccessExpiresAt,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}

type UserRes struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  *string   `json:"last_name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUserRes(u *repo.User) UserRes {
	return UserRes{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

type LoginRes struct {
	User UserRes `json:"user"`
	TokensRes
}

// SessionRes describes a refresh token record without the token itself.
type SessionRes struct {
	TokenID   string    `json:"token_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
}

func NewSessionRes(c *repo.RefreshCredential) SessionRes {
	return SessionRes{
		TokenID:   c.TokenID,
		IssuedAt:  c.CreatedAt,
		ExpiresAt: c.ExpiresAt,
		Revoked:   c.IsRevoked,
	}
}

type MessageRes struct {
	Message string `json:"message"`
}
