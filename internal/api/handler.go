// Package api exposes accounts and sessions over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/AtoyanMikhail/auth/internal/account"
	"github.com/AtoyanMikhail/auth/internal/logger"
	repo "github.com/AtoyanMikhail/auth/internal/repository/models"
	"github.com/AtoyanMikhail/auth/internal/session"
	"github.com/AtoyanMikhail/auth/internal/token"
	"github.com/go-playground/validator/v10"
)

const (
	AccessCookie      = "access_token"
	RefreshCookie     = "refresh_token"
	RefreshCookiePath = "/api/auth"
)

type Accounts interface {
	session.UserLookup
	Register(ctx context.Context, in account.RegisterInput) (*repo.User, error)
	Login(ctx context.Context, identifier, password string) (*repo.User, *session.Pair, error)
	Get(ctx context.Context, id int64) (*repo.User, error)
	GetByEmailOrUsername(ctx context.Context, identifier string) (*repo.User, error)
	Update(ctx context.Context, id int64, in account.UpdateInput) (*repo.User, error)
	Deactivate(ctx context.Context, id int64) error
}

type Sessions interface {
	VerifyAccess(accessToken string) (*token.AccessPayload, error)
	Rotate(ctx context.Context, refreshToken string, users session.UserLookup) (*session.Pair, error)
	Logout(ctx context.Context, refreshToken string) error
	CurrentSession(ctx context.Context, userID int64) (*repo.RefreshCredential, error)
}

type Handler struct {
	accounts      Accounts
	sessions      Sessions
	validate      *validator.Validate
	secureCookies bool
	l             logger.Logger
}

func NewHandler(accounts Accounts, sessions Sessions, secureCookies bool, l logger.Logger) *Handler {
	return &Handler{
		accounts:      accounts,
		sessions:      sessions,
		validate:      newValidator(),
		secureCookies: secureCookies,
		l:             l,
	}
}

func (h *Handler) setSessionCookies(w http.ResponseWriter, p *session.Pair) {
	http.SetCookie(w, h.cookie(AccessCookie, p.AccessToken, "/", p.AccessExpiresAt))
	http.SetCookie(w, h.cookie(RefreshCookie, p.RefreshToken, RefreshCookiePath, p.RefreshExpiresAt))
}

func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	access := h.cookie(AccessCookie, "", "/", time.Unix(0, 0))
	access.MaxAge = -1
	refresh := h.cookie(RefreshCookie, "", RefreshCookiePath, time.Unix(0, 0))
	refresh.MaxAge = -1

	http.SetCookie(w, access)
	http.SetCookie(w, refresh)
}

func (h *Handler) cookie(name, value, path string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}
