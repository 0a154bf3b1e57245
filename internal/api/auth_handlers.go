package api

import (
	"encoding/json"
	"net/http"

	"github.com/AtoyanMikhail/auth/internal/account"
	"github.com/AtoyanMikhail/auth/internal/models"
	"github.com/AtoyanMikhail/auth/internal/session"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterReq
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), account.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, models.NewUserRes(user))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginReq
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, pair, err := h.accounts.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setSessionCookies(w, pair)
	h.writeJSON(w, http.StatusOK, models.LoginRes{
		User:      models.NewUserRes(user),
		TokensRes: models.NewTokensRes(pair),
	})
}

// refresh takes the refresh token as a bearer token or from its cookie.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	raw := credentialFrom(r, RefreshCookie)
	if raw == "" {
		h.writeError(w, r, session.ErrInvalidCredential)
		return
	}

	pair, err := h.sessions.Rotate(r.Context(), raw, h.accounts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setSessionCookies(w, pair)
	h.writeJSON(w, http.StatusOK, models.NewTokensRes(pair))
}

// logout revokes the refresh token from the cookie or the optional body and
// always clears both cookies.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	raw := ""
	if c, err := r.Cookie(RefreshCookie); err == nil {
		raw = c.Value
	}
	if raw == "" && r.ContentLength != 0 {
		var req models.RefreshTokensReq
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err == nil {
			raw = req.RefreshToken
		}
	}

	h.clearSessionCookies(w)

	if err := h.sessions.Logout(r.Context(), raw); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.MessageRes{Message: "logged out"})
}

func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	access, _ := AccessFromContext(r.Context())

	record, err := h.sessions.CurrentSession(r.Context(), access.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.NewSessionRes(record))
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
