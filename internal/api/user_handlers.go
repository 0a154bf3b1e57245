package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/AtoyanMikhail/auth/internal/account"
	"github.com/AtoyanMikhail/auth/internal/models"
	"github.com/gorilla/mux"
)

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	access, _ := AccessFromContext(r.Context())

	user, err := h.accounts.Get(r.Context(), access.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.NewUserRes(user))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.NewUserRes(user))
}

func (h *Handler) getUserByEmailOrUsername(w http.ResponseWriter, r *http.Request) {
	param := strings.TrimSpace(mux.Vars(r)["param"])
	if param == "" {
		h.writeError(w, r, fmt.Errorf("%w: param: required", ErrValidation))
		return
	}

	user, err := h.accounts.GetByEmailOrUsername(r.Context(), param)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.NewUserRes(user))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.selfID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req models.UpdateUserReq
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.accounts.Update(r.Context(), id, account.UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.NewUserRes(user))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.selfID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.accounts.Deactivate(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.clearSessionCookies(w)
	h.writeJSON(w, http.StatusOK, models.MessageRes{Message: "user deleted"})
}

// selfID returns the path id if it names the authenticated user.
func (h *Handler) selfID(r *http.Request) (int64, error) {
	id, err := pathID(r)
	if err != nil {
		return 0, err
	}
	access, ok := AccessFromContext(r.Context())
	if !ok || access.UserID != id {
		return 0, ErrForbidden
	}
	return id, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id: must be a positive integer", ErrValidation)
	}
	return id, nil
}
