package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/AtoyanMikhail/auth/internal/account"
	"github.com/AtoyanMikhail/auth/internal/logger"
	"github.com/AtoyanMikhail/auth/internal/models"
	"github.com/AtoyanMikhail/auth/internal/password"
	"github.com/AtoyanMikhail/auth/internal/session"
	"github.com/go-playground/validator/v10"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
)

const maxBodyBytes = 1 << 20

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", ErrValidation)
	}
	return h.validateStruct(dst)
}

func (h *Handler) validateStruct(v interface{}) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeError maps err to a status code. Bodies carry a generic message only;
// the full error goes to the log.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "internal server error"

	switch {
	case errors.Is(err, ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, password.ErrPasswordTooLong):
		status, msg = http.StatusBadRequest, password.ErrPasswordTooLong.Error()
	case errors.Is(err, session.ErrInvalidCredential):
		status, msg = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, session.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, account.ErrEmailTaken):
		status, msg = http.StatusConflict, "email already registered"
	case errors.Is(err, account.ErrUsernameTaken):
		status, msg = http.StatusConflict, "username already taken"
	case errors.Is(err, account.ErrConflict):
		status, msg = http.StatusConflict, "user already exists"
	}

	if status == http.StatusInternalServerError {
		h.l.Error("Request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err))
	} else {
		h.l.Debug("Request rejected",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err))
	}

	h.writeJSON(w, status, models.MessageRes{Message: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.l.Warn("Failed to write response", logger.Error(err))
	}
}
