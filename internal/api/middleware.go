package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/AtoyanMikhail/auth/internal/logger"
	"github.com/AtoyanMikhail/auth/internal/session"
	"github.com/AtoyanMikhail/auth/internal/token"
)

type ctxKey struct{}

// AccessFromContext returns the access token payload stored by Authenticate.
func AccessFromContext(ctx context.Context) (*token.AccessPayload, bool) {
	p, ok := ctx.Value(ctxKey{}).(*token.AccessPayload)
	return p, ok
}

// Authenticate requires a valid access token in the Authorization header or
// the access token cookie.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := credentialFrom(r, AccessCookie)
		if raw == "" {
			h.writeError(w, r, session.ErrInvalidCredential)
			return
		}

		payload, err := h.sessions.VerifyAccess(raw)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, payload)))
	})
}

// credentialFrom prefers a bearer token over the named cookie.
func credentialFrom(r *http.Request, cookieName string) string {
	if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(bearer)
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (h *Handler) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		h.l.Info("HTTP request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("duration", time.Since(start)),
			logger.String("remote_addr", r.RemoteAddr))
	})
}

func (h *Handler) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				h.l.Error("Handler panicked",
					logger.String("path", r.URL.Path),
					logger.Any("panic", rv))
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
