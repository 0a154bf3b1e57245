package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(h.Recover, SecurityHeaders, h.Logging)

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", h.register).Methods(http.MethodPost)
	auth.HandleFunc("/login", h.login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh", h.refresh).Methods(http.MethodPost)

	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(h.Authenticate)
	authProtected.HandleFunc("/logout", h.logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/session", h.currentSession).Methods(http.MethodGet)

	users := api.PathPrefix("/users").Subrouter()
	users.Use(h.Authenticate)
	users.HandleFunc("/me", h.me).Methods(http.MethodGet)
	users.HandleFunc("/by/email-or-username/{param}", h.getUserByEmailOrUsername).Methods(http.MethodGet)
	users.HandleFunc("/{id}", h.getUser).Methods(http.MethodGet)
	users.HandleFunc("/{id}", h.updateUser).Methods(http.MethodPut)
	users.HandleFunc("/{id}", h.deleteUser).Methods(http.MethodDelete)

	return r
}
