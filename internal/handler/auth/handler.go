package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/westrik/chatwire/internal/service/accounts"
	"github.com/westrik/chatwire/pkg/utils"
)

// Handler serves the credential surface: login, verify, logout.
type Handler struct {
	accounts *accounts.Service
}

// New creates the auth handler.
func New(accountsSvc *accounts.Service) *Handler {
	return &Handler{accounts: accountsSvc}
}

// RegisterRoutes mounts the auth routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/verify", h.handleVerify)
	r.Post("/auth/logout", h.handleLogout)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.accounts.Authenticate(payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			utils.RespondError(w, http.StatusUnauthorized, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	user, ok := h.accounts.Resolve(BearerToken(r))
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "invalid or expired session")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.accounts.Revoke(BearerToken(r))
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// BearerToken extracts the token from an Authorization header; empty when
// absent or not a bearer scheme.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
