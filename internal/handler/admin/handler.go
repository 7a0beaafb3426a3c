package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authHandler "github.com/westrik/chatwire/internal/handler/auth"
	"github.com/westrik/chatwire/internal/service/accounts"
	"github.com/westrik/chatwire/pkg/utils"
)

// Handler serves the admin user-management surface.
type Handler struct {
	accounts *accounts.Service
}

// New creates the admin handler.
func New(accountsSvc *accounts.Service) *Handler {
	return &Handler{accounts: accountsSvc}
}

// RegisterRoutes mounts the admin routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/admin/users", h.handleListUsers)
	r.Post("/admin/users", h.handleCreateUser)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"users": h.accounts.List()})
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.accounts.Create(payload.Username, payload.Password, accounts.RoleMember)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrUsernameTaken):
			utils.RespondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, accounts.ErrInvalidCredentials):
			utils.RespondError(w, http.StatusBadRequest, "username and password are required")
		default:
			utils.RespondError(w, http.StatusInternalServerError, "create user failed")
		}
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{"user": account})
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	user, ok := h.accounts.Resolve(authHandler.BearerToken(r))
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "invalid or expired session")
		return false
	}
	if user.Role != accounts.RoleAdmin {
		utils.RespondError(w, http.StatusForbidden, "admin role required")
		return false
	}
	return true
}
