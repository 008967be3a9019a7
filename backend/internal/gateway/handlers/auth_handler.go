// ============================================================================
// backend/internal/gateway/handlers/auth_handler.go
// HTTP handlers for authentication
// ============================================================================

package handlers

import (
	"encoding/json"
	"net/http"

	"schoolhub/backend/internal/auth"
	"schoolhub/backend/internal/gateway/util"
)

// AuthHandler exposes the auth service over REST.
type AuthHandler struct {
	Auth *auth.Service
}

// LoginRequest mirrors the JSON input for POST /auth/login
type LoginRequest struct {
	Identifier string `json:"identifier"` // email, staff number, or student number
	Password   string `json:"password"`
}

// ChangePasswordRequest mirrors the JSON input for POST /auth/change-password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	// 1. Decode body
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// 2. Authenticate
	result, err := h.Auth.Login(r.Context(), req.Identifier, req.Password, r.RemoteAddr)
	if err != nil {
		util.HandleDomainError(w, err)
		return
	}

	// 3. Respond
	util.WriteJSON(w, http.StatusOK, result)
}

// Logout handles POST /auth/logout
// Idempotent: an unknown token still reports success.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := util.ExtractToken(r)
	if err != nil {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
		return
	}

	if err := h.Auth.Logout(r.Context(), token); err != nil {
		util.HandleDomainError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "logout successful"})
}

// Validate handles GET /auth/validate
// Returns the acting identity; the auth middleware already verified the token.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	util.WriteJSON(w, http.StatusOK, actor)
}

// ChangePassword handles POST /auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	// 1. Authenticated actor
	actor, ok := util.ActorFrom(r.Context())
	if !ok {
		util.WriteJSONError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	// 2. Decode body
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// 3. Change password; every session is revoked on success
	if err := h.Auth.ChangePassword(r.Context(), actor.UserID, req.OldPassword, req.NewPassword); err != nil {
		util.HandleDomainError(w, err)
		return
	}

	util.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "password changed, please log in again"})
}
