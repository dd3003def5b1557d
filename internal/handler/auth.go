package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/billwave/billwave/internal/domain"
	"github.com/billwave/billwave/internal/middleware"
	"github.com/billwave/billwave/internal/service"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	users service.UserService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(users service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, domain.Invalid("auth.register", "Invalid request body"))
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	RespondJSON(w, http.StatusCreated, map[string]any{
		"user": user,
	})
}

// Login handles POST /api/auth/login. A successful login returns the user
// and a bearer token for subsequent requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, domain.Invalid("auth.login", "Invalid request body"))
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Info("user logged in", "user_id", user.ID)

	RespondJSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"token": token,
	})
}

// Logout handles POST /api/auth/logout. The bearer token in the
// Authorization header identifies the session to invalidate.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		ErrorResponse(w, r, domain.Errorf(domain.EUNAUTHORIZED, "auth.logout", "Missing bearer token"))
		return
	}

	if err := h.users.Logout(r.Context(), token); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	slog.Debug("session invalidated")

	RespondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
