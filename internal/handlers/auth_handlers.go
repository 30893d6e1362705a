// File: internal/handlers/auth_handlers.go
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dukasmart/livechat/internal/dtos"
	"github.com/dukasmart/livechat/internal/services/agent_services"
)

const sessionCookieName = "agent_token"

// AuthHandler serves agent registration, login and logout.
type AuthHandler struct {
	authService *agent_services.AuthService
	isProd      bool
}

func NewAuthHandler(authService *agent_services.AuthService, isProd bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		isProd:      isProd,
	}
}

// Register creates a new agent account. The account stays inactive until an
// administrator approves it, so no session is issued here.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	agent, err := h.authService.Register(r.Context(), req.DisplayName, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, agent_services.ErrValidation):
			writeError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, agent_services.ErrEmailExists):
			writeError(w, "An agent with this email already exists", http.StatusConflict)
		default:
			log.Printf("[AuthHandler] Registration failed: %v", err)
			writeError(w, "Registration failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Registration successful. Your account is pending approval.",
		"agent":   dtos.FromAgent(*agent, ""),
	})
}

// Login authenticates an agent and issues the session cookie. The token also
// comes back in the body for API clients that prefer a Bearer header.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dtos.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	agent, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, agent_services.ErrInvalidCredentials) {
			writeError(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		log.Printf("[AuthHandler] Login failed: %v", err)
		writeError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(7 * 24 * time.Hour),
		HttpOnly: true,
		Secure:   h.isProd,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, dtos.LoginResponse{
		Token: token,
		Agent: dtos.FromAgent(*agent, ""),
	})
}

// Logout clears the session cookie. The JWT itself stays valid until expiry;
// there is no server-side revocation list.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.isProd,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
