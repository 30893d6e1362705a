package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dukasmart/livechat/internal/services/agent_services"
)

type contextKey string

// AgentIDKey is the context key under which the authenticated agent's ID is
// stored.
const AgentIDKey contextKey = "agentID"

// AgentIDFromContext extracts the authenticated agent ID placed there by the
// JWT middleware.
func AgentIDFromContext(ctx context.Context) (uint, bool) {
	agentID, ok := ctx.Value(AgentIDKey).(uint)
	return agentID, ok
}

// NewJWTMiddleware creates middleware to validate the agent JWT from the
// auth cookie or an Authorization bearer header.
func NewJWTMiddleware(authService *agent_services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				cookie, err := r.Cookie("agent_token")
				if err != nil {
					log.Printf("[AuthMiddleware] Missing agent_token cookie: %v", err)
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				token = cookie.Value
			}

			agentID, err := authService.ValidateJWTToken(token)
			if err != nil {
				log.Printf("[AuthMiddleware] Invalid token: %v", err)
				// Clear invalid cookie
				http.SetCookie(w, &http.Cookie{
					Name:     "agent_token",
					Value:    "",
					Path:     "/",
					Expires:  time.Unix(0, 0),
					HttpOnly: true,
					Secure:   true,
					SameSite: http.SameSiteLaxMode,
				})
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AgentIDKey, agentID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
