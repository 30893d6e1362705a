// File: internal/middleware/admin_middleware.go
package middleware

import (
	"log"
	"net/http"

	"github.com/dukasmart/livechat/internal/repository/agent"
)

// RequireAdmin is a middleware that checks if the authenticated agent has
// administrator privileges. It MUST be used AFTER the JWT authentication
// middleware.
func RequireAdmin(agentRepo agent.AgentRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agentID, ok := AgentIDFromContext(r.Context())
			if !ok || agentID == 0 {
				log.Printf("[AdminMiddleware] Forbidden: Could not find valid agentID in context for path %s", r.URL.Path)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			a, err := agentRepo.FindByID(r.Context(), agentID)
			if err != nil {
				log.Printf("[AdminMiddleware] Forbidden: Could not find agent with ID %d from token. Error: %v", agentID, err)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			if !a.IsAdmin {
				log.Printf("[AdminMiddleware] FORBIDDEN: Non-admin agent '%s' (ID: %d) attempted to access admin route: %s", a.Email, a.ID, r.URL.Path)
				http.Error(w, "Forbidden: You do not have permission to access this resource.", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
