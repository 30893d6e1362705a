// File: internal/middleware/agent_middleware.go
package middleware

import (
	"log"
	"net/http"

	"github.com/dukasmart/livechat/internal/repository/agent"
)

// RequireActiveAgent checks that the authenticated agent has been approved by
// an administrator. It MUST be used AFTER the JWT authentication middleware.
func RequireActiveAgent(agentRepo agent.AgentRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agentID, ok := AgentIDFromContext(r.Context())
			if !ok || agentID == 0 {
				log.Printf("[AgentMiddleware] Forbidden: Could not find valid agentID in context for path %s", r.URL.Path)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			a, err := agentRepo.FindByID(r.Context(), agentID)
			if err != nil {
				// The agent may have been deleted after the token was issued.
				log.Printf("[AgentMiddleware] Forbidden: Could not find agent with ID %d from token. Error: %v", agentID, err)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			if !a.IsActive {
				log.Printf("[AgentMiddleware] FORBIDDEN: Unapproved agent '%s' (ID: %d) attempted to access dashboard route: %s", a.Email, a.ID, r.URL.Path)
				http.Error(w, "Forbidden: Your account is pending approval.", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
