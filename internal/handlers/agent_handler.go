// File: internal/handlers/agent_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/dukasmart/livechat/internal/domain"
	"github.com/dukasmart/livechat/internal/dtos"
	"github.com/dukasmart/livechat/internal/middleware"
	"github.com/dukasmart/livechat/internal/services/agent_services"
	"github.com/dukasmart/livechat/internal/services/chat"
	"github.com/dukasmart/livechat/internal/services/presence"
	"github.com/dukasmart/livechat/internal/services/typing"
)

// AgentHandler serves the agent dashboard: the conversation queue, replies,
// claims, closing, heartbeats and agent-side typing signals.
type AgentHandler struct {
	AuthService *agent_services.AuthService
	ChatService *chat.Service
	TypingHub   *typing.Hub
	Presence    *presence.Tracker
}

func NewAgentHandler(as *agent_services.AuthService, cs *chat.Service, hub *typing.Hub, tracker *presence.Tracker) *AgentHandler {
	return &AgentHandler{
		AuthService: as,
		ChatService: cs,
		TypingHub:   hub,
		Presence:    tracker,
	}
}

// ListConversations returns the dashboard queue: open and assigned
// conversations, most recently active first, each with a preview of its
// newest message.
func (h *AgentHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.ChatService.OpenConversations(r.Context())
	if err != nil {
		writeError(w, "Could not retrieve conversations", http.StatusInternalServerError)
		return
	}

	out := make([]dtos.ConversationSummary, len(convs))
	for i, c := range convs {
		last, err := h.ChatService.LastMessage(r.Context(), c.ID)
		if err != nil {
			// The queue entry is still useful without its preview.
			log.Printf("[AgentHandler] Could not load preview for conversation %d: %v", c.ID, err)
		}
		out[i] = dtos.FromConversationSummary(c, last)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetConversationMessages returns a conversation's history for the dashboard,
// with the same after_id polling contract as the customer side.
func (h *AgentHandler) GetConversationMessages(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := h.conversationID(w, r)
	if !ok {
		return
	}

	var afterID uint
	if raw := r.URL.Query().Get("after_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, "Invalid after_id", http.StatusBadRequest)
			return
		}
		afterID = uint(parsed)
	}

	messages, err := h.ChatService.MessagesSince(r.Context(), conversationID, afterID)
	if err != nil {
		writeError(w, "Could not retrieve messages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dtos.FromMessageSlice(messages))
}

// Reply appends an agent message with the agent's display name attached.
func (h *AgentHandler) Reply(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.agentFromRequest(w, r)
	if !ok {
		return
	}
	conversationID, ok := h.conversationID(w, r)
	if !ok {
		return
	}

	var req dtos.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.ChatService.SendAgentMessage(r.Context(), conversationID, agent, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			writeError(w, "Message content cannot be empty", http.StatusBadRequest)
		case errors.Is(err, chat.ErrConversationNotFound):
			writeError(w, "Conversation not found", http.StatusNotFound)
		case errors.Is(err, chat.ErrConversationClosed):
			writeError(w, "This conversation has been closed", http.StatusConflict)
		default:
			writeError(w, "Could not send message", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, dtos.FromMessage(*msg))
}

// Claim assigns the conversation to the requesting agent. The first claim
// wins; a lost race comes back as 409.
func (h *AgentHandler) Claim(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.agentFromRequest(w, r)
	if !ok {
		return
	}
	conversationID, ok := h.conversationID(w, r)
	if !ok {
		return
	}

	if err := h.ChatService.AssignAgent(r.Context(), conversationID, agent.ID); err != nil {
		switch {
		case errors.Is(err, chat.ErrAlreadyAssigned):
			writeError(w, "Conversation already claimed by another agent", http.StatusConflict)
		case errors.Is(err, chat.ErrConversationNotFound):
			writeError(w, "Conversation not found", http.StatusNotFound)
		default:
			writeError(w, "Could not claim conversation", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation claimed"})
}

// Close moves the conversation to its terminal state.
func (h *AgentHandler) Close(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.agentFromRequest(w, r)
	if !ok {
		return
	}
	conversationID, ok := h.conversationID(w, r)
	if !ok {
		return
	}

	if err := h.ChatService.CloseConversation(r.Context(), conversationID, agent); err != nil {
		switch {
		case errors.Is(err, chat.ErrConversationNotFound):
			writeError(w, "Conversation not found", http.StatusNotFound)
		case errors.Is(err, chat.ErrConversationClosed):
			writeError(w, "Conversation already closed", http.StatusConflict)
		default:
			writeError(w, "Could not close conversation", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Typing publishes an agent typing signal on the conversation's channel.
func (h *AgentHandler) Typing(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := h.conversationID(w, r)
	if !ok {
		return
	}

	var req dtos.TypingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.TypingHub.Publish(conversationID, typing.Event{
		Sender: domain.SenderAgent,
		Typing: req.Typing,
		At:     time.Now(),
	})

	w.WriteHeader(http.StatusAccepted)
}

// Heartbeat records dashboard activity; presence (online/away/offline) is
// derived from these and never persisted.
func (h *AgentHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	agentID, ok := middleware.AgentIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	h.Presence.Heartbeat(agentID)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": string(h.Presence.StatusOf(agentID)),
	})
}

// Me returns the requesting agent's own profile.
func (h *AgentHandler) Me(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.agentFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dtos.FromAgent(*agent, string(h.Presence.StatusOf(agent.ID))))
}

// UpdateMe changes the requesting agent's display name.
func (h *AgentHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	agentID, ok := middleware.AgentIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req dtos.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	agent, err := h.AuthService.UpdateDisplayName(r.Context(), agentID, req.DisplayName)
	if err != nil {
		if errors.Is(err, agent_services.ErrValidation) {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("[AgentHandler] Could not update agent %d: %v", agentID, err)
		writeError(w, "Could not update profile", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, dtos.FromAgent(*agent, string(h.Presence.StatusOf(agent.ID))))
}

func (h *AgentHandler) agentFromRequest(w http.ResponseWriter, r *http.Request) (*domain.Agent, bool) {
	agentID, ok := middleware.AgentIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	agent, err := h.AuthService.AgentByID(r.Context(), agentID)
	if err != nil {
		log.Printf("[AgentHandler] Could not load agent %d: %v", agentID, err)
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return agent, true
}

func (h *AgentHandler) conversationID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	conversationID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		writeError(w, "Invalid conversation ID", http.StatusBadRequest)
		return 0, false
	}
	return uint(conversationID), true
}
