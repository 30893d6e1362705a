// File: internal/handlers/chat_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/dukasmart/livechat/internal/domain"
	"github.com/dukasmart/livechat/internal/dtos"
	"github.com/dukasmart/livechat/internal/services/chat"
	"github.com/dukasmart/livechat/internal/services/presence"
	"github.com/dukasmart/livechat/internal/services/typing"
)

// ChatHandler serves the public (guest) side of the live chat: starting a
// conversation, sending and polling messages, typing signals, and the
// availability check the widget uses for its copy text.
type ChatHandler struct {
	ChatService *chat.Service
	TypingHub   *typing.Hub
	Presence    *presence.Tracker
}

func NewChatHandler(cs *chat.Service, hub *typing.Hub, tracker *presence.Tracker) *ChatHandler {
	return &ChatHandler{
		ChatService: cs,
		TypingHub:   hub,
		Presence:    tracker,
	}
}

// StartConversation opens a new support session for a (possibly anonymous)
// visitor and returns the token the widget uses for all further calls.
func (h *ChatHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	var req dtos.StartConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	conv, err := h.ChatService.StartConversation(r.Context(), chat.ContactInfo{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		writeError(w, "Could not start conversation", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, dtos.FromConversation(*conv))
}

// SendMessage appends a customer message to the conversation behind the
// token.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversationFromToken(w, r)
	if !ok {
		return
	}

	var req dtos.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.ChatService.SendCustomerMessage(r.Context(), conv.ID, conv.CustomerName, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			writeError(w, "Message content cannot be empty", http.StatusBadRequest)
		case errors.Is(err, chat.ErrConversationClosed):
			writeError(w, "This conversation has been closed", http.StatusConflict)
		default:
			writeError(w, "Could not send message", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, dtos.FromMessage(*msg))
}

// GetMessages is the poll endpoint: it returns messages newer than after_id
// (or the full history when after_id is absent) in creation order.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversationFromToken(w, r)
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

	messages, err := h.ChatService.MessagesSince(r.Context(), conv.ID, afterID)
	if err != nil {
		writeError(w, "Could not retrieve messages", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversation": dtos.FromConversation(*conv),
		"messages":     dtos.FromMessageSlice(messages),
	})
}

// Typing publishes a customer typing signal on the conversation's broadcast
// channel. Nothing is persisted and failures never surface to the visitor.
func (h *ChatHandler) Typing(w http.ResponseWriter, r *http.Request) {
	conv, ok := h.conversationFromToken(w, r)
	if !ok {
		return
	}

	var req dtos.TypingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.TypingHub.Publish(conv.ID, typing.Event{
		Sender: domain.SenderCustomer,
		Typing: req.Typing,
		At:     time.Now(),
	})

	w.WriteHeader(http.StatusAccepted)
}

// Availability reports whether anyone is around to answer. Used purely to
// adjust widget copy ("We typically reply in a few minutes" vs "Leave a
// message"), never to gate starting a chat.
func (h *ChatHandler) Availability(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dtos.AvailabilityResponse{
		AgentAvailable: h.Presence.IsAgentAvailable(),
		AnyAgentOnline: h.Presence.IsAnyAgentOnline(),
	})
}

func (h *ChatHandler) conversationFromToken(w http.ResponseWriter, r *http.Request) (*domain.Conversation, bool) {
	token := mux.Vars(r)["token"]
	conv, err := h.ChatService.ConversationByPublicID(r.Context(), token)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			writeError(w, "Conversation not found", http.StatusNotFound)
		} else {
			writeError(w, "Could not load conversation", http.StatusInternalServerError)
		}
		return nil, false
	}
	return conv, true
}

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError is a helper for sending JSON error responses.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
