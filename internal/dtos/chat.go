// File: internal/dtos/chat.go
package dtos

import (
	"time"

	"github.com/dukasmart/livechat/internal/domain"
)

// StartConversationRequest is the widget payload opening a new support
// session. Every field is optional; guests may stay anonymous.
type StartConversationRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// SendMessageRequest is a customer or agent message payload.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// TypingRequest is the ephemeral typing signal payload.
type TypingRequest struct {
	Typing bool `json:"typing"`
}

// ConversationResponse is the public shape of a conversation.
type ConversationResponse struct {
	ID           uint   `json:"id"`
	Token        string `json:"token"`
	CustomerName string `json:"customer_name"`
	AgentID      *uint  `json:"agent_id,omitempty"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// MessageResponse is one message in a conversation's history.
type MessageResponse struct {
	ID             uint   `json:"id"`
	ConversationID uint   `json:"conversation_id"`
	SenderType     string `json:"sender_type"`
	SenderName     string `json:"sender_name"`
	Content        string `json:"content"`
	CreatedAt      string `json:"created_at"`
}

// ConversationSummary is one entry in the agent dashboard queue: the
// conversation plus a preview of its newest message.
type ConversationSummary struct {
	ConversationResponse
	LastMessage *MessageResponse `json:"last_message,omitempty"`
}

// AvailabilityResponse drives the widget's copy text, never gating anything.
type AvailabilityResponse struct {
	AgentAvailable bool `json:"agent_available"`
	AnyAgentOnline bool `json:"any_agent_online"`
}

// AgentResponse is the admin-facing shape of an agent account. The label
// mirrors what the dashboard renders: "Active" or "Pending".
type AgentResponse struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	IsActive    bool   `json:"is_active"`
	IsAdmin     bool   `json:"is_admin"`
	Status      string `json:"status"`
	Presence    string `json:"presence"`
	CreatedAt   string `json:"created_at"`
}

// RegisterRequest is the agent sign-up payload.
type RegisterRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// UpdateProfileRequest changes an agent's own display name.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

// LoginRequest is the agent login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token and the agent's own profile.
type LoginResponse struct {
	Token string        `json:"token"`
	Agent AgentResponse `json:"agent"`
}

// Mapping functions

// FromConversation maps a domain.Conversation to its public response shape.
func FromConversation(c domain.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:           c.ID,
		Token:        c.PublicID,
		CustomerName: c.CustomerName,
		AgentID:      c.AgentID,
		Status:       string(c.Status),
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    c.UpdatedAt.Format(time.RFC3339),
	}
}

// FromMessage maps a domain.Message to its response shape.
func FromMessage(m domain.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderType:     m.SenderType,
		SenderName:     m.SenderName,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
}

// FromConversationSummary maps a conversation and its (possibly nil) newest
// message to a dashboard queue entry.
func FromConversationSummary(c domain.Conversation, last *domain.Message) ConversationSummary {
	out := ConversationSummary{ConversationResponse: FromConversation(c)}
	if last != nil {
		preview := FromMessage(*last)
		out.LastMessage = &preview
	}
	return out
}

// FromMessageSlice maps a slice of messages.
func FromMessageSlice(messages []domain.Message) []MessageResponse {
	out := make([]MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = FromMessage(m)
	}
	return out
}

// FromAgent maps a domain.Agent to its admin response shape. presence may be
// empty when the caller has no presence data for the agent.
func FromAgent(a domain.Agent, presence string) AgentResponse {
	status := "Pending"
	if a.IsActive {
		status = "Active"
	}
	return AgentResponse{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		Email:       a.Email,
		IsActive:    a.IsActive,
		IsAdmin:     a.IsAdmin,
		Status:      status,
		Presence:    presence,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
}
