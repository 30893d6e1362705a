// File: internal/domain/conversation.go
package domain

import "time"

// ConversationStatus tracks the lifecycle of a support session.
type ConversationStatus string

const (
    ConversationOpen     ConversationStatus = "open"
    ConversationAssigned ConversationStatus = "assigned"
    ConversationClosed   ConversationStatus = "closed"
)

// Conversation represents one customer's support session. Customers are
// guests: the PublicID token is the only credential they hold.
type Conversation struct {
    ID            uint               `gorm:"primarykey" json:"id"`
    PublicID      string             `gorm:"uniqueIndex;not null" json:"public_id"`
    CustomerName  string             `json:"customer_name"`
    CustomerEmail string             `json:"customer_email"`
    CustomerPhone string             `json:"customer_phone"`
    AgentID       *uint              `json:"agent_id"`
    Status        ConversationStatus `gorm:"not null;default:open" json:"status"`
    CreatedAt     time.Time          `json:"created_at"`
    UpdatedAt     time.Time          `json:"updated_at"`
}

// IsClosed reports whether the conversation has reached its terminal state.
func (c *Conversation) IsClosed() bool {
    return c.Status == ConversationClosed
}

// IsAssigned reports whether an agent currently owns the conversation.
func (c *Conversation) IsAssigned() bool {
    return c.AgentID != nil
}
