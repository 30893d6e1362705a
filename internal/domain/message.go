// File: internal/domain/message.go
package domain

import "time"

// Sender types for chat messages.
const (
    SenderCustomer = "customer"
    SenderAgent    = "agent"
    SenderSystem   = "system"
)

// Message represents a single message within a conversation. Messages are
// append-only and immutable once created; within a conversation they are
// ordered by creation time.
type Message struct {
    ID             uint      `gorm:"primarykey" json:"id"`
    ConversationID uint      `json:"conversation_id" gorm:"not null;index"`
    SenderType     string    `json:"sender_type" gorm:"not null"` // "customer", "agent" or "system"
    SenderName     string    `json:"sender_name"`
    Content        string    `json:"content" gorm:"not null"`
    CreatedAt      time.Time `json:"created_at"`
}

// IsValidSenderType reports whether the given sender type is one this
// service knows how to attribute.
func IsValidSenderType(senderType string) bool {
    switch senderType {
    case SenderCustomer, SenderAgent, SenderSystem:
        return true
    }
    return false
}
