package conversation

import (
    "context"

    "github.com/dukasmart/livechat/internal/domain"
)

// ConversationRepository handles conversation data operations.
type ConversationRepository interface {
    Create(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error)
    FindByID(ctx context.Context, id uint) (*domain.Conversation, error)
    FindByPublicID(ctx context.Context, publicID string) (*domain.Conversation, error)
    FindByStatus(ctx context.Context, statuses ...domain.ConversationStatus) ([]domain.Conversation, error)
    FindAll(ctx context.Context) ([]domain.Conversation, error)
    Assign(ctx context.Context, conversationID, agentID uint) error
    SetStatus(ctx context.Context, conversationID uint, status domain.ConversationStatus) error
    TouchUpdatedAt(ctx context.Context, conversationID uint) error
    CountByStatus(ctx context.Context, status domain.ConversationStatus) (int64, error)
}
