package message

import (
    "context"

    "github.com/dukasmart/livechat/internal/domain"
)

// MessageRepository handles message data operations. Messages are append-only:
// there is no update or delete path.
type MessageRepository interface {
    Create(ctx context.Context, message *domain.Message) (*domain.Message, error)
    FindByConversationID(ctx context.Context, conversationID uint) ([]domain.Message, error)
    FindByConversationIDAfter(ctx context.Context, conversationID, afterID uint) ([]domain.Message, error)
    FindLastByConversationID(ctx context.Context, conversationID uint) (*domain.Message, error)
    CountByConversationID(ctx context.Context, conversationID uint) (int64, error)
    CountTotal(ctx context.Context) (int64, error)
}
