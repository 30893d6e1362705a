// File: internal/repository/message/message_repository.go
package message

import (
    "context"
    "errors"
    "fmt"
    "log"
    "strings"

    "github.com/dukasmart/livechat/internal/domain"
    "gorm.io/gorm"
)

var ErrMessageNotFound = errors.New("message not found")

const maxContentLength = 10000

type gormMessageRepository struct {
    db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
    return &gormMessageRepository{db: db}
}

// Create appends a message to its conversation.
func (r *gormMessageRepository) Create(ctx context.Context, message *domain.Message) (*domain.Message, error) {
    if err := r.validateMessageInput(message); err != nil {
        log.Printf("[MessageRepository] Validation failed: %v", err)
        return nil, fmt.Errorf("validation failed: %w", err)
    }

    err := r.db.WithContext(ctx).Create(message).Error
    if err != nil {
        log.Printf("[MessageRepository] Database error during message creation for conversation ID %d: %v", message.ConversationID, err)
        return nil, errors.New("database error creating message")
    }

    log.Printf("[MessageRepository] Message created successfully with ID: %d for conversation: %d", message.ID, message.ConversationID)
    return message, nil
}

// FindByConversationID returns the full message history in timestamp order.
func (r *gormMessageRepository) FindByConversationID(ctx context.Context, conversationID uint) ([]domain.Message, error) {
    if conversationID == 0 {
        return nil, errors.New("invalid conversation ID")
    }

    var messages []domain.Message
    err := r.db.WithContext(ctx).
        Where("conversation_id = ?", conversationID).
        Order("created_at ASC, id ASC").
        Find(&messages).Error

    if err != nil {
        log.Printf("[MessageRepository] Database error finding messages for conversation ID %d: %v", conversationID, err)
        return nil, errors.New("database error fetching messages")
    }

    return messages, nil
}

// FindByConversationIDAfter returns only messages newer than afterID, in
// timestamp order. This is the poll query: a client passes the highest ID it
// has seen and receives the delta.
func (r *gormMessageRepository) FindByConversationIDAfter(ctx context.Context, conversationID, afterID uint) ([]domain.Message, error) {
    if conversationID == 0 {
        return nil, errors.New("invalid conversation ID")
    }

    var messages []domain.Message
    err := r.db.WithContext(ctx).
        Where("conversation_id = ? AND id > ?", conversationID, afterID).
        Order("created_at ASC, id ASC").
        Find(&messages).Error

    if err != nil {
        log.Printf("[MessageRepository] Database error in poll query for conversation ID %d: %v", conversationID, err)
        return nil, errors.New("database error fetching new messages")
    }

    return messages, nil
}

func (r *gormMessageRepository) FindLastByConversationID(ctx context.Context, conversationID uint) (*domain.Message, error) {
    if conversationID == 0 {
        return nil, errors.New("invalid conversation ID")
    }

    var message domain.Message
    err := r.db.WithContext(ctx).
        Where("conversation_id = ?", conversationID).
        Order("created_at DESC, id DESC").
        First(&message).Error

    if err != nil {
        if errors.Is(err, gorm.ErrRecordNotFound) {
            return nil, ErrMessageNotFound
        }
        log.Printf("[MessageRepository] Database error finding last message for conversation ID %d: %v", conversationID, err)
        return nil, errors.New("database query failed")
    }

    return &message, nil
}

func (r *gormMessageRepository) CountByConversationID(ctx context.Context, conversationID uint) (int64, error) {
    if conversationID == 0 {
        return 0, errors.New("invalid conversation ID")
    }

    var count int64
    err := r.db.WithContext(ctx).Model(&domain.Message{}).Where("conversation_id = ?", conversationID).Count(&count).Error
    if err != nil {
        log.Printf("[MessageRepository] Database error counting messages for conversation ID %d: %v", conversationID, err)
        return 0, errors.New("database error counting messages")
    }

    return count, nil
}

func (r *gormMessageRepository) CountTotal(ctx context.Context) (int64, error) {
    var count int64
    err := r.db.WithContext(ctx).Model(&domain.Message{}).Count(&count).Error
    if err != nil {
        log.Printf("[MessageRepository] Database error counting total messages: %v", err)
        return 0, errors.New("database error counting total messages")
    }

    return count, nil
}

// ===== SECURITY VALIDATION HELPERS =====

func (r *gormMessageRepository) validateMessageInput(message *domain.Message) error {
    if message == nil {
        return errors.New("message cannot be nil")
    }

    if message.ConversationID == 0 {
        return errors.New("conversation ID is required")
    }

    if !domain.IsValidSenderType(message.SenderType) {
        return errors.New("invalid sender type")
    }

    if err := r.validateMessageContent(message.Content); err != nil {
        return fmt.Errorf("content validation: %w", err)
    }

    return nil
}

func (r *gormMessageRepository) validateMessageContent(content string) error {
    if strings.TrimSpace(content) == "" {
        return errors.New("message content cannot be empty")
    }

    if len(content) > maxContentLength {
        return fmt.Errorf("message content too long (max %d characters)", maxContentLength)
    }

    if strings.Contains(content, "<script") || strings.Contains(content, "javascript:") {
        return errors.New("invalid characters detected in message content")
    }

    return nil
}
