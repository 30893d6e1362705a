// File: internal/repository/conversation/conversation_repository.go
package conversation

import (
    "context"
    "errors"
    "fmt"
    "log"
    "strings"

    "github.com/dukasmart/livechat/internal/domain"
    "gorm.io/gorm"
)

var ErrConversationNotFound = errors.New("conversation not found")
var ErrAlreadyAssigned = errors.New("conversation already assigned")

type gormConversationRepository struct {
    db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
    return &gormConversationRepository{db: db}
}

// Create persists a new conversation after validating the customer input.
func (r *gormConversationRepository) Create(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error) {
    if err := r.validateConversationInput(conv); err != nil {
        log.Printf("[ConversationRepository] Validation failed: %v", err)
        return nil, fmt.Errorf("validation failed: %w", err)
    }

    err := r.db.WithContext(ctx).Create(conv).Error
    if err != nil {
        log.Printf("[ConversationRepository] Database error during conversation creation: %v", err)
        return nil, errors.New("database error creating conversation")
    }

    log.Printf("[ConversationRepository] Conversation created successfully with ID: %d", conv.ID)
    return conv, nil
}

func (r *gormConversationRepository) FindByID(ctx context.Context, id uint) (*domain.Conversation, error) {
    if id == 0 {
        return nil, errors.New("invalid conversation ID")
    }

    var conv domain.Conversation
    err := r.db.WithContext(ctx).First(&conv, id).Error
    return r.handleFindError(err, &conv, "FindByID")
}

// FindByPublicID resolves the guest-facing token to a conversation.
func (r *gormConversationRepository) FindByPublicID(ctx context.Context, publicID string) (*domain.Conversation, error) {
    if strings.TrimSpace(publicID) == "" {
        return nil, errors.New("invalid conversation token")
    }

    var conv domain.Conversation
    err := r.db.WithContext(ctx).Where("public_id = ?", publicID).First(&conv).Error
    return r.handleFindError(err, &conv, "FindByPublicID")
}

// FindByStatus lists conversations in any of the given states, most recently
// active first. This backs the agent dashboard queue.
func (r *gormConversationRepository) FindByStatus(ctx context.Context, statuses ...domain.ConversationStatus) ([]domain.Conversation, error) {
    if len(statuses) == 0 {
        return nil, errors.New("at least one status is required")
    }

    var convs []domain.Conversation
    err := r.db.WithContext(ctx).
        Where("status IN ?", statuses).
        Order("updated_at DESC, id DESC").
        Find(&convs).Error

    if err != nil {
        log.Printf("[ConversationRepository] Database error finding conversations by status: %v", err)
        return nil, errors.New("database error fetching conversations")
    }

    return convs, nil
}

func (r *gormConversationRepository) FindAll(ctx context.Context) ([]domain.Conversation, error) {
    var convs []domain.Conversation
    err := r.db.WithContext(ctx).
        Order("created_at DESC, id DESC").
        Find(&convs).Error

    if err != nil {
        log.Printf("[ConversationRepository] Database error fetching all conversations: %v", err)
        return nil, errors.New("database error fetching conversations")
    }

    return convs, nil
}

// Assign claims a conversation for an agent. The update is conditional on the
// conversation still being unassigned, so the first claim wins and later
// claims get ErrAlreadyAssigned.
func (r *gormConversationRepository) Assign(ctx context.Context, conversationID, agentID uint) error {
    if conversationID == 0 || agentID == 0 {
        return errors.New("invalid conversation ID or agent ID")
    }

    result := r.db.WithContext(ctx).
        Model(&domain.Conversation{}).
        Where("id = ? AND agent_id IS NULL AND status <> ?", conversationID, domain.ConversationClosed).
        Updates(map[string]interface{}{
            "agent_id": agentID,
            "status":   domain.ConversationAssigned,
        })

    if result.Error != nil {
        log.Printf("[ConversationRepository] Database error assigning conversation ID %d to agent %d: %v", conversationID, agentID, result.Error)
        return errors.New("database error assigning conversation")
    }

    if result.RowsAffected == 0 {
        exists, err := r.existsByID(ctx, conversationID)
        if err != nil {
            return err
        }
        if !exists {
            return ErrConversationNotFound
        }
        return ErrAlreadyAssigned
    }

    log.Printf("[ConversationRepository] Conversation %d assigned to agent %d", conversationID, agentID)
    return nil
}

func (r *gormConversationRepository) SetStatus(ctx context.Context, conversationID uint, status domain.ConversationStatus) error {
    if conversationID == 0 {
        return errors.New("invalid conversation ID")
    }

    result := r.db.WithContext(ctx).
        Model(&domain.Conversation{}).
        Where("id = ?", conversationID).
        Update("status", status)

    if result.Error != nil {
        log.Printf("[ConversationRepository] Database error updating status for conversation ID %d: %v", conversationID, result.Error)
        return errors.New("database error updating conversation status")
    }

    if result.RowsAffected == 0 {
        return ErrConversationNotFound
    }

    return nil
}

func (r *gormConversationRepository) TouchUpdatedAt(ctx context.Context, conversationID uint) error {
    if conversationID == 0 {
        return errors.New("invalid conversation ID")
    }

    result := r.db.WithContext(ctx).
        Model(&domain.Conversation{}).
        Where("id = ?", conversationID).
        Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP"))

    if result.Error != nil {
        log.Printf("[ConversationRepository] Database error updating timestamp for conversation ID %d: %v", conversationID, result.Error)
        return errors.New("database error updating conversation timestamp")
    }

    if result.RowsAffected == 0 {
        return ErrConversationNotFound
    }

    return nil
}

func (r *gormConversationRepository) CountByStatus(ctx context.Context, status domain.ConversationStatus) (int64, error) {
    var count int64
    err := r.db.WithContext(ctx).Model(&domain.Conversation{}).Where("status = ?", status).Count(&count).Error
    if err != nil {
        log.Printf("[ConversationRepository] Database error counting conversations with status %s: %v", status, err)
        return 0, errors.New("database error counting conversations")
    }

    return count, nil
}

// ===== SECURITY VALIDATION HELPERS =====

func (r *gormConversationRepository) validateConversationInput(conv *domain.Conversation) error {
    if conv == nil {
        return errors.New("conversation cannot be nil")
    }

    if strings.TrimSpace(conv.PublicID) == "" {
        return errors.New("public ID is required")
    }

    if err := r.validateContactField(conv.CustomerName, 100); err != nil {
        return fmt.Errorf("customer name validation: %w", err)
    }
    if err := r.validateContactField(conv.CustomerEmail, 200); err != nil {
        return fmt.Errorf("customer email validation: %w", err)
    }
    if err := r.validateContactField(conv.CustomerPhone, 30); err != nil {
        return fmt.Errorf("customer phone validation: %w", err)
    }

    return nil
}

// validateContactField keeps guest-supplied contact fields bounded and free
// of script content. Empty values are allowed everywhere (guests may stay
// anonymous).
func (r *gormConversationRepository) validateContactField(value string, maxLen int) error {
    if len(value) > maxLen {
        return fmt.Errorf("value must be %d characters or less", maxLen)
    }

    if strings.Contains(value, "<script") || strings.Contains(value, "javascript:") {
        return errors.New("invalid characters detected")
    }

    return nil
}

func (r *gormConversationRepository) existsByID(ctx context.Context, conversationID uint) (bool, error) {
    var count int64
    err := r.db.WithContext(ctx).Model(&domain.Conversation{}).Where("id = ?", conversationID).Count(&count).Error
    if err != nil {
        log.Printf("[ConversationRepository] Database error checking conversation existence for ID %d: %v", conversationID, err)
        return false, errors.New("database error checking conversation existence")
    }

    return count > 0, nil
}

// ===== ERROR HANDLING HELPERS =====

// handleFindError keeps not-found distinct from technical failures without
// leaking driver details to callers.
func (r *gormConversationRepository) handleFindError(err error, conv *domain.Conversation, operation string) (*domain.Conversation, error) {
    if err == nil {
        return conv, nil
    }

    if errors.Is(err, gorm.ErrRecordNotFound) {
        return nil, ErrConversationNotFound
    }

    log.Printf("[ConversationRepository] %s database error: %v", operation, err)
    return nil, errors.New("database query failed")
}
