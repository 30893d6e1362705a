// File: internal/services/chat/service.go
package chat

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/google/uuid"

    "github.com/dukasmart/livechat/internal/domain"
    "github.com/dukasmart/livechat/internal/repository/conversation"
    "github.com/dukasmart/livechat/internal/repository/message"
)

// Logger matches services.Logger; declared locally so this package has no
// dependency on the services root.
type Logger interface {
    Info(msg string, keysAndValues ...interface{})
    Error(msg string, keysAndValues ...interface{})
    Debug(msg string, keysAndValues ...interface{})
    Warn(msg string, keysAndValues ...interface{})
}

// ContactInfo is the optional customer identity supplied when a chat starts.
// All fields may be empty; guests are allowed.
type ContactInfo struct {
    Name  string
    Email string
    Phone string
}

// Service owns the conversation lifecycle: creation, message append on both
// sides, the poll query, assignment and closing.
type Service struct {
    convRepo conversation.ConversationRepository
    msgRepo  message.MessageRepository
    logger   Logger
}

func NewService(convRepo conversation.ConversationRepository, msgRepo message.MessageRepository, logger Logger) (*Service, error) {
    if convRepo == nil || msgRepo == nil {
        return nil, errors.New("chat service requires conversation and message repositories")
    }
    if logger == nil {
        return nil, errors.New("chat service requires a logger")
    }
    return &Service{convRepo: convRepo, msgRepo: msgRepo, logger: logger}, nil
}

// StartConversation creates a new open conversation for a (possibly
// anonymous) customer. Failures are returned to the caller so the widget can
// retry; no partial state is kept on error.
func (s *Service) StartConversation(ctx context.Context, contact ContactInfo) (*domain.Conversation, error) {
    conv := &domain.Conversation{
        PublicID:      uuid.NewString(),
        CustomerName:  strings.TrimSpace(contact.Name),
        CustomerEmail: strings.TrimSpace(contact.Email),
        CustomerPhone: strings.TrimSpace(contact.Phone),
        Status:        domain.ConversationOpen,
    }

    created, err := s.convRepo.Create(ctx, conv)
    if err != nil {
        s.logger.Error("failed to start conversation", "error", err)
        return nil, fmt.Errorf("failed to start conversation: %w", err)
    }

    s.logger.Info("conversation started",
        "conversation_id", created.ID,
        "has_contact_info", contact.Name != "" || contact.Email != "" || contact.Phone != "")
    return created, nil
}

// SendCustomerMessage appends a customer-authored message. The returned
// message carries the server-assigned ID and timestamp, so the caller sees
// it in its local list as soon as the call resolves.
func (s *Service) SendCustomerMessage(ctx context.Context, conversationID uint, senderName, content string) (*domain.Message, error) {
    return s.appendMessage(ctx, conversationID, domain.SenderCustomer, customerDisplayName(senderName), content)
}

// SendAgentMessage appends an agent reply with the agent's display name
// attached. It is symmetric with the customer path.
func (s *Service) SendAgentMessage(ctx context.Context, conversationID uint, agent *domain.Agent, content string) (*domain.Message, error) {
    if agent == nil {
        return nil, errors.New("agent is required")
    }
    return s.appendMessage(ctx, conversationID, domain.SenderAgent, agent.DisplayName, content)
}

func (s *Service) appendMessage(ctx context.Context, conversationID uint, senderType, senderName, content string) (*domain.Message, error) {
    if strings.TrimSpace(content) == "" {
        return nil, ErrEmptyMessage
    }

    conv, err := s.convRepo.FindByID(ctx, conversationID)
    if err != nil {
        if errors.Is(err, conversation.ErrConversationNotFound) {
            return nil, ErrConversationNotFound
        }
        return nil, fmt.Errorf("failed to load conversation: %w", err)
    }

    if conv.IsClosed() {
        return nil, ErrConversationClosed
    }

    msg := &domain.Message{
        ConversationID: conversationID,
        SenderType:     senderType,
        SenderName:     senderName,
        Content:        content,
    }

    created, err := s.msgRepo.Create(ctx, msg)
    if err != nil {
        s.logger.Error("failed to append message",
            "conversation_id", conversationID,
            "sender_type", senderType,
            "error", err)
        return nil, fmt.Errorf("failed to send message: %w", err)
    }

    // Bump the conversation so dashboard queues sort by recent activity.
    // Not fatal on failure.
    if err := s.convRepo.TouchUpdatedAt(ctx, conversationID); err != nil {
        s.logger.Warn("failed to touch conversation timestamp",
            "conversation_id", conversationID, "error", err)
    }

    s.logger.Debug("message appended",
        "conversation_id", conversationID,
        "message_id", created.ID,
        "sender_type", senderType)
    return created, nil
}

// MessagesSince returns all messages in a conversation with an ID greater
// than afterID, in creation order. Pass 0 for the full history. This is the
// poll source for both the widget and the dashboard.
func (s *Service) MessagesSince(ctx context.Context, conversationID, afterID uint) ([]domain.Message, error) {
    if afterID == 0 {
        return s.msgRepo.FindByConversationID(ctx, conversationID)
    }
    return s.msgRepo.FindByConversationIDAfter(ctx, conversationID, afterID)
}

// ConversationByPublicID resolves a guest token.
func (s *Service) ConversationByPublicID(ctx context.Context, publicID string) (*domain.Conversation, error) {
    conv, err := s.convRepo.FindByPublicID(ctx, publicID)
    if err != nil {
        if errors.Is(err, conversation.ErrConversationNotFound) {
            return nil, ErrConversationNotFound
        }
        return nil, err
    }
    return conv, nil
}

// ConversationByID looks up a conversation for dashboard use.
func (s *Service) ConversationByID(ctx context.Context, conversationID uint) (*domain.Conversation, error) {
    conv, err := s.convRepo.FindByID(ctx, conversationID)
    if err != nil {
        if errors.Is(err, conversation.ErrConversationNotFound) {
            return nil, ErrConversationNotFound
        }
        return nil, err
    }
    return conv, nil
}

// OpenConversations lists every conversation an agent could pick up or is
// already working: open and assigned, most recently active first.
func (s *Service) OpenConversations(ctx context.Context) ([]domain.Conversation, error) {
    return s.convRepo.FindByStatus(ctx, domain.ConversationOpen, domain.ConversationAssigned)
}

// AllConversations lists every conversation, newest first (admin reporting).
func (s *Service) AllConversations(ctx context.Context) ([]domain.Conversation, error) {
    return s.convRepo.FindAll(ctx)
}

// AssignAgent claims a conversation for an agent. The first claim wins;
// losing claims receive ErrAlreadyAssigned.
func (s *Service) AssignAgent(ctx context.Context, conversationID, agentID uint) error {
    err := s.convRepo.Assign(ctx, conversationID, agentID)
    if err != nil {
        switch {
        case errors.Is(err, conversation.ErrAlreadyAssigned):
            return ErrAlreadyAssigned
        case errors.Is(err, conversation.ErrConversationNotFound):
            return ErrConversationNotFound
        }
        return fmt.Errorf("failed to assign conversation: %w", err)
    }

    s.logger.Info("conversation assigned", "conversation_id", conversationID, "agent_id", agentID)
    return nil
}

// CloseConversation moves a conversation to its terminal state and appends a
// system message so customers observing the conversation through polling see
// that it ended.
func (s *Service) CloseConversation(ctx context.Context, conversationID uint, agent *domain.Agent) error {
    conv, err := s.convRepo.FindByID(ctx, conversationID)
    if err != nil {
        if errors.Is(err, conversation.ErrConversationNotFound) {
            return ErrConversationNotFound
        }
        return fmt.Errorf("failed to load conversation: %w", err)
    }

    if conv.IsClosed() {
        return ErrConversationClosed
    }

    closedBy := "support"
    if agent != nil {
        closedBy = agent.DisplayName
    }
    // The system message must land before the status flips, otherwise the
    // closed check in appendMessage would reject it.
    if _, err := s.appendMessage(ctx, conversationID, domain.SenderSystem, "", fmt.Sprintf("Conversation closed by %s", closedBy)); err != nil {
        s.logger.Warn("failed to append close notice", "conversation_id", conversationID, "error", err)
    }

    if err := s.convRepo.SetStatus(ctx, conversationID, domain.ConversationClosed); err != nil {
        return fmt.Errorf("failed to close conversation: %w", err)
    }

    s.logger.Info("conversation closed", "conversation_id", conversationID)
    return nil
}

// MessageCount reports how many messages a conversation holds.
func (s *Service) MessageCount(ctx context.Context, conversationID uint) (int64, error) {
    return s.msgRepo.CountByConversationID(ctx, conversationID)
}

// LastMessage returns the newest message in a conversation, or nil when the
// conversation has none yet. Backs the dashboard queue preview.
func (s *Service) LastMessage(ctx context.Context, conversationID uint) (*domain.Message, error) {
    msg, err := s.msgRepo.FindLastByConversationID(ctx, conversationID)
    if err != nil {
        if errors.Is(err, message.ErrMessageNotFound) {
            return nil, nil
        }
        return nil, err
    }
    return msg, nil
}

func customerDisplayName(name string) string {
    name = strings.TrimSpace(name)
    if name == "" {
        return "Guest"
    }
    return name
}
