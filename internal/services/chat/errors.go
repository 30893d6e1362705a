// File: internal/services/chat/errors.go
package chat

import "errors"

var (
    // ErrConversationClosed is returned on attempts to append to a
    // conversation that has reached its terminal state.
    ErrConversationClosed = errors.New("conversation is closed")

    // ErrEmptyMessage is returned when a send carries no content.
    ErrEmptyMessage = errors.New("message content cannot be empty")

    // ErrConversationNotFound mirrors the repository sentinel so handlers
    // only depend on this package.
    ErrConversationNotFound = errors.New("conversation not found")

    // ErrAlreadyAssigned is returned when a claim loses the race for an
    // unassigned conversation.
    ErrAlreadyAssigned = errors.New("conversation already assigned to another agent")
)
