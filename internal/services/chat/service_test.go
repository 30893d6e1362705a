// File: internal/services/chat/service_test.go
package chat

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dukasmart/livechat/internal/domain"
	"github.com/dukasmart/livechat/internal/repository/conversation"
	"github.com/dukasmart/livechat/internal/repository/message"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Conversation{}, &domain.Message{}))

	svc, err := NewService(
		conversation.NewConversationRepository(db),
		message.NewMessageRepository(db),
		nopLogger{},
	)
	require.NoError(t, err)
	return svc
}

func TestStartConversationIssuesToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, ContactInfo{Name: "  Amina  ", Email: "amina@example.com"})
	require.NoError(t, err)

	assert.NotEmpty(t, conv.PublicID)
	assert.Equal(t, "Amina", conv.CustomerName)
	assert.Equal(t, domain.ConversationOpen, conv.Status)
	assert.Nil(t, conv.AgentID)

	// The token resolves back to the same conversation.
	found, err := svc.ConversationByPublicID(ctx, conv.PublicID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, found.ID)
}

func TestAnonymousGuestsAllowed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, ContactInfo{})
	require.NoError(t, err)

	msg, err := svc.SendCustomerMessage(ctx, conv.ID, "", "hi, my order never arrived")
	require.NoError(t, err)
	assert.Equal(t, "Guest", msg.SenderName)
	assert.Equal(t, domain.SenderCustomer, msg.SenderType)
}

func TestMessagesAreOrderedAndFilterable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, ContactInfo{Name: "Jonas"})
	require.NoError(t, err)

	first, err := svc.SendCustomerMessage(ctx, conv.ID, "Jonas", "hello")
	require.NoError(t, err)
	agent := &domain.Agent{DisplayName: "Sam"}
	agent.ID = 1
	second, err := svc.SendAgentMessage(ctx, conv.ID, agent, "hi Jonas, how can I help?")
	require.NoError(t, err)
	third, err := svc.SendCustomerMessage(ctx, conv.ID, "Jonas", "where is my order?")
	require.NoError(t, err)

	all, err := svc.MessagesSince(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint{first.ID, second.ID, third.ID}, []uint{all[0].ID, all[1].ID, all[2].ID})

	// The customer's poll sees the agent reply attributed by display name.
	assert.Equal(t, domain.SenderAgent, all[1].SenderType)
	assert.Equal(t, "Sam", all[1].SenderName)

	// The poll query returns only what the client has not seen yet.
	newer, err := svc.MessagesSince(ctx, conv.ID, second.ID)
	require.NoError(t, err)
	require.Len(t, newer, 1)
	assert.Equal(t, third.ID, newer[0].ID)

	// Nothing new since the last message.
	none, err := svc.MessagesSince(ctx, conv.ID, third.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLastMessageIsNewest(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, ContactInfo{})
	require.NoError(t, err)

	// No messages yet: no preview, no error.
	last, err := svc.LastMessage(ctx, conv.ID)
	require.NoError(t, err)
	assert.Nil(t, last)

	_, err = svc.SendCustomerMessage(ctx, conv.ID, "", "hello")
	require.NoError(t, err)
	newest, err := svc.SendCustomerMessage(ctx, conv.ID, "", "anyone there?")
	require.NoError(t, err)

	last, err = svc.LastMessage(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, newest.ID, last.ID)
	assert.Equal(t, "anyone there?", last.Content)
}

func TestEmptyMessageRejected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, ContactInfo{})
	require.NoError(t, err)

	_, err = svc.SendCustomerMessage(ctx, conv.ID, "", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	count, err := svc.MessageCount(ctx, conv.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSendToUnknownConversation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.SendCustomerMessage(context.Background(), 999, "", "hello?")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestFirstClaimWins(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, ContactInfo{})
	require.NoError(t, err)

	require.NoError(t, svc.AssignAgent(ctx, conv.ID, 1))

	err = svc.AssignAgent(ctx, conv.ID, 2)
	assert.ErrorIs(t, err, ErrAlreadyAssigned)

	// The winner's assignment is untouched by the losing claim.
	after, err := svc.ConversationByID(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, after.AgentID)
	assert.Equal(t, uint(1), *after.AgentID)
	assert.Equal(t, domain.ConversationAssigned, after.Status)
}

func TestCloseConversationAppendsSystemMessage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, ContactInfo{})
	require.NoError(t, err)
	_, err = svc.SendCustomerMessage(ctx, conv.ID, "", "hello")
	require.NoError(t, err)

	agent := &domain.Agent{DisplayName: "Sam"}
	agent.ID = 1
	require.NoError(t, svc.CloseConversation(ctx, conv.ID, agent))

	after, err := svc.ConversationByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, after.IsClosed())

	// A customer polling the conversation sees the close notice as the last
	// message.
	messages, err := svc.MessagesSince(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	last := messages[len(messages)-1]
	assert.Equal(t, domain.SenderSystem, last.SenderType)
	assert.Equal(t, "Conversation closed by Sam", last.Content)
}

func TestClosedConversationRejectsMessages(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, ContactInfo{})
	require.NoError(t, err)
	require.NoError(t, svc.CloseConversation(ctx, conv.ID, nil))

	_, err = svc.SendCustomerMessage(ctx, conv.ID, "", "are you still there?")
	assert.ErrorIs(t, err, ErrConversationClosed)

	agent := &domain.Agent{DisplayName: "Sam"}
	agent.ID = 1
	_, err = svc.SendAgentMessage(ctx, conv.ID, agent, "following up")
	assert.ErrorIs(t, err, ErrConversationClosed)

	// Closing twice is reported, not applied twice.
	err = svc.CloseConversation(ctx, conv.ID, nil)
	assert.ErrorIs(t, err, ErrConversationClosed)
}

func TestClaimClosedConversationFails(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	conv, err := svc.StartConversation(ctx, ContactInfo{})
	require.NoError(t, err)
	require.NoError(t, svc.CloseConversation(ctx, conv.ID, nil))

	err = svc.AssignAgent(ctx, conv.ID, 1)
	assert.ErrorIs(t, err, ErrAlreadyAssigned)
}

func TestOpenConversationsExcludesClosed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	open, err := svc.StartConversation(ctx, ContactInfo{Name: "Open"})
	require.NoError(t, err)
	assigned, err := svc.StartConversation(ctx, ContactInfo{Name: "Assigned"})
	require.NoError(t, err)
	closed, err := svc.StartConversation(ctx, ContactInfo{Name: "Closed"})
	require.NoError(t, err)

	require.NoError(t, svc.AssignAgent(ctx, assigned.ID, 1))
	require.NoError(t, svc.CloseConversation(ctx, closed.ID, nil))

	queue, err := svc.OpenConversations(ctx)
	require.NoError(t, err)

	ids := make([]uint, len(queue))
	for i, c := range queue {
		ids[i] = c.ID
	}
	assert.ElementsMatch(t, []uint{open.ID, assigned.ID}, ids)

	all, err := svc.AllConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
