// File: internal/services/admin_services/admin_service.go
package admin_services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukasmart/livechat/internal/domain"
	"github.com/dukasmart/livechat/internal/repository/agent"
	"github.com/dukasmart/livechat/internal/repository/conversation"
	"github.com/dukasmart/livechat/internal/repository/message"
)

// ErrToggleInFlight is surfaced when a toggle request matched the agent's
// current state, i.e. a duplicate submit raced an earlier one.
var ErrToggleInFlight = errors.New("agent active flag already in requested state")

// AdminService provides functionalities for administrative tasks: agent
// moderation and reporting.
type AdminService struct {
	agentRepo agent.AgentRepository
	convRepo  conversation.ConversationRepository
	msgRepo   message.MessageRepository
}

// NewAdminService creates a new instance of AdminService.
func NewAdminService(agentRepo agent.AgentRepository, convRepo conversation.ConversationRepository, msgRepo message.MessageRepository) *AdminService {
	return &AdminService{
		agentRepo: agentRepo,
		convRepo:  convRepo,
		msgRepo:   msgRepo,
	}
}

// GetAllAgents retrieves agents newest-first, optionally filtered by a
// case-insensitive substring match on display name or email.
func (s *AdminService) GetAllAgents(ctx context.Context, search string) ([]domain.Agent, error) {
	agents, err := s.agentRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get all agents: %w", err)
	}

	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return agents, nil
	}

	filtered := make([]domain.Agent, 0, len(agents))
	for _, a := range agents {
		if strings.Contains(strings.ToLower(a.DisplayName), search) ||
			strings.Contains(strings.ToLower(a.Email), search) {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// SetAgentActive approves or disables one agent account. Only the named
// agent's record changes; a duplicate submit is reported rather than applied
// twice.
func (s *AdminService) SetAgentActive(ctx context.Context, agentID uint, active bool) error {
	err := s.agentRepo.SetActive(ctx, agentID, active)
	if err != nil {
		switch {
		case errors.Is(err, agent.ErrActiveStateUnchanged):
			return ErrToggleInFlight
		case errors.Is(err, agent.ErrAgentNotFound):
			return fmt.Errorf("agent %d not found", agentID)
		}
		return fmt.Errorf("failed to update agent %d: %w", agentID, err)
	}
	return nil
}

// DashboardStats holds the headline numbers on the admin dashboard.
type DashboardStats struct {
	OpenConversations     int64 `json:"open_conversations"`
	AssignedConversations int64 `json:"assigned_conversations"`
	ClosedConversations   int64 `json:"closed_conversations"`
	TotalMessages         int64 `json:"total_messages"`
}

// Stats counts conversations per lifecycle state and messages overall.
func (s *AdminService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	var err error

	if stats.OpenConversations, err = s.convRepo.CountByStatus(ctx, domain.ConversationOpen); err != nil {
		return nil, fmt.Errorf("failed to count open conversations: %w", err)
	}
	if stats.AssignedConversations, err = s.convRepo.CountByStatus(ctx, domain.ConversationAssigned); err != nil {
		return nil, fmt.Errorf("failed to count assigned conversations: %w", err)
	}
	if stats.ClosedConversations, err = s.convRepo.CountByStatus(ctx, domain.ConversationClosed); err != nil {
		return nil, fmt.Errorf("failed to count closed conversations: %w", err)
	}
	if stats.TotalMessages, err = s.msgRepo.CountTotal(ctx); err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	return stats, nil
}

// ConversationReportRow is one line of the conversations export.
type ConversationReportRow struct {
	ConversationID uint
	Customer       string
	Status         string
	AgentName      string
	MessageCount   int64
	CreatedAt      string
}

// ConversationsReport assembles the data behind the admin XLSX export:
// every conversation with its assigned agent and message volume.
func (s *AdminService) ConversationsReport(ctx context.Context) ([]ConversationReportRow, error) {
	convs, err := s.convRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	agents, err := s.agentRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	names := make(map[uint]string, len(agents))
	for _, a := range agents {
		names[a.ID] = a.DisplayName
	}

	rows := make([]ConversationReportRow, 0, len(convs))
	for _, c := range convs {
		count, err := s.msgRepo.CountByConversationID(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count messages for conversation %d: %w", c.ID, err)
		}

		agentName := ""
		if c.AgentID != nil {
			agentName = names[*c.AgentID]
		}

		customer := c.CustomerName
		if customer == "" {
			customer = "Guest"
		}

		rows = append(rows, ConversationReportRow{
			ConversationID: c.ID,
			Customer:       customer,
			Status:         string(c.Status),
			AgentName:      agentName,
			MessageCount:   count,
			CreatedAt:      c.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return rows, nil
}
