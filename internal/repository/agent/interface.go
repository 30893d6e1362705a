package agent

import (
    "context"

    "github.com/dukasmart/livechat/internal/domain"
)

// AgentRepository handles agent account data operations.
type AgentRepository interface {
    Create(ctx context.Context, agent *domain.Agent) (*domain.Agent, error)
    FindByID(ctx context.Context, id uint) (*domain.Agent, error)
    FindByEmail(ctx context.Context, email string) (*domain.Agent, error)
    FindAll(ctx context.Context) ([]domain.Agent, error)
    Update(ctx context.Context, agent *domain.Agent) error
    SetActive(ctx context.Context, agentID uint, active bool) error
}
