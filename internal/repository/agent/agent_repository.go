// File: internal/repository/agent/agent_repository.go
package agent

import (
    "context"
    "errors"
    "fmt"
    "log"
    "strings"

    "github.com/dukasmart/livechat/internal/domain"
    "gorm.io/gorm"
)

var ErrAgentNotFound = errors.New("agent not found")

// ErrActiveStateUnchanged is returned when a toggle request matches the
// agent's current state, which usually means a double-submitted toggle.
var ErrActiveStateUnchanged = errors.New("agent active state unchanged")

type gormAgentRepository struct {
    db *gorm.DB
}

func NewAgentRepository(db *gorm.DB) AgentRepository {
    return &gormAgentRepository{db: db}
}

func (r *gormAgentRepository) Create(ctx context.Context, agent *domain.Agent) (*domain.Agent, error) {
    if agent == nil {
        return nil, errors.New("agent cannot be nil")
    }
    if err := agent.IsValid(); err != nil {
        log.Printf("[AgentRepository] Validation failed: %v", err)
        return nil, fmt.Errorf("validation failed: %w", err)
    }

    err := r.db.WithContext(ctx).Create(agent).Error
    if err != nil {
        log.Printf("[AgentRepository] Database error during agent creation: %v", err)
        return nil, errors.New("database error creating agent")
    }

    log.Printf("[AgentRepository] Agent created successfully with ID: %d", agent.ID)
    return agent, nil
}

func (r *gormAgentRepository) FindByID(ctx context.Context, id uint) (*domain.Agent, error) {
    if id == 0 {
        return nil, errors.New("invalid agent ID")
    }

    var agent domain.Agent
    err := r.db.WithContext(ctx).First(&agent, id).Error
    return r.handleFindError(err, &agent, "FindByID")
}

func (r *gormAgentRepository) FindByEmail(ctx context.Context, email string) (*domain.Agent, error) {
    if strings.TrimSpace(email) == "" {
        return nil, errors.New("invalid email")
    }

    var agent domain.Agent
    err := r.db.WithContext(ctx).Where("email = ?", email).First(&agent).Error
    return r.handleFindError(err, &agent, "FindByEmail")
}

// FindAll lists agents newest-first, matching the admin dashboard order.
func (r *gormAgentRepository) FindAll(ctx context.Context) ([]domain.Agent, error) {
    var agents []domain.Agent
    err := r.db.WithContext(ctx).
        Order("created_at DESC, id DESC").
        Find(&agents).Error

    if err != nil {
        log.Printf("[AgentRepository] Database error fetching all agents: %v", err)
        return nil, errors.New("database error fetching agents")
    }

    return agents, nil
}

func (r *gormAgentRepository) Update(ctx context.Context, agent *domain.Agent) error {
    if agent == nil || agent.ID == 0 {
        return errors.New("invalid agent")
    }

    result := r.db.WithContext(ctx).Save(agent)
    if result.Error != nil {
        log.Printf("[AgentRepository] Database error updating agent ID %d: %v", agent.ID, result.Error)
        return errors.New("database error updating agent")
    }

    if result.RowsAffected == 0 {
        return ErrAgentNotFound
    }

    return nil
}

// SetActive flips the approval flag on one agent record. The update is
// conditional on the flag currently holding the opposite value so a
// double-submitted toggle cannot flip it twice.
func (r *gormAgentRepository) SetActive(ctx context.Context, agentID uint, active bool) error {
    if agentID == 0 {
        return errors.New("invalid agent ID")
    }

    result := r.db.WithContext(ctx).
        Model(&domain.Agent{}).
        Where("id = ? AND is_active = ?", agentID, !active).
        Update("is_active", active)

    if result.Error != nil {
        log.Printf("[AgentRepository] Database error toggling agent ID %d: %v", agentID, result.Error)
        return errors.New("database error updating agent active flag")
    }

    if result.RowsAffected == 0 {
        exists, err := r.existsByID(ctx, agentID)
        if err != nil {
            return err
        }
        if !exists {
            return ErrAgentNotFound
        }
        return ErrActiveStateUnchanged
    }

    log.Printf("[AgentRepository] Agent %d active flag set to %t", agentID, active)
    return nil
}

func (r *gormAgentRepository) existsByID(ctx context.Context, agentID uint) (bool, error) {
    var count int64
    err := r.db.WithContext(ctx).Model(&domain.Agent{}).Where("id = ?", agentID).Count(&count).Error
    if err != nil {
        log.Printf("[AgentRepository] Database error checking agent existence for ID %d: %v", agentID, err)
        return false, errors.New("database error checking agent existence")
    }

    return count > 0, nil
}

// ===== ERROR HANDLING HELPERS =====

func (r *gormAgentRepository) handleFindError(err error, agent *domain.Agent, operation string) (*domain.Agent, error) {
    if err == nil {
        return agent, nil
    }

    if errors.Is(err, gorm.ErrRecordNotFound) {
        return nil, ErrAgentNotFound
    }

    log.Printf("[AgentRepository] %s database error: %v", operation, err)
    return nil, errors.New("database query failed")
}
