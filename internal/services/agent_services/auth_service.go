// File: internal/services/agent_services/auth_service.go
package agent_services

import (
    "context"
    "errors"
    "fmt"
    "regexp"
    "strings"

    "github.com/dukasmart/livechat/internal/auth"
    "github.com/dukasmart/livechat/internal/domain"
    "github.com/dukasmart/livechat/internal/repository/agent"
)

// Logger matches services.Logger.
type Logger interface {
    Info(msg string, keysAndValues ...interface{})
    Error(msg string, keysAndValues ...interface{})
    Debug(msg string, keysAndValues ...interface{})
    Warn(msg string, keysAndValues ...interface{})
}

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrValidation wraps registration and profile input failures so handlers can
// map them to 400 without string matching.
var ErrValidation = errors.New("validation failed")

var ErrEmailExists = errors.New("an agent with this email already exists")

// AuthService handles agent sign-up and login. New agents start inactive and
// wait for an administrator's approval; the bootstrap admin (matched by
// email) is approved on the spot.
type AuthService struct {
    agentRepo    agent.AgentRepository
    jwtSecretKey string
    adminEmail   string
    logger       Logger
}

func NewAuthService(agentRepo agent.AgentRepository, jwtSecretKey, adminEmail string, logger Logger) *AuthService {
    return &AuthService{
        agentRepo:    agentRepo,
        jwtSecretKey: jwtSecretKey,
        adminEmail:   adminEmail,
        logger:       logger,
    }
}

// Register creates a new agent account pending approval.
func (s *AuthService) Register(ctx context.Context, displayName, email, password string) (*domain.Agent, error) {
    displayName = strings.TrimSpace(displayName)
    email = strings.ToLower(strings.TrimSpace(email))

    if err := s.validateRegistrationInput(displayName, email, password); err != nil {
        s.logger.Warn("registration validation failed", "email", maskEmail(email), "error", err.Error())
        return nil, fmt.Errorf("%w: %v", ErrValidation, err)
    }

    existing, err := s.agentRepo.FindByEmail(ctx, email)
    if err == nil && existing != nil {
        s.logger.Warn("registration failed - email already exists", "email", maskEmail(email))
        return nil, ErrEmailExists
    }

    isAdmin := s.adminEmail != "" && email == strings.ToLower(s.adminEmail)
    a := &domain.Agent{
        DisplayName: displayName,
        Email:       email,
        IsAdmin:     isAdmin,
        // The bootstrap admin would otherwise have nobody to approve them.
        IsActive: isAdmin,
    }
    if err := a.HashPassword(password); err != nil {
        s.logger.Error("password hashing failed", "error", err, "email", maskEmail(email))
        return nil, fmt.Errorf("failed to hash password: %w", err)
    }

    created, err := s.agentRepo.Create(ctx, a)
    if err != nil {
        s.logger.Error("agent creation failed", "error", err, "email", maskEmail(email))
        return nil, fmt.Errorf("failed to create agent: %w", err)
    }

    s.logger.Info("agent registered",
        "agent_id", created.ID,
        "email", maskEmail(email),
        "is_admin", created.IsAdmin,
        "is_active", created.IsActive)
    return created, nil
}

// Login authenticates an agent and returns a signed JWT. Inactive agents may
// log in; the dashboard middleware keeps them out until approved.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Agent, string, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    if email == "" || password == "" {
        s.logger.Warn("login attempt with empty credentials",
            "has_email", email != "",
            "has_password", password != "")
        return nil, "", errors.New("email and password are required")
    }

    a, err := s.agentRepo.FindByEmail(ctx, email)
    if err != nil {
        s.logger.Warn("login failed - agent not found", "email", maskEmail(email))
        return nil, "", ErrInvalidCredentials
    }

    if err := a.ValidatePassword(password); err != nil {
        s.logger.Warn("login failed - invalid password", "email", maskEmail(email), "agent_id", a.ID)
        return nil, "", ErrInvalidCredentials
    }

    token, err := auth.GenerateJWT(a.ID, []byte(s.jwtSecretKey))
    if err != nil {
        s.logger.Error("JWT token generation failed", "error", err, "agent_id", a.ID)
        return nil, "", fmt.Errorf("failed to generate token: %w", err)
    }

    s.logger.Info("login successful",
        "agent_id", a.ID,
        "email", maskEmail(email),
        "is_admin", a.IsAdmin,
        "is_active", a.IsActive)
    return a, token, nil
}

// ValidateJWTToken validates a token and returns the agent ID it carries.
func (s *AuthService) ValidateJWTToken(tokenString string) (uint, error) {
    if tokenString == "" {
        return 0, errors.New("empty token")
    }

    agentID, err := auth.ValidateToken(tokenString, []byte(s.jwtSecretKey))
    if err != nil {
        s.logger.Warn("JWT token validation failed", "error", err)
        return 0, fmt.Errorf("invalid token: %w", err)
    }
    return agentID, nil
}

// AgentByID loads an agent account.
func (s *AuthService) AgentByID(ctx context.Context, agentID uint) (*domain.Agent, error) {
    return s.agentRepo.FindByID(ctx, agentID)
}

// UpdateDisplayName changes the name attached to the agent's replies.
func (s *AuthService) UpdateDisplayName(ctx context.Context, agentID uint, displayName string) (*domain.Agent, error) {
    displayName = strings.TrimSpace(displayName)
    if len(displayName) < 2 || len(displayName) > 60 {
        return nil, fmt.Errorf("%w: display name must be 2-60 characters", ErrValidation)
    }

    a, err := s.agentRepo.FindByID(ctx, agentID)
    if err != nil {
        return nil, err
    }

    a.DisplayName = displayName
    if err := s.agentRepo.Update(ctx, a); err != nil {
        s.logger.Error("display name update failed", "error", err, "agent_id", agentID)
        return nil, fmt.Errorf("failed to update agent: %w", err)
    }

    s.logger.Info("display name updated", "agent_id", agentID)
    return a, nil
}

func (s *AuthService) validateRegistrationInput(displayName, email, password string) error {
    if len(displayName) < 2 || len(displayName) > 60 {
        return fmt.Errorf("display name validation: must be 2-60 characters")
    }
    if !emailRegex.MatchString(email) {
        return fmt.Errorf("email validation: invalid email format")
    }
    if len(password) < 8 {
        return fmt.Errorf("password validation: password must be at least 8 characters")
    }
    return nil
}

// maskEmail keeps logs free of full addresses.
func maskEmail(email string) string {
    at := strings.IndexByte(email, '@')
    if at <= 1 {
        return "****"
    }
    keep := at
    if keep > 3 {
        keep = 3
    }
    return email[:keep] + "****" + email[at:]
}
