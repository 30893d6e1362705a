// File: internal/domain/agent.go
package domain

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Agent is a human support operator. New sign-ups start inactive and must be
// approved by an administrator before the dashboard opens up to them.
// Presence (online/away/offline) is derived from heartbeats and is never
// stored on this record.
type Agent struct {
    ID          uint      `json:"id"`
    DisplayName string    `json:"display_name"`
    Email       string    `json:"email" gorm:"uniqueIndex;not null"`
    Password    string    `json:"-"`
    IsActive    bool      `json:"is_active"`
    IsAdmin     bool      `json:"is_admin"`
    CreatedAt   time.Time `json:"created_at"`
    UpdatedAt   time.Time `json:"updated_at"`
}

// HashPassword securely hashes the agent's password.
func (a *Agent) HashPassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashed)
	return nil
}

// ValidatePassword compares a plain-text password with the agent's hashed password.
func (a *Agent) ValidatePassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password))
}

func (a *Agent) IsValid() error {
    if len(strings.TrimSpace(a.DisplayName)) < 2 {
        return errors.New("display name must be at least 2 characters")
    }
    if !strings.Contains(a.Email, "@") {
        return errors.New("a valid email is required")
    }
    return nil
}
