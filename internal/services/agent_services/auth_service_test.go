// File: internal/services/agent_services/auth_service_test.go
package agent_services

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dukasmart/livechat/internal/domain"
	agentrepo "github.com/dukasmart/livechat/internal/repository/agent"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}

const testAdminEmail = "admin@dukasmart.example"

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Agent{}))

	return NewAuthService(agentrepo.NewAgentRepository(db), "test-secret", testAdminEmail, nopLogger{})
}

func TestRegisterStartsPending(t *testing.T) {
	svc := newTestAuthService(t)

	a, err := svc.Register(context.Background(), "Sam Okafor", "sam@dukasmart.example", "a strong password")
	require.NoError(t, err)

	assert.False(t, a.IsActive, "new agents wait for approval")
	assert.False(t, a.IsAdmin)
	assert.NotEqual(t, "a strong password", a.Password, "password must be stored hashed")
}

func TestRegisterBootstrapAdminIsApproved(t *testing.T) {
	svc := newTestAuthService(t)

	a, err := svc.Register(context.Background(), "Site Admin", "Admin@Dukasmart.example", "a strong password")
	require.NoError(t, err)

	assert.True(t, a.IsAdmin)
	assert.True(t, a.IsActive)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Sam Okafor", "sam@dukasmart.example", "a strong password")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Impostor", "SAM@dukasmart.example", "another password")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "X", "sam@dukasmart.example", "a strong password")
	assert.ErrorIs(t, err, ErrValidation, "display name too short")

	_, err = svc.Register(ctx, "Sam Okafor", "not-an-email", "a strong password")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, "Sam Okafor", "sam@dukasmart.example", "short")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateDisplayName(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, "Sam Okafor", "sam@dukasmart.example", "a strong password")
	require.NoError(t, err)

	updated, err := svc.UpdateDisplayName(ctx, a.ID, "  Samuel Okafor  ")
	require.NoError(t, err)
	assert.Equal(t, "Samuel Okafor", updated.DisplayName)

	reloaded, err := svc.AgentByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Samuel Okafor", reloaded.DisplayName)

	_, err = svc.UpdateDisplayName(ctx, a.ID, "X")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Sam Okafor", "sam@dukasmart.example", "a strong password")
	require.NoError(t, err)

	a, token, err := svc.Login(ctx, "sam@dukasmart.example", "a strong password")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, registered.ID, a.ID)

	agentID, err := svc.ValidateJWTToken(token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, agentID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Sam Okafor", "sam@dukasmart.example", "a strong password")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "sam@dukasmart.example", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@dukasmart.example", "a strong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPendingAgentsMayLogIn(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Sam Okafor", "sam@dukasmart.example", "a strong password")
	require.NoError(t, err)

	// The dashboard middleware enforces approval; login itself succeeds so
	// pending agents can see their status.
	a, token, err := svc.Login(ctx, "sam@dukasmart.example", "a strong password")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.False(t, a.IsActive)
}

func TestValidateJWTTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.ValidateJWTToken("")
	assert.Error(t, err)

	_, err = svc.ValidateJWTToken("not.a.token")
	assert.Error(t, err)
}
