package identity

import (
	"context"
	"testing"

	domain "github.com/WS24/ws24dev-sub001/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	repo := NewRepository(db)
	require.NoError(t, repo.Migrate())
	return NewService(repo, NewPasswordHasher(), NewJWTManager(testConfig()))
}

func TestRegister(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "client@example.com", "password123", "Alice", domain.RoleClient)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, "client@example.com", "password123", "", domain.RoleSpecialist)
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := svc.Register(ctx, "not-an-email", "password123", "", domain.RoleClient)
		assert.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, "x@example.com", "short", "", domain.RoleClient)
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("admin accounts are not self-service", func(t *testing.T) {
		_, err := svc.Register(ctx, "admin@example.com", "password123", "", domain.RoleAdmin)
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := svc.Register(ctx, "y@example.com", "password123", "", "superuser")
		assert.ErrorIs(t, err, ErrInvalidRole)
	})
}

func TestLogin(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "spec@example.com", "password123", "Bob", domain.RoleSpecialist)
	require.NoError(t, err)

	user, tokens, err := svc.Login(ctx, "spec@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	t.Run("token carries the role", func(t *testing.T) {
		claims, err := svc.ValidateToken(ctx, tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, claims.UserID)
		assert.Equal(t, domain.RoleSpecialist, claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "spec@example.com", "nope-nope-nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "ghost@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRefresh(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "client@example.com", "password123", "", domain.RoleClient)
	require.NoError(t, err)
	_, tokens, err := svc.Login(ctx, "client@example.com", "password123")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, rotated.AccessToken)

	claims, err := svc.ValidateToken(ctx, rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, claims.Role)

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := svc.Refresh(ctx, tokens.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
