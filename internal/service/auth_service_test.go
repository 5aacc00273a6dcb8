package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func newAuthFixture() (*AuthService, *memUserRepo) {
	users := newMemUserRepo()
	svc := NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 15,
		BcryptCost:            4, // minimum cost keeps tests fast
	}, users)
	return svc, users
}

func TestRegisterCreatesCustomerAccount(t *testing.T) {
	svc, _ := newAuthFixture()

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Sam Carter",
		Email:    "Sam.Carter@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "sam.carter@example.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, domain.TierFree, user.Subscription)
	assert.True(t, user.Active)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), RegisterInput{Email: "dup@example.com", Password: "longenough"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "dup@example.com", Password: "longenough"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestRegisterValidatesPassword(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "short"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestLoginIssuesRoleBearingToken(t *testing.T) {
	svc, _ := newAuthFixture()

	registered, err := svc.Register(context.Background(), RegisterInput{Email: "sam@example.com", Password: "longenough"})
	require.NoError(t, err)

	user, token, expiresAt, err := svc.Login(context.Background(), "sam@example.com", "longenough")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleUser, claims.Role)
}

func TestLoginRejectsBadCredentialsAndInactiveAccounts(t *testing.T) {
	svc, users := newAuthFixture()

	registered, err := svc.Register(context.Background(), RegisterInput{Email: "sam@example.com", Password: "longenough"})
	require.NoError(t, err)

	_, _, _, err = svc.Login(context.Background(), "sam@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	_, _, _, err = svc.Login(context.Background(), "nobody@example.com", "whatever")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	registered.Active = false
	require.NoError(t, users.Update(context.Background(), registered))
	_, _, _, err = svc.Login(context.Background(), "sam@example.com", "longenough")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}
