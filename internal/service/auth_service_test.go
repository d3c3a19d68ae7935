package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/societyresolver/complaint-service/internal/domain"
	apperrors "github.com/societyresolver/complaint-service/pkg/util/errorutil"
)

func TestAuthServiceLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bob := f.worker(t, "bob", "plumber")
	auth := NewAuthService(AuthDependencies{Identity: f.provider, Coordinator: f.coordinator})

	result, err := auth.Login(ctx, "BOB@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, result.User.ID)
	assert.Equal(t, domain.RoleWorker, result.User.Role)
	assert.NotEmpty(t, result.Session.Token)

	user, err := auth.Authenticate(ctx, result.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, user.ID)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, "alice")
	auth := NewAuthService(AuthDependencies{Identity: f.provider, Coordinator: f.coordinator})

	_, err := auth.Login(ctx, "alice@example.com", "wrong-password")
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthenticated))

	_, err = auth.Login(ctx, "", "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidInput))

	// An identity account whose profile write never happened cannot log in.
	_, err = f.provider.CreateAccount(ctx, "orphan@example.com", "password1", "orphan")
	require.NoError(t, err)
	_, err = auth.Login(ctx, "orphan@example.com", "password1")
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthenticated))

	_, err = auth.Authenticate(ctx, "not-a-token")
	assert.True(t, apperrors.IsKind(err, apperrors.KindUnauthenticated))
}
