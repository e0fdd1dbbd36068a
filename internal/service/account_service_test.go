package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cemlevent54/FileMate/internal/events"
)

func TestAccountService_ChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	reg := f.register(t, "alice@example.com", "secret1", "Alice")

	assert.ErrorIs(t, f.accounts.ChangePassword(ctx, reg.User.ID, "wrong", "newsecret"), ErrInvalidCredentials)
	assert.ErrorIs(t, f.accounts.ChangePassword(ctx, reg.User.ID, "secret1", "abc"), ErrWeakPassword)
	assert.ErrorIs(t, f.accounts.ChangePassword(ctx, 999, "secret1", "newsecret"), ErrUserNotFound)

	require.NoError(t, f.accounts.ChangePassword(ctx, reg.User.ID, "secret1", "newsecret"))
	_, err := f.auth.Login(ctx, "alice@example.com", "newsecret")
	assert.NoError(t, err)
	assert.Contains(t, f.events.Types(), events.PasswordChanged)
}

func TestAccountService_UpdateInfo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice@example.com", "secret1", "Alice")
	f.register(t, "bob@example.com", "secret1", "Bob")

	_, err := f.accounts.UpdateInfo(ctx, alice.User.ID, ProfileInput{Email: ptr("BOB@example.com")})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = f.accounts.UpdateInfo(ctx, alice.User.ID, ProfileInput{Email: ptr("nope")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	user, err := f.accounts.UpdateInfo(ctx, alice.User.ID, ProfileInput{
		FirstName: ptr(" Alicia "),
		LastName:  ptr("Smith"),
		Email:     ptr("alice@example.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", user.FirstName)
	assert.Equal(t, "Smith", user.LastName)
	assert.Equal(t, "alice@example.com", user.Email)

	user, err = f.accounts.UpdateInfo(ctx, alice.User.ID, ProfileInput{Email: ptr("alicia@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "alicia@example.com", user.Email)
	assert.Equal(t, "Alicia", user.FirstName)
}

func TestAccountService_DeleteAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	reg := f.register(t, "alice@example.com", "secret1", "Alice")

	require.NoError(t, f.accounts.DeleteAccount(ctx, reg.User.ID))
	assert.ErrorIs(t, f.accounts.DeleteAccount(ctx, reg.User.ID), ErrUserNotFound)

	_, err := f.accounts.Profile(ctx, reg.User.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.auth.VerifyAccessToken(ctx, reg.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidSession)
}
