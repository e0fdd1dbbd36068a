package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cemlevent54/FileMate/internal/events"
	"github.com/cemlevent54/FileMate/internal/models"
	"github.com/cemlevent54/FileMate/internal/repository"
	"github.com/cemlevent54/FileMate/internal/security"
)

func TestAdminService_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.register(t, fmt.Sprintf("u%d@example.com", i), "secret1", "")
	}

	page, err := f.admin.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "u2@example.com", page.Items[0].Email)

	page, err = f.admin.List(ctx, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, maxPerPage, page.PerPage)
	assert.Len(t, page.Items, 5)
}

func TestAdminService_Update(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	admin := f.register(t, "admin@example.com", "secret1", "Admin")
	user := f.register(t, "user@example.com", "secret1", "User")
	f.register(t, "taken@example.com", "secret1", "Taken")

	_, err := f.admin.Update(ctx, admin.User.ID, user.User.ID, AdminUpdateInput{Role: ptr("root")})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = f.admin.Update(ctx, admin.User.ID, user.User.ID, AdminUpdateInput{Email: ptr("taken@example.com")})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = f.admin.Update(ctx, admin.User.ID, 999, AdminUpdateInput{FirstName: ptr("x")})
	assert.ErrorIs(t, err, ErrUserNotFound)

	updated, err := f.admin.Update(ctx, admin.User.ID, user.User.ID, AdminUpdateInput{
		FirstName: ptr("Promoted"),
		Password:  ptr("rotated1"),
		Role:      ptr("admin"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Promoted", updated.FirstName)
	assert.Equal(t, models.UserRoleAdmin, updated.UserRole())
	assert.Equal(t, uint(2), updated.RoleID)

	s, err := f.auth.Login(ctx, "user@example.com", "rotated1")
	require.NoError(t, err)
	identity, err := f.auth.VerifyAccessToken(ctx, s.AccessToken)
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin())
}

func TestAdminService_CannotDemoteSelf(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	admin := f.register(t, "admin@example.com", "secret1", "Admin")

	_, err := f.admin.Update(context.Background(), admin.User.ID, admin.User.ID, AdminUpdateInput{Role: ptr("user")})
	assert.ErrorIs(t, err, ErrSelfModification)
}

func TestAdminService_BlockActivateDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	admin := f.register(t, "admin@example.com", "secret1", "Admin")
	user := f.register(t, "user@example.com", "secret1", "User")

	_, err := f.admin.Block(ctx, admin.User.ID, admin.User.ID)
	assert.ErrorIs(t, err, ErrSelfModification)
	assert.ErrorIs(t, f.admin.Delete(ctx, admin.User.ID, admin.User.ID), ErrSelfModification)

	blocked, err := f.admin.Block(ctx, admin.User.ID, user.User.ID)
	require.NoError(t, err)
	assert.False(t, blocked.IsActive)

	_, err = f.auth.Login(ctx, "user@example.com", "secret1")
	assert.ErrorIs(t, err, ErrAccountInactive)
	_, err = f.auth.VerifyAccessToken(ctx, user.AccessToken)
	assert.ErrorIs(t, err, ErrAccountInactive)

	active, err := f.admin.Activate(ctx, admin.User.ID, user.User.ID)
	require.NoError(t, err)
	assert.True(t, active.IsActive)
	_, err = f.auth.Login(ctx, "user@example.com", "secret1")
	assert.NoError(t, err)

	require.NoError(t, f.admin.Delete(ctx, admin.User.ID, user.User.ID))
	_, err = f.admin.Get(ctx, user.User.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, f.admin.Delete(ctx, admin.User.ID, user.User.ID), ErrUserNotFound)

	types := f.events.Types()
	assert.Contains(t, types, events.UserBlocked)
	assert.Contains(t, types, events.UserActivated)
	assert.Contains(t, types, events.AccountDeleted)
}

// emailRaceStore loses every profile write to a concurrent email claim.
type emailRaceStore struct {
	UserStore
}

func (emailRaceStore) UpdateProfile(context.Context, uint, repository.ProfileUpdate) error {
	return repository.ErrEmailTaken
}

func TestAdminService_UpdateKeepsPasswordWhenProfileWriteFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	bob := f.register(t, "bob@example.com", "secret1", "Bob")

	hasher := security.NewPasswordHasher("bcrypt", bcrypt.MinCost)
	admin := NewAdminService(emailRaceStore{UserStore: f.users}, hasher, &events.Recorder{}, Policy{MinPasswordLength: 6}, zerolog.Nop())

	_, err := admin.Update(ctx, 999, bob.User.ID, AdminUpdateInput{
		Email:    ptr("taken@example.com"),
		Password: ptr("changed-password"),
	})
	require.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = f.auth.Login(ctx, "bob@example.com", "secret1")
	assert.NoError(t, err)
	_, err = f.auth.Login(ctx, "bob@example.com", "changed-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
