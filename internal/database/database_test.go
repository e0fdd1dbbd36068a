package database

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cemlevent54/FileMate/internal/config"
	"github.com/cemlevent54/FileMate/internal/models"
	"github.com/cemlevent54/FileMate/internal/security"
)

func openSQLite(t *testing.T) *DB {
	t.Helper()

	db, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, Migrate(context.Background(), db.DB))
	return db
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestOpen_PostgresConfigErrors(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "postgres"}, zerolog.Nop())
	assert.ErrorContains(t, err, "dsn is required")

	_, err = Open(context.Background(), config.DatabaseConfig{Driver: "postgres", DSN: "postgres://%zz"}, zerolog.Nop())
	assert.ErrorContains(t, err, "parse dsn")
}

func TestOpen_SQLitePing(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)
	assert.NoError(t, db.Ping(context.Background()))
}

func TestSeedRoles_IsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openSQLite(t)

	require.NoError(t, SeedRoles(ctx, db.DB))
	require.NoError(t, SeedRoles(ctx, db.DB))

	var roles []models.Role
	require.NoError(t, db.Order("id").Find(&roles).Error)
	require.Len(t, roles, 2)
	assert.Equal(t, uint(1), roles[0].ID)
	assert.Equal(t, "user", roles[0].Name)
	assert.Equal(t, uint(2), roles[1].ID)
	assert.Equal(t, "admin", roles[1].Name)
}

func TestSeedAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openSQLite(t)
	require.NoError(t, SeedRoles(ctx, db.DB))

	hasher := security.NewPasswordHasher("bcrypt", bcrypt.MinCost)
	seed := AdminSeed{Email: "Admin@Gmail.com", Password: "admin", FirstName: "Admin", LastName: "User"}

	require.NoError(t, SeedAdmin(ctx, db.DB, hasher, seed, zerolog.Nop()))
	require.NoError(t, SeedAdmin(ctx, db.DB, hasher, seed, zerolog.Nop()))

	var admins []models.User
	require.NoError(t, db.Preload("Role").Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin@gmail.com", admins[0].Email)
	assert.True(t, admins[0].IsAdmin())
	assert.True(t, hasher.Verify("admin", admins[0].PasswordHash))
}

func TestSeedAdmin_RequiresRoles(t *testing.T) {
	t.Parallel()
	db := openSQLite(t)

	err := SeedAdmin(context.Background(), db.DB, security.NewPasswordHasher("bcrypt", bcrypt.MinCost),
		AdminSeed{Email: "admin@gmail.com", Password: "admin"}, zerolog.Nop())
	assert.Error(t, err)
}
