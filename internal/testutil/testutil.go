// Package testutil builds migrated, seeded in-memory databases for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cemlevent54/FileMate/internal/config"
	"github.com/cemlevent54/FileMate/internal/database"
)

// NewDB returns an in-memory sqlite database with the schema applied. Roles
// are seeded unless withoutRoles is set.
func NewDB(t *testing.T, withoutRoles ...bool) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{Driver: "sqlite"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, database.Migrate(ctx, db.DB))
	if len(withoutRoles) == 0 || !withoutRoles[0] {
		require.NoError(t, database.SeedRoles(ctx, db.DB))
	}
	return db.DB
}
