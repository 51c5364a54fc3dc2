// Package database provides migrated PostgreSQL clients for integration tests.
package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thefitz/companion/pkg/database"
	"github.com/thefitz/companion/test/util"
)

// NewTestClient returns a client on a fresh, fully migrated schema.
// In CI (when CI_DATABASE_URL is set) it uses the external PostgreSQL service;
// locally it uses the shared testcontainer. Cleanup is registered on t.
func NewTestClient(t *testing.T) *database.Client {
	t.Helper()

	db := util.SetupTestSchema(t)
	require.NoError(t, database.RunMigrations(db, "test"))

	return database.NewClientFromDB(db)
}
