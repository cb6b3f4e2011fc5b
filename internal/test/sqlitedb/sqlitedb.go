// Package sqlitedb is an internal helper for the test packages.
// It creates managers of temporary sqlite databases, so the pool,
// repositories, and use cases can be tested without a DBMS server.
package sqlitedb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/momeni/ormysql/pkg/adapter/db/gormdb"
	"github.com/momeni/ormysql/pkg/adapter/db/gormdb/migration"
	"github.com/momeni/ormysql/pkg/core/repo"
	"github.com/stretchr/testify/require"
)

// Settings returns the settings of a sqlite database file in the
// t temporary directory. The shutdown hook is disabled.
func Settings(t *testing.T) gormdb.Settings {
	t.Helper()
	autoclose := false
	return gormdb.Settings{
		Dialect:        gormdb.SQLite.Name(),
		Name:           filepath.Join(t.TempDir(), "test.db"),
		Autoclose:      &autoclose,
		MaxSize:        4,
		AcquireTimeout: 5 * time.Second,
		DrainTimeout:   time.Second,
	}
}

// New returns a manager of a fresh sqlite database which is closed
// when t finishes. The mod functions may adjust the settings.
func New(t *testing.T, mod ...func(s *gormdb.Settings)) *gormdb.Manager {
	t.Helper()
	s := Settings(t)
	for _, f := range mod {
		f(&s)
	}
	m := gormdb.NewManager()
	require.NoError(t, m.Configure(s), "configuring sqlite manager")
	t.Cleanup(func() {
		_ = m.Close(context.Background())
	})
	return m
}

// Migrated returns a manager like New whose database has the tables
// of the users, user metas, and accounts models.
func Migrated(t *testing.T, mod ...func(s *gormdb.Settings)) *gormdb.Manager {
	t.Helper()
	m := New(t, mod...)
	reg, err := migration.Default()
	require.NoError(t, err, "registering models")
	ctx := context.Background()
	err = m.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
		_, err := reg.Migrate(ctx, tx)
		return err
	})
	require.NoError(t, err, "migrating sqlite schema")
	return m
}
