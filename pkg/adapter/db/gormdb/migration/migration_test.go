package migration_test

import (
	"context"
	"testing"

	"github.com/momeni/ormysql/internal/test/sqlitedb"
	"github.com/momeni/ormysql/pkg/adapter/db/gormdb/migration"
	"github.com/momeni/ormysql/pkg/core/model"
	"github.com/momeni/ormysql/pkg/core/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type left struct {
	ID      uint
	RightID uint
	Right   *right `gorm:"foreignKey:RightID"`
}

type right struct {
	ID     uint
	LeftID uint
	Left   *left `gorm:"foreignKey:LeftID"`
}

func TestPlanOrdersReferencedTablesFirst(t *testing.T) {
	reg, err := migration.New(&model.Account{}, &model.UserMeta{}, &model.User{})
	require.NoError(t, err)
	plan, err := reg.Plan()
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts", "users", "user_metas"}, plan)
}

func TestRegisterTwiceIsNoop(t *testing.T) {
	reg, err := migration.New(&model.User{})
	require.NoError(t, err)
	require.NoError(t, reg.Register(&model.User{}, &model.UserMeta{}))
	assert.Len(t, reg.Models(), 2)
}

func TestPlanIgnoresUnregisteredReferences(t *testing.T) {
	reg, err := migration.New(&model.UserMeta{})
	require.NoError(t, err)
	plan, err := reg.Plan()
	require.NoError(t, err)
	assert.Equal(t, []string{"user_metas"}, plan)
}

func TestPlanRejectsCycles(t *testing.T) {
	reg, err := migration.New(&left{}, &right{})
	require.NoError(t, err)
	_, err = reg.Plan()
	assert.ErrorIs(t, err, migration.ErrCyclicDependency)
}

func TestMigrateCreatesMissingTablesOnly(t *testing.T) {
	ctx := context.Background()
	m := sqlitedb.New(t)
	reg, err := migration.New(&model.User{})
	require.NoError(t, err)
	migrate := func() (created []string) {
		err := m.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			created, err = reg.Migrate(ctx, tx)
			return err
		})
		require.NoError(t, err)
		return created
	}
	assert.Equal(t, []string{"users"}, migrate())

	require.NoError(t, reg.Register(&model.UserMeta{}, &model.Account{}))
	assert.Equal(t, []string{"user_metas", "accounts"}, migrate())
	assert.Empty(t, migrate(), "all tables exist already")
}

func TestDefaultRegistry(t *testing.T) {
	reg, err := migration.Default()
	require.NoError(t, err)
	plan, err := reg.Plan()
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "user_metas", "accounts"}, plan)
}
