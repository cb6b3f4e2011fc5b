//go:build integration

// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gormdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/bitcomplete/sqltestutil"
	"github.com/momeni/ormysql/internal/test/dbcontainer"
	"github.com/momeni/ormysql/pkg/adapter/db/gormdb"
	"github.com/momeni/ormysql/pkg/adapter/db/gormdb/accountsrp"
	"github.com/momeni/ormysql/pkg/adapter/db/gormdb/migration"
	"github.com/momeni/ormysql/pkg/core/model"
	"github.com/momeni/ormysql/pkg/core/repo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type IntegrationPostgresTestSuite struct {
	suite.Suite

	Ctx      context.Context
	Pg       *sqltestutil.PostgresContainer
	Settings gormdb.Settings
}

func TestIntegrationPostgresTestSuite(t *testing.T) {
	ctx := context.Background()
	pg, s, dfrs, ok := dbcontainer.New(ctx, 60*time.Second, t)
	for _, f := range dfrs {
		defer f()
	}
	if !ok {
		return // errors are already logged
	}
	suite.Run(t, &IntegrationPostgresTestSuite{
		Ctx:      ctx,
		Pg:       pg,
		Settings: s,
	})
}

func (ipts *IntegrationPostgresTestSuite) manager(name string) *gormdb.Manager {
	s := ipts.Settings
	s.Name = name
	m := gormdb.NewManager()
	ipts.Require().NoError(m.Configure(s))
	ipts.T().Cleanup(func() {
		ipts.NoError(m.Close(ipts.Ctx))
	})
	return m
}

func (ipts *IntegrationPostgresTestSuite) TestAutoCreateAndMigrate() {
	m := ipts.manager("ormysql_auto")
	reg, err := migration.Default()
	ipts.Require().NoError(err)
	err = m.Tx(ipts.Ctx, func(ctx context.Context, tx repo.Tx) error {
		_, err := reg.Migrate(ctx, tx)
		return err
	})
	ipts.Require().NoError(err, "database should be created on demand")

	created, err := m.CreateDatabase(ipts.Ctx)
	ipts.Require().NoError(err)
	ipts.False(created, "database exists already")
}

func (ipts *IntegrationPostgresTestSuite) TestLockedBalanceUpdates() {
	m := ipts.manager("ormysql_locks")
	reg, err := migration.Default()
	ipts.Require().NoError(err)
	rp := accountsrp.New()
	a := &model.Account{Owner: "alice", Balance: decimal.NewFromInt(10)}
	err = m.Tx(ipts.Ctx, func(ctx context.Context, tx repo.Tx) error {
		if _, err := reg.Migrate(ctx, tx); err != nil {
			return err
		}
		return rp.Tx(tx).Create(ctx, a)
	})
	ipts.Require().NoError(err)

	err = m.Tx(ipts.Ctx, func(ctx context.Context, tx repo.Tx) error {
		q := rp.Tx(tx)
		if _, err := q.Get(
			ctx, repo.Where(repo.Eq("id", a.ID)), repo.ForUpdate(),
		); err != nil {
			return err
		}
		_, err := q.AddBalance(ctx, a.ID, decimal.NewFromInt(5))
		return err
	})
	ipts.Require().NoError(err)

	got, err := rp.Pool(m).Get(ipts.Ctx, repo.Where(repo.Eq("id", a.ID)))
	ipts.Require().NoError(err)
	ipts.True(decimal.NewFromInt(15).Equal(got.Balance), got.Balance.String())
	ipts.Zero(m.Stats().InUse)
}
