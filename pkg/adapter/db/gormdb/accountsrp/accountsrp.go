// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package accountsrp implements the repo.Accounts repository on top of
// the generic modelrp repository, adding the balance update operation.
package accountsrp

import (
	"context"
	"fmt"

	"github.com/momeni/ormysql/pkg/adapter/db/gormdb/modelrp"
	"github.com/momeni/ormysql/pkg/core/cerr"
	"github.com/momeni/ormysql/pkg/core/model"
	"github.com/momeni/ormysql/pkg/core/repo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Repo struct {
}

var _ repo.Accounts = Repo{}

func New() Repo {
	return Repo{}
}

func (r Repo) On(rt repo.Route) repo.AccountsQueryer {
	return AccountsQueryer{Queryer: modelrp.Bind[model.Account](rt)}
}

func (r Repo) Conn(c repo.Conn) repo.AccountsQueryer {
	return r.On(repo.Via(c))
}

func (r Repo) Tx(tx repo.Tx) repo.AccountsQueryer {
	return r.On(repo.Via(tx))
}

func (r Repo) Pool(p repo.Pool) repo.AccountsQueryer {
	return r.On(repo.Ephemeral(p))
}

type AccountsQueryer struct {
	*modelrp.Queryer[model.Account]
}

// AddBalance adds delta to the balance of the id account atomically,
// computing the new balance by the DBMS, and then reads the account
// back on the same route.
func (aq AccountsQueryer) AddBalance(
	ctx context.Context, id uint, delta decimal.Decimal,
) (*model.Account, error) {
	a := &model.Account{}
	err := aq.Run(ctx, func(_ context.Context, gdb *gorm.DB, _ *schema.Schema) error {
		res := gdb.Session(&gorm.Session{}).Where("id = ?", id).Update(
			"balance", gorm.Expr("balance + ?", delta),
		)
		if err := res.Error; err != nil {
			return fmt.Errorf("updating account %d balance: %w", id, err)
		}
		if res.RowsAffected == 0 {
			return cerr.NotFound(fmt.Errorf(
				"account %d: %w", id, repo.ErrNoRows,
			))
		}
		if err := gdb.Session(&gorm.Session{}).First(a, id).Error; err != nil {
			return fmt.Errorf("reading account %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
