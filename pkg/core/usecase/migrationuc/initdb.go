// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/momeni/ormysql/pkg/core/log"
	"github.com/momeni/ormysql/pkg/core/model"
	"github.com/momeni/ormysql/pkg/core/repo"
	"github.com/shopspring/decimal"
)

// InitDBUseCase represents the database initialization use case.
// It fills the users, user_metas, and accounts tables with sample
// rows, so a development environment has something to work with.
type InitDBUseCase struct {
	pool     repo.Pool
	users    repo.Models[model.User]
	metas    repo.Models[model.UserMeta]
	accounts repo.Accounts
}

// NewInitDB instantiates an InitDBUseCase.
func NewInitDB(
	p repo.Pool,
	users repo.Models[model.User],
	metas repo.Models[model.UserMeta],
	accounts repo.Accounts,
) *InitDBUseCase {
	return &InitDBUseCase{
		pool:     p,
		users:    users,
		metas:    metas,
		accounts: accounts,
	}
}

type sample struct {
	name, email, role string
	balance           int64
}

var samples = []sample{
	{"Alice", "alice@example.com", "admin", 1000},
	{"Bob", "bob@example.com", "member", 500},
	{"Carol", "carol@example.com", "member", 0},
}

// InitDev inserts the sample users (and their metas and accounts) in
// one transaction. Users which exist already (by their email) are kept
// as is, so InitDev may be called repeatedly. The number of the newly
// inserted users is returned.
func (iduc *InitDBUseCase) InitDev(ctx context.Context) (n int, err error) {
	err = iduc.pool.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
		n = 0
		users := iduc.users.Tx(tx)
		metas := iduc.metas.Tx(tx)
		accounts := iduc.accounts.Tx(tx)
		for _, s := range samples {
			u, created, err := users.GetOrCreate(
				ctx,
				repo.Where(repo.Eq("email", s.email)),
				&model.User{Name: s.name, Email: s.email, Active: true},
			)
			if err != nil {
				return fmt.Errorf("user %q: %w", s.email, err)
			}
			if !created {
				continue
			}
			n++
			err = metas.Create(ctx, &model.UserMeta{
				UserID: u.ID, Key: "role", Value: s.role,
			})
			if err != nil {
				return fmt.Errorf("user %q meta: %w", s.email, err)
			}
			err = accounts.Create(ctx, &model.Account{
				Owner: s.email, Balance: decimal.NewFromInt(s.balance),
			})
			if err != nil {
				return fmt.Errorf("user %q account: %w", s.email, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("initializing sample data: %w", err)
	}
	log.Info(ctx, "sample data is initialized", slog.Int("users", n))
	return n, nil
}
