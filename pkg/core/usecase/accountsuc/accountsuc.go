// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package accountsuc contains the accounts UseCase which supports the
// accounts related use cases:
//  1. Opening an account,
//  2. Reading and listing accounts,
//  3. Depositing into an account,
//  4. Transferring money between two accounts atomically.
package accountsuc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/momeni/ormysql/pkg/core/cerr"
	"github.com/momeni/ormysql/pkg/core/log"
	"github.com/momeni/ormysql/pkg/core/model"
	"github.com/momeni/ormysql/pkg/core/repo"
	"github.com/shopspring/decimal"
)

// ErrEmptyOwner is returned when an account is opened without owner.
var ErrEmptyOwner = errors.New("account owner is empty")

// UseCase represents the accounts use case. It holds a database
// connections pool, the accounts repository instance (to be guided
// with the pool or its leases), and the use case specific settings.
type UseCase struct {
	pool       repo.Pool
	accountsrp repo.Accounts

	maxTransfer decimal.Decimal // zero means unlimited
}

// New instantiates an accounts use case.
// Required parameters are passed individually while the optional
// ones are passed as functional options.
func New(p repo.Pool, a repo.Accounts, opts ...Option) (*UseCase, error) {
	uc := &UseCase{pool: p, accountsrp: a}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	return uc, nil
}

// Open use case creates an account for owner with the initial
// balance, returning the created account.
func (accounts *UseCase) Open(
	ctx context.Context, owner string, initial decimal.Decimal,
) (*model.Account, error) {
	switch {
	case owner == "":
		return nil, cerr.BadRequest(ErrEmptyOwner)
	case initial.IsNegative():
		return nil, cerr.BadRequest(model.ErrNonPositiveAmount)
	}
	a := &model.Account{Owner: owner, Balance: initial}
	err := accounts.accountsrp.Pool(accounts.pool).Create(ctx, a)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Get use case returns the id account using a fresh lease.
func (accounts *UseCase) Get(ctx context.Context, id uint) (*model.Account, error) {
	return accounts.accountsrp.Pool(accounts.pool).Get(
		ctx, repo.Where(repo.Eq("id", id)),
	)
}

// List use case returns the accounts which match the lookups (in the
// field__op syntax, see repo.ParseLookups), ordered by their ids.
func (accounts *UseCase) List(
	ctx context.Context, lookups map[string]any, limit int,
) ([]model.Account, error) {
	f, err := repo.ParseLookups(lookups)
	if err != nil {
		return nil, cerr.BadRequest(err)
	}
	return accounts.accountsrp.Pool(accounts.pool).Filter(
		ctx, f, repo.OrderBy("id"), repo.Limit(limit),
	)
}

// Deposit use case adds amount to the id account balance.
func (accounts *UseCase) Deposit(
	ctx context.Context, id uint, amount decimal.Decimal,
) (*model.Account, error) {
	if !amount.IsPositive() {
		return nil, cerr.BadRequest(model.ErrNonPositiveAmount)
	}
	return accounts.accountsrp.Pool(accounts.pool).AddBalance(ctx, id, amount)
}

// Transfer use case debits t.Amount from the t.From account and
// credits it to the t.To account in one transaction. Both accounts
// are read (and locked, where supported) before any update, so an
// insufficient balance fails the transfer without touching either of
// them. The updated accounts are returned.
func (accounts *UseCase) Transfer(
	ctx context.Context, t model.Transfer,
) (from, to *model.Account, err error) {
	if err = t.Validate(); err != nil {
		return nil, nil, cerr.BadRequest(err)
	}
	if accounts.maxTransfer.IsPositive() && t.Amount.GreaterThan(accounts.maxTransfer) {
		return nil, nil, cerr.Unprocessable(fmt.Errorf(
			"%w: %s exceeds %s", ErrTransferLimit, t.Amount, accounts.maxTransfer,
		))
	}
	err = accounts.pool.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
		q := accounts.accountsrp.Tx(tx)
		if err := lockInOrder(ctx, q, t.From, t.To); err != nil {
			return err
		}
		src, err := q.Get(ctx, repo.Where(repo.Eq("id", t.From)))
		if err != nil {
			return err
		}
		if src.Balance.LessThan(t.Amount) {
			return cerr.Unprocessable(fmt.Errorf(
				"%w: account %d has %s, transferring %s",
				model.ErrInsufficientFunds, src.ID, src.Balance, t.Amount,
			))
		}
		if from, err = q.AddBalance(ctx, t.From, t.Amount.Neg()); err != nil {
			return err
		}
		to, err = q.AddBalance(ctx, t.To, t.Amount)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info(
		ctx, "transfer is committed",
		slog.Uint64("from", uint64(t.From)),
		slog.Uint64("to", uint64(t.To)),
		slog.String("amount", t.Amount.String()),
	)
	return from, to, nil
}

// lockInOrder locks the ids accounts in their ascending order, so
// concurrent transfers between the same accounts cannot deadlock.
// It fails with a not found error if any of them is missing.
func lockInOrder(ctx context.Context, q repo.AccountsQueryer, a, b uint) error {
	if a > b {
		a, b = b, a
	}
	for _, id := range []uint{a, b} {
		_, err := q.Get(ctx, repo.Where(repo.Eq("id", id)), repo.ForUpdate())
		if err != nil {
			return err
		}
	}
	return nil
}
