// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gormdb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/momeni/ormysql/pkg/core/cerr"
	"github.com/momeni/ormysql/pkg/core/log"
	"github.com/momeni/ormysql/pkg/core/repo"
	"gorm.io/gorm"
)

// Tx represents a database transaction.
// It is unsafe to be used concurrently. A transaction may be used
// in order to execute one or more SQL statements one at a time.
// For statement execution methods, see the Queryer interface.
// Tx is only valid while its handler runs; it ends by exactly one
// COMMIT or ROLLBACK when the handler returns.
type Tx struct {
	DB    *gorm.DB // the gorm transaction, bound to the lease connection
	lease *Lease
}

// Exec runs SQL statements with given args given ctx context.
// Number of affected rows and possible errors will be returned.
// If args is provided, sql will be prepared and args will be passed
// separately to the DBMS in order to prevent SQL injection.
// Parameters in sql may be given by the ? and @name placeholders
// and gorm converts them to the syntax of the current dialect.
func (tx *Tx) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return exec(tx.GORM(ctx), sql, args...)
}

// Query runs SQL statement with given args given ctx context.
// The result set is returned as the Rows interface, while errors
// are returned as the second return value (if any).
// The Query or Exec may not be called again until the Rows is
// closed since only one ongoing statement may be used on each
// connection.
func (tx *Tx) Query(ctx context.Context, sql string, args ...any) (repo.Rows, error) {
	return query(tx.GORM(ctx), sql, args...)
}

// IsTx method prevents a non-Tx object (such as a Conn) to
// mistakenly implement the Tx interface.
func (tx *Tx) IsTx() {
}

// GORM returns the gorm transaction handle, configuring it
// to operate on the given ctx context (in a gorm.Session).
func (tx *Tx) GORM(ctx context.Context) *gorm.DB {
	return handle(ctx, tx.lease, tx.DB)
}

// Lease returns the lease which backs tx.
func (tx *Tx) Lease() *Lease {
	return tx.lease
}

// run calls h and then either commits or rolls back tx.
// A panic in h is rolled back and then propagated to the caller.
// A nil error of h is not committed if ctx is done meanwhile.
func (tx *Tx) run(ctx context.Context, h repo.TxHandler) (err error) {
	defer tx.lease.inTx.Store(false)
	defer func() {
		if r := recover(); r != nil {
			_ = tx.rollback(ctx, fmt.Errorf("panicked: %v", r))
			panic(r)
		}
	}()
	err = h(ctx, tx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return tx.rollback(ctx, err)
	}
	return tx.commit(ctx)
}

func (tx *Tx) commit(ctx context.Context) error {
	if err := tx.DB.Commit().Error; err != nil {
		log.Error(
			ctx, "commit failed",
			log.Stringer("lease", tx.lease.id), log.Err("err", err),
		)
		return fmt.Errorf("%w: commit: %w", cerr.ErrTransactionFailed, err)
	}
	tx.lease.pool.stats.committed.Add(1)
	return nil
}

// rollback rolls tx back because of the cause error and returns the
// error which should be reported to the caller. That is cause itself
// unless the rollback fails too.
func (tx *Tx) rollback(ctx context.Context, cause error) error {
	tx.lease.pool.stats.rolledBack.Add(1)
	if err := tx.DB.Rollback().Error; err != nil {
		log.Error(
			ctx, "rollback failed",
			log.Stringer("lease", tx.lease.id),
			log.Err("cause", cause),
			log.Err("err", err),
		)
		return &cerr.RollbackError{Err: cause, Rollback: err}
	}
	log.Debug(
		ctx, "transaction rolled back",
		log.Stringer("lease", tx.lease.id),
		slog.String("cause", cause.Error()),
	)
	return cause
}
