// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gormdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/ormysql/pkg/core/cerr"
	"github.com/momeni/ormysql/pkg/core/log"
	"github.com/momeni/ormysql/pkg/core/repo"
	"gorm.io/gorm"
)

// resetTimeout bounds the ROLLBACK which resets a manual commit
// session before its connection goes back to the pool.
const resetTimeout = 5 * time.Second

// Lease is an exclusively owned connection of a Pool. It must be
// released exactly once by its Release method. A Lease may not be
// used concurrently.
type Lease struct {
	id       uuid.UUID
	pool     *Pool
	conn     *sql.Conn
	db       *gorm.DB // bound to conn
	acquired time.Time

	inTx     atomic.Bool
	released atomic.Bool
}

func newLease(p *Pool, conn *sql.Conn) *Lease {
	gdb := p.db.Session(&gorm.Session{
		NewDB:   true,
		Context: context.Background(),
	})
	gdb.Statement.ConnPool = conn
	return &Lease{
		id:       uuid.New(),
		pool:     p,
		conn:     conn,
		db:       gdb,
		acquired: time.Now(),
	}
}

// ID identifies l in the logs.
func (l *Lease) ID() uuid.UUID {
	return l.id
}

// InTx reports if a transaction is running on l.
func (l *Lease) InTx() bool {
	return l.inTx.Load()
}

// Session returns a session view of l. It does not transfer the
// ownership; l still has to be released by its owner.
func (l *Lease) Session() *Conn {
	return &Conn{lease: l}
}

// Release returns the connection to its pool. Releasing a lease twice
// is a programming error which is reported by cerr.ErrLeaseReleased.
// If autocommit is disabled, a ROLLBACK is issued first in order to
// discard the implicit transaction of the session.
func (l *Lease) Release() error {
	if !l.released.CompareAndSwap(false, true) {
		log.Error(
			context.Background(), "lease is released twice",
			log.Stringer("lease", l.id),
		)
		return cerr.ErrLeaseReleased
	}
	p := l.pool
	defer func() {
		p.stats.released.Add(1)
		p.sem.Release(1)
	}()
	if p.manualCommit() {
		ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
		_, err := l.conn.ExecContext(ctx, "ROLLBACK")
		cancel()
		if err != nil {
			log.Warn(
				ctx, "resetting session before release",
				log.Stringer("lease", l.id), log.Err("err", err),
			)
		}
	}
	if err := l.conn.Close(); err != nil {
		return fmt.Errorf("closing leased connection: %w", err)
	}
	log.Debug(
		context.Background(), "lease released",
		log.Stringer("lease", l.id),
		slog.Duration("held", time.Since(l.acquired)),
	)
	return nil
}

// GORM returns the gorm handle of l for ctx. It fails if l was
// released already.
func (l *Lease) GORM(ctx context.Context) (*gorm.DB, error) {
	if l.released.Load() {
		return nil, cerr.ErrLeaseReleased
	}
	return l.db.WithContext(ctx), nil
}

// transaction runs h in a new transaction on l. See Pool.Tx.
func (l *Lease) transaction(ctx context.Context, h repo.TxHandler) error {
	tx, err := l.begin(ctx)
	if err != nil {
		return err
	}
	return tx.run(ctx, h)
}

func (l *Lease) begin(ctx context.Context) (*Tx, error) {
	if l.released.Load() {
		return nil, cerr.ErrLeaseReleased
	}
	if !l.inTx.CompareAndSwap(false, true) {
		return nil, cerr.ErrNestedTransactionUnsupported
	}
	// the rollback must stay under our control, so database/sql may
	// not roll back on its own when ctx is cancelled
	gtx := l.db.WithContext(context.WithoutCancel(ctx)).Begin()
	if err := gtx.Error; err != nil {
		l.inTx.Store(false)
		return nil, fmt.Errorf("begin: %w", err)
	}
	l.pool.stats.begun.Add(1)
	return &Tx{DB: gtx, lease: l}, nil
}
