// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gormdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/momeni/ormysql/pkg/core/cerr"
	"github.com/momeni/ormysql/pkg/core/log"
	"github.com/momeni/ormysql/pkg/core/model"
	"github.com/momeni/ormysql/pkg/core/repo"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"
)

// Pool is a bounded set of connections to one database.
// At most Settings.MaxSize leases may be out at the same time; other
// acquirers wait in FIFO order until a lease is released or their
// AcquireTimeout elapses.
type Pool struct {
	db       *gorm.DB
	sqlDB    *sql.DB
	dialect  Dialect
	settings Settings

	sem   *semaphore.Weighted
	stats counters

	closing   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewPool opens a pool for the already normalized s settings. It does
// not try to create a missing database; see Manager.Pool for that.
func newPool(ctx context.Context, s Settings, d Dialect) (*Pool, error) {
	gdb, err := gorm.Open(d.Dialector(s, true), &gorm.Config{
		Logger:                 NewLogger(s.SlowThreshold),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		closeGORM(gdb)
		return nil, fmt.Errorf("gorm.Open: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(s.MaxSize)
	sqlDB.SetMaxIdleConns(s.MaxSize)
	if s.Recycle > 0 {
		sqlDB.SetConnMaxLifetime(s.Recycle)
	}
	p := &Pool{
		db:       gdb,
		sqlDB:    sqlDB,
		dialect:  d,
		settings: s,
		sem:      semaphore.NewWeighted(int64(s.MaxSize)),
	}
	if err = p.warmUp(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("warming up %d connections: %w", s.MinSize, err)
	}
	return p, nil
}

func closeGORM(gdb *gorm.DB) {
	if gdb == nil {
		return
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// warmUp opens MinSize connections and puts them in the idle list.
func (p *Pool) warmUp(ctx context.Context) error {
	conns := make([]*sql.Conn, 0, p.settings.MinSize)
	defer func() {
		for _, c := range conns {
			_ = c.Close()
		}
	}()
	for i := 0; i < p.settings.MinSize; i++ {
		c, err := p.sqlDB.Conn(ctx)
		if err != nil {
			return err
		}
		conns = append(conns, c)
		if err = c.PingContext(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Settings returns the normalized settings of p.
func (p *Pool) Settings() Settings {
	return p.settings
}

// Dialect returns the dialect of p.
func (p *Pool) Dialect() Dialect {
	return p.dialect
}

func (p *Pool) manualCommit() bool {
	return !*p.settings.Autocommit
}

// Acquire leases a connection. It waits up to AcquireTimeout for a free
// connection and returns cerr.ErrPoolExhausted if none was released
// meanwhile. If ctx ends sooner, its error is returned instead.
// The returned lease must be released by its Release method.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	if p.closing.Load() {
		return nil, cerr.ErrPoolClosed
	}
	actx, cancel := context.WithTimeout(ctx, p.settings.AcquireTimeout)
	defer cancel()
	if err := p.sem.Acquire(actx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.stats.exhausted.Add(1)
		log.Warn(
			ctx, "connections pool is exhausted",
			slog.Int("max_size", p.settings.MaxSize),
			slog.Duration("timeout", p.settings.AcquireTimeout),
		)
		return nil, fmt.Errorf(
			"%w: no connection was released in %s",
			cerr.ErrPoolExhausted, p.settings.AcquireTimeout,
		)
	}
	if p.closing.Load() {
		p.sem.Release(1)
		return nil, cerr.ErrPoolClosed
	}
	conn, err := p.conn(actx)
	if err != nil {
		p.sem.Release(1)
		return nil, err
	}
	p.stats.acquired.Add(1)
	l := newLease(p, conn)
	log.Debug(ctx, "lease acquired", log.Stringer("lease", l.id))
	return l, nil
}

// conn takes a connection from the sql.DB pool, checking its liveness
// if KeepAlive is enabled. A dead connection is replaced once.
func (p *Pool) conn(ctx context.Context) (*sql.Conn, error) {
	for attempt := 0; ; attempt++ {
		c, err := p.sqlDB.Conn(ctx)
		if err != nil {
			return nil, fmt.Errorf("taking a connection: %w", err)
		}
		if !p.settings.KeepAlive {
			return c, nil
		}
		err = c.PingContext(ctx)
		if err == nil {
			return c, nil
		}
		discardConn(c)
		if attempt > 0 || ctx.Err() != nil {
			return nil, fmt.Errorf("pinging a connection: %w", err)
		}
		log.Warn(ctx, "replacing a dead connection", log.Err("err", err))
	}
}

// discardConn closes c and removes it from the sql.DB pool, so it is
// not handed out again as an idle connection.
func discardConn(c *sql.Conn) {
	_ = c.Raw(func(any) error {
		return driver.ErrBadConn
	})
	_ = c.Close()
}

// Conn leases a connection, passes its session view to f, and releases
// it when f returns or panics. The error of f is returned unchanged.
func (p *Pool) Conn(ctx context.Context, f repo.ConnHandler) error {
	l, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release(ctx, l)
	return f(ctx, l.Session())
}

// Tx leases a connection and runs f in a transaction on it. A nil error
// of f is followed by COMMIT; an error or a panic of f, or the end of
// ctx, is followed by ROLLBACK. The lease is released in all cases.
// The error of f is returned unchanged, unless the ROLLBACK fails too
// (see cerr.RollbackError). A failed COMMIT is reported by an error
// which wraps cerr.ErrTransactionFailed.
func (p *Pool) Tx(ctx context.Context, f repo.TxHandler) error {
	l, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release(ctx, l)
	return l.transaction(ctx, f)
}

// Once runs f on a fresh lease. If autocommit is disabled, f runs in
// a transaction, so its changes are committed when it succeeds.
func (p *Pool) Once(ctx context.Context, f repo.QueryHandler) error {
	if p.manualCommit() {
		return p.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			return f(ctx, tx)
		})
	}
	return p.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return f(ctx, c)
	})
}

func release(ctx context.Context, l *Lease) {
	if err := l.Release(); err != nil {
		log.Error(
			ctx, "releasing lease",
			log.Stringer("lease", l.id), log.Err("err", err),
		)
	}
}

// Stats returns a snapshot of the p counters.
func (p *Pool) Stats() model.PoolStats {
	s := p.stats.snapshot()
	dbs := p.sqlDB.Stats()
	s.Dialect = p.dialect.Name()
	s.MaxSize = p.settings.MaxSize
	s.Open = dbs.OpenConnections
	s.Idle = dbs.Idle
	s.Closed = p.closing.Load()
	return s
}

// Close stops new acquisitions, waits up to DrainTimeout (or until ctx
// ends) for the leased connections to be released, and closes all
// connections. Leases which are still out after the wait are closed
// forcefully. Close may be called several times; only the first call
// closes the pool and the later calls return its result.
func (p *Pool) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.closeErr = p.close(ctx)
	})
	return p.closeErr
}

func (p *Pool) close(ctx context.Context) error {
	p.closing.Store(true)
	dctx, cancel := context.WithTimeout(ctx, p.settings.DrainTimeout)
	defer cancel()
	if err := p.sem.Acquire(dctx, int64(p.settings.MaxSize)); err != nil {
		s := p.stats.snapshot()
		log.Warn(
			ctx, "closing connections pool forcefully",
			slog.Int64("in_use", s.InUse),
			slog.Duration("drain_timeout", p.settings.DrainTimeout),
			log.Err("err", err),
		)
	}
	if err := p.sqlDB.Close(); err != nil {
		return fmt.Errorf("closing sql.DB: %w", err)
	}
	log.Info(ctx, "connections pool is closed", log.Valuer("settings", p.settings))
	return nil
}
