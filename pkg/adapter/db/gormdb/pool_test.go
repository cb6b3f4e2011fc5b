// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gormdb_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momeni/ormysql/internal/test/sqlitedb"
	"github.com/momeni/ormysql/pkg/adapter/db/gormdb"
	"github.com/momeni/ormysql/pkg/core/cerr"
	"github.com/momeni/ormysql/pkg/core/repo"
	"github.com/stretchr/testify/suite"
)

var errBoom = errors.New("boom")

type PoolTestSuite struct {
	suite.Suite

	Ctx context.Context
	M   *gormdb.Manager
}

func TestPoolTestSuite(t *testing.T) {
	suite.Run(t, &PoolTestSuite{Ctx: context.Background()})
}

func (pts *PoolTestSuite) SetupTest() {
	pts.M = sqlitedb.New(pts.T())
	err := pts.M.Conn(pts.Ctx, func(ctx context.Context, c repo.Conn) error {
		_, err := c.Exec(
			ctx,
			"CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL)",
		)
		return err
	})
	pts.Require().NoError(err, "creating items table")
}

func (pts *PoolTestSuite) insertItem(ctx context.Context, q repo.Queryer) error {
	n, err := q.Exec(ctx, "INSERT INTO items(name) VALUES (?)", "item")
	if err == nil {
		pts.Equal(int64(1), n, "tried to INSERT one item")
	}
	return err
}

func (pts *PoolTestSuite) countItems() int64 {
	var n int64
	err := pts.M.Once(pts.Ctx, func(ctx context.Context, q repo.Queryer) error {
		rows, err := q.Query(ctx, "SELECT count(*) FROM items")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			if err := rows.Scan(&n); err != nil {
				return err
			}
		}
		return rows.Err()
	})
	pts.Require().NoError(err, "counting items")
	return n
}

func (pts *PoolTestSuite) TestCommitOnce() {
	err := pts.M.Tx(pts.Ctx, func(ctx context.Context, tx repo.Tx) error {
		return pts.insertItem(ctx, tx)
	})
	pts.Require().NoError(err)
	s := pts.M.Stats()
	pts.Equal(int64(1), s.Committed)
	pts.Zero(s.RolledBack)
	pts.Zero(s.InUse)
	pts.Equal(int64(1), pts.countItems())
}

func (pts *PoolTestSuite) TestRollbackOnError() {
	err := pts.M.Tx(pts.Ctx, func(ctx context.Context, tx repo.Tx) error {
		if err := pts.insertItem(ctx, tx); err != nil {
			return err
		}
		return errBoom
	})
	pts.ErrorIs(err, errBoom)
	s := pts.M.Stats()
	pts.Zero(s.Committed)
	pts.Equal(int64(1), s.RolledBack)
	pts.Zero(pts.countItems())
}

func (pts *PoolTestSuite) TestRollbackOnPanic() {
	pts.PanicsWithValue("boom", func() {
		_ = pts.M.Tx(pts.Ctx, func(ctx context.Context, tx repo.Tx) error {
			pts.Require().NoError(pts.insertItem(ctx, tx))
			panic("boom")
		})
	})
	s := pts.M.Stats()
	pts.Equal(int64(1), s.RolledBack)
	pts.Zero(s.InUse, "panicking handler must release its lease")
	pts.Zero(pts.countItems())
}

func (pts *PoolTestSuite) TestRollbackOnCancel() {
	ctx, cancel := context.WithCancel(pts.Ctx)
	defer cancel()
	err := pts.M.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
		if err := pts.insertItem(ctx, tx); err != nil {
			return err
		}
		cancel()
		return nil
	})
	pts.ErrorIs(err, context.Canceled)
	pts.Equal(int64(1), pts.M.Stats().RolledBack)
	pts.Zero(pts.countItems())
}

func (pts *PoolTestSuite) TestCommitFailure() {
	err := pts.M.Tx(pts.Ctx, func(ctx context.Context, tx repo.Tx) error {
		if err := pts.insertItem(ctx, tx); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, "COMMIT")
		return err
	})
	pts.ErrorIs(err, cerr.ErrTransactionFailed)
	s := pts.M.Stats()
	pts.Zero(s.Committed)
	pts.Zero(s.InUse)
}

func (pts *PoolTestSuite) TestRollbackFailureKeepsHandlerError() {
	err := pts.M.Tx(pts.Ctx, func(ctx context.Context, tx repo.Tx) error {
		if _, err := tx.Exec(ctx, "COMMIT"); err != nil {
			return err
		}
		return errBoom
	})
	pts.ErrorIs(err, errBoom)
	pts.ErrorIs(err, cerr.ErrTransactionFailed)
	var rbErr *cerr.RollbackError
	pts.Require().ErrorAs(err, &rbErr)
	pts.Error(rbErr.Rollback)
	pts.Zero(pts.M.Stats().InUse)
}

func (pts *PoolTestSuite) TestNestedTransaction() {
	err := pts.M.Conn(pts.Ctx, func(ctx context.Context, c repo.Conn) error {
		err := c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			return c.Tx(ctx, func(context.Context, repo.Tx) error {
				return nil
			})
		})
		pts.ErrorIs(err, cerr.ErrNestedTransactionUnsupported)
		// the connection accepts a new transaction afterwards
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			return pts.insertItem(ctx, tx)
		})
	})
	pts.Require().NoError(err)
	pts.Equal(int64(1), pts.countItems())
}

func (pts *PoolTestSuite) TestConnWithoutTransaction() {
	err := pts.M.Conn(pts.Ctx, func(ctx context.Context, c repo.Conn) error {
		return pts.insertItem(ctx, c)
	})
	pts.Require().NoError(err)
	s := pts.M.Stats()
	pts.Zero(s.Begun)
	pts.Equal(int64(1), pts.countItems())
}

func (pts *PoolTestSuite) TestOnceCommitsImplicitly() {
	err := pts.M.Once(pts.Ctx, func(ctx context.Context, q repo.Queryer) error {
		return pts.insertItem(ctx, q)
	})
	pts.Require().NoError(err)
	pts.Equal(int64(1), pts.countItems())
}

func (pts *PoolTestSuite) TestDoubleRelease() {
	released := pts.M.Stats().Released
	l, err := pts.M.Acquire(pts.Ctx)
	pts.Require().NoError(err)
	pts.Equal(int64(1), pts.M.Stats().InUse)
	pts.NoError(l.Release())
	pts.ErrorIs(l.Release(), cerr.ErrLeaseReleased)
	_, err = l.Session().Exec(pts.Ctx, "SELECT 1")
	pts.ErrorIs(err, cerr.ErrLeaseReleased)
	s := pts.M.Stats()
	pts.Zero(s.InUse)
	pts.Equal(released+1, s.Released)
}

func (pts *PoolTestSuite) TestQueryValues() {
	err := pts.M.Conn(pts.Ctx, func(ctx context.Context, c repo.Conn) error {
		if err := pts.insertItem(ctx, c); err != nil {
			return err
		}
		rows, err := c.Query(ctx, "SELECT id, name FROM items")
		if err != nil {
			return err
		}
		defer rows.Close()
		pts.Require().True(rows.Next())
		vals, err := rows.Values()
		pts.Require().NoError(err)
		pts.Require().Len(vals, 2)
		pts.EqualValues(1, vals[0])
		pts.Equal("item", fmt.Sprintf("%s", vals[1]))
		pts.False(rows.Next())
		return rows.Err()
	})
	pts.NoError(err)
}

func (pts *PoolTestSuite) TestCloseIsIdempotent() {
	pts.Require().NoError(pts.M.Conn(pts.Ctx, func(context.Context, repo.Conn) error {
		return nil
	}))
	pts.False(pts.M.Stats().Closed)
	pts.NoError(pts.M.Close(pts.Ctx))
	pts.NoError(pts.M.Close(pts.Ctx))
	pts.True(pts.M.Stats().Closed)

	// a new pool is created lazily, keeping the database contents
	pts.Zero(pts.countItems())
	pts.False(pts.M.Stats().Closed)
}

func (pts *PoolTestSuite) TestClosedPoolRejectsLeases() {
	p, err := pts.M.Pool(pts.Ctx)
	pts.Require().NoError(err)
	pts.Require().NoError(p.Close(pts.Ctx))
	_, err = p.Acquire(pts.Ctx)
	pts.ErrorIs(err, cerr.ErrPoolClosed)
	pts.NoError(p.Close(pts.Ctx), "closing twice")
}

func (pts *PoolTestSuite) TestCloseWaitsForLeases() {
	l, err := pts.M.Acquire(pts.Ctx)
	pts.Require().NoError(err)
	var released atomic.Bool
	go func() {
		time.Sleep(50 * time.Millisecond)
		released.Store(true)
		_ = l.Release()
	}()
	pts.NoError(pts.M.Close(pts.Ctx))
	pts.True(released.Load(), "Close returned before the lease release")
}

func (pts *PoolTestSuite) TestNoSecondPoolWhileDraining() {
	m := sqlitedb.New(pts.T(), func(s *gormdb.Settings) {
		s.DrainTimeout = time.Minute
	})
	settings, err := m.Settings()
	pts.Require().NoError(err)
	old, err := m.Pool(pts.Ctx)
	pts.Require().NoError(err)
	l, err := m.Acquire(pts.Ctx)
	pts.Require().NoError(err)
	closed := make(chan error, 1)
	go func() {
		closed <- m.Close(pts.Ctx)
	}()
	pts.Require().Eventually(func() bool {
		return m.Stats().Closed
	}, 5*time.Second, time.Millisecond)

	pts.ErrorIs(m.Configure(settings), cerr.ErrConfigurationLocked)
	_, err = m.Pool(pts.Ctx)
	pts.ErrorIs(err, cerr.ErrPoolClosed)
	_, err = m.Acquire(pts.Ctx)
	pts.ErrorIs(err, cerr.ErrPoolClosed)

	pts.Require().NoError(l.Release())
	pts.NoError(<-closed)
	pts.NoError(m.Configure(settings))
	p, err := m.Pool(pts.Ctx)
	pts.Require().NoError(err)
	pts.NotSame(old, p)
}

func (pts *PoolTestSuite) TestDeadConnectionIsDiscarded() {
	p, err := pts.M.Pool(pts.Ctx)
	pts.Require().NoError(err)
	db := gormdb.SQLDB(p)
	c, err := db.Conn(pts.Ctx)
	pts.Require().NoError(err)
	open := db.Stats().OpenConnections
	gormdb.DiscardConn(c)
	s := db.Stats()
	pts.Equal(open-1, s.OpenConnections)
	pts.Zero(s.InUse)

	c, err = db.Conn(pts.Ctx)
	pts.Require().NoError(err)
	open = db.Stats().OpenConnections
	pts.Require().NoError(c.Close())
	pts.Equal(open, db.Stats().OpenConnections, "closing keeps it idle")
}

func (pts *PoolTestSuite) TestCloseForcefullyAfterDrainTimeout() {
	m := sqlitedb.New(pts.T(), func(s *gormdb.Settings) {
		s.DrainTimeout = 50 * time.Millisecond
	})
	l, err := m.Acquire(pts.Ctx)
	pts.Require().NoError(err)
	start := time.Now()
	pts.NoError(m.Close(pts.Ctx))
	pts.Less(time.Since(start), 5*time.Second)
	_ = l.Release()
}

func (pts *PoolTestSuite) TestExhausted() {
	m := sqlitedb.New(pts.T(), func(s *gormdb.Settings) {
		s.MaxSize = 1
		s.AcquireTimeout = 50 * time.Millisecond
	})
	l, err := m.Acquire(pts.Ctx)
	pts.Require().NoError(err)
	_, err = m.Acquire(pts.Ctx)
	pts.ErrorIs(err, cerr.ErrPoolExhausted)
	pts.Equal(int64(1), m.Stats().Exhausted)

	// the caller deadline wins over the acquire timeout
	ctx, cancel := context.WithTimeout(pts.Ctx, time.Millisecond)
	defer cancel()
	_, err = m.Acquire(ctx)
	pts.ErrorIs(err, context.DeadlineExceeded)

	pts.Require().NoError(l.Release())
	l, err = m.Acquire(pts.Ctx)
	pts.Require().NoError(err, "released connection must be reusable")
	pts.NoError(l.Release())
}

func (pts *PoolTestSuite) TestWaitingAcquirerGetsReleasedLease() {
	m := sqlitedb.New(pts.T(), func(s *gormdb.Settings) {
		s.MaxSize = 1
		s.AcquireTimeout = 5 * time.Second
	})
	l, err := m.Acquire(pts.Ctx)
	pts.Require().NoError(err)
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = l.Release()
	}()
	l2, err := m.Acquire(pts.Ctx)
	pts.Require().NoError(err)
	pts.NoError(l2.Release())
	pts.Zero(m.Stats().Exhausted)
}
