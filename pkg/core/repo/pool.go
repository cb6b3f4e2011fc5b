// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package repo contains the repository interfaces which are required
// by the use cases layer. Use cases never open connections themselves;
// they ask a Pool to lease a connection (or a transaction) for the
// duration of a handler function and pass the leased Conn or Tx to
// the repositories. Leases are always released when the handler
// returns, whether it returns an error, panics, or its context ends.
package repo

import (
	"context"

	"github.com/momeni/ormysql/pkg/core/model"
)

// ConnHandler is called with a leased session connection.
type ConnHandler func(context.Context, Conn) error

// QueryHandler is called with a Queryer which is either a session
// connection or a transaction, depending on how the caller routed it.
type QueryHandler func(context.Context, Queryer) error

// Pool is a bounded set of reusable database connections.
type Pool interface {
	// Conn leases one connection, passes it to handler, and releases
	// it afterwards. No BEGIN or COMMIT is issued; statements run with
	// the session defaults of the connection. If autocommit is disabled
	// (the MySQL default), the release issues ROLLBACK, so writes of a
	// session are discarded; use Tx or Once for writes.
	// The handler error is returned unchanged.
	Conn(ctx context.Context, handler ConnHandler) error

	// Tx leases one connection, issues BEGIN, and passes the resulting
	// transaction to handler. A nil handler error is followed by COMMIT
	// while an error, a panic, or a cancelled ctx is followed by
	// ROLLBACK. The connection is released in all cases.
	Tx(ctx context.Context, handler TxHandler) error

	// Once leases a fresh connection for a single repository operation
	// which was not given a lease by its caller. Depending on the pool
	// settings, the operation may run in an implicit transaction.
	Once(ctx context.Context, handler QueryHandler) error
}

// StatsReporter is implemented by pools which count their leases and
// transactions.
type StatsReporter interface {
	Stats() model.PoolStats
}
