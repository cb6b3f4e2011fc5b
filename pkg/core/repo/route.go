// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"
	"errors"
)

// ErrNoRoute is returned when a zero Route is used.
var ErrNoRoute = errors.New("route has neither a queryer nor a pool")

// Route decides where the statements of one repository operation run.
// It is either a caller supplied Queryer (a leased Conn or an open Tx,
// see Via) or a Pool which leases a fresh connection per operation
// (see Ephemeral). The choice is made once, when the Route is built,
// so repositories never have to check for a missing lease themselves.
type Route struct {
	q Queryer
	p Pool
}

// Via routes operations to q. The caller owns q and is responsible for
// its release (or its commit), so a repository which runs on a Via
// route may be called several times within a single transaction.
func Via(q Queryer) Route {
	return Route{q: q}
}

// Ephemeral routes each operation to a fresh lease from p.
func Ephemeral(p Pool) Route {
	return Route{p: p}
}

// Run calls h with the routed Queryer.
func (r Route) Run(ctx context.Context, h QueryHandler) error {
	switch {
	case r.q != nil:
		return h(ctx, r.q)
	case r.p != nil:
		return r.p.Once(ctx, h)
	default:
		return ErrNoRoute
	}
}

// CallerSupplied reports if r was built by Via.
func (r Route) CallerSupplied() bool {
	return r.q != nil
}
