// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"
	"errors"
)

// ErrNoRows is wrapped by the errors which report a missing row.
var ErrNoRows = errors.New("no rows in result set")

// ErrUnfiltered is returned by the bulk Update and Delete operations
// when they are called with an empty Filter.
var ErrUnfiltered = errors.New("refusing to modify all rows without a filter")

// ModelQueryer provides the CRUD operations of a T model on one Route.
type ModelQueryer[T any] interface {
	// Create inserts m and fills its auto-generated primary key.
	Create(ctx context.Context, m *T) error

	All(ctx context.Context, opts ...Option) ([]T, error)
	Filter(ctx context.Context, f Filter, opts ...Option) ([]T, error)

	// Get returns the first row matching f or a cerr.NotFound error
	// wrapping ErrNoRows.
	Get(ctx context.Context, f Filter, opts ...Option) (*T, error)

	// GetOrCreate returns the first row matching f. If there is none,
	// init is inserted and returned. The created flag reports which
	// case happened. It should run on a transaction route in order to
	// make the lookup and insertion atomic.
	GetOrCreate(ctx context.Context, f Filter, init *T) (
		m *T, created bool, err error,
	)

	// Update sets the updates columns on all rows matching f and
	// returns the number of affected rows. The f may not be empty.
	Update(ctx context.Context, f Filter, updates map[string]any) (int64, error)

	// Delete removes all rows matching f and returns their count.
	// The f may not be empty.
	Delete(ctx context.Context, f Filter) (int64, error)

	Count(ctx context.Context, f Filter) (int64, error)
	Exists(ctx context.Context, f Filter) (bool, error)
}

// Models is a repository of T models. Each method binds the repository
// to a Route and returns the bound queryer.
type Models[T any] interface {
	On(r Route) ModelQueryer[T]
	Conn(c Conn) ModelQueryer[T]
	Tx(tx Tx) ModelQueryer[T]
	Pool(p Pool) ModelQueryer[T]
}
