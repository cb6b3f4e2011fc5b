// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package gormdb is an adapter which implements the repo.Pool, repo.Conn,
// and repo.Tx interfaces on top of gorm and its mysql, postgres, and
// sqlite drivers.
//
// A Manager keeps the connection Settings and creates one bounded Pool
// lazily, on its first use. A Pool hands out exclusively owned leases
// of its connections, wraps them as sessions (Conn) or transactions
// (Tx), and releases them when their handlers return. Missing
// databases are created automatically once, before failing the pool
// creation with cerr.ErrPoolCreationFailed.
package gormdb

import (
	"context"

	"github.com/momeni/ormysql/pkg/core/repo"
	"gorm.io/gorm"
)

var defaultManager = NewManager()

// Default returns the process wide Manager.
func Default() *Manager {
	return defaultManager
}

// Configure configures the process wide Manager.
// See Manager.Configure.
func Configure(s Settings) error {
	return defaultManager.Configure(s)
}

// Queryer is a repo.Queryer which also exposes its gorm handle.
// Both of Conn and Tx implement it.
type Queryer interface {
	repo.Queryer

	// GORM returns a gorm handle which runs its statements on the
	// connection (or transaction) of this Queryer using ctx.
	GORM(ctx context.Context) *gorm.DB
}

var (
	_ Queryer   = (*Conn)(nil)
	_ Queryer   = (*Tx)(nil)
	_ repo.Conn = (*Conn)(nil)
	_ repo.Tx   = (*Tx)(nil)
	_ repo.Pool = (*Pool)(nil)
)

// GORM returns the gorm handle of q for ctx. It panics if q was not
// created by this package, because mixing adapters is a programming
// error.
func GORM(ctx context.Context, q repo.Queryer) *gorm.DB {
	return q.(Queryer).GORM(ctx)
}
