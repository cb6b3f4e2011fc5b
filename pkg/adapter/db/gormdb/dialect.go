// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gormdb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"
)

// Dialect adapts one DBMS (and its gorm driver) to the Manager.
type Dialect interface {
	// Name is the name which selects this dialect in Settings.
	Name() string

	// DefaultPort is used when Settings.Port is zero.
	DefaultPort() int

	// NeedsServer reports if host, user, and a plain identifier name
	// are required, as opposed to a local file name.
	NeedsServer() bool

	// ManualCommit reports if autocommit can be disabled per session.
	ManualCommit() bool

	// Dialector returns a gorm dialector for s. If selectDB is false,
	// the returned dialector connects to the server without selecting
	// the s.Name database, so it may be used to create that database.
	Dialector(s Settings, selectDB bool) gorm.Dialector

	// IsUnknownDatabase reports if err was caused by a missing
	// database while connecting.
	IsUnknownDatabase(err error) bool

	// CreateDatabase creates the name database using the admin
	// connection, unless it exists already. The created flag reports
	// if a new database was created.
	CreateDatabase(ctx context.Context, admin *gorm.DB, name string) (created bool, err error)
}

var dialects = struct {
	sync.RWMutex
	m map[string]Dialect
}{
	m: map[string]Dialect{},
}

func init() {
	RegisterDialect(MySQL)
	RegisterDialect(Postgres)
	RegisterDialect(SQLite)
}

// RegisterDialect makes d available by its name. It replaces any
// dialect which was registered with the same name before.
func RegisterDialect(d Dialect) {
	dialects.Lock()
	defer dialects.Unlock()
	dialects.m[d.Name()] = d
}

// LookupDialect returns the name registered dialect. An empty name
// selects the mysql dialect.
func LookupDialect(name string) (Dialect, error) {
	if name == "" {
		name = MySQL.Name()
	}
	dialects.RLock()
	defer dialects.RUnlock()
	d, ok := dialects.m[name]
	if !ok {
		return nil, fmt.Errorf(
			"%w: unknown dialect %q (known: %v)",
			ErrInvalidSettings, name, dialectNames(),
		)
	}
	return d, nil
}

// dialectNames must be called while holding the dialects lock.
func dialectNames() []string {
	names := make([]string, 0, len(dialects.m))
	for n := range dialects.m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
