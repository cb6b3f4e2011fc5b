// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import "context"

// Schema describes the tables which are required by the registered
// models and can create the missing ones.
type Schema interface {
	// Plan returns the table names in their creation order. A table
	// which references another table comes after it.
	Plan() ([]string, error)

	// Migrate creates every planned table which does not exist yet,
	// in the Plan order, using the q queryer. Existing tables are kept
	// untouched. The names of the created tables are returned.
	Migrate(ctx context.Context, q Queryer) (created []string, err error)
}

// DatabaseCreator can create the configured database itself, before
// any pool is created for it.
type DatabaseCreator interface {
	CreateDatabase(ctx context.Context) (created bool, err error)
}
