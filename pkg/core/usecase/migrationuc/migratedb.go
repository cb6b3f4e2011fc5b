// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/momeni/ormysql/pkg/core/log"
	"github.com/momeni/ormysql/pkg/core/repo"
)

// MigrateDBUseCase represents the schema migration use case.
type MigrateDBUseCase struct {
	pool    repo.Pool
	schema  repo.Schema
	creator repo.DatabaseCreator
}

// NewMigrateDB instantiates a MigrateDBUseCase which creates the
// tables of s using p. The dc creator is used by CreateDatabase.
func NewMigrateDB(
	p repo.Pool, s repo.Schema, dc repo.DatabaseCreator,
) *MigrateDBUseCase {
	return &MigrateDBUseCase{pool: p, schema: s, creator: dc}
}

// Plan returns the table names in their creation order.
func (mduc *MigrateDBUseCase) Plan() ([]string, error) {
	return mduc.schema.Plan()
}

// CreateDatabase creates the configured database unless it exists.
// The pool is not needed for this operation and it is not created.
func (mduc *MigrateDBUseCase) CreateDatabase(ctx context.Context) (bool, error) {
	created, err := mduc.creator.CreateDatabase(ctx)
	if err != nil {
		return false, fmt.Errorf("creating database: %w", err)
	}
	return created, nil
}

// Migrate creates the missing tables in one transaction and returns
// their names. DBMSs without transactional DDL (such as mysql) commit
// each CREATE TABLE implicitly, so a failed migration may be resumed
// by running it again.
func (mduc *MigrateDBUseCase) Migrate(ctx context.Context) (created []string, err error) {
	err = mduc.pool.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
		created, err = mduc.schema.Migrate(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	log.Info(ctx, "schema is migrated", slog.Any("created", created))
	return created, nil
}
