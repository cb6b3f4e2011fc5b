// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package migrationuc provides the database migration use cases.
// MigrateDBUseCase creates the configured database (if it is missing)
// and the tables of the registered models, while InitDBUseCase fills
// a migrated database with sample data for development environments.
package migrationuc
