// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"
	"strings"

	"github.com/momeni/ormysql/pkg/adapter/db/gormdb/migration"
	"github.com/momeni/ormysql/pkg/core/usecase/migrationuc"
	"github.com/spf13/cobra"
)

var planOnly bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the missing tables of the registered models",
	Long: `Migrate command creates the tables of the users, user metas, and
accounts models unless they exist already. Tables are created in their
dependency order, so a table which references another table is created
after it. Existing tables are kept untouched and columns are not
altered. With the --plan flag, the creation order is printed without
connecting to the database.`,
	RunE: migrateDB,
}

func migrateDB(cmd *cobra.Command, _ []string) error {
	reg, err := migration.Default()
	if err != nil {
		return fmt.Errorf("registering models: %w", err)
	}
	if planOnly {
		plan, err := reg.Plan()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(plan, "\n"))
		return nil
	}
	_, m, err := loadManager()
	if err != nil {
		return err
	}
	defer closeManager(m)
	mduc := migrationuc.NewMigrateDB(m, reg, m)
	created, err := mduc.Migrate(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %d table(s)\n", len(created))
	for _, t := range created {
		fmt.Fprintln(cmd.OutOrStdout(), t)
	}
	return nil
}

func init() {
	dbCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(
		&planOnly, "plan", false,
		"print the tables creation order and exit",
	)
}
