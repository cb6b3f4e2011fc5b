// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management commands",
	Long: `Database management commands allow the database to be created,
its tables to be migrated (created in their dependency order), its
tables to be filled by the sample data, and the database connectivity
to be checked.`,
}

func init() {
	rootCmd.AddCommand(dbCmd)
}
