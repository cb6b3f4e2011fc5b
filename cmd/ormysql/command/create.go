package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the configured database unless it exists",
	Long: `Create command connects to the database server without selecting
any database and creates the configured database if it is missing.
The database is created automatically when the connections pool is
created too, but this command does not need the pool.`,
	RunE: createDB,
}

func createDB(cmd *cobra.Command, _ []string) error {
	_, m, err := loadManager()
	if err != nil {
		return err
	}
	defer closeManager(m)
	created, err := m.CreateDatabase(cmd.Context())
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintln(cmd.OutOrStdout(), "database is created")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "database exists already")
	}
	return nil
}

func init() {
	dbCmd.AddCommand(createCmd)
}
