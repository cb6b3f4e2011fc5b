package command

import (
	"fmt"

	"github.com/momeni/ormysql/pkg/adapter/db/gormdb/accountsrp"
	"github.com/momeni/ormysql/pkg/adapter/db/gormdb/modelrp"
	"github.com/momeni/ormysql/pkg/core/model"
	"github.com/momeni/ormysql/pkg/core/usecase/migrationuc"
	"github.com/spf13/cobra"
)

var initDevCmd = &cobra.Command{
	Use:   "init-dev",
	Short: "Fill the migrated tables with sample data",
	Long: `InitDev command inserts a few sample users, their role metadata,
and their accounts in one transaction. Users which exist already (by
their email addresses) are skipped, so it may be run repeatedly.
Tables must be migrated beforehand.`,
	RunE: initDev,
}

func initDev(cmd *cobra.Command, _ []string) error {
	_, m, err := loadManager()
	if err != nil {
		return err
	}
	defer closeManager(m)
	iduc := migrationuc.NewInitDB(
		m,
		modelrp.New[model.User](),
		modelrp.New[model.UserMeta](),
		accountsrp.New(),
	)
	n, err := iduc.InitDev(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "inserted %d sample user(s)\n", n)
	return nil
}

func init() {
	dbCmd.AddCommand(initDevCmd)
}
