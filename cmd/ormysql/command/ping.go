package command

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the database connectivity",
	Long: `Ping command creates the connections pool (creating the database
if it is missing), leases one connection, pings it, and releases it.
The pool statistics are printed afterwards.`,
	RunE: pingDB,
}

func pingDB(cmd *cobra.Command, _ []string) error {
	_, m, err := loadManager()
	if err != nil {
		return err
	}
	defer closeManager(m)
	ctx := cmd.Context()
	l, err := m.Acquire(ctx)
	if err != nil {
		return err
	}
	_, err = l.Session().Exec(ctx, "SELECT 1")
	if rErr := l.Release(); err == nil {
		err = rErr
	}
	if err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	s := m.Stats()
	fmt.Fprintf(
		cmd.OutOrStdout(), "%s: ok (open=%d, max=%d)\n",
		s.Dialect, s.Open, s.MaxSize,
	)
	return nil
}

func init() {
	dbCmd.AddCommand(pingCmd)
}
