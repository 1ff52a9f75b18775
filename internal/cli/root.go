// Package cli wires configuration, logging and the sync pipeline into
// cobra commands.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "order-etl",
		Short: "order-etl - copy confirmed orders from Postgres to SQL Server",
		Long: `order-etl reads every order from the source Postgres database, keeps the
accepted statuses and upserts them into the confirmed_orders table of the
destination SQL Server database. It runs once and exits.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(NewRunCmd(), NewCheckCmd())

	return rootCmd
}
