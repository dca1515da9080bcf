package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates the database schema if it does not exist.",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initializeServices(cmd.Context(), cfg, serviceSet{})
		if err != nil {
			return err
		}
		defer services.Cleanup()

		fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s)\n", services.Store.Driver())
		return nil
	},
}
