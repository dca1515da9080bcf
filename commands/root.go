// Package commands is the pricetracker command line.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"sjsage522/pricetracker/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "pricetracker",
	Short:         "pricetracker scrapes per-city price listings and serves their history.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadConfig()
		return cfg.Validate()
	},
}

// Execute runs the command named by the process arguments
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
