package commands

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"sjsage522/pricetracker/internal/display"
	"sjsage522/pricetracker/web"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default $HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the price browsing UI and JSON API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		addr := cfg.HTTPAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		services, err := initializeServices(ctx, cfg, serviceSet{})
		if err != nil {
			return err
		}
		defer services.Cleanup()

		if cfg.Environment == "production" {
			gin.SetMode(gin.ReleaseMode)
		}

		svc := display.New(services.Store, services.Cache, cfg.ListingCacheTTL)
		server := web.NewServer(svc, cfg.Sites, services.Health)
		return server.Run(ctx, addr)
	},
}
