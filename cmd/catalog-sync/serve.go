package main

import (
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/slabworks/catalog-sync/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(),
			syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := api.New(cfg.API.Addr, a.db, a.runner, a.resolver)
		if err := srv.ListenAndServe(ctx); err != nil {
			return err
		}

		log.Info().Msg("api stopped")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
