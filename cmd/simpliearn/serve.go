package main

import (
	"github.com/spf13/cobra"

	"github.com/simpliearn/simpliearn-backend/internal/app"
)

func serveCMD() *cobra.Command {
	var addr string
	var role string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the job worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop, log, cfg, err := bootstrap(role)
			if err != nil {
				return err
			}
			defer stop()
			defer log.Sync()
			if addr != "" {
				cfg.Port = addr
			}
			a, err := app.New(ctx, log, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			a.Start()
			return a.Run(ctx)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default from PORT)")
	serve.Flags().StringVar(&role, "role", "", "all, api or worker (default from APP_ROLE)")
	return serve
}
