package main

import (
	"github.com/spf13/cobra"

	"github.com/simpliearn/simpliearn-backend/internal/app"
)

func migrateCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, stop, log, cfg, err := bootstrap("")
			if err != nil {
				return err
			}
			defer stop()
			defer log.Sync()
			dbs, err := app.OpenDB(log, cfg)
			if err != nil {
				return err
			}
			log.Info("Schema up to date", "driver", dbs.Driver())
			return dbs.Close()
		},
	}
}
