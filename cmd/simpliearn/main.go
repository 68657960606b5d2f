package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var cfgPath string
	root := &cobra.Command{
		Use:          "simpliearn",
		Short:        "Earnings call ingestion, sentiment scoring and dashboard API",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cfgPath != "" {
				_ = os.Setenv("SIMPLIEARN_CONFIG", cfgPath)
			}
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default ./simpliearn.yaml)")

	root.AddCommand(serveCMD(), migrateCMD(), ingestCMD(), analyzeCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
