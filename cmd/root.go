package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lienwise/bidengine/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bidengine",
	Short: "Composite property decision engine",
	Long:  "Evaluates per-parcel fact sheets (zoning KPIs, lien records, comparables, ML predictions) into auditable BID/REVIEW/SKIP decisions with a max-bid ceiling.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
