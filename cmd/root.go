package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/quote-engine/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "quote-engine",
	Short: "Turn free-text RFQs into priced quotes",
	Long:  "Segments RFQ text into line items, matches them against the product catalog with explainable scores, and prices the quote with GST breakup, discount, freight and currency conversion.",
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
