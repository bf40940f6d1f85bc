package main

import (
	"time"

	"github.com/muhammadchandra19/datafeed/internal/usecase/flow"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
	"github.com/spf13/cobra"
)

var generateRows int

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write synthetic order flow to the CSV data file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rows := cfg.Feed.GenerateRows
		if cmd.Flags().Changed("rows") {
			rows = generateRows
		}

		gen, err := flow.NewGenerator(cfg.Generator, cfg.App.Instruments, flow.MarketOpen(time.Now()))
		if err != nil {
			return err
		}
		n, err := flow.WriteFile(cmd.Context(), cfg.Feed.DataFile, gen, rows)
		if err != nil {
			log.Error(err, logger.Field{Key: "action", Value: "generate_csv"})
			return err
		}

		log.Info("order flow generated",
			logger.Field{Key: "path", Value: cfg.Feed.DataFile},
			logger.Field{Key: "rows", Value: n},
		)
		return nil
	},
}

func init() {
	generateCmd.Flags().IntVar(&generateRows, "rows", 0, "number of orders to write")
	rootCmd.AddCommand(generateCmd)
}
