package main

import (
	"os/signal"
	"syscall"
	"time"

	orderreaderv1 "github.com/muhammadchandra19/datafeed/internal/domain/order-reader/v1"
	"github.com/muhammadchandra19/datafeed/internal/usecase/flow"
	orderreader "github.com/muhammadchandra19/datafeed/internal/usecase/order-reader"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	produceLimit   int
	produceDelay   time.Duration
	produceFromCSV bool
)

var produceCmd = &cobra.Command{
	Use:   "produce",
	Short: "Publish order flow to the Kafka orders topic",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var src orderreaderv1.OrderSource
		if produceFromCSV {
			csvSrc, err := orderreader.OpenCSV(cfg.Feed.DataFile, log)
			if err != nil {
				log.Error(err, logger.Field{Key: "action", Value: "open_csv"})
				return err
			}
			src = csvSrc
		} else {
			gen, err := flow.NewGenerator(cfg.Generator, cfg.App.Instruments, flow.MarketOpen(time.Now()))
			if err != nil {
				return err
			}
			src = gen
		}
		defer src.Close()

		producer := flow.NewProducer(cfg.Kafka, log)
		defer func() {
			if err := producer.Close(); err != nil {
				log.Error(err, logger.Field{Key: "action", Value: "close_producer"})
			}
		}()

		n, err := producer.Produce(ctx, src, produceLimit, produceDelay)
		if err != nil {
			log.Error(err, logger.Field{Key: "action", Value: "produce_orders"}, logger.Field{Key: "sent", Value: n})
			return err
		}
		return nil
	},
}

func init() {
	produceCmd.Flags().IntVar(&produceLimit, "limit", 0, "number of orders to send, 0 for no limit")
	produceCmd.Flags().DurationVar(&produceDelay, "delay", 100*time.Millisecond, "pause between orders")
	produceCmd.Flags().BoolVar(&produceFromCSV, "from-csv", false, "replay the CSV data file instead of generating orders")
	rootCmd.AddCommand(produceCmd)
}
