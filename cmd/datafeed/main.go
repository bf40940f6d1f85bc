package main

import (
	"fmt"
	"os"

	"github.com/muhammadchandra19/datafeed/pkg/config"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	cfg = &config.Config{}
	log *logger.Logger

	rootCmd = &cobra.Command{
		Use:           "datafeed",
		Short:         "Simulated limit order book with a top of book query service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Load(cfg); err != nil {
				return err
			}
			applyFlags(cmd)
			if err := cfg.Validate(); err != nil {
				return err
			}

			opts := []logger.Options{logger.WithLoggingLevel(logger.Level(cfg.App.LogLevel))}
			if cfg.App.Dev {
				opts = append(opts, logger.WithDevelopment())
			}
			l, err := logger.NewLogger(opts...)
			if err != nil {
				return err
			}
			log = l.WithFields(logger.Field{Key: "app", Value: cfg.App.Name})
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Bool("dev", false, "human readable development logging")
	flags.StringSlice("instruments", nil, "instruments to simulate")
	flags.String("data-file", "", "CSV order flow file")
	flags.Int64("seed", 0, "generator seed, 0 picks one from the clock")
}

// applyFlags overrides config values with the flags the user set explicitly.
func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.App.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("dev") {
		cfg.App.Dev, _ = flags.GetBool("dev")
	}
	if flags.Changed("instruments") {
		cfg.App.Instruments, _ = flags.GetStringSlice("instruments")
	}
	if flags.Changed("data-file") {
		cfg.Feed.DataFile, _ = flags.GetString("data-file")
	}
	if flags.Changed("seed") {
		cfg.Generator.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("port") {
		cfg.App.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("source") {
		source, _ := flags.GetString("source")
		cfg.Feed.Source = config.FeedSource(source)
	}
	if flags.Changed("realtime") {
		cfg.Feed.Realtime, _ = flags.GetBool("realtime")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
