package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	app "github.com/muhammadchandra19/datafeed/internal/app/engine"
	orderreaderv1 "github.com/muhammadchandra19/datafeed/internal/domain/order-reader/v1"
	"github.com/muhammadchandra19/datafeed/internal/metrics"
	"github.com/muhammadchandra19/datafeed/internal/rpc/httpserver"
	"github.com/muhammadchandra19/datafeed/internal/usecase/flow"
	matchpublisher "github.com/muhammadchandra19/datafeed/internal/usecase/match-publisher"
	orderreader "github.com/muhammadchandra19/datafeed/internal/usecase/order-reader"
	"github.com/muhammadchandra19/datafeed/internal/usecase/query"
	"github.com/muhammadchandra19/datafeed/internal/usecase/snapshot"
	"github.com/muhammadchandra19/datafeed/pkg/config"
	"github.com/muhammadchandra19/datafeed/pkg/httplib/healthcheck"
	"github.com/muhammadchandra19/datafeed/pkg/logger"
	"github.com/muhammadchandra19/datafeed/pkg/redis"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the matching engine and the query server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP port")
	serveCmd.Flags().String("source", "", "order flow source (csv, kafka, none)")
	serveCmd.Flags().Bool("realtime", true, "replay CSV rows at the pace of their timestamps")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rec := metrics.New()
	deps := app.Dependencies{
		Metrics: rec,
		Logger:  log,
	}
	probes := map[string]healthcheck.Probe{}

	if cfg.Redis.Enabled {
		rclient := redis.NewClient(log, &cfg.Redis.Config)
		if err := rclient.Connect(ctx); err != nil {
			log.Error(err, logger.Field{Key: "action", Value: "connect_redis"})
			return err
		}
		defer func() {
			if err := rclient.Disconnect(context.Background()); err != nil {
				log.Error(err, logger.Field{Key: "action", Value: "disconnect_redis"})
			}
		}()

		deps.SnapshotStore = snapshot.NewSnapshotStore(rclient, log)
		probes["redis"] = rclient.Ping
	}

	source, err := openSource(ctx, cfg)
	if err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "open_order_source"})
		return err
	}
	if source != nil {
		deps.Source = source
	}

	if cfg.Kafka.PublishFill {
		publisher := matchpublisher.NewPublisher(cfg.Kafka, log)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error(err, logger.Field{Key: "action", Value: "close_fill_publisher"})
			}
		}()
		deps.Publisher = publisher
	}

	engine := app.NewEngineWithOptions(cfg.App.Instruments, deps, app.OptionsFromConfig(cfg))
	if err := engine.Start(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "start_engine"})
		return err
	}

	server := httpserver.New(cfg.App.Addr(), query.NewService(engine), httpserver.Options{
		Metrics:     rec,
		Probes:      probes,
		Logger:      log,
		StreamEvery: cfg.App.StreamEvery,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.Info("datafeed started",
		logger.Field{Key: "address", Value: cfg.App.Addr()},
		logger.Field{Key: "source", Value: cfg.Feed.Source},
		logger.Field{Key: "instruments", Value: cfg.App.Instruments},
	)

	select {
	case <-ctx.Done():
		log.Info("Received shutdown signal")
	case err = <-serverErr:
		if err != nil {
			log.Error(err, logger.Field{Key: "action", Value: "serve_http"})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "stop_http"})
	}
	if err := engine.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "stop_engine"})
	}

	log.Info("datafeed shutdown complete")
	return err
}

// openSource returns the configured order source, or nil when the engine runs without one.
func openSource(ctx context.Context, cfg *config.Config) (orderreaderv1.OrderSource, error) {
	switch cfg.Feed.Source {
	case config.FeedCSV:
		gen, err := flow.NewGenerator(cfg.Generator, cfg.App.Instruments, flow.MarketOpen(time.Now()))
		if err != nil {
			return nil, err
		}
		if err := flow.EnsureDataFile(ctx, cfg.Feed.DataFile, gen, cfg.Feed.GenerateRows, log); err != nil {
			return nil, err
		}
		return orderreader.OpenCSV(cfg.Feed.DataFile, log)
	case config.FeedKafka:
		return orderreader.NewReader(cfg.Kafka, log), nil
	case config.FeedNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown feed source %q", cfg.Feed.Source)
	}
}
