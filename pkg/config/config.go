package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/muhammadchandra19/datafeed/pkg/redis"
)

// Load loads the configuration from environment variables and an optional .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return nil
}

// ErrNoInstruments is returned by Validate when no instrument is configured.
var ErrNoInstruments = errors.New("at least one instrument is required")

// Config holds the configuration for the application
type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	Feed      FeedConfig      `envPrefix:"FEED_"`
	Generator GeneratorConfig `envPrefix:"GENERATOR_"`
	Kafka     KafkaConfig     `envPrefix:"KAFKA_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Snapshot  SnapshotConfig  `envPrefix:"SNAPSHOT_"`
}

// AppConfig holds the HTTP and engine settings.
type AppConfig struct {
	Name        string        `env:"NAME" envDefault:"datafeed"`
	Host        string        `env:"HOST" envDefault:"0.0.0.0"`
	Port        int           `env:"PORT" envDefault:"8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	Dev         bool          `env:"DEV" envDefault:"false"`
	Instruments []string      `env:"INSTRUMENTS" envSeparator:"," envDefault:"ABC,DEF"`
	OrderAge    int           `env:"ORDER_AGE" envDefault:"10"`
	StreamEvery time.Duration `env:"STREAM_INTERVAL" envDefault:"500ms"`
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if len(c.App.Instruments) == 0 {
		return ErrNoInstruments
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// FeedSource selects where the engine reads order flow from.
type FeedSource string

const (
	// FeedCSV replays a CSV data file.
	FeedCSV FeedSource = "csv"
	// FeedKafka consumes the orders topic.
	FeedKafka FeedSource = "kafka"
	// FeedNone runs the engine without any order flow.
	FeedNone FeedSource = "none"
)

// FeedConfig holds the order flow settings.
type FeedConfig struct {
	Source       FeedSource    `env:"SOURCE" envDefault:"csv"`
	DataFile     string        `env:"DATA_FILE" envDefault:"test.csv"`
	Realtime     bool          `env:"REALTIME" envDefault:"true"`
	Speedup      float64       `env:"SPEEDUP" envDefault:"1"`
	Interval     time.Duration `env:"INTERVAL" envDefault:"0s"`
	GenerateRows int           `env:"GENERATE_ROWS" envDefault:"10000"`
}

// GeneratorConfig holds the synthetic order flow parameters.
type GeneratorConfig struct {
	BasePrice float64 `env:"BASE_PRICE" envDefault:"60"`
	Spread    float64 `env:"SPREAD" envDefault:"2"`
	Overlap   float64 `env:"OVERLAP" envDefault:"4"`
	SizeSigma float64 `env:"SIZE_SIGMA" envDefault:"100"`
	FreqMin   int     `env:"FREQ_MIN" envDefault:"12"`
	FreqMax   int     `env:"FREQ_MAX" envDefault:"36"`
	Seed      int64   `env:"SEED" envDefault:"0"`
}

// KafkaConfig holds the configuration for Kafka consumer and producer.
type KafkaConfig struct {
	Brokers     []string `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	OrdersTopic string   `env:"ORDERS_TOPIC" envDefault:"orders"`
	FillsTopic  string   `env:"FILLS_TOPIC" envDefault:"fills"`
	GroupID     string   `env:"GROUP_ID" envDefault:"datafeed"`
	PublishFill bool     `env:"PUBLISH_FILLS" envDefault:"false"`
}

// RedisConfig wraps the redis client config with an enable switch.
type RedisConfig struct {
	Enabled      bool `env:"ENABLED" envDefault:"false"`
	redis.Config `envPrefix:""`
}

// SnapshotConfig holds the snapshot manager cadence.
type SnapshotConfig struct {
	Interval    time.Duration `env:"INTERVAL" envDefault:"30s"`
	OffsetDelta int64         `env:"OFFSET_DELTA" envDefault:"1000"`
}
