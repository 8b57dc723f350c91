package infra

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"streaming"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"streaming"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"streaming"`

	// One pool serves every concurrent match stream plus the API, so it is
	// sized independently of MAX_CONCURRENT_MATCHES.
	PGMaxConns int32 `env:"PG_MAX_CONNS" envDefault:"20"`
	PGMinConns int32 `env:"PG_MIN_CONNS" envDefault:"2"`

	// Upstream feed
	FeedBaseURL   string `env:"FEED_BASE_URL" envDefault:"https://api.performfeeds.com/soccerdata"`
	FeedOutletKey string `env:"FEED_OUTLET_KEY"`
	FeedToken     string `env:"FEED_TOKEN"`

	// Streaming
	TournamentID         string        `env:"TOURNAMENT_ID"`
	PollInterval         time.Duration `env:"POLL_INTERVAL" envDefault:"30s"`
	MaxConcurrentMatches int64         `env:"MAX_CONCURRENT_MATCHES" envDefault:"8"`

	// Server ports
	APIPort int `env:"API_PORT" envDefault:"3100"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaTopic   string `env:"KAFKA_TOPIC" envDefault:"match.events"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration required for live streaming.
func (c *Config) Validate() error {
	if c.FeedOutletKey == "" {
		return fmt.Errorf("FEED_OUTLET_KEY is required")
	}
	if c.TournamentID == "" {
		return fmt.Errorf("TOURNAMENT_ID is required")
	}
	if c.MaxConcurrentMatches < 1 || c.MaxConcurrentMatches > 16 {
		return fmt.Errorf("MAX_CONCURRENT_MATCHES must be between 1 and 16, got %d", c.MaxConcurrentMatches)
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
