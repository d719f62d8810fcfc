package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// ServiceConfig holds service-level settings
type ServiceConfig struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" required:"true"`
	APIPort     string `envconfig:"SERVICE_API_PORT" default:"8080"`
}

// SQSConfig holds queue connectivity settings
type SQSConfig struct {
	Endpoint string `envconfig:"SQS_ENDPOINT"`
	QueueURL string `envconfig:"SQS_QUEUE_URL" required:"true"`
	Region   string `envconfig:"SQS_REGION" required:"true"`
}

// PostgresConfig holds the relational store settings
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	DB       string `envconfig:"POSTGRES_DB" required:"true"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:""`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
}

// ClickHouseConfig holds the analytics store settings
type ClickHouseConfig struct {
	Host               string `envconfig:"CLICKHOUSE_HOST" required:"true"`
	Port               string `envconfig:"CLICKHOUSE_PORT" required:"true"`
	DB                 string `envconfig:"CLICKHOUSE_DB" required:"true"`
	User               string `envconfig:"CLICKHOUSE_USER" default:""`
	Password           string `envconfig:"CLICKHOUSE_PASSWORD" default:""`
	MaxOpenConns       int    `envconfig:"CLICKHOUSE_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns       int    `envconfig:"CLICKHOUSE_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetimeSec int    `envconfig:"CLICKHOUSE_CONN_MAX_LIFETIME_SEC" default:"3600"`
}

// WorkerConfig holds the event worker settings
type WorkerConfig struct {
	Shards              int    `envconfig:"WORKER_SHARDS" default:"8"`
	ShardBufferSize     int    `envconfig:"WORKER_SHARD_BUFFER_SIZE" default:"64"`
	CampaignCacheTTLSec int    `envconfig:"WORKER_CAMPAIGN_CACHE_TTL_SEC" default:"60"`
	HealthCheckPort     string `envconfig:"WORKER_HEALTH_CHECK_PORT" default:"8081"`
}

// SweeperConfig holds the stuck-event recovery job settings
type SweeperConfig struct {
	IntervalSec  int `envconfig:"SWEEPER_INTERVAL_SEC" default:"60"`
	StuckMinutes int `envconfig:"SWEEPER_STUCK_MINUTES" default:"5"`
	BatchSize    int `envconfig:"SWEEPER_BATCH_SIZE" default:"100"`
}

// Config is the root configuration loaded from the environment
type Config struct {
	Service    ServiceConfig
	SQS        SQSConfig
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Worker     WorkerConfig
	Sweeper    SweeperConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
