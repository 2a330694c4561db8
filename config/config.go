// Package config holds the worker's recognized configuration set and the
// declarative-topology file path it tracks.
package config

import "time"

// Config is the worker process configuration, unmarshaled by viper from
// DATALINEUP_-prefixed environment variables, a TOML file, or both.
type Config struct {
	Env          string `mapstructure:"env"`           // "production", "staging", "dev"
	WorkerID     string `mapstructure:"worker_id"`      // stable identity sent to manager.Lock
	Selector     string `mapstructure:"selector"`       // regex over queue names this worker accepts
	Executors    []string `mapstructure:"executors"`    // executor names this worker can run
	Standalone   bool   `mapstructure:"standalone"`     // run against the local SQLite store instead of a manager

	WorkerManagerURL string        `mapstructure:"worker_manager_url"`
	SyncPeriod       time.Duration `mapstructure:"sync_period"` // default 60s

	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Redis    RedisConfig    `mapstructure:"redis"`

	WorkerManager WorkerManagerConfig `mapstructure:"worker_manager"`
	Tracer        TracerConfig        `mapstructure:"tracer"`

	TopologyPath string `mapstructure:"topology_path"` // local declarative topology file, standalone mode
}

// RabbitMQConfig configures the AMQP transport contract (§1: named at the
// interface only; no driver body ships here).
type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig configures an optional Redis-backed component (cursor cache,
// rate-limit coordination across workers); not exercised by the in-process
// core, kept as a recognized configuration key per §6.
type RedisConfig struct {
	DSN string `mapstructure:"dsn"`
}

// WorkerManagerConfig configures the manager process when running standalone.
type WorkerManagerConfig struct {
	FlaskHost            string   `mapstructure:"flask_host"`
	FlaskPort            int      `mapstructure:"flask_port"`
	DatabaseURL          string   `mapstructure:"database_url"`
	StaticDefinitionsDirs []string `mapstructure:"static_definitions_dirs"`
	WorkItemsPerWorker   int      `mapstructure:"work_items_per_worker"` // default 10
}

// TracerConfig configures the (external) tracing exporter sampling rate.
type TracerConfig struct {
	Rate float64 `mapstructure:"rate"`
}
