// Package config loads runtime settings from environment variables.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// TokenTTL is the session lifetime granted at login and on refresh.
	TokenTTL time.Duration `env:"TOKEN_TTL, default=2h"`
	// CacheTTL bounds entries in the in-process task cache.
	CacheTTL time.Duration `env:"CACHE_TTL, default=300s"`

	// UploadDir is where attachment blobs are stored.
	UploadDir string `env:"UPLOAD_DIR, default=./uploads"`

	// BroadcastWorkers sizes the event dispatcher pool.
	BroadcastWorkers int `env:"BROADCAST_WORKERS, default=4"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=task_manager"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
	// EventChannel is the pub/sub channel task events are published to.
	EventChannel string `env:"REDIS_EVENT_CHANNEL, default=tasks.events"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return &cfg, nil
}
