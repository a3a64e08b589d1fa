package config

import (
	"context"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/sfauth/pkg/constants"
	"github.com/turtacn/sfauth/pkg/errors"
	"github.com/turtacn/sfauth/pkg/logger"
)

// Loader wraps viper so configuration can be reloaded when the config file
// changes on disk. Readers call Current; the watcher swaps the snapshot.
type Loader struct {
	v   *viper.Viper
	log logger.Logger

	mu  sync.RWMutex
	cfg *Config
}

// LoadConfig loads the configuration from file and environment variables.
func LoadConfig(log logger.Logger) (*Loader, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", 60)
	v.SetDefault("database.max_conn_idle_time", 10)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("kafka.topic", "sfauth.audit")
	v.SetDefault("salesforce.org_environment", "production")
	v.SetDefault("salesforce.api_version", "65.0")
	v.SetDefault("salesforce.cli_binary", "sf")
	v.SetDefault("salesforce.session_timeout_seconds", 7200)
	v.SetDefault("salesforce.connect_timeout", 10)
	v.SetDefault("salesforce.read_timeout", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("tracing.service_name", "sfauth")

	// Load from config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/sfauth/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Load from environment variables
	v.SetEnvPrefix("SFAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}

	return &Loader{v: v, log: log, cfg: cfg}, nil
}

// Current returns the latest configuration snapshot.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Watch starts watching the config file and swaps the snapshot on change.
// Invalid edits are logged and the previous snapshot stays in effect.
func (l *Loader) Watch(ctx context.Context) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := unmarshal(l.v)
		if err != nil {
			l.log.Error(ctx, "Config reload rejected", err, logger.String("file", e.Name))
			return
		}

		l.mu.Lock()
		l.cfg = cfg
		l.mu.Unlock()

		l.log.Info(ctx, "Config reloaded", logger.String("file", e.Name), logger.String("op", e.Op.String()))
	})
	l.v.WatchConfig()
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.System("failed to unmarshal config").WithCause(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Configuration(constants.ErrCodeConfigNotFound, "invalid configuration: %v", err)
	}

	return &cfg, nil
}
