package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
	Query   QueryConfig   `yaml:"query" mapstructure:"query"`
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// HTTPConfig configures the outbound feature-service client.
type HTTPConfig struct {
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	RateLimit      float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second
	RateBurst      int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBackoffMS int     `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
}

// QueryConfig configures pagination and enrichment behavior.
type QueryConfig struct {
	PageSize    int     `yaml:"page_size" mapstructure:"page_size"`
	PageDelayMS int     `yaml:"page_delay_ms" mapstructure:"page_delay_ms"`
	MaxRecords  int     `yaml:"max_records" mapstructure:"max_records"`
	RadiusMiles float64 `yaml:"radius_miles" mapstructure:"radius_miles"` // default search radius
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`  // multi-source sweep parallelism
}

// CatalogConfig points at an optional YAML source catalog that extends or
// overrides the builtin set.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("http.timeout_secs", 30)
	v.SetDefault("http.user_agent", "geoenrich/1.0")
	v.SetDefault("http.rate_limit", 10.0)
	v.SetDefault("http.rate_burst", 10)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.retry_backoff_ms", 1000)
	v.SetDefault("query.page_size", 1000)
	v.SetDefault("query.page_delay_ms", 100)
	v.SetDefault("query.max_records", 100000)
	v.SetDefault("query.radius_miles", 5.0)
	v.SetDefault("query.concurrency", 5)
	v.SetDefault("catalog.path", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
