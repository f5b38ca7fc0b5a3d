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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Auth      AuthConfig      `yaml:"auth" mapstructure:"auth"`
	Jobs      JobsConfig      `yaml:"jobs" mapstructure:"jobs"`
	Schemas   SchemasConfig   `yaml:"schemas" mapstructure:"schemas"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings for the LLM gateway.
type AnthropicConfig struct {
	Key              string  `yaml:"key" mapstructure:"key"`
	Model            string  `yaml:"model" mapstructure:"model"`
	MaxTokens        int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec   float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	RetryOnTransient bool    `yaml:"retry_on_transient" mapstructure:"retry_on_transient"`
}

// AuthConfig configures signup/login token issuance.
type AuthConfig struct {
	JWTSecret    string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	TokenTTLMins int    `yaml:"token_ttl_mins" mapstructure:"token_ttl_mins"`
}

// JobsConfig configures the job registry and runner.
type JobsConfig struct {
	Registry   string `yaml:"registry" mapstructure:"registry"` // "memory" or "redis"
	RedisAddr  string `yaml:"redis_addr" mapstructure:"redis_addr"`
	TTLMins    int    `yaml:"ttl_mins" mapstructure:"ttl_mins"`
	MaxEntries int    `yaml:"max_entries" mapstructure:"max_entries"`
	QueueDepth int    `yaml:"queue_depth" mapstructure:"queue_depth"`
	Workers    int    `yaml:"workers" mapstructure:"workers"`
}

// SchemasConfig configures the payload validator.
type SchemasConfig struct {
	// File optionally overrides the embedded per-type parameter schemas
	// with an external YAML file.
	File string `yaml:"file" mapstructure:"file"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port                  int      `yaml:"port" mapstructure:"port"`
	CORSAllowedOrigins    []string `yaml:"cors_allowed_origins" mapstructure:"cors_allowed_origins"`
	TimeTravelMaxParallel int      `yaml:"time_travel_max_parallel" mapstructure:"time_travel_max_parallel"`
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
	v.SetEnvPrefix("NEXUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.timeout_secs", 60)
	v.SetDefault("anthropic.requests_per_sec", 2)
	v.SetDefault("anthropic.retry_on_transient", true)
	v.SetDefault("auth.token_ttl_mins", 24*60)
	v.SetDefault("jobs.registry", "memory")
	v.SetDefault("jobs.ttl_mins", 60)
	v.SetDefault("jobs.max_entries", 10000)
	v.SetDefault("jobs.queue_depth", 256)
	v.SetDefault("jobs.workers", 4)
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.time_travel_max_parallel", 4)
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

// ValidateServe checks the settings the serve command cannot run without.
// Missing required keys abort startup; there is no partial-degraded boot.
func (c *Config) ValidateServe() error {
	if c.Anthropic.Key == "" {
		return eris.New("config: anthropic key is required (NEXUS_ANTHROPIC_KEY)")
	}
	if c.Auth.JWTSecret == "" {
		return eris.New("config: auth JWT secret is required (NEXUS_AUTH_JWT_SECRET)")
	}
	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store database URL is required (NEXUS_STORE_DATABASE_URL)")
		}
	case "sqlite":
		// Empty DSN falls back to a local file; nothing to check.
	default:
		return eris.Errorf("config: unsupported store driver: %s", c.Store.Driver)
	}
	if c.Jobs.Registry == "redis" && c.Jobs.RedisAddr == "" {
		return eris.New("config: jobs redis address is required (NEXUS_JOBS_REDIS_ADDR)")
	}
	return nil
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
