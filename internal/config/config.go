package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DevSessionPepper is only accepted outside production.
const DevSessionPepper = "dev-only-session-pepper-change-me-please"

type Config struct {
	AppEnv   string `mapstructure:"app_env" validate:"required,oneof=development test staging production"`
	HTTPAddr string `mapstructure:"http_addr" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	DatabaseDriver string `mapstructure:"database_driver" validate:"oneof=sqlite postgres"`
	DatabaseURL    string `mapstructure:"database_url" validate:"required"`
	DBMaxOpenConns int    `mapstructure:"db_max_open_conns" validate:"min=1,max=500"`
	DBMaxIdleConns int    `mapstructure:"db_max_idle_conns" validate:"min=0,max=500"`

	SessionCookieName   string        `mapstructure:"session_cookie_name" validate:"required"`
	SessionCookieSecure bool          `mapstructure:"session_cookie_secure"`
	SessionTTL          time.Duration `mapstructure:"session_ttl" validate:"min=1m"`
	SessionTokenPepper  string        `mapstructure:"session_token_pepper" validate:"required,min=16"`

	RedisAddr              string        `mapstructure:"redis_addr"`
	RedisPassword          string        `mapstructure:"redis_password"`
	RedisDB                int           `mapstructure:"redis_db" validate:"min=0,max=15"`
	NegativeLookupCacheTTL time.Duration `mapstructure:"negative_lookup_cache_ttl" validate:"min=1s"`

	MaxRequestBodyBytes          int64         `mapstructure:"max_request_body_bytes" validate:"min=1024"`
	ReadHeaderTimeout            time.Duration `mapstructure:"read_header_timeout" validate:"min=1s"`
	ShutdownTimeout              time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
	ShutdownHTTPDrainTimeout     time.Duration `mapstructure:"shutdown_http_drain_timeout" validate:"min=1s"`
	ShutdownObservabilityTimeout time.Duration `mapstructure:"shutdown_observability_timeout" validate:"min=1s"`
	ReadinessCheckTimeout        time.Duration `mapstructure:"readiness_check_timeout" validate:"min=100ms"`

	OTELServiceName           string        `mapstructure:"otel_service_name" validate:"required"`
	OTELEnvironment           string        `mapstructure:"otel_environment"`
	OTELExporterOTLPEndpoint  string        `mapstructure:"otel_exporter_otlp_endpoint"`
	OTELExporterOTLPInsecure  bool          `mapstructure:"otel_exporter_otlp_insecure"`
	OTELMetricsEnabled        bool          `mapstructure:"otel_metrics_enabled"`
	OTELTracingEnabled        bool          `mapstructure:"otel_tracing_enabled"`
	OTELLogsEnabled           bool          `mapstructure:"otel_logs_enabled"`
	OTELMetricsExportInterval time.Duration `mapstructure:"otel_metrics_export_interval" validate:"min=1s"`
	OTELTraceSamplingRatio    float64       `mapstructure:"otel_trace_sampling_ratio" validate:"min=0,max=1"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")

	v.SetDefault("database_driver", "sqlite")
	v.SetDefault("database_url", "file:forum.db?_foreign_keys=on")
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 5)

	v.SetDefault("session_cookie_name", "session_token")
	v.SetDefault("session_cookie_secure", false)
	v.SetDefault("session_ttl", 30*24*time.Hour)
	v.SetDefault("session_token_pepper", DevSessionPepper)

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("negative_lookup_cache_ttl", 30*time.Second)

	v.SetDefault("max_request_body_bytes", 1<<20)
	v.SetDefault("read_header_timeout", 5*time.Second)
	v.SetDefault("shutdown_timeout", 20*time.Second)
	v.SetDefault("shutdown_http_drain_timeout", 10*time.Second)
	v.SetDefault("shutdown_observability_timeout", 5*time.Second)
	v.SetDefault("readiness_check_timeout", time.Second)

	v.SetDefault("otel_service_name", "secure-forum-backend")
	v.SetDefault("otel_environment", "")
	v.SetDefault("otel_exporter_otlp_endpoint", "localhost:4317")
	v.SetDefault("otel_exporter_otlp_insecure", true)
	v.SetDefault("otel_metrics_enabled", false)
	v.SetDefault("otel_tracing_enabled", false)
	v.SetDefault("otel_logs_enabled", false)
	v.SetDefault("otel_metrics_export_interval", 15*time.Second)
	v.SetDefault("otel_trace_sampling_ratio", 1.0)
}

// Load reads defaults, then the optional file named by CONFIG_FILE, then environment
// variables, and validates the result.
func Load() (*Config, error) {
	cfg, err := load()
	profile := os.Getenv("APP_ENV")
	if cfg != nil {
		profile = cfg.AppEnv
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	recordConfigValidationEvent(context.Background(), profile, outcome, classifyConfigLoadError(err))
	return cfg, err
}

func load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	if cfg.OTELEnvironment == "" {
		cfg.OTELEnvironment = cfg.AppEnv
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs struct tag rules and the cross-field rules that tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if c.DBMaxIdleConns > c.DBMaxOpenConns {
		return errors.New("validate config: DB_MAX_IDLE_CONNS must not exceed DB_MAX_OPEN_CONNS")
	}
	if c.ShutdownHTTPDrainTimeout > c.ShutdownTimeout {
		return errors.New("validate config: SHUTDOWN_HTTP_DRAIN_TIMEOUT must not exceed SHUTDOWN_TIMEOUT")
	}
	if c.IsProduction() {
		if c.SessionTokenPepper == DevSessionPepper || len(c.SessionTokenPepper) < 32 {
			return errors.New("validate config: SESSION_TOKEN_PEPPER must be a unique value of at least 32 characters in production")
		}
		if c.DatabaseDriver != "postgres" {
			return errors.New("validate config: DATABASE_DRIVER must be postgres in production")
		}
		if !c.SessionCookieSecure {
			return errors.New("validate config: SESSION_COOKIE_SECURE must be true in production")
		}
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && strings.TrimSpace(c.OTELExporterOTLPEndpoint) == "" {
		return errors.New("validate config: OTEL_EXPORTER_OTLP_ENDPOINT is required when an OTLP signal is enabled")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func (c *Config) RedisEnabled() bool { return strings.TrimSpace(c.RedisAddr) != "" }
