package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full application configuration
type Config struct {
	App            AppConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	JWT            JWTConfig
	Log            LogConfig
	HTTP           HTTPConfig
	Telemetry      TelemetryConfig
	Reconciliation ReconciliationConfig
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name string
	Env  string
	Port int
}

// IsProduction reports whether the app runs in production mode
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds postgres connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // minutes
	ConnMaxIdleTime int // minutes
}

// DSN builds the postgres connection string
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisConfig holds redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds token validation settings
type JWTConfig struct {
	Secret string
	Issuer string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// HTTPConfig holds HTTP server settings
type HTTPConfig struct {
	ReadTimeout      int // seconds
	WriteTimeout     int // seconds
	IdleTimeout      int // seconds
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	TrustedProxies   []string
}

// TelemetryConfig holds tracing settings
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
}

// ReconciliationConfig holds matching engine tunables
type ReconciliationConfig struct {
	Epsilon            float64
	TolerancePercent   float64
	ToleranceFloor     float64
	MaxCombinationSize int
	MaxSuggestions     int
	IdempotencyTTLHrs  int
	IdempotencyEnabled bool
}

// Load reads configuration from config.toml and ARLEDGER_ environment
// variables. Environment variables take precedence.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults apply
	}

	v.SetEnvPrefix("ARLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetInt("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetInt("http.read_timeout"),
			WriteTimeout:     v.GetInt("http.write_timeout"),
			IdleTimeout:      v.GetInt("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
		},
		Reconciliation: ReconciliationConfig{
			Epsilon:            v.GetFloat64("reconciliation.epsilon"),
			TolerancePercent:   v.GetFloat64("reconciliation.tolerance_percent"),
			ToleranceFloor:     v.GetFloat64("reconciliation.tolerance_floor"),
			MaxCombinationSize: v.GetInt("reconciliation.max_combination_size"),
			MaxSuggestions:     v.GetInt("reconciliation.max_suggestions"),
			IdempotencyTTLHrs:  v.GetInt("reconciliation.idempotency_ttl_hours"),
			IdempotencyEnabled: v.GetBool("reconciliation.idempotency_enabled"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "arledger")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "arledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.conn_max_idle_time", 10)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "arledger")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("http.read_timeout", 15)
	v.SetDefault("http.write_timeout", 15)
	v.SetDefault("http.idle_timeout", 60)
	v.SetDefault("http.max_header_bytes", 1<<20)
	v.SetDefault("http.max_body_size", int64(4<<20))
	v.SetDefault("http.cors_allow_origins", []string{})
	v.SetDefault("http.trusted_proxies", []string{})

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.collector_endpoint", "localhost:4317")
	v.SetDefault("telemetry.sampling_ratio", 1.0)
	v.SetDefault("telemetry.service_name", "arledger-backend")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.db_trace_enabled", false)

	v.SetDefault("reconciliation.epsilon", 0.01)
	v.SetDefault("reconciliation.tolerance_percent", 0.15)
	v.SetDefault("reconciliation.tolerance_floor", 500.0)
	v.SetDefault("reconciliation.max_combination_size", 3)
	v.SetDefault("reconciliation.max_suggestions", 5)
	v.SetDefault("reconciliation.idempotency_ttl_hours", 24)
	v.SetDefault("reconciliation.idempotency_enabled", true)
}

// validate enforces hard requirements, with stricter rules in production
func (c *Config) validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid app.port: %d", c.App.Port)
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be within [0, 1], got %f", c.Telemetry.SamplingRatio)
	}
	if c.Reconciliation.Epsilon <= 0 {
		return fmt.Errorf("reconciliation.epsilon must be positive")
	}
	if c.Reconciliation.MaxCombinationSize < 1 {
		return fmt.Errorf("reconciliation.max_combination_size must be at least 1")
	}
	if c.Reconciliation.MaxSuggestions < 1 {
		return fmt.Errorf("reconciliation.max_suggestions must be at least 1")
	}

	if c.App.IsProduction() {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode must not be disable in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("wildcard CORS origin is not allowed in production")
			}
		}
	}
	return nil
}
