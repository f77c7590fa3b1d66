package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/farmiq/farmiq/internal/database"
)

// Config represents the runtime configuration for the FarmIQ backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Market      MarketConfig      `mapstructure:"market"`
	Migration   MigrationConfig   `mapstructure:"migration"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int             `mapstructure:"port"`
	Environment     string          `mapstructure:"environment"`
	LogLevel        string          `mapstructure:"log_level"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig      `mapstructure:"cors"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// Production reports whether the server runs with production defaults.
func (s ServerConfig) Production() bool {
	return strings.EqualFold(strings.TrimSpace(s.Environment), "production")
}

// CORSConfig lists the browser origins allowed to call the API. Empty allows every origin.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig controls the per-client fixed-window limiter on /api routes.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string            `mapstructure:"driver"`
	Path     string            `mapstructure:"path"`
	DSN      string            `mapstructure:"dsn"`
	ReadOnly bool              `mapstructure:"read_only"`
	Postgres DBAuthConfig      `mapstructure:"postgres"`
	MySQL    DBAuthConfig      `mapstructure:"mysql"`
	Options  map[string]string `mapstructure:"options"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CacheConfig selects and tunes the market response cache.
type CacheConfig struct {
	// Driver is one of memory, redis or database.
	Driver    string            `mapstructure:"driver"`
	Retention time.Duration     `mapstructure:"retention"`
	Memory    MemoryCacheConfig `mapstructure:"memory"`
	Redis     RedisCacheConfig  `mapstructure:"redis"`
}

// MemoryCacheConfig bounds the in-process LRU.
type MemoryCacheConfig struct {
	Capacity int `mapstructure:"capacity"`
}

// RedisCacheConfig holds Redis connection options.
type RedisCacheConfig struct {
	Address   string        `mapstructure:"address"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	TLS       bool          `mapstructure:"tls"`
	Timeout   time.Duration `mapstructure:"timeout"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// MarketConfig configures the data.gov.in pricing proxy.
type MarketConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	ResourceID string        `mapstructure:"resource_id"`
	APIKey     string        `mapstructure:"api_key"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxLimit   int           `mapstructure:"max_limit"`
}

// MigrationConfig configures the legacy SQLite to hosted Postgres copy.
type MigrationConfig struct {
	Source      DatabaseConfig `mapstructure:"source"`
	Destination DatabaseConfig `mapstructure:"destination"`
	BatchSize   int            `mapstructure:"batch_size"`
	Strict      bool           `mapstructure:"strict"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// MaintenanceConfig schedules the stale cache purge.
type MaintenanceConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// Connection converts the settings into database.Config for the configured driver.
func (d DatabaseConfig) Connection() database.Config {
	cfg := database.Config{
		Driver:   strings.TrimSpace(d.Driver),
		Path:     strings.TrimSpace(d.Path),
		DSN:      strings.TrimSpace(d.DSN),
		ReadOnly: d.ReadOnly,
		Options:  d.Options,
	}

	var auth DBAuthConfig
	switch strings.ToLower(cfg.Driver) {
	case "postgres", "postgresql", "pg":
		auth = d.Postgres
	case "mysql", "mariadb":
		auth = d.MySQL
	default:
		return cfg
	}

	cfg.Host = strings.TrimSpace(auth.Host)
	cfg.Port = auth.Port
	cfg.Name = strings.TrimSpace(auth.Database)
	cfg.User = strings.TrimSpace(auth.Username)
	cfg.Password = auth.Password
	return cfg
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
// Legacy environment variables from the Node deployment are honoured after FARMIQ_* ones.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	return load(v, true)
}

// LoadConfigFile reads configuration from an explicit file. Unlike LoadConfig a missing or
// unreadable file is an error. Files without a known extension are parsed as YAML.
func LoadConfigFile(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(file)
	if ext := strings.TrimPrefix(filepath.Ext(file), "."); !slices.Contains(viper.SupportedExts, ext) {
		v.SetConfigType("yaml")
	}

	return load(v, false)
}

func load(v *viper.Viper, optional bool) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("FARMIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !optional || !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := applyLegacyEnv(&config, os.LookupEnv); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:8080", "http://localhost:5173"})
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.requests", 120)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/farmiQ.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.read_only", false)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.retention", "1h")
	v.SetDefault("cache.memory.capacity", 1024)
	v.SetDefault("cache.redis.address", "127.0.0.1:6379")
	v.SetDefault("cache.redis.username", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.tls", false)
	v.SetDefault("cache.redis.timeout", "5s")
	v.SetDefault("cache.redis.key_prefix", "farmiq:")

	v.SetDefault("market.base_url", "https://api.data.gov.in")
	v.SetDefault("market.resource_id", "9ef84268-d588-465a-a308-a864a43d0070")
	v.SetDefault("market.api_key", "")
	v.SetDefault("market.cache_ttl", "300s")
	v.SetDefault("market.timeout", "15s")
	v.SetDefault("market.max_limit", 1000)

	v.SetDefault("migration.source.driver", "sqlite")
	v.SetDefault("migration.source.path", "./farmiQ.db")
	v.SetDefault("migration.source.read_only", true)
	v.SetDefault("migration.destination.driver", "postgres")
	v.SetDefault("migration.destination.dsn", "")
	v.SetDefault("migration.batch_size", 500)
	v.SetDefault("migration.strict", false)

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)
	v.SetDefault("monitoring.health_check.probe_timeout", "3s")

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.schedule", "@every 15m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
