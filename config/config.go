package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logging.level"`
	LogFormat   string `mapstructure:"logging.format"`
	DB          DatabaseConfig
	Redis       RedisConfig
	Nominatim   NominatimConfig
	Tracing     TracingConfig
	Backup      BackupConfig
	Tasks       TasksConfig
}

// DatabaseConfig holds the embedded database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"database.path"`
	BusyTimeout     time.Duration `mapstructure:"database.busy_timeout"`
	MaxOpenConns    int           `mapstructure:"database.max_open_conns"`
	MaxIdleConns    int           `mapstructure:"database.max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"database.conn_max_lifetime"`
}

// RedisConfig holds Redis configuration for the geocoding cache
type RedisConfig struct {
	Host     string `mapstructure:"redis.host"`
	Port     int    `mapstructure:"redis.port"`
	Password string `mapstructure:"redis.password"`
	DB       int    `mapstructure:"redis.db"`
	Enabled  bool   `mapstructure:"redis.enabled"`
}

// NominatimConfig holds configuration for the place-search API client
type NominatimConfig struct {
	BaseURL        string        `mapstructure:"nominatim.base_url"`
	UserAgent      string        `mapstructure:"nominatim.user_agent"`
	AcceptLanguage string        `mapstructure:"nominatim.accept_language"`
	Limit          int           `mapstructure:"nominatim.limit"`
	Timeout        time.Duration `mapstructure:"nominatim.timeout"`
	CacheTTL       time.Duration `mapstructure:"nominatim.cache_ttl"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	LicenseKey     string `mapstructure:"tracing.license_key"`
	AppName        string `mapstructure:"tracing.app_name"`
	LogEnabled     bool   `mapstructure:"tracing.log_enabled"`
	DistribTracing bool   `mapstructure:"tracing.distributed_tracing_enabled"`
}

// BackupConfig holds database backup configuration for the worker
type BackupConfig struct {
	Enabled  bool          `mapstructure:"backup.enabled"`
	Dir      string        `mapstructure:"backup.dir"`
	Interval time.Duration `mapstructure:"backup.interval"`
	Retain   int           `mapstructure:"backup.retain"`
}

// TasksConfig holds background task runner configuration
type TasksConfig struct {
	MaxConcurrent int64 `mapstructure:"tasks.max_concurrent"`
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Setup configuration paths
	v.AddConfigPath(path)
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		// Continue even if no config file is found - we'll use ENV vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Enable environment variables to override config
	v.SetEnvPrefix("LIFEMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Core settings
	v.SetDefault("environment", "development")

	// Logging settings
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Database settings
	v.SetDefault("database.path", "lifemap.db")
	v.SetDefault("database.busy_timeout", "5s")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "1h")

	// Redis settings
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)

	// Nominatim settings
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "lifemap/0.1")
	v.SetDefault("nominatim.accept_language", "en")
	v.SetDefault("nominatim.limit", 8)
	v.SetDefault("nominatim.timeout", "10s")
	v.SetDefault("nominatim.cache_ttl", "24h")

	// Tracing settings
	v.SetDefault("tracing.app_name", "LifeMap")
	v.SetDefault("tracing.log_enabled", false)
	v.SetDefault("tracing.distributed_tracing_enabled", false)

	// Backup settings
	v.SetDefault("backup.enabled", true)
	v.SetDefault("backup.dir", "backups")
	v.SetDefault("backup.interval", "24h")
	v.SetDefault("backup.retain", 7)

	// Task runner settings
	v.SetDefault("tasks.max_concurrent", 4)
}
