package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envOnlyKeys maps keys that may never appear in a config file to the
// environment variable that supplies them instead.
var envOnlyKeys = []struct{ key, env string }{
	{"hmac_secret", "PW_HMAC_SECRET"},
	{"sensor_api.hmac_secret", "PW_HMAC_SECRET"},
	{"admin_api.hmac_secret", "PW_HMAC_SECRET"},
	{"redis.password", "PW_REDIS_PASSWORD"},
}

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence; flags are
// applied by the caller on the returned value.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("PW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Checked against a file-only instance so env-provided secrets pass.
		if err := validateNoSecretsInConfig(configPath); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		AdminAPI: AdminAPIConfig{
			Host:           v.GetString("admin_api.host"),
			Port:           v.GetInt("admin_api.port"),
			RequestTimeout: v.GetDuration("admin_api.request_timeout"),
			MaxConditions:  v.GetInt("admin_api.max_conditions"),
			MaxBodyBytes:   v.GetInt64("admin_api.max_body_bytes"),
		},
		SensorAPI: SensorAPIConfig{
			Host:           v.GetString("sensor_api.host"),
			Port:           v.GetInt("sensor_api.port"),
			MaxConnections: v.GetInt("sensor_api.max_connections"),
			RequestTimeout: v.GetDuration("sensor_api.request_timeout"),
			MaxBatchSize:   v.GetInt("sensor_api.max_batch_size"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("database.url"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxIdleTime: v.GetDuration("database.conn_max_idle_time"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Addr:      v.GetString("redis.addr"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
			TTL:       v.GetDuration("redis.ttl"),
		},
		Client: ClientConfig{
			BaseURL:    v.GetString("client.base_url"),
			Timeout:    v.GetDuration("client.timeout"),
			RetryCount: v.GetInt("client.retry_count"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Addr:    v.GetString("metrics.addr"),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("admin_api.host", d.AdminAPI.Host)
	v.SetDefault("admin_api.port", d.AdminAPI.Port)
	v.SetDefault("admin_api.request_timeout", d.AdminAPI.RequestTimeout)
	v.SetDefault("admin_api.max_conditions", d.AdminAPI.MaxConditions)
	v.SetDefault("admin_api.max_body_bytes", d.AdminAPI.MaxBodyBytes)

	v.SetDefault("sensor_api.host", d.SensorAPI.Host)
	v.SetDefault("sensor_api.port", d.SensorAPI.Port)
	v.SetDefault("sensor_api.max_connections", d.SensorAPI.MaxConnections)
	v.SetDefault("sensor_api.request_timeout", d.SensorAPI.RequestTimeout)
	v.SetDefault("sensor_api.max_batch_size", d.SensorAPI.MaxBatchSize)

	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_idle_time", d.Database.ConnMaxIdleTime)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.key_prefix", d.Redis.KeyPrefix)
	v.SetDefault("redis.ttl", d.Redis.TTL)

	v.SetDefault("client.base_url", d.Client.BaseURL)
	v.SetDefault("client.timeout", d.Client.Timeout)
	v.SetDefault("client.retry_count", d.Client.RetryCount)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// validateConfig checks port ranges, positive limits and the log settings.
func validateConfig(cfg *Config) error {
	if err := validatePort("admin_api.port", cfg.AdminAPI.Port); err != nil {
		return err
	}
	if err := validatePort("sensor_api.port", cfg.SensorAPI.Port); err != nil {
		return err
	}
	if cfg.AdminAPI.RequestTimeout <= 0 {
		return fmt.Errorf("admin_api.request_timeout must be positive, got %v", cfg.AdminAPI.RequestTimeout)
	}
	if cfg.AdminAPI.MaxConditions <= 0 {
		return fmt.Errorf("admin_api.max_conditions must be positive, got %d", cfg.AdminAPI.MaxConditions)
	}
	if cfg.AdminAPI.MaxBodyBytes <= 0 {
		return fmt.Errorf("admin_api.max_body_bytes must be positive, got %d", cfg.AdminAPI.MaxBodyBytes)
	}
	if cfg.SensorAPI.MaxConnections <= 0 {
		return fmt.Errorf("sensor_api.max_connections must be positive, got %d", cfg.SensorAPI.MaxConnections)
	}
	if cfg.SensorAPI.RequestTimeout <= 0 {
		return fmt.Errorf("sensor_api.request_timeout must be positive, got %v", cfg.SensorAPI.RequestTimeout)
	}
	if cfg.SensorAPI.MaxBatchSize <= 0 {
		return fmt.Errorf("sensor_api.max_batch_size must be positive, got %d", cfg.SensorAPI.MaxBatchSize)
	}
	if cfg.Database.MaxOpenConns < 0 || cfg.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database pool sizes must not be negative")
	}
	if cfg.Redis.TTL <= 0 {
		return fmt.Errorf("redis.ttl must be positive, got %v", cfg.Redis.TTL)
	}
	if cfg.Client.RetryCount < 0 {
		return fmt.Errorf("client.retry_count must not be negative, got %d", cfg.Client.RetryCount)
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", cfg.Log.Format)
	}
	return nil
}

func validatePort(key string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", key, port)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(configPath string) error {
	f := viper.New()
	f.SetConfigFile(configPath)
	if err := f.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	for _, k := range envOnlyKeys {
		if f.IsSet(k.key) {
			return fmt.Errorf("secret %q not allowed in config files (use %s environment variable)", k.key, k.env)
		}
	}
	return nil
}
