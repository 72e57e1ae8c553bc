// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Season     SeasonConfig     `mapstructure:"season"`
	Milestones MilestonesConfig `mapstructure:"milestones"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// SeasonConfig holds season scoring configuration.
type SeasonConfig struct {
	// SalePoints overrides the per-product sale point table,
	// keyed by policy type name.
	SalePoints map[string]int64 `mapstructure:"sale_points"`
	// Period point goals backing the percentage-of-goal figures.
	TodayGoal int64 `mapstructure:"today_goal"`
	WeekGoal  int64 `mapstructure:"week_goal"`
	MonthGoal int64 `mapstructure:"month_goal"`
}

// MilestonesConfig holds the streak milestone tables, keyed by streak type
// ("full", "participation") with threshold -> XP entries.
type MilestonesConfig struct {
	Full          map[int]int64 `mapstructure:"full"`
	Participation map[int]int64 `mapstructure:"participation"`
}

// LedgerConfig holds retry policy for ledger reads during streak computation.
type LedgerConfig struct {
	RetryAttempts uint64        `mapstructure:"retry_attempts"`
	RetryInitial  time.Duration `mapstructure:"retry_initial"`
	RetryMax      time.Duration `mapstructure:"retry_max"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. DATABASE_HOST, SERVER_ADDR
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide all config
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "salesquest")
	v.SetDefault("database.name", "salesquest")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Season goal defaults
	v.SetDefault("season.today_goal", 50)
	v.SetDefault("season.week_goal", 250)
	v.SetDefault("season.month_goal", 1000)

	// Ledger read retry defaults
	v.SetDefault("ledger.retry_attempts", 3)
	v.SetDefault("ledger.retry_initial", "100ms")
	v.SetDefault("ledger.retry_max", "1s")
}
