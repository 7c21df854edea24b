// Copyright The DB-Insight Authors
// SPDX-License-Identifier: Apache-2.0

// Package config resolves the application configuration from environment
// variables and an optional config file. The rest of the application only
// ever sees the resolved Config struct.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Config holds every configurable value for the dashboard.
type Config struct {
	// Database connection
	DBHost     string `mapstructure:"db_host"`
	DBPort     int    `mapstructure:"db_port"`
	DBName     string `mapstructure:"db_name"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`

	// Monitoring thresholds
	ConnectionThreshold int64 `mapstructure:"connection_threshold"`
	SlowQueryThreshold  int64 `mapstructure:"slow_query_threshold"`

	// Server
	ListenAddr string `mapstructure:"listen_addr"`
	LogLevel   string `mapstructure:"log_level"`
}

// Load reads configuration from (in decreasing priority):
//  1. environment variables (DB_HOST, DB_PASSWORD, ...)
//  2. a yaml file (./configs/config.yaml) if it exists
//  3. built-in defaults
//
// It returns a fully populated *Config or an error. Validation is a
// separate step so callers can report all problems at once.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 3306)
	v.SetDefault("db_name", "db_monitoring")
	v.SetDefault("db_user", "monitor_user")
	v.SetDefault("db_password", "")
	v.SetDefault("connect_timeout", 10*time.Second)
	v.SetDefault("read_timeout", 30*time.Second)
	v.SetDefault("write_timeout", 30*time.Second)
	v.SetDefault("connection_threshold", 100)
	v.SetDefault("slow_query_threshold", 100)
	v.SetDefault("listen_addr", ":5000")
	v.SetDefault("log_level", "info")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Optional yaml file, useful for local dev or a k8s ConfigMap.
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration and reports every problem found.
func (cfg *Config) Validate() error {
	var err error

	if cfg.DBHost == "" {
		err = multierr.Append(err, errors.New("db_host is required"))
	}
	if cfg.DBPort <= 0 || cfg.DBPort > 65535 {
		err = multierr.Append(err, fmt.Errorf("db_port must be in 1..65535, got %d", cfg.DBPort))
	}
	if cfg.DBName == "" {
		err = multierr.Append(err, errors.New("db_name is required"))
	}
	if cfg.DBUser == "" {
		err = multierr.Append(err, errors.New("db_user is required"))
	}
	if cfg.DBPassword == "" {
		err = multierr.Append(err, errors.New("db_password is required"))
	}
	if cfg.ConnectTimeout <= 0 {
		err = multierr.Append(err, errors.New("connect_timeout must be positive"))
	}
	if cfg.ReadTimeout <= 0 {
		err = multierr.Append(err, errors.New("read_timeout must be positive"))
	}
	if cfg.WriteTimeout <= 0 {
		err = multierr.Append(err, errors.New("write_timeout must be positive"))
	}
	if cfg.ConnectionThreshold <= 0 {
		err = multierr.Append(err, errors.New("connection_threshold must be positive"))
	}
	if cfg.SlowQueryThreshold <= 0 {
		err = multierr.Append(err, errors.New("slow_query_threshold must be positive"))
	}
	if cfg.ListenAddr == "" {
		err = multierr.Append(err, errors.New("listen_addr is required"))
	}

	return err
}

// Addr returns the host:port pair of the monitored database.
func (cfg *Config) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.DBHost, cfg.DBPort)
}
