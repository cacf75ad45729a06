// Tunegraph - Personalized Music Recommendation Service
// Copyright 2026 The Tunegraph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunegraph/tunegraph

// Package config loads service configuration with koanf.
//
// Configuration Loading Order:
//  1. Struct defaults
//  2. YAML config file (optional, first found of DefaultConfigPaths or
//     $TUNEGRAPH_CONFIG_PATH)
//  3. Environment variables with the TUNEGRAPH_ prefix, highest
//     priority (TUNEGRAPH_SERVER_PORT -> server.port)
//
// Config is immutable after Load and safe for concurrent reads.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tunegraph/tunegraph/internal/recommend"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tunegraph/config.yaml",
	"/etc/tunegraph/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "TUNEGRAPH_CONFIG_PATH"

const envPrefix = "TUNEGRAPH_"

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig     `koanf:"server"`
	Logging  LoggingConfig    `koanf:"logging"`
	Data     DataConfig       `koanf:"data"`
	Training TrainingConfig   `koanf:"training"`
	Snapshot SnapshotConfig   `koanf:"snapshot"`
	Engine   recommend.Config `koanf:"engine"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=1s"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DataConfig points at the JSON catalog the file-backed record source
// reads on startup. ItemsPath may be empty when data is pushed through
// the API instead.
type DataConfig struct {
	ItemsPath        string `koanf:"items_path"`
	InteractionsPath string `koanf:"interactions_path"`
}

// TrainingConfig controls the background training service.
type TrainingConfig struct {
	// OnStartup trains once as soon as the service starts.
	OnStartup bool `koanf:"on_startup"`

	// Interval between periodic retrains. Zero disables the timer.
	Interval time.Duration `koanf:"interval" validate:"min=0"`
}

// SnapshotConfig controls trained-state persistence.
type SnapshotConfig struct {
	// Dir is where snapshot sections are stored. Empty disables
	// snapshotting.
	Dir string `koanf:"dir"`

	// LoadOnStartup restores the latest snapshot before serving.
	LoadOnStartup bool `koanf:"load_on_startup"`

	// SaveAfterTraining writes a snapshot after each training pass.
	SaveAfterTraining bool `koanf:"save_after_training"`

	// KeepVersions bounds old snapshot versions kept per section.
	KeepVersions int `koanf:"keep_versions" validate:"min=1"`
}

// defaultConfig returns the configuration defaults applied before file
// and environment overrides.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3861,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Data: DataConfig{
			ItemsPath:        "",
			InteractionsPath: "",
		},
		Training: TrainingConfig{
			OnStartup: true,
			Interval:  6 * time.Hour,
		},
		Snapshot: SnapshotConfig{
			Dir:               "",
			LoadOnStartup:     false,
			SaveAfterTraining: false,
			KeepVersions:      3,
		},
		Engine: *recommend.DefaultConfig(),
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// TUNEGRAPH_-prefixed environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// TUNEGRAPH_SERVER_PORT -> server.port
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate checks structural constraints and the engine's own rules.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("field %s failed on %q", fe.Namespace(), fe.Tag())
		}
		return err
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if c.Snapshot.LoadOnStartup && c.Snapshot.Dir == "" {
		return fmt.Errorf("snapshot.load_on_startup requires snapshot.dir")
	}
	if c.Snapshot.SaveAfterTraining && c.Snapshot.Dir == "" {
		return fmt.Errorf("snapshot.save_after_training requires snapshot.dir")
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
