// Package common provides shared configuration and telemetry for the
// goes-xrs-synth commands.
package common

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/KI7MT/goes-xrs-synth/internal/fetch"
	"github.com/KI7MT/goes-xrs-synth/internal/response"
)

// Config holds common configuration for all applications.
type Config struct {
	ClickHouseHost     string `yaml:"clickhouse_host"`
	ClickHousePort     int    `yaml:"clickhouse_port"`
	ClickHouseDatabase string `yaml:"clickhouse_database"`
	ClickHouseUser     string `yaml:"clickhouse_user"`
	ClickHousePassword string `yaml:"clickhouse_password"`
	Table              string `yaml:"table"`
	DataDir            string `yaml:"data_dir"`
	ResponseURL        string `yaml:"response_url"`
	ResponseSHA256     string `yaml:"response_sha256"`
	Satellite          int    `yaml:"satellite"`
	LogLevel           string `yaml:"log_level"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ClickHouseHost:     getEnv("CLICKHOUSE_HOST", "localhost"),
		ClickHousePort:     getEnvInt("CLICKHOUSE_PORT", 9000),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solar"),
		ClickHouseUser:     getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		Table:              getEnv("XRS_TABLE", "xrs_synthetic"),
		DataDir:            getEnv("XRS_DATA_DIR", defaultDataDir()),
		ResponseURL:        getEnv("XRS_RESPONSE_URL", response.DefaultQuery.URL),
		ResponseSHA256:     getEnv("XRS_RESPONSE_SHA256", response.DefaultQuery.SHA256),
		Satellite:          getEnvInt("XRS_SATELLITE", response.DefaultSatellite),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

// LoadConfig returns DefaultConfig overlaid with the YAML file at path.
// An empty path returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := cfg.Overlay(data); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Overlay decodes YAML onto c. Keys absent from the document keep their
// current value; unknown keys are an error.
func (c *Config) Overlay(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ClickHouseAddr returns host:port for the native protocol.
func (c *Config) ClickHouseAddr() string {
	return fmt.Sprintf("%s:%d", c.ClickHouseHost, c.ClickHousePort)
}

// TableFQN returns database.table.
func (c *Config) TableFQN() string {
	return fmt.Sprintf("%s.%s", c.ClickHouseDatabase, c.Table)
}

// ResponseQuery returns the pinned response table location.
func (c *Config) ResponseQuery() fetch.Query {
	return fetch.Query{URL: c.ResponseURL, SHA256: c.ResponseSHA256}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "goes_xrs_synthesis")
	}
	return filepath.Join(home, ".cache", "goes_xrs_synthesis")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
