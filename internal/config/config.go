// Package config provides configuration loading and validation for scour.
// Supports YAML files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Errors returned by Validate for missing required keys.
var (
	ErrMissingBootstrapServers = errors.New("config: kafka bootstrap servers are required")
	ErrMissingTopic            = errors.New("config: kafka topic is required")
)

// Config holds all configuration for a scour invocation.
type Config struct {
	Kafka         KafkaConfig         `yaml:"kafka"`
	AWS           AWSConfig           `yaml:"aws"`
	Athena        AthenaConfig        `yaml:"athena"`
	Erasure       ErasureConfig       `yaml:"erasure"`
	Audit         AuditConfig         `yaml:"audit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type KafkaConfig struct {
	BootstrapServers    []string `yaml:"bootstrapServers" env:"SCOUR_BOOTSTRAP_SERVERS"`
	Topic               string   `yaml:"topic" env:"SCOUR_TOPIC"`
	GroupID             string   `yaml:"groupId" env:"SCOUR_GROUP_ID"`
	AutoOffsetReset     string   `yaml:"autoOffsetReset" env:"SCOUR_AUTO_OFFSET_RESET"`
	MaxMessages         int      `yaml:"maxMessages" env:"SCOUR_MAX_MESSAGES"`
	BatchSize           int      `yaml:"batchSize" env:"SCOUR_BATCH_SIZE"`
	InactivityTimeoutMs int64    `yaml:"inactivityTimeoutMs" env:"SCOUR_INACTIVITY_TIMEOUT_MS"`
}

type AWSConfig struct {
	Region    string `yaml:"region" env:"SCOUR_AWS_REGION"`
	AccessKey string `yaml:"accessKey" env:"SCOUR_AWS_ACCESS_KEY"`
	SecretKey string `yaml:"secretKey" env:"SCOUR_AWS_SECRET_KEY"`
}

type AthenaConfig struct {
	Database            string `yaml:"database" env:"SCOUR_ATHENA_DATABASE"`
	OutputLocation      string `yaml:"outputLocation" env:"SCOUR_ATHENA_OUTPUT_LOCATION"`
	TableS3Base         string `yaml:"tableS3Base" env:"SCOUR_ICEBERG_TABLE_S3_BASE"`
	PollIntervalSeconds int    `yaml:"pollIntervalSeconds" env:"SCOUR_ATHENA_POLL_INTERVAL_SECONDS"`
	TimeoutSeconds      int    `yaml:"timeoutSeconds" env:"SCOUR_ATHENA_TIMEOUT_SECONDS"`
}

type ErasureConfig struct {
	UserIDColumn string   `yaml:"userIdColumn" env:"SCOUR_USER_ID_COLUMN"`
	TargetTables []string `yaml:"targetTables" env:"SCOUR_TARGET_TABLES"`
}

type AuditConfig struct {
	// ReceiptPrefix is an s3://bucket/prefix location for run receipts.
	// Receipts are disabled when empty.
	ReceiptPrefix string `yaml:"receiptPrefix" env:"SCOUR_AUDIT_RECEIPT_PREFIX"`
}

type ObservabilityConfig struct {
	MetricsAddr string `yaml:"metricsAddr" env:"SCOUR_METRICS_ADDR"`
	LogLevel    string `yaml:"logLevel" env:"SCOUR_LOG_LEVEL"`
	LogFormat   string `yaml:"logFormat" env:"SCOUR_LOG_FORMAT"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Kafka: KafkaConfig{
			GroupID:             "athena_analytics_group",
			AutoOffsetReset:     "earliest",
			MaxMessages:         10000,
			BatchSize:           100,
			InactivityTimeoutMs: 30000,
		},
		AWS: AWSConfig{
			Region: "ap-northeast-2",
		},
		Athena: AthenaConfig{
			Database:            "iceberg_athena_analytics",
			OutputLocation:      "s3://athena-query-results/",
			PollIntervalSeconds: 5,
			TimeoutSeconds:      3600,
		},
		Erasure: ErasureConfig{
			UserIDColumn: "user_id",
			TargetTables: []string{"silver_user_daily", "bronze_chat_events"},
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Load returns the default configuration with environment overrides applied.
func Load() (*Config, error) {
	cfg := Default()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath reads a YAML configuration file, then applies environment
// overrides on top. File values override defaults; environment values
// override the file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required keys and value ranges. Called once at entry,
// after any CLI overrides have been applied.
func (c *Config) Validate() error {
	if len(c.Kafka.BootstrapServers) == 0 {
		return ErrMissingBootstrapServers
	}
	if c.Kafka.Topic == "" {
		return ErrMissingTopic
	}
	if c.Kafka.AutoOffsetReset != "earliest" && c.Kafka.AutoOffsetReset != "latest" {
		return fmt.Errorf("config: autoOffsetReset must be earliest or latest, got %q", c.Kafka.AutoOffsetReset)
	}
	if c.Kafka.MaxMessages <= 0 {
		return fmt.Errorf("config: maxMessages must be positive, got %d", c.Kafka.MaxMessages)
	}
	if c.Kafka.BatchSize <= 0 {
		return fmt.Errorf("config: batchSize must be positive, got %d", c.Kafka.BatchSize)
	}
	if c.Kafka.InactivityTimeoutMs <= 0 {
		return fmt.Errorf("config: inactivityTimeoutMs must be positive, got %d", c.Kafka.InactivityTimeoutMs)
	}
	if c.AWS.Region == "" {
		return errors.New("config: aws region is required")
	}
	if c.Athena.Database == "" {
		return errors.New("config: athena database is required")
	}
	if c.Athena.OutputLocation == "" {
		return errors.New("config: athena output location is required")
	}
	if c.Athena.PollIntervalSeconds <= 0 {
		return fmt.Errorf("config: pollIntervalSeconds must be positive, got %d", c.Athena.PollIntervalSeconds)
	}
	if c.Athena.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: timeoutSeconds must be positive, got %d", c.Athena.TimeoutSeconds)
	}
	if c.Erasure.UserIDColumn == "" {
		return errors.New("config: erasure userIdColumn is required")
	}
	if len(c.Erasure.TargetTables) == 0 {
		return errors.New("config: erasure target tables are required")
	}
	return nil
}

// applyEnv overrides config values from SCOUR_* environment variables.
// The variable name for each field is recorded in its env struct tag.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("SCOUR_BOOTSTRAP_SERVERS"); v != "" {
		cfg.Kafka.BootstrapServers = splitList(v)
	}
	if v := os.Getenv("SCOUR_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("SCOUR_GROUP_ID"); v != "" {
		cfg.Kafka.GroupID = v
	}
	if v := os.Getenv("SCOUR_AUTO_OFFSET_RESET"); v != "" {
		cfg.Kafka.AutoOffsetReset = v
	}
	if err := envInt("SCOUR_MAX_MESSAGES", &cfg.Kafka.MaxMessages); err != nil {
		return err
	}
	if err := envInt("SCOUR_BATCH_SIZE", &cfg.Kafka.BatchSize); err != nil {
		return err
	}
	if err := envInt64("SCOUR_INACTIVITY_TIMEOUT_MS", &cfg.Kafka.InactivityTimeoutMs); err != nil {
		return err
	}
	if v := os.Getenv("SCOUR_AWS_REGION"); v != "" {
		cfg.AWS.Region = v
	}
	if v := os.Getenv("SCOUR_AWS_ACCESS_KEY"); v != "" {
		cfg.AWS.AccessKey = v
	}
	if v := os.Getenv("SCOUR_AWS_SECRET_KEY"); v != "" {
		cfg.AWS.SecretKey = v
	}
	if v := os.Getenv("SCOUR_ATHENA_DATABASE"); v != "" {
		cfg.Athena.Database = v
	}
	if v := os.Getenv("SCOUR_ATHENA_OUTPUT_LOCATION"); v != "" {
		cfg.Athena.OutputLocation = v
	}
	if v := os.Getenv("SCOUR_ICEBERG_TABLE_S3_BASE"); v != "" {
		cfg.Athena.TableS3Base = v
	}
	if err := envInt("SCOUR_ATHENA_POLL_INTERVAL_SECONDS", &cfg.Athena.PollIntervalSeconds); err != nil {
		return err
	}
	if err := envInt("SCOUR_ATHENA_TIMEOUT_SECONDS", &cfg.Athena.TimeoutSeconds); err != nil {
		return err
	}
	if v := os.Getenv("SCOUR_USER_ID_COLUMN"); v != "" {
		cfg.Erasure.UserIDColumn = v
	}
	if v := os.Getenv("SCOUR_TARGET_TABLES"); v != "" {
		cfg.Erasure.TargetTables = splitList(v)
	}
	if v := os.Getenv("SCOUR_AUDIT_RECEIPT_PREFIX"); v != "" {
		cfg.Audit.ReceiptPrefix = v
	}
	if v := os.Getenv("SCOUR_METRICS_ADDR"); v != "" {
		cfg.Observability.MetricsAddr = v
	}
	if v := os.Getenv("SCOUR_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("SCOUR_LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envInt64(key string, dst *int64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("config: invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
