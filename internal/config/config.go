// Package config loads the monitor configuration from a YAML file with
// environment variable overrides.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings such as
// "30s" or "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root monitor configuration.
type Config struct {
	Environment string          `yaml:"environment"`
	Server      ServerConfig    `yaml:"server"`
	Monitor     MonitorConfig   `yaml:"monitor"`
	Source      SourceConfig    `yaml:"source"`
	Store       StoreConfig     `yaml:"store"`
	Notify      NotifyConfig    `yaml:"notify"`
	Auth        AuthConfig      `yaml:"auth"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Logging     LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int      `yaml:"port"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	IdleTimeout  Duration `yaml:"idle_timeout"`
}

// MonitorConfig holds watcher settings.
type MonitorConfig struct {
	Interval    Duration `yaml:"interval"`
	Cooldown    Duration `yaml:"cooldown"`
	HistorySize int      `yaml:"history_size"`
}

// SourceConfig selects and configures the health source.
type SourceConfig struct {
	// Kind is "studio" (poll an aggregate health endpoint) or "probe"
	// (check targets directly).
	Kind   string       `yaml:"kind"`
	Studio StudioConfig `yaml:"studio"`
	Probe  ProbeConfig  `yaml:"probe"`
}

// StudioConfig configures the aggregate health endpoint source.
type StudioConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// ProbeConfig configures the direct prober source.
type ProbeConfig struct {
	Concurrency int           `yaml:"concurrency"`
	Timeout     Duration      `yaml:"timeout"`
	Targets     []ProbeTarget `yaml:"targets"`
}

// ProbeTarget is one endpoint the prober checks.
type ProbeTarget struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// StoreConfig selects and configures state persistence.
type StoreConfig struct {
	// Kind is "memory", "file", or "postgres".
	Kind     string          `yaml:"kind"`
	File     FileStoreConfig `yaml:"file"`
	Postgres PostgresConfig  `yaml:"postgres"`
}

// FileStoreConfig configures the JSON file store.
type FileStoreConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig configures the PostgreSQL store.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// NotifyConfig enables notification sinks.
type NotifyConfig struct {
	Log     bool          `yaml:"log"`
	Webhook WebhookConfig `yaml:"webhook"`
	PubSub  PubSubConfig  `yaml:"pubsub"`
}

// WebhookConfig configures the webhook sink. An empty URL disables it.
type WebhookConfig struct {
	URL         string `yaml:"url"`
	BearerToken string `yaml:"bearer_token"`
}

// PubSubConfig configures the Pub/Sub sink. Empty fields disable it.
type PubSubConfig struct {
	ProjectID string `yaml:"project_id"`
	Topic     string `yaml:"topic"`
}

// AuthConfig holds admin token settings.
type AuthConfig struct {
	SigningKey string `yaml:"signing_key"`
	Issuer     string `yaml:"issuer"`
	Audience   string `yaml:"audience"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when no file and no overrides
// are present.
func Default() Config {
	return Config{
		Environment: "development",
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  Duration(15 * time.Second),
			WriteTimeout: Duration(15 * time.Second),
			IdleTimeout:  Duration(60 * time.Second),
		},
		Monitor: MonitorConfig{
			Interval:    Duration(30 * time.Second),
			Cooldown:    Duration(5 * time.Minute),
			HistorySize: 100,
		},
		Source: SourceConfig{
			Kind: "studio",
			Studio: StudioConfig{
				BaseURL: "http://127.0.0.1:1234",
			},
			Probe: ProbeConfig{
				Concurrency: 4,
				Timeout:     Duration(5 * time.Second),
			},
		},
		Store: StoreConfig{
			Kind: "memory",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "providerpulse",
				Database: "providerpulse",
				SSLMode:  "disable",
			},
		},
		Notify: NotifyConfig{
			Log: true,
		},
		Auth: AuthConfig{
			Issuer:   "https://monitor.providerpulse.dev",
			Audience: "providerpulse-monitor",
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration file at path, applies environment
// overrides, and validates the result. An empty path skips the file and
// uses defaults plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv overrides configuration values from environment variables.
// The variable names match what the deployment manifests already set.
func applyEnv(cfg *Config) {
	setString(&cfg.Environment, "APP_ENV")
	setInt(&cfg.Server.Port, "APP_PORT")

	setDuration(&cfg.Monitor.Interval, "MONITOR_INTERVAL")
	setDuration(&cfg.Monitor.Cooldown, "MONITOR_COOLDOWN")

	setString(&cfg.Source.Kind, "SOURCE_KIND")
	setString(&cfg.Source.Studio.BaseURL, "STUDIO_BASE_URL")
	setString(&cfg.Source.Studio.APIKey, "STUDIO_API_KEY")

	setString(&cfg.Store.Kind, "STORE_KIND")
	setString(&cfg.Store.File.Path, "STATE_FILE_PATH")
	setString(&cfg.Store.Postgres.Host, "DB_HOST")
	setInt(&cfg.Store.Postgres.Port, "DB_PORT")
	setString(&cfg.Store.Postgres.User, "DB_USER")
	setString(&cfg.Store.Postgres.Password, "DB_PASSWORD")
	setString(&cfg.Store.Postgres.Database, "DB_NAME")
	setString(&cfg.Store.Postgres.SSLMode, "DB_SSL_MODE")

	setString(&cfg.Notify.Webhook.URL, "WEBHOOK_URL")
	setString(&cfg.Notify.Webhook.BearerToken, "WEBHOOK_BEARER_TOKEN")
	setString(&cfg.Notify.PubSub.ProjectID, "PUBSUB_PROJECT_ID")
	setString(&cfg.Notify.PubSub.Topic, "PUBSUB_TOPIC")

	setString(&cfg.Auth.SigningKey, "JWT_SIGNING_KEY")

	setBool(&cfg.Telemetry.Enabled, "OTEL_ENABLED")
	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setBool(&cfg.Logging.Pretty, "LOG_PRETTY")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true"
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = Duration(parsed)
		}
	}
}
