package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Validate checks a configuration for contradictions and missing
// required values. It performs declarative validation only and does not
// mutate the configuration.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}

	if cfg.Monitor.Interval.Std() <= 0 {
		return fmt.Errorf("monitor.interval must be positive, got %s", cfg.Monitor.Interval.Std())
	}
	if cfg.Monitor.Cooldown.Std() < 0 {
		return fmt.Errorf("monitor.cooldown must not be negative, got %s", cfg.Monitor.Cooldown.Std())
	}
	if cfg.Monitor.HistorySize < 1 {
		return fmt.Errorf("monitor.history_size must be positive, got %d", cfg.Monitor.HistorySize)
	}

	if err := validateSource(&cfg.Source); err != nil {
		return err
	}
	if err := validateStore(&cfg.Store); err != nil {
		return err
	}

	if (cfg.Notify.PubSub.ProjectID == "") != (cfg.Notify.PubSub.Topic == "") {
		return fmt.Errorf("notify.pubsub requires both project_id and topic")
	}

	if _, err := zerolog.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level %q is not a valid log level", cfg.Logging.Level)
	}

	return nil
}

func validateSource(src *SourceConfig) error {
	switch src.Kind {
	case "studio":
		if src.Studio.BaseURL == "" {
			return fmt.Errorf("source.studio.base_url is required when source.kind is %q", src.Kind)
		}
	case "probe":
		if len(src.Probe.Targets) == 0 {
			return fmt.Errorf("source.probe.targets must list at least one target")
		}
		if src.Probe.Concurrency < 1 {
			return fmt.Errorf("source.probe.concurrency must be positive, got %d", src.Probe.Concurrency)
		}
		if src.Probe.Timeout.Std() <= 0 {
			return fmt.Errorf("source.probe.timeout must be positive, got %s", src.Probe.Timeout.Std())
		}

		seen := make(map[string]struct{}, len(src.Probe.Targets))
		for i, target := range src.Probe.Targets {
			if target.Name == "" {
				return fmt.Errorf("source.probe.targets[%d].name is required", i)
			}
			if target.URL == "" {
				return fmt.Errorf("source.probe.targets[%d].url is required", i)
			}
			if _, dup := seen[target.Name]; dup {
				return fmt.Errorf("source.probe.targets has duplicate name %q", target.Name)
			}
			seen[target.Name] = struct{}{}
		}
	default:
		return fmt.Errorf("source.kind must be %q or %q, got %q", "studio", "probe", src.Kind)
	}

	return nil
}

func validateStore(store *StoreConfig) error {
	switch store.Kind {
	case "memory":
	case "file":
		if store.File.Path == "" {
			return fmt.Errorf("store.file.path is required when store.kind is %q", store.Kind)
		}
	case "postgres":
		if store.Postgres.Host == "" {
			return fmt.Errorf("store.postgres.host is required when store.kind is %q", store.Kind)
		}
		if store.Postgres.Database == "" {
			return fmt.Errorf("store.postgres.database is required when store.kind is %q", store.Kind)
		}
		if store.Postgres.User == "" {
			return fmt.Errorf("store.postgres.user is required when store.kind is %q", store.Kind)
		}
	default:
		return fmt.Errorf("store.kind must be %q, %q, or %q, got %q", "memory", "file", "postgres", store.Kind)
	}

	return nil
}
