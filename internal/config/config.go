package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings. Values come from defaults, then an optional
// YAML file (LISTNAV_CONFIG), then environment overrides.
type Config struct {
	DBPath       string        `yaml:"db_path"`
	Logging      LoggingConfig `yaml:"logging"`
	Labels       LabelsConfig  `yaml:"labels"`
	ExcludedTabs []string      `yaml:"excluded_tabs"`
	Track        TrackConfig   `yaml:"track"`
	Restore      RestoreConfig `yaml:"restore"`
	Ready        ReadyConfig   `yaml:"ready"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// LabelsConfig carries the platform's localized marker strings.
type LabelsConfig struct {
	Promoted string `yaml:"promoted"`
	Repost   string `yaml:"repost"`
}

type TrackConfig struct {
	// VisibleRatio is the fraction of a post's area that must be on screen
	// before it counts as read.
	VisibleRatio     float64  `yaml:"visible_ratio"`
	SaveDebounce     Duration `yaml:"save_debounce"`
	MutationDebounce Duration `yaml:"mutation_debounce"`
	NavDebounce      Duration `yaml:"nav_debounce"`
	SaveTimeout      Duration `yaml:"save_timeout"`
}

type RestoreConfig struct {
	RetryInterval Duration `yaml:"retry_interval"`
	MaxRetries    int      `yaml:"max_retries"`
	TopOffset     float64  `yaml:"top_offset"`
	Highlight     Duration `yaml:"highlight"`
}

type ReadyConfig struct {
	Interval    Duration `yaml:"interval"`
	MaxAttempts int      `yaml:"max_attempts"`
}

func Default() Config {
	return Config{
		DBPath:       "listnav.db",
		Logging:      LoggingConfig{Level: "info"},
		Labels:       LabelsConfig{Promoted: "Ad", Repost: "reposted"},
		ExcludedTabs: []string{"For you", "Following"},
		Track: TrackConfig{
			VisibleRatio:     0.8,
			SaveDebounce:     Duration(500 * time.Millisecond),
			MutationDebounce: Duration(300 * time.Millisecond),
			NavDebounce:      Duration(300 * time.Millisecond),
			SaveTimeout:      Duration(5 * time.Second),
		},
		Restore: RestoreConfig{
			RetryInterval: Duration(500 * time.Millisecond),
			MaxRetries:    600,
			TopOffset:     150,
			Highlight:     Duration(1500 * time.Millisecond),
		},
		Ready: ReadyConfig{
			Interval:    Duration(500 * time.Millisecond),
			MaxAttempts: 30,
		},
	}
}

// Load builds the effective configuration.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("LISTNAV_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if v := os.Getenv("LISTNAV_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("LISTNAV_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error: %s", c.Logging.Level)
	}
	if c.Track.VisibleRatio <= 0 || c.Track.VisibleRatio > 1 {
		return fmt.Errorf("track.visible_ratio must be in (0, 1]: %g", c.Track.VisibleRatio)
	}
	if c.Track.SaveDebounce <= 0 || c.Track.MutationDebounce <= 0 || c.Track.NavDebounce <= 0 {
		return fmt.Errorf("track debounce intervals must be positive")
	}
	if c.Restore.RetryInterval <= 0 {
		return fmt.Errorf("restore.retry_interval must be positive")
	}
	if c.Restore.MaxRetries < 0 {
		return fmt.Errorf("restore.max_retries must not be negative")
	}
	if c.Ready.Interval <= 0 || c.Ready.MaxAttempts <= 0 {
		return fmt.Errorf("ready poll settings must be positive")
	}
	if c.Labels.Promoted == "" || c.Labels.Repost == "" {
		return fmt.Errorf("labels.promoted and labels.repost are required")
	}
	return nil
}
