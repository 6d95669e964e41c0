// Package config loads the YAML configuration and validates it against a
// CUE schema.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DashboardConfig controls the consumer process.
type DashboardConfig struct {
	Title        string        `yaml:"title"`
	RenderPeriod time.Duration `yaml:"render_period"`
	Width        int           `yaml:"width"`
	LogFile      string        `yaml:"log_file"`
}

// ProducerConfig controls buffering and the vehicle link.
type ProducerConfig struct {
	FPS             float64       `yaml:"fps"`
	MessageInterval time.Duration `yaml:"message_interval"`
	IdlePeriod      time.Duration `yaml:"idle_period"`
	TargetSystem    uint8         `yaml:"target_system"`
	TargetComponent uint8         `yaml:"target_component"`
}

// UpstreamConfig selects where sprayer events come from.
type UpstreamConfig struct {
	Source       string  `yaml:"source"` // "simulated" or "replay"
	ReplayFile   string  `yaml:"replay_file"`
	ReplaySpeed  float64 `yaml:"replay_speed"`
	RecordFile   string  `yaml:"record_file"`
	InitialLevel float64 `yaml:"initial_level"`
	SprayRate    float64 `yaml:"spray_rate"`
	Noise        float64 `yaml:"noise"`
	ForeignRate  float64 `yaml:"foreign_rate"`
	Seed         int64   `yaml:"seed"`
}

// AdminConfig controls the HTTP command surface.
type AdminConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// GreptimeConfig addresses the GreptimeDB archive.
type GreptimeConfig struct {
	Endpoint string `yaml:"endpoint"`
	Database string `yaml:"database"`
	Table    string `yaml:"table"`
}

// ArchiveConfig lists the writers that store streamed readings.
type ArchiveConfig struct {
	Stdout   bool           `yaml:"stdout"`
	File     string         `yaml:"file"`
	Greptime GreptimeConfig `yaml:"greptime"`
}

// LoggingConfig controls host logging.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Config is the root configuration.
type Config struct {
	Dashboard DashboardConfig `yaml:"dashboard"`
	Producer  ProducerConfig  `yaml:"producer"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Admin     AdminConfig     `yaml:"admin"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Dashboard: DashboardConfig{
			Title:        "Soleon Sprayer Dashboard",
			RenderPeriod: 100 * time.Millisecond,
			Width:        60,
		},
		Producer: ProducerConfig{
			FPS:             10,
			MessageInterval: 500 * time.Millisecond,
			IdlePeriod:      10 * time.Millisecond,
			TargetSystem:    1,
			TargetComponent: 1,
		},
		Upstream: UpstreamConfig{
			Source:       "simulated",
			ReplaySpeed:  1,
			InitialLevel: 100,
			SprayRate:    0.5,
			Noise:        0.2,
			ForeignRate:  0.05,
		},
		Admin: AdminConfig{Addr: "127.0.0.1:8090"},
		Archive: ArchiveConfig{
			Greptime: GreptimeConfig{Database: "public"},
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "soleondash.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads configPath, validates it against the CUE schema and applies
// environment overrides. An empty configPath yields the defaults. An empty
// cueSchemaPath uses the built-in schema.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	cfg := Default()
	if configPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot unmarshal YAML config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("GREPTIMEDB_ENDPOINT"); v != "" {
		c.Archive.Greptime.Endpoint = v
	}
	if v := os.Getenv("GREPTIMEDB_TABLE"); v != "" {
		c.Archive.Greptime.Table = v
	}
	if v := os.Getenv("SOLEONDASH_FPS"); v != "" {
		fps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SOLEONDASH_FPS: %w", err)
		}
		c.Producer.FPS = fps
	}
	if v := os.Getenv("SOLEONDASH_ADMIN"); v != "" {
		c.Admin.Enabled = true
		c.Admin.Addr = v
	}
	return nil
}

// check covers what the schema cannot see, such as env overrides.
func (c *Config) check() error {
	if c.Producer.FPS <= 0 {
		return fmt.Errorf("producer.fps must be positive, got %v", c.Producer.FPS)
	}
	if c.Dashboard.RenderPeriod <= 0 {
		return fmt.Errorf("dashboard.render_period must be positive")
	}
	if c.Producer.IdlePeriod <= 0 {
		return fmt.Errorf("producer.idle_period must be positive")
	}
	switch c.Upstream.Source {
	case "simulated":
	case "replay":
		if c.Upstream.ReplayFile == "" {
			return fmt.Errorf("upstream.replay_file is required for replay")
		}
	default:
		return fmt.Errorf("unknown upstream.source %q", c.Upstream.Source)
	}
	return nil
}
