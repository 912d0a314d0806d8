// Package config loads axtree settings from an HCL file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/agentic-research/axtree/internal/journal"
)

// Config is the decoded configuration file.
//
//	focused_node_always_unignored = true
//	log_level = "info"
//	journal {
//	  driver = "sqlite"
//	  path   = "axtree.db"
//	}
//	metrics {
//	  addr = ":9464"
//	}
type Config struct {
	FocusedNodeAlwaysUnignored bool           `hcl:"focused_node_always_unignored,optional"`
	LogLevel                   string         `hcl:"log_level,optional"`
	Journal                    *JournalConfig `hcl:"journal,block"`
	Metrics                    *MetricsConfig `hcl:"metrics,block"`
}

type JournalConfig struct {
	Driver string `hcl:"driver,optional"`
	Path   string `hcl:"path"`
}

type MetricsConfig struct {
	Addr string `hcl:"addr"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{LogLevel: "info"}
}

// Load decodes the HCL file at path.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Parse decodes src. filename only labels diagnostics and selects the
// syntax by extension (.hcl or .json).
func Parse(filename string, src []byte) (*Config, error) {
	cfg := Default()
	if err := hclsimple.Decode(filename, src, nil, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filename, err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if j := c.Journal; j != nil {
		switch j.Driver {
		case "", journal.DriverSQLite, journal.DriverBolt:
		default:
			errs = append(errs, fmt.Errorf("journal driver %q: %w", j.Driver, journal.ErrUnknownDriver))
		}
		if j.Path == "" {
			errs = append(errs, errors.New("journal path is empty"))
		}
	}
	if m := c.Metrics; m != nil && m.Addr == "" {
		errs = append(errs, errors.New("metrics addr is empty"))
	}
	return errors.Join(errs...)
}

// Level returns the configured slog level, info when unset.
func (c *Config) Level() slog.Level {
	l, _ := ParseLevel(c.LogLevel)
	return l
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}
