package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "relay.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path. The file
// is optional; a missing file is not an error.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)
	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadEnv overlays environment variables onto cfg. Only non-empty
// values override.
func loadEnv(cfg *Config) {
	setString(&cfg.Model.Default, "RELAY_MODEL")
	setString(&cfg.Model.Effort, "RELAY_EFFORT")
	setString(&cfg.Scout.Model, "RELAY_SCOUT_MODEL")
	setString(&cfg.Scout.Command, "RELAY_SCOUT_COMMAND")
	setStrings(&cfg.Scout.AllowedTools, "RELAY_SCOUT_TOOLS")
	setDuration(&cfg.Bridge.Timeout, "RELAY_TIMEOUT")
	setBool(&cfg.Bridge.WriteAccess, "RELAY_WRITE_ACCESS")
	setInt(&cfg.Bridge.MaxTurns, "RELAY_MAX_TURNS")
	setString(&cfg.Bridge.WorkDir, "RELAY_WORKDIR")
	setString(&cfg.Logging.Level, "RELAY_LOG_LEVEL")
}

// validEfforts mirrors the closed effort set accepted by the bridge.
var validEfforts = map[string]bool{"low": true, "medium": true, "high": true, "xhigh": true}

// Normalize repairs invalid values in place and returns one warning
// per repair. Startup logs the warnings and proceeds.
func (c *Config) Normalize() []string {
	var warnings []string
	def := Defaults()

	if !validEfforts[c.Model.Effort] {
		warnings = append(warnings, fmt.Sprintf(
			"invalid effort %q, using %q", c.Model.Effort, def.Model.Effort))
		c.Model.Effort = def.Model.Effort
	}
	if !ScoutModelAllowed(c.Scout.Model) {
		warnings = append(warnings, fmt.Sprintf(
			"scout model %q not in allowed set, using %q", c.Scout.Model, def.Scout.Model))
		c.Scout.Model = def.Scout.Model
	}
	if c.Bridge.Timeout <= 0 {
		warnings = append(warnings, fmt.Sprintf(
			"non-positive timeout, using %s", def.Bridge.Timeout))
		c.Bridge.Timeout = def.Bridge.Timeout
	}
	if c.Bridge.MaxTurns <= 0 {
		warnings = append(warnings, fmt.Sprintf(
			"non-positive max_turns, using %d", def.Bridge.MaxTurns))
		c.Bridge.MaxTurns = def.Bridge.MaxTurns
	}
	if len(c.Scout.AllowedTools) == 0 {
		warnings = append(warnings, "empty scout allowlist, scout tools disabled")
	}
	return warnings
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setStrings(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
