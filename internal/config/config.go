// Package config loads relay's process configuration with the
// hierarchy: built-in defaults < optional YAML file < RELAY_* env.
// Invalid values are normalized back to defaults with a warning;
// configuration never aborts startup.
package config

import "time"

// Config is the full process configuration.
type Config struct {
	Model   ModelConfig   `yaml:"model"`
	Scout   ScoutConfig   `yaml:"scout"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Logging LoggingConfig `yaml:"logging"`
}

// ModelConfig selects the primary agent defaults.
type ModelConfig struct {
	Default string `yaml:"default"`
	Effort  string `yaml:"effort"`
}

// ScoutConfig describes the secondary agent's sub-tool server.
type ScoutConfig struct {
	Model        string   `yaml:"model"`
	Command      string   `yaml:"command"`
	Args         []string `yaml:"args"`
	AllowedTools []string `yaml:"allowed_tools"`
}

// BridgeConfig holds per-request defaults.
type BridgeConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	WriteAccess bool          `yaml:"write_access"`
	MaxTurns    int           `yaml:"max_turns"`
	WorkDir     string        `yaml:"workdir"`
}

// LoggingConfig controls the stderr logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// AllowedScoutModels is the closed set a scout model override must
// belong to; anything else drops back to the default.
var AllowedScoutModels = []string{
	"claude-haiku-4-5",
	"claude-sonnet-4-5",
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Model: ModelConfig{
			Default: "claude-opus-4-6",
			Effort:  "medium",
		},
		Scout: ScoutConfig{
			Model:        "claude-haiku-4-5",
			Command:      "scout-mcp",
			AllowedTools: []string{"analyze", "web_search", "summarize", "brainstorm"},
		},
		Bridge: BridgeConfig{
			Timeout:  5 * time.Minute,
			MaxTurns: 50,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ScoutModelAllowed reports whether model is in the closed allowed set.
func ScoutModelAllowed(model string) bool {
	for _, m := range AllowedScoutModels {
		if m == model {
			return true
		}
	}
	return false
}
