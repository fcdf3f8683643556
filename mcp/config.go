// Package mcp connects the secondary agent to a session as a restricted
// sub-tool server. The server is launched as a subprocess speaking MCP over
// stdio; only tools matching the configured allowlist are bridged into the
// session's registry, so nothing else on the server is reachable.
package mcp

import (
	"fmt"

	"github.com/relaymind/relay/permission"
)

// ServerConfig describes one sub-tool server.
type ServerConfig struct {
	// Command is the executable to spawn.
	Command string

	// Args are command-line arguments for the subprocess.
	Args []string

	// Env are extra KEY=VALUE environment entries for the subprocess.
	Env []string

	// AllowedTools restricts which of the server's tools are exposed.
	// Patterns use path.Match syntax. An empty allowlist exposes nothing.
	AllowedTools permission.Allowlist
}

// Validate reports whether the config can launch a server.
func (c ServerConfig) Validate() error {
	if c.Command == "" {
		return fmt.Errorf("%w: command is required", ErrInvalidConfig)
	}
	return nil
}
