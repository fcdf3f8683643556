package mcp

import "errors"

// Sentinel errors for the mcp package.
var (
	// ErrInvalidConfig is returned when a ServerConfig is missing required fields.
	ErrInvalidConfig = errors.New("mcp: invalid server config")

	// ErrConnect is returned when the sub-tool server cannot be launched or
	// fails the MCP handshake.
	ErrConnect = errors.New("mcp: server connect failed")
)
