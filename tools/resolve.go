package tools

import (
	"context"
	"path/filepath"

	"github.com/relaymind/relay/toolkit"
)

const maxOutputBytes = 30_000

// resolvePath resolves a file path against the session working directory.
// Absolute paths pass through unchanged.
func resolvePath(ctx context.Context, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if dir := toolkit.WorkDir(ctx); dir != "" {
		return filepath.Join(dir, path)
	}
	return path
}

// truncate caps tool output so a single call cannot flood the context window.
func truncate(text string) string {
	if len(text) > maxOutputBytes {
		return text[:maxOutputBytes] + "\n... [output truncated]"
	}
	return text
}
