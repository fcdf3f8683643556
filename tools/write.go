package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/relaymind/relay/toolkit"
)

// WriteInput defines the input for the Write tool.
type WriteInput struct {
	FilePath string `json:"file_path" jsonschema:"required,description=The path to the file to write"`
	Content  string `json:"content" jsonschema:"required,description=The content to write to the file"`
}

// WriteTool writes content to a file, creating parent directories if needed.
type WriteTool struct{}

var _ toolkit.Tool[WriteInput] = (*WriteTool)(nil)

func (t *WriteTool) Name() string        { return "Write" }
func (t *WriteTool) Description() string { return "Write a file to the local filesystem" }

func (t *WriteTool) Execute(ctx context.Context, input WriteInput) (*toolkit.Result, error) {
	if input.FilePath == "" {
		return toolkit.ErrorResult("file_path is required"), nil
	}

	resolved := resolvePath(ctx, input.FilePath)

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("failed to create directory: %s", err.Error())), nil
	}
	if err := os.WriteFile(resolved, []byte(input.Content), 0o644); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("failed to write file: %s", err.Error())), nil
	}

	return toolkit.TextResult(fmt.Sprintf("Successfully wrote to %s", resolved)), nil
}
