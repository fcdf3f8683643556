package tools

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/relaymind/relay/toolkit"
)

// GrepInput defines the input for the Grep tool.
type GrepInput struct {
	Pattern         string `json:"pattern" jsonschema:"required,description=The regex pattern to search for"`
	Path            string `json:"path,omitempty" jsonschema:"description=File or directory to search in"`
	OutputMode      string `json:"output_mode,omitempty" jsonschema:"description=Output mode: content or files_with_matches or count"`
	Glob            string `json:"glob,omitempty" jsonschema:"description=Glob pattern to filter files"`
	Context         *int   `json:"context,omitempty" jsonschema:"description=Lines of context around matches"`
	CaseInsensitive bool   `json:"case_insensitive,omitempty" jsonschema:"description=Case insensitive search"`
}

// GrepTool searches file contents using ripgrep.
type GrepTool struct{}

var _ toolkit.Tool[GrepInput] = (*GrepTool)(nil)

func (t *GrepTool) Name() string        { return "Grep" }
func (t *GrepTool) Description() string { return "Search file contents using regex patterns" }

func (t *GrepTool) Execute(ctx context.Context, input GrepInput) (*toolkit.Result, error) {
	if input.Pattern == "" {
		return toolkit.ErrorResult("pattern is required"), nil
	}

	rgPath, err := exec.LookPath("rg")
	if err != nil {
		return toolkit.ErrorResult("ripgrep (rg) is not installed"), nil
	}

	cmd := exec.CommandContext(ctx, rgPath, buildRgArgs(input)...)
	if input.Path == "" {
		cmd.Dir = toolkit.WorkDir(ctx)
	}

	output, err := cmd.CombinedOutput()
	text := string(output)

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			// rg exits 1 on no matches, 2 on error
			if exitErr.ExitCode() == 1 {
				return toolkit.TextResult("No matches found."), nil
			}
			return toolkit.ErrorResult(fmt.Sprintf("rg error: %s", text)), nil
		}
		return toolkit.ErrorResult(fmt.Sprintf("failed to run rg: %s", err.Error())), nil
	}

	return toolkit.TextResult(truncate(text)), nil
}

func buildRgArgs(input GrepInput) []string {
	var args []string

	switch input.OutputMode {
	case "content":
		args = append(args, "-n")
	case "count":
		args = append(args, "-c")
	default: // files_with_matches
		args = append(args, "-l")
	}

	if input.CaseInsensitive {
		args = append(args, "-i")
	}
	if input.Glob != "" {
		args = append(args, "--glob", input.Glob)
	}
	if input.Context != nil && *input.Context > 0 {
		args = append(args, "-C", fmt.Sprintf("%d", *input.Context))
	}

	args = append(args, input.Pattern)
	if input.Path != "" {
		args = append(args, input.Path)
	}
	return args
}
