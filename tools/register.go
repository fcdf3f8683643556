package tools

import "github.com/relaymind/relay/toolkit"

// ReadClass lists the tools that cannot mutate durable state.
var ReadClass = []string{"Read", "Glob", "Grep", "WebFetch"}

// WriteClass lists the tools excluded when write access is disabled.
var WriteClass = []string{"Write", "Bash"}

// Register adds the builtin tools to a session registry, skipping any name
// present in excluded.
func Register(registry *toolkit.Registry, excluded []string) {
	skip := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		skip[name] = true
	}

	if !skip["Read"] {
		toolkit.Register[ReadInput](registry, &ReadTool{})
	}
	if !skip["Glob"] {
		toolkit.Register[GlobInput](registry, &GlobTool{})
	}
	if !skip["Grep"] {
		toolkit.Register[GrepInput](registry, &GrepTool{})
	}
	if !skip["WebFetch"] {
		toolkit.Register[WebFetchInput](registry, &WebFetchTool{})
	}
	if !skip["Write"] {
		toolkit.Register[WriteInput](registry, &WriteTool{})
	}
	if !skip["Bash"] {
		toolkit.Register[BashInput](registry, &BashTool{})
	}
}
