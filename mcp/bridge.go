package mcp

import "strings"

// Tool naming convention for bridged sub-tools: mcp__{server}__{tool}.
const bridgePrefix = "mcp__"

// BridgeToolName returns the namespaced registry name for a sub-tool.
func BridgeToolName(serverName, toolName string) string {
	return bridgePrefix + serverName + "__" + toolName
}

// SplitToolName reverses BridgeToolName. ok is false for names that do not
// carry the bridge prefix.
func SplitToolName(bridged string) (serverName, toolName string, ok bool) {
	rest, found := strings.CutPrefix(bridged, bridgePrefix)
	if !found {
		return "", "", false
	}
	serverName, toolName, found = strings.Cut(rest, "__")
	if !found || serverName == "" || toolName == "" {
		return "", "", false
	}
	return serverName, toolName, true
}

// Label renders a bridged tool name as "{server}:{tool}" for capability
// traces. Non-bridged names pass through unchanged.
func Label(toolName string) string {
	server, tool, ok := SplitToolName(toolName)
	if !ok {
		return toolName
	}
	return server + ":" + tool
}
