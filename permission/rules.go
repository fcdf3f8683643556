package permission

import "path"

// Allowlist is a fixed set of glob patterns naming the sub-tool surface
// exposed to the primary agent. It is built once at startup and read-only
// for the life of the process.
type Allowlist []string

// Allows reports whether the named tool matches any pattern.
// Invalid patterns never match.
func (a Allowlist) Allows(toolName string) bool {
	for _, p := range a {
		ok, err := path.Match(p, toolName)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// Filter returns the subset of names permitted by the allowlist,
// preserving input order.
func (a Allowlist) Filter(names []string) []string {
	var kept []string
	for _, n := range names {
		if a.Allows(n) {
			kept = append(kept, n)
		}
	}
	return kept
}
