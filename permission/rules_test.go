package permission_test

import (
	"testing"

	"github.com/relaymind/relay/permission"
	"github.com/stretchr/testify/assert"
)

func TestAllowlist_Allows(t *testing.T) {
	list := permission.Allowlist{"search", "fetch_*", "analyze"}

	assert.True(t, list.Allows("search"))
	assert.True(t, list.Allows("fetch_url"))
	assert.True(t, list.Allows("analyze"))
	assert.False(t, list.Allows("write_file"))
	assert.False(t, list.Allows("searchx"))
}

func TestAllowlist_Empty(t *testing.T) {
	assert.False(t, permission.Allowlist(nil).Allows("anything"))
	assert.False(t, permission.Allowlist{}.Allows("anything"))
}

func TestAllowlist_InvalidPatternNeverMatches(t *testing.T) {
	list := permission.Allowlist{"[invalid"}
	assert.False(t, list.Allows("invalid"))
}

func TestAllowlist_Filter(t *testing.T) {
	list := permission.Allowlist{"search", "summarize"}
	got := list.Filter([]string{"summarize", "exec", "search", "rm"})
	assert.Equal(t, []string{"summarize", "search"}, got)
}

func TestAllowlist_FilterNoMatches(t *testing.T) {
	list := permission.Allowlist{"search"}
	assert.Nil(t, list.Filter([]string{"exec", "rm"}))
}
