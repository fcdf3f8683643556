package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type simpleInput struct {
	Query string `json:"query" jsonschema:"required,description=The search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Max results"`
}

type nestedInput struct {
	Name string   `json:"name" jsonschema:"required"`
	Tags []string `json:"tags,omitempty"`
}

// asProps unwraps the schema's untyped Properties field.
func asProps(t *testing.T, v any) map[string]any {
	t.Helper()
	props, ok := v.(map[string]any)
	require.True(t, ok, "properties should be a map[string]any, got %T", v)
	return props
}

func TestGenerate_Simple(t *testing.T) {
	s := Generate[simpleInput]()

	props := asProps(t, s.Properties)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "limit")
	assert.Contains(t, s.Required, "query")
	assert.NotContains(t, s.Required, "limit")

	q, ok := props["query"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", q["type"])
	assert.Equal(t, "The search query", q["description"])
}

func TestGenerate_ArrayField(t *testing.T) {
	s := Generate[nestedInput]()

	tags, ok := asProps(t, s.Properties)["tags"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", tags["type"])

	items, ok := tags["items"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", items["type"])
}

func TestGenerate_PointerField(t *testing.T) {
	type withPtr struct {
		Timeout *int `json:"timeout,omitempty" jsonschema:"description=Timeout in ms"`
	}
	s := Generate[withPtr]()

	p, ok := asProps(t, s.Properties)["timeout"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "integer", p["type"])
}
