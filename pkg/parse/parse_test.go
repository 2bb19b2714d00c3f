package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	plain := `{"key": "create_file", "reasoning": "x"}`

	assert.Equal(t, plain, StripFences(plain))
	assert.Equal(t, plain, StripFences("```json\n"+plain+"\n```"))
	assert.Equal(t, plain, StripFences("```\n"+plain+"\n```\n"))
	assert.Equal(t, "a\nb", StripFences("```\na\nb\n```"))
	// already stripped content stays as is
	assert.Equal(t, StripFences(plain), StripFences(StripFences(plain)))
	assert.Equal(t, "", StripFences("```"))
}

func TestParseJSONObject(t *testing.T) {
	obj, err := ParseJSONObject("```json\n{\"key\": \"a\", \"reasoning\": \"b\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "a", obj["key"])

	_, err = ParseJSONObject("I think you should create a file")
	require.ErrorIs(t, err, ErrNotJSONObject)

	_, err = ParseJSONObject(`{"key": "a"`)
	require.Error(t, err)

	_, err = ParseJSONObject(`{"key": "a"} {"key": "b"}`)
	require.ErrorIs(t, err, ErrNotJSONObject)
}

func TestValidateJSON(t *testing.T) {
	schema := `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"age": {"type": "number"}
		},
		"required": ["name", "age"]
	}`

	res, err := ValidateJSON(schema, `{"name": "John", "age": 3}`)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.ValidationErrors)

	res, err = ValidateJSON(schema, `{"name": 123, "address": "123 Main St"}`)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 2)
	assert.Contains(t, res.ValidationErrors, "name: Invalid type")
	assert.Contains(t, res.ValidationErrors, "age is required")
}

type selection struct {
	Key       string `json:"key"`
	Reasoning string `json:"reasoning" jsonschema:"minLength=1"`
	Extra     string `json:"extra,omitempty"`
}

func TestSchemaFor(t *testing.T) {
	schema, err := SchemaFor(&selection{})
	require.NoError(t, err)
	assert.NotContains(t, schema, "$schema")

	res, err := ValidateJSON(schema, `{"key": "a", "reasoning": "b", "other": 1}`)
	require.NoError(t, err)
	assert.True(t, res.Valid, res.ValidationErrors)

	res, err = ValidateJSON(schema, `{"key": "a"}`)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = ValidateJSON(schema, `{"key": "a", "reasoning": ""}`)
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestExtractCodeBlocks(t *testing.T) {
	md := "Here you go:\n\n```go\npackage main\n\nfunc main() {}\n```\n\nand\n\n```yaml\na: 1\n```\n"

	blocks, err := ExtractCodeBlocks(md, "")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "go", blocks[0].Language)
	assert.Equal(t, "package main\n\nfunc main() {}\n", blocks[0].Code)

	blocks, err = ExtractCodeBlocks(md, "YAML")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "a: 1\n", blocks[0].Code)
}
