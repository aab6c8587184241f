package mcp

import (
	"errors"
	"testing"

	mcp_golang "github.com/metoro-io/mcp-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_getStringArg(t *testing.T) {
	registry := &Registry{}

	tests := []struct {
		name     string
		args     map[string]interface{}
		key      string
		expected string
	}{
		{
			name:     "existing string value",
			args:     map[string]interface{}{"key": "value"},
			key:      "key",
			expected: "value",
		},
		{
			name:     "non-existing key",
			args:     map[string]interface{}{"other": "value"},
			key:      "key",
			expected: "",
		},
		{
			name:     "non-string value",
			args:     map[string]interface{}{"key": 123},
			key:      "key",
			expected: "",
		},
		{
			name:     "empty map",
			args:     map[string]interface{}{},
			key:      "key",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := registry.getStringArg(tt.args, tt.key)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRegistry_getIDArg(t *testing.T) {
	registry := &Registry{}

	tests := []struct {
		name     string
		args     map[string]interface{}
		key      string
		expected string
	}{
		{
			name:     "string identifier",
			args:     map[string]interface{}{"key": "12345"},
			key:      "key",
			expected: "12345",
		},
		{
			name:     "course code string",
			args:     map[string]interface{}{"key": "CS_101_Fall2024"},
			key:      "key",
			expected: "CS_101_Fall2024",
		},
		{
			name:     "JSON number arrives as float64",
			args:     map[string]interface{}{"key": 12345.0},
			key:      "key",
			expected: "12345",
		},
		{
			name:     "int value",
			args:     map[string]interface{}{"key": 42},
			key:      "key",
			expected: "42",
		},
		{
			name:     "non-existing key",
			args:     map[string]interface{}{"other": "12345"},
			key:      "key",
			expected: "",
		},
		{
			name:     "unsupported type",
			args:     map[string]interface{}{"key": true},
			key:      "key",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := registry.getIDArg(tt.args, tt.key)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRegistry_getIntArg(t *testing.T) {
	registry := &Registry{}

	tests := []struct {
		name     string
		args     map[string]interface{}
		key      string
		expected int64
	}{
		{
			name:     "existing int value",
			args:     map[string]interface{}{"key": 42},
			key:      "key",
			expected: 42,
		},
		{
			name:     "existing float64 value",
			args:     map[string]interface{}{"key": 42.5},
			key:      "key",
			expected: 42,
		},
		{
			name:     "non-existing key",
			args:     map[string]interface{}{"other": 123},
			key:      "key",
			expected: 0,
		},
		{
			name:     "non-numeric value",
			args:     map[string]interface{}{"key": "not a number"},
			key:      "key",
			expected: 0,
		},
		{
			name:     "zero value",
			args:     map[string]interface{}{"key": 0},
			key:      "key",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := registry.getIntArg(tt.args, tt.key)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRegistry_getBoolArg(t *testing.T) {
	registry := &Registry{}

	tests := []struct {
		name     string
		args     map[string]interface{}
		key      string
		expected bool
	}{
		{
			name:     "existing true value",
			args:     map[string]interface{}{"key": true},
			key:      "key",
			expected: true,
		},
		{
			name:     "existing false value",
			args:     map[string]interface{}{"key": false},
			key:      "key",
			expected: false,
		},
		{
			name:     "non-existing key",
			args:     map[string]interface{}{"other": true},
			key:      "key",
			expected: false,
		},
		{
			name:     "non-bool value",
			args:     map[string]interface{}{"key": "true"},
			key:      "key",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := registry.getBoolArg(tt.args, tt.key)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRegistry_courseIdentifier(t *testing.T) {
	registry := &Registry{}

	id, ok := registry.courseIdentifier(map[string]interface{}{"course_identifier": "CS_101"})
	assert.True(t, ok)
	assert.Equal(t, "CS_101", id)

	id, ok = registry.courseIdentifier(map[string]interface{}{"course_identifier": 60073.0})
	assert.True(t, ok)
	assert.Equal(t, "60073", id)

	_, ok = registry.courseIdentifier(map[string]interface{}{})
	assert.False(t, ok)
}

func TestRegistry_respond(t *testing.T) {
	registry := &Registry{}

	t.Run("success becomes text response", func(t *testing.T) {
		resp, err := registry.respond("all good", nil)
		require.NoError(t, err)
		assert.IsType(t, &mcp_golang.ToolResponse{}, resp)
		require.Len(t, resp.Content, 1)
		assert.Equal(t, "all good", resp.Content[0].TextContent.Text)
	})

	t.Run("handler error becomes Error text, not a Go error", func(t *testing.T) {
		resp, err := registry.respond("", errors.New("fetching course: HTTP 404: Not Found"))
		require.NoError(t, err)
		require.Len(t, resp.Content, 1)
		assert.Equal(t, "Error: fetching course: HTTP 404: Not Found", resp.Content[0].TextContent.Text)
	})
}

func TestRegistry_errorResponse(t *testing.T) {
	registry := &Registry{}

	resp, err := registry.errorResponse("course_identifier parameter is required")
	require.NoError(t, err)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, "Error: course_identifier parameter is required", resp.Content[0].TextContent.Text)
}
