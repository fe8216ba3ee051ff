package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "bare object",
			raw:  `{"documentType":"policy"}`,
			want: `{"documentType":"policy"}`,
		},
		{
			name: "wrapped in prose",
			raw:  `Sure, here is the result: {"documentType":"policy"} Let me know if you need anything else.`,
			want: `{"documentType":"policy"}`,
		},
		{
			name: "code fence",
			raw:  "```json\n{\"documentType\":\"quote\"}\n```",
			want: `{"documentType":"quote"}`,
		},
		{
			name: "nested objects",
			raw:  `{"a":{"b":{"c":1}},"d":2}`,
			want: `{"a":{"b":{"c":1}},"d":2}`,
		},
		{
			name: "braces inside strings",
			raw:  `{"note":"see {section 4} for details","n":1}`,
			want: `{"note":"see {section 4} for details","n":1}`,
		},
		{
			name: "escaped quote inside string",
			raw:  `{"note":"the \"declarations\" page","n":1}`,
			want: `{"note":"the \"declarations\" page","n":1}`,
		},
		{
			name: "trailing commentary after object",
			raw:  `{"n":1}} extra closing brace and commentary`,
			want: `{"n":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, json.Valid([]byte(got)), "extracted object must parse")
		})
	}
}

func TestExtractJSONObject_NoObject(t *testing.T) {
	for _, raw := range []string{"", "no json here", "[1,2,3]", `{"unterminated": "obj`} {
		_, err := ExtractJSONObject(raw)
		assert.ErrorIs(t, err, ErrNoJSONObject, "raw=%q", raw)
	}
}

func TestExtractJSONObject_RepairsUnquotedKeys(t *testing.T) {
	got, err := ExtractJSONObject(`{documentType": "policy", confidence": 0.9}`)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &parsed))
	assert.Equal(t, "policy", parsed["documentType"])
}
