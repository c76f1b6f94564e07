package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fences", `{"a": 1}`, `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"json language tag", "```json\n[1, 2]\n```", "[1, 2]"},
		{"surrounding whitespace", "  ```json\n{}\n```  ", "{}"},
		{"unterminated fence", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.input))
		})
	}
}

func TestParseJSON(t *testing.T) {
	t.Run("clean array", func(t *testing.T) {
		var scores []float64
		require.NoError(t, ParseJSON("[0.1, 0.5, 0.9]", &scores))
		assert.Equal(t, []float64{0.1, 0.5, 0.9}, scores)
	})

	t.Run("fenced object", func(t *testing.T) {
		var out struct {
			Score float64 `json:"score"`
		}
		require.NoError(t, ParseJSON("```json\n{\"score\": 0.8}\n```", &out))
		assert.InDelta(t, 0.8, out.Score, 0.0001)
	})

	t.Run("prose around json", func(t *testing.T) {
		var scores []float64
		require.NoError(t, ParseJSON("Here are the scores:\n[0.2, 0.4]\nHope that helps!", &scores))
		assert.Equal(t, []float64{0.2, 0.4}, scores)
	})

	t.Run("not json is a parse error", func(t *testing.T) {
		var out map[string]any
		err := ParseJSON("I cannot score these items.", &out)
		require.Error(t, err)
		assert.True(t, IsParseError(err))
	})

	t.Run("empty is a parse error", func(t *testing.T) {
		var out map[string]any
		err := ParseJSON("```\n```", &out)
		require.Error(t, err)
		assert.True(t, IsParseError(err))
	})

	t.Run("broken json is a parse error", func(t *testing.T) {
		var out map[string]any
		err := ParseJSON("result: {\"score\": broken}", &out)
		require.Error(t, err)
		assert.True(t, IsParseError(err))
	})
}

func TestIsParseError(t *testing.T) {
	assert.True(t, IsParseError(&ParseError{Reason: "x"}))
	assert.False(t, IsParseError(errors.New("network down")))
	assert.False(t, IsParseError(nil))
}
