package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object",
			input: `{"gaps": []}`,
			want:  `{"gaps": []}`,
		},
		{
			name:  "fenced with language tag",
			input: "```json\n{\"gaps\": []}\n```",
			want:  `{"gaps": []}`,
		},
		{
			name:  "fenced without language tag",
			input: "```\n{\"score\": 74}\n```",
			want:  `{"score": 74}`,
		},
		{
			name:  "surrounded by prose",
			input: "Here is my analysis:\n{\"gaps\": [{\"title\": \"x\"}]}\nLet me know if you need more.",
			want:  `{"gaps": [{"title": "x"}]}`,
		},
		{
			name:  "braces inside string values",
			input: `{"quote": "uses {curly} braces", "page": 1}`,
			want:  `{"quote": "uses {curly} braces", "page": 1}`,
		},
		{
			name:  "escaped quotes inside strings",
			input: `{"quote": "she said \"done\"", "page": 2}`,
			want:  `{"quote": "she said \"done\"", "page": 2}`,
		},
		{
			name:  "nested objects stop at the outer close",
			input: `{"a": {"b": {"c": 1}}} trailing`,
			want:  `{"a": {"b": {"c": 1}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON_NoObject(t *testing.T) {
	for _, input := range []string{
		"plain text answer",
		"   ",
		"",
		"```\nstill just prose\n```",
		`{"never": "closed"`,
	} {
		_, err := ExtractJSON(input)
		assert.ErrorIs(t, err, ErrNoJSON, "input %q", input)
	}
}
