package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		err  error
	}{
		{name: "bare object", in: `{"title":"T"}`, want: `{"title":"T"}`},
		{name: "markdown fence", in: "```json\n{\"title\":\"T\"}\n```", want: `{"title":"T"}`},
		{name: "prose around", in: `Here you go: {"a":{"b":1}} Enjoy!`, want: `{"a":{"b":1}}`},
		{name: "braces in strings", in: `{"content":"<p>use {curly} braces}</p>"}`, want: `{"content":"<p>use {curly} braces}</p>"}`},
		{name: "escaped quote", in: `{"q":"she said \"{hi\""} trailing }`, want: `{"q":"she said \"{hi\""}`},
		{name: "first of two", in: `{"a":1} {"b":2}`, want: `{"a":1}`},
		{name: "no object", in: "I cannot help with that.", err: ErrNoJSON},
		{name: "empty", in: "", err: ErrNoJSON},
		{name: "truncated", in: `{"title":"T","content":"<p>cut off`, err: ErrUnterminatedJSON},
		{name: "truncated nested", in: `{"a":{"b":1}`, err: ErrUnterminatedJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONOutputParses(t *testing.T) {
	raw := "Sure!\n{\"title\":\"T\",\"excerpt\":\"E\",\"content\":\"<p>C</p>\",\"keywords\":[\"a\"],\"readingTime\":3}\nThanks"
	span, err := ExtractJSON(raw)
	require.NoError(t, err)

	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(span), &v))
	assert.Equal(t, "T", v["title"])
}
