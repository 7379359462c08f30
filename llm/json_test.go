package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Country string   `json:"country"`
	Queries []string `json:"queries"`
}

func TestDecodeJSON(t *testing.T) {
	cases := map[string]string{
		"plain":          `{"country":"Canada","queries":["a","b"]}`,
		"fenced":         "```json\n{\"country\":\"Canada\",\"queries\":[\"a\",\"b\"]}\n```",
		"prose around":   "Here is the JSON:\n{\"country\":\"Canada\",\"queries\":[\"a\",\"b\"]}\nHope that helps.",
		"missing brace":  `{"country":"Canada","queries":["a","b"]`,
		"trailing comma": `{"country":"Canada","queries":["a","b",],}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var got sample
			require.NoError(t, DecodeJSON(raw, &got))
			assert.Equal(t, "Canada", got.Country)
			assert.Equal(t, []string{"a", "b"}, got.Queries)
		})
	}
}

func TestDecodeJSON_Garbage(t *testing.T) {
	var got sample
	assert.Error(t, DecodeJSON("I cannot help with that.", &got))
}
