package node

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"text around", "Here you go:\n```json\n{\"a\":1}\n```\nEnjoy", `{"a":1}`},
		{"unterminated", "```json\n{\"a\":1}", `{"a":1}`},
		{"no fence", `  {"a":1} `, `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripCodeFences(tc.in))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":{"b":2}}`, ExtractJSONObject(`Sure! {"a":{"b":2}} thanks`))
	assert.Equal(t, `[1,2]`, ExtractJSONObject(`list: [1,2]`))
	assert.Equal(t, "", ExtractJSONObject("   "))
}

func TestTruncateByRunes(t *testing.T) {
	assert.Equal(t, "héllo", TruncateByRunes("héllo world", 5))
	assert.Equal(t, "short", TruncateByRunes("short", 10))
	assert.Equal(t, "", TruncateByRunes("x", 0))
}

func TestIsResponseFormatUnsupportedError(t *testing.T) {
	assert.True(t, IsResponseFormatUnsupportedError(errors.New("400: unknown parameter response_format")))
	assert.True(t, IsResponseFormatUnsupportedError(errors.New("model does not support JSON_SCHEMA")))
	assert.True(t, IsResponseFormatUnsupportedError(errors.New("Unknown parameter: 'response'")))
	assert.False(t, IsResponseFormatUnsupportedError(errors.New("rate limit exceeded")))
	assert.False(t, IsResponseFormatUnsupportedError(nil))
}
