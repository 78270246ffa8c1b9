package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNormalize(t *testing.T) {
	n := NewTextNormalizer(zap.NewNop())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "lowercases", input: "FREE Money NOW", want: "free money now"},
		{name: "strips urls", input: "click http://evil.example/win today", want: "click today"},
		{name: "strips www urls", input: "visit www.example.com now", want: "visit now"},
		{name: "strips addresses", input: "mail me at winner@example.com please", want: "mail me at please"},
		{name: "strips punctuation and digits", input: "win $1,000,000!!! act now", want: "win act now"},
		{name: "collapses whitespace", input: "  hello \t\n  world  ", want: "hello world"},
		{name: "only symbols", input: "!!! 123 ???", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	n := NewTextNormalizer(zap.NewNop())

	assert.Equal(t, []string{"free", "money"}, n.Tokenize("FREE money!"))
	assert.Nil(t, n.Tokenize("12345 !!!"))
	assert.Nil(t, n.Tokenize(""))
}

func TestTruncatePreview(t *testing.T) {
	assert.Equal(t, "hello", TruncatePreview("hello", 50))
	assert.Equal(t, "hello", TruncatePreview("hello world", 5))
	assert.Equal(t, "hello world", TruncatePreview("hello world", 0))

	// Never splits a multi-byte rune.
	assert.Equal(t, "h", TruncatePreview("héllo", 2))
	assert.Equal(t, "hé", TruncatePreview("héllo", 3))
}
