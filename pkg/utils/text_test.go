package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTidy(t *testing.T) {
	assert.Equal(t, "a b c", Tidy("  a \n\n b\t c  "))
	assert.Equal(t, "", Tidy(" \n "))
}

func TestFirstTokens(t *testing.T) {
	assert.Equal(t, "one two", FirstTokens("one  two three", 2))
	assert.Equal(t, "one", FirstTokens("one", 20))
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"hot tools": "Hot Tools",
		"ghd":       "Ghd",
		"ABC-DEF":   "Abc-Def",
		"SONY":      "Sony",
		"wh1000xm4": "Wh1000Xm4",
		"":          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, TitleCase(in), in)
	}
}

func TestIsUpper(t *testing.T) {
	assert.True(t, IsUpper("ABC"))
	assert.True(t, IsUpper("ABC1-X"))
	assert.False(t, IsUpper("123"))
	assert.False(t, IsUpper("Abc"))
}

func TestIsTitle(t *testing.T) {
	assert.True(t, IsTitle("Sony"))
	assert.True(t, IsTitle("Hot Tools"))
	assert.False(t, IsTitle("WH-1000XM4"))
	assert.False(t, IsTitle("sony"))
	assert.False(t, IsTitle("123"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo world", 5))
	assert.Equal(t, "hi", Truncate("hi", 5))
}
