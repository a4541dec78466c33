package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	in := "  Title of Paper  \n\n\n\nab\n12\n 3 \nIntroduction text here.\n\n   \nSection 2 begins\n١٢٣\n"
	got := Clean(in, DefaultOptions())
	assert.Equal(t, "Title of Paper\nIntroduction text here.\nSection 2 begins", got)
}

func TestClean_Empty(t *testing.T) {
	assert.Empty(t, Clean("", DefaultOptions()))
	assert.Empty(t, Clean("\n\n  \n1\n", DefaultOptions()))
}

func TestClean_KeepNumericLines(t *testing.T) {
	got := Clean("2024\nbody text", Options{MinLineLength: 3, KeepNumericLines: true})
	assert.Equal(t, "2024\nbody text", got)
}

func TestClean_CountsCharactersNotBytes(t *testing.T) {
	assert.Equal(t, "深度学", Clean("深度学\n深度", DefaultOptions()))
}

func TestApprox_Count(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"Hello world", 2},
		{"It's", 2},
		{"12345", 2},
		{"深度学习", 4},
		{"deep学习", 3},
		{"end.", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Approx{}.Count(tt.text), tt.text)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "one two", Truncate("one two three", 2))
	assert.Equal(t, "one two three", Truncate("one two three", 3))
	assert.Equal(t, "one two three", Truncate("one two three", 100))
	assert.Equal(t, "", Truncate("one", 0))
	assert.Equal(t, "深度", Truncate("深度学习", 2))
}

func TestTruncate_IsPrefixWithinBudget(t *testing.T) {
	text := strings.Repeat("Transformers attend to every token, 中文 too!\n", 200)
	for _, n := range []int{1, 7, 50, 999} {
		got := Truncate(text, n)
		assert.True(t, strings.HasPrefix(text, got))
		assert.LessOrEqual(t, Approx{}.Count(got), n)
	}
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "abc", Prefix("abcdef", 3))
	assert.Equal(t, "深度", Prefix("深度学习", 2))
	assert.Equal(t, "ab", Prefix("ab", 10))
	assert.Equal(t, "", Prefix("ab", 0))
}
