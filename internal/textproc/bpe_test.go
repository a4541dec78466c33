package textproc

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBPE_KnownModels(t *testing.T) {
	for _, model := range []string{"gpt-4o", "gpt-4"} {
		_, err := NewBPE(model)
		assert.NoError(t, err, model)
	}
	_, err := NewBPE("llama3:8b")
	assert.Error(t, err)
}

func TestForModel_FallsBackToApprox(t *testing.T) {
	assert.IsType(t, &BPE{}, ForModel("gpt-4o"))
	assert.Equal(t, Approx{}, ForModel("qwen2.5:14b"))
}

func TestBPE_CountAndTruncate(t *testing.T) {
	b, err := NewBPE("gpt-4o")
	require.NoError(t, err)

	assert.Equal(t, 0, b.Count(""))
	assert.Equal(t, 2, b.Count("Hello world"))
	assert.Equal(t, "Hello world", b.Truncate("Hello world, this is a test", 2))
	assert.Equal(t, "Hello world", b.Truncate("Hello world", 10))
	assert.Empty(t, b.Truncate("Hello", 0))
}

func TestBPE_TruncateWithinBudget(t *testing.T) {
	b, err := NewBPE("gpt-4o")
	require.NoError(t, err)

	text := strings.Repeat("Transformers attend to every token in the sequence. ", 300)
	for _, n := range []int{1, 17, 250, 1000} {
		got := b.Truncate(text, n)
		assert.True(t, strings.HasPrefix(text, got))
		assert.LessOrEqual(t, b.Count(got), n)
	}
}

func TestBPE_TruncateKeepsValidUTF8(t *testing.T) {
	b, err := NewBPE("gpt-4")
	require.NoError(t, err)

	text := "深度学习模型的可解释性研究"
	for n := 1; n <= b.Count(text); n++ {
		got := b.Truncate(text, n)
		assert.True(t, utf8.ValidString(got), "n=%d", n)
		assert.True(t, strings.HasPrefix(text, got), "n=%d", n)
	}
}
