package textproc

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

var loaderOnce sync.Once

// BPE is the byte pair encoding a model's service tokenizes with.
// Vocabularies are embedded; nothing is downloaded.
type BPE struct {
	enc *tiktoken.Tiktoken
}

// NewBPE returns the encoding for model, e.g. o200k_base for gpt-4o.
// Unknown models are an error.
func NewBPE(model string) (*BPE, error) {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, err
	}
	return &BPE{enc: enc}, nil
}

// ForModel returns the model's BPE tokenizer, or Approx when the model has
// no known encoding.
func ForModel(model string) Tokenizer {
	if b, err := NewBPE(model); err == nil {
		return b
	}
	return Approx{}
}

// Count returns the number of tokens in text.
func (b *BPE) Count(text string) int {
	return len(b.enc.Encode(text, nil, nil))
}

// Truncate implements Tokenizer. A multi-byte character split by the cut
// is dropped.
func (b *BPE) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	ids := b.enc.Encode(text, nil, nil)
	if len(ids) <= maxTokens {
		return text
	}
	out := b.enc.Decode(ids[:maxTokens])
	for len(out) > 0 && !utf8.ValidString(out) {
		out = out[:len(out)-1]
	}
	return out
}
