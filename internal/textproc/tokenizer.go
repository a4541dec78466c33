package textproc

import "regexp"

// Tokenizer measures and cuts text in model tokens.
type Tokenizer interface {
	Count(text string) int
	// Truncate returns the longest prefix of text holding at most
	// maxTokens tokens.
	Truncate(text string, maxTokens int) string
}

// pieces approximates the pre-tokenization step of GPT-style byte pair
// encoders: contractions, letter runs, numbers of up to three digits,
// punctuation runs and whitespace. Each CJK character is its own piece.
var pieces = regexp.MustCompile(
	`(?i:'s|'t|'re|'ve|'m|'ll|'d)` +
		`|[\p{Han}\p{Hiragana}\p{Katakana}\p{Hangul}]` +
		`|[^\r\n\p{L}\p{N}]?[^\P{L}\p{Han}\p{Hiragana}\p{Katakana}\p{Hangul}]+` +
		`|\p{N}{1,3}` +
		`| ?[^\s\p{L}\p{N}]+[\r\n]*` +
		`|\s*[\r\n]+` +
		`|\s+`)

// Approx is the Tokenizer for models without a known encoding. Counts are
// close to, and usually slightly below, what a real BPE vocabulary produces
// for prose.
type Approx struct{}

// Count returns the number of tokens in text.
func (Approx) Count(text string) int {
	return len(pieces.FindAllStringIndex(text, -1))
}

// Truncate implements Tokenizer.
func (Approx) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	locs := pieces.FindAllStringIndex(text, maxTokens+1)
	if len(locs) <= maxTokens {
		return text
	}
	return text[:locs[maxTokens-1][1]]
}

// Truncate cuts text to maxTokens using the default tokenizer.
func Truncate(text string, maxTokens int) string {
	return Approx{}.Truncate(text, maxTokens)
}
