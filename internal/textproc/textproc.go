// Package textproc cleans extracted document text and fits it into a token
// budget before it is sent to a language model.
package textproc

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultMinLineLength = 3
	DefaultMaxTokens     = 8000
)

// Options configures cleaning behavior.
type Options struct {
	// MinLineLength drops trimmed lines shorter than this many characters.
	MinLineLength int
	// KeepNumericLines keeps lines made only of digits (page numbers).
	KeepNumericLines bool
}

// DefaultOptions returns default cleaning options.
func DefaultOptions() Options {
	return Options{MinLineLength: DefaultMinLineLength}
}

// Clean trims every line and drops blank lines, short fragments and bare
// page numbers. Surviving lines are joined with "\n".
func Clean(text string, opts Options) string {
	if opts.MinLineLength == 0 {
		opts = DefaultOptions()
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) < opts.MinLineLength {
			continue
		}
		if !opts.KeepNumericLines && isDigits(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Prefix returns the first n characters of s.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
