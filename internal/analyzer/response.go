package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rcliao/paper-digest/internal/llm"
	"github.com/rcliao/paper-digest/internal/textproc"
)

// ParseFailureMarker prefixes the raw model reply in degraded results.
const ParseFailureMarker = "parse failed, raw response: "

const (
	degradedAbstractChars = 300
	degradedRawChars      = 200
)

var (
	// ErrNoTextContent means a record had neither extractable full text
	// nor an abstract.
	ErrNoTextContent = errors.New("no text content")
	// ErrMalformedResponse means the model reply did not match the
	// analysis schema.
	ErrMalformedResponse = errors.New("malformed analysis response")
)

// Analysis holds the three fields requested from the model.
type Analysis struct {
	Abstract         string `json:"abstract"`
	InnovationPoints string `json:"innovation_points"`
	Summary          string `json:"summary"`
}

// ParseResponse decodes a model reply into an Analysis. The reply may be
// wrapped in a code fence. All three fields are required; each must be a
// string or a list of strings (joined with newlines).
func ParseResponse(raw string) (Analysis, error) {
	body := llm.StripCodeFence(raw)
	if body == "" {
		return Analysis{}, fmt.Errorf("%w: empty reply", ErrMalformedResponse)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var a Analysis
	for _, f := range []struct {
		name string
		dest *string
	}{
		{"abstract", &a.Abstract},
		{"innovation_points", &a.InnovationPoints},
		{"summary", &a.Summary},
	} {
		v, ok := obj[f.name]
		if !ok {
			return Analysis{}, fmt.Errorf("%w: missing field %q", ErrMalformedResponse, f.name)
		}
		s, err := textField(v)
		if err != nil {
			return Analysis{}, fmt.Errorf("%w: field %q: %v", ErrMalformedResponse, f.name, err)
		}
		*f.dest = s
	}
	return a, nil
}

func textField(v json.RawMessage) (string, error) {
	v = bytes.TrimSpace(v)
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var list []string
	if err := json.Unmarshal(v, &list); err == nil {
		return strings.Join(list, "\n"), nil
	}
	return "", fmt.Errorf("want string or list of strings, got %s", textproc.Prefix(string(v), 40))
}

// DegradedAnalysis builds the fallback used when no attempt produced a
// parseable reply: the start of the source text as abstract and the start
// of the last raw reply behind ParseFailureMarker.
func DegradedAnalysis(sourceText, raw string) Analysis {
	note := ParseFailureMarker + textproc.Prefix(raw, degradedRawChars)
	return Analysis{
		Abstract:         textproc.Prefix(sourceText, degradedAbstractChars),
		InnovationPoints: note,
		Summary:          note,
	}
}
