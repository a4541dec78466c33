package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	a, err := ParseResponse(`{"abstract":" A ","innovation_points":"B","summary":"C","extra":1}`)
	require.NoError(t, err)
	assert.Equal(t, Analysis{Abstract: "A", InnovationPoints: "B", Summary: "C"}, a)
}

func TestParseResponse_Fenced(t *testing.T) {
	a, err := ParseResponse("```\n{\"abstract\":\"A\",\"innovation_points\":[\"x\",\"y\"],\"summary\":\"C\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "x\ny", a.InnovationPoints)
}

func TestParseResponse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", "   "},
		{"prose", "Here is the analysis you asked for."},
		{"array", `["abstract"]`},
		{"missing summary", `{"abstract":"A","innovation_points":"B"}`},
		{"number field", `{"abstract":1,"innovation_points":"B","summary":"C"}`},
		{"object field", `{"abstract":"A","innovation_points":{"a":"b"},"summary":"C"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.raw)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestDegradedAnalysis(t *testing.T) {
	source := strings.Repeat("文", 400)
	raw := strings.Repeat("r", 250)
	a := DegradedAnalysis(source, raw)

	assert.Equal(t, strings.Repeat("文", 300), a.Abstract)
	assert.Equal(t, ParseFailureMarker+strings.Repeat("r", 200), a.InnovationPoints)
	assert.Equal(t, a.InnovationPoints, a.Summary)

	short := DegradedAnalysis("tiny", "")
	assert.Equal(t, "tiny", short.Abstract)
	assert.Equal(t, ParseFailureMarker, short.Summary)
}
