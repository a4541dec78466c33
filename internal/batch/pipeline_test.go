package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rcliao/paper-digest/internal/analyzer"
	"github.com/rcliao/paper-digest/internal/llm"
)

// flakyService answers every analysis request except those for failTitle,
// which always fail at the transport level.
type flakyService struct {
	failTitle string
	failed    int
	answered  int
}

func (f *flakyService) Chat(_ context.Context, req llm.Request) (string, error) {
	prompt := req.Messages[len(req.Messages)-1].Content
	if strings.Contains(prompt, "Title: "+f.failTitle+"\n") {
		f.failed++
		return "", errors.New("dial tcp: connection refused")
	}
	f.answered++
	return `{"abstract":"A.","innovation_points":["I."],"summary":"S."}`, nil
}

type noText struct{}

func (noText) Extract(context.Context, string, int) string { return "" }

func TestRun_PipelineTransportFaultOnOneRecord(t *testing.T) {
	svc := &flakyService{failTitle: "Paper 3"}
	p := analyzer.New(svc, noText{}, nil, analyzer.Options{Model: "gpt-4o", Language: "English"}, zaptest.NewLogger(t))
	var retryWaits []time.Duration
	p.Retry.Sleep = func(_ context.Context, d time.Duration) error {
		retryWaits = append(retryWaits, d)
		return nil
	}

	r, pacing := newRunner(t, p)
	recs := records(5)
	for i := range recs {
		recs[i].Abstract = fmt.Sprintf("Abstract of paper %d.", i+1)
	}

	results := r.Run(context.Background(), recs)
	require.Len(t, results, 5)
	for i, res := range results {
		assert.Equal(t, recs[i].Title, res.Title)
		if i == 2 {
			assert.False(t, res.Succeeded())
			assert.Contains(t, res.ErrorMessage, "connection refused")
			continue
		}
		assert.True(t, res.Succeeded(), res.Title)
		assert.Equal(t, "S.", res.Summary)
	}

	assert.Equal(t, 3, svc.failed, "the failing paper uses every attempt")
	assert.Equal(t, 4, svc.answered)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, retryWaits)
	assert.Equal(t, []time.Duration{DefaultDelay, DefaultDelay, DefaultDelay, DefaultDelay}, pacing.waits)
}
