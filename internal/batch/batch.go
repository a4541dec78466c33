// Package batch runs the analysis pipeline over a list of records, one at a
// time, with a pacing delay between records.
package batch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/paper-digest/internal/model"
	"github.com/rcliao/paper-digest/internal/retry"
)

// DefaultDelay is the pause between two records.
const DefaultDelay = time.Second

// FilterOptions narrows the record list before a run.
type FilterOptions struct {
	// IncludeTypes keeps only these item types when non-empty.
	IncludeTypes []string
	// ExcludeKeywords drops records whose title contains any keyword,
	// case-insensitively.
	ExcludeKeywords []string
	// Limit caps the number of records when positive.
	Limit int
}

// Filter applies the type allow-list, then the keyword exclusions, then the
// limit. The input slice is not modified.
func Filter(records []model.Record, opts FilterOptions) []model.Record {
	types := make(map[string]bool, len(opts.IncludeTypes))
	for _, t := range opts.IncludeTypes {
		types[t] = true
	}
	var keywords []string
	for _, k := range opts.ExcludeKeywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, strings.ToLower(k))
		}
	}

	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if len(types) > 0 && !types[r.TypeName] {
			continue
		}
		if hasKeyword(r.Title, keywords) {
			continue
		}
		out = append(out, r)
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func hasKeyword(title string, keywords []string) bool {
	title = strings.ToLower(title)
	for _, k := range keywords {
		if strings.Contains(title, k) {
			return true
		}
	}
	return false
}

// Analyzer produces the result for one record.
type Analyzer interface {
	Analyze(ctx context.Context, rec model.Record) (model.AnalysisResult, error)
}

// Labeler formats an item's collection membership for failed results.
type Labeler interface {
	CollectionLabel(ctx context.Context, itemKey string) string
}

// Progress is called after each record with its 1-based position.
type Progress func(done, total int, res model.AnalysisResult)

// Runner processes records sequentially.
type Runner struct {
	Analyzer Analyzer
	// Delay is the pause after each record except the last.
	Delay time.Duration
	// Sleep waits for the pacing delay. Nil uses retry.Sleep.
	Sleep      func(ctx context.Context, d time.Duration) error
	Labels     Labeler
	OnProgress Progress
	Log        *zap.Logger
}

// NewRunner creates a Runner with the default delay.
func NewRunner(a Analyzer, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Analyzer: a, Delay: DefaultDelay, Log: log}
}

// Run analyzes every record in order and returns one result per processed
// record. A failing record yields a failed result and the run continues.
// When ctx is cancelled the run stops at the next record boundary (or
// during the pacing delay) and returns what it has; the record in progress
// is finished first.
func (r *Runner) Run(ctx context.Context, records []model.Record) []model.AnalysisResult {
	log := r.logger()
	sleep := r.Sleep
	if sleep == nil {
		sleep = retry.Sleep
	}

	results := make([]model.AnalysisResult, 0, len(records))
	for i, rec := range records {
		if ctx.Err() != nil {
			log.Warn("run interrupted", zap.Int("done", len(results)), zap.Int("total", len(records)))
			return results
		}

		res, faulted := r.analyze(ctx, rec)
		results = append(results, res)
		if r.OnProgress != nil {
			r.OnProgress(i+1, len(records), res)
		}

		last := i == len(records)-1
		if !last && !faulted && r.Delay > 0 {
			if err := sleep(ctx, r.Delay); err != nil {
				log.Warn("run interrupted", zap.Int("done", len(results)), zap.Int("total", len(records)))
				return results
			}
		}
	}
	return results
}

// analyze runs one record, converting errors and panics into a failed
// result. faulted reports such a conversion.
func (r *Runner) analyze(ctx context.Context, rec model.Record) (res model.AnalysisResult, faulted bool) {
	defer func() {
		if p := recover(); p != nil {
			r.logger().Error("record analysis panicked", zap.String("item", rec.Key), zap.Any("panic", p))
			res, faulted = r.failed(ctx, rec, fmt.Sprint(p)), true
		}
	}()

	res, err := r.Analyzer.Analyze(context.WithoutCancel(ctx), rec)
	if err != nil {
		r.logger().Error("record analysis failed", zap.String("item", rec.Key), zap.Error(err))
		return r.failed(ctx, rec, err.Error()), true
	}
	return res, false
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Runner) failed(ctx context.Context, rec model.Record, msg string) model.AnalysisResult {
	var path string
	if r.Labels != nil {
		path = r.Labels.CollectionLabel(context.WithoutCancel(ctx), rec.Key)
	}
	return model.FailedResult(rec.Title, model.FormatAuthors(rec.Creators), path, rec.Abstract, msg)
}
