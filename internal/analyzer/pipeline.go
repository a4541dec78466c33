// Package analyzer turns a library record into an AnalysisResult by
// extracting its text and asking a language model for a structured review.
package analyzer

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/rcliao/paper-digest/internal/extract"
	"github.com/rcliao/paper-digest/internal/llm"
	"github.com/rcliao/paper-digest/internal/model"
	"github.com/rcliao/paper-digest/internal/retry"
	"github.com/rcliao/paper-digest/internal/textproc"
)

const (
	DefaultModel     = "gpt-4o"
	DefaultLanguage  = "Chinese"
	DefaultMaxPages  = 50
	DefaultMaxTokens = textproc.DefaultMaxTokens

	untitled = "Untitled"
)

// Sampling settings for the two model calls.
const (
	translateTemperature = 0.1
	translateMaxTokens   = 200
	analyzeTemperature   = 0.3
	analyzeMaxTokens     = 2000
)

// Options configures a Pipeline.
type Options struct {
	Model    string
	Language string
	// DataDir is the Zotero data directory used to resolve stored
	// attachments.
	DataDir   string
	MaxPages  int
	MaxTokens int
}

// CollectionLabeler formats an item's collection membership.
type CollectionLabeler interface {
	CollectionLabel(ctx context.Context, itemKey string) string
}

// Pipeline analyzes one record at a time. It holds no per-record state.
type Pipeline struct {
	Client    llm.Client
	Extractor extract.Extractor
	Tokenizer textproc.Tokenizer
	// Collections is optional; without it results carry no collection path.
	Collections CollectionLabeler
	Retry       retry.Policy
	Log         *zap.Logger

	opts Options
}

// New creates a Pipeline with the model's tokenizer and the default retry
// policy.
func New(client llm.Client, ext extract.Extractor, collections CollectionLabeler, opts Options, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	tokenizer := textproc.ForModel(opts.Model)
	if _, ok := tokenizer.(textproc.Approx); ok {
		log.Info("no token encoding known for model, approximating", zap.String("model", opts.Model))
	}
	return &Pipeline{
		Client:      client,
		Extractor:   ext,
		Tokenizer:   tokenizer,
		Collections: collections,
		Retry:       retry.DefaultPolicy(),
		Log:         log,
		opts:        opts,
	}
}

// Options returns the effective options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Analyze produces the result for one record. Record-level problems (no
// text, model failures) are reported inside the result; the error is only
// set when ctx ends during the analysis.
func (p *Pipeline) Analyze(ctx context.Context, rec model.Record) (model.AnalysisResult, error) {
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = untitled
	}
	authors := model.FormatAuthors(rec.Creators)
	log := p.Log.With(zap.String("item", rec.Key))
	log.Info("analyzing record", zap.String("title", title))

	collectionPath := p.collectionPath(ctx, rec.Key)

	// Records without any text never reach the model.
	fullText := p.fullText(ctx, log, rec)
	abstract := strings.TrimSpace(rec.Abstract)
	if fullText == "" && abstract == "" {
		log.Warn("record has no text content")
		return model.FailedResult(title, authors, collectionPath, "", ErrNoTextContent.Error()), nil
	}

	translated := p.translateTitle(ctx, log, title)

	source := fullText
	if source == "" {
		source = abstract
	}
	truncated := p.Tokenizer.Truncate(source, p.opts.MaxTokens)

	a, raw, err := p.requestAnalysis(ctx, log, title, authors, truncated, fullText != "")
	switch {
	case err == nil:
	case errors.Is(err, ErrMalformedResponse):
		log.Warn("using degraded analysis", zap.Error(err))
		a = DegradedAnalysis(truncated, raw)
	default:
		log.Error("analysis failed", zap.Error(err))
		res := model.FailedResult(title, authors, collectionPath, abstract, err.Error())
		res.TranslatedTitle = translated
		return res, ctx.Err()
	}

	if a.Abstract == "" {
		a.Abstract = abstract
	}
	if a.Abstract == "" {
		a.Abstract = model.NoContentAvailable
	}
	return model.AnalysisResult{
		Title:            title,
		TranslatedTitle:  translated,
		Authors:          authors,
		CollectionPath:   collectionPath,
		Abstract:         a.Abstract,
		InnovationPoints: a.InnovationPoints,
		Summary:          a.Summary,
	}, nil
}

// requestAnalysis calls the model under the retry policy. Malformed replies
// are retried at once; transport errors wait for the policy delay. raw is
// the last reply received.
func (p *Pipeline) requestAnalysis(ctx context.Context, log *zap.Logger, title, authors, text string, fullText bool) (a Analysis, raw string, err error) {
	req := llm.Request{
		Model:       p.opts.Model,
		Messages:    analysisMessages(title, authors, text, p.opts.Language, fullText),
		Temperature: analyzeTemperature,
		MaxTokens:   analyzeMaxTokens,
		JSON:        true,
	}

	err = p.Retry.Do(ctx, func(attempt int) error {
		log.Debug("calling model", zap.Int("attempt", attempt), zap.Bool("full_text", fullText))
		out, err := p.Client.Chat(ctx, req)
		if err != nil {
			log.Warn("model call failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		raw = out
		parsed, err := ParseResponse(out)
		if err != nil {
			log.Warn("model reply rejected", zap.Int("attempt", attempt), zap.Error(err))
			return retry.Immediate(err)
		}
		a = parsed
		return nil
	})
	return a, raw, err
}

func (p *Pipeline) translateTitle(ctx context.Context, log *zap.Logger, title string) string {
	if isEnglish(p.opts.Language) || !IsForeignTitle(title) {
		return ""
	}
	out, err := p.Client.Chat(ctx, llm.Request{
		Model:       p.opts.Model,
		Messages:    translationMessages(title, p.opts.Language),
		Temperature: translateTemperature,
		MaxTokens:   translateMaxTokens,
	})
	if err != nil {
		log.Warn("title translation failed", zap.Error(err))
		return ""
	}
	out = strings.TrimSpace(out)
	log.Debug("title translated", zap.String("translated", out))
	return out
}

func (p *Pipeline) collectionPath(ctx context.Context, itemKey string) string {
	if p.Collections == nil || itemKey == "" {
		return ""
	}
	return p.Collections.CollectionLabel(ctx, itemKey)
}

// fullText returns the text of the first PDF attachment that yields any.
func (p *Pipeline) fullText(ctx context.Context, log *zap.Logger, rec model.Record) string {
	if p.Extractor == nil {
		return ""
	}
	for _, att := range rec.Attachments {
		if !att.IsPDF() {
			continue
		}
		path := model.ResolveAttachmentPath(att, p.opts.DataDir)
		if path == "" {
			log.Warn("pdf attachment not found", zap.String("attachment", att.Key), zap.String("path", att.Path))
			continue
		}
		if text := p.Extractor.Extract(ctx, path, p.opts.MaxPages); text != "" {
			log.Info("extracted full text", zap.Int("chars", len(text)))
			return text
		}
	}
	return ""
}
