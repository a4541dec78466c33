// Package extract pulls plain text out of attachment files.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/rcliao/paper-digest/internal/textproc"
)

// Extractor returns the cleaned text of the first maxPages pages of a
// document. It never fails: unreadable files yield "".
type Extractor interface {
	Extract(ctx context.Context, path string, maxPages int) string
}

// PDFExtractor reads PDF files.
type PDFExtractor struct {
	Log   *zap.Logger
	Clean textproc.Options
}

// NewPDFExtractor returns a PDF extractor using default cleaning options.
func NewPDFExtractor(log *zap.Logger) *PDFExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &PDFExtractor{Log: log, Clean: textproc.DefaultOptions()}
}

// Extract implements Extractor.
func (e *PDFExtractor) Extract(ctx context.Context, path string, maxPages int) string {
	text, pages, err := readPDF(ctx, path, maxPages)
	if err != nil {
		e.Log.Error("pdf text extraction failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	text = textproc.Clean(text, e.Clean)
	e.Log.Debug("pdf text extracted", zap.String("path", path), zap.Int("pages", pages), zap.Int("chars", len(text)))
	return text
}

// readPDF concatenates the plain text of up to maxPages pages. maxPages <= 0
// reads every page.
func readPDF(ctx context.Context, path string, maxPages int) (text string, pages int, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	if maxPages > 0 && maxPages < n {
		n = maxPages
	}

	var b strings.Builder
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return "", pages, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", pages, fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(content)
		b.WriteString("\n")
		pages++
	}
	return b.String(), pages, nil
}
