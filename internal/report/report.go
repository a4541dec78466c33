// Package report writes analysis results as UTF-8 CSV files (with a byte
// order mark so spreadsheet tools detect the encoding).
package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/rcliao/paper-digest/internal/model"
)

// DefaultDir is the output directory used when none is configured.
const DefaultDir = "output"

// File name prefixes.
const (
	KindAnalysis   = "zotero_analysis"
	KindStatistics = "zotero_statistics"
	KindDetailed   = "zotero_detailed_report"
)

const (
	timestampLayout = "20060102_150405"
	maxNameParts    = 3
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Writer creates report files in Dir.
type Writer struct {
	Dir string
	// Now stamps file names. Nil means time.Now.
	Now func() time.Time
	Log *zap.Logger
}

// NewWriter returns a Writer for dir.
func NewWriter(dir string, log *zap.Logger) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{Dir: dir, Now: time.Now, Log: log}
}

// Options selects the files written by Export.
type Options struct {
	// CollectionNames are the selected collections; up to three appear in
	// file names.
	CollectionNames []string
	RunID           string
	Statistics      bool
	Detailed        bool
}

// Export writes the main analysis file plus the optional statistics and
// detailed files, returning their paths in that order.
func (w *Writer) Export(results []model.AnalysisResult, opts Options) ([]string, error) {
	var paths []string

	p, err := w.WriteAnalyses(results, opts.CollectionNames)
	if err != nil {
		return paths, err
	}
	paths = append(paths, p)

	if opts.Statistics {
		p, err := w.WriteStatistics(results, opts.RunID, opts.CollectionNames)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	if opts.Detailed {
		p, err := w.WriteDetailed(results, opts.CollectionNames)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// FileName builds "<kind>[_<name>...]_<YYYYMMDD_HHMMSS>.csv" from at most
// three sanitized collection names.
func FileName(kind string, collectionNames []string, now time.Time) string {
	parts := []string{kind}
	for _, n := range collectionNames {
		if len(parts) > maxNameParts {
			break
		}
		if s := SanitizeName(n); s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, now.Format(timestampLayout))
	return strings.Join(parts, "_") + ".csv"
}

// SanitizeName keeps letters, digits, '.', '_' and '-'.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '-' {
			return r
		}
		return -1
	}, name)
}

func (w *Writer) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}

func (w *Writer) log() *zap.Logger {
	if w.Log == nil {
		return zap.NewNop()
	}
	return w.Log
}

// create writes rows to a new file named for kind and returns its path.
func (w *Writer) create(kind string, collectionNames []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(w.Dir, FileName(kind, collectionNames, w.now()))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := bw.Write(bom); err != nil {
		return "", err
	}
	cw := csv.NewWriter(bw)
	if err := cw.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	w.log().Info("report written", zap.String("kind", kind), zap.String("path", path), zap.Int("rows", len(rows)-1))
	return path, nil
}
