package report

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/paper-digest/internal/model"
)

// Status column values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// AnalysisColumns is the header of the main report.
var AnalysisColumns = []string{
	"No.",
	"Collection",
	"Title",
	"Translated Title",
	"Authors",
	"Abstract",
	"Innovation Points",
	"Summary",
	"Status",
	"Error",
}

// DetailedColumns is the header of the detailed report.
var DetailedColumns = []string{
	"No.",
	"Collection",
	"Title",
	"Translated Title",
	"Authors",
	"Author Count",
	"Abstract",
	"Abstract Chars",
	"Innovation Points",
	"Innovation Chars",
	"Summary",
	"Summary Chars",
	"Status",
	"Error",
	"Title Length",
	"Has Translation",
}

func status(r model.AnalysisResult) string {
	if r.Succeeded() {
		return StatusSuccess
	}
	return StatusFailed
}

// WriteAnalyses writes the main report.
func (w *Writer) WriteAnalyses(results []model.AnalysisResult, collectionNames []string) (string, error) {
	rows := [][]string{AnalysisColumns}
	for i, r := range results {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.CollectionPath,
			r.Title,
			r.TranslatedTitle,
			r.Authors,
			r.Abstract,
			r.InnovationPoints,
			r.Summary,
			status(r),
			r.ErrorMessage,
		})
	}
	return w.create(KindAnalysis, collectionNames, rows)
}

// WriteDetailed writes the main columns plus size metrics.
func (w *Writer) WriteDetailed(results []model.AnalysisResult, collectionNames []string) (string, error) {
	rows := [][]string{DetailedColumns}
	for i, r := range results {
		hasTranslation := "no"
		if r.TranslatedTitle != "" {
			hasTranslation = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.CollectionPath,
			r.Title,
			r.TranslatedTitle,
			r.Authors,
			strconv.Itoa(AuthorCount(r.Authors)),
			r.Abstract,
			chars(r.Abstract),
			r.InnovationPoints,
			chars(r.InnovationPoints),
			r.Summary,
			chars(r.Summary),
			status(r),
			r.ErrorMessage,
			chars(r.Title),
			hasTranslation,
		})
	}
	return w.create(KindDetailed, collectionNames, rows)
}

func chars(s string) string {
	return strconv.Itoa(utf8.RuneCountInString(s))
}

// ReadAnalyses parses a main report written by WriteAnalyses.
func ReadAnalyses(path string) ([]model.AnalysisResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, bom) {
		br.Discard(len(bom))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(AnalysisColumns)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if strings.Join(header, ",") != strings.Join(AnalysisColumns, ",") {
		return nil, fmt.Errorf("%s is not an analysis report", path)
	}

	var out []model.AnalysisResult
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, err
		}
		r := model.AnalysisResult{
			CollectionPath:   row[1],
			Title:            row[2],
			TranslatedTitle:  row[3],
			Authors:          row[4],
			Abstract:         row[5],
			InnovationPoints: row[6],
			Summary:          row[7],
			ErrorMessage:     row[9],
		}
		if row[8] == StatusFailed && r.ErrorMessage == "" {
			r.ErrorMessage = StatusFailed
		}
		out = append(out, r)
	}
	return out, nil
}
