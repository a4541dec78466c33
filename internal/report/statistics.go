package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rcliao/paper-digest/internal/model"
)

// Author-count buckets, in display order.
var authorBuckets = []string{
	"unknown",
	"single author",
	"2-3 authors",
	"4-5 authors",
	"6-10 authors",
	"10+ authors",
}

// Count is a labelled tally.
type Count struct {
	Label string
	N     int
}

// Summary aggregates a run's results.
type Summary struct {
	Total      int
	Succeeded  int
	Failed     int
	ErrorTypes []Count // sorted by label
	Authors    []Count // bucket order, empty buckets omitted
}

// SuccessRate returns the success percentage formatted as "66.7%".
func (s Summary) SuccessRate() string {
	if s.Total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(s.Succeeded)/float64(s.Total)*100)
}

// Summarize computes run statistics. An error's type is the text before
// its first ':'.
func Summarize(results []model.AnalysisResult) Summary {
	s := Summary{Total: len(results)}
	errTypes := map[string]int{}
	buckets := map[string]int{}

	for _, r := range results {
		if r.Succeeded() {
			s.Succeeded++
		} else {
			s.Failed++
			kind, _, _ := strings.Cut(r.ErrorMessage, ":")
			errTypes[kind]++
		}
		buckets[AuthorBucket(AuthorCount(r.Authors))]++
	}

	for k, n := range errTypes {
		s.ErrorTypes = append(s.ErrorTypes, Count{k, n})
	}
	sort.Slice(s.ErrorTypes, func(i, j int) bool { return s.ErrorTypes[i].Label < s.ErrorTypes[j].Label })

	for _, b := range authorBuckets {
		if n := buckets[b]; n > 0 {
			s.Authors = append(s.Authors, Count{b, n})
		}
	}
	return s
}

// AuthorCount counts the names in a formatted author list.
func AuthorCount(authors string) int {
	if authors == "" || authors == model.UnknownAuthor {
		return 0
	}
	return len(strings.Split(authors, strings.TrimSpace(model.AuthorSep)))
}

// AuthorBucket labels an author count.
func AuthorBucket(n int) string {
	switch {
	case n <= 0:
		return authorBuckets[0]
	case n == 1:
		return authorBuckets[1]
	case n <= 3:
		return authorBuckets[2]
	case n <= 5:
		return authorBuckets[3]
	case n <= 10:
		return authorBuckets[4]
	default:
		return authorBuckets[5]
	}
}

// WriteStatistics writes the run summary.
func (w *Writer) WriteStatistics(results []model.AnalysisResult, runID string, collectionNames []string) (string, error) {
	s := Summarize(results)

	rows := [][]string{{"Metric", "Value"}}
	if runID != "" {
		rows = append(rows, []string{"Run ID", runID})
	}
	rows = append(rows,
		[]string{"Total papers", strconv.Itoa(s.Total)},
		[]string{"Succeeded", strconv.Itoa(s.Succeeded)},
		[]string{"Failed", strconv.Itoa(s.Failed)},
		[]string{"Success rate", s.SuccessRate()},
		[]string{},
		[]string{"Error types"},
		[]string{"Error type", "Count"},
	)
	for _, c := range s.ErrorTypes {
		rows = append(rows, []string{c.Label, strconv.Itoa(c.N)})
	}
	rows = append(rows,
		[]string{},
		[]string{"Author counts"},
		[]string{"Authors", "Papers"},
	)
	for _, c := range s.Authors {
		rows = append(rows, []string{c.Label, strconv.Itoa(c.N)})
	}
	return w.create(KindStatistics, collectionNames, rows)
}
