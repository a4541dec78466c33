package model

// Sentinel values used when a field cannot be determined.
const (
	UnknownAuthor         = "Unknown author"
	UncategorizedPath     = "uncategorized"
	UnknownCollectionPath = "unknown"
	CollectionPathSep     = " / "
	CollectionPathListSep = " | "
	AuthorSep             = "; "
	NoContentAvailable    = "no content available"
	AnalysisFailedPrefix  = "analysis failed: "
)

// AnalysisResult is the enriched, exportable output for one record.
// It is built once by the analyzer and never modified afterwards.
type AnalysisResult struct {
	Title            string `json:"title"`
	TranslatedTitle  string `json:"translated_title,omitempty"`
	Authors          string `json:"authors"`
	CollectionPath   string `json:"collection_path"`
	Abstract         string `json:"abstract"`
	InnovationPoints string `json:"innovation_points"`
	Summary          string `json:"summary"`
	ErrorMessage     string `json:"error_message,omitempty"`
}

// Succeeded reports whether the analysis completed. The presence of an
// error message is the only success/failure signal.
func (r AnalysisResult) Succeeded() bool {
	return r.ErrorMessage == ""
}

// FailedResult builds a failed result carrying msg in every analysis field.
func FailedResult(title, authors, collectionPath, abstract, msg string) AnalysisResult {
	if abstract == "" {
		abstract = NoContentAvailable
	}
	return AnalysisResult{
		Title:            title,
		Authors:          authors,
		CollectionPath:   collectionPath,
		Abstract:         abstract,
		InnovationPoints: AnalysisFailedPrefix + msg,
		Summary:          AnalysisFailedPrefix + msg,
		ErrorMessage:     msg,
	}
}
