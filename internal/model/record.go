// Package model defines the core reference-library data types.
package model

import (
	"os"
	"path/filepath"
	"strings"
)

// PDFContentType is the declared content type of PDF attachments.
const PDFContentType = "application/pdf"

// storagePrefix marks attachment paths relative to the managed storage area.
const storagePrefix = "storage:"

// Record represents one reference-library entry (paper, book, ...).
// A Record is a snapshot of the database and is not modified after reading.
type Record struct {
	ItemID       int64             `json:"item_id"`
	Key          string            `json:"key"`
	TypeName     string            `json:"type"`
	Title        string            `json:"title"`
	Abstract     string            `json:"abstract,omitempty"`
	Creators     []Creator         `json:"creators,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	Attachments  []Attachment      `json:"attachments,omitempty"`
	Notes        []string          `json:"notes,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
	DateAdded    string            `json:"date_added"`
	DateModified string            `json:"date_modified"`
}

// Creator is an author, editor or other contributor of a record.
type Creator struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role"`
}

// Name returns "first last", trimmed.
func (c Creator) Name() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// Attachment is a file belonging to exactly one record.
type Attachment struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Path        string `json:"path,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// IsPDF reports whether the attachment declares a PDF content type.
func (a Attachment) IsPDF() bool {
	return a.ContentType == PDFContentType
}

// ResolveAttachmentPath maps an attachment's path descriptor to a file on
// disk. "storage:<name>" resolves to <dataDir>/storage/<attachment key>/<name>;
// anything else is taken as an external file path. Returns "" when the
// descriptor is empty, cannot be resolved, or the file does not exist.
func ResolveAttachmentPath(a Attachment, dataDir string) string {
	if a.Path == "" {
		return ""
	}

	var full string
	if rel, ok := strings.CutPrefix(a.Path, storagePrefix); ok {
		if dataDir == "" || a.Key == "" {
			return ""
		}
		full = filepath.Join(dataDir, "storage", a.Key, rel)
	} else {
		full = a.Path
	}

	if _, err := os.Stat(full); err != nil {
		return ""
	}
	return full
}

// Collection is a named folder. Collections form a forest.
type Collection struct {
	ID        int64         `json:"id"`
	Key       string        `json:"key"`
	Name      string        `json:"name"`
	ParentKey string        `json:"parent_key,omitempty"`
	Parent    *Collection   `json:"-"`
	Children  []*Collection `json:"children,omitempty"`
	// ItemCount counts regular items linked directly to this collection.
	// Items in child collections are not included.
	ItemCount int `json:"item_count"`
	Depth     int `json:"depth"`
}

// IsRoot reports whether the collection has no resolved parent.
func (c *Collection) IsRoot() bool {
	return c.Parent == nil
}

// FormatAuthors joins the names of creators with the "author" role.
// Returns UnknownAuthor when there are none.
func FormatAuthors(creators []Creator) string {
	var names []string
	for _, c := range creators {
		if c.Role != "author" {
			continue
		}
		if name := c.Name(); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return UnknownAuthor
	}
	return strings.Join(names, AuthorSep)
}
