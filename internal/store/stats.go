package store

import (
	"context"
	"fmt"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath         string      `json:"db_path"`
	DBSizeBytes    int64       `json:"db_size_bytes"`
	Items          int         `json:"items"`
	Collections    int         `json:"collections"`
	Attachments    int         `json:"attachments"`
	PDFAttachments int         `json:"pdf_attachments"`
	Notes          int         `json:"notes"`
	Uncategorized  int         `json:"uncategorized_items"`
	ItemTypes      []TypeStats `json:"item_types"`
}

// TypeStats holds per-type item counts.
type TypeStats struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path}

	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	counts := []struct {
		dest  *int
		query string
	}{
		{&st.Items, `SELECT COUNT(*) FROM items i WHERE ` + regularItemFilter},
		{&st.Collections, `SELECT COUNT(*) FROM collections`},
		{&st.Attachments, `SELECT COUNT(*) FROM itemAttachments`},
		{&st.PDFAttachments, `SELECT COUNT(*) FROM itemAttachments WHERE contentType = 'application/pdf'`},
		{&st.Notes, `SELECT COUNT(*) FROM itemNotes`},
		{&st.Uncategorized, `SELECT COUNT(*) FROM items i WHERE ` + regularItemFilter + `
			AND NOT EXISTS (SELECT 1 FROM collectionItems ci WHERE ci.itemID = i.itemID)`},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return st, fmt.Errorf("count: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT it.typeName, COUNT(*) AS cnt
		FROM items i
		JOIN itemTypes it ON i.itemTypeID = it.itemTypeID
		WHERE `+regularItemFilter+`
		GROUP BY it.typeName ORDER BY cnt DESC, it.typeName`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var ts TypeStats
		if err := rows.Scan(&ts.Type, &ts.Count); err != nil {
			return st, err
		}
		st.ItemTypes = append(st.ItemTypes, ts)
	}

	return st, rows.Err()
}
