package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/rcliao/paper-digest/internal/model"
)

// SQLiteStore implements Reader over a zotero.sqlite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// regularItemFilter excludes notes and attachments, which are stored as
// items of their own in the Zotero schema.
const regularItemFilter = `i.itemTypeID NOT IN (
	SELECT itemTypeID FROM itemTypes WHERE typeName IN ('note', 'attachment')
)`

// Open opens the database read-only. A missing file is reported as
// ErrDatabaseNotFound before any connection is made.
func Open(dbPath string) (*SQLiteStore, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, dbPath)
		}
		return nil, fmt.Errorf("stat db: %w", err)
	}

	// The driver only honours mode=ro on file: URIs.
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open db: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// itemRow is the base item row before hydration.
type itemRow struct {
	id           int64
	key          string
	typeName     string
	dateAdded    string
	dateModified string
}

func (s *SQLiteStore) Items(ctx context.Context) ([]model.Record, error) {
	query := `
		SELECT i.itemID, i.key, it.typeName, i.dateAdded, i.dateModified
		FROM items i
		JOIN itemTypes it ON i.itemTypeID = it.itemTypeID
		WHERE ` + regularItemFilter + `
		ORDER BY i.dateAdded DESC`
	return s.queryRecords(ctx, query)
}

func (s *SQLiteStore) ItemsInCollections(ctx context.Context, collectionKeys []string) ([]model.Record, error) {
	if len(collectionKeys) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(collectionKeys)), ",")
	args := make([]any, len(collectionKeys))
	for i, k := range collectionKeys {
		args[i] = k
	}

	query := `
		SELECT i.itemID, i.key, it.typeName, i.dateAdded, i.dateModified
		FROM items i
		JOIN itemTypes it ON i.itemTypeID = it.itemTypeID
		JOIN collectionItems ci ON i.itemID = ci.itemID
		JOIN collections c ON ci.collectionID = c.collectionID
		WHERE c.key IN (` + placeholders + `)
		  AND ` + regularItemFilter + `
		ORDER BY i.dateAdded DESC`
	return s.queryRecords(ctx, query, args...)
}

func (s *SQLiteStore) Item(ctx context.Context, key string) (*model.Record, error) {
	query := `
		SELECT i.itemID, i.key, it.typeName, i.dateAdded, i.dateModified
		FROM items i
		JOIN itemTypes it ON i.itemTypeID = it.itemTypeID
		WHERE i.key = ? AND ` + regularItemFilter
	records, err := s.queryRecords(ctx, query, key)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, key)
	}
	return &records[0], nil
}

// queryRecords runs an item query and hydrates each row. Base rows are read
// fully before hydration so only one result set is open at a time.
func (s *SQLiteStore) queryRecords(ctx context.Context, query string, args ...any) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}

	var base []itemRow
	for rows.Next() {
		var r itemRow
		if err := rows.Scan(&r.id, &r.key, &r.typeName, &r.dateAdded, &r.dateModified); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan item: %w", err)
		}
		base = append(base, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	records := make([]model.Record, 0, len(base))
	for _, r := range base {
		rec, err := s.hydrate(ctx, r)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *SQLiteStore) hydrate(ctx context.Context, r itemRow) (model.Record, error) {
	rec := model.Record{
		ItemID:       r.id,
		Key:          r.key,
		TypeName:     r.typeName,
		DateAdded:    r.dateAdded,
		DateModified: r.dateModified,
	}

	var err error
	if rec.Fields, err = s.itemFields(ctx, r.id); err != nil {
		return rec, err
	}
	rec.Title = rec.Fields["title"]
	rec.Abstract = rec.Fields["abstractNote"]

	if rec.Creators, err = s.itemCreators(ctx, r.id); err != nil {
		return rec, err
	}
	if rec.Tags, err = s.itemTags(ctx, r.id); err != nil {
		return rec, err
	}
	if rec.Attachments, err = s.itemAttachments(ctx, r.id); err != nil {
		return rec, err
	}
	if rec.Notes, err = s.itemNotes(ctx, r.id); err != nil {
		return rec, err
	}
	return rec, nil
}

func (s *SQLiteStore) itemFields(ctx context.Context, itemID int64) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.fieldName, v.value
		FROM itemData d
		JOIN fields f ON d.fieldID = f.fieldID
		JOIN itemDataValues v ON d.valueID = v.valueID
		WHERE d.itemID = ?`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query fields: %w", err)
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var name string
		var value sql.NullString
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		fields[name] = value.String
	}
	return fields, rows.Err()
}

func (s *SQLiteStore) itemCreators(ctx context.Context, itemID int64) ([]model.Creator, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.firstName, c.lastName, ct.creatorType
		FROM itemCreators ic
		JOIN creators c ON ic.creatorID = c.creatorID
		JOIN creatorTypes ct ON ic.creatorTypeID = ct.creatorTypeID
		WHERE ic.itemID = ?
		ORDER BY ic.orderIndex`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query creators: %w", err)
	}
	defer rows.Close()

	var creators []model.Creator
	for rows.Next() {
		var first, last sql.NullString
		var c model.Creator
		if err := rows.Scan(&first, &last, &c.Role); err != nil {
			return nil, fmt.Errorf("scan creator: %w", err)
		}
		c.FirstName, c.LastName = first.String, last.String
		creators = append(creators, c)
	}
	return creators, rows.Err()
}

func (s *SQLiteStore) itemTags(ctx context.Context, itemID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name
		FROM itemTags it
		JOIN tags t ON it.tagID = t.tagID
		WHERE it.itemID = ?`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (s *SQLiteStore) itemAttachments(ctx context.Context, itemID int64) ([]model.Attachment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.key, v.value, ia.path, ia.contentType
		FROM items i
		JOIN itemAttachments ia ON i.itemID = ia.itemID
		LEFT JOIN itemData d ON i.itemID = d.itemID AND d.fieldID = (
			SELECT fieldID FROM fields WHERE fieldName = 'title'
		)
		LEFT JOIN itemDataValues v ON d.valueID = v.valueID
		WHERE ia.parentItemID = ?`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	var attachments []model.Attachment
	for rows.Next() {
		var a model.Attachment
		var title, path, contentType sql.NullString
		if err := rows.Scan(&a.Key, &title, &path, &contentType); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		a.Title = title.String
		if a.Title == "" {
			a.Title = "Untitled"
		}
		a.Path, a.ContentType = path.String, contentType.String
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

func (s *SQLiteStore) itemNotes(ctx context.Context, itemID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.note
		FROM items i
		JOIN itemNotes n ON i.itemID = n.itemID
		WHERE n.parentItemID = ?`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []string
	for rows.Next() {
		var note sql.NullString
		if err := rows.Scan(&note); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, note.String)
	}
	return notes, rows.Err()
}

func (s *SQLiteStore) Collections(ctx context.Context) ([]CollectionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.collectionID, c.key, c.collectionName, c.parentCollectionID, pc.key
		FROM collections c
		LEFT JOIN collections pc ON c.parentCollectionID = pc.collectionID
		ORDER BY c.collectionName`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	var out []CollectionRow
	for rows.Next() {
		var r CollectionRow
		var parentID sql.NullInt64
		var parentKey sql.NullString
		if err := rows.Scan(&r.ID, &r.Key, &r.Name, &parentID, &parentKey); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		r.ParentID, r.ParentKey = parentID.Int64, parentKey.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CollectionCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.key, COUNT(DISTINCT ci.itemID)
		FROM collections c
		JOIN collectionItems ci ON c.collectionID = ci.collectionID
		JOIN items i ON ci.itemID = i.itemID
		WHERE `+regularItemFilter+`
		GROUP BY c.collectionID, c.key`)
	if err != nil {
		return nil, fmt.Errorf("query collection counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scan collection count: %w", err)
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) ItemCollectionKeys(ctx context.Context, itemKey string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.key
		FROM items i
		JOIN collectionItems ci ON i.itemID = ci.itemID
		JOIN collections c ON ci.collectionID = c.collectionID
		WHERE i.key = ?`, itemKey)
	if err != nil {
		return nil, fmt.Errorf("query item collections: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan item collection: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
