// Package zoterotest builds small Zotero-schema SQLite databases for tests.
package zoterotest

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/rcliao/paper-digest/internal/model"
)

// schema is the subset of the Zotero schema the reader depends on.
// Foreign keys are deliberately absent so tests can build broken trees.
const schema = `
CREATE TABLE itemTypes (
	itemTypeID INTEGER PRIMARY KEY,
	typeName   TEXT NOT NULL UNIQUE
);
CREATE TABLE items (
	itemID       INTEGER PRIMARY KEY,
	itemTypeID   INT NOT NULL,
	dateAdded    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	dateModified TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	libraryID    INT NOT NULL DEFAULT 1,
	key          TEXT NOT NULL
);
CREATE TABLE fields (
	fieldID   INTEGER PRIMARY KEY,
	fieldName TEXT NOT NULL UNIQUE
);
CREATE TABLE itemDataValues (
	valueID INTEGER PRIMARY KEY,
	value   UNIQUE
);
CREATE TABLE itemData (
	itemID  INT,
	fieldID INT,
	valueID INT,
	PRIMARY KEY (itemID, fieldID)
);
CREATE TABLE creators (
	creatorID INTEGER PRIMARY KEY,
	firstName TEXT,
	lastName  TEXT,
	fieldMode INT
);
CREATE TABLE creatorTypes (
	creatorTypeID INTEGER PRIMARY KEY,
	creatorType   TEXT NOT NULL UNIQUE
);
CREATE TABLE itemCreators (
	itemID        INT NOT NULL,
	creatorID     INT NOT NULL,
	creatorTypeID INT NOT NULL DEFAULT 1,
	orderIndex    INT NOT NULL DEFAULT 0,
	PRIMARY KEY (itemID, creatorID, creatorTypeID, orderIndex)
);
CREATE TABLE tags (
	tagID INTEGER PRIMARY KEY,
	name  TEXT NOT NULL UNIQUE
);
CREATE TABLE itemTags (
	itemID INT NOT NULL,
	tagID  INT NOT NULL,
	type   INT NOT NULL DEFAULT 0,
	PRIMARY KEY (itemID, tagID)
);
CREATE TABLE itemAttachments (
	itemID       INTEGER PRIMARY KEY,
	parentItemID INT,
	linkMode     INT,
	contentType  TEXT,
	path         TEXT
);
CREATE TABLE itemNotes (
	itemID       INTEGER PRIMARY KEY,
	parentItemID INT,
	note         TEXT,
	title        TEXT
);
CREATE TABLE collections (
	collectionID       INTEGER PRIMARY KEY,
	collectionName     TEXT NOT NULL,
	parentCollectionID INT DEFAULT NULL,
	libraryID          INT NOT NULL DEFAULT 1,
	key                TEXT NOT NULL
);
CREATE TABLE collectionItems (
	collectionID INT NOT NULL,
	itemID       INT NOT NULL,
	orderIndex   INT NOT NULL DEFAULT 0,
	PRIMARY KEY (collectionID, itemID)
);
`

// Item describes a regular library item to insert.
type Item struct {
	Key       string
	Type      string // defaults to journalArticle
	Title     string
	Abstract  string
	DateAdded string // "2006-01-02 15:04:05"
	Creators  []model.Creator
	Tags      []string
	Fields    map[string]string
}

// Fixture is a writable Zotero-like database on disk.
type Fixture struct {
	// Path is the zotero.sqlite file.
	Path string
	// DataDir is the directory holding the database and storage/.
	DataDir string

	t  testing.TB
	db *sql.DB
}

// New creates an empty Zotero database in a temporary directory.
func New(t testing.TB) *Fixture {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "zotero.sqlite")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create fixture schema: %v", err)
	}
	return &Fixture{Path: path, DataDir: dir, t: t, db: db}
}

func (f *Fixture) exec(query string, args ...any) sql.Result {
	f.t.Helper()
	res, err := f.db.Exec(query, args...)
	if err != nil {
		f.t.Fatalf("fixture exec %q: %v", query, err)
	}
	return res
}

func (f *Fixture) lastID(res sql.Result) int64 {
	f.t.Helper()
	id, err := res.LastInsertId()
	if err != nil {
		f.t.Fatalf("fixture last insert id: %v", err)
	}
	return id
}

// lookup returns the id of name in a (id, name) lookup table, inserting it
// when missing.
func (f *Fixture) lookup(table, idCol, nameCol, name string) int64 {
	f.t.Helper()
	var id int64
	err := f.db.QueryRow(`SELECT `+idCol+` FROM `+table+` WHERE `+nameCol+` = ?`, name).Scan(&id)
	if err == nil {
		return id
	}
	return f.lastID(f.exec(`INSERT INTO `+table+` (`+nameCol+`) VALUES (?)`, name))
}

func (f *Fixture) newItem(typeName, key, dateAdded string) int64 {
	f.t.Helper()
	typeID := f.lookup("itemTypes", "itemTypeID", "typeName", typeName)
	if dateAdded == "" {
		return f.lastID(f.exec(`INSERT INTO items (itemTypeID, key) VALUES (?, ?)`, typeID, key))
	}
	return f.lastID(f.exec(`INSERT INTO items (itemTypeID, key, dateAdded, dateModified) VALUES (?, ?, ?, ?)`,
		typeID, key, dateAdded, dateAdded))
}

// SetField stores one itemData value.
func (f *Fixture) SetField(itemID int64, field, value string) {
	f.t.Helper()
	fieldID := f.lookup("fields", "fieldID", "fieldName", field)
	var valueID int64
	if err := f.db.QueryRow(`SELECT valueID FROM itemDataValues WHERE value = ?`, value).Scan(&valueID); err != nil {
		valueID = f.lastID(f.exec(`INSERT INTO itemDataValues (value) VALUES (?)`, value))
	}
	f.exec(`INSERT OR REPLACE INTO itemData (itemID, fieldID, valueID) VALUES (?, ?, ?)`, itemID, fieldID, valueID)
}

// AddItem inserts a regular item with its fields, creators and tags.
func (f *Fixture) AddItem(it Item) int64 {
	f.t.Helper()
	typeName := it.Type
	if typeName == "" {
		typeName = "journalArticle"
	}
	id := f.newItem(typeName, it.Key, it.DateAdded)

	if it.Title != "" {
		f.SetField(id, "title", it.Title)
	}
	if it.Abstract != "" {
		f.SetField(id, "abstractNote", it.Abstract)
	}
	for name, value := range it.Fields {
		f.SetField(id, name, value)
	}
	for i, c := range it.Creators {
		role := c.Role
		if role == "" {
			role = "author"
		}
		roleID := f.lookup("creatorTypes", "creatorTypeID", "creatorType", role)
		creatorID := f.lastID(f.exec(`INSERT INTO creators (firstName, lastName, fieldMode) VALUES (?, ?, 0)`,
			c.FirstName, c.LastName))
		f.exec(`INSERT INTO itemCreators (itemID, creatorID, creatorTypeID, orderIndex) VALUES (?, ?, ?, ?)`,
			id, creatorID, roleID, i)
	}
	for _, tag := range it.Tags {
		tagID := f.lookup("tags", "tagID", "name", tag)
		f.exec(`INSERT INTO itemTags (itemID, tagID) VALUES (?, ?)`, id, tagID)
	}
	return id
}

// AddAttachment inserts an attachment item under parentID.
func (f *Fixture) AddAttachment(parentID int64, key, title, path, contentType string) int64 {
	f.t.Helper()
	id := f.newItem("attachment", key, "")
	if title != "" {
		f.SetField(id, "title", title)
	}
	f.exec(`INSERT INTO itemAttachments (itemID, parentItemID, linkMode, contentType, path) VALUES (?, ?, 0, ?, ?)`,
		id, parentID, contentType, path)
	return id
}

// AddStoredFile writes data to <DataDir>/storage/<key>/<name> and returns
// the "storage:" descriptor pointing at it.
func (f *Fixture) AddStoredFile(key, name string, data []byte) string {
	f.t.Helper()
	dir := filepath.Join(f.DataDir, "storage", key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		f.t.Fatalf("create storage dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		f.t.Fatalf("write stored file: %v", err)
	}
	return "storage:" + name
}

// AddNote inserts a child note under parentID.
func (f *Fixture) AddNote(parentID int64, key, note string) int64 {
	f.t.Helper()
	id := f.newItem("note", key, "")
	f.exec(`INSERT INTO itemNotes (itemID, parentItemID, note, title) VALUES (?, ?, ?, '')`, id, parentID, note)
	return id
}

// AddCollection inserts a collection. parentID 0 makes it a root; a
// parentID with no matching row creates a dangling parent link.
func (f *Fixture) AddCollection(key, name string, parentID int64) int64 {
	f.t.Helper()
	var parent any
	if parentID != 0 {
		parent = parentID
	}
	return f.lastID(f.exec(`INSERT INTO collections (collectionName, parentCollectionID, key) VALUES (?, ?, ?)`,
		name, parent, key))
}

// SetCollectionParent rewrites a collection's parent link.
func (f *Fixture) SetCollectionParent(collectionID, parentID int64) {
	f.t.Helper()
	f.exec(`UPDATE collections SET parentCollectionID = ? WHERE collectionID = ?`, parentID, collectionID)
}

// AddToCollection links an item directly to a collection.
func (f *Fixture) AddToCollection(collectionID, itemID int64) {
	f.t.Helper()
	f.exec(`INSERT INTO collectionItems (collectionID, itemID) VALUES (?, ?)`, collectionID, itemID)
}
