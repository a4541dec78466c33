// Package store provides read-only access to a Zotero SQLite database.
package store

import (
	"context"
	"errors"

	"github.com/rcliao/paper-digest/internal/model"
)

// ErrDatabaseNotFound is returned when the database file does not exist.
var ErrDatabaseNotFound = errors.New("zotero database not found")

// ErrItemNotFound is returned by Item for an unknown key.
var ErrItemNotFound = errors.New("item not found")

// CollectionRow is one row of the collections table with its parent link.
type CollectionRow struct {
	ID   int64
	Key  string
	Name string
	// ParentID is the raw parentCollectionID, 0 when absent.
	ParentID int64
	// ParentKey is the parent's key, "" when there is no parent or the
	// parent row does not exist.
	ParentKey string
}

// Reader defines the record store interface. It never writes.
type Reader interface {
	// Items returns every regular (non-note, non-attachment) item,
	// newest first.
	Items(ctx context.Context) ([]model.Record, error)

	// ItemsInCollections returns items linked directly to any of the given
	// collections, one entry per membership, newest first.
	ItemsInCollections(ctx context.Context, collectionKeys []string) ([]model.Record, error)

	// Item returns a single hydrated item by key.
	Item(ctx context.Context, key string) (*model.Record, error)

	// Collections returns all collection rows ordered by name.
	Collections(ctx context.Context) ([]CollectionRow, error)

	// CollectionCounts returns direct regular-item counts keyed by
	// collection key.
	CollectionCounts(ctx context.Context) (map[string]int, error)

	// ItemCollectionKeys returns the keys of collections that directly
	// contain the item.
	ItemCollectionKeys(ctx context.Context, itemKey string) ([]string, error)

	// Close closes the store.
	Close() error
}
