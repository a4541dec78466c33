// Package collection resolves the Zotero collection forest and maps items
// to their folder paths.
package collection

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/rcliao/paper-digest/internal/model"
	"github.com/rcliao/paper-digest/internal/store"
)

// Warning kinds reported by Load.
const (
	WarnDanglingParent = "dangling_parent"
	WarnCycle          = "cycle"
)

// Warning describes a structural problem found while building the forest.
// The affected collection is attached as a root so it stays reachable.
type Warning struct {
	Kind          string `json:"kind"`
	CollectionKey string `json:"collection_key"`
	Name          string `json:"name"`
	ParentID      int64  `json:"parent_id,omitempty"`
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnDanglingParent:
		return fmt.Sprintf("collection %q (%s) points at missing parent id %d", w.Name, w.CollectionKey, w.ParentID)
	case WarnCycle:
		return fmt.Sprintf("collection %q (%s) is part of a parent cycle", w.Name, w.CollectionKey)
	}
	return w.Kind
}

// Resolver holds the in-memory collection forest. It is read-only after
// Load; item lookups go back to the store.
type Resolver struct {
	store    store.Reader
	log      *zap.Logger
	byKey    map[string]*model.Collection
	order    []*model.Collection // all collections, by name
	roots    []*model.Collection
	warnings []Warning
}

// Load reads every collection, links parents, sorts siblings by name and
// computes direct item counts.
func Load(ctx context.Context, s store.Reader, log *zap.Logger) (*Resolver, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rows, err := s.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	counts, err := s.CollectionCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count collection items: %w", err)
	}

	r := &Resolver{
		store: s,
		log:   log,
		byKey: make(map[string]*model.Collection, len(rows)),
	}
	for _, row := range rows {
		c := &model.Collection{
			ID:        row.ID,
			Key:       row.Key,
			Name:      row.Name,
			ParentKey: row.ParentKey,
			ItemCount: counts[row.Key],
		}
		r.byKey[c.Key] = c
		r.order = append(r.order, c)

		if row.ParentID != 0 && row.ParentKey == "" {
			r.warnings = append(r.warnings, Warning{
				Kind: WarnDanglingParent, CollectionKey: c.Key, Name: c.Name, ParentID: row.ParentID,
			})
		}
	}
	sortByName(r.order)

	r.link()

	for _, w := range r.warnings {
		log.Warn("collection tree", zap.String("kind", w.Kind), zap.String("detail", w.String()))
	}
	log.Debug("collections loaded", zap.Int("count", len(r.order)), zap.Int("roots", len(r.roots)))
	return r, nil
}

// link attaches each collection to its parent, then cuts parent cycles so
// every node belongs to the forest.
func (r *Resolver) link() {
	for _, c := range r.order {
		if c.ParentKey == "" {
			continue
		}
		if parent, ok := r.byKey[c.ParentKey]; ok {
			c.Parent = parent
			parent.Children = append(parent.Children, c)
		}
	}

	// Breaking the cycle at its first member by name makes the rest of the
	// loop reachable again.
	for _, c := range r.order {
		if inCycle(c) {
			r.warnings = append(r.warnings, Warning{Kind: WarnCycle, CollectionKey: c.Key, Name: c.Name})
			c.Parent.Children = removeChild(c.Parent.Children, c)
			c.Parent = nil
		}
	}

	for _, c := range r.order {
		if c.Parent == nil {
			r.roots = append(r.roots, c)
		}
		sortByName(c.Children)
	}
	for _, root := range r.roots {
		setDepth(root, 0)
	}
}

// inCycle reports whether following parents from c leads back to c.
func inCycle(c *model.Collection) bool {
	seen := map[*model.Collection]bool{}
	for cur := c.Parent; cur != nil; cur = cur.Parent {
		if cur == c {
			return true
		}
		if seen[cur] {
			return false
		}
		seen[cur] = true
	}
	return false
}

func removeChild(children []*model.Collection, c *model.Collection) []*model.Collection {
	out := children[:0]
	for _, ch := range children {
		if ch != c {
			out = append(out, ch)
		}
	}
	return out
}

func setDepth(c *model.Collection, depth int) {
	c.Depth = depth
	for _, ch := range c.Children {
		setDepth(ch, depth+1)
	}
}

func sortByName(cs []*model.Collection) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Name < cs[j].Name })
}

// Roots returns the top-level collections ordered by name.
func (r *Resolver) Roots() []*model.Collection {
	return r.roots
}

// All returns every collection ordered by name.
func (r *Resolver) All() []*model.Collection {
	return r.order
}

// Get returns the collection with the given key, or nil.
func (r *Resolver) Get(key string) *model.Collection {
	return r.byKey[key]
}

// Warnings returns the problems found while building the forest.
func (r *Resolver) Warnings() []Warning {
	return r.warnings
}

// PathOf returns the names from the root down to the collection joined by
// " / ". Unknown keys yield "". The walk stops at a missing or already
// visited parent and returns the partial path.
func (r *Resolver) PathOf(key string) string {
	c, ok := r.byKey[key]
	if !ok {
		return ""
	}

	parts := []string{c.Name}
	seen := map[*model.Collection]bool{c: true}
	for cur := c.Parent; cur != nil && !seen[cur]; cur = cur.Parent {
		seen[cur] = true
		parts = append(parts, cur.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, model.CollectionPathSep)
}

// PathsOf returns the path of every collection that directly contains the
// item, in store order. An item in no collection yields an empty slice.
// Store errors are returned to the caller; CollectionLabel is the lookup
// that absorbs them.
func (r *Resolver) PathsOf(ctx context.Context, itemKey string) ([]string, error) {
	keys, err := r.store.ItemCollectionKeys(ctx, itemKey)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(keys))
	for _, k := range keys {
		if p := r.PathOf(k); p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// ItemsIn returns the regular items linked directly to any of the given
// collections, newest first. Items in several selected collections appear
// once per membership. Unknown keys contribute nothing; store errors are
// returned.
func (r *Resolver) ItemsIn(ctx context.Context, collectionKeys []string) ([]model.Record, error) {
	items, err := r.store.ItemsInCollections(ctx, collectionKeys)
	if err != nil {
		return nil, err
	}
	r.log.Info("loaded collection items", zap.Int("collections", len(collectionKeys)), zap.Int("items", len(items)))
	return items, nil
}

// Search returns collections whose name contains term, case-insensitively,
// ordered by name.
func (r *Resolver) Search(term string) []*model.Collection {
	term = strings.ToLower(term)
	var out []*model.Collection
	for _, c := range r.order {
		if strings.Contains(strings.ToLower(c.Name), term) {
			out = append(out, c)
		}
	}
	return out
}

// CollectionLabel formats an item's collection membership for reports:
// paths joined by " | ", UncategorizedPath for none, UnknownCollectionPath
// when the lookup failed.
func (r *Resolver) CollectionLabel(ctx context.Context, itemKey string) string {
	paths, err := r.PathsOf(ctx, itemKey)
	if err != nil {
		r.log.Warn("collection path lookup failed", zap.String("item", itemKey), zap.Error(err))
		return model.UnknownCollectionPath
	}
	if len(paths) == 0 {
		return model.UncategorizedPath
	}
	return strings.Join(paths, model.CollectionPathListSep)
}

// Names returns the display names of the given collection keys, skipping
// unknown keys.
func (r *Resolver) Names(keys []string) []string {
	var names []string
	for _, k := range keys {
		if c := r.byKey[k]; c != nil {
			names = append(names, c.Name)
		}
	}
	return names
}
