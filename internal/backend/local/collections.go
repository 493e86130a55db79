package local

import (
	"context"
	"database/sql"
	"fmt"

	"zotero-bridge/internal/model"
)

func (s *Store) queryCollections(ctx context.Context, extra string, extraArgs ...any) ([]model.Collection, error) {
	live, liveArgs := s.libraryItemFilter("i")

	args := append([]any{}, liveArgs...)
	args = append(args, s.libraryID)
	args = append(args, extraArgs...)

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.key, COALESCE(c.version, 0), c.collectionName, COALESCE(p.key, ''),
			(SELECT COUNT(*) FROM collectionItems ci
				JOIN items i ON i.itemID = ci.itemID
				WHERE ci.collectionID = c.collectionID AND `+live+`)
		FROM collections c
		LEFT JOIN collections p ON p.collectionID = c.parentCollectionID AND `+collectionNotDeleted("p")+`
		WHERE c.libraryID = ? AND `+collectionNotDeleted("c")+extra+`
		ORDER BY c.collectionName COLLATE NOCASE, c.key`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	defer rows.Close()

	out := []model.Collection{}
	for rows.Next() {
		var c model.Collection
		if err := rows.Scan(&c.Key, &c.Version, &c.Name, &c.ParentCollection, &c.NumItems); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collections: %w", err)
	}
	return out, nil
}

// GetCollections returns every live collection in the library.
func (s *Store) GetCollections(ctx context.Context) ([]model.Collection, error) {
	return s.queryCollections(ctx, "")
}

// GetCollection returns one collection, or nil when it does not exist or is in the trash.
func (s *Store) GetCollection(ctx context.Context, key string) (*model.Collection, error) {
	found, err := s.queryCollections(ctx, " AND c.key = ?", key)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// collectionTree is the live parent/child structure of the library's collections.
type collectionTree struct {
	ids      map[string]int64
	children map[int64][]int64
}

func (s *Store) loadCollectionTree(ctx context.Context) (*collectionTree, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.collectionID, c.key, c.parentCollectionID
		FROM collections c
		WHERE c.libraryID = ? AND `+collectionNotDeleted("c")+`
		ORDER BY c.collectionID`, s.libraryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load collection tree: %w", err)
	}
	defer rows.Close()

	tree := &collectionTree{
		ids:      make(map[string]int64),
		children: make(map[int64][]int64),
	}
	for rows.Next() {
		var id int64
		var key string
		var parent sql.NullInt64
		if err := rows.Scan(&id, &key, &parent); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		tree.ids[key] = id
		if parent.Valid {
			tree.children[parent.Int64] = append(tree.children[parent.Int64], id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collections: %w", err)
	}
	return tree, nil
}

// subtree returns root and every collection below it, depth first.
// The visited set guards against a malformed tree; each collection is taken once.
func (t *collectionTree) subtree(root int64) []int64 {
	var out []int64
	visited := make(map[int64]bool)
	stack := []int64{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		out = append(out, id)

		kids := t.children[id]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}

// GetCollectionItems returns the items filed in a collection and, when
// recursive, in all of its sub-collections. An unknown collection yields an
// empty page. f.CollectionKey is ignored.
func (s *Store) GetCollectionItems(ctx context.Context, key string, recursive bool, f model.SearchFilters) (*model.SearchResult, error) {
	tree, err := s.loadCollectionTree(ctx)
	if err != nil {
		return nil, err
	}

	root, ok := tree.ids[key]
	if !ok {
		return model.NewSearchResult(nil, max(f.Start, 0), 0), nil
	}

	ids := []int64{root}
	if recursive {
		ids = tree.subtree(root)
	}

	f.CollectionKey = ""
	return s.search(ctx, f, ids)
}

// GetTags returns tags on live library items with the number of items
// carrying each, most used first. filter is a case-insensitive substring.
func (s *Store) GetTags(ctx context.Context, filter string) ([]model.TagCount, error) {
	live, args := s.libraryItemFilter("i")
	query := `
		SELECT t.name, COUNT(DISTINCT it.itemID) AS n
		FROM tags t
		JOIN itemTags it ON it.tagID = t.tagID
		JOIN items i ON i.itemID = it.itemID
		WHERE ` + live
	if filter != "" {
		query += ` AND t.name LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(filter))
	}
	query += " GROUP BY t.name ORDER BY n DESC, t.name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	out := []model.TagCount{}
	for rows.Next() {
		var tc model.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		out = append(out, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return out, nil
}
