package local

import (
	"context"
	"fmt"
	"strings"

	"zotero-bridge/internal/model"
)

// itemQuery accumulates the WHERE clause of a library item query.
type itemQuery struct {
	where []string
	args  []any
	empty bool // the filters cannot match anything
}

func (q *itemQuery) add(clause string, args ...any) {
	q.where = append(q.where, clause)
	q.args = append(q.args, args...)
}

func (q *itemQuery) clause() string {
	return strings.Join(q.where, " AND ")
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// buildQuery translates filters into a query over live library items.
// collectionIDs, when non-nil, restricts results to members of those collections.
func (s *Store) buildQuery(f model.SearchFilters, collectionIDs []int64) *itemQuery {
	q := &itemQuery{}
	base, args := s.libraryItemFilter("i")
	q.add(base, args...)

	if len(f.ItemTypes) > 0 {
		var ids []any
		for _, name := range model.LibraryItemTypes(f.ItemTypes) {
			if id, ok := s.itemTypeIDs[name]; ok {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			q.empty = true
			return q
		}
		q.add(fmt.Sprintf("i.itemTypeID IN (%s)", placeholders(len(ids))), ids...)
	}

	for _, word := range strings.Fields(f.Query) {
		pattern := escapeLike(word)
		var alternatives []string
		var wordArgs []any
		if len(s.searchFieldIDs) > 0 {
			alternatives = append(alternatives, fmt.Sprintf(`EXISTS (SELECT 1 FROM itemData d
				JOIN itemDataValues v ON v.valueID = d.valueID
				WHERE d.itemID = i.itemID AND d.fieldID IN (%s) AND v.value LIKE ? ESCAPE '\')`,
				placeholders(len(s.searchFieldIDs))))
			wordArgs = append(wordArgs, s.searchFieldIDs...)
			wordArgs = append(wordArgs, pattern)
		}
		alternatives = append(alternatives, `EXISTS (SELECT 1 FROM itemCreators ic
			JOIN creators c ON c.creatorID = ic.creatorID
			WHERE ic.itemID = i.itemID AND (c.lastName LIKE ? ESCAPE '\' OR c.firstName LIKE ? ESCAPE '\'))`)
		wordArgs = append(wordArgs, pattern, pattern)
		q.add("("+strings.Join(alternatives, " OR ")+")", wordArgs...)
	}

	for _, tag := range f.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		q.add(`EXISTS (SELECT 1 FROM itemTags it
			JOIN tags t ON t.tagID = it.tagID
			WHERE it.itemID = i.itemID AND t.name = ?)`, tag)
	}

	if f.CollectionKey != "" {
		q.add(`EXISTS (SELECT 1 FROM collectionItems ci
			JOIN collections c ON c.collectionID = ci.collectionID
			WHERE ci.itemID = i.itemID AND c.key = ? AND c.libraryID = ? AND `+collectionNotDeleted("c")+`)`,
			f.CollectionKey, s.libraryID)
	}

	if collectionIDs != nil {
		if len(collectionIDs) == 0 {
			q.empty = true
			return q
		}
		ids := make([]any, len(collectionIDs))
		for i, id := range collectionIDs {
			ids[i] = id
		}
		q.add(fmt.Sprintf(`EXISTS (SELECT 1 FROM collectionItems ci
			WHERE ci.itemID = i.itemID AND ci.collectionID IN (%s))`, placeholders(len(ids))), ids...)
	}

	if f.SinceVersion > 0 {
		q.add("i.version > ?", f.SinceVersion)
	}

	return q
}

// orderBy maps a sort key to a whitelisted SQL ordering.
func orderBy(sort, direction string) string {
	sort, direction = model.NormalizeSort(sort, direction)
	dir := strings.ToUpper(direction)

	var expr string
	switch sort {
	case model.SortDateAdded:
		expr = "i.dateAdded"
	case model.SortTitle:
		expr = "COALESCE(" + fieldValue("i", "title") + ", '') COLLATE NOCASE"
	case model.SortDate:
		expr = "COALESCE(" + fieldValue("i", "date") + ", '')"
	case model.SortItemType:
		expr = "(SELECT typeName FROM itemTypes t WHERE t.itemTypeID = i.itemTypeID)"
	case model.SortCreator:
		expr = `COALESCE((SELECT c.lastName FROM itemCreators ic
			JOIN creators c ON c.creatorID = ic.creatorID
			WHERE ic.itemID = i.itemID ORDER BY ic.orderIndex LIMIT 1), '') COLLATE NOCASE`
	default:
		expr = "i.dateModified"
	}
	return fmt.Sprintf("%s %s, i.itemID %s", expr, dir, dir)
}

// SearchItems returns one page of live library items matching the filters.
func (s *Store) SearchItems(ctx context.Context, f model.SearchFilters) (*model.SearchResult, error) {
	return s.search(ctx, f, nil)
}

func (s *Store) search(ctx context.Context, f model.SearchFilters, collectionIDs []int64) (*model.SearchResult, error) {
	start := f.Start
	if start < 0 {
		start = 0
	}
	limit := s.clampLimit(f.Limit)

	q := s.buildQuery(f, collectionIDs)
	if q.empty {
		return model.NewSearchResult(nil, start, 0), nil
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM items i WHERE "+q.clause(), q.args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	s.logger.DebugContext(ctx, "local search",
		"query", f.Query,
		"tags", f.Tags,
		"total", total,
		"start", start,
		"limit", limit,
	)

	if start >= total {
		return model.NewSearchResult(nil, start, total), nil
	}

	args := append(append([]any{}, q.args...), limit, start)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items i WHERE "+q.clause()+
			" ORDER BY "+orderBy(f.Sort, f.Direction)+" LIMIT ? OFFSET ?",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	found, err := scanItemRows(rows)
	if err != nil {
		return nil, err
	}

	items, err := s.hydrateAll(ctx, found)
	if err != nil {
		return nil, err
	}
	return model.NewSearchResult(items, start, total), nil
}

// GetRecentItems returns items added or modified within the last days
// (since the start of today for 0), newest first.
func (s *Store) GetRecentItems(ctx context.Context, days, limit int) ([]model.Item, error) {
	cutoff := storeTime(model.RecentCutoff(s.opts.Now(), days))
	limit = s.clampLimit(limit)

	base, args := s.libraryItemFilter("i")
	args = append(args, cutoff, cutoff, limit)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items i WHERE "+base+
			" AND (i.dateAdded >= ? OR i.dateModified >= ?)"+
			" ORDER BY MAX(i.dateAdded, i.dateModified) DESC, i.itemID DESC LIMIT ?",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent items: %w", err)
	}
	found, err := scanItemRows(rows)
	if err != nil {
		return nil, err
	}
	return s.hydrateAll(ctx, found)
}

// GetBibliography always reports that formatting is unavailable locally.
func (s *Store) GetBibliography(ctx context.Context, keys []string, style string) (string, error) {
	return model.BibliographyUnavailable, nil
}
