package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"zotero-bridge/internal/model"
)

// GetCollections returns every live collection in the library.
func (c *Client) GetCollections(ctx context.Context) ([]model.Collection, error) {
	objs, err := getAll[apiObject](ctx, c, "/collections", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	out := make([]model.Collection, 0, len(objs))
	for _, obj := range objs {
		col, deleted, err := decodeCollection(obj)
		if err != nil {
			return nil, err
		}
		if !deleted {
			out = append(out, *col)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// GetCollection returns one collection, or nil when it does not exist or is in the trash.
func (c *Client) GetCollection(ctx context.Context, key string) (*model.Collection, error) {
	resp, err := c.get(ctx, "/collections/"+url.PathEscape(key), nil)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection %s: %w", key, err)
	}

	var obj apiObject
	if err := json.Unmarshal(resp.body, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode collection %s: %w", key, err)
	}
	col, deleted, err := decodeCollection(obj)
	if err != nil || deleted {
		return nil, err
	}
	return col, nil
}

// GetCollectionItems returns the items filed in a collection and, when
// recursive, in every collection below it. f.CollectionKey is ignored.
func (c *Client) GetCollectionItems(ctx context.Context, key string, recursive bool, f model.SearchFilters) (*model.SearchResult, error) {
	f.CollectionKey = key
	if !recursive {
		return c.SearchItems(ctx, f)
	}

	start := max(f.Start, 0)
	limit := model.ClampLimit(f.Limit, c.opts.DefaultLimit, c.opts.MaxLimit)

	cols, err := c.GetCollections(ctx)
	if err != nil {
		return nil, err
	}
	keys := subtree(cols, key)
	if len(keys) == 0 {
		return model.NewSearchResult(nil, start, 0), nil
	}

	q, ok := filterQuery(f)
	if !ok {
		return model.NewSearchResult(nil, start, 0), nil
	}

	var merged []model.Item
	seen := make(map[string]bool)
	for _, colKey := range keys {
		objs, err := getAll[apiObject](ctx, c, "/collections/"+url.PathEscape(colKey)+"/items/top", q)
		if errors.Is(err, errNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list items of collection %s: %w", colKey, err)
		}
		for _, obj := range objs {
			d, err := decodeItem(obj)
			if err != nil {
				return nil, err
			}
			if d.deleted || !model.IsLibraryItemType(d.item.ItemType) || seen[d.item.Key] {
				continue
			}
			seen[d.item.Key] = true
			merged = append(merged, d.item)
		}
	}

	c.logger.DebugContext(ctx, "merged recursive collection items",
		"collection", key,
		"collections", len(keys),
		"items", len(merged),
	)

	sortItems(merged, f.Sort, f.Direction)

	total := len(merged)
	if start >= total {
		return model.NewSearchResult(nil, start, total), nil
	}
	end := min(start+limit, total)
	return model.NewSearchResult(merged[start:end], start, total), nil
}

// subtree returns root and every collection below it, depth first, or nil
// when root is not among cols.
func subtree(cols []model.Collection, root string) []string {
	children := make(map[string][]string)
	known := make(map[string]bool, len(cols))
	for _, col := range cols {
		known[col.Key] = true
		if col.ParentCollection != "" {
			children[col.ParentCollection] = append(children[col.ParentCollection], col.Key)
		}
	}
	if !known[root] {
		return nil
	}

	var out []string
	visited := make(map[string]bool)
	stack := []string{root}
	for len(stack) > 0 {
		key := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[key] {
			continue
		}
		visited[key] = true
		out = append(out, key)

		kids := children[key]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}

// GetTags returns the tags of top-level items with their item counts, most
// used first. Tags found only on notes, attachments or annotations are left
// out. A tag present as both manual and automatic is counted once per type.
func (c *Client) GetTags(ctx context.Context, filter string) ([]model.TagCount, error) {
	q := url.Values{}
	if filter = strings.TrimSpace(filter); filter != "" {
		q.Set("q", filter)
		q.Set("qmode", "contains")
	}

	tags, err := getAll[apiTag](ctx, c, "/items/top/tags", q)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	counts := make(map[string]int)
	for _, t := range tags {
		counts[t.Tag] += t.Meta.NumItems
	}

	out := make([]model.TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, model.TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}
