package remote

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"zotero-bridge/internal/model"
)

// bibliographyBatch is the most keys the API accepts in one itemKey list.
const bibliographyBatch = 50

// count reads Total-Results for a query without fetching its items.
func (c *Client) count(ctx context.Context, path string, q url.Values) (int, error) {
	if q == nil {
		q = url.Values{}
	}
	q.Set("limit", "1")
	resp, err := c.get(ctx, path, q)
	if err != nil {
		return 0, err
	}
	return max(resp.total(), 0), nil
}

// GetLibraryStats summarizes the library. Recently added covers the last
// 24 hours and recently modified the last 7 days.
func (c *Client) GetLibraryStats(ctx context.Context) (*model.LibraryStats, error) {
	stats := &model.LibraryStats{ItemsByType: make(map[string]int)}
	var err error

	q := url.Values{}
	excludeChildTypes(q)
	if stats.TotalItems, err = c.count(ctx, "/items/top", q); err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}
	if stats.TotalCollections, err = c.count(ctx, "/collections", nil); err != nil {
		return nil, fmt.Errorf("failed to count collections: %w", err)
	}
	// Distinct names on top-level items, as GetTags lists them.
	tags, err := c.GetTags(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", err)
	}
	stats.TotalTags = len(tags)
	if stats.TotalAttachments, err = c.count(ctx, "/items", url.Values{"itemType": {model.ItemTypeAttachment}}); err != nil {
		return nil, fmt.Errorf("failed to count attachments: %w", err)
	}

	// One request per type stays bounded however large the library is.
	if stats.TotalItems > 0 {
		for _, t := range model.ItemTypes {
			if !model.IsLibraryItemType(t) {
				continue
			}
			n, err := c.count(ctx, "/items/top", url.Values{"itemType": {t}})
			if err != nil {
				return nil, fmt.Errorf("failed to count %s items: %w", t, err)
			}
			if n > 0 {
				stats.ItemsByType[t] = n
			}
		}
	}

	now := c.opts.Now()
	if stats.RecentlyAdded, err = c.countSince(ctx, model.SortDateAdded, now.Add(-24*time.Hour)); err != nil {
		return nil, err
	}
	if stats.RecentlyModified, err = c.countSince(ctx, model.SortDateModified, now.Add(-7*24*time.Hour)); err != nil {
		return nil, err
	}

	return stats, nil
}

// countSince counts top-level items whose sort field is at or after cutoff,
// scanning newest first and stopping at the first older item.
func (c *Client) countSince(ctx context.Context, field string, cutoff time.Time) (int, error) {
	q := url.Values{}
	excludeChildTypes(q)
	q.Set("sort", field)
	q.Set("direction", "desc")
	q.Set("limit", strconv.Itoa(pageSize))

	n := 0
	for start := 0; ; {
		q.Set("start", strconv.Itoa(start))
		resp, err := c.get(ctx, "/items/top", q)
		if err != nil {
			return 0, fmt.Errorf("failed to scan items by %s: %w", field, err)
		}
		decoded, err := decodeItems(resp.body)
		if err != nil {
			return 0, err
		}

		for _, item := range libraryItems(decoded) {
			value := item.DateModified
			if field == model.SortDateAdded {
				value = item.DateAdded
			}
			t, ok := model.ParseTime(value)
			if !ok || t.Before(cutoff) {
				return n, nil
			}
			n++
		}

		start += len(decoded)
		if len(decoded) == 0 || !resp.hasNext() {
			return n, nil
		}
	}
}

// GetBibliography formats the items with the API's citation engine and
// returns plain text, one entry per line.
func (c *Client) GetBibliography(ctx context.Context, keys []string, style string) (string, error) {
	if style = strings.TrimSpace(style); style == "" {
		style = model.DefaultBibliographyStyle
	}
	if len(keys) == 0 {
		return "", nil
	}

	var parts []string
	for i := 0; i < len(keys); i += bibliographyBatch {
		batch := keys[i:min(i+bibliographyBatch, len(keys))]
		resp, err := c.get(ctx, "/items", url.Values{
			"itemKey": {strings.Join(batch, ",")},
			"format":  {"bibliography"},
			"style":   {style},
		})
		if err != nil {
			return "", fmt.Errorf("failed to format bibliography: %w", err)
		}
		if text := model.HTMLToText(string(resp.body)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
