package backend

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"zotero-bridge/internal/cache"
	"zotero-bridge/internal/model"
)

// Cached is a read-through cache in front of a Backend. Recent items, stats
// and health checks always go to the backend.
type Cached struct {
	Backend
	cache  *cache.Cache[string, any]
	logger *slog.Logger
}

// WithCache wraps b so that repeated idempotent queries are served from c.
func WithCache(b Backend, c *cache.Cache[string, any]) *Cached {
	return &Cached{
		Backend: b,
		cache:   c,
		logger:  slog.Default(),
	}
}

// Purge drops every cached result.
func (c *Cached) Purge() {
	c.cache.Clear()
}

// RunJanitor evicts expired entries every interval until ctx is done.
func (c *Cached) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.cache.Cleanup(); n > 0 {
				c.logger.DebugContext(ctx, "evicted expired cache entries", "count", n)
			}
		}
	}
}

// cacheKey joins an operation name with its arguments.
func cacheKey(op string, args ...any) string {
	parts := []string{op}
	for _, a := range args {
		switch v := a.(type) {
		case string:
			parts = append(parts, strconv.Quote(v))
		default:
			raw, _ := json.Marshal(v)
			parts = append(parts, string(raw))
		}
	}
	return strings.Join(parts, "|")
}

// through returns the cached value for key or loads and stores it.
// Errors are never cached.
func through[T any](ctx context.Context, c *Cached, key string, load func() (T, error)) (T, error) {
	if v, ok := c.cache.Get(key); ok {
		if t, ok := v.(T); ok {
			c.logger.DebugContext(ctx, "cache hit", "key", key)
			return t, nil
		}
	}

	t, err := load()
	if err != nil {
		return t, err
	}
	c.cache.Set(key, t)
	return t, nil
}

func (c *Cached) SearchItems(ctx context.Context, f model.SearchFilters) (*model.SearchResult, error) {
	return through(ctx, c, cacheKey("search", f), func() (*model.SearchResult, error) {
		return c.Backend.SearchItems(ctx, f)
	})
}

func (c *Cached) GetItem(ctx context.Context, key string, includeChildren bool) (*model.Item, error) {
	return through(ctx, c, cacheKey("item", key, includeChildren), func() (*model.Item, error) {
		return c.Backend.GetItem(ctx, key, includeChildren)
	})
}

func (c *Cached) GetItemFullText(ctx context.Context, key string) (string, error) {
	return through(ctx, c, cacheKey("fulltext", key), func() (string, error) {
		return c.Backend.GetItemFullText(ctx, key)
	})
}

func (c *Cached) GetCollections(ctx context.Context) ([]model.Collection, error) {
	return through(ctx, c, cacheKey("collections"), func() ([]model.Collection, error) {
		return c.Backend.GetCollections(ctx)
	})
}

func (c *Cached) GetCollection(ctx context.Context, key string) (*model.Collection, error) {
	return through(ctx, c, cacheKey("collection", key), func() (*model.Collection, error) {
		return c.Backend.GetCollection(ctx, key)
	})
}

func (c *Cached) GetCollectionItems(ctx context.Context, key string, recursive bool, f model.SearchFilters) (*model.SearchResult, error) {
	return through(ctx, c, cacheKey("collection-items", key, recursive, f), func() (*model.SearchResult, error) {
		return c.Backend.GetCollectionItems(ctx, key, recursive, f)
	})
}

func (c *Cached) GetTags(ctx context.Context, filter string) ([]model.TagCount, error) {
	return through(ctx, c, cacheKey("tags", filter), func() ([]model.TagCount, error) {
		return c.Backend.GetTags(ctx, filter)
	})
}

func (c *Cached) GetItemNotes(ctx context.Context, key string) ([]model.Note, error) {
	return through(ctx, c, cacheKey("notes", key), func() ([]model.Note, error) {
		return c.Backend.GetItemNotes(ctx, key)
	})
}

func (c *Cached) GetItemAttachments(ctx context.Context, key string) ([]model.Attachment, error) {
	return through(ctx, c, cacheKey("attachments", key), func() ([]model.Attachment, error) {
		return c.Backend.GetItemAttachments(ctx, key)
	})
}

func (c *Cached) GetItemAnnotations(ctx context.Context, key string) ([]model.Annotation, error) {
	return through(ctx, c, cacheKey("annotations", key), func() ([]model.Annotation, error) {
		return c.Backend.GetItemAnnotations(ctx, key)
	})
}

func (c *Cached) GetRelatedItems(ctx context.Context, key string) ([]model.Item, error) {
	return through(ctx, c, cacheKey("related", key), func() ([]model.Item, error) {
		return c.Backend.GetRelatedItems(ctx, key)
	})
}

func (c *Cached) GetBibliography(ctx context.Context, keys []string, style string) (string, error) {
	return through(ctx, c, cacheKey("bibliography", keys, style), func() (string, error) {
		return c.Backend.GetBibliography(ctx, keys, style)
	})
}

func (c *Cached) SearchFullText(ctx context.Context, query string, limit int) ([]model.Item, error) {
	return through(ctx, c, cacheKey("search-fulltext", query, limit), func() ([]model.Item, error) {
		return c.Backend.SearchFullText(ctx, query, limit)
	})
}
