package service

import (
	"context"
	"fmt"
	"math"

	"zotero-bridge/internal/format"
	"zotero-bridge/internal/model"
)

func keyProp(desc string) Property {
	return Property{Type: "string", Description: desc}
}

var (
	itemKeyProp = keyProp("Key of the item, e.g. ABCD2345")
	limitProp   = Property{Type: "integer", Description: "Maximum number of results; capped at the configured maximum"}
	startProp   = Property{Type: "integer", Description: "Offset of the first result", Default: 0}
	sortProp    = Property{
		Type:        "string",
		Description: "Sort key",
		Enum:        []string{model.SortDateModified, model.SortDateAdded, model.SortTitle, model.SortCreator, model.SortItemType, model.SortDate},
		Default:     model.SortDateModified,
	}
	directionProp = Property{Type: "string", Enum: []string{"asc", "desc"}, Default: "desc"}
	tagsProp      = Property{Type: "array", Description: "Items must carry every tag", Items: &Property{Type: "string"}}
	itemTypeProp  = Property{Type: "string", Description: "Comma-separated item types, e.g. journalArticle,book"}
)

// pagingProps are shared by the tools returning a page of items.
func pagingProps(extra map[string]Property) map[string]Property {
	props := map[string]Property{
		"query":     {Type: "string", Description: "Text matched against title, creators and abstract"},
		"item_type": itemTypeProp,
		"tags":      tagsProp,
		"start":     startProp,
		"limit":     limitProp,
		"sort":      sortProp,
		"direction": directionProp,
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

func (r *Registry) registerLibraryTools() {
	r.register(Tool{
		Name:        "search_library",
		Description: "Search the library for items by text, type, tags, collection or version.",
		InputSchema: Schema{Properties: pagingProps(map[string]Property{
			"collection_key": keyProp("Only items in this collection"),
			"since_version":  {Type: "integer", Description: "Only items modified after this library version"},
		})},
		run: r.searchLibrary,
	})
	r.register(Tool{
		Name:        "get_item",
		Description: "Get the full metadata of an item, optionally with attachments, notes and annotations.",
		InputSchema: Schema{
			Properties: map[string]Property{
				"item_key":         itemKeyProp,
				"include_children": {Type: "boolean", Default: true},
			},
			Required: []string{"item_key"},
		},
		run: r.getItem,
	})
	r.register(Tool{
		Name:        "get_item_fulltext",
		Description: "Get the text of an item's PDF attachments.",
		InputSchema: Schema{Properties: map[string]Property{"item_key": itemKeyProp}, Required: []string{"item_key"}},
		run:         r.getItemFullText,
	})
	r.register(Tool{
		Name:        "list_collections",
		Description: "List every collection as a tree.",
		run:         r.listCollections,
	})
	r.register(Tool{
		Name:        "get_collection",
		Description: "Get one collection.",
		InputSchema: Schema{
			Properties: map[string]Property{"collection_key": keyProp("Key of the collection")},
			Required:   []string{"collection_key"},
		},
		run: r.getCollection,
	})
	r.register(Tool{
		Name:        "get_collection_items",
		Description: "List the items of a collection, optionally including all sub-collections.",
		InputSchema: Schema{
			Properties: pagingProps(map[string]Property{
				"collection_key": keyProp("Key of the collection"),
				"recursive":      {Type: "boolean", Description: "Include items of every sub-collection", Default: false},
			}),
			Required: []string{"collection_key"},
		},
		run: r.getCollectionItems,
	})
	r.register(Tool{
		Name:        "list_tags",
		Description: "List tags by number of items, optionally filtered by a substring.",
		InputSchema: Schema{Properties: map[string]Property{"filter": {Type: "string"}}},
		run:         r.listTags,
	})
	r.register(Tool{
		Name:        "get_item_notes",
		Description: "Get the notes of an item.",
		InputSchema: Schema{Properties: map[string]Property{"item_key": itemKeyProp}, Required: []string{"item_key"}},
		run:         r.getItemNotes,
	})
	r.register(Tool{
		Name:        "get_item_attachments",
		Description: "Get the attachments of an item.",
		InputSchema: Schema{Properties: map[string]Property{"item_key": itemKeyProp}, Required: []string{"item_key"}},
		run:         r.getItemAttachments,
	})
	r.register(Tool{
		Name:        "get_item_annotations",
		Description: "Get the PDF annotations of an item.",
		InputSchema: Schema{Properties: map[string]Property{"item_key": itemKeyProp}, Required: []string{"item_key"}},
		run:         r.getItemAnnotations,
	})
	r.register(Tool{
		Name:        "get_related_items",
		Description: "Get the items linked to an item as related.",
		InputSchema: Schema{Properties: map[string]Property{"item_key": itemKeyProp}, Required: []string{"item_key"}},
		run:         r.getRelatedItems,
	})
	r.register(Tool{
		Name:        "get_recent_items",
		Description: "Get items added or modified recently, newest first.",
		InputSchema: Schema{Properties: map[string]Property{
			"days":  {Type: "integer", Description: "Size of the trailing window in days; 0 means today", Default: 7},
			"limit": limitProp,
		}},
		run: r.getRecentItems,
	})
	r.register(Tool{
		Name:        "get_library_stats",
		Description: "Get counts of items, collections, tags and attachments.",
		run:         r.getLibraryStats,
	})
	r.register(Tool{
		Name:        "get_bibliography",
		Description: "Format a bibliography for items in a citation style.",
		InputSchema: Schema{
			Properties: map[string]Property{
				"item_keys": {Type: "array", Description: "Keys of the items to cite", Items: &Property{Type: "string"}},
				"style":     {Type: "string", Description: "Citation style ID", Default: model.DefaultBibliographyStyle},
			},
			Required: []string{"item_keys"},
		},
		run: r.getBibliography,
	})
	r.register(Tool{
		Name:        "search_fulltext",
		Description: "Find items whose PDF content matches a query.",
		InputSchema: Schema{
			Properties: map[string]Property{
				"query": {Type: "string"},
				"limit": limitProp,
			},
			Required: []string{"query"},
		},
		run: r.searchFullText,
	})
}

// filters reads the paging and filter arguments shared by the search tools.
func (r *Registry) filters(a args) (model.SearchFilters, error) {
	var (
		f   model.SearchFilters
		err error
	)

	if f.Query, err = a.str("query"); err != nil {
		return f, err
	}
	types, err := a.list("item_type")
	if err != nil {
		return f, err
	}
	f.ItemTypes = types
	if f.Tags, err = a.list("tags"); err != nil {
		return f, err
	}
	if f.SinceVersion, err = a.intRange("since_version", 0, 0, math.MaxInt32); err != nil {
		return f, err
	}
	if f.Start, err = a.intRange("start", 0, 0, math.MaxInt32); err != nil {
		return f, err
	}
	if f.Limit, err = r.limit(a); err != nil {
		return f, err
	}
	if f.Sort, err = a.enum("sort", model.SortDateModified, sortProp.Enum); err != nil {
		return f, err
	}
	if f.Direction, err = a.enum("direction", "desc", directionProp.Enum); err != nil {
		return f, err
	}
	return f, nil
}

// limit applies the default to a missing limit and caps it at the maximum.
func (r *Registry) limit(a args) (int, error) {
	n, err := a.integer("limit", 0)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, &ValidationError{Field: "limit", Message: "must not be negative"}
	}
	return model.ClampLimit(n, r.opts.DefaultLimit, r.opts.MaxLimit), nil
}

func (r *Registry) searchLibrary(ctx context.Context, a args) (*Result, error) {
	f, err := r.filters(a)
	if err != nil {
		return nil, err
	}
	if f.CollectionKey, err = a.key("collection_key"); err != nil {
		return nil, err
	}

	res, err := r.backend.SearchItems(ctx, f)
	if err != nil {
		return nil, WrapError(err, "failed to search library")
	}
	return &Result{Text: format.SearchResult(res), Data: res}, nil
}

func (r *Registry) getItem(ctx context.Context, a args) (*Result, error) {
	key, err := a.key("item_key")
	if err != nil {
		return nil, err
	}
	children, err := a.boolean("include_children", true)
	if err != nil {
		return nil, err
	}

	item, err := r.backend.GetItem(ctx, key, children)
	if err != nil {
		return nil, WrapError(err, "failed to get item")
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %s", ErrNotFound, key)
	}
	return &Result{Text: format.Item(item), Data: item}, nil
}

func (r *Registry) getItemFullText(ctx context.Context, a args) (*Result, error) {
	key, err := a.key("item_key")
	if err != nil {
		return nil, err
	}

	text, err := r.backend.GetItemFullText(ctx, key)
	if err != nil {
		return nil, WrapError(err, "failed to get full text")
	}
	return &Result{
		Text: format.FullText(key, text),
		Data: map[string]any{"itemKey": key, "text": text},
	}, nil
}

func (r *Registry) listCollections(ctx context.Context, _ args) (*Result, error) {
	cols, err := r.backend.GetCollections(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list collections")
	}
	return &Result{Text: format.Collections(cols), Data: cols}, nil
}

func (r *Registry) getCollection(ctx context.Context, a args) (*Result, error) {
	key, err := a.key("collection_key")
	if err != nil {
		return nil, err
	}

	col, err := r.backend.GetCollection(ctx, key)
	if err != nil {
		return nil, WrapError(err, "failed to get collection")
	}
	if col == nil {
		return nil, fmt.Errorf("%w: collection %s", ErrNotFound, key)
	}
	return &Result{Text: format.Collection(col), Data: col}, nil
}

func (r *Registry) getCollectionItems(ctx context.Context, a args) (*Result, error) {
	key, err := a.key("collection_key")
	if err != nil {
		return nil, err
	}
	recursive, err := a.boolean("recursive", false)
	if err != nil {
		return nil, err
	}
	f, err := r.filters(a)
	if err != nil {
		return nil, err
	}

	res, err := r.backend.GetCollectionItems(ctx, key, recursive, f)
	if err != nil {
		return nil, WrapError(err, "failed to get collection items")
	}
	return &Result{Text: format.SearchResult(res), Data: res}, nil
}

func (r *Registry) listTags(ctx context.Context, a args) (*Result, error) {
	filter, err := a.str("filter")
	if err != nil {
		return nil, err
	}

	tags, err := r.backend.GetTags(ctx, filter)
	if err != nil {
		return nil, WrapError(err, "failed to list tags")
	}
	return &Result{Text: format.Tags(tags), Data: tags}, nil
}

func (r *Registry) getItemNotes(ctx context.Context, a args) (*Result, error) {
	key, err := a.key("item_key")
	if err != nil {
		return nil, err
	}

	notes, err := r.backend.GetItemNotes(ctx, key)
	if err != nil {
		return nil, WrapError(err, "failed to get notes")
	}
	return &Result{Text: format.Notes(notes), Data: notes}, nil
}

func (r *Registry) getItemAttachments(ctx context.Context, a args) (*Result, error) {
	key, err := a.key("item_key")
	if err != nil {
		return nil, err
	}

	atts, err := r.backend.GetItemAttachments(ctx, key)
	if err != nil {
		return nil, WrapError(err, "failed to get attachments")
	}
	return &Result{Text: format.Attachments(atts), Data: atts}, nil
}

func (r *Registry) getItemAnnotations(ctx context.Context, a args) (*Result, error) {
	key, err := a.key("item_key")
	if err != nil {
		return nil, err
	}

	anns, err := r.backend.GetItemAnnotations(ctx, key)
	if err != nil {
		return nil, WrapError(err, "failed to get annotations")
	}
	return &Result{Text: format.Annotations(anns), Data: anns}, nil
}

func (r *Registry) getRelatedItems(ctx context.Context, a args) (*Result, error) {
	key, err := a.key("item_key")
	if err != nil {
		return nil, err
	}

	items, err := r.backend.GetRelatedItems(ctx, key)
	if err != nil {
		return nil, WrapError(err, "failed to get related items")
	}
	return &Result{Text: format.Items("Related items", items), Data: items}, nil
}

func (r *Registry) getRecentItems(ctx context.Context, a args) (*Result, error) {
	days, err := a.intRange("days", 7, 0, 3650)
	if err != nil {
		return nil, err
	}
	limit, err := r.limit(a)
	if err != nil {
		return nil, err
	}

	items, err := r.backend.GetRecentItems(ctx, days, limit)
	if err != nil {
		return nil, WrapError(err, "failed to get recent items")
	}
	heading := fmt.Sprintf("Items added or modified in the last %d days", days)
	if days == 0 {
		heading = "Items added or modified today"
	}
	return &Result{Text: format.Items(heading, items), Data: items}, nil
}

func (r *Registry) getLibraryStats(ctx context.Context, _ args) (*Result, error) {
	stats, err := r.backend.GetLibraryStats(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to get library stats")
	}
	return &Result{Text: format.Stats(stats), Data: stats}, nil
}

func (r *Registry) getBibliography(ctx context.Context, a args) (*Result, error) {
	keys, err := a.list("item_keys")
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, &ValidationError{Field: "item_keys", Message: "is required"}
	}
	for _, k := range keys {
		if msg := checkKey(k); msg != "" {
			return nil, &ValidationError{Field: "item_keys", Message: fmt.Sprintf("%q %s", k, msg)}
		}
	}
	style, err := a.str("style")
	if err != nil {
		return nil, err
	}
	if style == "" {
		style = model.DefaultBibliographyStyle
	}

	text, err := r.backend.GetBibliography(ctx, keys, style)
	if err != nil {
		return nil, WrapError(err, "failed to format bibliography")
	}
	return &Result{
		Text: text + "\n",
		Data: map[string]any{"style": style, "itemKeys": keys, "bibliography": text},
	}, nil
}

func (r *Registry) searchFullText(ctx context.Context, a args) (*Result, error) {
	query, err := a.str("query")
	if err != nil {
		return nil, err
	}
	limit, err := r.limit(a)
	if err != nil {
		return nil, err
	}

	items, err := r.backend.SearchFullText(ctx, query, limit)
	if err != nil {
		return nil, WrapError(err, "failed to search full text")
	}
	return &Result{Text: format.Items(fmt.Sprintf("Full-text matches for %q", query), items), Data: items}, nil
}
