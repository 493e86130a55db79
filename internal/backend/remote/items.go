package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"zotero-bridge/internal/model"
)

// maxSearchPages bounds how many pages a full-text search scans.
const maxSearchPages = 5

// excludeChildTypes adds the negations that hide child items.
func excludeChildTypes(q url.Values) {
	for _, t := range model.ExcludedItemTypes {
		q.Add("itemType", "-"+t)
	}
}

// filterQuery translates filters into API parameters, without paging.
// ok is false when the filters cannot match anything.
func filterQuery(f model.SearchFilters) (q url.Values, ok bool) {
	q = url.Values{}

	if len(f.ItemTypes) > 0 {
		types := model.LibraryItemTypes(f.ItemTypes)
		if len(types) == 0 {
			return nil, false
		}
		q.Set("itemType", strings.Join(types, " || "))
	} else {
		excludeChildTypes(q)
	}

	if query := strings.TrimSpace(f.Query); query != "" {
		q.Set("q", query)
		q.Set("qmode", "everything")
	}
	for _, tag := range f.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			q.Add("tag", tag)
		}
	}
	if f.SinceVersion > 0 {
		q.Set("since", strconv.Itoa(f.SinceVersion))
	}
	return q, true
}

// libraryItems drops trashed and child items that slipped through a query.
func libraryItems(decoded []*decodedItem) []model.Item {
	items := make([]model.Item, 0, len(decoded))
	for _, d := range decoded {
		if d.deleted || !model.IsLibraryItemType(d.item.ItemType) {
			continue
		}
		items = append(items, d.item)
	}
	return items
}

// SearchItems returns one page of top-level items matching the filters.
func (c *Client) SearchItems(ctx context.Context, f model.SearchFilters) (*model.SearchResult, error) {
	start := max(f.Start, 0)
	limit := model.ClampLimit(f.Limit, c.opts.DefaultLimit, c.opts.MaxLimit)

	q, ok := filterQuery(f)
	if !ok {
		return model.NewSearchResult(nil, start, 0), nil
	}
	sort, direction := model.NormalizeSort(f.Sort, f.Direction)
	q.Set("sort", sort)
	q.Set("direction", direction)
	q.Set("start", strconv.Itoa(start))
	q.Set("limit", strconv.Itoa(limit))

	path := "/items/top"
	if f.CollectionKey != "" {
		path = "/collections/" + url.PathEscape(f.CollectionKey) + "/items/top"
	}

	resp, err := c.get(ctx, path, q)
	if errors.Is(err, errNotFound) {
		return model.NewSearchResult(nil, start, 0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}

	decoded, err := decodeItems(resp.body)
	if err != nil {
		return nil, err
	}
	items := libraryItems(decoded)

	total := resp.total()
	if total < 0 {
		total = start + len(items)
		if resp.hasNext() {
			total++
		}
	}
	return model.NewSearchResult(items, start, total), nil
}

// fetchItem returns the raw item, or nil on 404.
func (c *Client) fetchItem(ctx context.Context, key string) (*decodedItem, error) {
	resp, err := c.get(ctx, "/items/"+url.PathEscape(key), nil)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %s: %w", key, err)
	}

	var obj apiObject
	if err := json.Unmarshal(resp.body, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode item %s: %w", key, err)
	}
	return decodeItem(obj)
}

// GetItem returns the item, or nil when it does not exist or is in the trash.
func (c *Client) GetItem(ctx context.Context, key string, includeChildren bool) (*model.Item, error) {
	d, err := c.fetchItem(ctx, key)
	if err != nil || d == nil || d.deleted {
		return nil, err
	}
	item := d.item

	if includeChildren {
		ch, err := c.children(ctx, key)
		if err != nil {
			return nil, err
		}
		item.Attachments = ch.attachments
		item.Notes = ch.notes
		if item.Annotations, err = c.annotationsOf(ctx, ch.attachments); err != nil {
			return nil, err
		}
	}

	return &item, nil
}

type childSet struct {
	attachments []model.Attachment
	notes       []model.Note
	annotations []model.Annotation
}

// children fetches and classifies the live children of an item.
func (c *Client) children(ctx context.Context, key string) (*childSet, error) {
	objs, err := getAll[apiObject](ctx, c, "/items/"+url.PathEscape(key)+"/children", nil)
	if errors.Is(err, errNotFound) {
		return &childSet{attachments: []model.Attachment{}, notes: []model.Note{}, annotations: []model.Annotation{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get children of %s: %w", key, err)
	}

	set := &childSet{attachments: []model.Attachment{}, notes: []model.Note{}, annotations: []model.Annotation{}}
	for _, obj := range objs {
		d, err := decodeItem(obj)
		if err != nil {
			return nil, err
		}
		if d.deleted {
			continue
		}
		switch d.item.ItemType {
		case model.ItemTypeAttachment:
			set.attachments = append(set.attachments, d.attachment())
		case model.ItemTypeNote:
			set.notes = append(set.notes, d.note())
		case model.ItemTypeAnnotation:
			set.annotations = append(set.annotations, d.annotation())
		}
	}
	return set, nil
}

// annotationsOf collects annotations from the children of each PDF attachment.
func (c *Client) annotationsOf(ctx context.Context, attachments []model.Attachment) ([]model.Annotation, error) {
	out := []model.Annotation{}
	for _, a := range attachments {
		if !a.IsPDF() {
			continue
		}
		ch, err := c.children(ctx, a.Key)
		if err != nil {
			return nil, err
		}
		out = append(out, ch.annotations...)
	}
	return out, nil
}

// GetItemNotes returns the child notes of an item.
func (c *Client) GetItemNotes(ctx context.Context, key string) ([]model.Note, error) {
	ch, err := c.children(ctx, key)
	if err != nil {
		return nil, err
	}
	return ch.notes, nil
}

// GetItemAttachments returns the child attachments of an item.
func (c *Client) GetItemAttachments(ctx context.Context, key string) ([]model.Attachment, error) {
	ch, err := c.children(ctx, key)
	if err != nil {
		return nil, err
	}
	return ch.attachments, nil
}

// GetItemAnnotations returns the annotations made on the item's PDFs.
func (c *Client) GetItemAnnotations(ctx context.Context, key string) ([]model.Annotation, error) {
	ch, err := c.children(ctx, key)
	if err != nil {
		return nil, err
	}
	return c.annotationsOf(ctx, ch.attachments)
}

// GetItemFullText returns the indexed text of the item's PDF attachments,
// joined and truncated. Attachment keys return their own text.
func (c *Client) GetItemFullText(ctx context.Context, key string) (string, error) {
	d, err := c.fetchItem(ctx, key)
	if err != nil || d == nil || d.deleted {
		return "", err
	}

	var sources []string
	if d.item.ItemType == model.ItemTypeAttachment {
		if d.data.ContentType == model.ContentTypePDF {
			sources = []string{key}
		}
	} else {
		ch, err := c.children(ctx, key)
		if err != nil {
			return "", err
		}
		for _, a := range ch.attachments {
			if a.IsPDF() {
				sources = append(sources, a.Key)
			}
		}
	}

	var parts []string
	for _, attKey := range sources {
		resp, err := c.get(ctx, "/items/"+url.PathEscape(attKey)+"/fulltext", nil)
		if errors.Is(err, errNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to get full text of %s: %w", attKey, err)
		}
		var ft struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal(resp.body, &ft); err != nil {
			return "", fmt.Errorf("failed to decode full text of %s: %w", attKey, err)
		}
		if text := strings.TrimSpace(ft.Content); text != "" {
			parts = append(parts, text)
		}
	}

	return model.TruncateRunes(strings.Join(parts, model.FullTextSeparator), c.opts.MaxFullTextLength), nil
}

// GetRelatedItems resolves the item's dc:relation links one hop deep.
func (c *Client) GetRelatedItems(ctx context.Context, key string) ([]model.Item, error) {
	item, err := c.GetItem(ctx, key, false)
	if err != nil {
		return nil, err
	}
	related := []model.Item{}
	if item == nil {
		return related, nil
	}

	seen := map[string]bool{key: true}
	for _, uri := range item.Relations[model.RelationPredicate] {
		relKey, ok := model.KeyFromURI(uri)
		if !ok {
			c.logger.WarnContext(ctx, "skipping malformed relation", "item", key, "uri", uri)
			continue
		}
		if seen[relKey] {
			continue
		}
		seen[relKey] = true

		rel, err := c.GetItem(ctx, relKey, false)
		if err != nil {
			return nil, err
		}
		if rel != nil {
			related = append(related, *rel)
		}
	}
	return related, nil
}

// GetRecentItems returns items added or modified within the last days
// (since the start of today for 0), newest first.
func (c *Client) GetRecentItems(ctx context.Context, days, limit int) ([]model.Item, error) {
	cutoff := model.RecentCutoff(c.opts.Now(), days)
	limit = model.ClampLimit(limit, c.opts.DefaultLimit, c.opts.MaxLimit)

	q := url.Values{}
	excludeChildTypes(q)
	q.Set("sort", model.SortDateModified)
	q.Set("direction", "desc")
	q.Set("limit", strconv.Itoa(pageSize))

	// An item is never modified before it is added, so sorting by
	// dateModified lets the scan stop at the first item older than cutoff.
	out := []model.Item{}
	for start := 0; ; {
		q.Set("start", strconv.Itoa(start))
		resp, err := c.get(ctx, "/items/top", q)
		if err != nil {
			return nil, fmt.Errorf("failed to list recent items: %w", err)
		}
		decoded, err := decodeItems(resp.body)
		if err != nil {
			return nil, err
		}

		for _, item := range libraryItems(decoded) {
			if !item.TouchedSince(cutoff) {
				return out, nil
			}
			out = append(out, item)
			if len(out) >= limit {
				return out, nil
			}
		}

		start += len(decoded)
		if len(decoded) == 0 || !resp.hasNext() {
			return out, nil
		}
	}
}

// SearchFullText finds top-level items whose content matches query. Hits on
// attachments, notes and annotations are resolved up to their parent item.
func (c *Client) SearchFullText(ctx context.Context, query string, limit int) ([]model.Item, error) {
	query = strings.TrimSpace(query)
	out := []model.Item{}
	if query == "" {
		return out, nil
	}
	limit = model.ClampLimit(limit, c.opts.DefaultLimit, c.opts.MaxLimit)

	q := url.Values{
		"q":     {query},
		"qmode": {"everything"},
		"limit": {strconv.Itoa(pageSize)},
	}

	seen := make(map[string]bool)
	start := 0
	for page := 0; page < maxSearchPages; page++ {
		q.Set("start", strconv.Itoa(start))
		resp, err := c.get(ctx, "/items", q)
		if err != nil {
			return nil, fmt.Errorf("failed to search full text: %w", err)
		}
		decoded, err := decodeItems(resp.body)
		if err != nil {
			return nil, err
		}

		for _, d := range decoded {
			top, err := c.topLevel(ctx, d)
			if err != nil {
				return nil, err
			}
			if top == nil || seen[top.Key] {
				continue
			}
			seen[top.Key] = true
			out = append(out, *top)
			if len(out) >= limit {
				return out, nil
			}
		}

		start += len(decoded)
		if len(decoded) == 0 || !resp.hasNext() {
			break
		}
	}
	return out, nil
}

// topLevel climbs parentItem links (annotation, attachment, item) and returns
// the live top-level item, or nil.
func (c *Client) topLevel(ctx context.Context, d *decodedItem) (*model.Item, error) {
	for depth := 0; depth < 3 && d != nil && d.item.ParentItem != ""; depth++ {
		parent, err := c.fetchItem(ctx, d.item.ParentItem)
		if err != nil {
			return nil, err
		}
		d = parent
	}
	if d == nil || d.deleted || !model.IsLibraryItemType(d.item.ItemType) {
		return nil, nil
	}
	return &d.item, nil
}
