package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"zotero-bridge/internal/model"
)

// apiObject is the envelope the API wraps items and collections in.
type apiObject struct {
	Key     string          `json:"key"`
	Version int             `json:"version"`
	Meta    apiMeta         `json:"meta"`
	Data    json.RawMessage `json:"data"`
}

type apiMeta struct {
	NumItems       int `json:"numItems"`
	NumCollections int `json:"numCollections"`
	NumChildren    int `json:"numChildren"`
	Type           int `json:"type"` // tags only
}

// itemData holds the structured parts of an item's data object.
// Every other string member is a descriptive field.
type itemData struct {
	ItemType     string                     `json:"itemType"`
	Creators     []model.Creator            `json:"creators"`
	Tags         []model.Tag                `json:"tags"`
	Collections  []string                   `json:"collections"`
	Relations    map[string]json.RawMessage `json:"relations"`
	ParentItem   string                     `json:"parentItem"`
	DateAdded    string                     `json:"dateAdded"`
	DateModified string                     `json:"dateModified"`
	Deleted      json.RawMessage            `json:"deleted"`

	LinkMode    string `json:"linkMode"`
	ContentType string `json:"contentType"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Note        string `json:"note"`

	AnnotationType      string `json:"annotationType"`
	AnnotationText      string `json:"annotationText"`
	AnnotationComment   string `json:"annotationComment"`
	AnnotationColor     string `json:"annotationColor"`
	AnnotationPageLabel string `json:"annotationPageLabel"`
	AnnotationSortIndex string `json:"annotationSortIndex"`
	AnnotationPosition  string `json:"annotationPosition"`
}

// structuredKeys are data members that are not descriptive fields.
var structuredKeys = map[string]bool{
	"key": true, "version": true, "itemType": true, "creators": true, "tags": true,
	"collections": true, "relations": true, "parentItem": true, "dateAdded": true,
	"dateModified": true, "deleted": true, "inPublications": true,
}

// trashed reports whether a "deleted" member marks the object as in the trash.
func trashed(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "false", "0":
		return false
	}
	return true
}

// decodedItem is an item plus the raw data needed to classify children.
type decodedItem struct {
	item    model.Item
	data    itemData
	deleted bool
}

func decodeItem(obj apiObject) (*decodedItem, error) {
	var data itemData
	if err := json.Unmarshal(obj.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode item %s: %w", obj.Key, err)
	}
	var raw map[string]any
	if err := json.Unmarshal(obj.Data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode item %s: %w", obj.Key, err)
	}

	item := model.Item{
		Key:          obj.Key,
		Version:      obj.Version,
		ItemType:     data.ItemType,
		Creators:     data.Creators,
		Tags:         data.Tags,
		Collections:  data.Collections,
		ParentItem:   data.ParentItem,
		DateAdded:    data.DateAdded,
		DateModified: data.DateModified,
	}

	for name, value := range raw {
		if structuredKeys[name] {
			continue
		}
		if s, ok := value.(string); ok && s != "" {
			item.SetField(name, s)
		}
	}

	for predicate, value := range data.Relations {
		var objects []string
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			objects = []string{single}
		} else if err := json.Unmarshal(value, &objects); err != nil {
			continue
		}
		if item.Relations == nil {
			item.Relations = make(map[string][]string)
		}
		item.Relations[predicate] = objects
	}

	return &decodedItem{item: item, data: data, deleted: trashed(data.Deleted)}, nil
}

func decodeItems(body []byte) ([]*decodedItem, error) {
	var objs []apiObject
	if err := json.Unmarshal(body, &objs); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	out := make([]*decodedItem, 0, len(objs))
	for _, obj := range objs {
		d, err := decodeItem(obj)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (d *decodedItem) attachment() model.Attachment {
	return model.Attachment{
		Key:         d.item.Key,
		ParentItem:  d.data.ParentItem,
		Title:       d.data.Title,
		ContentType: d.data.ContentType,
		LinkMode:    d.data.LinkMode,
		Filename:    d.data.Filename,
		URL:         d.data.URL,
	}
}

func (d *decodedItem) note() model.Note {
	return model.Note{
		Key:        d.item.Key,
		ParentItem: d.data.ParentItem,
		Note:       d.data.Note,
		Text:       model.HTMLToText(d.data.Note),
	}
}

func (d *decodedItem) annotation() model.Annotation {
	return model.Annotation{
		Key:            d.item.Key,
		ParentItem:     d.data.ParentItem,
		AnnotationType: d.data.AnnotationType,
		Text:           d.data.AnnotationText,
		Comment:        d.data.AnnotationComment,
		Color:          d.data.AnnotationColor,
		PageLabel:      d.data.AnnotationPageLabel,
		Position:       d.data.AnnotationPosition,
		SortIndex:      d.data.AnnotationSortIndex,
		DateAdded:      d.data.DateAdded,
	}
}

type collectionData struct {
	Name             string          `json:"name"`
	ParentCollection json.RawMessage `json:"parentCollection"`
	Deleted          json.RawMessage `json:"deleted"`
}

func decodeCollection(obj apiObject) (*model.Collection, bool, error) {
	var data collectionData
	if err := json.Unmarshal(obj.Data, &data); err != nil {
		return nil, false, fmt.Errorf("failed to decode collection %s: %w", obj.Key, err)
	}
	var parent string
	// parentCollection is false for top-level collections.
	_ = json.Unmarshal(data.ParentCollection, &parent)

	return &model.Collection{
		Key:              obj.Key,
		Version:          obj.Version,
		Name:             data.Name,
		ParentCollection: parent,
		NumItems:         obj.Meta.NumItems,
	}, trashed(data.Deleted), nil
}

type apiTag struct {
	Tag  string  `json:"tag"`
	Meta apiMeta `json:"meta"`
}

// getAll follows pagination until the API stops advertising a next page.
func getAll[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("limit", strconv.Itoa(pageSize))

	var out []T
	start := 0
	for {
		q.Set("start", strconv.Itoa(start))
		resp, err := c.get(ctx, path, q)
		if err != nil {
			return nil, err
		}

		var page []T
		if err := json.Unmarshal(resp.body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		out = append(out, page...)
		start += len(page)

		if len(page) == 0 || !resp.hasNext() {
			return out, nil
		}
	}
}
