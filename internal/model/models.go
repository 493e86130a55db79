package model

// Item is a bibliographic record, or a child object (attachment, note,
// annotation) when ItemType says so.
type Item struct {
	Key          string              `json:"key"`
	Version      int                 `json:"version"`
	ItemType     string              `json:"itemType"`
	Title        string              `json:"title,omitempty"`
	Creators     []Creator           `json:"creators,omitempty"`
	AbstractNote string              `json:"abstractNote,omitempty"`
	Date         string              `json:"date,omitempty"`
	DateAdded    string              `json:"dateAdded,omitempty"`
	DateModified string              `json:"dateModified,omitempty"`
	URL          string              `json:"url,omitempty"`
	DOI          string              `json:"DOI,omitempty"`
	Fields       map[string]string   `json:"fields,omitempty"` // Remaining descriptive fields keyed by canonical name
	Tags         []Tag               `json:"tags,omitempty"`
	Collections  []string            `json:"collections,omitempty"`
	Relations    map[string][]string `json:"relations,omitempty"`
	ParentItem   string              `json:"parentItem,omitempty"`

	// Children are only populated when explicitly requested.
	Attachments []Attachment `json:"attachments,omitempty"`
	Notes       []Note       `json:"notes,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Creator is one entry in an item's ordered creator list.
// Either FirstName/LastName or Name (single-field mode) is set.
type Creator struct {
	CreatorType string `json:"creatorType"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Name        string `json:"name,omitempty"`
}

// Tag is a tag attached to an item. Type 0 is manual, 1 is automatic.
type Tag struct {
	Tag  string `json:"tag"`
	Type int    `json:"type,omitempty"`
}

const (
	TagManual    = 0
	TagAutomatic = 1
)

// Collection is a named folder. ParentCollection is empty for top-level collections.
type Collection struct {
	Key              string `json:"key"`
	Version          int    `json:"version"`
	Name             string `json:"name"`
	ParentCollection string `json:"parentCollection,omitempty"`
	NumItems         int    `json:"numItems"`
}

// Attachment is a file or link owned by a parent item.
type Attachment struct {
	Key         string `json:"key"`
	ParentItem  string `json:"parentItem,omitempty"`
	Title       string `json:"title,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	LinkMode    string `json:"linkMode"`
	Filename    string `json:"filename,omitempty"`
	Path        string `json:"path,omitempty"` // Resolved local path, local mode only
	URL         string `json:"url,omitempty"`
}

// IsPDF reports whether the attachment holds a PDF.
func (a Attachment) IsPDF() bool {
	return a.ContentType == ContentTypePDF
}

// Note is a free-form HTML note.
type Note struct {
	Key        string `json:"key"`
	ParentItem string `json:"parentItem,omitempty"`
	Note       string `json:"note"`
	Text       string `json:"text"`
}

// Annotation is a PDF marking. ParentItem is always an attachment key.
type Annotation struct {
	Key            string `json:"key"`
	ParentItem     string `json:"parentItem"`
	AnnotationType string `json:"annotationType"`
	Text           string `json:"text,omitempty"`
	Comment        string `json:"comment,omitempty"`
	Color          string `json:"color,omitempty"`
	PageLabel      string `json:"pageLabel,omitempty"`
	Position       string `json:"position,omitempty"`
	SortIndex      string `json:"sortIndex,omitempty"`
	DateAdded      string `json:"dateAdded,omitempty"`
}

// SearchFilters narrows a library search. Zero values mean "no filter".
type SearchFilters struct {
	Query         string   `json:"query,omitempty"`
	ItemTypes     []string `json:"itemTypes,omitempty"`
	Tags          []string `json:"tags,omitempty"` // AND semantics
	CollectionKey string   `json:"collectionKey,omitempty"`
	SinceVersion  int      `json:"sinceVersion,omitempty"`
	Start         int      `json:"start,omitempty"`
	Limit         int      `json:"limit,omitempty"`
	Sort          string   `json:"sort,omitempty"`
	Direction     string   `json:"direction,omitempty"`
}

// SearchResult is one page of items.
type SearchResult struct {
	Items        []Item `json:"items"`
	TotalResults int    `json:"totalResults"`
	HasMore      bool   `json:"hasMore"`
	NextStart    int    `json:"nextStart"`
}

// NewSearchResult builds a page and derives NextStart and HasMore from it.
func NewSearchResult(items []Item, start, total int) *SearchResult {
	if items == nil {
		items = []Item{}
	}
	next := start + len(items)
	if total < next {
		total = next
	}
	return &SearchResult{
		Items:        items,
		TotalResults: total,
		HasMore:      next < total,
		NextStart:    next,
	}
}

// TagCount is a tag and the number of live items carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// LibraryStats summarizes a library.
type LibraryStats struct {
	TotalItems       int            `json:"totalItems"`
	TotalCollections int            `json:"totalCollections"`
	TotalTags        int            `json:"totalTags"`
	TotalAttachments int            `json:"totalAttachments"`
	ItemsByType      map[string]int `json:"itemsByType"`
	RecentlyAdded    int            `json:"recentlyAdded"`    // last 24h
	RecentlyModified int            `json:"recentlyModified"` // last 7 days
}

// BibliographyUnavailable is returned by backends without a citation engine.
const BibliographyUnavailable = "Bibliography generation is not available in local mode: the local database has no citation style engine. Switch to remote mode (Zotero Web API) to format bibliographies."

// FullTextSeparator joins text from several attachments.
const FullTextSeparator = "\n\n---\n\n"

// RelationPredicate is the relation linking related items.
const RelationPredicate = "dc:relation"
