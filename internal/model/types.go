package model

import "strings"

// Item types known to Zotero. Items of the three child types are never
// returned as top-level library items.
const (
	ItemTypeAttachment = "attachment"
	ItemTypeNote       = "note"
	ItemTypeAnnotation = "annotation"
)

// ItemTypes enumerates every item type.
var ItemTypes = []string{
	"annotation", "artwork", "attachment", "audioRecording", "bill", "blogPost",
	"book", "bookSection", "case", "computerProgram", "conferencePaper",
	"dataset", "dictionaryEntry", "document", "email", "encyclopediaArticle",
	"film", "forumPost", "hearing", "instantMessage", "interview",
	"journalArticle", "letter", "magazineArticle", "manuscript", "map",
	"newspaperArticle", "note", "patent", "podcast", "preprint",
	"presentation", "radioBroadcast", "report", "standard", "statute",
	"thesis", "tvBroadcast", "videoRecording", "webpage",
}

// ExcludedItemTypes are the child types that never appear as search results.
var ExcludedItemTypes = []string{ItemTypeAttachment, ItemTypeNote, ItemTypeAnnotation}

// IsLibraryItemType reports whether items of type t are top-level library items.
func IsLibraryItemType(t string) bool {
	switch t {
	case ItemTypeAttachment, ItemTypeNote, ItemTypeAnnotation:
		return false
	}
	return true
}

// LibraryItemTypes drops child types and blanks from a requested type list.
func LibraryItemTypes(types []string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" || !IsLibraryItemType(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SplitList splits a comma-separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Creator roles.
var CreatorTypes = []string{
	"artist", "attorneyAgent", "author", "bookAuthor", "cartographer",
	"castMember", "commenter", "composer", "contributor", "cosponsor",
	"counsel", "director", "editor", "guest", "interviewee", "interviewer",
	"inventor", "performer", "podcaster", "presenter", "producer",
	"programmer", "recipient", "reviewedAuthor", "scriptwriter",
	"seriesEditor", "sponsor", "translator", "wordsBy",
}

// Attachment link modes, indexed by their numeric code in the local store.
const (
	LinkModeImportedFile  = "imported_file"
	LinkModeImportedURL   = "imported_url"
	LinkModeLinkedFile    = "linked_file"
	LinkModeLinkedURL     = "linked_url"
	LinkModeEmbeddedImage = "embedded_image"
)

var linkModes = []string{
	LinkModeImportedFile,
	LinkModeImportedURL,
	LinkModeLinkedFile,
	LinkModeLinkedURL,
	LinkModeEmbeddedImage,
}

// LinkModeName maps a numeric link mode to its name.
func LinkModeName(code int) string {
	if code < 0 || code >= len(linkModes) {
		return "unknown"
	}
	return linkModes[code]
}

// Annotation types, indexed by their numeric code (starting at 1) in the local store.
var annotationTypes = []string{"", "highlight", "note", "image", "ink", "underline", "text"}

// AnnotationTypeName maps a numeric annotation type to its name.
func AnnotationTypeName(code int) string {
	if code <= 0 || code >= len(annotationTypes) {
		return "unknown"
	}
	return annotationTypes[code]
}

// ContentTypePDF is the MIME type of PDF attachments.
const ContentTypePDF = "application/pdf"

// Sort keys accepted by SearchItems.
const (
	SortDateModified = "dateModified"
	SortDateAdded    = "dateAdded"
	SortTitle        = "title"
	SortCreator      = "creator"
	SortItemType     = "itemType"
	SortDate         = "date"
)

// NormalizeSort returns a valid sort key and direction, defaulting to dateModified desc.
func NormalizeSort(sort, direction string) (string, string) {
	switch sort {
	case SortDateModified, SortDateAdded, SortTitle, SortCreator, SortItemType, SortDate:
	default:
		sort = SortDateModified
	}
	direction = strings.ToLower(direction)
	if direction != "asc" {
		direction = "desc"
	}
	return sort, direction
}

// DefaultBibliographyStyle is used when no style is requested.
const DefaultBibliographyStyle = "apa"

// ClampLimit applies the default for non-positive limits and caps at max.
func ClampLimit(limit, defaultLimit, max int) int {
	if limit <= 0 {
		limit = defaultLimit
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit
}
