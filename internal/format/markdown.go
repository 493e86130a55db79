// Package format renders library data as Markdown for agents and as HTML
// for browsers.
package format

import (
	"fmt"
	"sort"
	"strings"

	"zotero-bridge/internal/model"
)

// maxAbstract is how much of an abstract a search summary shows, in runes.
const maxAbstract = 300

// Item renders every detail of a single item, including children when loaded.
func Item(item *model.Item) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", titleOf(*item))
	fmt.Fprintf(&b, "- **Key:** `%s`\n", item.Key)
	fmt.Fprintf(&b, "- **Type:** %s\n", item.ItemType)
	if len(item.Creators) > 0 {
		fmt.Fprintf(&b, "- **Creators:** %s\n", creators(item.Creators, true))
	}
	if item.Date != "" {
		fmt.Fprintf(&b, "- **Date:** %s\n", item.Date)
	}
	fmt.Fprintf(&b, "- **Citation key:** `%s`\n", model.CitationKey(*item))
	if item.DOI != "" {
		fmt.Fprintf(&b, "- **DOI:** %s\n", item.DOI)
	}
	if item.URL != "" {
		fmt.Fprintf(&b, "- **URL:** %s\n", item.URL)
	}
	if len(item.Tags) > 0 {
		fmt.Fprintf(&b, "- **Tags:** %s\n", tagList(item.Tags))
	}
	if len(item.Collections) > 0 {
		fmt.Fprintf(&b, "- **Collections:** %s\n", codeList(item.Collections))
	}
	if item.ParentItem != "" {
		fmt.Fprintf(&b, "- **Parent:** `%s`\n", item.ParentItem)
	}
	if item.DateAdded != "" {
		fmt.Fprintf(&b, "- **Added:** %s\n", item.DateAdded)
	}
	if item.DateModified != "" {
		fmt.Fprintf(&b, "- **Modified:** %s\n", item.DateModified)
	}

	if len(item.Fields) > 0 {
		b.WriteString("\n## Fields\n\n")
		names := make([]string, 0, len(item.Fields))
		for name := range item.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "- **%s:** %s\n", name, item.Fields[name])
		}
	}

	if item.AbstractNote != "" {
		fmt.Fprintf(&b, "\n## Abstract\n\n%s\n", item.AbstractNote)
	}

	if related := item.Relations[model.RelationPredicate]; len(related) > 0 {
		b.WriteString("\n## Related\n\n")
		for _, uri := range related {
			fmt.Fprintf(&b, "- %s\n", uri)
		}
	}

	if len(item.Attachments) > 0 {
		b.WriteString("\n" + section("Attachments", Attachments(item.Attachments)))
	}
	if len(item.Notes) > 0 {
		b.WriteString("\n" + section("Notes", Notes(item.Notes)))
	}
	if len(item.Annotations) > 0 {
		b.WriteString("\n" + section("Annotations", Annotations(item.Annotations)))
	}

	return b.String()
}

// section re-levels a rendered list under a second-level heading.
func section(title, body string) string {
	return "## " + title + "\n\n" + strings.ReplaceAll("\n"+body, "\n### ", "\n#### ")[1:]
}

// Summary renders one item as a numbered search hit.
func Summary(n int, item model.Item) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d. **%s** (`%s`)\n", n, titleOf(item), item.Key)
	meta := []string{item.ItemType}
	if len(item.Creators) > 0 {
		meta = append(meta, creators(item.Creators, false))
	}
	if year := model.Year(item.Date); year != "" {
		meta = append(meta, year)
	}
	fmt.Fprintf(&b, "   %s\n", strings.Join(meta, " · "))
	if len(item.Tags) > 0 {
		fmt.Fprintf(&b, "   Tags: %s\n", tagList(item.Tags))
	}
	if item.AbstractNote != "" {
		fmt.Fprintf(&b, "   %s\n", model.TruncateRunes(strings.Join(strings.Fields(item.AbstractNote), " "), maxAbstract))
	}

	return b.String()
}

// SearchResult renders one page of results with paging hints.
func SearchResult(r *model.SearchResult) string {
	if len(r.Items) == 0 {
		return "No items found.\n"
	}

	var b strings.Builder
	first := r.NextStart - len(r.Items)
	fmt.Fprintf(&b, "Found %d items (showing %d-%d).\n\n", r.TotalResults, first+1, r.NextStart)
	for i, item := range r.Items {
		b.WriteString(Summary(first+i+1, item))
	}
	if r.HasMore {
		fmt.Fprintf(&b, "\nMore results available: use start=%d.\n", r.NextStart)
	}
	return b.String()
}

// Items renders a plain list of items under a heading.
func Items(heading string, items []model.Item) string {
	if len(items) == 0 {
		return "No items found.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s (%d)\n\n", heading, len(items))
	for i, item := range items {
		b.WriteString(Summary(i+1, item))
	}
	return b.String()
}

// Collections renders the collection tree, children indented under parents.
// Collections whose parent is missing are shown at the top level.
func Collections(cols []model.Collection) string {
	if len(cols) == 0 {
		return "No collections found.\n"
	}

	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[c.Key] = true
	}
	children := make(map[string][]model.Collection)
	var roots []model.Collection
	for _, c := range cols {
		if c.ParentCollection == "" || !known[c.ParentCollection] {
			roots = append(roots, c)
			continue
		}
		children[c.ParentCollection] = append(children[c.ParentCollection], c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Collections (%d)\n\n", len(cols))

	type frame struct {
		col   model.Collection
		depth int
	}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{col: roots[i]})
	}
	seen := make(map[string]bool, len(cols))
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[f.col.Key] {
			continue
		}
		seen[f.col.Key] = true

		fmt.Fprintf(&b, "%s- %s (`%s`, %d items)\n", strings.Repeat("  ", f.depth), f.col.Name, f.col.Key, f.col.NumItems)
		kids := children[f.col.Key]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{col: kids[i], depth: f.depth + 1})
		}
	}
	return b.String()
}

// Collection renders a single collection.
func Collection(c *model.Collection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", c.Name)
	fmt.Fprintf(&b, "- **Key:** `%s`\n", c.Key)
	if c.ParentCollection != "" {
		fmt.Fprintf(&b, "- **Parent:** `%s`\n", c.ParentCollection)
	}
	fmt.Fprintf(&b, "- **Items:** %d\n", c.NumItems)
	return b.String()
}

// Tags renders tags with their usage counts.
func Tags(tags []model.TagCount) string {
	if len(tags) == 0 {
		return "No tags found.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Tags (%d)\n\n", len(tags))
	for _, t := range tags {
		fmt.Fprintf(&b, "- %s (%d)\n", t.Tag, t.Count)
	}
	return b.String()
}

// Notes renders notes as plain text.
func Notes(notes []model.Note) string {
	if len(notes) == 0 {
		return "No notes found.\n"
	}

	var b strings.Builder
	for i, n := range notes {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "### Note `%s`\n\n%s\n", n.Key, noteText(n))
	}
	return b.String()
}

func noteText(n model.Note) string {
	if n.Text != "" {
		return n.Text
	}
	return model.HTMLToText(n.Note)
}

// Attachments renders attachment metadata.
func Attachments(atts []model.Attachment) string {
	if len(atts) == 0 {
		return "No attachments found.\n"
	}

	var b strings.Builder
	for _, a := range atts {
		title := a.Title
		if title == "" {
			title = a.Filename
		}
		if title == "" {
			title = "Untitled attachment"
		}
		fmt.Fprintf(&b, "- **%s** (`%s`) %s", title, a.Key, a.LinkMode)
		if a.ContentType != "" {
			fmt.Fprintf(&b, ", %s", a.ContentType)
		}
		b.WriteString("\n")
		if a.Path != "" {
			fmt.Fprintf(&b, "  Path: %s\n", a.Path)
		}
		if a.URL != "" {
			fmt.Fprintf(&b, "  URL: %s\n", a.URL)
		}
	}
	return b.String()
}

// Annotations renders PDF annotations in reading order.
func Annotations(anns []model.Annotation) string {
	if len(anns) == 0 {
		return "No annotations found.\n"
	}

	var b strings.Builder
	for _, a := range anns {
		fmt.Fprintf(&b, "- **%s**", a.AnnotationType)
		if a.PageLabel != "" {
			fmt.Fprintf(&b, " (p. %s)", a.PageLabel)
		}
		if a.Text != "" {
			fmt.Fprintf(&b, ": %q", a.Text)
		}
		b.WriteString("\n")
		if a.Comment != "" {
			fmt.Fprintf(&b, "  Comment: %s\n", a.Comment)
		}
	}
	return b.String()
}

// Stats renders a library summary.
func Stats(s *model.LibraryStats) string {
	var b strings.Builder

	b.WriteString("## Library statistics\n\n")
	fmt.Fprintf(&b, "- **Items:** %d\n", s.TotalItems)
	fmt.Fprintf(&b, "- **Collections:** %d\n", s.TotalCollections)
	fmt.Fprintf(&b, "- **Tags:** %d\n", s.TotalTags)
	fmt.Fprintf(&b, "- **Attachments:** %d\n", s.TotalAttachments)
	fmt.Fprintf(&b, "- **Added in the last 24 hours:** %d\n", s.RecentlyAdded)
	fmt.Fprintf(&b, "- **Modified in the last 7 days:** %d\n", s.RecentlyModified)

	if len(s.ItemsByType) > 0 {
		b.WriteString("\n### Items by type\n\n")
		types := make([]string, 0, len(s.ItemsByType))
		for t := range s.ItemsByType {
			types = append(types, t)
		}
		sort.Slice(types, func(i, j int) bool {
			a, c := s.ItemsByType[types[i]], s.ItemsByType[types[j]]
			if a != c {
				return a > c
			}
			return types[i] < types[j]
		})
		for _, t := range types {
			fmt.Fprintf(&b, "- %s: %d\n", t, s.ItemsByType[t])
		}
	}
	return b.String()
}

// FullText renders the extracted text of an item.
func FullText(key, text string) string {
	if text == "" {
		return fmt.Sprintf("No full text available for `%s`.\n", key)
	}
	return fmt.Sprintf("## Full text of `%s`\n\n%s\n", key, text)
}

// Document renders an item as a Markdown document for indexing: metadata,
// abstract, notes, annotations and full text each under their own heading.
func Document(item *model.Item, fullText string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", titleOf(*item))
	if len(item.Creators) > 0 {
		fmt.Fprintf(&b, "%s\n\n", creators(item.Creators, false))
	}
	if item.Date != "" {
		fmt.Fprintf(&b, "%s\n\n", item.Date)
	}
	if len(item.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n\n", tagList(item.Tags))
	}
	if item.AbstractNote != "" {
		fmt.Fprintf(&b, "## Abstract\n\n%s\n\n", item.AbstractNote)
	}
	if len(item.Notes) > 0 {
		b.WriteString("## Notes\n\n")
		for _, n := range item.Notes {
			if text := noteText(n); text != "" {
				fmt.Fprintf(&b, "%s\n\n", text)
			}
		}
	}
	if len(item.Annotations) > 0 {
		b.WriteString("## Annotations\n\n")
		for _, a := range item.Annotations {
			if a.Text != "" {
				fmt.Fprintf(&b, "%s\n\n", a.Text)
			}
			if a.Comment != "" {
				fmt.Fprintf(&b, "%s\n\n", a.Comment)
			}
		}
	}
	if fullText != "" {
		fmt.Fprintf(&b, "## Full text\n\n%s\n", fullText)
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func titleOf(item model.Item) string {
	if t := strings.TrimSpace(item.Title); t != "" {
		return t
	}
	return "Untitled"
}

// creators joins display names. The short form keeps the first three.
func creators(cs []model.Creator, full bool) string {
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		name := model.CreatorDisplayName(c)
		if full && c.CreatorType != "" && c.CreatorType != "author" {
			name += " (" + c.CreatorType + ")"
		}
		names = append(names, name)
	}
	if !full && len(names) > 3 {
		return strings.Join(names[:3], "; ") + " et al."
	}
	return strings.Join(names, "; ")
}

func tagList(tags []model.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Tag
	}
	return strings.Join(names, ", ")
}

func codeList(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = "`" + k + "`"
	}
	return strings.Join(quoted, ", ")
}
