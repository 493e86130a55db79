package model

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CreatorDisplayName renders a creator as "Last, First", or the single
// name for single-field creators.
func CreatorDisplayName(c Creator) string {
	if c.Name != "" {
		return c.Name
	}
	first := strings.TrimSpace(c.FirstName)
	last := strings.TrimSpace(c.LastName)
	switch {
	case first != "" && last != "":
		return last + ", " + first
	case last != "":
		return last
	default:
		return first
	}
}

// CreatorSurname returns the part of a creator's name used for sorting and citation keys.
func CreatorSurname(c Creator) string {
	if c.LastName != "" {
		return c.LastName
	}
	if parts := strings.Fields(c.Name); len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return c.FirstName
}

var (
	yearPattern = regexp.MustCompile(`\b(\d{4})\b`)
	keyPattern  = regexp.MustCompile(`^[A-Z0-9]{8}$`)
)

var citationStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "for": {}, "in": {}, "of": {}, "on": {},
	"the": {}, "to": {}, "with": {}, "from": {}, "at": {}, "by": {},
}

// CitationKey derives a BibTeX-style key: first creator surname, year,
// first significant title word, e.g. "smith2021deep".
func CitationKey(item Item) string {
	author := "item"
	if len(item.Creators) > 0 {
		if s := lettersOnly(CreatorSurname(item.Creators[0])); s != "" {
			author = s
		}
	}

	year := Year(item.Date)
	if year == "" {
		year = "nd"
	}

	word := ""
	for _, w := range strings.Fields(item.Title) {
		w = lettersOnly(w)
		if w == "" {
			continue
		}
		if _, stop := citationStopwords[w]; stop {
			continue
		}
		word = w
		break
	}

	return author + year + word
}

// Year returns the first four-digit year in a free-form date, or "".
func Year(date string) string {
	if m := yearPattern.FindStringSubmatch(date); m != nil {
		return m[1]
	}
	return ""
}

func lettersOnly(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidKey reports whether s looks like a Zotero object key.
func IsValidKey(s string) bool {
	return keyPattern.MatchString(s)
}

// KeyFromURI extracts the trailing object key from a Zotero URI such as
// "http://zotero.org/users/123/items/ABCD2345". ok is false for malformed URIs.
func KeyFromURI(uri string) (string, bool) {
	uri = strings.TrimRight(strings.TrimSpace(uri), "/")
	idx := strings.LastIndex(uri, "/")
	if idx < 0 || idx == len(uri)-1 {
		return "", false
	}
	key := uri[idx+1:]
	if !IsValidKey(key) {
		return "", false
	}
	return key, true
}

var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Blockquote: true,
	atom.Pre: true, atom.Ul: true, atom.Ol: true, atom.Table: true,
	atom.Tr: true, atom.Section: true, atom.Article: true, atom.Hr: true,
}

// HTMLToText converts note or bibliography HTML to plain text.
func HTMLToText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return collapseWhitespace(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := atom.Lookup(name)
			switch {
			case tag == atom.Script || tag == atom.Style:
				if tt == html.StartTagToken {
					skip++
				}
			case tag == atom.Br:
				b.WriteByte('\n')
			case tag == atom.Li:
				b.WriteString("\n- ")
			case tag == atom.Td || tag == atom.Th:
				b.WriteByte(' ')
			case blockTags[tag]:
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := atom.Lookup(name)
			if (tag == atom.Script || tag == atom.Style) && skip > 0 {
				skip--
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
		}
	}
}

// collapseWhitespace squeezes runs of spaces within lines and drops blank line runs.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// TruncateRunes cuts s to at most max runes. max <= 0 disables truncation.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// ParseTime parses the timestamp formats used by the local store and the Web API.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TouchedSince reports whether the item was added or modified at or after cutoff.
func (i *Item) TouchedSince(cutoff time.Time) bool {
	for _, s := range []string{i.DateAdded, i.DateModified} {
		if t, ok := ParseTime(s); ok && !t.Before(cutoff) {
			return true
		}
	}
	return false
}

// HasAllTags reports whether the item carries every tag in tags.
func (i *Item) HasAllTags(tags []string) bool {
	have := make(map[string]struct{}, len(i.Tags))
	for _, t := range i.Tags {
		have[t.Tag] = struct{}{}
	}
	for _, t := range tags {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}

// RecentCutoff returns the start of a trailing window of days ending at now.
// A window of 0 days covers everything since the start of the current UTC day.
func RecentCutoff(now time.Time, days int) time.Time {
	now = now.UTC()
	if days <= 0 {
		return now.Truncate(24 * time.Hour)
	}
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}
