package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"zotero-bridge/internal/model"
)

// fullTextCacheFile is where Zotero keeps the indexed text of an attachment.
const fullTextCacheFile = ".zotero-ft-cache"

// GetItemFullText returns the text of the item's PDF attachments, joined and
// truncated. Attachment keys return their own text. Missing text is not an error.
func (s *Store) GetItemFullText(ctx context.Context, key string) (string, error) {
	row, err := s.lookupItem(ctx, key)
	if err != nil || row == nil {
		return "", err
	}

	var sources []attachmentRow
	if s.itemTypes[row.typeID] == model.ItemTypeAttachment {
		var a attachmentRow
		a.id = row.id
		a.Key = row.key
		var linkMode int
		var path string
		err := s.db.QueryRowContext(ctx,
			"SELECT COALESCE(linkMode, 0), COALESCE(contentType, ''), COALESCE(path, '') FROM itemAttachments WHERE itemID = ?",
			row.id,
		).Scan(&linkMode, &a.ContentType, &path)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("failed to load attachment %s: %w", key, err)
		}
		a.LinkMode = model.LinkModeName(linkMode)
		a.Filename, a.Path = s.resolvePath(a.Key, path)
		sources = append(sources, a)
	} else {
		if sources, err = s.attachmentRows(ctx, row.id); err != nil {
			return "", err
		}
	}

	var parts []string
	for _, a := range sources {
		if !a.IsPDF() {
			continue
		}
		if text := s.attachmentText(ctx, a); text != "" {
			parts = append(parts, text)
		}
	}

	return model.TruncateRunes(strings.Join(parts, model.FullTextSeparator), s.opts.MaxFullTextLength), nil
}

// attachmentText returns indexed text when Zotero has it, else tries extraction.
// Failures degrade to "".
func (s *Store) attachmentText(ctx context.Context, a attachmentRow) string {
	if s.hasFulltextIndex {
		var n int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fulltextItems WHERE itemID = ?", a.id).Scan(&n)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to check full-text index", "attachment", a.Key, "error", err)
		} else if n > 0 {
			raw, err := os.ReadFile(filepath.Join(s.opts.DataDir, "storage", a.Key, fullTextCacheFile))
			if err == nil {
				if text := strings.TrimSpace(string(raw)); text != "" {
					return text
				}
			} else {
				s.logger.DebugContext(ctx, "indexed text missing on disk", "attachment", a.Key, "error", err)
			}
		}
	}

	if s.opts.Extractor == nil || a.Path == "" {
		return ""
	}
	text, ok := s.opts.Extractor.Extract(a.Path)
	if !ok {
		s.logger.WarnContext(ctx, "pdf text extraction failed", "attachment", a.Key, "path", a.Path)
		return ""
	}
	return text
}

// searchWords lowercases the query and strips surrounding punctuation from each word.
func searchWords(query string) []string {
	var words []string
	seen := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	return words
}

// SearchFullText finds top-level items whose attachment text, notes or
// annotations contain every word of query.
func (s *Store) SearchFullText(ctx context.Context, query string, limit int) ([]model.Item, error) {
	words := searchWords(query)
	if len(words) == 0 {
		return []model.Item{}, nil
	}
	limit = s.clampLimit(limit)

	hits, err := s.indexedMatches(ctx, words)
	if err != nil {
		return nil, err
	}
	contentHits, err := s.contentMatches(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	hits = append(hits, contentHits...)

	parents, err := s.topLevel(ctx, hits)
	if err != nil {
		return nil, err
	}

	if len(parents) == 0 && s.opts.Extractor != nil {
		s.logger.DebugContext(ctx, "full-text index had no matches, scanning attachments", "query", query)
		if parents, err = s.scanAttachments(ctx, words, limit); err != nil {
			return nil, err
		}
	}

	return s.loadByIDs(ctx, parents, limit)
}

// indexedMatches returns attachments whose indexed words include all of words.
func (s *Store) indexedMatches(ctx context.Context, words []string) ([]int64, error) {
	if !s.hasFulltextWords {
		return nil, nil
	}

	args := make([]any, 0, len(words)+1)
	for _, w := range words {
		args = append(args, w)
	}
	args = append(args, len(words))

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT fiw.itemID
		FROM fulltextItemWords fiw
		JOIN fulltextWords w ON w.wordID = fiw.wordID
		WHERE w.word IN (%s)
		GROUP BY fiw.itemID
		HAVING COUNT(DISTINCT w.word) = ?`, placeholders(len(words))), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query full-text index: %w", err)
	}
	return scanIDs(rows)
}

// contentMatches returns annotations and notes whose text contains the phrase.
func (s *Store) contentMatches(ctx context.Context, phrase string) ([]int64, error) {
	pattern := escapeLike(phrase)
	rows, err := s.db.QueryContext(ctx, `
		SELECT itemID FROM itemAnnotations
		WHERE text LIKE ? ESCAPE '\' OR comment LIKE ? ESCAPE '\'
		UNION
		SELECT itemID FROM itemNotes
		WHERE note LIKE ? ESCAPE '\'`, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search annotations and notes: %w", err)
	}
	return scanIDs(rows)
}

// topLevel resolves each hit to its top-level ancestor (annotation, then
// attachment, then item) and returns distinct ids in first-seen order.
func (s *Store) topLevel(ctx context.Context, ids []int64) ([]int64, error) {
	var out []int64
	seen := make(map[int64]bool)
	for _, id := range ids {
		// Annotation -> attachment -> item is the deepest chain.
		for depth := 0; depth < 3; depth++ {
			parent, ok, err := s.parentOf(ctx, id)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			id = parent
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// scanAttachments extracts text from the newest PDFs until limit parents match
// or the scan budget is spent.
func (s *Store) scanAttachments(ctx context.Context, words []string, limit int) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.itemID, i.key, a.parentItemID, COALESCE(a.path, '')
		FROM itemAttachments a
		JOIN items i ON i.itemID = a.itemID
		WHERE i.libraryID = ? AND a.contentType = ? AND a.parentItemID IS NOT NULL AND `+notDeleted("i")+`
		ORDER BY i.dateModified DESC
		LIMIT ?`, s.libraryID, model.ContentTypePDF, s.opts.MaxExtractionScan)
	if err != nil {
		return nil, fmt.Errorf("failed to list pdf attachments: %w", err)
	}

	type candidate struct {
		row    attachmentRow
		parent int64
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		var path string
		if err := rows.Scan(&c.row.id, &c.row.Key, &c.parent, &path); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		c.row.ContentType = model.ContentTypePDF
		c.row.Filename, c.row.Path = s.resolvePath(c.row.Key, path)
		candidates = append(candidates, c)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attachments: %w", err)
	}

	var out []int64
	seen := make(map[int64]bool)
	for _, c := range candidates {
		if len(out) >= limit {
			break
		}
		if seen[c.parent] {
			continue
		}
		text := strings.ToLower(s.attachmentText(ctx, c.row))
		if text == "" {
			continue
		}
		if containsAll(text, words) {
			seen[c.parent] = true
			out = append(out, c.parent)
		}
	}
	return out, nil
}

func containsAll(text string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

// loadByIDs hydrates the live library items among ids, newest first.
func (s *Store) loadByIDs(ctx context.Context, ids []int64, limit int) ([]model.Item, error) {
	if len(ids) == 0 {
		return []model.Item{}, nil
	}

	live, args := s.libraryItemFilter("i")
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items i WHERE "+live+
			fmt.Sprintf(" AND i.itemID IN (%s)", placeholders(len(ids)))+
			" ORDER BY i.dateModified DESC, i.itemID DESC LIMIT ?",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	found, err := scanItemRows(rows)
	if err != nil {
		return nil, err
	}
	return s.hydrateAll(ctx, found)
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ids: %w", err)
	}
	return ids, nil
}
