package local

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"zotero-bridge/internal/model"
)

// itemRow is the part of an item read from the items table itself.
type itemRow struct {
	id           int64
	key          string
	version      int
	typeID       int64
	dateAdded    string
	dateModified string
}

const itemColumns = "i.itemID, i.key, i.version, i.itemTypeID, i.dateAdded, i.dateModified"

// notDeleted is the anti-join against the trash for an items alias.
func notDeleted(alias string) string {
	return fmt.Sprintf("NOT EXISTS (SELECT 1 FROM deletedItems di WHERE di.itemID = %s.itemID)", alias)
}

// collectionNotDeleted is the anti-join against the trash for a collections alias.
func collectionNotDeleted(alias string) string {
	return fmt.Sprintf("NOT EXISTS (SELECT 1 FROM deletedCollections dc WHERE dc.collectionID = %s.collectionID)", alias)
}

// fieldValue selects the value of a named field for an items alias.
func fieldValue(alias, field string) string {
	return fmt.Sprintf(`(SELECT v.value FROM itemData d
		JOIN itemDataValues v ON v.valueID = d.valueID
		JOIN fields f ON f.fieldID = d.fieldID
		WHERE d.itemID = %s.itemID AND f.fieldName = '%s')`, alias, field)
}

// libraryItemFilter restricts an items alias to live, top-level items of
// the store's library.
func (s *Store) libraryItemFilter(alias string) (string, []any) {
	clauses := []string{alias + ".libraryID = ?", notDeleted(alias)}
	args := []any{s.libraryID}
	if len(s.excludedTypeIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("%s.itemTypeID NOT IN (%s)", alias, placeholders(len(s.excludedTypeIDs))))
		args = append(args, s.excludedTypeIDs...)
	}
	return strings.Join(clauses, " AND "), args
}

func scanItemRows(rows *sql.Rows) ([]itemRow, error) {
	defer rows.Close()

	var out []itemRow
	for rows.Next() {
		var r itemRow
		if err := rows.Scan(&r.id, &r.key, &r.version, &r.typeID, &r.dateAdded, &r.dateModified); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return out, nil
}

// lookupItem finds a live item of any type by key.
func (s *Store) lookupItem(ctx context.Context, key string) (*itemRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items i WHERE i.libraryID = ? AND i.key = ? AND "+notDeleted("i"),
		s.libraryID, key,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to look up item %s: %w", key, err)
	}
	found, err := scanItemRows(rows)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// GetItem returns the live item with the given key, or nil when it does not exist
// or is in the trash.
func (s *Store) GetItem(ctx context.Context, key string, includeChildren bool) (*model.Item, error) {
	row, err := s.lookupItem(ctx, key)
	if err != nil || row == nil {
		return nil, err
	}

	item, err := s.hydrate(ctx, *row)
	if err != nil {
		return nil, err
	}

	if includeChildren {
		if item.Attachments, err = s.attachments(ctx, row.id); err != nil {
			return nil, err
		}
		if item.Notes, err = s.notes(ctx, row.id); err != nil {
			return nil, err
		}
		if item.Annotations, err = s.annotations(ctx, row.id); err != nil {
			return nil, err
		}
	}

	return item, nil
}

// hydrateAll rebuilds every row in order.
func (s *Store) hydrateAll(ctx context.Context, rows []itemRow) ([]model.Item, error) {
	items := make([]model.Item, 0, len(rows))
	for _, r := range rows {
		item, err := s.hydrate(ctx, r)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// hydrate rebuilds a full item from its normalized rows.
func (s *Store) hydrate(ctx context.Context, r itemRow) (*model.Item, error) {
	item := &model.Item{
		Key:          r.key,
		Version:      r.version,
		ItemType:     s.itemTypes[r.typeID],
		DateAdded:    toRFC3339(r.dateAdded),
		DateModified: toRFC3339(r.dateModified),
	}

	if err := s.loadFields(ctx, r.id, item); err != nil {
		return nil, err
	}
	if err := s.loadCreators(ctx, r.id, item); err != nil {
		return nil, err
	}
	if err := s.loadTags(ctx, r.id, item); err != nil {
		return nil, err
	}
	if err := s.loadCollections(ctx, r.id, item); err != nil {
		return nil, err
	}
	if err := s.loadRelations(ctx, r.id, item); err != nil {
		return nil, err
	}

	if !model.IsLibraryItemType(item.ItemType) {
		parent, err := s.parentKey(ctx, r.id)
		if err != nil {
			return nil, err
		}
		item.ParentItem = parent
	}

	return item, nil
}

// The store keeps dates as "YYYY-MM-DD original", with zeros for unknown parts.
var storedDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} `)

func displayDate(v string) string {
	if loc := storedDatePrefix.FindStringIndex(v); loc != nil {
		return v[loc[1]:]
	}
	return v
}

func (s *Store) loadFields(ctx context.Context, itemID int64, item *model.Item) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.fieldID, v.value
		FROM itemData d
		JOIN itemDataValues v ON v.valueID = d.valueID
		WHERE d.itemID = ?`, itemID)
	if err != nil {
		return fmt.Errorf("failed to load fields for %s: %w", item.Key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var fieldID int64
		var value string
		if err := rows.Scan(&fieldID, &value); err != nil {
			return fmt.Errorf("failed to scan field: %w", err)
		}
		name, ok := s.fields[fieldID]
		if !ok {
			continue
		}
		if name == "date" {
			value = displayDate(value)
		}
		item.SetField(name, value)
	}
	return rows.Err()
}

func (s *Store) loadCreators(ctx context.Context, itemID int64, item *model.Item) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(c.firstName, ''), COALESCE(c.lastName, ''), COALESCE(c.fieldMode, 0), ic.creatorTypeID
		FROM itemCreators ic
		JOIN creators c ON c.creatorID = ic.creatorID
		WHERE ic.itemID = ?
		ORDER BY ic.orderIndex`, itemID)
	if err != nil {
		return fmt.Errorf("failed to load creators for %s: %w", item.Key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var first, last string
		var fieldMode int
		var typeID int64
		if err := rows.Scan(&first, &last, &fieldMode, &typeID); err != nil {
			return fmt.Errorf("failed to scan creator: %w", err)
		}
		c := model.Creator{CreatorType: s.creatorTypes[typeID]}
		if fieldMode == 1 {
			c.Name = last
		} else {
			c.FirstName = first
			c.LastName = last
		}
		item.Creators = append(item.Creators, c)
	}
	return rows.Err()
}

func (s *Store) loadTags(ctx context.Context, itemID int64, item *model.Item) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name, COALESCE(it.type, 0)
		FROM itemTags it
		JOIN tags t ON t.tagID = it.tagID
		WHERE it.itemID = ?
		ORDER BY t.name`, itemID)
	if err != nil {
		return fmt.Errorf("failed to load tags for %s: %w", item.Key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.Tag, &tag.Type); err != nil {
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		item.Tags = append(item.Tags, tag)
	}
	return rows.Err()
}

func (s *Store) loadCollections(ctx context.Context, itemID int64, item *model.Item) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.key
		FROM collectionItems ci
		JOIN collections c ON c.collectionID = ci.collectionID
		WHERE ci.itemID = ? AND `+collectionNotDeleted("c")+`
		ORDER BY c.key`, itemID)
	if err != nil {
		return fmt.Errorf("failed to load collections for %s: %w", item.Key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return fmt.Errorf("failed to scan collection key: %w", err)
		}
		item.Collections = append(item.Collections, key)
	}
	return rows.Err()
}

func (s *Store) loadRelations(ctx context.Context, itemID int64, item *model.Item) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.predicate, r.object
		FROM itemRelations r
		JOIN relationPredicates p ON p.predicateID = r.predicateID
		WHERE r.itemID = ?
		ORDER BY p.predicate, r.object`, itemID)
	if err != nil {
		return fmt.Errorf("failed to load relations for %s: %w", item.Key, err)
	}
	defer rows.Close()

	for rows.Next() {
		var predicate, object string
		if err := rows.Scan(&predicate, &object); err != nil {
			return fmt.Errorf("failed to scan relation: %w", err)
		}
		if item.Relations == nil {
			item.Relations = make(map[string][]string)
		}
		item.Relations[predicate] = append(item.Relations[predicate], object)
	}
	return rows.Err()
}

// parentOf returns the direct parent of a child item.
func (s *Store) parentOf(ctx context.Context, itemID int64) (int64, bool, error) {
	var parent sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(
			(SELECT parentItemID FROM itemAnnotations WHERE itemID = ?),
			(SELECT parentItemID FROM itemAttachments WHERE itemID = ?),
			(SELECT parentItemID FROM itemNotes WHERE itemID = ?))`,
		itemID, itemID, itemID,
	).Scan(&parent)
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve parent: %w", err)
	}
	return parent.Int64, parent.Valid, nil
}

func (s *Store) parentKey(ctx context.Context, itemID int64) (string, error) {
	parentID, ok, err := s.parentOf(ctx, itemID)
	if err != nil || !ok {
		return "", err
	}
	var key string
	err = s.db.QueryRowContext(ctx, "SELECT key FROM items WHERE itemID = ?", parentID).Scan(&key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load parent key: %w", err)
	}
	return key, nil
}

// attachmentRow is an attachment plus its row id.
type attachmentRow struct {
	id int64
	model.Attachment
}

func (s *Store) attachmentRows(ctx context.Context, parentID int64) ([]attachmentRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.itemID, i.key, p.key, COALESCE(a.linkMode, 0), COALESCE(a.contentType, ''), COALESCE(a.path, ''),
			COALESCE(`+fieldValue("i", "title")+`, ''),
			COALESCE(`+fieldValue("i", "url")+`, '')
		FROM itemAttachments a
		JOIN items i ON i.itemID = a.itemID
		JOIN items p ON p.itemID = a.parentItemID
		WHERE a.parentItemID = ? AND `+notDeleted("i")+`
		ORDER BY i.dateAdded, i.itemID`, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attachments: %w", err)
	}
	defer rows.Close()

	var out []attachmentRow
	for rows.Next() {
		var a attachmentRow
		var linkMode int
		var path string
		if err := rows.Scan(&a.id, &a.Key, &a.ParentItem, &linkMode, &a.ContentType, &path, &a.Title, &a.URL); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		a.LinkMode = model.LinkModeName(linkMode)
		a.Filename, a.Path = s.resolvePath(a.Key, path)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attachments: %w", err)
	}
	return out, nil
}

func (s *Store) attachments(ctx context.Context, parentID int64) ([]model.Attachment, error) {
	rows, err := s.attachmentRows(ctx, parentID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Attachment, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Attachment)
	}
	return out, nil
}

// resolvePath maps a stored attachment path to a filename and an absolute
// path on disk. "storage:" paths live in the attachment's storage folder.
// Paths relative to the linked-attachment base directory cannot be resolved.
func (s *Store) resolvePath(key, stored string) (filename, path string) {
	switch {
	case stored == "":
		return "", ""
	case strings.HasPrefix(stored, "storage:"):
		name := strings.TrimPrefix(stored, "storage:")
		return name, filepath.Join(s.opts.DataDir, "storage", key, name)
	case strings.HasPrefix(stored, "attachments:"):
		rel := strings.TrimPrefix(stored, "attachments:")
		return filepath.Base(rel), ""
	default:
		return filepath.Base(stored), stored
	}
}

func (s *Store) notes(ctx context.Context, parentID int64) ([]model.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.key, p.key, COALESCE(n.note, '')
		FROM itemNotes n
		JOIN items i ON i.itemID = n.itemID
		JOIN items p ON p.itemID = n.parentItemID
		WHERE n.parentItemID = ? AND `+notDeleted("i")+`
		ORDER BY i.dateAdded, i.itemID`, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}
	defer rows.Close()

	out := []model.Note{}
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.Key, &n.ParentItem, &n.Note); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		n.Text = model.HTMLToText(n.Note)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}
	return out, nil
}

// annotations returns the annotations on the PDF attachments of parentID only.
func (s *Store) annotations(ctx context.Context, parentID int64) ([]model.Annotation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.key, att.key, COALESCE(a.type, 0),
			COALESCE(a.text, ''), COALESCE(a.comment, ''), COALESCE(a.color, ''),
			COALESCE(a.pageLabel, ''), COALESCE(a.position, ''), COALESCE(a.sortIndex, ''),
			i.dateAdded
		FROM itemAnnotations a
		JOIN items i ON i.itemID = a.itemID
		JOIN items att ON att.itemID = a.parentItemID
		JOIN itemAttachments ia ON ia.itemID = a.parentItemID
		WHERE ia.parentItemID = ? AND ia.contentType = ?
			AND `+notDeleted("i")+` AND `+notDeleted("att")+`
		ORDER BY att.key, a.sortIndex, i.itemID`, parentID, model.ContentTypePDF)
	if err != nil {
		return nil, fmt.Errorf("failed to load annotations: %w", err)
	}
	defer rows.Close()

	out := []model.Annotation{}
	for rows.Next() {
		var a model.Annotation
		var typeCode int
		var added string
		if err := rows.Scan(&a.Key, &a.ParentItem, &typeCode, &a.Text, &a.Comment, &a.Color,
			&a.PageLabel, &a.Position, &a.SortIndex, &added); err != nil {
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		a.AnnotationType = model.AnnotationTypeName(typeCode)
		a.DateAdded = toRFC3339(added)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate annotations: %w", err)
	}
	return out, nil
}

// GetItemNotes returns the child notes of an item. Unknown keys yield an empty list.
func (s *Store) GetItemNotes(ctx context.Context, key string) ([]model.Note, error) {
	row, err := s.lookupItem(ctx, key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return []model.Note{}, nil
	}
	return s.notes(ctx, row.id)
}

// GetItemAttachments returns the child attachments of an item.
func (s *Store) GetItemAttachments(ctx context.Context, key string) ([]model.Attachment, error) {
	row, err := s.lookupItem(ctx, key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return []model.Attachment{}, nil
	}
	return s.attachments(ctx, row.id)
}

// GetItemAnnotations returns the annotations made on the item's PDFs.
func (s *Store) GetItemAnnotations(ctx context.Context, key string) ([]model.Annotation, error) {
	row, err := s.lookupItem(ctx, key)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return []model.Annotation{}, nil
	}
	return s.annotations(ctx, row.id)
}

// GetRelatedItems resolves the item's dc:relation links one hop deep.
// Links that do not end in a valid key, or point at missing items, are skipped.
func (s *Store) GetRelatedItems(ctx context.Context, key string) ([]model.Item, error) {
	item, err := s.GetItem(ctx, key, false)
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
			s.logger.WarnContext(ctx, "skipping malformed relation", "item", key, "uri", uri)
			continue
		}
		if seen[relKey] {
			continue
		}
		seen[relKey] = true

		rel, err := s.GetItem(ctx, relKey, false)
		if err != nil {
			return nil, err
		}
		if rel != nil {
			related = append(related, *rel)
		}
	}
	return related, nil
}
