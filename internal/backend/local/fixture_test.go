package local

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"zotero-bridge/internal/model"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fixedNow is the clock used by every fixture store.
var fixedNow = time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC)

// schema is the subset of the Zotero schema the store reads.
const schema = `
CREATE TABLE fields (fieldID INTEGER PRIMARY KEY, fieldName TEXT);
CREATE TABLE itemTypes (itemTypeID INTEGER PRIMARY KEY, typeName TEXT);
CREATE TABLE creatorTypes (creatorTypeID INTEGER PRIMARY KEY, creatorType TEXT);
CREATE TABLE libraries (libraryID INTEGER PRIMARY KEY, type TEXT);
CREATE TABLE groups (groupID INTEGER PRIMARY KEY, libraryID INTEGER, name TEXT);
CREATE TABLE items (itemID INTEGER PRIMARY KEY, itemTypeID INT, dateAdded TEXT, dateModified TEXT,
	clientDateModified TEXT, libraryID INT, key TEXT, version INT DEFAULT 0, synced INT DEFAULT 0);
CREATE TABLE itemDataValues (valueID INTEGER PRIMARY KEY, value TEXT);
CREATE TABLE itemData (itemID INT, fieldID INT, valueID INT, PRIMARY KEY (itemID, fieldID));
CREATE TABLE creators (creatorID INTEGER PRIMARY KEY, firstName TEXT, lastName TEXT, fieldMode INT);
CREATE TABLE itemCreators (itemID INT, creatorID INT, creatorTypeID INT, orderIndex INT);
CREATE TABLE tags (tagID INTEGER PRIMARY KEY, name TEXT UNIQUE);
CREATE TABLE itemTags (itemID INT, tagID INT, type INT);
CREATE TABLE collections (collectionID INTEGER PRIMARY KEY, collectionName TEXT, parentCollectionID INT,
	clientDateModified TEXT, libraryID INT, key TEXT, version INT DEFAULT 0, synced INT DEFAULT 0);
CREATE TABLE collectionItems (collectionID INT, itemID INT, orderIndex INT DEFAULT 0);
CREATE TABLE deletedItems (itemID INTEGER PRIMARY KEY, dateDeleted TEXT);
CREATE TABLE deletedCollections (collectionID INTEGER PRIMARY KEY, dateDeleted TEXT);
CREATE TABLE itemAttachments (itemID INTEGER PRIMARY KEY, parentItemID INT, linkMode INT,
	contentType TEXT, charsetID INT, path TEXT, syncState INT DEFAULT 0);
CREATE TABLE itemNotes (itemID INTEGER PRIMARY KEY, parentItemID INT, note TEXT, title TEXT);
CREATE TABLE itemAnnotations (itemID INTEGER PRIMARY KEY, parentItemID INT, type INT, authorName TEXT,
	text TEXT, comment TEXT, color TEXT, pageLabel TEXT, sortIndex TEXT, position TEXT, isExternal INT DEFAULT 0);
CREATE TABLE relationPredicates (predicateID INTEGER PRIMARY KEY, predicate TEXT UNIQUE);
CREATE TABLE itemRelations (itemID INT, predicateID INT, object TEXT);
CREATE TABLE fulltextItems (itemID INTEGER PRIMARY KEY, indexedPages INT, totalPages INT, version INT DEFAULT 0);
CREATE TABLE fulltextWords (wordID INTEGER PRIMARY KEY, word TEXT UNIQUE);
CREATE TABLE fulltextItemWords (wordID INT, itemID INT);

INSERT INTO fields VALUES (1, 'title'), (2, 'abstractNote'), (3, 'date'), (4, 'url'), (5, 'DOI'),
	(6, 'publicationTitle'), (7, 'extra');
INSERT INTO itemTypes VALUES (1, 'annotation'), (2, 'attachment'), (3, 'book'), (4, 'journalArticle'),
	(5, 'note'), (6, 'thesis');
INSERT INTO creatorTypes VALUES (1, 'author'), (2, 'editor');
INSERT INTO libraries VALUES (1, 'user'), (2, 'group');
INSERT INTO groups VALUES (4711, 2, 'Lab');
INSERT INTO relationPredicates VALUES (1, 'dc:relation'), (2, 'owl:sameAs');
`

var fieldIDs = map[string]int{"title": 1, "abstractNote": 2, "date": 3, "url": 4, "DOI": 5, "publicationTitle": 6, "extra": 7}

var typeIDs = map[string]int{"annotation": 1, "attachment": 2, "book": 3, "journalArticle": 4, "note": 5, "thesis": 6}

// fixture builds a Zotero data directory for one test.
type fixture struct {
	t   *testing.T
	dir string
	db  *sql.DB

	nextID int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	db, err := sql.Open("sqlite3", filepath.Join(dir, DatabaseFile))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(schema)
	require.NoError(t, err)

	return &fixture{t: t, dir: dir, db: db, nextID: 1}
}

func (f *fixture) exec(query string, args ...any) {
	f.t.Helper()
	_, err := f.db.Exec(query, args...)
	require.NoError(f.t, err)
}

// item describes one row in items plus its fields.
type item struct {
	key      string
	typ      string
	library  int
	version  int
	added    string
	modified string
	fields   map[string]string
}

func (f *fixture) addItem(it item) int64 {
	f.t.Helper()

	id := f.nextID
	f.nextID++
	if it.library == 0 {
		it.library = 1
	}
	if it.added == "" {
		it.added = "2024-01-01 10:00:00"
	}
	if it.modified == "" {
		it.modified = it.added
	}
	f.exec("INSERT INTO items (itemID, itemTypeID, dateAdded, dateModified, libraryID, key, version) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, typeIDs[it.typ], it.added, it.modified, it.library, it.key, it.version)
	for name, value := range it.fields {
		f.exec("INSERT INTO itemDataValues (value) VALUES (?)", value)
		f.exec("INSERT INTO itemData (itemID, fieldID, valueID) VALUES (?, ?, (SELECT MAX(valueID) FROM itemDataValues))",
			id, fieldIDs[name])
	}
	return id
}

func (f *fixture) addCreator(itemID int64, first, last string, fieldMode, creatorType, order int) {
	f.t.Helper()
	f.exec("INSERT INTO creators (firstName, lastName, fieldMode) VALUES (?, ?, ?)", first, last, fieldMode)
	f.exec("INSERT INTO itemCreators VALUES (?, (SELECT MAX(creatorID) FROM creators), ?, ?)", itemID, creatorType, order)
}

func (f *fixture) tag(itemID int64, name string) {
	f.t.Helper()
	f.exec("INSERT OR IGNORE INTO tags (name) VALUES (?)", name)
	f.exec("INSERT INTO itemTags VALUES (?, (SELECT tagID FROM tags WHERE name = ?), 0)", itemID, name)
}

func (f *fixture) addCollection(id int64, key, name string, parent int64) {
	f.t.Helper()
	var p any
	if parent != 0 {
		p = parent
	}
	f.exec("INSERT INTO collections (collectionID, collectionName, parentCollectionID, libraryID, key, version) VALUES (?, ?, ?, 1, ?, 1)",
		id, name, p, key)
}

func (f *fixture) file(collectionID, itemID int64) {
	f.t.Helper()
	f.exec("INSERT INTO collectionItems (collectionID, itemID) VALUES (?, ?)", collectionID, itemID)
}

func (f *fixture) trash(itemID int64) {
	f.t.Helper()
	f.exec("INSERT INTO deletedItems (itemID, dateDeleted) VALUES (?, '2024-01-02 00:00:00')", itemID)
}

func (f *fixture) addAttachment(parentID int64, key, contentType, storedPath string) int64 {
	f.t.Helper()
	id := f.addItem(item{key: key, typ: "attachment", fields: map[string]string{"title": "Full Text PDF"}})
	f.exec("INSERT INTO itemAttachments (itemID, parentItemID, linkMode, contentType, path) VALUES (?, ?, 0, ?, ?)",
		id, parentID, contentType, storedPath)
	return id
}

func (f *fixture) addAnnotation(attachmentID int64, key string, typ int, text, comment string) int64 {
	f.t.Helper()
	id := f.addItem(item{key: key, typ: "annotation"})
	f.exec("INSERT INTO itemAnnotations (itemID, parentItemID, type, text, comment, color, pageLabel, sortIndex, position) VALUES (?, ?, ?, ?, ?, '#ffd400', '3', '00003|000100|00200', '{}')",
		id, attachmentID, typ, text, comment)
	return id
}

func (f *fixture) addNote(parentID int64, key, html string) int64 {
	f.t.Helper()
	id := f.addItem(item{key: key, typ: "note"})
	var p any
	if parentID != 0 {
		p = parentID
	}
	f.exec("INSERT INTO itemNotes (itemID, parentItemID, note, title) VALUES (?, ?, ?, '')", id, p, html)
	return id
}

// writeStorage writes a file into the attachment's storage folder.
func (f *fixture) writeStorage(key, name, content string) string {
	f.t.Helper()
	dir := filepath.Join(f.dir, "storage", key)
	require.NoError(f.t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *fixture) open(opts Options) *Store {
	f.t.Helper()

	opts.DataDir = f.dir
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	s, err := Open(context.Background(), opts)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { _ = s.Close() })
	return s
}

func itemKeys(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Key)
	}
	return out
}
