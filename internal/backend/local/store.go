package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"zotero-bridge/internal/model"
)

// DatabaseFile is the name of the Zotero database inside the data directory.
const DatabaseFile = "zotero.sqlite"

// ErrStoreUnavailable is returned when the database cannot be opened or read.
// The most common cause is Zotero running and holding its exclusive lock.
var ErrStoreUnavailable = errors.New("zotero database unavailable")

// TextExtractor pulls text out of a PDF on disk. It must never fail loudly.
type TextExtractor interface {
	Extract(path string) (string, bool)
}

// Options configures a Store.
type Options struct {
	DataDir           string
	GroupID           string // Empty selects the personal library
	DefaultLimit      int
	MaxLimit          int
	MaxFullTextLength int
	// Extractor is used when no indexed text exists. Nil disables extraction.
	Extractor TextExtractor
	// MaxExtractionScan bounds how many PDFs a full-text search may extract
	// when the word index has nothing.
	MaxExtractionScan int
	// Immutable opens the file without taking SQLite locks, for reading
	// while Zotero itself is running.
	Immutable bool
	Now       func() time.Time
}

// Store is the local backend. It reads zotero.sqlite read-only.
type Store struct {
	db        *sql.DB
	opts      Options
	libraryID int64

	// Lookup tables loaded once at Open and never modified afterwards.
	fields       map[int64]string
	itemTypes    map[int64]string
	itemTypeIDs  map[string]int64
	creatorTypes map[int64]string

	excludedTypeIDs []any
	searchFieldIDs  []any

	hasFulltextIndex bool
	hasFulltextWords bool

	logger *slog.Logger
}

// Open opens the database read-only and loads the lookup tables.
// It fails when the file is missing or cannot be read.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 25
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 100
	}
	if opts.MaxExtractionScan <= 0 {
		opts.MaxExtractionScan = 50
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	path := filepath.Join(opts.DataDir, DatabaseFile)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s not found (check ZOTERO_DATA_DIR): %v", ErrStoreUnavailable, path, err)
	}

	db, err := openReadOnly(path, opts.Immutable)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s := &Store{
		db:     db,
		opts:   opts,
		logger: slog.Default(),
	}

	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v (if Zotero is running it may hold a lock on %s)", ErrStoreUnavailable, err, path)
	}

	s.logger.InfoContext(ctx, "local zotero database opened",
		"path", path,
		"library_id", s.libraryID,
		"fields", len(s.fields),
		"item_types", len(s.itemTypes),
		"fulltext_index", s.hasFulltextIndex,
	)
	return s, nil
}

// openReadOnly opens a SQLite database that refuses writes.
func openReadOnly(path string, immutable bool) (*sql.DB, error) {
	dsn := "file:" + (&url.URL{Path: filepath.ToSlash(path)}).EscapedPath() + "?mode=ro&_query_only=true"
	if immutable {
		dsn += "&immutable=1"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func (s *Store) init(ctx context.Context) error {
	var err error
	if s.fields, err = s.loadLookup(ctx, "SELECT fieldID, fieldName FROM fields"); err != nil {
		return fmt.Errorf("failed to load fields: %w", err)
	}
	for id, name := range s.fields {
		s.fields[id] = model.CanonicalField(name)
	}
	if s.itemTypes, err = s.loadLookup(ctx, "SELECT itemTypeID, typeName FROM itemTypes"); err != nil {
		return fmt.Errorf("failed to load item types: %w", err)
	}
	if s.creatorTypes, err = s.loadLookup(ctx, "SELECT creatorTypeID, creatorType FROM creatorTypes"); err != nil {
		return fmt.Errorf("failed to load creator types: %w", err)
	}

	s.itemTypeIDs = make(map[string]int64, len(s.itemTypes))
	for id, name := range s.itemTypes {
		s.itemTypeIDs[name] = id
	}
	for _, name := range model.ExcludedItemTypes {
		if id, ok := s.itemTypeIDs[name]; ok {
			s.excludedTypeIDs = append(s.excludedTypeIDs, id)
		}
	}
	for id, name := range s.fields {
		switch name {
		case "title", "abstractNote", "caseName", "nameOfAct", "subject":
			s.searchFieldIDs = append(s.searchFieldIDs, id)
		}
	}

	if s.libraryID, err = s.resolveLibrary(ctx); err != nil {
		return err
	}

	if s.hasFulltextIndex, err = s.hasTable(ctx, "fulltextItems"); err != nil {
		return err
	}
	hasWords, err := s.hasTable(ctx, "fulltextWords")
	if err != nil {
		return err
	}
	hasItemWords, err := s.hasTable(ctx, "fulltextItemWords")
	if err != nil {
		return err
	}
	s.hasFulltextWords = hasWords && hasItemWords

	return nil
}

func (s *Store) loadLookup(ctx context.Context, query string) (map[int64]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lookup := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		lookup[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lookup, nil
}

func (s *Store) resolveLibrary(ctx context.Context) (int64, error) {
	var id int64
	var err error
	if s.opts.GroupID == "" {
		err = s.db.QueryRowContext(ctx,
			"SELECT libraryID FROM libraries WHERE type = 'user' ORDER BY libraryID LIMIT 1",
		).Scan(&id)
	} else {
		err = s.db.QueryRowContext(ctx,
			"SELECT libraryID FROM groups WHERE groupID = ?", s.opts.GroupID,
		).Scan(&id)
	}
	if err == sql.ErrNoRows {
		if s.opts.GroupID != "" {
			return 0, fmt.Errorf("group %s not found in local database", s.opts.GroupID)
		}
		return 0, fmt.Errorf("no user library found in local database")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve library: %w", err)
	}
	return id, nil
}

func (s *Store) hasTable(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to inspect schema: %w", err)
	}
	return count > 0, nil
}

// Ping checks that the database is still readable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle and its file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// clampLimit applies the configured default and ceiling.
func (s *Store) clampLimit(limit int) int {
	return model.ClampLimit(limit, s.opts.DefaultLimit, s.opts.MaxLimit)
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, '?')
	}
	return string(b)
}

// toRFC3339 converts the store's "YYYY-MM-DD HH:MM:SS" UTC timestamps to the
// format the Web API uses.
func toRFC3339(s string) string {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return s
	}
	return t.UTC().Format(time.RFC3339)
}

// storeTime formats t the way the store writes timestamps.
func storeTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
