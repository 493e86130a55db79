package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// ItemStore defines the storage operations for indexed items.
type ItemStore interface {
	// Get returns the record for an item. Returns nil and ErrNotFound if not found.
	Get(ctx context.Context, libraryID int, key string) (*ItemRecord, error)
	// Upsert inserts a new record or updates an existing one.
	Upsert(ctx context.Context, item *ItemRecord) error
	// Delete removes an item and, through the foreign key, its chunks.
	Delete(ctx context.Context, libraryID int, key string) error
	// Count returns how many items of the library are indexed.
	Count(ctx context.Context, libraryID int) (int, error)
	// CountWithoutChunks returns how many indexed items produced no chunks.
	CountWithoutChunks(ctx context.Context, libraryID int) (int, error)
}

// ItemRepo provides methods for indexed item operations.
// It implements the ItemStore interface.
type ItemRepo struct {
	db *sql.DB
}

// NewItemRepo creates a new ItemRepo.
func NewItemRepo(db *sql.DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// Get returns the record for an item. Returns nil and ErrNotFound if not found.
func (r *ItemRepo) Get(ctx context.Context, libraryID int, key string) (*ItemRecord, error) {
	var item ItemRecord
	var title sql.NullString
	var indexedAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT library_id, item_key, version, title, hash, indexed_at FROM indexed_items WHERE library_id = ? AND item_key = ?",
		libraryID, key,
	).Scan(&item.LibraryID, &item.Key, &item.Version, &title, &item.Hash, &indexedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query item: %w", err)
	}

	item.Title = title.String
	if item.IndexedAt, err = parseTimestamp(indexedAt); err != nil {
		return nil, fmt.Errorf("failed to parse indexed_at timestamp: %w", err)
	}
	return &item, nil
}

// Upsert inserts a new record or updates version, title and hash of an
// existing one. Existing chunks are left alone.
func (r *ItemRepo) Upsert(ctx context.Context, item *ItemRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO indexed_items (library_id, item_key, version, title, hash, indexed_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (library_id, item_key) DO UPDATE SET
		 version = excluded.version, title = excluded.title, hash = excluded.hash, indexed_at = CURRENT_TIMESTAMP`,
		item.LibraryID, item.Key, item.Version, item.Title, item.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}
	return nil
}

// Delete removes an item and its chunks. Deleting a missing item is not an error.
func (r *ItemRepo) Delete(ctx context.Context, libraryID int, key string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM indexed_items WHERE library_id = ? AND item_key = ?",
		libraryID, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// Count returns how many items of the library are indexed.
func (r *ItemRepo) Count(ctx context.Context, libraryID int) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM indexed_items WHERE library_id = ?",
		libraryID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

// CountWithoutChunks returns how many indexed items produced no chunks.
func (r *ItemRepo) CountWithoutChunks(ctx context.Context, libraryID int) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM indexed_items i
		 WHERE i.library_id = ?
		 AND NOT EXISTS (SELECT 1 FROM chunks c WHERE c.library_id = i.library_id AND c.item_key = i.item_key)`,
		libraryID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items without chunks: %w", err)
	}
	return n, nil
}
