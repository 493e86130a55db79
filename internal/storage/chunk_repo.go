package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// Insert inserts a single chunk into the database.
	// The chunk.ID must be set (UUID) before calling this method.
	Insert(ctx context.Context, chunk *ChunkRecord) error
	// DeleteByItem deletes all chunks of an item.
	DeleteByItem(ctx context.Context, libraryID int, key string) error
	// ListIDsByItem returns all chunk IDs of an item, ordered by chunk_index.
	ListIDsByItem(ctx context.Context, libraryID int, key string) ([]string, error)
	// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*ChunkRecord, error)
	// Lengths returns the rune length of every chunk in a library.
	Lengths(ctx context.Context, libraryID int) ([]int, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Insert inserts a single chunk into the database.
// The chunk.ID must be set (UUID) before calling this method.
func (r *ChunkRepo) Insert(ctx context.Context, chunk *ChunkRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO chunks (id, library_id, item_key, chunk_index, heading_path, text) VALUES (?, ?, ?, ?, ?, ?)",
		chunk.ID, chunk.LibraryID, chunk.ItemKey, chunk.ChunkIndex, chunk.HeadingPath, chunk.Text,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

// DeleteByItem deletes all chunks of an item.
// Used when re-indexing an item to remove old chunks before inserting new ones.
func (r *ChunkRepo) DeleteByItem(ctx context.Context, libraryID int, key string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE library_id = ? AND item_key = ?",
		libraryID, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete chunks by item: %w", err)
	}
	return nil
}

// ListIDsByItem returns all chunk IDs of an item, ordered by chunk_index.
// Returns an empty slice if no chunks exist (not an error).
func (r *ChunkRepo) ListIDsByItem(ctx context.Context, libraryID int, key string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM chunks WHERE library_id = ? AND item_key = ? ORDER BY chunk_index",
		libraryID, key,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chunk ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
func (r *ChunkRepo) GetByID(ctx context.Context, id string) (*ChunkRecord, error) {
	var chunk ChunkRecord
	var headingPath sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT id, library_id, item_key, chunk_index, heading_path, text FROM chunks WHERE id = ?",
		id,
	).Scan(&chunk.ID, &chunk.LibraryID, &chunk.ItemKey, &chunk.ChunkIndex, &headingPath, &chunk.Text)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk: %w", err)
	}

	chunk.HeadingPath = headingPath.String
	return &chunk, nil
}

// Lengths returns the rune length of every chunk in a library.
func (r *ChunkRepo) Lengths(ctx context.Context, libraryID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT length(text) FROM chunks WHERE library_id = ?",
		libraryID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk lengths: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var lengths []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan chunk length: %w", err)
		}
		lengths = append(lengths, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return lengths, nil
}
