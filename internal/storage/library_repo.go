package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LibraryStore tracks how far each library has been indexed.
type LibraryStore interface {
	// GetOrCreate returns the library for scope, creating it at version 0.
	GetOrCreate(ctx context.Context, scope string) (*Library, error)
	// SetLastVersion records the highest item version indexed so far.
	SetLastVersion(ctx context.Context, id, version int) error
}

// LibraryRepo provides methods for library operations.
// It implements the LibraryStore interface.
type LibraryRepo struct {
	db *sql.DB
}

// NewLibraryRepo creates a new LibraryRepo.
func NewLibraryRepo(db *sql.DB) *LibraryRepo {
	return &LibraryRepo{db: db}
}

// GetOrCreate gets an existing library by scope, or creates it if it doesn't exist.
func (r *LibraryRepo) GetOrCreate(ctx context.Context, scope string) (*Library, error) {
	lib, err := r.getByScope(ctx, scope)
	if err == nil {
		return lib, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO libraries (scope) VALUES (?) ON CONFLICT (scope) DO NOTHING",
		scope,
	); err != nil {
		return nil, fmt.Errorf("failed to create library: %w", err)
	}

	return r.getByScope(ctx, scope)
}

func (r *LibraryRepo) getByScope(ctx context.Context, scope string) (*Library, error) {
	var lib Library
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, scope, last_version, created_at, updated_at FROM libraries WHERE scope = ?",
		scope,
	).Scan(&lib.ID, &lib.Scope, &lib.LastVersion, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query library: %w", err)
	}

	if lib.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	if lib.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}
	return &lib, nil
}

// SetLastVersion records the highest item version indexed so far.
func (r *LibraryRepo) SetLastVersion(ctx context.Context, id, version int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE libraries SET last_version = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		version, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update library version: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAll returns all libraries ordered by scope.
func (r *LibraryRepo) ListAll(ctx context.Context) ([]Library, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, scope, last_version, created_at, updated_at FROM libraries ORDER BY scope",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query libraries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var libs []Library
	for rows.Next() {
		var lib Library
		var createdAt, updatedAt string
		if err := rows.Scan(&lib.ID, &lib.Scope, &lib.LastVersion, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan library: %w", err)
		}
		if lib.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}
		if lib.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
		}
		libs = append(libs, lib)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return libs, nil
}
