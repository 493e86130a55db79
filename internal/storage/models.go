package storage

import "time"

// Library is one Zotero library being indexed, identified by its scope
// (for example "users/12345" or "local/1").
type Library struct {
	ID          int
	Scope       string
	LastVersion int // Highest item version fully indexed
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemRecord remembers what was last indexed for an item.
type ItemRecord struct {
	LibraryID int
	Key       string
	Version   int
	Title     string
	Hash      string // SHA256 hex string of the indexed document
	IndexedAt time.Time
}

// ChunkRecord is one embedded piece of an item's document.
type ChunkRecord struct {
	ID          string // UUID (same as Qdrant point ID)
	LibraryID   int
	ItemKey     string
	ChunkIndex  int    // Index within the item (starts at 0)
	HeadingPath string // Format: "# Title > ## Abstract"
	Text        string
}
