package local

import (
	"context"
	"fmt"
	"time"

	"zotero-bridge/internal/model"
)

// GetLibraryStats summarizes the library. Recently added covers the last
// 24 hours and recently modified the last 7 days.
func (s *Store) GetLibraryStats(ctx context.Context) (*model.LibraryStats, error) {
	stats := &model.LibraryStats{ItemsByType: make(map[string]int)}
	live, liveArgs := s.libraryItemFilter("i")

	rows, err := s.db.QueryContext(ctx,
		"SELECT i.itemTypeID, COUNT(*) FROM items i WHERE "+live+" GROUP BY i.itemTypeID", liveArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to count items by type: %w", err)
	}
	for rows.Next() {
		var typeID int64
		var n int
		if err := rows.Scan(&typeID, &n); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		stats.ItemsByType[s.itemTypes[typeID]] += n
		stats.TotalItems += n
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate type counts: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM collections c WHERE c.libraryID = ? AND "+collectionNotDeleted("c"), s.libraryID,
	).Scan(&stats.TotalCollections); err != nil {
		return nil, fmt.Errorf("failed to count collections: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT t.name)
		FROM tags t
		JOIN itemTags it ON it.tagID = t.tagID
		JOIN items i ON i.itemID = it.itemID
		WHERE `+live, liveArgs...,
	).Scan(&stats.TotalTags); err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", err)
	}

	if id, ok := s.itemTypeIDs[model.ItemTypeAttachment]; ok {
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM items i WHERE i.libraryID = ? AND i.itemTypeID = ? AND "+notDeleted("i"),
			s.libraryID, id,
		).Scan(&stats.TotalAttachments); err != nil {
			return nil, fmt.Errorf("failed to count attachments: %w", err)
		}
	}

	now := s.opts.Now()
	added := storeTime(now.Add(-24 * time.Hour))
	modified := storeTime(now.Add(-7 * 24 * time.Hour))
	args := append(append([]any{}, liveArgs...), added)
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM items i WHERE "+live+" AND i.dateAdded >= ?", args...,
	).Scan(&stats.RecentlyAdded); err != nil {
		return nil, fmt.Errorf("failed to count recently added items: %w", err)
	}
	args = append(append([]any{}, liveArgs...), modified)
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM items i WHERE "+live+" AND i.dateModified >= ?", args...,
	).Scan(&stats.RecentlyModified); err != nil {
		return nil, fmt.Errorf("failed to count recently modified items: %w", err)
	}

	return stats, nil
}
