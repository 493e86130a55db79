package indexer

import "zotero-bridge/internal/model"

// Chunk is one embeddable piece of an item document.
type Chunk struct {
	Index       int    // Position within the item, starting at 0
	HeadingPath string // Format: "# Title > ## Abstract"
	Text        string
}

// Hit is one item returned by a semantic search.
type Hit struct {
	Item        model.Item `json:"item"`
	Score       float32    `json:"score"`
	HeadingPath string     `json:"headingPath,omitempty"`
	Snippet     string     `json:"snippet,omitempty"`
}

// UpdateResult summarizes one incremental index run.
type UpdateResult struct {
	SinceVersion int `json:"sinceVersion"`
	Version      int `json:"version"`
	Scanned      int `json:"scanned"`
	Indexed      int `json:"indexed"`
	Unchanged    int `json:"unchanged"`
	Removed      int `json:"removed"`
	Failed       int `json:"failed"`
}
