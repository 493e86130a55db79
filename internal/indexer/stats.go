package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
)

const (
	// ChunkerVersion is the version identifier for the chunker implementation.
	// Update this when chunking logic changes significantly.
	ChunkerVersion = "v2.0"
	// TokensPerRune is an approximation for token counting (4 chars per token).
	TokensPerRune = 4.0
)

// CoverageStats describes the state of a library's semantic index.
type CoverageStats struct {
	// Library is the scope of the indexed library.
	Library string `json:"library"`
	// LastVersion is the library version the index is current with.
	LastVersion int `json:"last_version"`
	// ItemsIndexed is the number of items with an index record.
	ItemsIndexed int `json:"items_indexed"`
	// ItemsWith0Chunks is the number of indexed items that produced no text.
	ItemsWith0Chunks int `json:"items_with_0_chunks"`
	// ChunksEmbedded is the number of chunks stored.
	ChunksEmbedded int `json:"chunks_embedded"`
	// ChunkTokenStats contains statistics about token counts per chunk.
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	ChunkerVersion  string          `json:"chunker_version"`
	// IndexVersion is a hash identifying the index build (chunker + embedding model + params).
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// Status computes coverage statistics for the pipeline's library.
func (p *Pipeline) Status(ctx context.Context) (*CoverageStats, error) {
	lib, err := p.libraries.GetOrCreate(ctx, p.opts.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load library state: %w", err)
	}

	stats := &CoverageStats{
		Library:        lib.Scope,
		LastVersion:    lib.LastVersion,
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   p.indexVersion(),
	}

	if stats.ItemsIndexed, err = p.items.Count(ctx, lib.ID); err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}
	if stats.ItemsWith0Chunks, err = p.items.CountWithoutChunks(ctx, lib.ID); err != nil {
		return nil, fmt.Errorf("failed to count items with 0 chunks: %w", err)
	}

	lengths, err := p.chunks.Lengths(ctx, lib.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk lengths: %w", err)
	}
	stats.ChunksEmbedded = len(lengths)

	tokenCounts := make([]int, 0, len(lengths))
	for _, runeCount := range lengths {
		// Estimate tokens from rune count (approximation: ~4 chars per token)
		tokenCounts = append(tokenCounts, max(1, int(math.Round(float64(runeCount)/TokensPerRune))))
	}
	stats.ChunkTokenStats = computeTokenStats(tokenCounts)

	return stats, nil
}

// indexVersion hashes the chunker version, embedding model and chunking params.
func (p *Pipeline) indexVersion() string {
	input := fmt.Sprintf("%s|%s|minChunkSize=%d|maxChunkSize=%d|overlap=%d|fulltext=%t",
		ChunkerVersion, p.opts.EmbeddingModel, p.chunker.MinRunes, p.chunker.MaxRunes, p.chunker.Overlap, p.opts.IncludeFullText)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16] // 16 hex chars = 64 bits
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range tokenCounts {
		sum += count
	}
	mean := float64(sum) / float64(len(tokenCounts))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
