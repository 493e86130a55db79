package indexer

import (
	"context"
	"strings"
	"testing"

	"zotero-bridge/internal/storage"
)

func TestPipeline_Status(t *testing.T) {
	f := newFixture(t, Options{EmbeddingModel: "nomic-embed-text"})
	ctx := context.Background()

	if err := f.libraries.SetLastVersion(ctx, f.libID, 42); err != nil {
		t.Fatalf("SetLastVersion() error = %v", err)
	}
	for _, key := range []string{"AAAAAAAA", "BBBBBBBB"} {
		if err := f.items.Upsert(ctx, &storage.ItemRecord{LibraryID: f.libID, Key: key, Version: 1, Hash: "h"}); err != nil {
			t.Fatalf("items.Upsert() error = %v", err)
		}
	}
	for i, text := range []string{strings.Repeat("a", 40), strings.Repeat("b", 400)} {
		if err := f.chunks.Insert(ctx, &storage.ChunkRecord{
			ID: f.pipeline.pointID("AAAAAAAA", i), LibraryID: f.libID, ItemKey: "AAAAAAAA", ChunkIndex: i, Text: text,
		}); err != nil {
			t.Fatalf("chunks.Insert() error = %v", err)
		}
	}

	stats, err := f.pipeline.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}

	if stats.Library != testScope || stats.LastVersion != 42 {
		t.Errorf("library = %q at %d", stats.Library, stats.LastVersion)
	}
	if stats.ItemsIndexed != 2 {
		t.Errorf("ItemsIndexed = %d, want 2", stats.ItemsIndexed)
	}
	if stats.ItemsWith0Chunks != 1 {
		t.Errorf("ItemsWith0Chunks = %d, want 1", stats.ItemsWith0Chunks)
	}
	if stats.ChunksEmbedded != 2 {
		t.Errorf("ChunksEmbedded = %d, want 2", stats.ChunksEmbedded)
	}
	want := ChunkTokenStats{Min: 10, Max: 100, Mean: 55, P95: 100}
	if stats.ChunkTokenStats != want {
		t.Errorf("ChunkTokenStats = %+v, want %+v", stats.ChunkTokenStats, want)
	}
	if stats.ChunkerVersion != ChunkerVersion {
		t.Errorf("ChunkerVersion = %q", stats.ChunkerVersion)
	}
	if len(stats.IndexVersion) != 16 {
		t.Errorf("IndexVersion = %q, want 16 hex chars", stats.IndexVersion)
	}
}

func TestPipeline_Status_Empty(t *testing.T) {
	f := newFixture(t, Options{})

	stats, err := f.pipeline.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if stats.ItemsIndexed != 0 || stats.ChunksEmbedded != 0 || stats.ChunkTokenStats != (ChunkTokenStats{}) {
		t.Errorf("Status() = %+v, want an empty index", stats)
	}
}

func TestIndexVersion(t *testing.T) {
	a := newFixture(t, Options{EmbeddingModel: "model-a"}).pipeline.indexVersion()
	b := newFixture(t, Options{EmbeddingModel: "model-b"}).pipeline.indexVersion()
	a2 := newFixture(t, Options{EmbeddingModel: "model-a"}).pipeline.indexVersion()

	if a == b {
		t.Error("indexVersion() should change with the embedding model")
	}
	if a != a2 {
		t.Error("indexVersion() should be stable")
	}
}

func TestComputeTokenStats(t *testing.T) {
	tests := []struct {
		name        string
		tokenCounts []int
		want        ChunkTokenStats
	}{
		{
			name:        "empty",
			tokenCounts: []int{},
			want:        ChunkTokenStats{},
		},
		{
			name:        "single value",
			tokenCounts: []int{10},
			want: ChunkTokenStats{
				Min:  10,
				Max:  10,
				Mean: 10.0,
				P95:  10,
			},
		},
		{
			name:        "multiple values",
			tokenCounts: []int{5, 10, 15, 20, 25},
			want: ChunkTokenStats{
				Min:  5,
				Max:  25,
				Mean: 15.0,
				P95:  25, // 95th percentile of 5 values = index 4 (0-indexed) = 25
			},
		},
		{
			name:        "unsorted values",
			tokenCounts: []int{30, 5, 20, 10, 15},
			want: ChunkTokenStats{
				Min:  5,
				Max:  30,
				Mean: 16.0, // (30+5+20+10+15)/5 = 16
				P95:  30,
			},
		},
		{
			name:        "many values for p95",
			tokenCounts: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20},
			want: ChunkTokenStats{
				Min:  1,
				Max:  20,
				Mean: 10.5,
				P95:  20, // 95th percentile of 20 values = index 19 = 20
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeTokenStats(tt.tokenCounts)
			if got.Min != tt.want.Min {
				t.Errorf("Min = %d, want %d", got.Min, tt.want.Min)
			}
			if got.Max != tt.want.Max {
				t.Errorf("Max = %d, want %d", got.Max, tt.want.Max)
			}
			if got.Mean != tt.want.Mean {
				t.Errorf("Mean = %f, want %f", got.Mean, tt.want.Mean)
			}
			if got.P95 != tt.want.P95 {
				t.Errorf("P95 = %d, want %d", got.P95, tt.want.P95)
			}
		})
	}
}
