package storage

import (
	"context"
	"errors"
	"testing"
)

func TestLibraryRepo(t *testing.T) {
	db := newTestDB(t)
	repo := NewLibraryRepo(db)
	ctx := context.Background()

	lib, err := repo.GetOrCreate(ctx, "users/12345")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if lib.ID == 0 || lib.Scope != "users/12345" || lib.LastVersion != 0 {
		t.Errorf("GetOrCreate() = %+v", lib)
	}
	if lib.CreatedAt.IsZero() {
		t.Error("GetOrCreate() CreatedAt is zero")
	}

	again, err := repo.GetOrCreate(ctx, "users/12345")
	if err != nil {
		t.Fatalf("GetOrCreate() second call error = %v", err)
	}
	if again.ID != lib.ID {
		t.Errorf("GetOrCreate() ID = %d, want %d", again.ID, lib.ID)
	}

	if err := repo.SetLastVersion(ctx, lib.ID, 42); err != nil {
		t.Fatalf("SetLastVersion() error = %v", err)
	}
	updated, err := repo.GetOrCreate(ctx, "users/12345")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if updated.LastVersion != 42 {
		t.Errorf("LastVersion = %d, want 42", updated.LastVersion)
	}

	if err := repo.SetLastVersion(ctx, 9999, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetLastVersion() unknown id error = %v, want ErrNotFound", err)
	}

	if _, err := repo.GetOrCreate(ctx, "groups/7"); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	libs, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(libs) != 2 || libs[0].Scope != "groups/7" || libs[1].Scope != "users/12345" {
		t.Errorf("ListAll() = %+v", libs)
	}
}

func TestItemRepo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	lib, err := NewLibraryRepo(db).GetOrCreate(ctx, "local/1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	repo := NewItemRepo(db)

	if _, err := repo.Get(ctx, lib.ID, "ABC12345"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() missing error = %v, want ErrNotFound", err)
	}

	tests := []struct {
		name    string
		record  *ItemRecord
		want    ItemRecord
		wantErr bool
	}{
		{
			name:   "insert",
			record: &ItemRecord{LibraryID: lib.ID, Key: "ABC12345", Version: 3, Title: "First", Hash: "h1"},
			want:   ItemRecord{LibraryID: lib.ID, Key: "ABC12345", Version: 3, Title: "First", Hash: "h1"},
		},
		{
			name:   "update keeps key",
			record: &ItemRecord{LibraryID: lib.ID, Key: "ABC12345", Version: 5, Title: "Second", Hash: "h2"},
			want:   ItemRecord{LibraryID: lib.ID, Key: "ABC12345", Version: 5, Title: "Second", Hash: "h2"},
		},
		{
			name:    "unknown library",
			record:  &ItemRecord{LibraryID: 9999, Key: "ABC12345", Version: 1, Hash: "h"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Upsert(ctx, tt.record)
			if tt.wantErr {
				if err == nil {
					t.Error("Upsert() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}

			got, err := repo.Get(ctx, tt.record.LibraryID, tt.record.Key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Version != tt.want.Version || got.Title != tt.want.Title || got.Hash != tt.want.Hash {
				t.Errorf("Get() = %+v, want %+v", got, tt.want)
			}
			if got.IndexedAt.IsZero() {
				t.Error("Get() IndexedAt is zero")
			}
		})
	}

	n, err := repo.Count(ctx, lib.ID)
	if err != nil || n != 1 {
		t.Errorf("Count() = %d, %v, want 1", n, err)
	}
}

func TestChunkRepo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	lib, err := NewLibraryRepo(db).GetOrCreate(ctx, "local/1")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	items := NewItemRepo(db)
	for _, key := range []string{"ITEM0001", "ITEM0002"} {
		if err := items.Upsert(ctx, &ItemRecord{LibraryID: lib.ID, Key: key, Version: 1, Hash: key}); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	repo := NewChunkRepo(db)
	chunks := []*ChunkRecord{
		{ID: "c-2", LibraryID: lib.ID, ItemKey: "ITEM0001", ChunkIndex: 1, HeadingPath: "# T > ## Abstract", Text: "second"},
		{ID: "c-1", LibraryID: lib.ID, ItemKey: "ITEM0001", ChunkIndex: 0, HeadingPath: "# T", Text: "first"},
		{ID: "c-3", LibraryID: lib.ID, ItemKey: "ITEM0002", ChunkIndex: 0, Text: "naïve"},
	}
	for _, c := range chunks {
		if err := repo.Insert(ctx, c); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	// Chunks must belong to an indexed item.
	if err := repo.Insert(ctx, &ChunkRecord{ID: "c-x", LibraryID: lib.ID, ItemKey: "NOPE0000", Text: "x"}); err == nil {
		t.Error("Insert() for an unindexed item expected error, got nil")
	}

	ids, err := repo.ListIDsByItem(ctx, lib.ID, "ITEM0001")
	if err != nil {
		t.Fatalf("ListIDsByItem() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "c-1" || ids[1] != "c-2" {
		t.Errorf("ListIDsByItem() = %v, want [c-1 c-2]", ids)
	}

	got, err := repo.GetByID(ctx, "c-2")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.ItemKey != "ITEM0001" || got.HeadingPath != "# T > ## Abstract" || got.Text != "second" {
		t.Errorf("GetByID() = %+v", got)
	}
	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() missing error = %v, want ErrNotFound", err)
	}

	lengths, err := repo.Lengths(ctx, lib.ID)
	if err != nil {
		t.Fatalf("Lengths() error = %v", err)
	}
	total := 0
	for _, n := range lengths {
		total += n
	}
	// Rune lengths: "second" 6, "first" 5, "naïve" 5.
	if len(lengths) != 3 || total != 16 {
		t.Errorf("Lengths() = %v, want three lengths summing to 16", lengths)
	}

	if err := repo.DeleteByItem(ctx, lib.ID, "ITEM0001"); err != nil {
		t.Fatalf("DeleteByItem() error = %v", err)
	}
	ids, err = repo.ListIDsByItem(ctx, lib.ID, "ITEM0001")
	if err != nil {
		t.Fatalf("ListIDsByItem() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ListIDsByItem() after delete = %v, want empty", ids)
	}

	n, err := items.CountWithoutChunks(ctx, lib.ID)
	if err != nil || n != 1 {
		t.Errorf("CountWithoutChunks() = %d, %v, want 1", n, err)
	}

	// Deleting the item cascades to its chunks.
	if err := items.Delete(ctx, lib.ID, "ITEM0002"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, "c-3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after item delete error = %v, want ErrNotFound", err)
	}
}
