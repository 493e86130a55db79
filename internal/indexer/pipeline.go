package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"zotero-bridge/internal/contextutil"
	"zotero-bridge/internal/format"
	"zotero-bridge/internal/llm"
	"zotero-bridge/internal/model"
	"zotero-bridge/internal/storage"
	"zotero-bridge/internal/vectorstore"
)

const (
	defaultPageSize = 50
	maxSearchK      = 50
	snippetRunes    = 300
)

var (
	// ErrUpdateInProgress is returned when Update is called while another run is active.
	ErrUpdateInProgress = errors.New("index update already in progress")
	// ErrEmptyQuery is returned by Search for a blank query.
	ErrEmptyQuery = errors.New("query is required")
	// ErrStaleItem is returned when a fetched item is older than the version
	// the listing reported, e.g. when reads are served from a cache.
	ErrStaleItem = errors.New("item is older than listed")
)

// pointNamespace seeds the deterministic point IDs.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/zotero-bridge/chunks"))

// Source is the part of a library backend the indexer reads from.
type Source interface {
	SearchItems(ctx context.Context, f model.SearchFilters) (*model.SearchResult, error)
	GetItem(ctx context.Context, key string, includeChildren bool) (*model.Item, error)
	GetItemFullText(ctx context.Context, key string) (string, error)
}

// Options configures a Pipeline.
type Options struct {
	Scope           string // Library identity, e.g. "users/12345"
	Collection      string // Qdrant collection
	EmbeddingModel  string
	IncludeFullText bool
	PageSize        int
}

// Pipeline keeps a vector index of one library's items in sync and searches it.
type Pipeline struct {
	source      Source
	libraries   storage.LibraryStore
	items       storage.ItemStore
	chunks      storage.ChunkStore
	embedder    llm.Embedder
	vectorStore vectorstore.VectorStore
	opts        Options
	chunker     *Chunker

	mu sync.Mutex
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	source Source,
	libraries storage.LibraryStore,
	items storage.ItemStore,
	chunks storage.ChunkStore,
	embedder llm.Embedder,
	vectorStore vectorstore.VectorStore,
	opts Options,
) *Pipeline {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	return &Pipeline{
		source:      source,
		libraries:   libraries,
		items:       items,
		chunks:      chunks,
		embedder:    embedder,
		vectorStore: vectorStore,
		opts:        opts,
		chunker:     NewChunker(),
	}
}

// Update indexes every item modified since the last successful run.
// Per-item failures are logged and counted; the library version only
// advances when the whole run succeeded.
func (p *Pipeline) Update(ctx context.Context) (*UpdateResult, error) {
	if !p.mu.TryLock() {
		return nil, ErrUpdateInProgress
	}
	defer p.mu.Unlock()

	logger := contextutil.LoggerFromContext(ctx)

	lib, err := p.libraries.GetOrCreate(ctx, p.opts.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load library state: %w", err)
	}

	result := &UpdateResult{SinceVersion: lib.LastVersion, Version: lib.LastVersion}
	logger.InfoContext(ctx, "starting index update", "library", p.opts.Scope, "since_version", lib.LastVersion)

	f := model.SearchFilters{
		SinceVersion: lib.LastVersion,
		Sort:         model.SortDateModified,
		Direction:    "asc",
		Limit:        p.opts.PageSize,
	}
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := p.source.SearchItems(ctx, f)
		if err != nil {
			return result, fmt.Errorf("failed to list items since version %d: %w", f.SinceVersion, err)
		}

		for _, item := range page.Items {
			result.Scanned++
			result.Version = max(result.Version, item.Version)

			outcome, err := p.indexItem(ctx, lib.ID, item.Key, item.Version)
			if err != nil {
				result.Failed++
				logger.ErrorContext(ctx, "failed to index item", "item_key", item.Key, "error", err)
				continue
			}
			switch outcome {
			case OutcomeIndexed:
				result.Indexed++
			case OutcomeUnchanged:
				result.Unchanged++
			case OutcomeRemoved:
				result.Removed++
			}
		}

		if !page.HasMore || len(page.Items) == 0 {
			break
		}
		f.Start = page.NextStart
	}

	if result.Failed > 0 {
		logger.WarnContext(ctx, "index update incomplete", "failed", result.Failed, "scanned", result.Scanned)
		result.Version = lib.LastVersion
		return result, nil
	}

	if result.Version > lib.LastVersion {
		if err := p.libraries.SetLastVersion(ctx, lib.ID, result.Version); err != nil {
			return result, fmt.Errorf("failed to record library version: %w", err)
		}
	}

	logger.InfoContext(ctx, "index update completed",
		"scanned", result.Scanned, "indexed", result.Indexed, "unchanged", result.Unchanged,
		"removed", result.Removed, "version", result.Version)
	return result, nil
}

// Outcome reports what IndexItem did.
type Outcome int

const (
	OutcomeIndexed Outcome = iota
	OutcomeUnchanged
	OutcomeRemoved
)

// IndexItem (re)indexes one item. The item document is hashed and the item is
// skipped when the hash matches the stored one. Items that no longer exist are
// dropped from the index.
func (p *Pipeline) IndexItem(ctx context.Context, libraryID int, key string) (Outcome, error) {
	return p.indexItem(ctx, libraryID, key, 0)
}

// indexItem refuses items older than minVersion so that a stale read never
// counts as unchanged.
func (p *Pipeline) indexItem(ctx context.Context, libraryID int, key string, minVersion int) (Outcome, error) {
	logger := contextutil.LoggerFromContext(ctx)

	item, err := p.source.GetItem(ctx, key, true)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch item %s: %w", key, err)
	}
	if item != nil && item.Version < minVersion {
		return 0, fmt.Errorf("%w: %s at version %d, listed at %d", ErrStaleItem, key, item.Version, minVersion)
	}
	if item == nil || !model.IsLibraryItemType(item.ItemType) {
		if err := p.remove(ctx, libraryID, key); err != nil {
			return 0, err
		}
		return OutcomeRemoved, nil
	}

	var fullText string
	if p.opts.IncludeFullText {
		fullText, err = p.source.GetItemFullText(ctx, key)
		if err != nil {
			logger.WarnContext(ctx, "indexing without full text", "item_key", key, "error", err)
			fullText = ""
		}
	}

	doc := format.Document(item, fullText)
	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(ChunkerVersion+"\n"+doc)))

	existing, err := p.items.Get(ctx, libraryID, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("failed to check existing item: %w", err)
	}

	record := &storage.ItemRecord{
		LibraryID: libraryID,
		Key:       key,
		Version:   item.Version,
		Title:     item.Title,
		Hash:      hash,
	}

	if existing != nil && existing.Hash == hash {
		logger.DebugContext(ctx, "skipping unchanged item", "item_key", key, "hash", hash)
		if existing.Version != item.Version {
			if err := p.items.Upsert(ctx, record); err != nil {
				return 0, fmt.Errorf("failed to update item version: %w", err)
			}
		}
		return OutcomeUnchanged, nil
	}

	chunks := p.chunker.Chunk([]byte(doc))

	// Embed before touching the stored state so a failure leaves the old index intact.
	var embeddings [][]float32
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = embeddingText(c)
		}
		embeddings, err = p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(embeddings) != len(chunks) {
			return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
		}
	}

	if existing != nil {
		if err := p.dropChunks(ctx, libraryID, key); err != nil {
			return 0, err
		}
	}

	if err := p.items.Upsert(ctx, record); err != nil {
		return 0, fmt.Errorf("failed to upsert item: %w", err)
	}

	if len(chunks) == 0 {
		logger.WarnContext(ctx, "no chunks generated", "item_key", key)
		return OutcomeIndexed, nil
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		id := p.pointID(key, c.Index)
		if err := p.chunks.Insert(ctx, &storage.ChunkRecord{
			ID:          id,
			LibraryID:   libraryID,
			ItemKey:     key,
			ChunkIndex:  c.Index,
			HeadingPath: c.HeadingPath,
			Text:        c.Text,
		}); err != nil {
			return 0, fmt.Errorf("failed to insert chunk: %w", err)
		}

		points[i] = vectorstore.Point{
			ID:  id,
			Vec: embeddings[i],
			Meta: map[string]any{
				"library":      p.opts.Scope,
				"item_key":     key,
				"chunk_index":  c.Index,
				"heading_path": c.HeadingPath,
				"title":        item.Title,
				"version":      item.Version,
			},
		}
	}

	if err := p.vectorStore.Upsert(ctx, p.opts.Collection, points); err != nil {
		// Forget the item so the next run retries it.
		if delErr := p.items.Delete(ctx, libraryID, key); delErr != nil {
			logger.ErrorContext(ctx, "failed to roll back item record", "item_key", key, "error", delErr)
		}
		return 0, fmt.Errorf("failed to upsert vectors: %w", err)
	}

	logger.InfoContext(ctx, "indexed item", "item_key", key, "chunks", len(chunks), "title", item.Title)
	return OutcomeIndexed, nil
}

// Search embeds query and returns up to k distinct items, best match first.
func (p *Pipeline) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	k = min(max(k, 1), maxSearchK)

	vecs, err := p.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding count mismatch: expected 1, got %d", len(vecs))
	}

	// Several chunks usually come from the same item; over-fetch before collapsing.
	results, err := p.vectorStore.Search(ctx, p.opts.Collection, vecs[0], k*4, map[string]any{"library": p.opts.Scope})
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}

	hits := []Hit{}
	seen := make(map[string]bool)
	for _, r := range results {
		if len(hits) == k {
			break
		}
		key, _ := r.Meta["item_key"].(string)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		item, err := p.source.GetItem(ctx, key, false)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve item %s: %w", key, err)
		}
		if item == nil {
			logger.DebugContext(ctx, "skipping deleted item in search results", "item_key", key)
			continue
		}

		hit := Hit{Item: *item, Score: r.Score}
		hit.HeadingPath, _ = r.Meta["heading_path"].(string)
		chunk, err := p.chunks.GetByID(ctx, r.PointID)
		switch {
		case err == nil:
			hit.Snippet = model.TruncateRunes(chunk.Text, snippetRunes)
		case errors.Is(err, storage.ErrNotFound):
		default:
			logger.WarnContext(ctx, "failed to load chunk text", "chunk_id", r.PointID, "error", err)
		}
		hits = append(hits, hit)
	}

	logger.DebugContext(ctx, "semantic search", "query", query, "points", len(results), "hits", len(hits))
	return hits, nil
}

// remove drops an item and its vectors from the index.
func (p *Pipeline) remove(ctx context.Context, libraryID int, key string) error {
	ids, err := p.chunks.ListIDsByItem(ctx, libraryID, key)
	if err != nil {
		return fmt.Errorf("failed to list chunk IDs: %w", err)
	}
	if len(ids) > 0 {
		if err := p.vectorStore.Delete(ctx, p.opts.Collection, ids); err != nil {
			return fmt.Errorf("failed to delete vectors: %w", err)
		}
	}
	if err := p.items.Delete(ctx, libraryID, key); err != nil {
		return err
	}
	return nil
}

// dropChunks removes the stored chunks of an item before it is re-chunked.
func (p *Pipeline) dropChunks(ctx context.Context, libraryID int, key string) error {
	ids, err := p.chunks.ListIDsByItem(ctx, libraryID, key)
	if err != nil {
		return fmt.Errorf("failed to list old chunk IDs: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	if err := p.vectorStore.Delete(ctx, p.opts.Collection, ids); err != nil {
		// Points sharing an ID with a new chunk are overwritten anyway.
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to delete old vectors", "error", err, "count", len(ids))
	}
	if err := p.chunks.DeleteByItem(ctx, libraryID, key); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}
	return nil
}

// pointID derives a stable point ID from the library, item and chunk position.
func (p *Pipeline) pointID(key string, index int) string {
	name := p.opts.Scope + "/items/" + key + "#" + strconv.Itoa(index)
	return uuid.NewSHA1(pointNamespace, []byte(name)).String()
}

// embeddingText prefixes the chunk with its heading path so the vector
// carries the item title.
func embeddingText(c Chunk) string {
	if c.HeadingPath == "" {
		return c.Text
	}
	return c.HeadingPath + "\n\n" + c.Text
}
