package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"zotero-bridge/internal/format"
	"zotero-bridge/internal/indexer"
)

const defaultSemanticLimit = 10

func (r *Registry) registerSemanticTools() {
	r.register(Tool{
		Name:        "semantic_search",
		Description: "Find items whose metadata, notes or text are close in meaning to a query.",
		InputSchema: Schema{
			Properties: map[string]Property{
				"query": {Type: "string", Description: "Natural-language description of what to find"},
				"limit": {Type: "integer", Description: "Maximum number of items", Default: defaultSemanticLimit},
			},
			Required: []string{"query"},
		},
		run: r.semanticSearch,
	})
	r.register(Tool{
		Name:        "update_semantic_index",
		Description: "Index items added or changed since the last update.",
		run:         r.updateSemanticIndex,
	})
	r.register(Tool{
		Name:        "semantic_index_status",
		Description: "Report how much of the library is indexed.",
		run:         r.semanticIndexStatus,
	})
}

func (r *Registry) semanticSearch(ctx context.Context, a args) (*Result, error) {
	query, err := a.str("query")
	if err != nil {
		return nil, err
	}
	limit, err := a.intRange("limit", defaultSemanticLimit, 1, 50)
	if err != nil {
		return nil, err
	}

	hits, err := r.semantic.Search(ctx, query, limit)
	if err != nil {
		if errors.Is(err, indexer.ErrEmptyQuery) {
			return nil, &ValidationError{Field: "query", Message: "is required"}
		}
		return nil, WrapError(err, "failed to run semantic search")
	}
	return &Result{Text: renderHits(query, hits), Data: hits}, nil
}

func (r *Registry) updateSemanticIndex(ctx context.Context, _ args) (*Result, error) {
	res, err := r.semantic.Update(ctx)
	if err != nil {
		if errors.Is(err, indexer.ErrUpdateInProgress) {
			return nil, fmt.Errorf("%w: %w", ErrBusy, err)
		}
		return nil, WrapError(err, "failed to update semantic index")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Scanned %d items changed since version %d.\n\n", res.Scanned, res.SinceVersion)
	fmt.Fprintf(&b, "- Indexed: %d\n- Unchanged: %d\n- Removed: %d\n- Failed: %d\n", res.Indexed, res.Unchanged, res.Removed, res.Failed)
	if res.Failed > 0 {
		b.WriteString("\nSome items failed; they will be retried on the next update.\n")
	} else {
		fmt.Fprintf(&b, "\nIndex is current with library version %d.\n", res.Version)
	}
	return &Result{Text: b.String(), Data: res}, nil
}

func (r *Registry) semanticIndexStatus(ctx context.Context, _ args) (*Result, error) {
	stats, err := r.semantic.Status(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to get semantic index status")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Semantic index for %s\n\n", stats.Library)
	fmt.Fprintf(&b, "- **Library version:** %d\n", stats.LastVersion)
	fmt.Fprintf(&b, "- **Items indexed:** %d (%d without text)\n", stats.ItemsIndexed, stats.ItemsWith0Chunks)
	fmt.Fprintf(&b, "- **Chunks:** %d\n", stats.ChunksEmbedded)
	ts := stats.ChunkTokenStats
	fmt.Fprintf(&b, "- **Tokens per chunk:** min %d, mean %.1f, p95 %d, max %d\n", ts.Min, ts.Mean, ts.P95, ts.Max)
	fmt.Fprintf(&b, "- **Index version:** `%s` (chunker %s)\n", stats.IndexVersion, stats.ChunkerVersion)
	return &Result{Text: b.String(), Data: stats}, nil
}

// renderHits lists semantic matches with their score and best passage.
func renderHits(query string, hits []indexer.Hit) string {
	if len(hits) == 0 {
		return "No items found.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Semantic matches for %q (%d)\n\n", query, len(hits))
	for i, h := range hits {
		b.WriteString(format.Summary(i+1, h.Item))
		fmt.Fprintf(&b, "   Score: %.3f", h.Score)
		if section := lastHeading(h.HeadingPath); section != "" {
			fmt.Fprintf(&b, " · %s", section)
		}
		b.WriteString("\n")
		if h.Snippet != "" {
			fmt.Fprintf(&b, "   > %s\n", strings.Join(strings.Fields(h.Snippet), " "))
		}
	}
	return b.String()
}

// lastHeading returns the innermost heading of a "# A > ## B" path without its markers.
func lastHeading(path string) string {
	if i := strings.LastIndex(path, " > "); i >= 0 {
		path = path[i+3:]
	}
	return strings.TrimSpace(strings.TrimLeft(path, "#"))
}
