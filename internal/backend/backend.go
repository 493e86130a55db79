package backend

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_backend.go -package=mocks zotero-bridge/internal/backend Backend

import (
	"context"
	"fmt"
	"log/slog"

	"zotero-bridge/internal/backend/local"
	"zotero-bridge/internal/backend/remote"
	"zotero-bridge/internal/config"
	"zotero-bridge/internal/model"
	"zotero-bridge/internal/pdftext"
)

// Backend is the read-only query interface over one Zotero library.
// Lookups by key return nil (or an empty value) rather than an error when
// the key does not resolve to a live entity.
type Backend interface {
	// SearchItems returns one page of top-level items. Attachments, notes
	// and annotations are never returned.
	SearchItems(ctx context.Context, f model.SearchFilters) (*model.SearchResult, error)

	// GetItem returns an item, with attachments, notes and annotations when includeChildren is set.
	GetItem(ctx context.Context, key string, includeChildren bool) (*model.Item, error)

	// GetItemFullText returns the text of the item's PDFs, or "" when there is none.
	GetItemFullText(ctx context.Context, key string) (string, error)

	GetCollections(ctx context.Context) ([]model.Collection, error)
	GetCollection(ctx context.Context, key string) (*model.Collection, error)

	// GetCollectionItems pages through a collection, including every
	// sub-collection when recursive is set.
	GetCollectionItems(ctx context.Context, key string, recursive bool, f model.SearchFilters) (*model.SearchResult, error)

	// GetTags returns tags by descending use, then name.
	GetTags(ctx context.Context, filter string) ([]model.TagCount, error)

	GetItemNotes(ctx context.Context, key string) ([]model.Note, error)
	GetItemAttachments(ctx context.Context, key string) ([]model.Attachment, error)
	GetItemAnnotations(ctx context.Context, key string) ([]model.Annotation, error)

	// GetRelatedItems follows dc:relation links one hop.
	GetRelatedItems(ctx context.Context, key string) ([]model.Item, error)

	// GetRecentItems returns items added or modified within the last days, newest first.
	GetRecentItems(ctx context.Context, days, limit int) ([]model.Item, error)

	GetLibraryStats(ctx context.Context) (*model.LibraryStats, error)

	// GetBibliography formats the items in a citation style, "apa" by default.
	GetBibliography(ctx context.Context, keys []string, style string) (string, error)

	// SearchFullText returns distinct top-level items whose content matches query.
	SearchFullText(ctx context.Context, query string, limit int) ([]model.Item, error)

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*remote.Client)(nil)
	_ Backend = (*local.Store)(nil)
)

// Options carries collaborators that do not come from configuration.
type Options struct {
	// Extractor overrides the PDF extractor used in local mode.
	Extractor pdftext.Extractor
	// Immutable opens the local database without locking it.
	Immutable bool
}

// Open builds the backend selected by cfg.Mode. The choice is fixed for the
// life of the returned value.
func Open(ctx context.Context, cfg *config.Config, opts Options) (Backend, error) {
	var b Backend
	switch cfg.Mode {
	case config.ModeRemote:
		client, err := remote.New(remote.Options{
			BaseURL:           cfg.APIBaseURL,
			APIKey:            cfg.APIKey,
			UserID:            cfg.UserID,
			GroupID:           cfg.GroupID,
			DefaultLimit:      cfg.DefaultLimit,
			MaxLimit:          cfg.MaxLimit,
			MaxFullTextLength: cfg.MaxFullTextLength,
			Timeout:           cfg.HTTPTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create remote backend: %w", err)
		}
		b = client

	case config.ModeLocal:
		extractor := opts.Extractor
		if extractor == nil && cfg.PDFExtraction {
			// Text is truncated in runes later; four bytes covers any rune.
			extractor = pdftext.NewPDFExtractor(int64(cfg.MaxFullTextLength) * 4)
		}
		store, err := local.Open(ctx, local.Options{
			DataDir:           cfg.DataDir,
			GroupID:           cfg.GroupID,
			DefaultLimit:      cfg.DefaultLimit,
			MaxLimit:          cfg.MaxLimit,
			MaxFullTextLength: cfg.MaxFullTextLength,
			Extractor:         extractor,
			Immutable:         opts.Immutable,
		})
		if err != nil {
			return nil, err
		}
		b = store

	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}

	slog.Default().InfoContext(ctx, "backend ready", "mode", cfg.Mode)
	return b, nil
}
