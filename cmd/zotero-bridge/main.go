package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"zotero-bridge/internal/backend"
	"zotero-bridge/internal/cache"
	"zotero-bridge/internal/config"
	"zotero-bridge/internal/http"
	"zotero-bridge/internal/indexer"
	"zotero-bridge/internal/llm"
	"zotero-bridge/internal/service"
	"zotero-bridge/internal/storage"
	"zotero-bridge/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API exposes a Zotero library, read-only, as a set of tools for agents.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Zotero Bridge API
//   description: |
//     Read-only access to a Zotero library through the Zotero Web API or the
//     local zotero.sqlite database, with optional semantic search.
//   version: 1.0.0
// schemes:
//   - http
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	configFile := pflag.StringP("config", "c", "", "YAML configuration file (overrides ZOTERO_CONFIG)")
	mode := pflag.String("mode", "", "backend mode: remote or local (overrides ZOTERO_MODE)")
	addr := pflag.String("addr", "", "listen address (default :API_PORT)")
	indexOnStart := pflag.Bool("index-on-start", true, "update the semantic index in the background at startup")
	pflag.Parse()

	if *mode != "" {
		_ = os.Setenv("ZOTERO_MODE", *mode)
	}

	// Load configuration first (needed for log level)
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	library, err := backend.Open(ctx, cfg, backend.Options{})
	if err != nil {
		log.Fatalf("Failed to open library: %v", err)
	}
	defer func() {
		_ = library.Close()
	}()
	slog.Info("Library backend ready", "mode", cfg.Mode, "scope", cfg.LibraryScope())

	// The indexer reads the backend directly; cached reads could hide edits.
	source := library

	if cfg.CacheEnabled {
		cached := backend.WithCache(library, cache.New[string, any](cfg.CacheTTL))
		go cached.RunJanitor(ctx, cfg.CacheTTL)
		library = cached
		slog.Info("Response cache enabled", "ttl", cfg.CacheTTL)
	}

	deps := &http.Deps{Library: library}
	registryOpts := service.Options{
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
	}

	if cfg.SemanticEnabled() {
		pipeline, vectorStore, closeIndex, err := openSemanticIndex(ctx, cfg, source)
		if err != nil {
			log.Fatalf("Failed to initialize semantic index: %v", err)
		}
		defer closeIndex()

		registryOpts.Semantic = pipeline
		deps.VectorStore = vectorStore
		deps.CollectionName = cfg.QdrantCollection

		if *indexOnStart {
			go func() {
				slog.Info("Starting background update of the semantic index")
				result, err := pipeline.Update(ctx)
				if err != nil {
					slog.Error("Semantic index update failed", "error", err)
					return
				}
				slog.Info("Semantic index updated",
					"indexed", result.Indexed,
					"unchanged", result.Unchanged,
					"removed", result.Removed,
					"failed", result.Failed,
					"version", result.Version,
				)
			}()
		}
	}

	deps.Tools = service.NewRegistry(library, registryOpts)
	router := http.NewRouter(deps)

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = ":" + cfg.APIPort
	}
	server := &nethttp.Server{
		Addr:              listenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down API server", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed to start: %v", err)
	}
	slog.Info("API server stopped")
}

// openSemanticIndex opens the index state database and the vector store and
// validates the embedding model against the configured vector size.
func openSemanticIndex(ctx context.Context, cfg *config.Config, source indexer.Source) (*indexer.Pipeline, *vectorstore.QdrantStore, func(), error) {
	if dir := filepath.Dir(cfg.IndexDBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, nil, err
		}
	}

	db, err := storage.New(cfg.IndexDBPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}
	slog.Info("Index database initialized", "path", cfg.IndexDBPath)

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}
	closeAll := func() {
		_ = vectorStore.Close()
		_ = db.Close()
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize, "library", "item_key"); err != nil {
		closeAll()
		return nil, nil, nil, err
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	if _, err := embedder.EmbedTexts(ctx, []string{"test"}); err != nil {
		closeAll()
		return nil, nil, nil, err
	}
	slog.Info("Embedding client validated", "model", cfg.EmbeddingModelName, "vector_size", cfg.QdrantVectorSize)

	pipeline := indexer.NewPipeline(
		source,
		storage.NewLibraryRepo(db),
		storage.NewItemRepo(db),
		storage.NewChunkRepo(db),
		embedder,
		vectorStore,
		indexer.Options{
			Scope:           cfg.LibraryScope(),
			Collection:      cfg.QdrantCollection,
			EmbeddingModel:  cfg.EmbeddingModelName,
			IncludeFullText: cfg.PDFExtraction,
		},
	)
	return pipeline, vectorStore, closeAll, nil
}
