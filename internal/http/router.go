package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"zotero-bridge/internal/handlers"
)

const healthPath = "/api/health"

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Tools   handlers.ToolCaller
	Library handlers.Pinger
	// VectorStore is nil when semantic search is disabled.
	VectorStore    handlers.CollectionInspector
	CollectionName string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	toolsHandler := handlers.NewToolsHandler(deps.Tools)

	var healthHandler *handlers.HealthHandler
	if deps.VectorStore != nil {
		healthHandler = handlers.NewHealthHandler(deps.Library, deps.VectorStore, deps.CollectionName)
	} else {
		healthHandler = handlers.NewHealthHandler(deps.Library, nil, "")
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/tools", toolsHandler.List)
		r.Post("/tools/{name}", toolsHandler.Call)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
