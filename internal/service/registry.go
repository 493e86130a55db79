package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_semantic_index.go -package=mocks zotero-bridge/internal/service SemanticIndex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"zotero-bridge/internal/backend"
	"zotero-bridge/internal/contextutil"
	"zotero-bridge/internal/indexer"
)

// SemanticIndex is the vector index behind the semantic tools.
type SemanticIndex interface {
	Search(ctx context.Context, query string, k int) ([]indexer.Hit, error)
	Update(ctx context.Context) (*indexer.UpdateResult, error)
	Status(ctx context.Context) (*indexer.CoverageStats, error)
}

// Schema is the JSON-schema shape of a tool's arguments.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one argument.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Default     any       `json:"default,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// Tool is one callable operation.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"inputSchema"`

	run func(ctx context.Context, a args) (*Result, error)
}

// Result is a tool's Markdown rendering plus the data behind it.
type Result struct {
	Text string
	Data any
}

// Options configures a Registry.
type Options struct {
	DefaultLimit int
	MaxLimit     int
	// Semantic enables the semantic tools when set.
	Semantic SemanticIndex
}

// Registry exposes the library operations as named tools.
type Registry struct {
	backend  backend.Backend
	semantic SemanticIndex
	opts     Options
	tools    map[string]*Tool
	order    []string
}

// NewRegistry registers every tool available for b.
func NewRegistry(b backend.Backend, opts Options) *Registry {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 25
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 100
	}

	r := &Registry{
		backend:  b,
		semantic: opts.Semantic,
		opts:     opts,
		tools:    make(map[string]*Tool),
	}
	r.registerLibraryTools()
	if r.semantic != nil {
		r.registerSemanticTools()
	}
	return r
}

func (r *Registry) register(t Tool) {
	if t.InputSchema.Type == "" {
		t.InputSchema.Type = "object"
	}
	if t.InputSchema.Properties == nil {
		t.InputSchema.Properties = map[string]Property{}
	}
	r.tools[t.Name] = &t
	r.order = append(r.order, t.Name)
}

// Tools lists the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.tools[name])
	}
	return out
}

// Call validates raw against the tool's schema and runs it.
func (r *Registry) Call(ctx context.Context, name string, raw json.RawMessage) (*Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}

	a, err := parseArgs(raw, tool.InputSchema)
	if err != nil {
		logger.WarnContext(ctx, "invalid tool arguments", "tool", name, "error", err)
		return nil, err
	}

	start := time.Now()
	result, err := tool.run(ctx, a)
	if err != nil {
		err = external(err)
		if errors.Is(err, ErrExternalService) {
			logger.ErrorContext(ctx, "tool call failed", "tool", name, "error", err, "duration", time.Since(start))
		} else {
			logger.WarnContext(ctx, "tool call rejected", "tool", name, "error", err)
		}
		return nil, err
	}

	logger.InfoContext(ctx, "tool call completed", "tool", name, "duration", time.Since(start), "text_length", len(result.Text))
	return result, nil
}
