package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"zotero-bridge/internal/contextutil"
	"zotero-bridge/internal/format"
	"zotero-bridge/internal/service"
)

// maxBodyBytes bounds the size of tool arguments.
const maxBodyBytes = 1 << 20

// ToolCaller lists and runs tools.
type ToolCaller interface {
	Tools() []service.Tool
	Call(ctx context.Context, name string, raw json.RawMessage) (*service.Result, error)
}

// ToolsHandler serves the tool registry over HTTP.
type ToolsHandler struct {
	tools ToolCaller
}

// NewToolsHandler creates a new ToolsHandler.
func NewToolsHandler(tools ToolCaller) *ToolsHandler {
	return &ToolsHandler{tools: tools}
}

// ToolListResponse lists the available tools.
//
// swagger:model ToolListResponse
type ToolListResponse struct {
	Tools []service.Tool `json:"tools"`
}

// ToolResponse is the result of one tool call.
//
// swagger:model ToolResponse
type ToolResponse struct {
	// Name of the tool that ran
	Tool string `json:"tool"`

	// Markdown rendering of the result
	Text string `json:"text"`

	// HTML rendering of Text, only with ?render=html
	HTML string `json:"html,omitempty"`

	// Structured result
	Data any `json:"data"`
}

// List handles GET /api/tools.
//
// swagger:route GET /api/tools listTools
//
// # List tools
//
// Returns every tool with its argument schema.
func (h *ToolsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, ToolListResponse{Tools: h.tools.Tools()})
}

// Call handles POST /api/tools/{name}. The body is the JSON object of
// arguments and may be empty.
//
// swagger:route POST /api/tools/{name} callTool
//
// # Call a tool
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  schema:
//	    "$ref": "#/definitions/ToolResponse"
//	'400':
//	  description: Invalid arguments
//	'404':
//	  description: Unknown tool or missing object
//	'409':
//	  description: Index update already running
//	'429':
//	  description: Zotero API rate limit, see Retry-After
//	'502':
//	  description: Zotero or index backend failed
func (h *ToolsHandler) Call(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		logger.WarnContext(ctx, "failed to read request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.tools.Call(ctx, name, body)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}

	resp := ToolResponse{Tool: name, Text: result.Text, Data: result.Data}
	if r.URL.Query().Get("render") == "html" {
		html, err := format.ToHTML(result.Text)
		if err != nil {
			logger.ErrorContext(ctx, "failed to render html", "tool", name, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to render result")
			return
		}
		resp.HTML = html
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}
