// ABOUTME: MCP-compatible HTTP server exposing the tool catalog to agents.
// ABOUTME: Single /mcp endpoint, JSON-RPC 2.0 over POST, stateless between calls.

package mcp

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/laburen/shop-gateway/internal/tools"
)

// Supported MCP protocol versions
var supportedProtocolVersions = map[string]bool{
	"2025-03-26": true,
	"2025-06-18": true,
}

// latestProtocolVersion is the version we advertise in initialize responses
const latestProtocolVersion = "2025-06-18"

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// serverInstructions is surfaced to clients in the initialize result so an
// agent knows what the toolset is for without probing.
const serverInstructions = "Commerce gateway: search the product catalog, manage per-conversation carts, and escalate conversations to a human agent via Chatwoot."

// JSON-RPC 2.0 types

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes
const (
	JSONRPCParseError     = -32700
	JSONRPCInvalidRequest = -32600
	JSONRPCMethodNotFound = -32601
	JSONRPCInvalidParams  = -32602
	JSONRPCInternalError  = -32603
)

// ListToolsResult is the result for tools/list.
type ListToolsResult struct {
	Tools []tools.Definition `json:"tools"`
}

// CallToolParams are the params for tools/call.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Config holds configuration for the MCP server.
type Config struct {
	Registry   *tools.Registry
	Dispatcher *tools.Dispatcher
	Logger     *slog.Logger

	// AllowedOrigins is the browser origin allow-list. Empty means any
	// origin (including none) is accepted; otherwise requests carrying an
	// unlisted or absent Origin header are rejected.
	AllowedOrigins []string

	// ServerName and ServerVersion are reported in initialize responses.
	ServerName    string
	ServerVersion string
}

// Server implements the MCP Streamable HTTP endpoint over the tool catalog.
type Server struct {
	registry   *tools.Registry
	dispatcher *tools.Dispatcher
	logger     *slog.Logger
	origins    map[string]bool
	name       string
	version    string
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var origins map[string]bool
	if len(cfg.AllowedOrigins) > 0 {
		origins = make(map[string]bool, len(cfg.AllowedOrigins))
		for _, o := range cfg.AllowedOrigins {
			origins[o] = true
		}
	}

	name := cfg.ServerName
	if name == "" {
		name = "shop-gateway"
	}
	version := cfg.ServerVersion
	if version == "" {
		version = "dev"
	}

	return &Server{
		registry:   cfg.Registry,
		dispatcher: cfg.Dispatcher,
		logger:     logger,
		origins:    origins,
		name:       name,
		version:    version,
	}
}

// RegisterRoutes registers the MCP endpoint on the given ServeMux. Only the
// exact /mcp path is served; everything else falls through to the mux's 404.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/mcp", s.handleMCP)
}

// handleMCP is the single MCP endpoint. Only POST carries JSON-RPC traffic;
// there are no server-initiated streams and no sessions to delete.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	s.handlePost(w, r)
}

// handlePost processes one JSON-RPC message sent via HTTP POST.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	// Transport-level checks come first: a rejected origin or protocol
	// version never reaches the JSON-RPC layer.
	if s.origins != nil && !s.origins[r.Header.Get("Origin")] {
		http.Error(w, "Forbidden: origin not allowed", http.StatusForbidden)
		return
	}

	// An absent header is fine (pre-negotiation clients); a present but
	// unknown version is not.
	if v := r.Header.Get("MCP-Protocol-Version"); v != "" && !supportedProtocolVersions[v] {
		http.Error(w, "Bad Request: unsupported MCP-Protocol-Version", http.StatusBadRequest)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("panic handling MCP request", "panic", rec)
			s.sendJSONRPCError(w, http.StatusInternalServerError, nil, JSONRPCInternalError, "internal error", nil)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		s.sendJSONRPCError(w, http.StatusBadRequest, nil, JSONRPCParseError, "failed to read request body", nil)
		return
	}
	if int64(len(body)) > MaxRequestBodySize {
		s.sendJSONRPCError(w, http.StatusBadRequest, nil, JSONRPCInvalidRequest, "request body too large", nil)
		return
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.sendJSONRPCError(w, http.StatusBadRequest, nil, JSONRPCParseError, "invalid JSON", nil)
		return
	}

	if req.JSONRPC != "2.0" {
		s.sendJSONRPCError(w, http.StatusBadRequest, req.ID, JSONRPCInvalidRequest, "invalid JSON-RPC version", nil)
		return
	}

	// A request without an id is a notification: acknowledge and drop it
	// without routing. An explicit null id is still routed as a request.
	if len(req.ID) == 0 {
		s.logger.Debug("accepted MCP notification", "method", req.Method)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	s.logger.Debug("MCP request", "method", req.Method)

	switch req.Method {
	case "initialize":
		s.handleInitialize(w, req)
	case "ping":
		s.sendJSONRPCResult(w, req.ID, map[string]any{})
	case "tools/list":
		s.handleToolsList(w, req)
	case "tools/call":
		s.handleToolsCall(w, r, req)
	default:
		s.sendJSONRPCError(w, http.StatusOK, req.ID, JSONRPCMethodNotFound, "method not found", nil)
	}
}

// handleInitialize handles the MCP initialize handshake.
func (s *Server) handleInitialize(w http.ResponseWriter, req JSONRPCRequest) {
	result := map[string]any{
		"protocolVersion": latestProtocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{
				"listChanged": false,
			},
		},
		"serverInfo": map[string]any{
			"name":    s.name,
			"version": s.version,
		},
		"instructions": serverInstructions,
	}
	s.sendJSONRPCResult(w, req.ID, result)
}

// handleToolsList handles tools/list requests.
func (s *Server) handleToolsList(w http.ResponseWriter, req JSONRPCRequest) {
	defs := s.registry.List()

	s.logger.Debug("tools/list", "count", len(defs))

	s.sendJSONRPCResult(w, req.ID, ListToolsResult{Tools: defs})
}

// handleToolsCall handles tools/call requests. Everything past params
// decoding is the dispatcher's business: unknown tools and domain failures
// come back inside the tool envelope, not as JSON-RPC errors.
func (s *Server) handleToolsCall(w http.ResponseWriter, r *http.Request, req JSONRPCRequest) {
	var params CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.sendJSONRPCError(w, http.StatusOK, req.ID, JSONRPCInvalidParams, "invalid params", nil)
			return
		}
	}

	if params.Name == "" {
		s.sendJSONRPCError(w, http.StatusOK, req.ID, JSONRPCInvalidParams, "tool name is required", nil)
		return
	}

	result := s.dispatcher.Dispatch(r.Context(), params.Name, params.Arguments)

	s.logger.Debug("tools/call complete",
		"tool_name", params.Name,
		"is_error", result.IsError,
	)

	s.sendJSONRPCResult(w, req.ID, result)
}

// sendJSONRPCResult sends a successful JSON-RPC response.
func (s *Server) sendJSONRPCResult(w http.ResponseWriter, id json.RawMessage, result any) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC response", "error", err)
	}
}

// sendJSONRPCError sends a JSON-RPC error response with the given HTTP
// status. Framing problems map to 4xx/5xx; an unknown method is still a
// well-formed exchange and rides on 200.
func (s *Server) sendJSONRPCError(w http.ResponseWriter, status int, id json.RawMessage, code int, message string, data any) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC error response", "error", err)
	}
}
