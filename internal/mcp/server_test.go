// ABOUTME: Tests for the MCP HTTP server protocol surface.
// ABOUTME: Covers version negotiation, origin checks, notifications, and error channels.

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/laburen/shop-gateway/internal/tools"
)

// setupTestServer creates an MCP server over a small test tool catalog.
func setupTestServer(t *testing.T, origins []string) *Server {
	t.Helper()

	registry := tools.NewRegistry(slog.Default())
	err := registry.Register(
		&tools.Tool{
			Definition: tools.Definition{
				Name:        "greet",
				Description: "Greets the caller.",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`),
			},
			Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
				var in struct {
					Name string `json:"name"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				return map[string]string{"greeting": "hello " + in.Name}, nil
			},
		},
		&tools.Tool{
			Definition: tools.Definition{
				Name:        "second",
				Description: "A second tool.",
				InputSchema: json.RawMessage(`{"type":"object"}`),
			},
			Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
				return map[string]bool{"ok": true}, nil
			},
		},
	)
	if err != nil {
		t.Fatalf("registering test tools: %v", err)
	}

	return NewServer(Config{
		Registry:       registry,
		Dispatcher:     tools.NewDispatcher(registry, slog.Default()),
		Logger:         slog.Default(),
		AllowedOrigins: origins,
		ServerName:     "shop-gateway",
		ServerVersion:  "test",
	})
}

func testMux(t *testing.T, origins []string) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	setupTestServer(t, origins).RegisterRoutes(mux)
	return mux
}

func postJSON(t *testing.T, mux *http.ServeMux, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONRPCResponse {
	t.Helper()
	var resp JSONRPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestInitialize(t *testing.T) {
	mux := testMux(t, nil)

	rec := postJSON(t, mux, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decodeResponse(t, rec)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("unexpected result type: %T", resp.Result)
	}
	if result["protocolVersion"] != "2025-06-18" {
		t.Errorf("expected protocolVersion 2025-06-18, got %v", result["protocolVersion"])
	}

	caps, ok := result["capabilities"].(map[string]any)
	if !ok {
		t.Fatalf("missing capabilities: %v", result)
	}
	toolsCap, ok := caps["tools"].(map[string]any)
	if !ok || toolsCap["listChanged"] != false {
		t.Errorf("expected tools capability with listChanged false, got %v", caps)
	}

	info, ok := result["serverInfo"].(map[string]any)
	if !ok || info["name"] != "shop-gateway" {
		t.Errorf("unexpected serverInfo: %v", result["serverInfo"])
	}
	if s, ok := result["instructions"].(string); !ok || s == "" {
		t.Error("expected non-empty instructions")
	}
}

func TestPing(t *testing.T) {
	mux := testMux(t, nil)

	rec := postJSON(t, mux, `{"jsonrpc":"2.0","id":7,"method":"ping"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decodeResponse(t, rec)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]any)
	if !ok || len(result) != 0 {
		t.Errorf("expected empty object result, got %v", resp.Result)
	}
	if string(resp.ID) != "7" {
		t.Errorf("expected id echoed back, got %s", resp.ID)
	}
}

func TestToolsList(t *testing.T) {
	mux := testMux(t, nil)

	rec := postJSON(t, mux, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`, nil)
	resp := decodeResponse(t, rec)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	data, _ := json.Marshal(resp.Result)
	var result ListToolsResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decoding tools/list result: %v", err)
	}

	if len(result.Tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(result.Tools))
	}
	if result.Tools[0].Name != "greet" || result.Tools[1].Name != "second" {
		t.Errorf("unexpected tool order: %s, %s", result.Tools[0].Name, result.Tools[1].Name)
	}
	if len(result.Tools[0].InputSchema) == 0 {
		t.Error("expected input schema to be included")
	}
}

func TestToolsCall_Success(t *testing.T) {
	mux := testMux(t, nil)

	rec := postJSON(t, mux, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"greet","arguments":{"name":"ada"}}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decodeResponse(t, rec)
	if resp.Error != nil {
		t.Fatalf("unexpected protocol error: %+v", resp.Error)
	}

	data, _ := json.Marshal(resp.Result)
	var result tools.Result
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success envelope, got %+v", result.Content)
	}
	if !strings.Contains(result.Content[0].Text, "hello ada") {
		t.Errorf("unexpected content: %q", result.Content[0].Text)
	}
}

func TestToolsCall_UnknownToolIsDomainError(t *testing.T) {
	mux := testMux(t, nil)

	rec := postJSON(t, mux, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope"}}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decodeResponse(t, rec)
	if resp.Error != nil {
		t.Fatalf("unknown tool must not be a protocol error: %+v", resp.Error)
	}

	data, _ := json.Marshal(resp.Result)
	var result tools.Result
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error envelope")
	}
	if !strings.Contains(result.Content[0].Text, "Unknown tool: nope") {
		t.Errorf("unexpected content: %q", result.Content[0].Text)
	}
}

func TestNotification_Accepted(t *testing.T) {
	mux := testMux(t, nil)

	rec := postJSON(t, mux, `{"jsonrpc":"2.0","method":"notifications/initialized"}`, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}

func TestParseError(t *testing.T) {
	mux := testMux(t, nil)

	rec := postJSON(t, mux, `{not json`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != JSONRPCParseError {
		t.Errorf("expected parse error -32700, got %+v", resp.Error)
	}
}

func TestInvalidJSONRPCVersion(t *testing.T) {
	mux := testMux(t, nil)

	rec := postJSON(t, mux, `{"jsonrpc":"1.0","id":1,"method":"ping"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != JSONRPCInvalidRequest {
		t.Errorf("expected invalid request -32600, got %+v", resp.Error)
	}
}

func TestUnknownMethod(t *testing.T) {
	mux := testMux(t, nil)

	rec := postJSON(t, mux, `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("method not found rides on 200, got %d", rec.Code)
	}

	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != JSONRPCMethodNotFound {
		t.Errorf("expected method not found -32601, got %+v", resp.Error)
	}
}

func TestProtocolVersionHeader(t *testing.T) {
	mux := testMux(t, nil)

	// Known versions pass
	for _, v := range []string{"2025-06-18", "2025-03-26"} {
		rec := postJSON(t, mux, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, map[string]string{"MCP-Protocol-Version": v})
		if rec.Code != http.StatusOK {
			t.Errorf("version %s: expected 200, got %d", v, rec.Code)
		}
	}

	// Absent header passes
	rec := postJSON(t, mux, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("absent header: expected 200, got %d", rec.Code)
	}

	// Unknown version rejected before the JSON-RPC layer
	rec = postJSON(t, mux, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, map[string]string{"MCP-Protocol-Version": "1999-01-01"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown version: expected 400, got %d", rec.Code)
	}
}

func TestOriginAllowList(t *testing.T) {
	mux := testMux(t, []string{"https://app.example.com"})

	// Listed origin passes
	rec := postJSON(t, mux, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, map[string]string{"Origin": "https://app.example.com"})
	if rec.Code != http.StatusOK {
		t.Errorf("allowed origin: expected 200, got %d", rec.Code)
	}

	// Unlisted origin rejected
	rec = postJSON(t, mux, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, map[string]string{"Origin": "https://evil.example.com"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("unlisted origin: expected 403, got %d", rec.Code)
	}

	// Absent origin rejected when a list is configured
	rec = postJSON(t, mux, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("absent origin: expected 403, got %d", rec.Code)
	}
}

func TestOriginAllowAllWhenEmpty(t *testing.T) {
	mux := testMux(t, nil)

	rec := postJSON(t, mux, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, map[string]string{"Origin": "https://anywhere.example.com"})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with empty allow-list, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	mux := testMux(t, nil)

	for _, method := range []string{http.MethodGet, http.MethodDelete, http.MethodPut} {
		req := httptest.NewRequest(method, "/mcp", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected 405, got %d", method, rec.Code)
		}
	}
}

func TestUnknownPath(t *testing.T) {
	mux := testMux(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestIDEchoedVerbatim(t *testing.T) {
	mux := testMux(t, nil)

	tests := []string{`1`, `"abc"`, `42.5`}
	for _, id := range tests {
		rec := postJSON(t, mux, `{"jsonrpc":"2.0","id":`+id+`,"method":"ping"}`, nil)
		resp := decodeResponse(t, rec)
		if string(resp.ID) != id {
			t.Errorf("expected id %s echoed, got %s", id, resp.ID)
		}
	}
}

func TestToolsCall_MissingName(t *testing.T) {
	mux := testMux(t, nil)

	rec := postJSON(t, mux, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`, nil)
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != JSONRPCInvalidParams {
		t.Errorf("expected invalid params -32602, got %+v", resp.Error)
	}
}

func TestBodyTooLarge(t *testing.T) {
	mux := testMux(t, nil)

	padding := strings.Repeat("x", MaxRequestBodySize+10)
	body := `{"jsonrpc":"2.0","id":1,"method":"ping","params":{"pad":"` + padding + `"}}`

	rec := postJSON(t, mux, body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != JSONRPCInvalidRequest {
		t.Errorf("expected invalid request error, got %+v", resp.Error)
	}
}

func TestHandlerPanicBecomesInternalError(t *testing.T) {
	registry := tools.NewRegistry(slog.Default())
	err := registry.Register(&tools.Tool{
		Definition: tools.Definition{
			Name:        "explode",
			Description: "Panics when called.",
			InputSchema: json.RawMessage(`{"type":"object"}`),
		},
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			panic("boom")
		},
	})
	if err != nil {
		t.Fatalf("registering test tool: %v", err)
	}

	server := NewServer(Config{
		Registry:   registry,
		Dispatcher: tools.NewDispatcher(registry, slog.Default()),
		Logger:     slog.Default(),
	})
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	rec := postJSON(t, mux, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"explode","arguments":{}}}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp.Error == nil || resp.Error.Code != JSONRPCInternalError {
		t.Errorf("expected internal error -32603, got %+v", resp.Error)
	}
}
