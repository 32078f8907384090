// Package mcp implements the Model Context Protocol server for external tool access.
//
// # Overview
//
// MCP (Model Context Protocol) is a standard for AI tool integration. This
// package provides an MCP-compatible HTTP server that exposes the gateway's
// commerce tools to external AI clients (Claude Desktop, other LLMs, or
// custom applications).
//
// # Protocol
//
// The server speaks JSON-RPC 2.0 over HTTP POST on a single endpoint:
//
//   - POST /mcp - JSON-RPC requests (initialize, ping, tools/list, tools/call)
//
// Supported protocol versions are 2025-06-18 (advertised) and 2025-03-26,
// negotiated via the MCP-Protocol-Version header. Requests without the
// header are accepted; an unrecognized version is rejected with HTTP 400.
// Server-initiated SSE streams and session management are not implemented;
// every request is self-contained.
//
// # Error Model
//
// Failures travel on two distinct channels:
//
//   - Protocol errors (malformed JSON, wrong JSON-RPC version, unknown
//     method) become JSON-RPC error objects with the standard codes.
//   - Domain errors (unknown tool, bad arguments, out-of-stock items,
//     unconfigured CRM) stay inside the tool envelope: a successful
//     JSON-RPC response whose result carries isError true.
//
// An agent can therefore always distinguish "the transport broke" from
// "the operation was refused".
//
// # Tool Execution
//
// Clients call tools/call to execute a tool:
//
//	{
//	  "jsonrpc": "2.0",
//	  "method": "tools/call",
//	  "params": {
//	    "name": "list_products",
//	    "arguments": {"q": "espresso", "limit": 5}
//	  },
//	  "id": 2
//	}
//
// Results carry both a text rendering and structuredContent with the typed
// payload.
//
// # Usage
//
// Create the server over a tool registry and register its routes:
//
//	server := mcp.NewServer(mcp.Config{
//	    Registry:   registry,
//	    Dispatcher: dispatcher,
//	    Logger:     logger,
//	})
//	server.RegisterRoutes(mux)
package mcp
