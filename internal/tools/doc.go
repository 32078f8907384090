// ABOUTME: Package documentation for the tools package.
// ABOUTME: Explains the registry, dispatch, and envelope model.

// Package tools holds the gateway's tool catalog and dispatch layer.
//
// A Tool pairs a Definition (name, description, JSON input schema) with a
// Handler. The Registry is populated once at startup and serves tools/list
// in registration order. The Dispatcher routes tools/call requests by exact
// name, validates arguments against the tool's declared schema, and wraps
// every outcome in the tool envelope.
//
// The envelope keeps domain failures separate from protocol failures: an
// unknown tool, a bad argument, or a handler error produces a Result with
// IsError set inside a successful JSON-RPC response. Only transport and
// framing problems become JSON-RPC error objects, and those are the MCP
// server's business, not this package's.
package tools
