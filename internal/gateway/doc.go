// Package gateway orchestrates the shop-gateway server components.
//
// # Overview
//
// The gateway package is the central coordinator of the shop-gateway
// server. It owns and manages all major components: the SQLite-backed
// store, the catalog and cart services, the Chatwoot client, the tool
// registry, and the HTTP server carrying the MCP endpoint.
//
// # HTTP Surface
//
// The gateway exposes two endpoints:
//
//   - POST /mcp - JSON-RPC 2.0 MCP endpoint (initialize, ping,
//     tools/list, tools/call)
//   - GET /health - Liveness check
//
// The MCP endpoint may additionally be guarded by an origin allow-list
// and a token-bucket rate limiter, both configured in the server section.
//
// # Lifecycle
//
// New() wires everything together; Run() listens and blocks until the
// context is canceled, then drains in-flight requests with a 5 second
// grace period and closes the store.
//
//	gw, err := gateway.New(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := gw.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package gateway
