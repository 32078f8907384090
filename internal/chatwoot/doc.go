// Package chatwoot is a client for the Chatwoot conversation API, covering
// the two operations the gateway needs: merging labels onto a conversation
// and posting private notes (used together for agent handoff).
//
// # Behavior
//
// Label writes are merge-only. Chatwoot's label endpoint replaces the full
// set, so AddLabels reads the current labels first and posts the sorted
// union; existing labels survive.
//
// Requests go through a circuit breaker that opens after consecutive
// failures, so a down Chatwoot instance fails fast instead of tying up
// tool calls. Error messages carry the HTTP status but never the response
// body or the API token.
//
// A client built without credentials returns ErrNotConfigured from every
// operation.
package chatwoot
