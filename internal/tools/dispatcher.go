// ABOUTME: Routes tool calls by name and wraps outcomes in the tool envelope.
// ABOUTME: Domain failures stay inside the envelope; they never become protocol errors.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Content is one entry in a tool result's content list.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Result is the tool envelope returned for every tools/call. It is
// structurally distinct from the JSON-RPC response envelope that carries it:
// a refused operation sets IsError inside a successful protocol response.
type Result struct {
	Content           []Content `json:"content"`
	StructuredContent any       `json:"structuredContent,omitempty"`
	IsError           bool      `json:"isError"`
}

// Dispatcher validates tool invocations and routes them to their handlers.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logger,
	}
}

// Dispatch routes a tool call by exact name match and normalizes the outcome
// into the tool envelope. Unknown names, argument validation failures, and
// handler errors all come back as envelope failures, never as errors.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args json.RawMessage) *Result {
	requestID := uuid.New().String()

	tool := d.registry.Get(name)
	if tool == nil {
		d.logger.Debug("unknown tool requested", "tool_name", name, "request_id", requestID)
		return errorResult(fmt.Sprintf("Unknown tool: %s", name))
	}

	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}

	var bag map[string]json.RawMessage
	if err := json.Unmarshal(args, &bag); err != nil {
		return errorResult(fmt.Sprintf("Invalid arguments for %s: expected a JSON object", name))
	}

	if problems := tool.ValidateArgs(bag); len(problems) > 0 {
		d.logger.Debug("tool argument validation failed",
			"tool_name", name,
			"request_id", requestID,
			"problems", problems,
		)
		msg := fmt.Sprintf("Invalid arguments for %s", name)
		for _, p := range problems {
			msg += "; " + p
		}
		return errorResult(msg)
	}

	d.logger.Info("→ dispatching tool call",
		"tool_name", name,
		"request_id", requestID,
	)

	structured, err := tool.Handler(ctx, args)
	if err != nil {
		d.logger.Warn("tool call failed",
			"tool_name", name,
			"request_id", requestID,
			"error", err,
		)
		return errorResult(err.Error())
	}

	d.logger.Info("← tool call complete",
		"tool_name", name,
		"request_id", requestID,
	)

	return successResult(structured)
}

// successResult wraps a domain result in the tool envelope, with a textual
// rendering of the structured content for plain-text clients.
func successResult(structured any) *Result {
	text, err := json.MarshalIndent(structured, "", "  ")
	if err != nil {
		// The handlers only return marshalable types; treat a failure here
		// as a refused operation rather than dropping the result silently.
		return errorResult(fmt.Sprintf("encoding tool result: %v", err))
	}

	return &Result{
		Content:           []Content{{Type: "text", Text: string(text)}},
		StructuredContent: structured,
		IsError:           false,
	}
}

func errorResult(message string) *Result {
	return &Result{
		Content: []Content{{Type: "text", Text: message}},
		IsError: true,
	}
}
