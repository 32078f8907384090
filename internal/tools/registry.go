// ABOUTME: Static registry of tool descriptors exposed via tools/list.
// ABOUTME: Parses each tool's input schema once for argument validation at dispatch.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Handler executes a tool. It receives the raw argument bag and returns the
// structured domain result, or an error that the dispatcher converts into a
// tool-envelope failure.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Definition describes one tool for the tools/list catalog.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Tool pairs a definition with its in-process handler.
type Tool struct {
	Definition Definition
	Handler    Handler

	// schema is the parsed InputSchema, cached at registration for
	// argument validation.
	schema *inputSchema
}

// inputSchema is the subset of JSON Schema the registry understands:
// an object with typed properties and required field names.
type inputSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]propertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

type propertySchema struct {
	Type string `json:"type"`
}

// Registry is the static, ordered catalog of tools. Registration happens at
// startup; lookups afterwards are read-only, so no locking is needed.
type Registry struct {
	ordered []*Tool
	byName  map[string]*Tool
	logger  *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		byName: make(map[string]*Tool),
		logger: logger,
	}
}

// Register adds tools to the catalog in order. Returns an error on a name
// collision or an unparseable input schema.
func (r *Registry) Register(tools ...*Tool) error {
	for _, tool := range tools {
		name := tool.Definition.Name
		if _, exists := r.byName[name]; exists {
			return fmt.Errorf("tool %q already registered", name)
		}

		var schema inputSchema
		if err := json.Unmarshal(tool.Definition.InputSchema, &schema); err != nil {
			return fmt.Errorf("parsing input schema for %q: %w", name, err)
		}
		tool.schema = &schema

		r.ordered = append(r.ordered, tool)
		r.byName[name] = tool
	}

	r.logger.Info("tools registered", "count", len(tools), "total", len(r.ordered))
	return nil
}

// Get returns the tool with the given name, or nil if unknown.
func (r *Registry) Get(name string) *Tool {
	return r.byName[name]
}

// List returns all tool definitions in registration order.
func (r *Registry) List() []Definition {
	defs := make([]Definition, len(r.ordered))
	for i, tool := range r.ordered {
		defs[i] = tool.Definition
	}
	return defs
}

// ValidateArgs checks an argument bag against the tool's schema: required
// fields must be present and all known fields must carry the declared basic
// type. Returns a list of human-readable violations.
func (t *Tool) ValidateArgs(args map[string]json.RawMessage) []string {
	var problems []string

	for _, field := range t.schema.Required {
		raw, ok := args[field]
		if !ok || string(raw) == "null" {
			problems = append(problems, fmt.Sprintf("missing required argument %q", field))
		}
	}

	for field, raw := range args {
		prop, ok := t.schema.Properties[field]
		if !ok {
			// Unknown arguments are ignored, matching tools/list being
			// advisory for extra fields.
			continue
		}
		if string(raw) == "null" {
			continue
		}
		if !matchesType(raw, prop.Type) {
			problems = append(problems, fmt.Sprintf("argument %q must be of type %s", field, prop.Type))
		}
	}

	return problems
}

// matchesType reports whether a raw JSON value conforms to a basic JSON
// Schema type name.
func matchesType(raw json.RawMessage, typ string) bool {
	switch typ {
	case "string":
		var v string
		return json.Unmarshal(raw, &v) == nil
	case "number", "integer":
		var v float64
		return json.Unmarshal(raw, &v) == nil
	case "boolean":
		var v bool
		return json.Unmarshal(raw, &v) == nil
	case "array":
		var v []json.RawMessage
		return json.Unmarshal(raw, &v) == nil
	case "object":
		var v map[string]json.RawMessage
		return json.Unmarshal(raw, &v) == nil
	default:
		return true
	}
}
