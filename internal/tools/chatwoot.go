// ABOUTME: Chatwoot tools: conversation labeling and human handoff.
// ABOUTME: Thin adapters over the Chatwoot API client.

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/laburen/shop-gateway/internal/chatwoot"
)

// ChatwootTools returns the CRM tools backed by the Chatwoot client. The
// tools are always registered; calls fail with a domain error when the
// client is not configured.
func ChatwootTools(client *chatwoot.Client) []*Tool {
	h := &chatwootHandlers{client: client}
	return []*Tool{
		{
			Definition: Definition{
				Name:        "chatwoot_add_labels",
				Description: "Add labels to a Chatwoot conversation. Existing labels are kept.",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"conversation_id":{"type":"string"},"labels":{"type":"array","items":{"type":"string"}}},"required":["conversation_id","labels"]}`),
			},
			Handler: h.AddLabels,
		},
		{
			Definition: Definition{
				Name:        "chatwoot_handoff",
				Description: "Hand a conversation off to a human agent: labels it and leaves a private note with the reason and summary.",
				InputSchema: json.RawMessage(`{"type":"object","properties":{"conversation_id":{"type":"string"},"reason":{"type":"string"},"summary":{"type":"string"}},"required":["conversation_id","reason","summary"]}`),
			},
			Handler: h.Handoff,
		},
	}
}

type chatwootHandlers struct {
	client *chatwoot.Client
}

type addLabelsInput struct {
	ConversationID string   `json:"conversation_id"`
	Labels         []string `json:"labels"`
}

func (h *chatwootHandlers) AddLabels(ctx context.Context, args json.RawMessage) (any, error) {
	var in addLabelsInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	return h.client.AddLabels(ctx, in.ConversationID, in.Labels)
}

type handoffInput struct {
	ConversationID string `json:"conversation_id"`
	Reason         string `json:"reason"`
	Summary        string `json:"summary"`
}

func (h *chatwootHandlers) Handoff(ctx context.Context, args json.RawMessage) (any, error) {
	var in handoffInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	return h.client.Handoff(ctx, in.ConversationID, in.Reason, in.Summary)
}
