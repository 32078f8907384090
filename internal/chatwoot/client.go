// ABOUTME: Chatwoot API client for label management and human handoff.
// ABOUTME: Wraps HTTP calls in a circuit breaker; this system never owns CRM state.

package chatwoot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// ErrNotConfigured is returned when a Chatwoot tool is called without the
// base URL, account id, and API token all being set.
var ErrNotConfigured = errors.New("chatwoot integration is not configured: set chatwoot.base_url, chatwoot.account_id and chatwoot.api_token")

// HandoffLabel is always attached to conversations handed off to a human.
const HandoffLabel = "handoff"

// maxSlugLen bounds the reason slug appended to handoff labels.
const maxSlugLen = 40

// Config holds connection settings for the Chatwoot API.
type Config struct {
	BaseURL   string
	AccountID string
	APIToken  string
	Timeout   time.Duration
	Logger    *slog.Logger
}

// LabelsResult is the payload returned by AddLabels.
type LabelsResult struct {
	Labels []string `json:"labels"`
}

// HandoffResult is the payload returned by Handoff.
type HandoffResult struct {
	OK bool `json:"ok"`
}

// Client talks to the Chatwoot conversation API. It only sequences
// collaborator calls; Chatwoot owns labels and messages.
type Client struct {
	baseURL   string
	accountID string
	apiToken  string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker
	logger    *slog.Logger
}

// New creates a Chatwoot client. An unconfigured client is valid; its
// methods return ErrNotConfigured so that missing credentials surface as
// a domain-level error on each tool call rather than at startup.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "chatwoot",
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("chatwoot circuit state changed", "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		accountID: cfg.AccountID,
		apiToken:  cfg.APIToken,
		http:      &http.Client{Timeout: timeout},
		breaker:   breaker,
		logger:    logger.With("component", "chatwoot"),
	}
}

// Configured reports whether all credentials are present.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.accountID != "" && c.apiToken != ""
}

// AddLabels merges the requested labels into the conversation's existing
// label set and writes the union back as a full replacement list. The merge
// is idempotent and order-insensitive.
func (c *Client) AddLabels(ctx context.Context, conversationID string, labels []string) (*LabelsResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	existing, err := c.fetchLabels(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	merged := mergeLabels(existing, labels)

	updated, err := c.setLabels(ctx, conversationID, merged)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		updated = merged
	}

	c.logger.Info("labels merged", "conversation_id", conversationID, "count", len(updated))
	return &LabelsResult{Labels: updated}, nil
}

// Handoff marks a conversation for human takeover: it attaches the handoff
// and reason labels, then posts a private note with the reason and summary.
func (c *Client) Handoff(ctx context.Context, conversationID, reason, summary string) (*HandoffResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	if reason == "" {
		reason = "handoff"
	}

	labels := []string{HandoffLabel, "reason_" + Slugify(reason)}
	if _, err := c.AddLabels(ctx, conversationID, labels); err != nil {
		return nil, err
	}

	note := fmt.Sprintf("HANDOFF\nReason: %s\n\nSummary:\n%s", reason, summary)
	if err := c.createPrivateNote(ctx, conversationID, note); err != nil {
		return nil, err
	}

	c.logger.Info("handoff issued", "conversation_id", conversationID, "reason", reason)
	return &HandoffResult{OK: true}, nil
}

// labelsPayload is Chatwoot's envelope for label reads and writes.
type labelsPayload struct {
	Payload []string `json:"payload"`
}

func (c *Client) fetchLabels(ctx context.Context, conversationID string) ([]string, error) {
	var out labelsPayload
	if err := c.do(ctx, http.MethodGet, c.labelsURL(conversationID), nil, &out); err != nil {
		return nil, err
	}
	return out.Payload, nil
}

func (c *Client) setLabels(ctx context.Context, conversationID string, labels []string) ([]string, error) {
	body := map[string]any{"labels": labels}
	var out labelsPayload
	if err := c.do(ctx, http.MethodPost, c.labelsURL(conversationID), body, &out); err != nil {
		return nil, err
	}
	return out.Payload, nil
}

func (c *Client) createPrivateNote(ctx context.Context, conversationID, content string) error {
	body := map[string]any{
		"content":            content,
		"message_type":       "outgoing",
		"private":            true,
		"content_type":       "text",
		"content_attributes": map[string]any{},
	}
	url := fmt.Sprintf("%s/api/v1/accounts/%s/conversations/%s/messages", c.baseURL, c.accountID, conversationID)
	return c.do(ctx, http.MethodPost, url, body, nil)
}

func (c *Client) labelsURL(conversationID string) string {
	return fmt.Sprintf("%s/api/v1/accounts/%s/conversations/%s/labels", c.baseURL, c.accountID, conversationID)
}

// do issues one API call through the circuit breaker. Error messages carry
// the HTTP status but never the response body or token, since they cross a
// trust boundary on their way back to the calling agent.
func (c *Client) do(ctx context.Context, method, url string, body any, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		var reader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("encoding request: %w", err)
			}
			reader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("api_access_token", c.apiToken)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("chatwoot request failed: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("reading chatwoot response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			c.logger.Warn("chatwoot API error", "status", resp.StatusCode, "url", url, "body_len", len(data))
			return nil, fmt.Errorf("chatwoot request failed with status %d", resp.StatusCode)
		}

		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return nil, fmt.Errorf("decoding chatwoot response: %w", err)
			}
		}
		return nil, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("chatwoot temporarily unavailable: %w", err)
	}
	return err
}

// mergeLabels returns the sorted set union of both label lists.
func mergeLabels(existing, requested []string) []string {
	set := make(map[string]struct{}, len(existing)+len(requested))
	for _, l := range existing {
		set[l] = struct{}{}
	}
	for _, l := range requested {
		set[l] = struct{}{}
	}

	merged := make([]string, 0, len(set))
	for l := range set {
		merged = append(merged, l)
	}
	sort.Strings(merged)
	return merged
}

// Slugify lowercases s and collapses non-alphanumeric runs into single
// underscores, truncated to maxSlugLen. Used for reason labels.
func Slugify(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	slug := strings.Trim(b.String(), "_")
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	return slug
}
