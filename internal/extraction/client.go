package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/models"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1/messages"
	maxTokens      = 8192
	// responseLimit caps how much of a reply is read, misbehaving endpoints included.
	responseLimit = 4 << 20
)

// HTTPClient calls a messages-style model endpoint for line item extraction.
type HTTPClient struct {
	cfg        *config.ExtractionConfig
	httpClient *http.Client
	logger     *zap.Logger // optional; when set, logs call outcomes
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithLogger sets a logger for per-call debug output.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *HTTPClient) { c.logger = l }
}

// NewHTTPClient creates a client. The per-call timeout comes from the config.
func NewHTTPClient(cfg *config.ExtractionConfig, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ExtractChunk sends one chunk to the model and parses the JSON item array
// from its reply. Rate limits and server errors come back as RetryableError
// so the pipeline can back off and retry.
func (c *HTTPClient) ExtractChunk(ctx context.Context, chunk models.Chunk) ([]models.ExtractedLineItem, error) {
	reqBody := messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: maxTokens,
		Messages: []message{
			{Role: "user", Content: BuildChunkPrompt(chunk)},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.cfg.BaseURL
	if url == "" {
		url = defaultBaseURL
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("extraction api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, responseLimit))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp messagesResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("extraction error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Content) == 0 {
		return nil, fmt.Errorf("empty response from extraction api")
	}

	text := stripCodeBlock(apiResp.Content[0].Text)

	var items []models.ExtractedLineItem
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("parse items json: %w (raw: %s)", err, truncate(text, 200))
	}

	kept := sanitizeItems(items)
	if c.logger != nil {
		c.logger.Debug("chunk extracted",
			zap.Int("chunk_index", chunk.ChunkIndex),
			zap.Int("items", len(kept)),
			zap.Int("dropped", len(items)-len(kept)))
	}
	return kept, nil
}

// Close releases idle connections.
func (c *HTTPClient) Close() {
	c.httpClient.CloseIdleConnections()
}

// sanitizeItems drops entries the model should not have produced: blank
// descriptions and negative quantities.
func sanitizeItems(items []models.ExtractedLineItem) []models.ExtractedLineItem {
	kept := items[:0]
	for _, item := range items {
		item.Description = strings.TrimSpace(item.Description)
		if item.Description == "" {
			continue
		}
		if item.Quantity != nil && *item.Quantity < 0 {
			item.Quantity = nil
		}
		kept = append(kept, item)
	}
	return kept
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError indicates a transient extraction failure worth retrying.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}
