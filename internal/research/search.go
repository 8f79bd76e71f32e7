// internal/research/search.go
package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"foresight/internal/llm"
)

const (
	defaultEndpoint = "https://api.tavily.com/search"

	// Sentinel returned whenever a search cannot be performed. It is a tool
	// result, not an error: the model should see that research was attempted
	// and reason about the missing evidence.
	unavailableSentinel = "Web search was requested but is unavailable. Reason with the evidence already at hand."

	maxResults    = 3
	maxSnippetLen = 300
)

// Client performs web research through the Tavily search API. Execute never
// fails; every problem degrades to a sentinel string.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a research client. An empty API key is allowed; the client
// then answers every query with the unavailable sentinel.
func New(apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		logger: logger,
	}
}

// SetEndpoint overrides the search endpoint, primarily for tests.
func (c *Client) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

// Configured reports whether a search key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type searchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Execute runs one search and formats the top results as "- <title>: <snippet>"
// lines, bounded in count and snippet length. It returns a sentinel string on
// missing configuration, transport failure, or an empty result set.
func (c *Client) Execute(ctx context.Context, query string) string {
	if c.apiKey == "" {
		return unavailableSentinel
	}

	body, err := json.Marshal(searchRequest{
		APIKey:      c.apiKey,
		Query:       query,
		SearchDepth: "advanced",
		MaxResults:  maxResults,
	})
	if err != nil {
		return unavailableSentinel
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return unavailableSentinel
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("search request failed", zap.Error(err))
		return unavailableSentinel
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		c.logger.Warn("search returned non-OK status", zap.Int("status", resp.StatusCode))
		return unavailableSentinel
	}

	var parsed searchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return unavailableSentinel
	}
	if len(parsed.Results) == 0 {
		return "No search results found for: " + query
	}

	var sb strings.Builder
	for i, r := range parsed.Results {
		if i >= maxResults {
			break
		}
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = r.URL
		}
		snippet := strings.TrimSpace(r.Content)
		if len(snippet) > maxSnippetLen {
			snippet = snippet[:maxSnippetLen] + "..."
		}
		fmt.Fprintf(&sb, "- %s: %s\n", title, snippet)
	}
	return strings.TrimSpace(sb.String())
}

// SearchTool is the function schema advertised to tool-capable models.
func SearchTool() llm.Tool {
	return llm.Tool{
		Name:        "web_search",
		Description: "Search the web for current, real-time information about a topic. Use this to find facts, news, data, and evidence to support your analysis.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query to find relevant information",
				},
			},
			"required": []string{"query"},
		},
	}
}

// Executor adapts the client to the adapter's tool executor contract.
// Unknown tool names come back as a bounded notice rather than an error.
func (c *Client) Executor() llm.ToolExecutor {
	return func(ctx context.Context, name string, args map[string]any) string {
		if name != "web_search" {
			return fmt.Sprintf("Tool %q is not available.", name)
		}
		query, _ := args["query"].(string)
		if strings.TrimSpace(query) == "" {
			return "Search skipped: empty query."
		}
		return c.Execute(ctx, query)
	}
}
