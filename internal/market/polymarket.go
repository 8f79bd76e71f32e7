// internal/market/polymarket.go
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"foresight/internal/forecast"
)

const defaultBaseURL = "https://gamma-api.polymarket.com"

// Client fetches prediction-market events from the Polymarket Gamma API.
// It is the read-only data source for every run: everything downstream gets
// an immutable EventRecord and never talks to the market again.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a market client.
func New(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// SetBaseURL overrides the API base, primarily for tests.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// eventID tolerates the Gamma API serializing ids as either numbers or strings.
type eventID string

func (e *eventID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*e = eventID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*e = eventID(s)
	return nil
}

type gammaEvent struct {
	ID                eventID     `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	Rules             string      `json:"rules"`
	MarketProbability float64     `json:"market_probability"`
	Liquidity         float64     `json:"liquidity"`
	EndsAt            string      `json:"ends_at"`
}

func (g *gammaEvent) toRecord() *forecast.EventRecord {
	return &forecast.EventRecord{
		EventID:           string(g.ID),
		Title:             g.Title,
		Description:       g.Description,
		ResolutionRules:   g.Rules,
		ResolutionDate:    g.EndsAt,
		MarketProbability: g.MarketProbability,
		Liquidity:         g.Liquidity,
	}
}

// GetEvent fetches one event. The identifier may be a numeric ID, a slug, or
// a full polymarket.com event URL.
func (c *Client) GetEvent(ctx context.Context, identifier string) (*forecast.EventRecord, error) {
	identifier = normalizeIdentifier(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("empty event identifier")
	}

	if isNumeric(identifier) {
		body, err := c.get(ctx, "/events/"+identifier, nil)
		if err != nil {
			return nil, err
		}
		var event gammaEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		return event.toRecord(), nil
	}

	// Slugs resolve through the list endpoint, which returns an array.
	body, err := c.get(ctx, "/events", url.Values{"slug": {identifier}})
	if err != nil {
		return nil, err
	}
	var events []gammaEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no event found for slug %q", identifier)
	}
	return events[0].toRecord(), nil
}

// Trending lists active events ordered by liquidity, filtered by a search
// term. Used for event discovery from the CLI.
func (c *Client) Trending(ctx context.Context, search string, limit int) ([]*forecast.EventRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{
		"active":    {"true"},
		"closed":    {"false"},
		"limit":     {fmt.Sprint(limit)},
		"order":     {"liquidity"},
		"ascending": {"false"},
	}
	if search != "" {
		params.Set("search", search)
	}

	body, err := c.get(ctx, "/events", params)
	if err != nil {
		return nil, err
	}
	var events []gammaEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	records := make([]*forecast.EventRecord, 0, len(events))
	for i := range events {
		records = append(records, events[i].toRecord())
	}
	return records, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("market request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read market response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market API returned status %d", resp.StatusCode)
	}
	return body, nil
}

// normalizeIdentifier reduces a full event URL to its slug.
func normalizeIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if idx := strings.Index(identifier, "polymarket.com/event/"); idx >= 0 {
		identifier = identifier[idx+len("polymarket.com/event/"):]
		if q := strings.IndexByte(identifier, '?'); q >= 0 {
			identifier = identifier[:q]
		}
		identifier = strings.Trim(identifier, "/")
	}
	return identifier
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
