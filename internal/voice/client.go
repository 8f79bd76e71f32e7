// internal/voice/client.go
// Fire-and-forget narration client. Sends spoken lines to a local TTS
// daemon; when the daemon isn't running the debate proceeds silently.
package voice

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultEndpoint is the local TTS daemon speak endpoint.
const DefaultEndpoint = "http://localhost:5002/speak"

const queueSize = 64

// Utterance is one line of speech with its attributed speaker.
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Client queues utterances and delivers them in order on a single worker,
// so narration never interleaves even when turns complete quickly.
type Client struct {
	endpoint   string
	httpClient *http.Client
	enabled    bool
	queue      chan Utterance
	done       chan struct{}
	logger     *zap.Logger
}

// NewClient creates a narration client and starts its delivery worker.
func NewClient(endpoint string, enabled bool, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		enabled: enabled,
		queue:   make(chan Utterance, queueSize),
		done:    make(chan struct{}),
		logger:  logger,
	}
	go c.worker()
	return c
}

// Enabled reports whether narration is active.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Say queues a line for narration. Never blocks; when the queue is full the
// line is dropped rather than stalling the debate.
func (c *Client) Say(speaker, text string) {
	if !c.enabled || text == "" {
		return
	}
	select {
	case c.queue <- Utterance{Speaker: speaker, Text: text}:
	default:
		c.logger.Debug("narration queue full, dropping line", zap.String("speaker", speaker))
	}
}

// Close drains the queue and stops the worker. Queued lines already accepted
// are still delivered.
func (c *Client) Close() {
	close(c.queue)
	<-c.done
}

func (c *Client) worker() {
	defer close(c.done)
	for u := range c.queue {
		c.send(u)
	}
}

func (c *Client) send(u Utterance) {
	body, err := json.Marshal(u)
	if err != nil {
		return
	}

	resp, err := c.httpClient.Post(c.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		// Connection failures are expected when the daemon isn't running.
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.logger.Debug("narration rejected", zap.Int("status", resp.StatusCode))
	}
}
