// internal/llm/adapter.go
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"foresight/internal/provider"
)

// maxToolIterations caps the tool-call loop so a model that keeps asking for
// searches cannot spin forever.
const maxToolIterations = 3

// jsonOnlyInstruction is appended to prompts on providers without native
// JSON-constrained decoding. Callers still strip fences before parsing.
const jsonOnlyInstruction = "\n\nRespond with valid JSON only."

// Tool describes a function the model may request during generation.
// Parameters is a JSON-schema object.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolExecutor runs a tool requested by the model. Executors never fail: an
// internal problem comes back as a bounded error string that is fed to the
// model as the tool result, so the model can reason about the absence of
// evidence.
type ToolExecutor func(ctx context.Context, name string, args map[string]any) string

// Client is a unified adapter over one provider connection. The credential
// is classified once at construction and never re-probed; every operation is
// a fresh upstream call with no retry and no caching. Retry policy belongs
// to the caller.
type Client struct {
	info   provider.Info
	model  string
	chat   *chatTransport
	gemini *geminiTransport
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	model   string
	baseURL string
	rpm     int
	logger  *zap.Logger
}

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(o *clientOptions) { o.model = model }
}

// WithBaseURL overrides the chat endpoint base, primarily for tests.
func WithBaseURL(url string) Option {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithRequestsPerMinute tunes client-side pacing.
func WithRequestsPerMinute(rpm int) Option {
	return func(o *clientOptions) { o.rpm = rpm }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// New builds an adapter bound to one credential. Construction always
// succeeds; an unusable credential yields a client whose IsValid is false
// and whose operations fail with ErrAuth.
func New(credential string, opts ...Option) *Client {
	options := clientOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&options)
	}

	info := provider.Identify(credential)
	c := &Client{
		info:   info,
		model:  options.model,
		logger: options.logger,
	}
	if c.model == "" {
		c.model = info.DefaultModel
	}

	switch info.Identity {
	case provider.IdentityGroq, provider.IdentityOpenAI, provider.IdentityXAI:
		baseURL := options.baseURL
		if baseURL == "" {
			baseURL = info.Identity.BaseURL()
		}
		c.chat = &chatTransport{
			apiKey:  credential,
			baseURL: baseURL,
			client:  newPacedClient(options.rpm),
		}
	case provider.IdentityGemini:
		c.gemini = &geminiTransport{apiKey: credential}
	}

	return c
}

// IsValid reports whether the bound credential passed validity checks and
// mapped to a recognized provider.
func (c *Client) IsValid() bool {
	return c.info.Identity != provider.IdentityUnknown
}

// Identity returns the classified provider identity.
func (c *Client) Identity() provider.Identity {
	return c.info.Identity
}

// Model returns the model this client generates with.
func (c *Client) Model() string {
	return c.model
}

// SupportsTools reports whether tool-augmented generation runs the real
// two-phase protocol on this provider.
func (c *Client) SupportsTools() bool {
	return c.info.Capabilities.Tools
}

// Describe returns a display string like "Groq (llama-3.3-70b-versatile)".
func (c *Client) Describe() string {
	if !c.IsValid() {
		return "invalid credential"
	}
	return fmt.Sprintf("%s (%s)", c.info.Identity.DisplayName(), c.model)
}

// Generate performs a plain completion and returns the trimmed text.
func (c *Client) Generate(ctx context.Context, prompt, system string) (string, error) {
	if !c.IsValid() {
		return "", fmt.Errorf("%w: credential rejected at construction", ErrAuth)
	}

	if c.gemini != nil {
		return c.gemini.generate(ctx, c.model, prompt, system, false)
	}

	msg, err := c.chat.complete(ctx, c.model, buildMessages(prompt, system), chatOptions{})
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

// GenerateStructured requests JSON output. Providers with native JSON mode
// get constrained decoding; the rest get a JSON-only instruction appended to
// the prompt. Either way the model may still wrap output in fences, so
// callers strip them before parsing.
func (c *Client) GenerateStructured(ctx context.Context, prompt, system string) (string, error) {
	if !c.IsValid() {
		return "", fmt.Errorf("%w: credential rejected at construction", ErrAuth)
	}

	if c.gemini != nil {
		return c.gemini.generate(ctx, c.model, prompt, system, c.info.Capabilities.NativeJSON)
	}

	if !c.info.Capabilities.NativeJSON {
		msg, err := c.chat.complete(ctx, c.model, buildMessages(prompt+jsonOnlyInstruction, system), chatOptions{})
		if err != nil {
			return "", err
		}
		return msg.Content, nil
	}

	msg, err := c.chat.complete(ctx, c.model, buildMessages(prompt, system), chatOptions{jsonMode: true})
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

// GenerateWithTools runs the two-phase tool protocol: send the prompt with
// the tool schema, execute any requested tools through the executor, feed
// results back, and repeat until the model produces text or the iteration
// cap is hit. On providers without tool calling this degrades to Generate,
// silently dropping tool semantics.
func (c *Client) GenerateWithTools(ctx context.Context, prompt, system string, tools []Tool, executor ToolExecutor) (string, error) {
	if !c.IsValid() {
		return "", fmt.Errorf("%w: credential rejected at construction", ErrAuth)
	}

	if !c.info.Capabilities.Tools || len(tools) == 0 || executor == nil {
		c.logger.Debug("tool calling unavailable, degrading to plain generation",
			zap.String("provider", c.info.Identity.String()))
		return c.Generate(ctx, prompt, system)
	}

	messages := buildMessages(prompt, system)
	opts := chatOptions{tools: tools}

	msg, err := c.chat.complete(ctx, c.model, messages, opts)
	if err != nil {
		return "", err
	}

	for iteration := 0; len(msg.ToolCalls) > 0; iteration++ {
		if iteration >= maxToolIterations {
			if msg.Content != "" {
				return msg.Content, nil
			}
			return "", fmt.Errorf("%w: still requesting tools after %d rounds", ErrToolLoopExceeded, maxToolIterations)
		}

		messages = append(messages, *msg)
		for _, call := range msg.ToolCalls {
			var args map[string]any
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				args = map[string]any{}
			}
			c.logger.Debug("executing tool call",
				zap.String("tool", call.Function.Name),
				zap.String("provider", c.info.Identity.String()))
			result := executor(ctx, call.Function.Name, args)
			messages = append(messages, chatMessage{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    result,
			})
		}

		msg, err = c.chat.complete(ctx, c.model, messages, opts)
		if err != nil {
			return "", err
		}
	}

	if msg.Content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrMalformed)
	}
	return msg.Content, nil
}

func buildMessages(prompt, system string) []chatMessage {
	var messages []chatMessage
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	return append(messages, chatMessage{Role: "user", Content: prompt})
}
