// internal/llm/chat.go
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// chatTransport speaks the OpenAI-compatible chat-completions protocol used
// by Groq, OpenAI, and xAI. One transport, different base URLs.
type chatTransport struct {
	apiKey  string
	baseURL string
	client  *pacedClient
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatToolSchema struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type chatRequest struct {
	Model          string           `json:"model"`
	Messages       []chatMessage    `json:"messages"`
	Tools          []chatToolSchema `json:"tools,omitempty"`
	ToolChoice     string           `json:"tool_choice,omitempty"`
	ResponseFormat *responseFormat  `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type chatOptions struct {
	tools    []Tool
	jsonMode bool
}

// complete issues one chat-completions call and returns the assistant
// message. It classifies every failure into the adapter taxonomy and never
// retries.
func (t *chatTransport) complete(ctx context.Context, model string, messages []chatMessage, opts chatOptions) (*chatMessage, error) {
	req := chatRequest{
		Model:    model,
		Messages: messages,
	}
	if len(opts.tools) > 0 {
		req.Tools = make([]chatToolSchema, len(opts.tools))
		for i, tool := range opts.tools {
			req.Tools[i].Type = "function"
			req.Tools[i].Function.Name = tool.Name
			req.Tools[i].Function.Description = tool.Description
			req.Tools[i].Function.Parameters = tool.Parameters
		}
		req.ToolChoice = "auto"
	}
	if opts.jsonMode {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := newJSONRequest(ctx, t.baseURL+"/chat/completions", body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(ctx, httpReq)
	if err != nil {
		return nil, classifyTransportErr(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if parsed.Error != nil {
		return nil, classifyStatus(resp.StatusCode, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrMalformed)
	}

	msg := parsed.Choices[0].Message
	msg.Content = strings.TrimSpace(msg.Content)
	return &msg, nil
}
