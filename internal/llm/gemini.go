// internal/llm/gemini.go
package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiTransport wraps the native Gemini SDK. Gemini does not share the
// OpenAI wire protocol, so it gets its own transport behind the same
// adapter surface. The SDK client is created lazily on first use because
// construction needs a context.
type geminiTransport struct {
	apiKey string
	client *genai.Client
}

func (t *geminiTransport) ensureClient(ctx context.Context) error {
	if t.client != nil {
		return nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  t.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return classifyTransportErr(err)
	}
	t.client = client
	return nil
}

// generate issues one Gemini call. System prompts become a system
// instruction; jsonMode switches on JSON-constrained decoding, which Gemini
// supports natively.
func (t *geminiTransport) generate(ctx context.Context, model, prompt, system string, jsonMode bool) (string, error) {
	if err := t.ensureClient(ctx); err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if jsonMode {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := t.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", classifyTransportErr(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty gemini response", ErrMalformed)
	}
	return text, nil
}
