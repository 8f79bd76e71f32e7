// internal/llm/errors.go
package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Failure taxonomy surfaced to callers. The adapter never retries on its own;
// callers match with errors.Is and apply their own retry or skip policy.
var (
	ErrAuth             = errors.New("invalid or unauthorized credential")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrUnavailable      = errors.New("provider unavailable")
	ErrMalformed        = errors.New("malformed provider response")
	ErrToolLoopExceeded = errors.New("tool call loop exceeded")
)

// classifyStatus maps an HTTP status and response body onto the failure
// taxonomy. Provider-specific quota messages arrive with assorted status
// codes, so the body is checked for quota signals too.
func classifyStatus(status int, body string) error {
	lower := strings.ToLower(body)
	switch {
	case status == 401 || status == 403:
		return fmt.Errorf("%w: status %d", ErrAuth, status)
	case status == 429:
		return fmt.Errorf("%w: status 429", ErrRateLimited)
	case strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit"):
		return fmt.Errorf("%w: %s", ErrRateLimited, truncate(body, 120))
	default:
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, status, truncate(body, 200))
	}
}

// classifyTransportErr maps a non-HTTP failure (SDK errors, connection
// failures) onto the taxonomy by message shape, the same signals the provider
// SDKs put in their error strings.
func classifyTransportErr(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "api key"):
		return fmt.Errorf("%w: %v", ErrAuth, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
