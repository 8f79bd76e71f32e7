// internal/provider/provider.go
package provider

import "strings"

// Identity names an upstream LLM provider, classified from the
// shape of a credential. The fallback for unrecognized keys is
// Gemini, which accepts bare project keys of arbitrary shape.
type Identity int

const (
	IdentityUnknown Identity = iota
	IdentityGroq
	IdentityOpenAI
	IdentityXAI
	IdentityGemini
)

func (i Identity) String() string {
	switch i {
	case IdentityGroq:
		return "groq"
	case IdentityOpenAI:
		return "openai"
	case IdentityXAI:
		return "xai"
	case IdentityGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// DisplayName returns the human-facing provider name.
func (i Identity) DisplayName() string {
	switch i {
	case IdentityGroq:
		return "Groq"
	case IdentityOpenAI:
		return "OpenAI"
	case IdentityXAI:
		return "xAI"
	case IdentityGemini:
		return "Gemini"
	default:
		return "Unknown"
	}
}

// Capabilities is the fixed feature set of a provider identity.
// It is determined solely by the identity, never by runtime probing.
type Capabilities struct {
	Tools      bool // function/tool calling
	NativeJSON bool // JSON-constrained decoding
}

// Info is the result of classifying a credential.
type Info struct {
	Identity     Identity
	DefaultModel string
	Capabilities Capabilities
}

const (
	// minKeyLength is the shortest credential accepted as valid.
	// Anything shorter is noise (empty, truncated paste, test stub).
	minKeyLength = 21

	// BaseURLGroq and BaseURLXAI are OpenAI-compatible endpoints.
	BaseURLGroq   = "https://api.groq.com/openai/v1"
	BaseURLOpenAI = "https://api.openai.com/v1"
	BaseURLXAI    = "https://api.x.ai/v1"
)

var identityTable = []struct {
	prefix string
	info   Info
}{
	{"gsk_", Info{IdentityGroq, "llama-3.3-70b-versatile", Capabilities{Tools: true, NativeJSON: true}}},
	{"sk-", Info{IdentityOpenAI, "gpt-4o", Capabilities{Tools: true, NativeJSON: true}}},
	{"xai-", Info{IdentityXAI, "grok-2-latest", Capabilities{Tools: true, NativeJSON: false}}},
	{"AIza", Info{IdentityGemini, "gemini-2.0-flash", Capabilities{Tools: false, NativeJSON: true}}},
}

// geminiFallback is returned for valid keys with no recognized prefix.
var geminiFallback = Info{IdentityGemini, "gemini-2.0-flash", Capabilities{Tools: false, NativeJSON: true}}

// Identify classifies a credential into a provider identity, default model,
// and capability set. Total over all strings: it never fails, but credentials
// that are too short or look like placeholders come back as IdentityUnknown
// with no capabilities. Callers must treat "unknown" as invalid, which is
// distinct from a recognized provider with few capabilities.
func Identify(credential string) Info {
	if !Valid(credential) {
		return Info{Identity: IdentityUnknown}
	}
	for _, entry := range identityTable {
		if strings.HasPrefix(credential, entry.prefix) {
			return entry.info
		}
	}
	return geminiFallback
}

// Valid reports whether a credential is usable at all. Placeholder values
// left over from config templates ("your_api_key_here", "changeme") are
// rejected regardless of length.
func Valid(credential string) bool {
	if len(credential) < minKeyLength {
		return false
	}
	lower := strings.ToLower(credential)
	for _, placeholder := range []string{"your_", "your-", "changeme", "placeholder", "xxxx"} {
		if strings.HasPrefix(lower, placeholder) {
			return false
		}
	}
	return true
}

// BaseURL returns the chat-completions endpoint base for OpenAI-compatible
// identities and "" for identities with their own transport.
func (i Identity) BaseURL() string {
	switch i {
	case IdentityGroq:
		return BaseURLGroq
	case IdentityOpenAI:
		return BaseURLOpenAI
	case IdentityXAI:
		return BaseURLXAI
	default:
		return ""
	}
}
