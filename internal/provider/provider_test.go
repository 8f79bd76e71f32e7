// internal/provider/provider_test.go
package provider

import (
	"strings"
	"testing"
)

func TestIdentify(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		identity   Identity
		model      string
		tools      bool
		nativeJSON bool
	}{
		{
			name:       "groq key",
			credential: "gsk_" + strings.Repeat("a", 40),
			identity:   IdentityGroq,
			model:      "llama-3.3-70b-versatile",
			tools:      true,
			nativeJSON: true,
		},
		{
			name:       "openai key",
			credential: "sk-" + strings.Repeat("b", 40),
			identity:   IdentityOpenAI,
			model:      "gpt-4o",
			tools:      true,
			nativeJSON: true,
		},
		{
			name:       "xai key",
			credential: "xai-" + strings.Repeat("c", 40),
			identity:   IdentityXAI,
			model:      "grok-2-latest",
			tools:      true,
			nativeJSON: false,
		},
		{
			name:       "gemini key",
			credential: "AIza" + strings.Repeat("d", 35),
			identity:   IdentityGemini,
			model:      "gemini-2.0-flash",
			tools:      false,
			nativeJSON: true,
		},
		{
			name:       "unrecognized shape falls back to gemini",
			credential: strings.Repeat("z", 40),
			identity:   IdentityGemini,
			model:      "gemini-2.0-flash",
			tools:      false,
			nativeJSON: true,
		},
		{
			name:       "too short",
			credential: "gsk_short",
			identity:   IdentityUnknown,
		},
		{
			name:       "empty",
			credential: "",
			identity:   IdentityUnknown,
		},
		{
			name:       "placeholder rejected despite length",
			credential: "your_api_key_here_please_replace_me",
			identity:   IdentityUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Identify(tt.credential)
			if info.Identity != tt.identity {
				t.Errorf("identity = %v, want %v", info.Identity, tt.identity)
			}
			if tt.identity == IdentityUnknown {
				if info.DefaultModel != "" || info.Capabilities.Tools || info.Capabilities.NativeJSON {
					t.Errorf("unknown identity must carry no model or capabilities, got %+v", info)
				}
				return
			}
			if info.DefaultModel != tt.model {
				t.Errorf("model = %q, want %q", info.DefaultModel, tt.model)
			}
			if info.Capabilities.Tools != tt.tools {
				t.Errorf("tools = %v, want %v", info.Capabilities.Tools, tt.tools)
			}
			if info.Capabilities.NativeJSON != tt.nativeJSON {
				t.Errorf("nativeJSON = %v, want %v", info.Capabilities.NativeJSON, tt.nativeJSON)
			}
		})
	}
}

func TestIdentifyNeverPanics(t *testing.T) {
	inputs := []string{"", " ", "\n", "sk-", "gsk_", strings.Repeat("x", 10000), "AIza"}
	for _, in := range inputs {
		_ = Identify(in) // must be total over all strings
	}
}

func TestValid(t *testing.T) {
	if Valid("short") {
		t.Error("short credential must be invalid")
	}
	if Valid("CHANGEME_CHANGEME_CHANGEME_CHANGEME") {
		t.Error("placeholder credential must be invalid")
	}
	if !Valid("gsk_" + strings.Repeat("a", 40)) {
		t.Error("well-formed credential must be valid")
	}
}

func TestBaseURL(t *testing.T) {
	if got := IdentityGroq.BaseURL(); got != BaseURLGroq {
		t.Errorf("groq base url = %q", got)
	}
	if got := IdentityGemini.BaseURL(); got != "" {
		t.Errorf("gemini has its own transport, base url should be empty, got %q", got)
	}
}
