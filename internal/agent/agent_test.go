// internal/agent/agent_test.go
package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foresight/internal/forecast"
	"foresight/internal/llm"
)

const testKey = "gsk_0123456789012345678901234567890123456789"

func testEvent() *forecast.EventRecord {
	return &forecast.EventRecord{
		EventID:         "evt-42",
		Title:           "Will the model ship this quarter?",
		Description:     "Resolution based on an official release announcement.",
		ResolutionRules: "YES if shipped before the target date.",
		ResolutionDate:  "2026-12-31",
	}
}

func chatServer(t *testing.T, reply string, captured *[]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []map[string]any `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if captured != nil {
			*captured = req.Messages
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestProduceForecast(t *testing.T) {
	reply := "```json\n" + `{
		"event_id": "something-the-model-made-up",
		"prediction": "YES",
		"probability": 0.8,
		"key_facts": [{"claim": "Beta already public", "source": "example.com"}],
		"rationale": "Release cadence points to an on-time ship."
	}` + "\n```"

	var messages []map[string]any
	server := chatServer(t, reply, &messages)
	defer server.Close()

	client := llm.New(testKey, llm.WithBaseURL(server.URL), llm.WithRequestsPerMinute(1_000_000))
	a := New("Analyst", "precision", client)
	require.True(t, a.Active())

	f, err := a.ProduceForecast(context.Background(), testEvent())
	require.NoError(t, err)

	assert.Equal(t, "evt-42", f.EventID, "event id comes from the event record, not the model echo")
	assert.Equal(t, "Analyst", f.AgentName)
	assert.Equal(t, forecast.OutcomeYes, f.Outcome)
	assert.InDelta(t, 0.8, f.Probability, 1e-9)

	// System prompt must carry the shared prefix plus the resolved archetype.
	require.NotEmpty(t, messages)
	system, _ := messages[0]["content"].(string)
	assert.Contains(t, system, "independent AI research agent")
	assert.Contains(t, system, "Precision-Oriented")

	user, _ := messages[1]["content"].(string)
	assert.Contains(t, user, "Will the model ship this quarter?")
	assert.Contains(t, user, "evt-42")
}

func TestProduceForecastInvalidOutput(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "I think YES, probably."},
		{"probability out of range", `{"event_id":"evt-42","prediction":"YES","probability":1.4,"key_facts":[{"claim":"c","source":"s"}],"rationale":"r"}`},
		{"no claims", `{"event_id":"evt-42","prediction":"NO","probability":0.4,"key_facts":[],"rationale":"r"}`},
		{"bad outcome", `{"event_id":"evt-42","prediction":"PROBABLY","probability":0.4,"key_facts":[{"claim":"c","source":"s"}],"rationale":"r"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := chatServer(t, tt.reply, nil)
			defer server.Close()

			client := llm.New(testKey, llm.WithBaseURL(server.URL), llm.WithRequestsPerMinute(1_000_000))
			a := New("Analyst", "precision", client)

			_, err := a.ProduceForecast(context.Background(), testEvent())
			require.Error(t, err)
			assert.ErrorIs(t, err, forecast.ErrInvalid)
		})
	}
}

func TestProduceForecastAdapterFailurePassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := llm.New(testKey, llm.WithBaseURL(server.URL), llm.WithRequestsPerMinute(1_000_000))
	a := New("Analyst", "precision", client)

	_, err := a.ProduceForecast(context.Background(), testEvent())
	assert.ErrorIs(t, err, llm.ErrRateLimited)
}

func TestInactiveAgent(t *testing.T) {
	a := New("Ghost", "precision", llm.New("your_api_key_here_please_replace"))
	assert.False(t, a.Active())

	_, err := a.ProduceForecast(context.Background(), testEvent())
	assert.ErrorIs(t, err, llm.ErrAuth)
}

func TestResolveArchetype(t *testing.T) {
	assert.Equal(t, ArchetypeEarlySignal, ResolveArchetype("early-signal"))
	custom := "ARCHETYPE: Contrarian\nAlways bet against the crowd."
	assert.Equal(t, custom, ResolveArchetype(custom))
}
