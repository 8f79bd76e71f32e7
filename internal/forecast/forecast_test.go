// internal/forecast/forecast_test.go
package forecast

import (
	"errors"
	"testing"
)

func validForecast() *Forecast {
	return &Forecast{
		EventID:     "evt-1",
		Outcome:     OutcomeYes,
		Probability: 0.72,
		Claims: []Claim{
			{Text: "Official announcement scheduled", Source: "example.com/press"},
		},
		Rationale: "Primary sources point to an on-time release.",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Forecast)
		ok     bool
	}{
		{"valid", func(f *Forecast) {}, true},
		{"probability zero is allowed", func(f *Forecast) { f.Probability = 0.0 }, true},
		{"probability one is allowed", func(f *Forecast) { f.Probability = 1.0 }, true},
		{"probability above one", func(f *Forecast) { f.Probability = 1.2 }, false},
		{"probability negative", func(f *Forecast) { f.Probability = -0.1 }, false},
		{"bad outcome", func(f *Forecast) { f.Outcome = "MAYBE" }, false},
		{"no claims", func(f *Forecast) { f.Claims = nil }, false},
		{"missing event id", func(f *Forecast) { f.EventID = "" }, false},
		{"empty rationale", func(f *Forecast) { f.Rationale = "  " }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForecast()
			tt.mutate(f)
			err := f.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrInvalid) {
					t.Errorf("error %v should wrap ErrInvalid", err)
				}
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	payload := `{
		"event_id": "evt-9",
		"prediction": "NO",
		"probability": 0.35,
		"key_facts": [
			{"claim": "Regulatory review still pending", "source": "gov.example"},
			{"claim": "No shipping date announced", "source": "example.com"}
		],
		"rationale": "Timeline looks unrealistic given the open approvals."
	}`

	tests := []struct {
		name string
		raw  string
	}{
		{"clean json", payload},
		{"json fence", "```json\n" + payload + "\n```"},
		{"bare fence", "```\n" + payload + "\n```"},
		{"fence with preamble", "Here is my analysis:\n```json\n" + payload + "\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if f.EventID != "evt-9" || f.Outcome != OutcomeNo || f.Probability != 0.35 {
				t.Errorf("parsed fields wrong: %+v", f)
			}
			if len(f.Claims) != 2 || f.Claims[0].Source != "gov.example" {
				t.Errorf("claims wrong: %+v", f.Claims)
			}
		})
	}
}

func TestParseLowercaseOutcome(t *testing.T) {
	f, err := Parse(`{"event_id":"e","prediction":"yes","probability":0.5,"key_facts":[{"claim":"c","source":"s"}],"rationale":"r"}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Outcome != OutcomeYes {
		t.Errorf("outcome = %q, want YES", f.Outcome)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, raw := range []string{
		"not json at all",
		`{"event_id":"e","prediction":"YES","probability":1.5,"key_facts":[{"claim":"c","source":"s"}],"rationale":"r"}`,
		`{"event_id":"e","prediction":"YES","probability":0.5,"key_facts":[],"rationale":"r"}`,
		"",
	} {
		if _, err := Parse(raw); !errors.Is(err, ErrInvalid) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalid", raw, err)
		}
	}
}

func TestConsensus(t *testing.T) {
	yes := func() *Forecast { f := validForecast(); f.Outcome = OutcomeYes; return f }
	no := func() *Forecast { f := validForecast(); f.Outcome = OutcomeNo; return f }

	tests := []struct {
		name      string
		forecasts []*Forecast
		want      bool
	}{
		{"all yes", []*Forecast{yes(), yes(), yes()}, true},
		{"all no", []*Forecast{no(), no()}, true},
		{"split", []*Forecast{yes(), yes(), no()}, false},
		{"single", []*Forecast{yes()}, true},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Consensus(tt.forecasts); got != tt.want {
				t.Errorf("Consensus = %v, want %v", got, tt.want)
			}
		})
	}
}
