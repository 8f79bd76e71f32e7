// internal/forecast/forecast.go
package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Outcome is a binary market call.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// ErrInvalid is returned when a model's output cannot be accepted as a
// forecast. Schema violations are never coerced (no clamping, no defaults);
// the caller decides whether to retry, skip the agent, or abort.
var ErrInvalid = errors.New("invalid forecast")

// Claim is a single piece of supporting evidence.
type Claim struct {
	Text   string `json:"claim"`
	Source string `json:"source"`
}

// Forecast is one agent's locked YES/NO call for an event. Once validated it
// is immutable for the remainder of the run.
type Forecast struct {
	EventID     string  `json:"event_id"`
	AgentName   string  `json:"-"`
	Outcome     Outcome `json:"prediction"`
	Probability float64 `json:"probability"`
	Claims      []Claim `json:"key_facts"`
	Rationale   string  `json:"rationale"`
}

// EventRecord is the immutable market event under prediction. It is owned by
// the market data source; everything downstream treats it as read-only.
type EventRecord struct {
	EventID           string
	Title             string
	Description       string
	ResolutionRules   string
	ResolutionDate    string
	MarketProbability float64 // 0 when the market has no quote
	Liquidity         float64
}

// Validate checks the field constraints of a forecast. It reports the first
// violation wrapped in ErrInvalid.
func (f *Forecast) Validate() error {
	if f.EventID == "" {
		return fmt.Errorf("%w: missing event_id", ErrInvalid)
	}
	if f.Outcome != OutcomeYes && f.Outcome != OutcomeNo {
		return fmt.Errorf("%w: prediction must be YES or NO, got %q", ErrInvalid, f.Outcome)
	}
	if f.Probability < 0.0 || f.Probability > 1.0 {
		return fmt.Errorf("%w: probability %v outside [0, 1]", ErrInvalid, f.Probability)
	}
	if len(f.Claims) == 0 {
		return fmt.Errorf("%w: at least one key fact is required", ErrInvalid)
	}
	if strings.TrimSpace(f.Rationale) == "" {
		return fmt.Errorf("%w: empty rationale", ErrInvalid)
	}
	return nil
}

// Parse decodes a model response into a validated forecast. Markdown code
// fences are stripped first, since models wrap JSON in ```json blocks even
// when told not to.
func Parse(raw string) (*Forecast, error) {
	cleaned := CleanJSON(raw)

	var f Forecast
	if err := json.Unmarshal([]byte(cleaned), &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	f.Outcome = Outcome(strings.ToUpper(strings.TrimSpace(string(f.Outcome))))
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// CleanJSON strips markdown code fences from a model response, returning the
// inner payload. Responses without fences pass through trimmed.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+len("```"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}
	return s
}

// Consensus reports whether all locked forecasts share one outcome.
// An empty set has no consensus.
func Consensus(forecasts []*Forecast) bool {
	if len(forecasts) == 0 {
		return false
	}
	first := forecasts[0].Outcome
	for _, f := range forecasts[1:] {
		if f.Outcome != first {
			return false
		}
	}
	return true
}
