// internal/agent/agent.go
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"foresight/internal/forecast"
	"foresight/internal/llm"
	"foresight/internal/research"
)

// Agent binds a persona to an LLM adapter and produces one locked forecast
// per event. Agents whose credential failed classification stay in the
// roster but report themselves inactive; the run surfaces them as a notice
// instead of failing outright.
type Agent struct {
	name       string
	archetype  string
	client     *llm.Client
	researcher *research.Client
	logger     *zap.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithResearcher wires a web research client. Agents without one fall back
// to structured generation with no tool phase.
func WithResearcher(r *research.Client) Option {
	return func(a *Agent) { a.researcher = r }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// New creates an agent. The archetype may be a built-in name ("precision")
// or free-form persona text.
func New(name, archetype string, client *llm.Client, opts ...Option) *Agent {
	a := &Agent{
		name:      name,
		archetype: ResolveArchetype(archetype),
		client:    client,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// Archetype returns the resolved persona text.
func (a *Agent) Archetype() string { return a.archetype }

// Client exposes the bound adapter for the debate engine's turn calls.
func (a *Agent) Client() *llm.Client { return a.client }

// Active reports whether the agent has a usable provider connection.
func (a *Agent) Active() bool { return a.client.IsValid() }

// Describe returns a display string like "Analyst: Groq (llama-3.3-70b-versatile)".
func (a *Agent) Describe() string {
	return fmt.Sprintf("%s: %s", a.name, a.client.Describe())
}

// ProduceForecast researches the event and returns a validated, locked
// forecast. Schema violations in the model output surface as
// forecast.ErrInvalid and are never coerced; adapter failures pass through
// for the caller's retry policy.
func (a *Agent) ProduceForecast(ctx context.Context, event *forecast.EventRecord) (*forecast.Forecast, error) {
	system := systemPromptPrefix + "\n" + a.archetype
	prompt := predictionPrompt(event)

	var raw string
	var err error
	if a.researcher != nil && a.researcher.Configured() && a.client.SupportsTools() {
		raw, err = a.client.GenerateWithTools(ctx, prompt, system,
			[]llm.Tool{research.SearchTool()}, a.researcher.Executor())
	} else {
		raw, err = a.client.GenerateStructured(ctx, prompt, system)
	}
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.name, err)
	}

	f, err := forecast.Parse(raw)
	if err != nil {
		a.logger.Warn("forecast rejected",
			zap.String("agent", a.name),
			zap.Error(err))
		return nil, fmt.Errorf("agent %s: %w", a.name, err)
	}

	// The event under analysis is authoritative; what the model echoed back
	// is only a formatting aid.
	f.EventID = event.EventID
	f.AgentName = a.name

	a.logger.Info("forecast locked",
		zap.String("agent", a.name),
		zap.String("outcome", string(f.Outcome)),
		zap.Float64("probability", f.Probability))
	return f, nil
}
