// internal/debate/moderator.go
package debate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"foresight/internal/forecast"
	"foresight/internal/llm"
)

// Moderator decides how a debate is framed. It is a pure policy from the
// engine's point of view: the engine asks for an opening line, a per-turn
// framing instruction, and a closing line, and never cares how they are
// produced.
type Moderator interface {
	Opening(event *forecast.EventRecord, forecasts []*forecast.Forecast, consensus bool) string
	Instruction(round int, consensus bool) string
	Closing() string
}

const (
	openingLine = "Welcome to the panel. We have your predictions locked. I want a real debate, not polite agreement. Tear apart each other's logic."

	consensusOpeningSuffix = " You all agree on the outcome, so I want you to play Devil's Advocate. Find the tail risk. Why could you ALL be wrong?"

	closingLine = "Debate concluded. The market will settle the score."

	naturalInstruction = "Respond naturally to the last speaker. Don't just counter. Explain your thinking. Use an analogy if it helps. Speak like a human expert, not a bullet-point machine."

	devilsAdvocateInstruction = "Everyone seems to agree. Take a step back. Is there a scenario we are ignoring? Tell a story about how this could go wrong. Speak naturally."
)

// TemplateModerator frames debates with fixed text. It is the canonical
// moderator: no network calls, fully deterministic.
type TemplateModerator struct{}

func (TemplateModerator) Opening(event *forecast.EventRecord, forecasts []*forecast.Forecast, consensus bool) string {
	line := openingLine
	if consensus {
		line += consensusOpeningSuffix
	}
	return line
}

func (TemplateModerator) Instruction(round int, consensus bool) string {
	if consensus && round > 1 {
		return devilsAdvocateInstruction
	}
	return naturalInstruction
}

func (TemplateModerator) Closing() string {
	return closingLine
}

const moderatorSystemPrompt = `You are the Moderator of a prediction panel debate.
Independent agents have submitted locked YES/NO predictions for a market event.
Open the debate in two or three sharp sentences. Demand evidence, forbid
polite agreement, and if the panel already agrees, push them to hunt for the
tail risk. Do not reveal your own opinion on the outcome.`

// LLMModerator generates the opening line with an adapter and falls back to
// the fixed templates whenever generation fails. Framing instructions stay
// template-driven so the per-turn policy remains deterministic.
type LLMModerator struct {
	client   *llm.Client
	fallback TemplateModerator
	logger   *zap.Logger
}

// NewLLMModerator wraps an adapter as a moderator.
func NewLLMModerator(client *llm.Client, logger *zap.Logger) *LLMModerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMModerator{client: client, logger: logger}
}

func (m *LLMModerator) Opening(event *forecast.EventRecord, forecasts []*forecast.Forecast, consensus bool) string {
	var summary strings.Builder
	for _, f := range forecasts {
		fmt.Fprintf(&summary, "- %s predicts %s (%.0f%%)\n", f.AgentName, f.Outcome, f.Probability*100)
	}
	prompt := fmt.Sprintf("EVENT: %s\n\nLOCKED PREDICTIONS:\n%s", event.Title, summary.String())
	if consensus {
		prompt += "\nThe panel is unanimous."
	}

	line, err := m.client.Generate(context.Background(), prompt, moderatorSystemPrompt)
	if err != nil || strings.TrimSpace(line) == "" {
		m.logger.Warn("moderator generation failed, using template opening", zap.Error(err))
		return m.fallback.Opening(event, forecasts, consensus)
	}
	return strings.TrimSpace(line)
}

func (m *LLMModerator) Instruction(round int, consensus bool) string {
	return m.fallback.Instruction(round, consensus)
}

func (m *LLMModerator) Closing() string {
	return m.fallback.Closing()
}
