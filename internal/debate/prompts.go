// internal/debate/prompts.go
package debate

import (
	"fmt"
	"strings"

	"foresight/internal/forecast"
)

// turnPrompt builds the prompt for one discussion turn: the speaker's locked
// forecast, the bounded conversation window, and the moderator's framing
// instruction. The very first speaker of round one opens the discussion
// instead of reacting.
func (e *Engine) turnPrompt(event *forecast.EventRecord, p Participant, active []Participant, transcript []Turn, round, position int, instruction string) string {
	if round == 1 && position == 0 {
		return openingTurnPrompt(event, p.Forecast, active)
	}
	return reactionPrompt(event, p.Forecast, transcript, instruction)
}

func openingTurnPrompt(event *forecast.EventRecord, f *forecast.Forecast, active []Participant) string {
	var others strings.Builder
	for _, p := range active {
		rationale := p.Forecast.Rationale
		if len(rationale) > 100 {
			rationale = rationale[:100] + "..."
		}
		fmt.Fprintf(&others, "- %s predicts %s (%.0f%%): %s\n",
			p.Forecast.AgentName, p.Forecast.Outcome, p.Forecast.Probability*100, rationale)
	}

	return fmt.Sprintf(`Event: %s
Your prediction: %s (%.0f%%)
Your reasoning: %s

Other panelists:
%s
Open the discussion. Lay out your argument clearly and naturally. Speak in a full paragraph.`,
		event.Title, f.Outcome, f.Probability*100, f.Rationale, others.String())
}

func reactionPrompt(event *forecast.EventRecord, f *forecast.Forecast, transcript []Turn, instruction string) string {
	return fmt.Sprintf(`Event: %s
My position: %s

Discussion so far:
%s

%s
Respond naturally. You can speak at length if needed to make your point.`,
		event.Title, f.Outcome, historyWindow(transcript), instruction)
}

func closingPrompt(f *forecast.Forecast) string {
	return fmt.Sprintf("Give a final one-sentence closing statement. Be extremely confident in your %s call.", f.Outcome)
}

// historyWindow renders the last few turns as speaker-labelled lines. The
// window is bounded so prompts stay a fixed size however long the debate
// runs.
func historyWindow(transcript []Turn) string {
	if len(transcript) == 0 {
		return "This is the start of the discussion."
	}
	start := 0
	if len(transcript) > conversationWindow {
		start = len(transcript) - conversationWindow
	}
	var sb strings.Builder
	for _, t := range transcript[start:] {
		sb.WriteString(t.Speaker)
		sb.WriteString(": ")
		sb.WriteString(t.Text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
