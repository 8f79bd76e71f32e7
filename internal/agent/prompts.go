// internal/agent/prompts.go
package agent

import (
	"fmt"

	"foresight/internal/forecast"
)

// systemPromptPrefix is shared by every panelist regardless of archetype.
const systemPromptPrefix = `You are an independent AI research agent on a prediction panel.
Your goal is to predict the outcome of an event listed on a prediction market.

CORE RULES:
- Provide a clear YES or NO prediction
- Express probability as a float (0.0 - 1.0)
- Include 3-5 key claims with reliable sources
- Write a clear rationale (2-3 sentences)
- Be BRIEF and TO THE POINT
- No betting language
- Output MUST be valid JSON`

// Built-in archetypes. Each describes an evidentiary bias, not a personality
// for its own sake: the bias is what makes the panel disagree productively.
const (
	ArchetypePrecision = `ARCHETYPE: Precision-Oriented
Focus on factual accuracy and high-quality evidence.
Prefer official documentation, company press releases, and primary sources.
Be conservative with probabilities unless evidence is overwhelming.`

	ArchetypeEarlySignal = `ARCHETYPE: Early-Signal Oriented
Focus on detecting emerging signals before they become mainstream.
Monitor social sentiment, leaks, and expert commentary.
Assign more extreme probabilities if you detect a strong early shift.`

	ArchetypeConstraint = `ARCHETYPE: Constraint-Oriented
Focus on timeline realism and execution constraints.
Analyze historical precedents, technical feasibility, and regulatory hurdles.
Maintain a moderate risk posture, grounding predictions in what is realistically possible.`
)

// Archetypes maps config names to built-in archetype text. Unknown names are
// passed through verbatim so configs can ship custom personas.
var Archetypes = map[string]string{
	"precision":    ArchetypePrecision,
	"early-signal": ArchetypeEarlySignal,
	"constraint":   ArchetypeConstraint,
}

// ResolveArchetype returns the built-in text for a known archetype name, or
// the input itself when it is already free-form persona text.
func ResolveArchetype(name string) string {
	if text, ok := Archetypes[name]; ok {
		return text
	}
	return name
}

func predictionPrompt(event *forecast.EventRecord) string {
	return fmt.Sprintf(`TOPIC TO ANALYZE:
%s

DESCRIPTION:
%s

RESOLUTION RULES:
%s

TARGET DATE: %s

Respond with your analysis in this JSON format:
{
  "event_id": "%s",
  "prediction": "YES or NO",
  "probability": 0.0,
  "key_facts": [
    {
      "claim": "Your specific claim (brief but complete)",
      "source": "URL or source name"
    }
  ],
  "rationale": "2-3 sentence explanation of your reasoning"
}

IMPORTANT:
- Be brief and to the point
- Include 3-5 key claims
- Each claim should be one clear sentence
- Rationale should explain your core reasoning`,
		event.Title, event.Description, event.ResolutionRules, event.ResolutionDate, event.EventID)
}
