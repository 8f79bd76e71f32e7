// internal/export/markdown.go
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"foresight/internal/debate"
	"foresight/internal/forecast"
)

// ExportResult generates a formatted markdown transcript for a completed run.
func ExportResult(result *debate.Result, event *forecast.EventRecord) string {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(result.EventTitle)
	sb.WriteString("\n\n")

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("**Run ID:** `%s`\n\n", result.RunID))
	sb.WriteString(fmt.Sprintf("**Event ID:** `%s`\n\n", result.EventID))
	if event != nil {
		sb.WriteString(fmt.Sprintf("**Market probability:** %.0f%%\n\n", event.MarketProbability*100))
		if event.ResolutionDate != "" {
			sb.WriteString(fmt.Sprintf("**Resolves:** %s\n\n", event.ResolutionDate))
		}
	}
	verdict := "split panel"
	if result.Consensus {
		verdict = "consensus"
	}
	sb.WriteString(fmt.Sprintf("**Verdict:** %s\n\n", verdict))
	sb.WriteString("---\n\n")

	// Locked forecasts
	sb.WriteString("## Locked Forecasts\n\n")
	sb.WriteString("| Agent | Call | Probability |\n")
	sb.WriteString("|-------|------|-------------|\n")
	for _, f := range result.Forecasts {
		sb.WriteString(fmt.Sprintf("| %s | %s | %.0f%% |\n", f.AgentName, f.Outcome, f.Probability*100))
	}
	sb.WriteString("\n")

	for _, f := range result.Forecasts {
		sb.WriteString(fmt.Sprintf("### %s\n\n", f.AgentName))
		for _, claim := range f.Claims {
			if claim.Source != "" {
				sb.WriteString(fmt.Sprintf("- %s (%s)\n", claim.Text, claim.Source))
			} else {
				sb.WriteString(fmt.Sprintf("- %s\n", claim.Text))
			}
		}
		sb.WriteString("\n> ")
		sb.WriteString(strings.ReplaceAll(strings.TrimSpace(f.Rationale), "\n", "\n> "))
		sb.WriteString("\n\n")
	}

	sb.WriteString("---\n\n")

	if result.Opening != "" {
		sb.WriteString("## Moderator Opening\n\n")
		writeQuoted(&sb, result.Opening)
		sb.WriteString("\n")
	}

	// Transcript grouped by round
	sb.WriteString("## Transcript\n\n")
	lastRound := 0
	for _, t := range result.Transcript {
		if t.Round != lastRound {
			lastRound = t.Round
			if t.Closing {
				sb.WriteString("### Closing Statements\n\n")
			} else {
				sb.WriteString(fmt.Sprintf("### Round %d\n\n", t.Round))
			}
		}
		sb.WriteString(fmt.Sprintf("**%s**\n\n", t.Speaker))
		writeQuoted(&sb, t.Text)
		sb.WriteString("\n")
	}

	if len(result.Skipped) > 0 {
		sb.WriteString("## Skipped Turns\n\n")
		for _, s := range result.Skipped {
			sb.WriteString(fmt.Sprintf("- %s (round %d): %s\n", s.Speaker, s.Round, s.Reason))
		}
		sb.WriteString("\n")
	}

	if result.Closing != "" {
		sb.WriteString("## Moderator Closing\n\n")
		writeQuoted(&sb, result.Closing)
		sb.WriteString("\n")
	}

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from Foresight on %s*\n", time.Now().Format("2006-01-02 15:04:05")))

	return sb.String()
}

// WriteResult exports a run to a markdown file under baseDir/transcripts.
func WriteResult(result *debate.Result, event *forecast.EventRecord, baseDir string) (string, error) {
	datePart := time.Now().Format("2006-01-02")
	namePart := sanitizeFilename(result.EventTitle)
	filename := fmt.Sprintf("%s-%s.md", datePart, namePart)

	dir := filepath.Join(baseDir, "transcripts")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create transcripts directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(ExportResult(result, event)), 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return path, nil
}

func writeQuoted(sb *strings.Builder, content string) {
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		sb.WriteString("> ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}

// sanitizeFilename removes characters unsuitable for filenames.
func sanitizeFilename(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '-' || r == '_':
			sb.WriteRune(r)
		}
	}

	result := sb.String()
	for strings.Contains(result, "--") {
		result = strings.ReplaceAll(result, "--", "-")
	}
	result = strings.Trim(result, "-")
	if result == "" {
		result = "debate"
	}
	if len(result) > 50 {
		result = result[:50]
	}
	return result
}
