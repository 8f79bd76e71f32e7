// internal/render/console.go
// Sequential console rendering of a debate. Implements the engine's
// observer so panels print as turns complete, without the engine ever
// blocking on the terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"foresight/internal/debate"
	"foresight/internal/forecast"
)

type Console struct {
	out       io.Writer
	lastRound int
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// EventHeader prints the event summary before forecasts are requested.
func (c *Console) EventHeader(event *forecast.EventRecord) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, TitleStyle.Render(event.Title))
	if event.Description != "" {
		fmt.Fprintln(c.out, DimStyle.Render(wrap(event.Description, 76)))
	}
	fmt.Fprintln(c.out, DimStyle.Render(fmt.Sprintf("market: %.0f%%  liquidity: %.0f  resolves: %s",
		event.MarketProbability*100, event.Liquidity, event.ResolutionDate)))
	fmt.Fprintln(c.out)
}

func (c *Console) ForecastReady(agentName string, f *forecast.Forecast) {
	fmt.Fprintf(c.out, "%s locks %s at %.0f%%\n",
		SpeakerStyle(agentName).Render(agentName),
		outcomeStyle(f.Outcome).Render(string(f.Outcome)),
		f.Probability*100)
	for _, claim := range f.Claims {
		line := "  - " + claim.Text
		if claim.Source != "" {
			line += " (" + claim.Source + ")"
		}
		fmt.Fprintln(c.out, DimStyle.Render(line))
	}
}

func (c *Console) ModeratorSpoke(text string) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, ModeratorStyle.Render("Moderator:"))
	fmt.Fprintln(c.out, wrap(text, 76))
}

func (c *Console) TurnSpoken(t debate.Turn) {
	c.roundBanner(t.Round, t.Closing)
	header := SpeakerStyle(t.Speaker).Render(t.Speaker)
	fmt.Fprintln(c.out, PanelBox.Render(header+"\n"+wrap(t.Text, 72)))
}

func (c *Console) TurnSkipped(s debate.Skip) {
	c.roundBanner(s.Round, s.Closing)
	fmt.Fprintln(c.out, SkipStyle.Render(fmt.Sprintf("%s skipped: %s", s.Speaker, s.Reason)))
}

func (c *Console) DebateConcluded(r *debate.Result) {
	fmt.Fprintln(c.out)
	verdict := "split panel"
	if r.Consensus {
		verdict = "consensus"
	}
	fmt.Fprintln(c.out, DimStyle.Render(fmt.Sprintf("run %s concluded (%s, %d turns, %d skips)",
		r.RunID, verdict, len(r.Transcript), len(r.Skipped))))
}

func (c *Console) roundBanner(round int, closing bool) {
	if round == c.lastRound {
		return
	}
	c.lastRound = round
	label := fmt.Sprintf("Round %d", round)
	if closing {
		label = "Closing statements"
	}
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, TitleStyle.Render("── "+label+" ──"))
}

func outcomeStyle(o forecast.Outcome) lipgloss.Style {
	if o == forecast.OutcomeNo {
		return NoStyle
	}
	return YesStyle
}

func wrap(text string, width int) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(wrapLine(line, width))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func wrapLine(line string, width int) string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	lineLen := 0
	for i, w := range words {
		if i > 0 {
			if lineLen+1+len(w) > width {
				b.WriteByte('\n')
				lineLen = 0
			} else {
				b.WriteByte(' ')
				lineLen++
			}
		}
		b.WriteString(w)
		lineLen += len(w)
	}
	return b.String()
}
