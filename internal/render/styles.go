// internal/render/styles.go
package render

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Cyan    = lipgloss.Color("#00FFFF")
	Green   = lipgloss.Color("#00FF00")
	Yellow  = lipgloss.Color("#FFD700")
	Orange  = lipgloss.Color("#FFA500")
	Red     = lipgloss.Color("#FF6B6B")
	Magenta = lipgloss.Color("#FF00FF")
	Dim     = lipgloss.Color("#555555")
	White   = lipgloss.Color("#FFFFFF")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan)

	ModeratorStyle = lipgloss.NewStyle().
			Foreground(Yellow).
			Bold(true)

	SkipStyle = lipgloss.NewStyle().
			Foreground(Orange)

	DimStyle = lipgloss.NewStyle().
			Foreground(Dim)

	YesStyle = lipgloss.NewStyle().Foreground(Green).Bold(true)
	NoStyle  = lipgloss.NewStyle().Foreground(Red).Bold(true)

	PanelBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Dim).
			Padding(0, 1)
)

var speakerPalette = []lipgloss.Color{Cyan, Green, Magenta, Orange}

// SpeakerStyle returns a stable color per speaker name.
func SpeakerStyle(name string) lipgloss.Style {
	var sum int
	for _, r := range name {
		sum += int(r)
	}
	color := speakerPalette[sum%len(speakerPalette)]
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}
