package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used by text mode.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
	StatusSkipped lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	green := lipgloss.AdaptiveColor{Light: "#1a7f37", Dark: "#3fb950"}
	yellow := lipgloss.AdaptiveColor{Light: "#9a6700", Dark: "#d29922"}
	red := lipgloss.AdaptiveColor{Light: "#cf222e", Dark: "#f85149"}
	grey := lipgloss.AdaptiveColor{Light: "#6e7781", Dark: "#8b949e"}

	return &Styles{
		Header:  r.NewStyle().Bold(true),
		Success: r.NewStyle().Foreground(green),
		Warning: r.NewStyle().Foreground(yellow),
		Error:   r.NewStyle().Foreground(red),
		Muted:   r.NewStyle().Foreground(grey),
		Key:     r.NewStyle().Bold(true),

		StatusSuccess: r.NewStyle().Foreground(green).SetString("✓"),
		StatusWarning: r.NewStyle().Foreground(yellow).SetString("!"),
		StatusError:   r.NewStyle().Foreground(red).SetString("✗"),
		StatusSkipped: r.NewStyle().Foreground(grey).SetString("-"),
	}
}
