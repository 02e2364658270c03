package tui

import "github.com/charmbracelet/lipgloss"

// Theme はクライアントの配色。ANSI 256色で指定する。
type Theme struct {
	Title       lipgloss.Color
	NormalText  lipgloss.Color
	FaintText   lipgloss.Color
	Focused     lipgloss.Color
	TabActive   lipgloss.Color
	TabInactive lipgloss.Color
	Error       lipgloss.Color
	Success     lipgloss.Color
	BorderColor lipgloss.Color
}

// DefaultTheme は暗い端末向けの配色。
var DefaultTheme = Theme{
	Title:       lipgloss.Color("75"),
	NormalText:  lipgloss.Color("252"),
	FaintText:   lipgloss.Color("243"),
	Focused:     lipgloss.Color("212"),
	TabActive:   lipgloss.Color("75"),
	TabInactive: lipgloss.Color("240"),
	Error:       lipgloss.Color("203"),
	Success:     lipgloss.Color("114"),
	BorderColor: lipgloss.Color("238"),
}

type styles struct {
	title       lipgloss.Style
	label       lipgloss.Style
	focused     lipgloss.Style
	value       lipgloss.Style
	faint       lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	alertError  lipgloss.Style
	alertInfo   lipgloss.Style
	card        lipgloss.Style
}

func newStyles(theme Theme) styles {
	return styles{
		title:       lipgloss.NewStyle().Foreground(theme.Title).Bold(true),
		label:       lipgloss.NewStyle().Foreground(theme.FaintText).Width(14),
		focused:     lipgloss.NewStyle().Foreground(theme.Focused).Width(14),
		value:       lipgloss.NewStyle().Foreground(theme.NormalText),
		faint:       lipgloss.NewStyle().Foreground(theme.FaintText),
		tabActive:   lipgloss.NewStyle().Foreground(theme.TabActive).Bold(true).Underline(true),
		tabInactive: lipgloss.NewStyle().Foreground(theme.TabInactive),
		alertError:  lipgloss.NewStyle().Foreground(theme.Error).Bold(true),
		alertInfo:   lipgloss.NewStyle().Foreground(theme.Success),
		card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.BorderColor).
			Padding(0, 2),
	}
}
