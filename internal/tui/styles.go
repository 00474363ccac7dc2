package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rgehrsitz/solarplan/internal/domain"
)

// Fallback colours when a tenant leaves its theme empty
const (
	defaultPrimary   = "#0B6E4F"
	defaultSecondary = "#08A045"
	defaultAccent    = "#F4B400"

	colorMuted  = lipgloss.Color("#6C757D")
	colorDanger = lipgloss.Color("#DC3545")
	colorBorder = lipgloss.Color("#495057")
)

// Styles is the tenant-themed style set
type Styles struct {
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	StatusBar  lipgloss.Style
	StatusKey  lipgloss.Style
	Border     lipgloss.Style
	Selected   lipgloss.Style
	Unselected lipgloss.Style
	Label      lipgloss.Style
	Value      lipgloss.Style
	Highlight  lipgloss.Style
	Error      lipgloss.Style
}

// NewStyles builds the style set from the tenant's colour theme
func NewStyles(c domain.Colors) Styles {
	primary := lipgloss.Color(orColor(c.Primary, defaultPrimary))
	secondary := lipgloss.Color(orColor(c.Secondary, defaultSecondary))
	accent := lipgloss.Color(orColor(c.Accent, defaultAccent))

	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primary).
			Padding(0, 1),
		Subtitle:  lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
		StatusBar: lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1),
		StatusKey: lipgloss.NewStyle().Foreground(accent).Bold(true),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2),
		Selected:   lipgloss.NewStyle().Foreground(primary).Bold(true),
		Unselected: lipgloss.NewStyle(),
		Label:      lipgloss.NewStyle().Foreground(colorMuted).Width(22),
		Value:      lipgloss.NewStyle().Bold(true),
		Highlight:  lipgloss.NewStyle().Foreground(secondary).Bold(true),
		Error:      lipgloss.NewStyle().Foreground(colorDanger).Bold(true),
	}
}

func orColor(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
