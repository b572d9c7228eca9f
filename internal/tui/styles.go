package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Greens and cyans for the portal theme, ANSI 256 codes.
//
//nolint:gochecknoglobals // lipgloss styles are package-level by convention.
var (
	ColorHeader    = lipgloss.Color("82")  // portal green
	ColorLabel     = lipgloss.Color("114") // muted green
	ColorValue     = lipgloss.Color("252")
	ColorMuted     = lipgloss.Color("244")
	ColorBorder    = lipgloss.Color("240")
	ColorHighlight = lipgloss.Color("51") // cyan
	ColorSpinner   = lipgloss.Color("82")
	ColorWarning   = lipgloss.Color("214")
	ColorCritical  = lipgloss.Color("196")
	ColorAlive     = lipgloss.Color("40")
	ColorDead      = lipgloss.Color("160")
	ColorUnknown   = lipgloss.Color("245")
)

//nolint:gochecknoglobals // lipgloss styles are package-level by convention.
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorHeader).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorHeader).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorLabel)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorValue)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	CriticalStyle = lipgloss.NewStyle().
			Foreground(ColorCritical).
			Bold(true)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	ActivePageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("16")).
			Background(ColorHeader).
			Bold(true).
			Padding(0, 1)

	PageStyle = lipgloss.NewStyle().
			Foreground(ColorValue).
			Padding(0, 1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorCritical).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// StatusColor returns the badge colour for a character status value.
func StatusColor(status string) lipgloss.Color {
	switch status {
	case "Alive":
		return ColorAlive
	case "Dead":
		return ColorDead
	default:
		return ColorUnknown
	}
}
