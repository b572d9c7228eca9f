package detail

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/multiverse/internal/catalog"
)

const (
	borderPadding = 2
	minCardWidth  = 30
	labelWidth    = 10
)

//nolint:gochecknoglobals // lipgloss styles are package-level by convention.
var (
	nameStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true).Width(labelWidth)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("82")).
			Padding(0, 1)
)

// Row is one label/value line of the card.
type Row struct {
	Label string
	Value string
}

// Rows returns the card body for c in display order. Optional fields are
// left out when empty.
func Rows(c catalog.Character) []Row {
	rows := []Row{
		{Label: "Species", Value: orUnknown(c.Species)},
	}
	if c.Type != "" {
		rows = append(rows, Row{Label: "Type", Value: c.Type})
	}
	rows = append(rows,
		Row{Label: "Gender", Value: c.Gender.Label()},
		Row{Label: "Origin", Value: orUnknown(c.Origin.Name)},
		Row{Label: "Location", Value: orUnknown(c.Location.Name)},
		Row{Label: "Episodes", Value: strconv.Itoa(len(c.Episode))},
	)
	if c.Image != "" {
		rows = append(rows, Row{Label: "Image", Value: c.Image})
	}
	return rows
}

// StatusBadge renders the status glyph and label, coloured by status.
func StatusBadge(s catalog.Status) string {
	return lipgloss.NewStyle().
		Foreground(statusColor(s)).
		Bold(true).
		Render(s.Glyph() + " " + s.Label())
}

// RenderCard renders the full card for c, boxed to width.
func RenderCard(c catalog.Character, width int) string {
	if width < minCardWidth {
		width = minCardWidth
	}

	var b strings.Builder
	b.WriteString(nameStyle.Render(c.Name))
	b.WriteString("  ")
	b.WriteString(StatusBadge(c.Status))
	b.WriteString("\n\n")
	for _, row := range Rows(c) {
		b.WriteString(labelStyle.Render(row.Label + ":"))
		b.WriteString(valueStyle.Render(row.Value))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("[esc] Back  [q] Quit"))

	return cardStyle.Width(width - borderPadding).Render(b.String())
}

func statusColor(s catalog.Status) lipgloss.Color {
	switch s {
	case catalog.StatusAlive:
		return lipgloss.Color("40")
	case catalog.StatusDead:
		return lipgloss.Color("160")
	default:
		return lipgloss.Color("245")
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
